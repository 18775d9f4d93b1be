package localstore

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu       sync.RWMutex
	data     map[string][]byte
	watchers map[chan string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:     make(map[string][]byte),
		watchers: make(map[chan string]struct{}),
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)

	m.mu.Lock()
	m.data[key] = v
	m.notifyLocked(key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.notifyLocked(key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) Watch(ctx context.Context) (<-chan string, error) {
	in := make(chan string, 16)

	m.mu.Lock()
	m.watchers[in] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.watchers, in)
		close(in)
		m.mu.Unlock()
	}()

	return in, nil
}

// notifyLocked drops the event for a watcher whose buffer is full;
// a reload triggered by the buffered events covers the dropped one.
func (m *MemoryStore) notifyLocked(key string) {
	for ch := range m.watchers {
		select {
		case ch <- key:
		default:
		}
	}
}
