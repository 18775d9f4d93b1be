// Package localstore is the client's persistent key-value storage: the auth token,
// the user profile snapshot, the guest cart and the cached top offers, each kept
// as a plain JSON blob under a well-known key.
//
// Values carry no expiry and no schema version. A blob that no longer decodes into
// the expected shape is reported as ErrShapeMismatch and the caller picks a default.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	KeyToken           = "token"
	KeyUser            = "user"
	KeyGuestCart       = "cart"
	KeyTopOffers       = "topOffers"
	KeyCheckoutAttempt = "checkoutAttempt"
)

var (
	ErrNotFound      = errors.New("key not found")
	ErrShapeMismatch = errors.New("stored value has unexpected shape")
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Watcher is implemented by stores that can report writes made through any
// handle on the same namespace. Every change is reported, including the
// watcher's own writes. The channel closes when ctx is done.
type Watcher interface {
	Watch(ctx context.Context) (<-chan string, error)
}

func GetJSON(ctx context.Context, s Store, key string, dst any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w: %v", key, ErrShapeMismatch, err)
	}
	return nil
}

func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}
