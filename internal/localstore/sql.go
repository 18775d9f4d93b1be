package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/safar/go-storefront/internal/config"
	"github.com/safar/go-storefront/internal/database"
)

type sqlQueries struct {
	get    string
	upsert string
	remove string
}

var dialects = map[string]sqlQueries{
	config.DriverSQLite: {
		get: `SELECT value FROM kv_store WHERE namespace = ? AND key = ?`,
		upsert: `
			INSERT INTO kv_store (namespace, key, value, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (namespace, key) DO UPDATE
			SET value = excluded.value, updated_at = excluded.updated_at`,
		remove: `DELETE FROM kv_store WHERE namespace = ? AND key = ?`,
	},
	config.DriverPostgres: {
		get: `SELECT value FROM kv_store WHERE namespace = $1 AND key = $2`,
		upsert: `
			INSERT INTO kv_store (namespace, key, value, updated_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (namespace, key) DO UPDATE
			SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		remove: `DELETE FROM kv_store WHERE namespace = $1 AND key = $2`,
	},
}

// SQLStore keeps every key of one namespace as a row of kv_store.
type SQLStore struct {
	db        *sql.DB
	q         sqlQueries
	namespace string
	txOpts    database.TxOptions
}

func NewSQLStore(db *sql.DB, driver, namespace string) (*SQLStore, error) {
	q, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("%w: %s", database.ErrUnsupportedDriver, driver)
	}
	return &SQLStore{
		db:        db,
		q:         q,
		namespace: namespace,
		txOpts:    database.DefaultTxOptions(),
	}, nil
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, s.q.get, s.namespace, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	return database.WithRetry(ctx, s.db, s.txOpts, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q.upsert, s.namespace, key, value, time.Now().UTC()); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		return nil
	})
}

func (s *SQLStore) Remove(ctx context.Context, key string) error {
	return database.WithRetry(ctx, s.db, s.txOpts, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q.remove, s.namespace, key); err != nil {
			return fmt.Errorf("remove %s: %w", key, err)
		}
		return nil
	})
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
