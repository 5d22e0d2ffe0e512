package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/promo-storefront/internal/cart"
)

const (
	loadSlotSQL = `SELECT value FROM kv_slots WHERE key = $1`

	saveSlotSQL = `INSERT INTO kv_slots (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
)

var _ cart.Storage = (*KVStore)(nil)

// KVStore implements cart.Storage on the kv_slots table. Concurrent writers
// are not coordinated: the last Save wins.
type KVStore struct {
	pool *pgxpool.Pool
}

// NewKVStore returns a KVStore that uses the given pool.
func NewKVStore(pool *pgxpool.Pool) *KVStore {
	return &KVStore{pool: pool}
}

func (s *KVStore) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, loadSlotSQL, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, cart.ErrRecordNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load slot %q", key)
	}
	return data, nil
}

func (s *KVStore) Save(ctx context.Context, key string, data []byte) error {
	if _, err := s.pool.Exec(ctx, saveSlotSQL, key, data); err != nil {
		return errors.Wrapf(err, "save slot %q", key)
	}
	return nil
}

// Ping checks the connection.
func (s *KVStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
