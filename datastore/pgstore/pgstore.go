// Package pgstore is a Postgres-backed datastore.Store embedder, grounded
// on the teacher's storage/postgres.go SQLDB: the same pgxpool setup and
// key/value table shape, generalized from a fixed YCSB_MAIN schema and
// uint64 keys to an opaque byte-key/byte-value table matching §6.2's
// untyped read/apply contract.
package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Store is a datastore.Store backed by a single Postgres table of
// (key bytea primary key, value bytea).
type Store struct {
	ctx   context.Context
	pool  *pgxpool.Pool
	table string
}

// Open connects to dsn and ensures table exists, mirroring the teacher's
// SQLDB.init's connect-then-create-table sequence.
func Open(ctx context.Context, dsn, table string) (*Store, error) {
	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore: connect: %w", err)
	}
	s := &Store{ctx: ctx, pool: pool, table: table}
	if _, err := pool.Exec(ctx, fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (key BYTEA PRIMARY KEY, value BYTEA)", table)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: create table: %w", err)
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() { s.pool.Close() }

// Read loads every key present in the table, omitting keys with no row.
func (s *Store) Read(keys [][]byte) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	rows, err := s.pool.Query(s.ctx, fmt.Sprintf("SELECT key, value FROM %s WHERE key = ANY($1)", s.table), keys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var k, v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[string(k)] = v
	}
	return out, rows.Err()
}

// Apply upserts every write inside a single transaction, per §6.2's
// "persisted atomically by the embedder".
func (s *Store) Apply(writes map[string][]byte) error {
	tx, err := s.pool.BeginTx(s.ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(s.ctx)
	for k, v := range writes {
		if _, err := tx.Exec(s.ctx, fmt.Sprintf(
			"INSERT INTO %s (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value",
			s.table), []byte(k), v); err != nil {
			return err
		}
	}
	return tx.Commit(s.ctx)
}
