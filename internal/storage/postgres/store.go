package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ansindexer/internal/model"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS current_ans_lookup (
		domain TEXT NOT NULL,
		subdomain TEXT NOT NULL,
		registered_address TEXT,
		last_transaction_version BIGINT NOT NULL,
		expiration_timestamp TIMESTAMP NOT NULL,
		inserted_at TIMESTAMP NOT NULL DEFAULT now(),
		PRIMARY KEY (domain, subdomain)
	)`,
	`CREATE INDEX IF NOT EXISTS cal_registered_address_idx ON current_ans_lookup (registered_address)`,
	`CREATE TABLE IF NOT EXISTS indexer_state (
		name TEXT PRIMARY KEY,
		last_processed_version BIGINT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Store provides Postgres persistence for current_ans_lookup.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// UpsertLookups inserts or replaces current_ans_lookup rows. A row already
// written by a later transaction is left untouched.
func (s *Store) UpsertLookups(ctx context.Context, lookups []model.CurrentAnsLookup) error {
	if len(lookups) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, lookup := range lookups {
		version, err := toBigint(lookup.LastTransactionVersion)
		if err != nil {
			return err
		}
		batch.Queue(`
			INSERT INTO current_ans_lookup (
				domain, subdomain, registered_address, last_transaction_version, expiration_timestamp, inserted_at
			) VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (domain, subdomain)
			DO UPDATE SET
				registered_address = EXCLUDED.registered_address,
				last_transaction_version = EXCLUDED.last_transaction_version,
				expiration_timestamp = EXCLUDED.expiration_timestamp,
				inserted_at = EXCLUDED.inserted_at
			WHERE current_ans_lookup.last_transaction_version <= EXCLUDED.last_transaction_version
		`,
			lookup.Domain,
			lookup.Subdomain,
			lookup.RegisteredAddress,
			version,
			lookup.ExpirationTimestamp.UTC(),
			lookup.InsertedAt.UTC(),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range lookups {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// GetLookup returns the stored row for a name. The indexer only writes; this
// is a read-back helper for operators and the integration suite.
func (s *Store) GetLookup(ctx context.Context, pk model.CurrentAnsLookupPK) (model.CurrentAnsLookup, bool, error) {
	var lookup model.CurrentAnsLookup
	var version int64
	row := s.pool.QueryRow(ctx, `
		SELECT domain, subdomain, registered_address, last_transaction_version, expiration_timestamp, inserted_at
		FROM current_ans_lookup WHERE domain=$1 AND subdomain=$2
	`, pk.Domain, pk.Subdomain)
	err := row.Scan(
		&lookup.Domain,
		&lookup.Subdomain,
		&lookup.RegisteredAddress,
		&version,
		&lookup.ExpirationTimestamp,
		&lookup.InsertedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.CurrentAnsLookup{}, false, nil
		}
		return model.CurrentAnsLookup{}, false, err
	}
	lookup.LastTransactionVersion = uint64(version)
	return lookup, true, nil
}

// LoadState returns last_processed_version for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var version int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_version FROM indexer_state WHERE name=$1`, name)
	if err := row.Scan(&version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(version), true, nil
}

// SaveState upserts last_processed_version for a name.
func (s *Store) SaveState(ctx context.Context, name string, version uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	val, err := toBigint(version)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO indexer_state (name, last_processed_version, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_version = EXCLUDED.last_processed_version, updated_at = now()
	`, name, val)
	return err
}

func toBigint(version uint64) (int64, error) {
	if version > math.MaxInt64 {
		return 0, fmt.Errorf("version %d does not fit in bigint", version)
	}
	return int64(version), nil
}
