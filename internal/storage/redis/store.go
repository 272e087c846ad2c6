package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"ansindexer/internal/model"
)

const DefaultPrefix = "ans:lookup"

// upsertScript replaces the hash at KEYS[1] unless it already holds a later
// transaction version. ARGV[1] is the incoming version, the rest are
// field/value pairs.
var upsertScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'last_transaction_version')
if current and tonumber(current) > tonumber(ARGV[1]) then
	return 0
end
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1], unpack(ARGV, 2))
return 1
`)

// Store keeps one Redis hash per name, usable as a lookup cache in front of
// the relational table.
type Store struct {
	client *redis.Client
	prefix string
}

// NewStore connects to the Redis instance at url (redis://host:port/db).
func NewStore(ctx context.Context, url, prefix string) (*Store, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewStoreWithClient(client, prefix), nil
}

func NewStoreWithClient(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Key returns the hash key for a name. The domain is length-prefixed so
// names containing ':' cannot collide.
func (s *Store) Key(pk model.CurrentAnsLookupPK) string {
	return fmt.Sprintf("%s:%d:%s:%s", s.prefix, len(pk.Domain), pk.Domain, pk.Subdomain)
}

// UpsertLookups writes all records in one pipeline.
func (s *Store) UpsertLookups(ctx context.Context, lookups []model.CurrentAnsLookup) error {
	if len(lookups) == 0 {
		return nil
	}
	pipe := s.client.Pipeline()
	for _, lookup := range lookups {
		version := strconv.FormatUint(lookup.LastTransactionVersion, 10)
		args := []interface{}{
			version,
			"domain", lookup.Domain,
			"subdomain", lookup.Subdomain,
			"last_transaction_version", version,
			"expiration_timestamp", model.FormatExpiration(lookup.ExpirationTimestamp),
			"inserted_at", lookup.InsertedAt.UTC().Format(time.RFC3339Nano),
		}
		if lookup.RegisteredAddress != nil {
			args = append(args, "registered_address", *lookup.RegisteredAddress)
		}
		upsertScript.Eval(ctx, pipe, []string{s.Key(lookup.PK())}, args...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis upsert: %w", err)
	}
	return nil
}

// GetLookup reads a name back from its hash. The indexer only writes; this
// is a read-back helper for operators and the integration suite.
func (s *Store) GetLookup(ctx context.Context, pk model.CurrentAnsLookupPK) (model.CurrentAnsLookup, bool, error) {
	fields, err := s.client.HGetAll(ctx, s.Key(pk)).Result()
	if err != nil {
		return model.CurrentAnsLookup{}, false, err
	}
	if len(fields) == 0 {
		return model.CurrentAnsLookup{}, false, nil
	}
	return parseLookup(fields)
}

func parseLookup(fields map[string]string) (model.CurrentAnsLookup, bool, error) {
	version, err := strconv.ParseUint(fields["last_transaction_version"], 10, 64)
	if err != nil {
		return model.CurrentAnsLookup{}, false, fmt.Errorf("parse version: %w", err)
	}
	expiration, err := model.ParseExpiration(fields["expiration_timestamp"])
	if err != nil {
		return model.CurrentAnsLookup{}, false, err
	}
	insertedAt, err := time.Parse(time.RFC3339Nano, fields["inserted_at"])
	if err != nil {
		return model.CurrentAnsLookup{}, false, fmt.Errorf("parse inserted_at: %w", err)
	}

	lookup := model.CurrentAnsLookup{
		Domain:                 fields["domain"],
		Subdomain:              fields["subdomain"],
		LastTransactionVersion: version,
		ExpirationTimestamp:    expiration.UTC(),
		InsertedAt:             insertedAt.UTC(),
	}
	if addr, ok := fields["registered_address"]; ok {
		lookup.RegisteredAddress = &addr
	}
	return lookup, true, nil
}
