package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ansindexer/internal/model"
)

func TestKey(t *testing.T) {
	s := NewStoreWithClient(nil, "")
	require.Equal(t, "ans:lookup:5:alice:", s.Key(model.CurrentAnsLookupPK{Domain: "alice"}))
	require.Equal(t, "ans:lookup:5:alice:pay", s.Key(model.CurrentAnsLookupPK{Domain: "alice", Subdomain: "pay"}))

	s = NewStoreWithClient(nil, "custom")
	require.Equal(t, "custom:3:bob:", s.Key(model.CurrentAnsLookupPK{Domain: "bob"}))
}

func TestKeyColonsDoNotCollide(t *testing.T) {
	s := NewStoreWithClient(nil, "")
	a := s.Key(model.CurrentAnsLookupPK{Domain: "a:b", Subdomain: ""})
	b := s.Key(model.CurrentAnsLookupPK{Domain: "a", Subdomain: "b:"})
	require.NotEqual(t, a, b)
}

func TestParseLookup(t *testing.T) {
	lookup, ok, err := parseLookup(map[string]string{
		"domain":                   "alice",
		"subdomain":                "",
		"last_transaction_version": "42",
		"expiration_timestamp":     "2023-11-14T22:13:20Z",
		"inserted_at":              "2024-05-01T12:00:00.123456Z",
	})
	require.NoError(t, err)
	require.True(t, ok)
	require.Nil(t, lookup.RegisteredAddress)
	require.Equal(t, uint64(42), lookup.LastTransactionVersion)
	require.Equal(t, time.Unix(1700000000, 0).UTC(), lookup.ExpirationTimestamp)

	_, _, err = parseLookup(map[string]string{"last_transaction_version": "x"})
	require.Error(t, err)
}

func TestParseLookupFarFutureExpiration(t *testing.T) {
	expiry := time.Unix(300000000000, 0).UTC()
	lookup, ok, err := parseLookup(map[string]string{
		"domain":                   "alice",
		"last_transaction_version": "7",
		"expiration_timestamp":     model.FormatExpiration(expiry),
		"inserted_at":              "2024-05-01T12:00:00Z",
	})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, expiry, lookup.ExpirationTimestamp)
}
