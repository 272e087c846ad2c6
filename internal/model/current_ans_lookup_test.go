package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExpirationFormatRoundTrip(t *testing.T) {
	for _, secs := range []int64{0, 1700000000, 253402300799, 300000000000} {
		expiry := time.Unix(secs, 0).UTC()
		parsed, err := ParseExpiration(FormatExpiration(expiry))
		require.NoError(t, err)
		require.Equal(t, expiry, parsed)
	}
	require.Equal(t, "2023-11-14T22:13:20Z", FormatExpiration(time.Unix(1700000000, 0)))
}

func TestParseExpirationRejectsMalformed(t *testing.T) {
	for _, input := range []string{"", "2023-11-14", "2023-13-01T00:00:00Z", "2023-11-14T22:13:20+02:00", "2023-11-14T22:13:20Zjunk"} {
		_, err := ParseExpiration(input)
		require.Error(t, err, input)
	}
}

func TestCurrentAnsLookupJSON(t *testing.T) {
	addr := "0xabc"
	lookup := CurrentAnsLookup{
		Domain:                 "alice",
		RegisteredAddress:      &addr,
		LastTransactionVersion: 42,
		ExpirationTimestamp:    time.Unix(300000000000, 0).UTC(),
		InsertedAt:             time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(lookup)
	require.NoError(t, err)

	var decoded CurrentAnsLookup
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, lookup, decoded)
}
