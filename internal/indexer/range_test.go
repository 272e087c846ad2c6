package indexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionRangeContains(t *testing.T) {
	r := VersionRange{From: 100, To: 105}
	require.False(t, r.Contains(99))
	require.True(t, r.Contains(100))
	require.True(t, r.Contains(105))
	require.False(t, r.Contains(106))
}

func TestVersionRangeUnbounded(t *testing.T) {
	r := VersionRange{From: 5}
	require.NoError(t, r.Validate())
	require.True(t, r.Contains(5))
	require.True(t, r.Contains(1<<62))
	require.True(t, VersionRange{}.Contains(0))
}

func TestVersionRangeInvalid(t *testing.T) {
	require.Error(t, VersionRange{From: 10, To: 9}.Validate())
	require.NoError(t, VersionRange{From: 10, To: 10}.Validate())
}

func TestParseContractAddress(t *testing.T) {
	addr, err := ParseContractAddress("  ")
	require.NoError(t, err)
	require.Empty(t, addr)

	addr, err = ParseContractAddress("0x1")
	require.NoError(t, err)
	require.Equal(t, "0x0000000000000000000000000000000000000000000000000000000000000001", addr)

	_, err = ParseContractAddress("0xnothex")
	require.Error(t, err)
}
