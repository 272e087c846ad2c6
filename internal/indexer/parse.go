package indexer

import (
	"strings"

	"ansindexer/internal/ans"
)

// ParseContractAddress validates and normalizes the configured ANS contract
// address. An empty input is valid and disables the projection.
func ParseContractAddress(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", nil
	}
	return ans.NormalizeAddress(input)
}
