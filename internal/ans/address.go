package ans

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const addressLength = 32

// NormalizeAddress returns the long form of an account address: "0x"
// followed by 64 lowercase hex digits. Short forms such as "0x1" are
// left-padded.
func NormalizeAddress(input string) (string, error) {
	input = strings.TrimSpace(input)
	digits := strings.TrimPrefix(strings.TrimPrefix(input, "0x"), "0X")
	if digits == "" {
		return "", fmt.Errorf("invalid address: %q", input)
	}
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	raw, err := hexutil.Decode("0x" + digits)
	if err != nil {
		return "", fmt.Errorf("invalid address %q: %w", input, err)
	}
	if len(raw) > addressLength {
		return "", fmt.Errorf("invalid address length: %s", input)
	}
	return hexutil.Encode(common.LeftPadBytes(raw, addressLength)), nil
}
