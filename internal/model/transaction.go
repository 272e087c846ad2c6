package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// UserTransactionType is the only transaction kind that carries ANS events.
const UserTransactionType = "user_transaction"

// Transaction is the subset of a ledger transaction the projection reads.
type Transaction struct {
	Type    string  `json:"type"`
	Version Version `json:"version"`
	Events  []Event `json:"events"`
}

// IsUserTransaction reports whether the transaction was user-submitted.
func (t Transaction) IsUserTransaction() bool {
	return t.Type == UserTransactionType
}

// Event is a single event emitted by a transaction.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Version is a ledger version. The REST API encodes it as a decimal string,
// but plain JSON numbers are accepted too.
type Version uint64

// UnmarshalJSON decodes either "42" or 42.
func (v *Version) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	if text == "null" {
		return fmt.Errorf("version is null")
	}
	if unquoted, err := strconv.Unquote(text); err == nil {
		text = unquoted
	}
	val, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %s: %w", string(data), err)
	}
	*v = Version(val)
	return nil
}

// MarshalJSON encodes the version as a decimal string, like the REST API.
func (v Version) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(v), 10))
}

// MoveStructTag is the parsed form of "<address>::<module>::<name>".
type MoveStructTag struct {
	Address string
	Module  string
	Name    string
}

// ParseStructTag parses an event type string. Generic arguments are dropped.
// It returns false for non-struct types such as "u64" or "vector<u8>".
func ParseStructTag(typ string) (MoveStructTag, bool) {
	typ = strings.TrimSpace(typ)
	if idx := strings.IndexByte(typ, '<'); idx >= 0 {
		typ = typ[:idx]
	}
	parts := strings.Split(typ, "::")
	if len(parts) != 3 {
		return MoveStructTag{}, false
	}
	for _, part := range parts {
		if part == "" {
			return MoveStructTag{}, false
		}
	}
	return MoveStructTag{Address: parts[0], Module: parts[1], Name: parts[2]}, true
}

// QualifiedName returns "<module>::<name>".
func (t MoveStructTag) QualifiedName() string {
	return t.Module + "::" + t.Name
}
