package model

import "encoding/json"

// DecodeError records a fatal projection failure for a transaction.
type DecodeError struct {
	Version   uint64          `json:"version"`
	EventType string          `json:"event_type,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Error     string          `json:"error"`
}
