package ans

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrFatal marks errors after which the projection must not continue.
// A state table built past one of these would be silently wrong.
var ErrFatal = errors.New("fatal ans projection error")

// DecodeEventError reports a recognized event whose payload does not match
// the expected layout.
type DecodeEventError struct {
	Version   uint64
	EventType string
	Payload   json.RawMessage
	Err       error
}

func (e *DecodeEventError) Error() string {
	return fmt.Sprintf("version %d failed: failed to parse type %s, data %s: %v",
		e.Version, e.EventType, string(e.Payload), e.Err)
}

func (e *DecodeEventError) Unwrap() []error {
	return []error{ErrFatal, e.Err}
}

// InvalidTimestampError reports an expiration that is not a valid calendar
// second.
type InvalidTimestampError struct {
	Version uint64
	Value   string
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("could not parse timestamp %s for version %d", e.Value, e.Version)
}

func (e *InvalidTimestampError) Unwrap() error {
	return ErrFatal
}
