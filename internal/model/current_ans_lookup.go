package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// CurrentAnsLookupPK is the primary key of current_ans_lookup.
// Subdomain is empty for a bare domain.
type CurrentAnsLookupPK struct {
	Domain    string
	Subdomain string
}

// CurrentAnsLookup is the latest known state of a registered name.
type CurrentAnsLookup struct {
	Domain                 string    `json:"domain"`
	Subdomain              string    `json:"subdomain"`
	RegisteredAddress      *string   `json:"registered_address"`
	LastTransactionVersion uint64    `json:"last_transaction_version"`
	ExpirationTimestamp    time.Time `json:"expiration_timestamp"`
	InsertedAt             time.Time `json:"inserted_at"`
}

// PK returns the record's primary key.
func (l CurrentAnsLookup) PK() CurrentAnsLookupPK {
	return CurrentAnsLookupPK{Domain: l.Domain, Subdomain: l.Subdomain}
}

type lookupFields CurrentAnsLookup

// MarshalJSON writes expiration_timestamp with FormatExpiration so years past
// 9999 survive the round trip.
func (l CurrentAnsLookup) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		lookupFields
		ExpirationTimestamp string `json:"expiration_timestamp"`
	}{
		lookupFields:        lookupFields(l),
		ExpirationTimestamp: FormatExpiration(l.ExpirationTimestamp),
	})
}

func (l *CurrentAnsLookup) UnmarshalJSON(data []byte) error {
	aux := struct {
		*lookupFields
		ExpirationTimestamp string `json:"expiration_timestamp"`
	}{lookupFields: (*lookupFields)(l)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	expiration, err := ParseExpiration(aux.ExpirationTimestamp)
	if err != nil {
		return err
	}
	l.ExpirationTimestamp = expiration
	return nil
}

// FormatExpiration renders t in UTC as YYYY-MM-DDTHH:MM:SSZ. The year is
// widened beyond four digits when needed.
func FormatExpiration(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02dZ",
		t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
}

// ParseExpiration is the inverse of FormatExpiration.
func ParseExpiration(s string) (time.Time, error) {
	var year, month, day, hour, minute, second int
	if _, err := fmt.Sscanf(s, "%d-%d-%dT%d:%d:%dZ", &year, &month, &day, &hour, &minute, &second); err != nil {
		return time.Time{}, fmt.Errorf("parse expiration %q: %w", s, err)
	}
	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	if FormatExpiration(t) != s {
		return time.Time{}, fmt.Errorf("parse expiration %q: not a valid timestamp", s)
	}
	return t, nil
}

// SortedLookups flattens a lookup map ordered by (domain, subdomain).
func SortedLookups(lookups map[CurrentAnsLookupPK]CurrentAnsLookup) []CurrentAnsLookup {
	out := make([]CurrentAnsLookup, 0, len(lookups))
	for _, lookup := range lookups {
		out = append(out, lookup)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Domain != out[j].Domain {
			return out[i].Domain < out[j].Domain
		}
		return out[i].Subdomain < out[j].Subdomain
	})
	return out
}
