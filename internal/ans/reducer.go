package ans

import (
	"fmt"
	"time"

	"ansindexer/internal/model"
)

// Reduce folds decoded events, in order, into one record per name. A later
// event for the same name replaces the earlier record entirely.
func Reduce(events []model.TypedEvent, insertedAt time.Time) (map[model.CurrentAnsLookupPK]model.CurrentAnsLookup, error) {
	insertedAt = insertedAt.UTC().Truncate(time.Microsecond)
	lookups := make(map[model.CurrentAnsLookupPK]model.CurrentAnsLookup)
	for _, event := range events {
		lookup, err := buildLookup(event, insertedAt)
		if err != nil {
			return nil, err
		}
		lookups[lookup.PK()] = lookup
	}
	return lookups, nil
}

func buildLookup(event model.TypedEvent, insertedAt time.Time) (model.CurrentAnsLookup, error) {
	switch inner := event.Decoded.(type) {
	case *model.SetNameAddressEventV1:
		expiration, err := expirationTimestamp(event.Version, inner.ExpirationTimeSecs)
		if err != nil {
			return model.CurrentAnsLookup{}, err
		}
		return model.CurrentAnsLookup{
			Domain:                 inner.DomainName,
			Subdomain:              stringOrEmpty(inner.SubdomainName),
			RegisteredAddress:      inner.NewAddress,
			LastTransactionVersion: event.Version,
			ExpirationTimestamp:    expiration,
			InsertedAt:             insertedAt,
		}, nil
	case *model.RegisterNameEventV1:
		expiration, err := expirationTimestamp(event.Version, inner.ExpirationTimeSecs)
		if err != nil {
			return model.CurrentAnsLookup{}, err
		}
		return model.CurrentAnsLookup{
			Domain:                 inner.DomainName,
			Subdomain:              stringOrEmpty(inner.SubdomainName),
			RegisteredAddress:      nil,
			LastTransactionVersion: event.Version,
			ExpirationTimestamp:    expiration,
			InsertedAt:             insertedAt,
		}, nil
	default:
		return model.CurrentAnsLookup{}, fmt.Errorf("unsupported ans event %T at version %d", event.Decoded, event.Version)
	}
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Merge copies src into dst. On a key collision the record with the higher
// LastTransactionVersion is kept; on a tie src wins.
func Merge(dst, src map[model.CurrentAnsLookupPK]model.CurrentAnsLookup) {
	for pk, incoming := range src {
		if existing, ok := dst[pk]; ok && existing.LastTransactionVersion > incoming.LastTransactionVersion {
			continue
		}
		dst[pk] = incoming
	}
}
