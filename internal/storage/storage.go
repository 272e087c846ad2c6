package storage

import (
	"context"

	"ansindexer/internal/model"
)

// Sink receives current_ans_lookup records. Implementations upsert by
// (domain, subdomain), replacing every field of an existing row.
type Sink interface {
	UpsertLookups(ctx context.Context, lookups []model.CurrentAnsLookup) error
}
