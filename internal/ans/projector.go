package ans

import (
	"time"

	"ansindexer/internal/model"
)

// Projector derives current_ans_lookup records from transactions emitted by
// one ANS contract. A Projector holds no mutable state and is safe for
// concurrent use.
type Projector struct {
	contract string
	decoder  *Decoder
}

// NewProjector builds a Projector for the given contract address. An empty
// address disables the projection: every transaction yields no records.
func NewProjector(contractAddress string) (*Projector, error) {
	p := &Projector{decoder: NewDecoder()}
	if contractAddress == "" {
		return p, nil
	}
	normalized, err := NormalizeAddress(contractAddress)
	if err != nil {
		return nil, err
	}
	p.contract = normalized
	return p, nil
}

// Enabled reports whether a contract address is configured.
func (p *Projector) Enabled() bool {
	return p.contract != ""
}

// Events returns the ANS events of a transaction in emission order. Events
// from other contracts, events of other types, and non-user transactions are
// skipped. Each event's payload and expiration are validated before the next
// event is looked at.
func (p *Projector) Events(txn model.Transaction) ([]model.TypedEvent, error) {
	if !p.Enabled() || !txn.IsUserTransaction() {
		return nil, nil
	}
	version := uint64(txn.Version)

	var events []model.TypedEvent
	for _, event := range txn.Events {
		tag, ok := model.ParseStructTag(event.Type)
		if !ok {
			continue
		}
		addr, err := NormalizeAddress(tag.Address)
		if err != nil || addr != p.contract {
			continue
		}
		eventType := tag.QualifiedName()
		if !p.decoder.CanDecode(eventType) {
			continue
		}
		decoded, err := p.decoder.Decode(eventType, event.Data)
		if err != nil {
			return nil, &DecodeEventError{
				Version:   version,
				EventType: eventType,
				Payload:   event.Data,
				Err:       err,
			}
		}
		typed := model.TypedEvent{
			Version:   version,
			EventType: eventType,
			Decoded:   decoded,
		}
		// Expirations are checked in emission order, so the first bad event
		// is the one reported.
		if _, err := buildLookup(typed, time.Time{}); err != nil {
			return nil, err
		}
		events = append(events, typed)
	}
	return events, nil
}

// Project returns the records derived from a single transaction, keyed by
// (domain, subdomain). insertedAt is stamped on every record.
func (p *Projector) Project(txn model.Transaction, insertedAt time.Time) (map[model.CurrentAnsLookupPK]model.CurrentAnsLookup, error) {
	events, err := p.Events(txn)
	if err != nil {
		return nil, err
	}
	return Reduce(events, insertedAt)
}

// FromTransaction projects one transaction against contractAddress.
func FromTransaction(txn model.Transaction, contractAddress string, insertedAt time.Time) (map[model.CurrentAnsLookupPK]model.CurrentAnsLookup, error) {
	p, err := NewProjector(contractAddress)
	if err != nil {
		return nil, err
	}
	return p.Project(txn, insertedAt)
}
