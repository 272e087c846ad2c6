package model

import "github.com/shopspring/decimal"

// AnsEvent is a decoded event from the ANS contract. The concrete types are
// *SetNameAddressEventV1 and *RegisterNameEventV1.
type AnsEvent interface {
	ansEvent()
}

// SetNameAddressEventV1 points a name at a new address, or clears it.
type SetNameAddressEventV1 struct {
	DomainName         string          `json:"domain_name"`
	SubdomainName      *string         `json:"subdomain_name"`
	NewAddress         *string         `json:"new_address"`
	ExpirationTimeSecs decimal.Decimal `json:"expiration_time_secs"`
}

// RegisterNameEventV1 registers a name. It never carries an address.
type RegisterNameEventV1 struct {
	DomainName         string          `json:"domain_name"`
	SubdomainName      *string         `json:"subdomain_name"`
	ExpirationTimeSecs decimal.Decimal `json:"expiration_time_secs"`
}

func (*SetNameAddressEventV1) ansEvent() {}
func (*RegisterNameEventV1) ansEvent()   {}

// TypedEvent is a decoded ANS event with its transaction context.
type TypedEvent struct {
	Version   uint64   `json:"version"`
	EventType string   `json:"event_type"`
	Decoded   AnsEvent `json:"decoded"`
}
