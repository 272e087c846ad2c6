package ans

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"ansindexer/internal/model"
)

// Qualified event types emitted by the ANS contract.
const (
	SetNameAddressEventV1Type = "domains::SetNameAddressEventV1"
	RegisterNameEventV1Type   = "domains::RegisterNameEventV1"
)

// optionalString is the wire form of an optional string: a vec holding zero
// or one element.
type optionalString struct {
	Vec []string `json:"vec" validate:"required"`
}

func (o *optionalString) value() *string {
	if len(o.Vec) == 0 {
		return nil
	}
	v := o.Vec[0]
	return &v
}

type setNameAddressEventV1Wire struct {
	SubdomainName      *optionalString `json:"subdomain_name" validate:"required"`
	DomainName         *string         `json:"domain_name" validate:"required,min=1"`
	NewAddress         *optionalString `json:"new_address" validate:"required"`
	ExpirationTimeSecs *string         `json:"expiration_time_secs" validate:"required"`
}

type registerNameEventV1Wire struct {
	SubdomainName      *optionalString `json:"subdomain_name" validate:"required"`
	DomainName         *string         `json:"domain_name" validate:"required,min=1"`
	ExpirationTimeSecs *string         `json:"expiration_time_secs" validate:"required"`
}

type decodeFunc func(d *Decoder, payload json.RawMessage) (model.AnsEvent, error)

// Decoder maps qualified event types to payload decoders.
type Decoder struct {
	validate *validator.Validate
	decoders map[string]decodeFunc
}

// NewDecoder builds a decoder for the known ANS event types.
func NewDecoder() *Decoder {
	return &Decoder{
		validate: validator.New(),
		decoders: map[string]decodeFunc{
			SetNameAddressEventV1Type: decodeSetNameAddress,
			RegisterNameEventV1Type:   decodeRegisterName,
		},
	}
}

// CanDecode checks if the qualified event type is an ANS event.
func (d *Decoder) CanDecode(eventType string) bool {
	_, ok := d.decoders[eventType]
	return ok
}

// Decode converts a raw payload into a typed ANS event.
func (d *Decoder) Decode(eventType string, payload json.RawMessage) (model.AnsEvent, error) {
	fn, ok := d.decoders[eventType]
	if !ok {
		return nil, fmt.Errorf("unsupported event type: %s", eventType)
	}
	return fn(d, payload)
}

func decodeSetNameAddress(d *Decoder, payload json.RawMessage) (model.AnsEvent, error) {
	var wire setNameAddressEventV1Wire
	if err := d.unmarshal(payload, &wire); err != nil {
		return nil, err
	}
	secs, err := parseDecimalString(*wire.ExpirationTimeSecs)
	if err != nil {
		return nil, err
	}
	return &model.SetNameAddressEventV1{
		DomainName:         *wire.DomainName,
		SubdomainName:      wire.SubdomainName.value(),
		NewAddress:         wire.NewAddress.value(),
		ExpirationTimeSecs: secs,
	}, nil
}

func decodeRegisterName(d *Decoder, payload json.RawMessage) (model.AnsEvent, error) {
	var wire registerNameEventV1Wire
	if err := d.unmarshal(payload, &wire); err != nil {
		return nil, err
	}
	secs, err := parseDecimalString(*wire.ExpirationTimeSecs)
	if err != nil {
		return nil, err
	}
	return &model.RegisterNameEventV1{
		DomainName:         *wire.DomainName,
		SubdomainName:      wire.SubdomainName.value(),
		ExpirationTimeSecs: secs,
	}, nil
}

func (d *Decoder) unmarshal(payload json.RawMessage, out interface{}) error {
	if err := json.Unmarshal(payload, out); err != nil {
		return err
	}
	if err := d.validate.Struct(out); err != nil {
		return err
	}
	return nil
}

func parseDecimalString(input string) (decimal.Decimal, error) {
	val, err := decimal.NewFromString(input)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("expiration_time_secs: %w", err)
	}
	return val, nil
}
