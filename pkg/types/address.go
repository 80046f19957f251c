package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ShippingAddress is the address snapshot frozen onto an order at checkout.
// It is stored as a jsonb column so later edits to a customer profile never
// rewrite history.
type ShippingAddress struct {
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Line1    string `json:"line1" validate:"required"`
	Ward     string `json:"ward,omitempty"`
	District string `json:"district,omitempty"`
	City     string `json:"city" validate:"required"`
	Country  string `json:"country,omitempty"`
}

// Validate checks the fields a carrier actually needs.
func (a ShippingAddress) Validate() error {
	if strings.TrimSpace(a.FullName) == "" {
		return fmt.Errorf("shipping address: missing full_name")
	}
	if strings.TrimSpace(a.Phone) == "" {
		return fmt.Errorf("shipping address: missing phone")
	}
	if strings.TrimSpace(a.Line1) == "" {
		return fmt.Errorf("shipping address: missing line1")
	}
	if strings.TrimSpace(a.City) == "" {
		return fmt.Errorf("shipping address: missing city")
	}
	return nil
}

// Value marshals the address into a jsonb literal.
func (a ShippingAddress) Value() (driver.Value, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(a.Country) == "" {
		a.Country = "VN"
	}
	return json.Marshal(a)
}

// Scan decodes the jsonb column back into the struct.
func (a *ShippingAddress) Scan(value interface{}) error {
	if value == nil {
		*a = ShippingAddress{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("shipping address: unsupported scan type %T", value)
	}

	return json.Unmarshal(raw, a)
}
