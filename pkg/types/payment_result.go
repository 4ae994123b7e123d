package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// PaymentResult is the gateway capture record stored on a paid intent (jsonb).
type PaymentResult struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	UpdateTime string `json:"update_time"`
	PayerEmail string `json:"payer_email,omitempty"`
}

// Value marshals the result into JSON for Postgres.
func (p PaymentResult) Value() (driver.Value, error) {
	buf, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Scan decodes JSONB into the result.
func (p *PaymentResult) Scan(value interface{}) error {
	if value == nil {
		*p = PaymentResult{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("payment result: unsupported scan type %T", value)
	}

	return json.Unmarshal(raw, p)
}
