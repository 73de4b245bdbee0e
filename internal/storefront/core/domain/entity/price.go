package entity

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Price is a unit price as the menu backend reports it. Only JSON numbers are
// treated as prices; anything else decodes to an invalid Price that counts as
// zero in totals.
type Price struct {
	Amount decimal.Decimal
	Valid  bool
}

// NewPrice returns a valid price.
func NewPrice(amount float64) Price {
	return Price{Amount: decimal.NewFromFloat(amount), Valid: true}
}

// Value is the amount used for totals.
func (p Price) Value() decimal.Decimal {
	if !p.Valid {
		return decimal.Zero
	}
	return p.Amount
}

func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return []byte(p.Amount.String()), nil
}

func (p *Price) UnmarshalJSON(data []byte) error {
	*p = Price{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] == '"' || trimmed[0] == 'n' ||
		trimmed[0] == '{' || trimmed[0] == '[' || trimmed[0] == 't' || trimmed[0] == 'f' {
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return nil
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return nil
	}
	p.Amount = d
	p.Valid = true
	return nil
}
