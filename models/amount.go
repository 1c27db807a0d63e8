package models

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a client-supplied money value. It accepts a JSON string ("2.50") or number (2.5)
// and remembers whether it was present at all.
type Amount struct {
	Value decimal.Decimal
	Set   bool
	Valid bool
}

// NewAmount builds a present, valid amount from its string form. Used by callers and tests.
func NewAmount(raw string) Amount {
	d, err := ParsePrice(raw)
	return Amount{Value: d, Set: true, Valid: err == nil}
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*a = Amount{}
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = s
	}
	d, err := ParsePrice(raw)
	*a = Amount{Value: d, Set: true, Valid: err == nil}
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Set {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value.String())
}
