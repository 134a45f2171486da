package domain

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// LenientAmount decodes a JSON number or numeric string; anything else becomes zero.
type LenientAmount struct {
	decimal.Decimal
	// Coerced reports that the raw value could not be parsed and was replaced by zero.
	Coerced bool
}

func (a *LenientAmount) UnmarshalJSON(data []byte) error {
	a.Decimal = decimal.Zero
	a.Coerced = false

	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			a.Coerced = true
			return nil
		}
	} else {
		s = string(raw)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		a.Coerced = true
		return nil
	}
	a.Decimal = d
	return nil
}

func (a LenientAmount) MarshalJSON() ([]byte, error) {
	return a.Decimal.MarshalJSON()
}

// Amount wraps a decimal as a LenientAmount.
func Amount(d decimal.Decimal) LenientAmount {
	return LenientAmount{Decimal: d}
}

// NonNegative clamps d at zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
