package domain

import "github.com/shopspring/decimal"

// CartItem is one line of a shopping cart, unique by ProductID.
type CartItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	ImageRef  string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
}

// LineTotal is UnitPrice multiplied by Quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
