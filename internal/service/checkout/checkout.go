// Package checkout turns a cart and a selected address into an order submission.
package checkout

import (
	"errors"
	"fmt"
	"strings"

	"bakery-storefront/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrNoAddressSelected = errors.New("no address selected")
	ErrMissingProductID  = errors.New("missing product id")
	ErrEmptyCart         = errors.New("cart is empty")
)

// MissingProductIDError names the cart line that has no product reference.
type MissingProductIDError struct {
	Name string
}

func (e *MissingProductIDError) Error() string {
	return fmt.Sprintf("%s: %q", ErrMissingProductID, e.Name)
}

func (e *MissingProductIDError) Unwrap() error {
	return ErrMissingProductID
}

// Submission is the assembled payload plus the discount that was applied.
type Submission struct {
	domain.OrderSubmission
	Discount decimal.Decimal `json:"discount"`
}

// Assemble builds the order payload. It has no side effects.
func Assemble(items []domain.CartItem, address *domain.Address, pricing domain.Pricing) (Submission, error) {
	if address == nil {
		return Submission{}, ErrNoAddressSelected
	}
	for _, item := range items {
		if strings.TrimSpace(item.ProductID) == "" {
			return Submission{}, &MissingProductIDError{Name: item.Name}
		}
	}
	if len(items) == 0 {
		return Submission{}, ErrEmptyCart
	}

	orderItems := make([]domain.OrderItem, 0, len(items))
	itemsPrice := decimal.Zero
	for _, item := range items {
		orderItems = append(orderItems, domain.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			ImageRef:  item.ImageRef,
		})
		itemsPrice = itemsPrice.Add(item.LineTotal())
	}

	shipping := domain.NonNegative(pricing.DeliveryFee)
	discount := domain.NonNegative(pricing.FlatDiscount)
	gross := itemsPrice.Add(shipping)
	if discount.GreaterThan(gross) {
		discount = gross
	}

	return Submission{
		OrderSubmission: domain.OrderSubmission{
			OrderItems:      orderItems,
			ShippingAddress: address.Snapshot(),
			PaymentMethod:   pricing.PaymentMethod,
			ItemsPrice:      domain.Amount(itemsPrice),
			TaxPrice:        domain.Amount(decimal.Zero),
			ShippingPrice:   domain.Amount(shipping),
			TotalPrice:      domain.Amount(gross.Sub(discount)),
		},
		Discount: discount,
	}, nil
}

// Confirmation is the summary handed to the order-confirmation view.
type Confirmation struct {
	OrderID     string                 `json:"orderId"`
	OrderNumber string                 `json:"orderNumber"`
	Total       decimal.Decimal        `json:"total"`
	Address     domain.AddressSnapshot `json:"address"`
	Items       []domain.OrderItem     `json:"items"`
}

func Confirm(o domain.Order) Confirmation {
	return Confirmation{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Total:       o.TotalPrice,
		Address:     o.ShippingAddress,
		Items:       o.Items,
	}
}
