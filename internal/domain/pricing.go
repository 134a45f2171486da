package domain

import "github.com/shopspring/decimal"

// Pricing holds the storefront's flat checkout constants.
type Pricing struct {
	DeliveryFee   decimal.Decimal `json:"deliveryFee" yaml:"deliveryFee"`
	FlatDiscount  decimal.Decimal `json:"flatDiscount" yaml:"flatDiscount"`
	PaymentMethod string          `json:"paymentMethod" yaml:"paymentMethod"`
}

// OrderSubmission is the payload accepted by order creation. Amount fields
// are decoded leniently.
type OrderSubmission struct {
	OrderItems      []OrderItem     `json:"orderItems"`
	ShippingAddress AddressSnapshot `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	ItemsPrice      LenientAmount   `json:"itemsPrice"`
	TaxPrice        LenientAmount   `json:"taxPrice"`
	ShippingPrice   LenientAmount   `json:"shippingPrice"`
	TotalPrice      LenientAmount   `json:"totalPrice"`
	OrderNumber     string          `json:"orderNumber,omitempty"`
	Notes           string          `json:"notes,omitempty"`
}
