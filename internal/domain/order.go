package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem is an order line with the price captured at order time.
type OrderItem struct {
	ProductID string          `json:"product"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	ImageRef  string          `json:"image,omitempty"`
}

// LineTotal is UnitPrice multiplied by Quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is a placed order. TotalPrice = ItemsTotal + TaxTotal + DeliveryFee - Discount.
type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	UserID          string          `json:"userId"`
	CustomerName    string          `json:"customerName,omitempty"`
	CustomerEmail   string          `json:"customerEmail,omitempty"`
	Items           []OrderItem     `json:"orderItems"`
	ShippingAddress AddressSnapshot `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	Status          OrderStatus     `json:"status"`
	ItemsTotal      decimal.Decimal `json:"itemsPrice"`
	TaxTotal        decimal.Decimal `json:"taxPrice"`
	DeliveryFee     decimal.Decimal `json:"shippingPrice"`
	Discount        decimal.Decimal `json:"discount"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	Notes           string          `json:"notes,omitempty"`
	IdempotencyKey  string          `json:"-"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderFilter narrows ListOrders.
type OrderFilter struct {
	Status OrderStatus
	Search string
	UserID string
}

// Page describes an offset page request.
type Page struct {
	Page  int
	Limit int
}

// Offset is the row offset of the page.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// OrderSort selects the ORDER BY column.
type OrderSort struct {
	Field string
	Desc  bool
}

// OrderList is a page of orders with metadata.
type OrderList struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
	Page   int     `json:"page"`
	Pages  int     `json:"pages"`
	Limit  int     `json:"limit"`
}

// OrderSummary aggregates counts per status and delivered revenue.
type OrderSummary struct {
	Counts      map[OrderStatus]int `json:"counts"`
	TotalOrders int                 `json:"totalOrders"`
	Revenue     decimal.Decimal     `json:"revenue"`
}
