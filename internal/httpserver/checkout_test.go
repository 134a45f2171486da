package httpserver

import (
	"errors"
	"net/http"
	"testing"

	"bakery-storefront/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCheckout(f *fixture) {
	f.cart.items = []domain.CartItem{
		{ProductID: "8a0e5c8e-2222-4b4b-8d8d-000000000001", Name: "Sourdough", UnitPrice: decimal.NewFromInt(500), Quantity: 2},
	}
	f.addresses.resolved = &domain.Address{
		ID: "addr-1", Name: "Asha", Phone: "9876543210", AddressLine: "12 Baker St",
		City: "Pune", State: "MH", Pincode: "411001", IsDefault: true,
	}
}

func TestPlaceOrder_SubmitsAndClearsCart(t *testing.T) {
	f := newFixture(t)
	seedCheckout(f)

	rec := f.do(http.MethodPost, "/api/checkout", customerToken, "", idempotencyHeader, "checkout-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, f.orders.created, 1)

	call := f.orders.created[0]
	assert.True(t, call.in.TotalPrice.Decimal.Equal(decimal.NewFromInt(950)), call.in.TotalPrice.Decimal.String())
	assert.Equal(t, "Pune", call.in.ShippingAddress.City)
	assert.Equal(t, "cod", call.in.PaymentMethod)
	assert.Equal(t, "checkout-1", call.key)
	assert.Equal(t, 1, f.cart.cleared)
	assert.Contains(t, rec.Body.String(), `"orderId":"order-1"`)
	assert.Contains(t, rec.Body.String(), `"total":950`)
}

func TestPlaceOrder_RetryWithSameKeyAfterCartCleared(t *testing.T) {
	f := newFixture(t)
	seedCheckout(f)

	rec := f.do(http.MethodPost, "/api/checkout", customerToken, "", idempotencyHeader, "checkout-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Empty(t, f.cart.items)

	rec = f.do(http.MethodPost, "/api/checkout", customerToken, "", idempotencyHeader, "checkout-1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"orderId":"order-1"`)
	assert.Len(t, f.orders.created, 1)
	assert.Equal(t, 1, f.cart.cleared)

	rec = f.do(http.MethodPost, "/api/checkout", customerToken, "", idempotencyHeader, "checkout-2")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, f.orders.created, 1)
}

func TestPlaceOrder_LookupFailure(t *testing.T) {
	f := newFixture(t)
	seedCheckout(f)
	f.orders.findErr = errors.New("connection refused")

	rec := f.do(http.MethodPost, "/api/checkout", customerToken, "", idempotencyHeader, "checkout-1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, f.orders.created)
	assert.Zero(t, f.cart.cleared)
}

func TestPlaceOrder_RejectsOtherPaymentMethod(t *testing.T) {
	f := newFixture(t)
	seedCheckout(f)

	rec := f.do(http.MethodPost, "/api/checkout", customerToken, `{"paymentMethod":"upi"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"field":"paymentMethod"`)
	assert.Empty(t, f.orders.created)
	assert.Zero(t, f.cart.cleared)

	rec = f.do(http.MethodPost, "/api/checkout", customerToken, `{"paymentMethod":"COD"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "cod", f.orders.created[0].in.PaymentMethod)
}

func TestPlaceOrder_NoAddress(t *testing.T) {
	f := newFixture(t)
	seedCheckout(f)
	f.addresses.resolved = nil

	rec := f.do(http.MethodPost, "/api/checkout", customerToken, "{}")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"addressId"`)
	assert.Empty(t, f.orders.created)
	assert.Zero(t, f.cart.cleared)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	f := newFixture(t)
	seedCheckout(f)
	f.cart.items = nil

	rec := f.do(http.MethodPost, "/api/checkout", customerToken, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlaceOrder_MissingProductID(t *testing.T) {
	f := newFixture(t)
	seedCheckout(f)
	f.cart.items[0].ProductID = ""

	rec := f.do(http.MethodPost, "/api/checkout", customerToken, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sourdough")
}

func TestPreviewCheckout(t *testing.T) {
	f := newFixture(t)
	seedCheckout(f)

	rec := f.do(http.MethodGet, "/api/checkout/preview", customerToken, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"discount":100`)
	assert.Contains(t, rec.Body.String(), `"totalPrice":950`)
	assert.Empty(t, f.orders.created)

	rec = f.do(http.MethodGet, "/api/checkout/preview?paymentMethod=card", customerToken, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
