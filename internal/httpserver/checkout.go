package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"bakery-storefront/internal/domain"
	"bakery-storefront/internal/service/checkout"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type checkoutRequest struct {
	AddressID     string `json:"addressId"`
	PaymentMethod string `json:"paymentMethod"`
}

// assemble builds the submission for the caller from the server-side cart.
func (h *handlers) assemble(c *gin.Context, addressID, paymentMethod string) (checkout.Submission, error) {
	ctx := c.Request.Context()
	userID := claimsFrom(c).UserID
	view, err := h.deps.CartSvc.Get(ctx, userID)
	if err != nil {
		return checkout.Submission{}, err
	}
	address, err := h.deps.AddressSvc.Resolve(ctx, userID, addressID)
	if err != nil {
		return checkout.Submission{}, err
	}
	pricing := h.deps.Pricing.Pricing()
	if pm := strings.TrimSpace(paymentMethod); pm != "" && !strings.EqualFold(pm, pricing.PaymentMethod) {
		return checkout.Submission{}, domain.NewValidationError("paymentMethod", fmt.Sprintf("only %s is supported", pricing.PaymentMethod))
	}
	return checkout.Assemble(view.Items, address, pricing)
}

func (h *handlers) previewCheckout(c *gin.Context) {
	sub, err := h.assemble(c, c.Query("addressId"), c.Query("paymentMethod"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// placeOrder submits the caller's cart and clears it once the order is stored.
// A repeated Idempotency-Key answers with the order it already produced, even
// though the cart is empty by then.
func (h *handlers) placeOrder(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid request body")
		return
	}

	ctx := c.Request.Context()
	userID := claimsFrom(c).UserID
	key := strings.TrimSpace(c.GetHeader(idempotencyHeader))
	if key != "" {
		existing, err := h.deps.OrderSvc.FindByIdempotencyKey(ctx, userID, key)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, checkout.Confirm(*existing))
			return
		case !errors.Is(err, domain.ErrNotFound):
			h.writeError(c, err)
			return
		}
	}

	sub, err := h.assemble(c, req.AddressID, req.PaymentMethod)
	if err != nil {
		h.writeError(c, err)
		return
	}
	order, replayed, err := h.deps.OrderSvc.CreateOrder(ctx, userID, sub.OrderSubmission, key)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if err := h.deps.CartSvc.Clear(ctx, userID); err != nil {
		h.logger.Warn("clear cart after order", zap.String("order_id", order.ID), zap.Error(err))
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	c.JSON(status, checkout.Confirm(*order))
}
