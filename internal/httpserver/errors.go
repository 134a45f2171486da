package httpserver

import (
	"errors"
	"net/http"

	"bakery-storefront/internal/domain"
	"bakery-storefront/internal/service/checkout"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorBody struct {
	Error   string             `json:"error"`
	Details []domain.Violation `json:"details,omitempty"`
}

// writeError maps service errors onto HTTP responses. Unclassified errors are
// logged and hidden behind a generic 500.
func (h *handlers) writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	var missing *checkout.MissingProductIDError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, errorBody{Error: "validation failed", Details: verr.Violations})
	case errors.As(err, &missing):
		c.JSON(http.StatusBadRequest, errorBody{
			Error:   err.Error(),
			Details: []domain.Violation{{Field: "orderItems", Message: "product id missing for " + missing.Name}},
		})
	case errors.Is(err, checkout.ErrNoAddressSelected):
		c.JSON(http.StatusBadRequest, errorBody{
			Error:   err.Error(),
			Details: []domain.Violation{{Field: "addressId", Message: "select a delivery address"}},
		})
	case errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, domain.ErrInvalidOrder):
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrAuthRequired), errors.Is(err, domain.ErrAuthInvalid):
		c.JSON(http.StatusUnauthorized, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorBody{Error: domain.ErrNotFound.Error()})
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrIllegalTransition):
		c.JSON(http.StatusConflict, errorBody{Error: err.Error()})
	default:
		h.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorBody{Error: msg})
}
