package httpserver

import (
	"net/http"

	authsvc "bakery-storefront/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handlers) register(c *gin.Context) {
	var req authsvc.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	session, err := h.deps.AuthSvc.Register(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	session, err := h.deps.AuthSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// logout revokes the presented token and ends the caller's cart session.
func (h *handlers) logout(c *gin.Context) {
	claims := claimsFrom(c)
	ctx := c.Request.Context()
	if err := h.deps.AuthSvc.Logout(ctx, claims); err != nil {
		h.writeError(c, err)
		return
	}
	if err := h.deps.CartSvc.EndSession(ctx, claims.UserID); err != nil {
		h.logger.Warn("end cart session", zap.String("user_id", claims.UserID), zap.Error(err))
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) me(c *gin.Context) {
	user, err := h.deps.AuthSvc.Me(c.Request.Context(), claimsFrom(c).UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
