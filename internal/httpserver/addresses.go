package httpserver

import (
	"net/http"

	"bakery-storefront/internal/domain"
	addresssvc "bakery-storefront/internal/service/address"

	"github.com/gin-gonic/gin"
)

type addressListResponse struct {
	Addresses []domain.Address `json:"addresses"`
}

func (h *handlers) respondAddresses(c *gin.Context, status int, list []domain.Address, err error) {
	if err != nil {
		h.writeError(c, err)
		return
	}
	if list == nil {
		list = []domain.Address{}
	}
	c.JSON(status, addressListResponse{Addresses: list})
}

func (h *handlers) listAddresses(c *gin.Context) {
	list, err := h.deps.AddressSvc.List(c.Request.Context(), claimsFrom(c).UserID)
	h.respondAddresses(c, http.StatusOK, list, err)
}

func (h *handlers) addAddress(c *gin.Context) {
	var req addresssvc.Fields
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	list, err := h.deps.AddressSvc.Add(c.Request.Context(), claimsFrom(c).UserID, req)
	h.respondAddresses(c, http.StatusCreated, list, err)
}

func (h *handlers) updateAddress(c *gin.Context) {
	var req addresssvc.Patch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	list, err := h.deps.AddressSvc.Update(c.Request.Context(), claimsFrom(c).UserID, c.Param("addressId"), req)
	h.respondAddresses(c, http.StatusOK, list, err)
}

func (h *handlers) removeAddress(c *gin.Context) {
	list, err := h.deps.AddressSvc.Remove(c.Request.Context(), claimsFrom(c).UserID, c.Param("addressId"))
	h.respondAddresses(c, http.StatusOK, list, err)
}

func (h *handlers) setDefaultAddress(c *gin.Context) {
	list, err := h.deps.AddressSvc.SetDefault(c.Request.Context(), claimsFrom(c).UserID, c.Param("addressId"))
	h.respondAddresses(c, http.StatusOK, list, err)
}
