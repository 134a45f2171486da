package httpserver

import (
	"net/http"
	"strconv"

	"bakery-storefront/internal/domain"
	ordersvc "bakery-storefront/internal/service/order"

	"github.com/gin-gonic/gin"
)

type statusRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

func (h *handlers) createOrder(c *gin.Context) {
	var req domain.OrderSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	order, replayed, err := h.deps.OrderSvc.CreateOrder(c.Request.Context(), claimsFrom(c).UserID, req, c.GetHeader(idempotencyHeader))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if replayed {
		c.JSON(http.StatusOK, order)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func listParams(c *gin.Context) ordersvc.ListParams {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return ordersvc.ListParams{
		Status: c.Query("status"),
		Search: c.Query("search"),
		UserID: c.Query("userId"),
		Page:   page,
		Limit:  limit,
		Sort:   c.Query("sort"),
	}
}

func (h *handlers) listOrders(c *gin.Context) {
	list, err := h.deps.OrderSvc.ListOrders(c.Request.Context(), listParams(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *handlers) myOrders(c *gin.Context) {
	p := listParams(c)
	p.UserID = claimsFrom(c).UserID
	list, err := h.deps.OrderSvc.ListOrders(c.Request.Context(), p)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *handlers) getOrder(c *gin.Context) {
	order, err := h.deps.OrderSvc.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *handlers) updateOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	order, err := h.deps.OrderSvc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, req.Notes)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *handlers) deleteOrder(c *gin.Context) {
	id := c.Param("id")
	if err := h.deps.OrderSvc.DeleteOrder(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order deleted", "id": id})
}

func (h *handlers) orderSummary(c *gin.Context) {
	summary, err := h.deps.OrderSvc.Summary(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
