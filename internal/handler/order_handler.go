package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/werewolfcoder/OrderingSystem/internal/dto"
	"github.com/werewolfcoder/OrderingSystem/internal/service"
	"github.com/werewolfcoder/OrderingSystem/pkg/middleware"
	"github.com/werewolfcoder/OrderingSystem/pkg/response"
)

// OrderHandler handles guest ordering and kitchen fulfilment
type OrderHandler struct {
	orderService service.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// PlaceOrder records an order for the guest's table
// POST /user/placeOrder
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req dto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	tenantID, _ := middleware.GetTenantID(c)
	table, _ := middleware.GetTableNumber(c)

	order, err := h.orderService.PlaceOrder(c.Request.Context(), tenantID, table, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(gin.H{"order": order}))
}

// GetOrder returns one of the guest's orders
// GET /user/getOrder/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	tenantID, _ := middleware.GetTenantID(c)
	table, _ := middleware.GetTableNumber(c)

	order, err := h.orderService.GetOrder(c.Request.Context(), tenantID, c.Param("id"), table)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{"order": order}))
}

// PendingOrders returns the kitchen queue
// GET /chef/getPendingOrders
func (h *OrderHandler) PendingOrders(c *gin.Context) {
	tenantID, _ := middleware.GetTenantID(c)

	orders, err := h.orderService.ListActive(c.Request.Context(), tenantID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.OrdersResponse{Orders: orders}))
}

// UpdateStatus moves an order along its lifecycle
// PUT /chef/updateOrderStatus
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	tenantID, _ := middleware.GetTenantID(c)

	order, err := h.orderService.UpdateStatus(c.Request.Context(), tenantID, req.OrderID, req.Status)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{"order": order}))
}

// AllOrders returns the hotel's order history
// GET /admin/getAllOrders
func (h *OrderHandler) AllOrders(c *gin.Context) {
	tenantID, _ := middleware.GetTenantID(c)

	orders, err := h.orderService.ListAll(c.Request.Context(), tenantID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.OrdersResponse{Orders: orders}))
}
