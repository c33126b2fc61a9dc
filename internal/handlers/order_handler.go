package handlers

import (
	"honeymart/internal/models"
	"honeymart/internal/services"
	"honeymart/internal/utils"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService services.OrderService
}

func NewOrderHandler(orderService services.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// ListOrders returns the authenticated user's orders, newest first.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	orders, err := h.orderService.ListUserOrders(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Orders retrieved successfully", orders, &utils.Meta{Count: len(orders)})
}

// GetOrder returns one of the user's orders.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetUserOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Order retrieved successfully", order)
}

// CancelOrder cancels a pre-shipment order. Paid orders are refunded.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var request struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&request); err != nil && err.Error() != "EOF" {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if request.Reason == "" {
		request.Reason = "cancelled by customer"
	}

	order, err := h.orderService.CancelOrder(c.Request.Context(), userID, orderID, request.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Order cancelled", order)
}

// RequestReturn opens a return request on a delivered order.
func (h *OrderHandler) RequestReturn(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var request struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	order, err := h.orderService.RequestReturn(c.Request.Context(), userID, orderID, request.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Return requested", order)
}

// AdminListOrders lists all orders, optionally filtered by ?status= (admin).
func (h *OrderHandler) AdminListOrders(c *gin.Context) {
	status := models.OrderStatus(c.Query("status"))
	params := utils.GetPaginationParams(c)

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), status, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	meta := &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
		Count:      len(orders),
	}
	utils.SuccessResponseWithMeta(c, "Orders retrieved successfully", orders, meta)
}

// AdminGetOrder returns any order by id (admin).
func (h *OrderHandler) AdminGetOrder(c *gin.Context) {
	orderID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Order retrieved successfully", order)
}

// UpdateStatus moves an order along the lifecycle (admin). Backward moves
// are rejected.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var request struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), orderID, request.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Order status updated", order)
}

// ResolveReturn approves or rejects an open return request (admin).
func (h *OrderHandler) ResolveReturn(c *gin.Context) {
	orderID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var request struct {
		Decision models.ReturnStatus `json:"decision" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	order, err := h.orderService.ResolveReturn(c.Request.Context(), orderID, request.Decision)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Return resolved", order)
}
