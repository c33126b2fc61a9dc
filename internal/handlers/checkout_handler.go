package handlers

import (
	"honeymart/internal/services"
	"honeymart/internal/utils"
	"honeymart/internal/validators"

	"github.com/gin-gonic/gin"
)

type CheckoutHandler struct {
	checkoutService services.CheckoutService
}

func NewCheckoutHandler(checkoutService services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

// Checkout converts the cart to an order (COD) or opens a payment intent
// (online payment).
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request services.CheckoutRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateShippingAddress(request.Address); errs != nil {
		utils.ValidationErrorResponse(c, errs)
		return
	}

	response, err := h.checkoutService.Checkout(c.Request.Context(), userID, &request)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if response.Order != nil {
		utils.CreatedResponse(c, "Order placed", response)
		return
	}
	utils.SuccessResponse(c, "Payment intent created", response)
}

// VerifyPayment validates the gateway callback and creates the paid order.
// Safe to retry: a repeat callback for the same intent returns the existing
// order.
func (h *CheckoutHandler) VerifyPayment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request services.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	order, err := h.checkoutService.VerifyPayment(c.Request.Context(), userID, &request)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Payment verified and order placed", order)
}
