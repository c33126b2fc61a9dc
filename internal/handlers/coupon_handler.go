package handlers

import (
	"honeymart/internal/models"
	"honeymart/internal/services"
	"honeymart/internal/utils"
	"honeymart/internal/validators"

	"github.com/gin-gonic/gin"
)

type CouponHandler struct {
	couponService services.CouponService
}

func NewCouponHandler(couponService services.CouponService) *CouponHandler {
	return &CouponHandler{
		couponService: couponService,
	}
}

// ApplyCoupon validates and redeems a coupon code against the user's cart.
func (h *CouponHandler) ApplyCoupon(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	cart, err := h.couponService.ApplyCoupon(c.Request.Context(), userID, request.Code)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Coupon applied", cart)
}

// RemoveCoupon detaches the applied coupon and releases its usage slot.
func (h *CouponHandler) RemoveCoupon(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	cart, err := h.couponService.RemoveCoupon(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Coupon removed", cart)
}

// CreateCoupon creates a coupon (admin only).
func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var coupon models.Coupon
	if err := c.ShouldBindJSON(&coupon); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateCoupon(&coupon); errs != nil {
		utils.ValidationErrorResponse(c, errs)
		return
	}

	if err := h.couponService.CreateCoupon(c.Request.Context(), &coupon); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Coupon created", coupon)
}

// UpdateCoupon updates coupon fields (admin only). Usage counters are
// managed by the redemption path and cannot be edited here.
func (h *CouponHandler) UpdateCoupon(c *gin.Context) {
	couponID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.couponService.UpdateCoupon(c.Request.Context(), couponID, updates); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Coupon updated", nil)
}

// DeleteCoupon removes a coupon (admin only).
func (h *CouponHandler) DeleteCoupon(c *gin.Context) {
	couponID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.couponService.DeleteCoupon(c.Request.Context(), couponID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Coupon deleted", nil)
}

// ListCoupons lists coupons (admin only). ?active=true filters to live ones.
func (h *CouponHandler) ListCoupons(c *gin.Context) {
	activeOnly := c.Query("active") == "true"

	coupons, err := h.couponService.ListCoupons(c.Request.Context(), activeOnly)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Coupons retrieved successfully", coupons, &utils.Meta{Count: len(coupons)})
}
