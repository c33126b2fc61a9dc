package handlers

import (
	"honeymart/internal/services"
	"honeymart/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CartHandler struct {
	cartService services.CartService
}

func NewCartHandler(cartService services.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

type cartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	VariantID string `json:"variant_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

func (r *cartItemRequest) ids(c *gin.Context) (primitive.ObjectID, primitive.ObjectID, bool) {
	productID, err := primitive.ObjectIDFromHex(r.ProductID)
	if err != nil {
		utils.BadRequestResponse(c, "invalid product_id")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	variantID, err := primitive.ObjectIDFromHex(r.VariantID)
	if err != nil {
		utils.BadRequestResponse(c, "invalid variant_id")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	return productID, variantID, true
}

// GetCart returns the user's cart with recalculated totals.
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	cart, err := h.cartService.GetCart(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Cart retrieved successfully", cart)
}

// AddItem adds a product variant to the cart, merging with an existing line.
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request cartItemRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	productID, variantID, ok := request.ids(c)
	if !ok {
		return
	}

	cart, err := h.cartService.AddItem(c.Request.Context(), userID, productID, variantID, request.Quantity)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Item added to cart", cart)
}

// UpdateItem sets the quantity of a cart line; zero removes it.
func (h *CartHandler) UpdateItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request cartItemRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	productID, variantID, ok := request.ids(c)
	if !ok {
		return
	}

	cart, err := h.cartService.UpdateQuantity(c.Request.Context(), userID, productID, variantID, request.Quantity)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Cart updated", cart)
}

// RemoveItem deletes a line from the cart.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request cartItemRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	productID, variantID, ok := request.ids(c)
	if !ok {
		return
	}

	cart, err := h.cartService.RemoveItem(c.Request.Context(), userID, productID, variantID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Item removed from cart", cart)
}

// ClearCart empties the cart.
func (h *CartHandler) ClearCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.cartService.ClearCart(c.Request.Context(), userID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Cart cleared", nil)
}
