package handlers

import (
	"errors"

	"honeymart/internal/services"
	"honeymart/internal/utils"
	"honeymart/pkg/logger"
	"honeymart/pkg/shipping"

	"github.com/gin-gonic/gin"
)

type ShippingHandler struct {
	shippingService services.ShippingService
	logger          *logger.Logger
}

func NewShippingHandler(shippingService services.ShippingService, log *logger.Logger) *ShippingHandler {
	return &ShippingHandler{
		shippingService: shippingService,
		logger:          log,
	}
}

// CreateShipment books a carrier shipment for an order (admin only).
func (h *ShippingHandler) CreateShipment(c *gin.Context) {
	orderID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	order, err := h.shippingService.CreateShipment(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Shipment created", order)
}

// HandleTrackingWebhook ingests carrier status callbacks. The update path is
// monotonic, so replayed or out-of-order callbacks are acknowledged and
// dropped rather than rolling the delivery state back.
func (h *ShippingHandler) HandleTrackingWebhook(c *gin.Context) {
	var payload struct {
		AWB           string `json:"awb"`
		CurrentStatus string `json:"current_status"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil || payload.AWB == "" {
		utils.BadRequestResponse(c, "Invalid webhook payload")
		return
	}

	state := shipping.ParseCarrierStatus(payload.CurrentStatus)

	_, advanced, err := h.shippingService.ApplyTrackingUpdate(c.Request.Context(), payload.AWB, state)
	if err != nil {
		// Unknown AWBs are acknowledged so the carrier stops retrying;
		// anything else is a real failure worth a retry on their side.
		if errors.Is(err, services.ErrOrderNotFound) || errors.Is(err, services.ErrNotShipped) {
			h.logger.WithField("awb", payload.AWB).Warn("tracking webhook for unknown shipment")
			utils.SuccessResponse(c, "Ignored", nil)
			return
		}
		respondServiceError(c, err)
		return
	}

	if advanced {
		utils.SuccessResponse(c, "Tracking update applied", nil)
		return
	}
	utils.SuccessResponse(c, "Tracking update ignored (stale)", nil)
}
