package handlers

import (
	"errors"
	"net/http"

	"honeymart/internal/services"
	"honeymart/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// currentUserID pulls the authenticated user from the context set by the
// auth middleware.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		utils.UnauthorizedResponse(c)
		return primitive.NilObjectID, false
	}
	userID, ok := value.(primitive.ObjectID)
	if !ok {
		utils.UnauthorizedResponse(c)
		return primitive.NilObjectID, false
	}
	return userID, true
}

func pathObjectID(c *gin.Context, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		utils.BadRequestResponse(c, "invalid "+param)
		return primitive.NilObjectID, false
	}
	return id, true
}

// respondServiceError translates the service error taxonomy to HTTP.
// Validation maps to 400, missing resources to 404, rule violations and
// races to 409, failed payment proof to 402, and upstream failures to 5xx.
func respondServiceError(c *gin.Context, err error) {
	var svcErr *services.ServiceError
	if !errors.As(err, &svcErr) {
		utils.InternalServerErrorResponse(c)
		return
	}

	status := http.StatusInternalServerError
	switch svcErr.Kind {
	case services.KindValidation:
		status = http.StatusBadRequest
	case services.KindBusinessRule:
		status = http.StatusConflict
		if errors.Is(err, services.ErrOrderNotFound) || errors.Is(err, services.ErrCouponNotFound) {
			status = http.StatusNotFound
		}
	case services.KindIntegrity:
		status = http.StatusConflict
		if errors.Is(err, services.ErrPaymentVerification) {
			status = http.StatusPaymentRequired
		}
	case services.KindExternalTransient:
		status = http.StatusServiceUnavailable
	case services.KindExternalPermanent:
		status = http.StatusBadGateway
	}

	utils.ErrorResponse(c, status, svcErr.Code, svcErr.Message)
}
