package services

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable classification every service failure carries.
// Handlers translate kinds to HTTP codes; retry policy keys off them too:
// only transient external failures are ever retried, and only inside the
// adapters' bounded retry loops.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation_error"
	KindBusinessRule      ErrorKind = "business_rule_violation"
	KindExternalTransient ErrorKind = "external_service_transient"
	KindExternalPermanent ErrorKind = "external_service_permanent"
	KindIntegrity         ErrorKind = "integrity_error"
)

type ServiceError struct {
	Kind    ErrorKind
	Code    string
	Message string
	cause   error
}

func (e *ServiceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.cause
}

// Is lets sentinel comparisons match on the stable code rather than on
// pointer identity, so wrapped copies still compare equal.
func (e *ServiceError) Is(target error) bool {
	var other *ServiceError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

func (e *ServiceError) withCause(cause error) *ServiceError {
	return &ServiceError{Kind: e.Kind, Code: e.Code, Message: e.Message, cause: cause}
}

func newValidationError(code, message string) *ServiceError {
	return &ServiceError{Kind: KindValidation, Code: code, Message: message}
}

func newBusinessError(code, message string) *ServiceError {
	return &ServiceError{Kind: KindBusinessRule, Code: code, Message: message}
}

func newIntegrityError(code, message string) *ServiceError {
	return &ServiceError{Kind: KindIntegrity, Code: code, Message: message}
}

func externalError(code, message string, cause error, transient bool) *ServiceError {
	kind := KindExternalPermanent
	if transient {
		kind = KindExternalTransient
	}
	return &ServiceError{Kind: kind, Code: code, Message: message, cause: cause}
}

// Coupon engine failures, in validation order.
var (
	ErrCouponNotFound    = newBusinessError("COUPON_NOT_FOUND", "coupon does not exist or is inactive")
	ErrCouponExpired     = newBusinessError("COUPON_EXPIRED", "coupon has expired")
	ErrBelowMinimum      = newBusinessError("COUPON_BELOW_MINIMUM", "cart subtotal is below the coupon minimum purchase")
	ErrUsageLimitReached = newBusinessError("COUPON_USAGE_LIMIT", "coupon usage limit reached")
	ErrAlreadyUsedByUser = newBusinessError("COUPON_ALREADY_USED", "coupon already used by this user")
	ErrCategoryMismatch  = newBusinessError("COUPON_CATEGORY_MISMATCH", "coupon does not apply to any item in the cart")
	ErrNoCouponApplied   = newBusinessError("NO_COUPON_APPLIED", "no coupon is applied to the cart")
)

// Cart and checkout failures.
var (
	ErrEmptyCart           = newValidationError("EMPTY_CART", "cart is empty")
	ErrNoShippingAddress   = newValidationError("NO_SHIPPING_ADDRESS", "no shipping address on file")
	ErrInvalidPaymentType  = newValidationError("INVALID_PAYMENT_TYPE", "unsupported payment type")
	ErrInsufficientStock   = newBusinessError("INSUFFICIENT_STOCK", "not enough stock for a cart item")
	ErrPaymentVerification = newIntegrityError("PAYMENT_VERIFICATION_FAILED", "payment signature verification failed")
)

// Order lifecycle failures.
var (
	ErrOrderNotFound       = newBusinessError("ORDER_NOT_FOUND", "order not found")
	ErrIllegalTransition   = newBusinessError("ILLEGAL_STATUS_TRANSITION", "requested status transition is not allowed")
	ErrAlreadyShipped      = newBusinessError("ALREADY_SHIPPED", "a shipment already exists for this order")
	ErrNotShipped          = newBusinessError("NOT_SHIPPED", "order has no shipment yet")
	ErrCancelAfterShipment = newBusinessError("CANCEL_AFTER_SHIPMENT", "order already shipped; request a return instead")
	ErrReturnNotAllowed    = newBusinessError("RETURN_NOT_ALLOWED", "order is not eligible for a return request")
	ErrReturnAlreadyOpen   = newBusinessError("RETURN_ALREADY_OPEN", "a return request is already open for this order")
	ErrReturnNotRequested  = newBusinessError("RETURN_NOT_REQUESTED", "no return request to resolve")
)
