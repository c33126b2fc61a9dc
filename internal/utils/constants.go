package utils

import "time"

// Application Constants
const (
	DefaultCurrency = "INR"
	DefaultTimeZone = "UTC"
	DefaultCountry  = "India"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Coupons
	CouponCodeLength = 8

	// Notification
	NotificationTimeout = 30 * time.Second
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusFailed  = "failed"
)

// Error Messages
const (
	ErrInvalidCredentials = "invalid credentials"
	ErrUserNotFound       = "user not found"
	ErrInvalidToken       = "invalid token"
	ErrTokenExpired       = "token expired"
	ErrInvalidInput       = "invalid input"
	ErrInternalServer     = "internal server error"
	ErrUnauthorized       = "unauthorized"
	ErrForbidden          = "forbidden"
	ErrNotFound           = "not found"
	ErrConflict           = "conflict"
	ErrValidationFailed   = "validation failed"
	ErrPaymentFailed      = "payment failed"
)

// Cache Keys
const (
	CacheProductPrefix = "product_"
	CacheCouponPrefix  = "coupon_code_"
	CacheIntentPrefix  = "checkout_intent_"
)
