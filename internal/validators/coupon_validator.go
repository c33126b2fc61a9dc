package validators

import (
	"strings"
	"time"

	"honeymart/internal/models"
)

// ValidateCoupon checks an admin-supplied coupon before it is stored. The
// code may be empty; the service generates one in that case.
func ValidateCoupon(coupon *models.Coupon) map[string]string {
	errs := make(map[string]string)

	if coupon.Code != "" {
		coupon.Code = strings.ToUpper(strings.TrimSpace(coupon.Code))
		if !couponCodeRegex.MatchString(coupon.Code) {
			errs["code"] = "must be 4-20 upper-case letters or digits"
		}
	}

	switch coupon.DiscountType {
	case models.DiscountTypePercentage:
		if coupon.DiscountValue <= 0 || coupon.DiscountValue > 100 {
			errs["discount_value"] = "percentage must be between 0 and 100"
		}
	case models.DiscountTypeFlat:
		if coupon.DiscountValue <= 0 {
			errs["discount_value"] = "must be greater than 0"
		}
	default:
		errs["discount_type"] = "must be one of: percentage flat"
	}

	if coupon.MinPurchase < 0 {
		errs["min_purchase"] = "must be at least 0"
	}
	if coupon.MaxUses < 0 {
		errs["max_uses"] = "must be at least 0"
	}
	if coupon.ExpiryDate.IsZero() {
		errs["expiry_date"] = "this field is required"
	} else if coupon.ExpiryDate.Before(time.Now()) {
		errs["expiry_date"] = "must be a date in the future"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
