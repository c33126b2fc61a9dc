package validators

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterValidation("object_id", validateObjectID)
	validate.RegisterValidation("phone_number", validatePhoneNumber)
	validate.RegisterValidation("postal_code", validatePostalCode)
	validate.RegisterValidation("future_date", validateFutureDate)
	validate.RegisterValidation("coupon_code", validateCouponCode)
}

func validateObjectID(fl validator.FieldLevel) bool {
	_, err := primitive.ObjectIDFromHex(fl.Field().String())
	return err == nil
}

var phoneRegex = regexp.MustCompile(`^(\+91)?[6-9]\d{9}$`)

func validatePhoneNumber(fl validator.FieldLevel) bool {
	phone := strings.ReplaceAll(fl.Field().String(), " ", "")
	return phoneRegex.MatchString(phone)
}

var postalCodeRegex = regexp.MustCompile(`^[1-9]\d{5}$`)

func validatePostalCode(fl validator.FieldLevel) bool {
	return postalCodeRegex.MatchString(fl.Field().String())
}

func validateFutureDate(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return date.After(time.Now())
}

var couponCodeRegex = regexp.MustCompile(`^[A-Z0-9]{4,20}$`)

func validateCouponCode(fl validator.FieldLevel) bool {
	return couponCodeRegex.MatchString(fl.Field().String())
}

// ValidateStruct runs tag validation and flattens failures into a
// field-to-message map for the response envelope.
func ValidateStruct(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errs := make(map[string]string)
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		errs["_"] = err.Error()
		return errs
	}

	for _, fieldErr := range validationErrors {
		errs[strings.ToLower(fieldErr.Field())] = validationMessage(fieldErr)
	}
	return errs
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "object_id":
		return "must be a valid object id"
	case "phone_number":
		return "must be a valid phone number"
	case "postal_code":
		return "must be a valid 6-digit postal code"
	case "future_date":
		return "must be a date in the future"
	case "coupon_code":
		return "must be 4-20 upper-case letters or digits"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}
