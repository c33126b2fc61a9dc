package validators

import (
	"honeymart/internal/models"
)

type addressRules struct {
	Name       string `validate:"required"`
	Phone      string `validate:"required,phone_number"`
	Street     string `validate:"required"`
	City       string `validate:"required"`
	State      string `validate:"required"`
	PostalCode string `validate:"required,postal_code"`
}

// ValidateShippingAddress checks a checkout address override. A nil address
// is valid; checkout falls back to the user's default address.
func ValidateShippingAddress(address *models.Address) map[string]string {
	if address == nil {
		return nil
	}

	return ValidateStruct(addressRules{
		Name:       address.Name,
		Phone:      address.Phone,
		Street:     address.Street,
		City:       address.City,
		State:      address.State,
		PostalCode: address.PostalCode,
	})
}
