package shipping

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DeliveryState is the canonical delivery sub-state parsed from carrier
// responses and webhooks.
type DeliveryState string

const (
	StatePending         DeliveryState = "pending"
	StatePickupScheduled DeliveryState = "pickup_scheduled"
	StateInTransit       DeliveryState = "in_transit"
	StateDelivered       DeliveryState = "delivered"
	StateCancelled       DeliveryState = "cancelled"
)

// ErrAuth is returned when the carrier rejects or fails credential refresh.
var ErrAuth = errors.New("shipping: carrier authentication failed")

// APIError is a non-2xx carrier response. Only 5xx responses are treated as
// transient; 4xx rejections are permanent and never retried.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shipping: carrier returned %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500
}

type Provider interface {
	Name() string
	CreateShipment(ctx context.Context, request *ShipmentRequest) (*ShipmentRecord, error)
	TrackByAWB(ctx context.Context, awb string) (DeliveryState, error)
}

type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type ShipmentItem struct {
	Name         string  `json:"name"`
	SKU          string  `json:"sku"`
	Units        int     `json:"units"`
	SellingPrice float64 `json:"selling_price"`
}

type ShipmentRequest struct {
	OrderRef       string         `json:"order_ref"`
	OrderDate      time.Time      `json:"order_date"`
	PickupLocation string         `json:"pickup_location"`
	PaymentMode    string         `json:"payment_mode"` // "COD" or "Prepaid"
	SubTotal       float64        `json:"sub_total"`
	WeightKg       float64        `json:"weight_kg"`
	Dimensions     Dimensions     `json:"dimensions"`
	CustomerName   string         `json:"customer_name"`
	CustomerEmail  string         `json:"customer_email"`
	CustomerPhone  string         `json:"customer_phone"`
	BillingAddress string         `json:"billing_address"`
	BillingCity    string         `json:"billing_city"`
	BillingState   string         `json:"billing_state"`
	BillingPincode string         `json:"billing_pincode"`
	BillingCountry string         `json:"billing_country"`
	Items          []ShipmentItem `json:"items"`
}

type ShipmentRecord struct {
	ShipmentID            string
	AWBNumber             string
	TrackingID            string
	Status                DeliveryState
	EstimatedDeliveryDate *time.Time
}

// ParseCarrierStatus normalizes a carrier status string to a DeliveryState.
// Unknown strings map to StatePending rather than failing; the poller will
// pick up the real state on a later pass.
func ParseCarrierStatus(status string) DeliveryState {
	switch normalize(status) {
	case "pickup scheduled", "pickup generated", "awb assigned", "pickup queued":
		return StatePickupScheduled
	case "in transit", "shipped", "out for delivery", "reached destination hub":
		return StateInTransit
	case "delivered":
		return StateDelivered
	case "cancelled", "canceled", "rto delivered":
		return StateCancelled
	default:
		return StatePending
	}
}
