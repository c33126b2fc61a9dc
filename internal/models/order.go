package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string
type PaymentStatus string
type PaymentType string
type DeliveryStatus string
type ReturnStatus string

const (
	OrderStatusPlaced     OrderStatus = "placed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusReturned   OrderStatus = "returned"

	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"

	PaymentTypeCOD    PaymentType = "cod"
	PaymentTypeOnline PaymentType = "online"

	DeliveryStatusPending         DeliveryStatus = "pending"
	DeliveryStatusPickupScheduled DeliveryStatus = "pickup_scheduled"
	DeliveryStatusInTransit       DeliveryStatus = "in_transit"
	DeliveryStatusDelivered       DeliveryStatus = "delivered"
	DeliveryStatusCancelled       DeliveryStatus = "cancelled"

	ReturnStatusPending    ReturnStatus = "pending"
	ReturnStatusProcessing ReturnStatus = "processing"
	ReturnStatusApproved   ReturnStatus = "approved"
	ReturnStatusRejected   ReturnStatus = "rejected"
	ReturnStatusReturned   ReturnStatus = "returned"
)

// orderStatusRanks orders the forward progression of an order. Cancelled and
// Returned sit outside the ladder and are handled explicitly.
var orderStatusRanks = map[OrderStatus]int{
	OrderStatusPlaced:     0,
	OrderStatusProcessing: 1,
	OrderStatusShipped:    2,
	OrderStatusDelivered:  3,
}

func (s OrderStatus) Rank() (int, bool) {
	rank, ok := orderStatusRanks[s]
	return rank, ok
}

// CanTransitionTo reports whether the status may move to target. Backward
// moves on the ladder are forbidden; Cancelled is reachable from any
// pre-delivered state; Returned is only reachable from Delivered.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if s == OrderStatusCancelled || s == OrderStatusReturned {
		return false
	}
	switch target {
	case OrderStatusCancelled:
		return s != OrderStatusDelivered
	case OrderStatusReturned:
		return s == OrderStatusDelivered
	}
	current, ok := s.Rank()
	if !ok {
		return false
	}
	requested, ok := target.Rank()
	if !ok {
		return false
	}
	return requested >= current
}

var deliveryStatusRanks = map[DeliveryStatus]int{
	DeliveryStatusPending:         0,
	DeliveryStatusPickupScheduled: 1,
	DeliveryStatusInTransit:       2,
	DeliveryStatusDelivered:       3,
}

func (s DeliveryStatus) Rank() (int, bool) {
	rank, ok := deliveryStatusRanks[s]
	return rank, ok
}

// IsAdvanceOf reports whether the status is strictly ahead of other on the
// delivery ladder. Used to reject stale carrier updates.
func (s DeliveryStatus) IsAdvanceOf(other DeliveryStatus) bool {
	sr, ok := s.Rank()
	if !ok {
		return s == DeliveryStatusCancelled && other != DeliveryStatusDelivered
	}
	or, ok := other.Rank()
	if !ok {
		return false
	}
	return sr > or
}

// OrderItem is a point-in-time copy of a product variant. Later catalog
// edits must never alter a historical order.
type OrderItem struct {
	ProductID primitive.ObjectID `json:"product_id" bson:"product_id"`
	VariantID primitive.ObjectID `json:"variant_id" bson:"variant_id"`
	Name      string             `json:"name" bson:"name"`
	SKU       string             `json:"sku" bson:"sku"`
	Variant   string             `json:"variant" bson:"variant"`
	Price     float64            `json:"price" bson:"price"`
	Quantity  int                `json:"quantity" bson:"quantity"`
	Images    []string           `json:"images" bson:"images"`
}

type Delivery struct {
	Partner               string         `json:"partner" bson:"partner"`
	TrackingID            string         `json:"tracking_id" bson:"tracking_id"`
	AWBNumber             string         `json:"awb_number" bson:"awb_number"`
	ShipmentID            string         `json:"shipment_id" bson:"shipment_id"`
	PickupAddress         string         `json:"pickup_address" bson:"pickup_address"`
	DeliveryAddress       string         `json:"delivery_address" bson:"delivery_address"`
	DeliveryStatus        DeliveryStatus `json:"delivery_status" bson:"delivery_status"`
	EstimatedDeliveryDate *time.Time     `json:"estimated_delivery_date" bson:"estimated_delivery_date"`
}

type ReturnRequest struct {
	Requested   bool         `json:"requested" bson:"requested"`
	Reason      string       `json:"reason" bson:"reason"`
	Status      ReturnStatus `json:"status" bson:"status"`
	RequestedAt *time.Time   `json:"requested_at" bson:"requested_at"`
	ResolvedAt  *time.Time   `json:"resolved_at" bson:"resolved_at"`
}

type Cancellation struct {
	Cancelled   bool       `json:"cancelled" bson:"cancelled"`
	Reason      string     `json:"reason" bson:"reason"`
	CancelledAt *time.Time `json:"cancelled_at" bson:"cancelled_at"`
}

type Order struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID          primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	Items           []OrderItem        `json:"items" bson:"items" validate:"required"`
	ShippingAddress Address            `json:"shipping_address" bson:"shipping_address"`
	TotalAmount     float64            `json:"total_amount" bson:"total_amount"`
	DiscountAmount  float64            `json:"discount_amount" bson:"discount_amount" default:"0"`
	ShippingCharge  float64            `json:"shipping_charge" bson:"shipping_charge" default:"0"`
	PaymentType     PaymentType        `json:"payment_type" bson:"payment_type" validate:"required"`
	PaymentStatus   PaymentStatus      `json:"payment_status" bson:"payment_status" default:"pending"`
	PaymentIntentID string             `json:"payment_intent_id" bson:"payment_intent_id"`
	PaymentID       string             `json:"payment_id" bson:"payment_id"`
	Status          OrderStatus        `json:"status" bson:"status" default:"placed"`
	Delivery        *Delivery          `json:"delivery" bson:"delivery"`
	ReturnRequest   *ReturnRequest     `json:"return_request" bson:"return_request"`
	Cancellation    *Cancellation      `json:"cancellation" bson:"cancellation"`
	CouponCode      string             `json:"coupon_code" bson:"coupon_code"`
	Notes           string             `json:"notes" bson:"notes"`
	DeliveredAt     *time.Time         `json:"delivered_at" bson:"delivered_at"`
	RefundedAt      *time.Time         `json:"refunded_at" bson:"refunded_at"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

// Shipped reports whether a shipment has already been created for the order.
func (o *Order) Shipped() bool {
	return o.Delivery != nil && o.Delivery.Partner != ""
}
