package interfaces

import (
	"context"

	"honeymart/internal/models"
	"honeymart/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	GetByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Order, error)
	GetByAWB(ctx context.Context, awb string) (*models.Order, error)

	// GetByPaymentIntent resolves the order created for a payment intent,
	// the idempotency key for callback verification.
	GetByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error)

	// List pages through all orders, optionally filtered by status, and
	// returns the total match count for pagination metadata.
	List(ctx context.Context, status models.OrderStatus, params *utils.PaginationParams) ([]*models.Order, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// UpdateStatusGuarded applies updates only while the order still holds
	// the expected status. A false return means another writer won the race.
	UpdateStatusGuarded(ctx context.Context, id primitive.ObjectID, expected models.OrderStatus, updates map[string]interface{}) (bool, error)

	// MarkPaid flips payment status from pending to paid exactly once.
	// A false return means the order was already paid (idempotent repeat).
	MarkPaid(ctx context.Context, id primitive.ObjectID, paymentID string) (bool, error)

	// AttachDelivery writes the delivery sub-document only when no shipment
	// exists yet. A false return means the order was already shipped.
	AttachDelivery(ctx context.Context, id primitive.ObjectID, delivery *models.Delivery, updates map[string]interface{}) (bool, error)

	// AdvanceDeliveryStatus moves the delivery sub-state forward only when
	// the current state is one of allowedCurrent, keeping poller and
	// webhook updates monotonic. A false return means the update was stale.
	AdvanceDeliveryStatus(ctx context.Context, id primitive.ObjectID, status models.DeliveryStatus, allowedCurrent []models.DeliveryStatus, updates map[string]interface{}) (bool, error)

	// GetUndelivered returns orders with a shipment whose delivery state
	// has not reached a terminal value, for the tracking poller.
	GetUndelivered(ctx context.Context) ([]*models.Order, error)
}
