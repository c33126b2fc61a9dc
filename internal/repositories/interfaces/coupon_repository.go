package interfaces

import (
	"context"

	"honeymart/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CouponRepository interface {
	// Basic CRUD operations (admin surface)
	Create(ctx context.Context, coupon *models.Coupon) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Coupon, error)
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, activeOnly bool) ([]*models.Coupon, error)

	// Redeem atomically consumes one usage slot: the increment only happens
	// while the usage cap and once-per-user rule still hold at commit time,
	// so concurrent redemptions cannot oversubscribe the coupon. Returns
	// the post-redemption coupon, or ErrNotFound when the preconditions no
	// longer hold.
	Redeem(ctx context.Context, code string, userID primitive.ObjectID) (*models.Coupon, error)

	// Release returns a previously redeemed slot (coupon removed from cart
	// before checkout, or order cancelled).
	Release(ctx context.Context, code string, userID primitive.ObjectID) error
}
