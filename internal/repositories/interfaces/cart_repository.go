package interfaces

import (
	"context"

	"honeymart/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CartRepository interface {
	// GetByUser returns the user's cart, or ErrNotFound when none exists.
	GetByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)

	// Upsert persists the cart, creating it on first write. Last write wins
	// for concurrent tabs of the same user.
	Upsert(ctx context.Context, cart *models.Cart) error

	// Clear empties the cart's items, coupon and totals without deleting
	// the document.
	Clear(ctx context.Context, userID primitive.ObjectID) error
}
