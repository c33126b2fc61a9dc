package interfaces

import (
	"context"

	"honeymart/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository resolves shipping destination and contact details for
// checkout and notifications.
type UserRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}
