package interfaces

import (
	"context"

	"honeymart/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductRepository is the read surface the order core needs from the
// catalog: pricing at cart/snapshot time and weight/dimension resolution at
// shipment time. Catalog management itself lives outside this service.
type ProductRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)

	// GetVariant resolves a sellable variant with its parent product.
	GetVariant(ctx context.Context, productID, variantID primitive.ObjectID) (*models.Product, *models.Variant, error)
}
