package mongodb

import (
	"context"
	"fmt"
	"time"

	"honeymart/internal/models"
	"honeymart/internal/repositories/interfaces"
	"honeymart/internal/utils"
	"honeymart/pkg/cache"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const productCacheTTL = 10 * time.Minute

type productRepository struct {
	collection *mongo.Collection
	cache      *cache.RedisCache
}

func NewProductRepository(db *mongo.Database, redisCache *cache.RedisCache) interfaces.ProductRepository {
	return &productRepository{
		collection: db.Collection("products"),
		cache:      redisCache,
	}
}

func (r *productRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	cacheKey := utils.CacheProductPrefix + id.Hex()
	if r.cache != nil {
		var product models.Product
		if err := r.cache.Get(ctx, cacheKey, &product); err == nil {
			return &product, nil
		}
	}

	var product models.Product
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("product: %w", interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if r.cache != nil {
		r.cache.Set(ctx, cacheKey, &product, productCacheTTL)
	}

	return &product, nil
}

func (r *productRepository) GetVariant(ctx context.Context, productID, variantID primitive.ObjectID) (*models.Product, *models.Variant, error) {
	product, err := r.GetByID(ctx, productID)
	if err != nil {
		return nil, nil, err
	}

	variant := product.FindVariant(variantID)
	if variant == nil {
		return nil, nil, fmt.Errorf("variant: %w", interfaces.ErrNotFound)
	}

	return product, variant, nil
}
