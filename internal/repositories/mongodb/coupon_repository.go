package mongodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"honeymart/internal/models"
	"honeymart/internal/repositories/interfaces"
	"honeymart/internal/utils"
	"honeymart/pkg/cache"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const couponCacheTTL = 5 * time.Minute

type couponRepository struct {
	collection *mongo.Collection
	cache      *cache.RedisCache
}

func NewCouponRepository(db *mongo.Database, redisCache *cache.RedisCache) interfaces.CouponRepository {
	return &couponRepository{
		collection: db.Collection("coupons"),
		cache:      redisCache,
	}
}

func (r *couponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	coupon.ID = primitive.NewObjectID()
	coupon.CreatedAt = time.Now()
	coupon.UpdatedAt = time.Now()
	coupon.Code = strings.ToUpper(coupon.Code)
	if coupon.UsedBy == nil {
		coupon.UsedBy = []primitive.ObjectID{}
	}

	_, err := r.collection.InsertOne(ctx, coupon)
	if err != nil {
		return fmt.Errorf("failed to create coupon: %w", err)
	}

	return nil
}

func (r *couponRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&coupon)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("coupon: %w", interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}

	return &coupon, nil
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	code = strings.ToUpper(code)

	// Read-through cache for active lookups; redemption always hits Mongo.
	cacheKey := utils.CacheCouponPrefix + code
	if r.cache != nil {
		var coupon models.Coupon
		if err := r.cache.Get(ctx, cacheKey, &coupon); err == nil {
			return &coupon, nil
		}
	}

	var coupon models.Coupon
	err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&coupon)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("coupon: %w", interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get coupon by code: %w", err)
	}

	if r.cache != nil && coupon.IsActive {
		r.cache.Set(ctx, cacheKey, &coupon, couponCacheTTL)
	}

	return &coupon, nil
}

func (r *couponRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	if code, exists := updates["code"]; exists {
		if codeStr, ok := code.(string); ok {
			updates["code"] = strings.ToUpper(codeStr)
		}
	}

	var current models.Coupon
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	).Decode(&current)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return fmt.Errorf("coupon: %w", interfaces.ErrNotFound)
		}
		return fmt.Errorf("failed to update coupon: %w", err)
	}

	r.invalidate(ctx, current.Code)

	return nil
}

func (r *couponRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	var current models.Coupon
	err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&current)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return fmt.Errorf("coupon: %w", interfaces.ErrNotFound)
		}
		return fmt.Errorf("failed to delete coupon: %w", err)
	}

	r.invalidate(ctx, current.Code)

	return nil
}

func (r *couponRepository) List(ctx context.Context, activeOnly bool) ([]*models.Coupon, error) {
	filter := bson.M{}
	if activeOnly {
		filter["is_active"] = true
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	defer cursor.Close(ctx)

	var coupons []*models.Coupon
	if err := cursor.All(ctx, &coupons); err != nil {
		return nil, fmt.Errorf("failed to decode coupons: %w", err)
	}

	return coupons, nil
}

// Redeem consumes a usage slot in a single conditional update. The filter
// restates the cap and once-per-user preconditions so that two concurrent
// checkouts cannot both pass a stale read of used_count.
func (r *couponRepository) Redeem(ctx context.Context, code string, userID primitive.ObjectID) (*models.Coupon, error) {
	code = strings.ToUpper(code)
	now := time.Now()

	filter := bson.M{
		"code":        code,
		"is_active":   true,
		"expiry_date": bson.M{"$gte": now},
		"$and": []bson.M{
			{"$or": []bson.M{
				{"max_uses": 0},
				{"$expr": bson.M{"$lt": []interface{}{"$used_count", "$max_uses"}}},
			}},
			{"$or": []bson.M{
				{"once_per_user": false},
				{"used_by": bson.M{"$ne": userID}},
			}},
		},
	}
	update := bson.M{
		"$inc":      bson.M{"used_count": 1},
		"$addToSet": bson.M{"used_by": userID},
		"$set":      bson.M{"updated_at": now},
	}

	var coupon models.Coupon
	err := r.collection.FindOneAndUpdate(
		ctx,
		filter,
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&coupon)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("coupon redemption: %w", interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to redeem coupon: %w", err)
	}

	r.invalidate(ctx, code)

	return &coupon, nil
}

func (r *couponRepository) Release(ctx context.Context, code string, userID primitive.ObjectID) error {
	code = strings.ToUpper(code)

	// Only decrement while the user actually holds a slot, so repeated
	// releases cannot drive used_count negative.
	filter := bson.M{
		"code":       code,
		"used_count": bson.M{"$gt": 0},
		"used_by":    userID,
	}
	update := bson.M{
		"$inc":  bson.M{"used_count": -1},
		"$pull": bson.M{"used_by": userID},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to release coupon: %w", err)
	}

	r.invalidate(ctx, code)

	return nil
}

func (r *couponRepository) invalidate(ctx context.Context, code string) {
	if r.cache != nil {
		r.cache.Delete(ctx, utils.CacheCouponPrefix+strings.ToUpper(code))
	}
}
