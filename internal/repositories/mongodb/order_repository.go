package mongodb

import (
	"context"
	"fmt"
	"time"

	"honeymart/internal/models"
	"honeymart/internal/repositories/interfaces"
	"honeymart/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type orderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) interfaces.OrderRepository {
	return &orderRepository{
		collection: db.Collection("orders"),
	}
}

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	order.ID = primitive.NewObjectID()
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, order)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("order: %w", interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &order, nil
}

func (r *orderRepository) GetByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Order, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

func (r *orderRepository) GetByAWB(ctx context.Context, awb string) (*models.Order, error) {
	var order models.Order
	err := r.collection.FindOne(ctx, bson.M{"delivery.awb_number": awb}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("order by awb: %w", interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by awb: %w", err)
	}

	return &order, nil
}

func (r *orderRepository) GetByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error) {
	var order models.Order
	err := r.collection.FindOne(ctx, bson.M{"payment_intent_id": intentID}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("order by payment intent: %w", interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by payment intent: %w", err)
	}

	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, status models.OrderStatus, params *utils.PaginationParams) ([]*models.Order, int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if params != nil {
		opts = params.GetSortOptions()
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []*models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, fmt.Errorf("failed to decode orders: %w", err)
	}

	return orders, total, nil
}

func (r *orderRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("order: %w", interfaces.ErrNotFound)
	}

	return nil
}

func (r *orderRepository) UpdateStatusGuarded(ctx context.Context, id primitive.ObjectID, expected models.OrderStatus, updates map[string]interface{}) (bool, error) {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": expected},
		bson.M{"$set": updates},
	)
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}

	return result.MatchedCount > 0, nil
}

func (r *orderRepository) MarkPaid(ctx context.Context, id primitive.ObjectID, paymentID string) (bool, error) {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "payment_status": models.PaymentStatusPending},
		bson.M{"$set": bson.M{
			"payment_status": models.PaymentStatusPaid,
			"payment_id":     paymentID,
			"updated_at":     time.Now(),
		}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark order paid: %w", err)
	}

	return result.ModifiedCount > 0, nil
}

func (r *orderRepository) AttachDelivery(ctx context.Context, id primitive.ObjectID, delivery *models.Delivery, updates map[string]interface{}) (bool, error) {
	set := bson.M{
		"delivery":   delivery,
		"updated_at": time.Now(),
	}
	for k, v := range updates {
		set[k] = v
	}

	// The guard makes duplicate shipment submission lose the race instead
	// of overwriting an existing delivery record.
	filter := bson.M{
		"_id": id,
		"$or": []bson.M{
			{"delivery": nil},
			{"delivery.partner": ""},
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("failed to attach delivery: %w", err)
	}

	return result.MatchedCount > 0, nil
}

func (r *orderRepository) AdvanceDeliveryStatus(ctx context.Context, id primitive.ObjectID, status models.DeliveryStatus, allowedCurrent []models.DeliveryStatus, updates map[string]interface{}) (bool, error) {
	set := bson.M{
		"delivery.delivery_status": status,
		"updated_at":               time.Now(),
	}
	for k, v := range updates {
		set[k] = v
	}

	filter := bson.M{
		"_id":                      id,
		"delivery.partner":         bson.M{"$nin": []interface{}{nil, ""}},
		"delivery.delivery_status": bson.M{"$in": allowedCurrent},
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("failed to advance delivery status: %w", err)
	}

	return result.MatchedCount > 0, nil
}

func (r *orderRepository) GetUndelivered(ctx context.Context) ([]*models.Order, error) {
	filter := bson.M{
		"delivery.partner": bson.M{"$nin": []interface{}{nil, ""}},
		"delivery.delivery_status": bson.M{"$nin": []interface{}{
			models.DeliveryStatusDelivered,
			models.DeliveryStatusCancelled,
		}},
	}
	return r.find(ctx, filter)
}

func (r *orderRepository) find(ctx context.Context, filter bson.M) ([]*models.Order, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []*models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}

	return orders, nil
}
