package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"honeymart/internal/config"
	"honeymart/internal/models"
	"honeymart/internal/repositories/interfaces"
	"honeymart/pkg/logger"
	"honeymart/pkg/shipping"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// minBillableWeightKg is the carrier's minimum chargeable parcel weight.
const minBillableWeightKg = 0.5

type ShippingService interface {
	// CreateShipment books a carrier shipment for a placed order and moves
	// it to Shipped. An order that already carries a shipment is rejected.
	CreateShipment(ctx context.Context, orderID primitive.ObjectID) (*models.Order, error)

	// ApplyTrackingUpdate folds a carrier delivery state into the order,
	// ignoring anything that does not move the delivery ladder forward.
	// Both the webhook and the poller funnel through here, so a late or
	// duplicated update can never regress the recorded state.
	ApplyTrackingUpdate(ctx context.Context, awb string, state shipping.DeliveryState) (*models.Order, bool, error)

	// SyncOrder re-fetches the carrier state for one shipped order.
	SyncOrder(ctx context.Context, order *models.Order) error

	// SyncUndelivered runs one polling pass over all undelivered shipments.
	SyncUndelivered(ctx context.Context) error
}

type shippingService struct {
	orderRepo    interfaces.OrderRepository
	userRepo     interfaces.UserRepository
	productRepo  interfaces.ProductRepository
	provider     shipping.Provider
	warehouse    *config.WarehouseConfig
	notification NotificationService
	logger       *logger.Logger
}

func NewShippingService(
	orderRepo interfaces.OrderRepository,
	userRepo interfaces.UserRepository,
	productRepo interfaces.ProductRepository,
	provider shipping.Provider,
	warehouse *config.WarehouseConfig,
	notification NotificationService,
	log *logger.Logger,
) ShippingService {
	return &shippingService{
		orderRepo:    orderRepo,
		userRepo:     userRepo,
		productRepo:  productRepo,
		provider:     provider,
		warehouse:    warehouse,
		notification: notification,
		logger:       log,
	}
}

func (s *shippingService) CreateShipment(ctx context.Context, orderID primitive.ObjectID) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if order.Shipped() {
		return nil, ErrAlreadyShipped
	}
	if !order.Status.CanTransitionTo(models.OrderStatusShipped) {
		return nil, ErrIllegalTransition
	}
	if order.PaymentType == models.PaymentTypeOnline && order.PaymentStatus != models.PaymentStatusPaid {
		return nil, newBusinessError("ORDER_NOT_PAID", "online order must be paid before shipping")
	}

	user, err := s.userRepo.GetByID(ctx, order.UserID)
	if err != nil {
		return nil, err
	}

	weight, dims, err := s.parcelMetrics(ctx, order.Items)
	if err != nil {
		return nil, err
	}

	request := &shipping.ShipmentRequest{
		OrderRef:       order.ID.Hex(),
		OrderDate:      order.CreatedAt,
		PickupLocation: s.warehouse.Name,
		PaymentMode:    paymentMode(order.PaymentType),
		SubTotal:       order.TotalAmount,
		WeightKg:       weight,
		Dimensions:     dims,
		CustomerName:   order.ShippingAddress.Name,
		CustomerEmail:  user.Email,
		CustomerPhone:  order.ShippingAddress.Phone,
		BillingAddress: order.ShippingAddress.Line(),
		BillingCity:    order.ShippingAddress.City,
		BillingState:   order.ShippingAddress.State,
		BillingPincode: order.ShippingAddress.PostalCode,
		BillingCountry: order.ShippingAddress.Country,
		Items:          shipmentItems(order.Items),
	}
	if request.CustomerName == "" {
		request.CustomerName = fmt.Sprintf("%s %s", user.FirstName, user.LastName)
	}
	if request.CustomerPhone == "" {
		request.CustomerPhone = user.Phone
	}

	record, err := s.provider.CreateShipment(ctx, request)
	if err != nil {
		var apiErr *shipping.APIError
		if errors.As(err, &apiErr) && !apiErr.Temporary() {
			return nil, externalError("SHIPMENT_REJECTED", "carrier rejected the shipment", err, false)
		}
		return nil, externalError("SHIPMENT_FAILED", "failed to create shipment with carrier", err, true)
	}

	delivery := &models.Delivery{
		Partner:               s.provider.Name(),
		TrackingID:            record.TrackingID,
		AWBNumber:             record.AWBNumber,
		ShipmentID:            record.ShipmentID,
		PickupAddress:         s.warehouse.Address,
		DeliveryAddress:       order.ShippingAddress.Line(),
		DeliveryStatus:        models.DeliveryStatus(record.Status),
		EstimatedDeliveryDate: record.EstimatedDeliveryDate,
	}
	if delivery.DeliveryStatus == "" {
		delivery.DeliveryStatus = models.DeliveryStatusPending
	}

	attached, err := s.orderRepo.AttachDelivery(ctx, order.ID, delivery, map[string]interface{}{
		"status": models.OrderStatusShipped,
	})
	if err != nil {
		return nil, err
	}
	if !attached {
		// A concurrent submission won; the carrier now holds a shipment
		// nothing references.
		s.logger.WithOrderID(order.ID).
			WithField("shipment_id", record.ShipmentID).
			Error("MANUAL REVIEW: shipment booked but another shipment already attached")
		return nil, ErrAlreadyShipped
	}

	updated, err := s.orderRepo.GetByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	s.notification.NotifyOrderEvent(user, updated, EventOrderShipped)
	s.logger.WithOrderID(order.ID).
		WithField("awb", record.AWBNumber).
		WithField("weight_kg", weight).
		Info("shipment created")

	return updated, nil
}

func (s *shippingService) ApplyTrackingUpdate(ctx context.Context, awb string, state shipping.DeliveryState) (*models.Order, bool, error) {
	order, err := s.orderRepo.GetByAWB(ctx, awb)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, false, ErrOrderNotFound
		}
		return nil, false, err
	}
	if !order.Shipped() {
		return nil, false, ErrNotShipped
	}

	target := models.DeliveryStatus(state)
	if !target.IsAdvanceOf(order.Delivery.DeliveryStatus) {
		return order, false, nil
	}

	updates := map[string]interface{}{}
	if target == models.DeliveryStatusDelivered {
		updates["status"] = models.OrderStatusDelivered
		updates["delivered_at"] = time.Now()
	}

	// The allowed set is every state strictly below the incoming one, so a
	// racing writer that already advanced further makes this a no-op.
	advanced, err := s.orderRepo.AdvanceDeliveryStatus(ctx, order.ID, target, statesBelow(target), updates)
	if err != nil {
		return nil, false, err
	}
	if !advanced {
		current, err := s.orderRepo.GetByID(ctx, order.ID)
		if err != nil {
			return nil, false, err
		}
		return current, false, nil
	}

	updated, err := s.orderRepo.GetByID(ctx, order.ID)
	if err != nil {
		return nil, false, err
	}

	s.logger.WithOrderID(order.ID).
		WithField("awb", awb).
		WithField("delivery_status", string(target)).
		Info("delivery status advanced")

	if target == models.DeliveryStatusDelivered {
		if user, err := s.userRepo.GetByID(ctx, updated.UserID); err == nil {
			s.notification.NotifyOrderEvent(user, updated, EventOrderDelivered)
		}
	}

	return updated, true, nil
}

func (s *shippingService) SyncOrder(ctx context.Context, order *models.Order) error {
	if !order.Shipped() || order.Delivery.AWBNumber == "" {
		return ErrNotShipped
	}

	state, err := s.provider.TrackByAWB(ctx, order.Delivery.AWBNumber)
	if err != nil {
		return err
	}

	_, _, err = s.ApplyTrackingUpdate(ctx, order.Delivery.AWBNumber, state)
	return err
}

func (s *shippingService) SyncUndelivered(ctx context.Context) error {
	orders, err := s.orderRepo.GetUndelivered(ctx)
	if err != nil {
		return err
	}

	var failed int
	for _, order := range orders {
		if err := s.SyncOrder(ctx, order); err != nil {
			failed++
			s.logger.WithError(err).WithOrderID(order.ID).Warn("delivery sync failed for order")
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"orders": len(orders),
		"failed": failed,
	}).Debug("delivery sync pass complete")

	if failed > 0 {
		return fmt.Errorf("delivery sync: %d of %d orders failed", failed, len(orders))
	}
	return nil
}

// parcelMetrics derives the shippable weight and box size from the ordered
// variants: weights add up across units, dimensions take the componentwise
// maximum, and the total weight is floored at the carrier minimum.
func (s *shippingService) parcelMetrics(ctx context.Context, items []models.OrderItem) (float64, shipping.Dimensions, error) {
	var weight float64
	var dims shipping.Dimensions

	for _, item := range items {
		_, variant, err := s.productRepo.GetVariant(ctx, item.ProductID, item.VariantID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return 0, dims, newIntegrityError("VARIANT_MISSING", "ordered variant no longer exists in the catalog")
			}
			return 0, dims, err
		}

		weight += variant.WeightInKg * float64(item.Quantity)
		dims.Length = math.Max(dims.Length, variant.Dimensions.Length)
		dims.Width = math.Max(dims.Width, variant.Dimensions.Width)
		dims.Height = math.Max(dims.Height, variant.Dimensions.Height)
	}

	if weight < minBillableWeightKg {
		weight = minBillableWeightKg
	}

	return weight, dims, nil
}

func shipmentItems(items []models.OrderItem) []shipping.ShipmentItem {
	out := make([]shipping.ShipmentItem, 0, len(items))
	for _, item := range items {
		out = append(out, shipping.ShipmentItem{
			Name:         fmt.Sprintf("%s (%s)", item.Name, item.Variant),
			SKU:          item.SKU,
			Units:        item.Quantity,
			SellingPrice: item.Price,
		})
	}
	return out
}

func paymentMode(t models.PaymentType) string {
	if t == models.PaymentTypeCOD {
		return "COD"
	}
	return "Prepaid"
}

// statesBelow lists the delivery states strictly below target on the ladder.
func statesBelow(target models.DeliveryStatus) []models.DeliveryStatus {
	ladder := []models.DeliveryStatus{
		models.DeliveryStatusPending,
		models.DeliveryStatusPickupScheduled,
		models.DeliveryStatusInTransit,
		models.DeliveryStatusDelivered,
	}
	if target == models.DeliveryStatusCancelled {
		// Cancellation may land from any non-terminal state.
		return ladder[:3]
	}
	rank, ok := target.Rank()
	if !ok {
		return nil
	}
	return ladder[:rank]
}
