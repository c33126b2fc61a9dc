package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"honeymart/internal/models"
	"honeymart/internal/repositories/interfaces"
	"honeymart/internal/utils"
	"honeymart/pkg/logger"
	"honeymart/pkg/payment"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const intentCacheTTL = time.Hour

type CheckoutRequest struct {
	PaymentType models.PaymentType `json:"payment_type" binding:"required"`
	Address     *models.Address    `json:"address"`
	Notes       string             `json:"notes"`
}

type CheckoutResponse struct {
	Order  *models.Order   `json:"order,omitempty"`
	Intent *payment.Intent `json:"intent,omitempty"`
}

type VerifyPaymentRequest struct {
	IntentID  string `json:"intent_id" binding:"required"`
	PaymentID string `json:"payment_id" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// intentRecord binds a created payment intent to the user, amount, and
// shipping address it was opened for, so the verification step can detect
// a cart that changed between intent creation and callback and can ship to
// the address the customer actually checked out with.
type intentRecord struct {
	UserID  string          `json:"user_id"`
	Amount  float64         `json:"amount"`
	Address *models.Address `json:"address,omitempty"`
}

// IntentStore persists pending intent records between checkout and
// verification. cache.RedisCache satisfies it.
type IntentStore interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

type CheckoutService interface {
	// Checkout converts the cart into an order (COD) or opens a payment
	// intent (online). The cart is cleared only once an order exists.
	Checkout(ctx context.Context, userID primitive.ObjectID, request *CheckoutRequest) (*CheckoutResponse, error)

	// VerifyPayment validates the gateway callback and creates the order.
	// Verification is idempotent per intent: a repeated callback returns
	// the already-created order without new side effects.
	VerifyPayment(ctx context.Context, userID primitive.ObjectID, request *VerifyPaymentRequest) (*models.Order, error)
}

type checkoutService struct {
	cartService  CartService
	orderRepo    interfaces.OrderRepository
	userRepo     interfaces.UserRepository
	provider     payment.Provider
	notification NotificationService
	cache        IntentStore
	currency     string
	logger       *logger.Logger
}

func NewCheckoutService(
	cartService CartService,
	orderRepo interfaces.OrderRepository,
	userRepo interfaces.UserRepository,
	provider payment.Provider,
	notification NotificationService,
	store IntentStore,
	currency string,
	log *logger.Logger,
) CheckoutService {
	return &checkoutService{
		cartService:  cartService,
		orderRepo:    orderRepo,
		userRepo:     userRepo,
		provider:     provider,
		notification: notification,
		cache:        store,
		currency:     currency,
		logger:       log,
	}
}

func (s *checkoutService) Checkout(ctx context.Context, userID primitive.ObjectID, request *CheckoutRequest) (*CheckoutResponse, error) {
	if request.PaymentType != models.PaymentTypeCOD && request.PaymentType != models.PaymentTypeOnline {
		return nil, ErrInvalidPaymentType
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	address, err := resolveAddress(user, request.Address)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.cartService.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	if request.PaymentType == models.PaymentTypeCOD {
		order := buildOrder(userID, snapshot, *address, models.PaymentTypeCOD, request.Notes)
		if err := s.orderRepo.Create(ctx, order); err != nil {
			return nil, err
		}
		if err := s.cartService.ClearCart(ctx, userID); err != nil {
			s.logger.WithError(err).WithOrderID(order.ID).Warn("failed to clear cart after order creation")
		}

		s.notification.NotifyOrderEvent(user, order, EventOrderPlaced)
		s.logger.WithOrderID(order.ID).WithUserID(userID).Info("cod order placed")

		return &CheckoutResponse{Order: order}, nil
	}

	intent, err := s.provider.CreateIntent(ctx, &payment.IntentRequest{
		Amount:   snapshot.TotalAmount,
		Currency: s.currency,
		Receipt:  userID.Hex(),
		Notes:    map[string]string{"user_id": userID.Hex()},
	})
	if err != nil {
		return nil, externalError("PAYMENT_INTENT_FAILED", "failed to open payment with gateway", err, true)
	}

	if s.cache != nil {
		record := intentRecord{UserID: userID.Hex(), Amount: snapshot.TotalAmount, Address: address}
		if err := s.cache.Set(ctx, intentCacheKey(intent.IntentID), record, intentCacheTTL); err != nil {
			s.logger.WithError(err).Warn("failed to cache payment intent record")
		}
	}

	s.logger.WithUserID(userID).WithField("intent_id", intent.IntentID).Info("payment intent created")

	return &CheckoutResponse{Intent: intent}, nil
}

func (s *checkoutService) VerifyPayment(ctx context.Context, userID primitive.ObjectID, request *VerifyPaymentRequest) (*models.Order, error) {
	// Repeat callback for an intent that already produced an order: no-op.
	if existing, err := s.orderRepo.GetByPaymentIntent(ctx, request.IntentID); err == nil {
		return existing, nil
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	if !s.provider.VerifySignature(request.IntentID, request.PaymentID, request.Signature) {
		s.logger.WithUserID(userID).WithField("intent_id", request.IntentID).Error("payment signature mismatch")
		return nil, ErrPaymentVerification
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var record *intentRecord
	if s.cache != nil {
		var cached intentRecord
		if err := s.cache.Get(ctx, intentCacheKey(request.IntentID), &cached); err == nil {
			record = &cached
		}
	}
	if record != nil && record.UserID != userID.Hex() {
		return nil, newIntegrityError("INTENT_USER_MISMATCH", "payment intent belongs to a different user")
	}

	// The address accepted at checkout travels with the intent record; fall
	// back to the saved default only when the record has expired. Past this
	// point the payment is captured, so every deterministic failure must
	// refund instead of stranding the money without an order.
	var override *models.Address
	if record != nil {
		override = record.Address
	}
	address, err := resolveAddress(user, override)
	if err != nil {
		s.refundCaptured(ctx, request.PaymentID, recordedAmount(record), "no shipping address at verification")
		return nil, err
	}

	snapshot, err := s.cartService.Snapshot(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrEmptyCart) || errors.Is(err, ErrInsufficientStock) {
			s.refundCaptured(ctx, request.PaymentID, recordedAmount(record), "cart not fulfillable at verification")
		}
		return nil, err
	}

	if record != nil && record.Amount != snapshot.TotalAmount {
		s.refundCaptured(ctx, request.PaymentID, record.Amount, "cart changed after payment was opened")
		return nil, newIntegrityError("INTENT_AMOUNT_MISMATCH", "cart changed after payment was opened")
	}

	order := buildOrder(userID, snapshot, *address, models.PaymentTypeOnline, "")
	order.PaymentStatus = models.PaymentStatusPaid
	order.PaymentIntentID = request.IntentID
	order.PaymentID = request.PaymentID

	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.refundCaptured(ctx, request.PaymentID, snapshot.TotalAmount, "order creation failed")
		return nil, fmt.Errorf("failed to create order after payment: %w", err)
	}

	if err := s.cartService.ClearCart(ctx, userID); err != nil {
		s.logger.WithError(err).WithOrderID(order.ID).Warn("failed to clear cart after order creation")
	}
	if s.cache != nil {
		s.cache.Delete(ctx, intentCacheKey(request.IntentID))
	}

	s.notification.NotifyOrderEvent(user, order, EventOrderPlaced)
	s.logger.WithOrderID(order.ID).WithUserID(userID).Info("online order placed")

	return order, nil
}

// refundCaptured returns captured money when a verified payment cannot
// produce an order. A refund that cannot be issued, or whose amount is
// unknown because the intent record expired, is flagged for manual review.
func (s *checkoutService) refundCaptured(ctx context.Context, paymentID string, amount float64, reason string) {
	if amount <= 0 {
		s.logger.WithField("payment_id", paymentID).
			WithField("reason", reason).
			Error("MANUAL REVIEW: captured payment with unknown amount cannot be auto-refunded")
		return
	}
	if _, err := s.provider.Refund(ctx, &payment.RefundRequest{
		PaymentID: paymentID,
		Amount:    amount,
		Reason:    reason,
	}); err != nil {
		s.logger.WithError(err).
			WithField("payment_id", paymentID).
			WithField("reason", reason).
			Error("MANUAL REVIEW: refund failed after payment capture")
	}
}

func recordedAmount(record *intentRecord) float64 {
	if record == nil {
		return 0
	}
	return record.Amount
}

func buildOrder(userID primitive.ObjectID, snapshot *CheckoutSnapshot, address models.Address, paymentType models.PaymentType, notes string) *models.Order {
	return &models.Order{
		UserID:          userID,
		Items:           snapshot.Items,
		ShippingAddress: address,
		TotalAmount:     snapshot.TotalAmount,
		DiscountAmount:  snapshot.DiscountAmount,
		PaymentType:     paymentType,
		PaymentStatus:   models.PaymentStatusPending,
		Status:          models.OrderStatusPlaced,
		CouponCode:      snapshot.CouponCode,
		Notes:           notes,
	}
}

func resolveAddress(user *models.User, override *models.Address) (*models.Address, error) {
	if override != nil {
		if override.Line() == "" || override.PostalCode == "" {
			return nil, ErrNoShippingAddress
		}
		return override, nil
	}
	address := user.DefaultAddress()
	if address == nil {
		return nil, ErrNoShippingAddress
	}
	return address, nil
}

func intentCacheKey(intentID string) string {
	return utils.CacheIntentPrefix + intentID
}
