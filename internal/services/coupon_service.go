package services

import (
	"context"
	"errors"
	"math"
	"time"

	"honeymart/internal/models"
	"honeymart/internal/repositories/interfaces"
	"honeymart/internal/utils"
	"honeymart/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CouponService interface {
	// ApplyCoupon validates and atomically redeems a code against the
	// user's cart, returning the recalculated cart.
	ApplyCoupon(ctx context.Context, userID primitive.ObjectID, code string) (*models.Cart, error)

	// RemoveCoupon detaches the applied coupon and releases its usage slot.
	RemoveCoupon(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)

	// ReleaseRedemption returns a usage slot without touching the cart.
	// Invoked by the order lifecycle when a couponed order is cancelled.
	ReleaseRedemption(ctx context.Context, code string, userID primitive.ObjectID) error

	// Admin surface
	CreateCoupon(ctx context.Context, coupon *models.Coupon) error
	UpdateCoupon(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	DeleteCoupon(ctx context.Context, id primitive.ObjectID) error
	ListCoupons(ctx context.Context, activeOnly bool) ([]*models.Coupon, error)
}

type couponService struct {
	couponRepo  interfaces.CouponRepository
	cartRepo    interfaces.CartRepository
	productRepo interfaces.ProductRepository
	logger      *logger.Logger
}

func NewCouponService(
	couponRepo interfaces.CouponRepository,
	cartRepo interfaces.CartRepository,
	productRepo interfaces.ProductRepository,
	log *logger.Logger,
) CouponService {
	return &couponService{
		couponRepo:  couponRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		logger:      log,
	}
}

func (s *couponService) ApplyCoupon(ctx context.Context, userID primitive.ObjectID, code string) (*models.Cart, error) {
	cart, err := s.cartRepo.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, err
	}
	if cart.Empty() {
		return nil, ErrEmptyCart
	}

	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}

	// Re-applying the code already on the cart refreshes the discount
	// against the current subtotal; the cart's existing slot is kept, not
	// redeemed a second time.
	if cart.CouponCode == coupon.Code {
		if !coupon.IsActive {
			return nil, ErrCouponNotFound
		}
		if coupon.Expired(time.Now()) {
			return nil, ErrCouponExpired
		}
		cart.DiscountAmount = ComputeDiscount(coupon, cart.Subtotal())
		cart.Recalculate()
		if err := s.cartRepo.Upsert(ctx, cart); err != nil {
			return nil, err
		}
		return cart, nil
	}

	if err := s.validate(ctx, coupon, cart, userID); err != nil {
		return nil, err
	}

	// Swapping coupons releases the old slot first.
	if cart.CouponCode != "" {
		if err := s.couponRepo.Release(ctx, cart.CouponCode, userID); err != nil {
			return nil, err
		}
		cart.CouponCode = ""
		cart.DiscountAmount = 0
	}

	discount := ComputeDiscount(coupon, cart.Subtotal())

	redeemed, err := s.couponRepo.Redeem(ctx, coupon.Code, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			// Preconditions held on the read but failed at commit; re-read
			// to report which rule the race broke.
			return nil, s.classifyRedeemFailure(ctx, coupon.Code, userID)
		}
		return nil, err
	}

	cart.CouponCode = redeemed.Code
	cart.DiscountAmount = discount
	cart.Recalculate()

	if err := s.cartRepo.Upsert(ctx, cart); err != nil {
		// Give the slot back rather than leaving it consumed by a cart
		// that never recorded the coupon.
		if releaseErr := s.couponRepo.Release(ctx, redeemed.Code, userID); releaseErr != nil {
			s.logger.WithError(releaseErr).WithUserID(userID).Error("failed to release coupon after cart write failure")
		}
		return nil, err
	}

	s.logger.WithUserID(userID).WithField("coupon", redeemed.Code).Info("coupon applied")

	return cart, nil
}

func (s *couponService) RemoveCoupon(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.cartRepo.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrNoCouponApplied
		}
		return nil, err
	}
	if cart.CouponCode == "" {
		return nil, ErrNoCouponApplied
	}

	// Removal before checkout refunds the usage slot, keeping used_count
	// equal to the number of carts and orders actually holding the code.
	if err := s.couponRepo.Release(ctx, cart.CouponCode, userID); err != nil {
		return nil, err
	}

	cart.CouponCode = ""
	cart.DiscountAmount = 0
	cart.Recalculate()

	if err := s.cartRepo.Upsert(ctx, cart); err != nil {
		return nil, err
	}

	return cart, nil
}

func (s *couponService) ReleaseRedemption(ctx context.Context, code string, userID primitive.ObjectID) error {
	return s.couponRepo.Release(ctx, code, userID)
}

func (s *couponService) CreateCoupon(ctx context.Context, coupon *models.Coupon) error {
	if coupon.Code == "" {
		coupon.Code = utils.GenerateCouponCode()
	}
	if coupon.DiscountValue <= 0 {
		return newValidationError("INVALID_DISCOUNT_VALUE", "discount value must be positive")
	}
	if coupon.DiscountType != models.DiscountTypePercentage && coupon.DiscountType != models.DiscountTypeFlat {
		return newValidationError("INVALID_DISCOUNT_TYPE", "discount type must be percentage or flat")
	}
	return s.couponRepo.Create(ctx, coupon)
}

func (s *couponService) UpdateCoupon(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	// used_count and used_by move only through redeem/release.
	delete(updates, "used_count")
	delete(updates, "used_by")
	return s.couponRepo.Update(ctx, id, updates)
}

func (s *couponService) DeleteCoupon(ctx context.Context, id primitive.ObjectID) error {
	return s.couponRepo.Delete(ctx, id)
}

func (s *couponService) ListCoupons(ctx context.Context, activeOnly bool) ([]*models.Coupon, error) {
	return s.couponRepo.List(ctx, activeOnly)
}

// validate runs the eligibility chain in order; the first failure wins.
func (s *couponService) validate(ctx context.Context, coupon *models.Coupon, cart *models.Cart, userID primitive.ObjectID) error {
	if !coupon.IsActive {
		return ErrCouponNotFound
	}
	if coupon.Expired(time.Now()) {
		return ErrCouponExpired
	}
	if cart.Subtotal() < coupon.MinPurchase {
		return ErrBelowMinimum
	}
	if coupon.UsageExhausted() {
		return ErrUsageLimitReached
	}
	if coupon.OncePerUser && coupon.UsedByUser(userID) {
		return ErrAlreadyUsedByUser
	}
	if len(coupon.ApplicableCategories) > 0 {
		ok, err := s.cartIntersectsCategories(ctx, cart, coupon.ApplicableCategories)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCategoryMismatch
		}
	}
	return nil
}

func (s *couponService) cartIntersectsCategories(ctx context.Context, cart *models.Cart, categories []string) (bool, error) {
	allowed := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		allowed[c] = struct{}{}
	}

	for _, item := range cart.Items {
		product, err := s.productRepo.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				continue
			}
			return false, err
		}
		if _, ok := allowed[product.Category]; ok {
			return true, nil
		}
	}

	return false, nil
}

func (s *couponService) classifyRedeemFailure(ctx context.Context, code string, userID primitive.ObjectID) error {
	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		return ErrCouponNotFound
	}
	switch {
	case !coupon.IsActive:
		return ErrCouponNotFound
	case coupon.Expired(time.Now()):
		return ErrCouponExpired
	case coupon.OncePerUser && coupon.UsedByUser(userID):
		return ErrAlreadyUsedByUser
	default:
		return ErrUsageLimitReached
	}
}

// ComputeDiscount derives the rupee discount for a coupon against a cart
// subtotal. The discount never exceeds the payable amount.
func ComputeDiscount(coupon *models.Coupon, subtotal float64) float64 {
	var discount float64
	switch coupon.DiscountType {
	case models.DiscountTypePercentage:
		discount = math.Round(subtotal * coupon.DiscountValue / 100)
	case models.DiscountTypeFlat:
		discount = coupon.DiscountValue
	}
	return math.Min(discount, subtotal)
}
