package services

import (
	"context"
	"errors"

	"honeymart/internal/models"
	"honeymart/internal/repositories/interfaces"
	"honeymart/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CheckoutSnapshot is the immutable priced view of a cart handed to order
// creation. Prices and stock are re-verified against the catalog at build
// time; client-sent totals are never trusted.
type CheckoutSnapshot struct {
	Items          []models.OrderItem `json:"items"`
	Subtotal       float64            `json:"subtotal"`
	DiscountAmount float64            `json:"discount_amount"`
	TotalAmount    float64            `json:"total_amount"`
	CouponCode     string             `json:"coupon_code"`
}

type CartService interface {
	GetCart(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	AddItem(ctx context.Context, userID, productID, variantID primitive.ObjectID, quantity int) (*models.Cart, error)
	UpdateQuantity(ctx context.Context, userID, productID, variantID primitive.ObjectID, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, productID, variantID primitive.ObjectID) (*models.Cart, error)
	ClearCart(ctx context.Context, userID primitive.ObjectID) error
	Snapshot(ctx context.Context, userID primitive.ObjectID) (*CheckoutSnapshot, error)
}

type cartService struct {
	cartRepo    interfaces.CartRepository
	productRepo interfaces.ProductRepository
	logger      *logger.Logger
}

func NewCartService(
	cartRepo interfaces.CartRepository,
	productRepo interfaces.ProductRepository,
	log *logger.Logger,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		logger:      log,
	}
}

func (s *cartService) GetCart(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.cartRepo.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
		}
		return nil, err
	}

	return cart, nil
}

func (s *cartService) AddItem(ctx context.Context, userID, productID, variantID primitive.ObjectID, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, newValidationError("INVALID_QUANTITY", "quantity must be at least 1")
	}

	_, variant, err := s.productRepo.GetVariant(ctx, productID, variantID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, newValidationError("PRODUCT_NOT_FOUND", "product or variant not found")
		}
		return nil, err
	}

	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := cart.FindItem(productID, variantID)
	if idx >= 0 {
		cart.Items[idx].Quantity += quantity
		cart.Items[idx].UnitPrice = variant.Price
	} else {
		cart.Items = append(cart.Items, models.CartItem{
			ProductID:   productID,
			VariantID:   variantID,
			Quantity:    quantity,
			UnitPrice:   variant.Price,
			WeightLabel: variant.WeightLabel,
		})
		idx = len(cart.Items) - 1
	}

	if variant.Stock < cart.Items[idx].Quantity {
		return nil, ErrInsufficientStock
	}

	return s.save(ctx, cart)
}

func (s *cartService) UpdateQuantity(ctx context.Context, userID, productID, variantID primitive.ObjectID, quantity int) (*models.Cart, error) {
	cart, err := s.cartRepo.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, err
	}

	idx := cart.FindItem(productID, variantID)
	if idx < 0 {
		return nil, newValidationError("ITEM_NOT_IN_CART", "item is not in the cart")
	}

	// Zero and below removes the line; Recalculate prunes it.
	cart.Items[idx].Quantity = quantity

	if quantity > 0 {
		_, variant, err := s.productRepo.GetVariant(ctx, productID, variantID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return nil, newValidationError("PRODUCT_NOT_FOUND", "product or variant not found")
			}
			return nil, err
		}
		if variant.Stock < quantity {
			return nil, ErrInsufficientStock
		}
		cart.Items[idx].UnitPrice = variant.Price
	}

	return s.save(ctx, cart)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, productID, variantID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.cartRepo.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, err
	}

	idx := cart.FindItem(productID, variantID)
	if idx >= 0 {
		cart.Items[idx].Quantity = 0
	}

	return s.save(ctx, cart)
}

func (s *cartService) ClearCart(ctx context.Context, userID primitive.ObjectID) error {
	return s.cartRepo.Clear(ctx, userID)
}

func (s *cartService) Snapshot(ctx context.Context, userID primitive.ObjectID) (*CheckoutSnapshot, error) {
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

	items := make([]models.OrderItem, 0, len(cart.Items))
	repriced := false
	for i, line := range cart.Items {
		product, variant, err := s.productRepo.GetVariant(ctx, line.ProductID, line.VariantID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return nil, newValidationError("PRODUCT_NOT_FOUND", "a cart item is no longer available")
			}
			return nil, err
		}
		if variant.Stock < line.Quantity {
			return nil, ErrInsufficientStock
		}
		if variant.Price != line.UnitPrice {
			cart.Items[i].UnitPrice = variant.Price
			repriced = true
		}

		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Name:      product.Name,
			SKU:       variant.SKU,
			Variant:   variant.WeightLabel,
			Price:     variant.Price,
			Quantity:  line.Quantity,
			Images:    product.Images,
		})
	}

	if repriced {
		cart.Recalculate()
		if err := s.cartRepo.Upsert(ctx, cart); err != nil {
			return nil, err
		}
		s.logger.WithUserID(userID).Info("cart repriced at checkout snapshot")
	} else {
		cart.Recalculate()
	}

	return &CheckoutSnapshot{
		Items:          items,
		Subtotal:       cart.Subtotal(),
		DiscountAmount: cart.DiscountAmount,
		TotalAmount:    cart.TotalAmount,
		CouponCode:     cart.CouponCode,
	}, nil
}

func (s *cartService) save(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	cart.Recalculate()
	if err := s.cartRepo.Upsert(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}
