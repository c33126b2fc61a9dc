package services

import (
	"context"
	"errors"
	"time"

	"honeymart/internal/models"
	"honeymart/internal/repositories/interfaces"
	"honeymart/internal/utils"
	"honeymart/pkg/logger"
	"honeymart/pkg/payment"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderService interface {
	GetUserOrder(ctx context.Context, userID, orderID primitive.ObjectID) (*models.Order, error)
	ListUserOrders(ctx context.Context, userID primitive.ObjectID) ([]*models.Order, error)

	// Admin surface
	GetOrder(ctx context.Context, orderID primitive.ObjectID) (*models.Order, error)
	ListOrders(ctx context.Context, status models.OrderStatus, params *utils.PaginationParams) ([]*models.Order, int64, error)

	// UpdateStatus enforces the status state machine: a requested status
	// must not rank below the current one, except Cancelled which is
	// reachable from any pre-delivered state.
	UpdateStatus(ctx context.Context, orderID primitive.ObjectID, status models.OrderStatus) (*models.Order, error)

	// CancelOrder cancels a pre-shipment order, refunding online payments.
	CancelOrder(ctx context.Context, userID, orderID primitive.ObjectID, reason string) (*models.Order, error)

	// RequestReturn opens a return for a delivered order. A fresh request
	// may follow a rejection; it may not while one is open.
	RequestReturn(ctx context.Context, userID, orderID primitive.ObjectID, reason string) (*models.Order, error)

	// ResolveReturn approves or rejects an open return. Approval moves the
	// order to Returned and refunds the payment.
	ResolveReturn(ctx context.Context, orderID primitive.ObjectID, decision models.ReturnStatus) (*models.Order, error)
}

type orderService struct {
	orderRepo     interfaces.OrderRepository
	userRepo      interfaces.UserRepository
	couponService CouponService
	provider      payment.Provider
	notification  NotificationService
	logger        *logger.Logger
}

func NewOrderService(
	orderRepo interfaces.OrderRepository,
	userRepo interfaces.UserRepository,
	couponService CouponService,
	provider payment.Provider,
	notification NotificationService,
	log *logger.Logger,
) OrderService {
	return &orderService{
		orderRepo:     orderRepo,
		userRepo:      userRepo,
		couponService: couponService,
		provider:      provider,
		notification:  notification,
		logger:        log,
	}
}

func (s *orderService) GetUserOrder(ctx context.Context, userID, orderID primitive.ObjectID) (*models.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) ListUserOrders(ctx context.Context, userID primitive.ObjectID) ([]*models.Order, error) {
	return s.orderRepo.GetByUser(ctx, userID)
}

func (s *orderService) GetOrder(ctx context.Context, orderID primitive.ObjectID) (*models.Order, error) {
	return s.getOrder(ctx, orderID)
}

func (s *orderService) ListOrders(ctx context.Context, status models.OrderStatus, params *utils.PaginationParams) ([]*models.Order, int64, error) {
	return s.orderRepo.List(ctx, status, params)
}

func (s *orderService) UpdateStatus(ctx context.Context, orderID primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if status == models.OrderStatusCancelled {
		return s.cancel(ctx, order, "cancelled by admin")
	}

	if !order.Status.CanTransitionTo(status) {
		return nil, ErrIllegalTransition
	}

	updates := map[string]interface{}{"status": status}
	var event OrderEvent
	switch status {
	case models.OrderStatusDelivered:
		if order.DeliveredAt == nil {
			updates["delivered_at"] = time.Now()
		}
		event = EventOrderDelivered
	case models.OrderStatusShipped:
		event = EventOrderShipped
	}

	ok, err := s.orderRepo.UpdateStatusGuarded(ctx, orderID, order.Status, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Another writer moved the order first; re-read and re-judge.
		current, err := s.getOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if current.Status == status {
			return current, nil
		}
		return nil, ErrIllegalTransition
	}

	updated, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if event != "" {
		s.notify(ctx, updated, event)
	}
	s.logger.WithOrderID(orderID).WithField("status", string(status)).Info("order status updated")

	return updated, nil
}

func (s *orderService) CancelOrder(ctx context.Context, userID, orderID primitive.ObjectID, reason string) (*models.Order, error) {
	order, err := s.GetUserOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	return s.cancel(ctx, order, reason)
}

func (s *orderService) cancel(ctx context.Context, order *models.Order, reason string) (*models.Order, error) {
	if rank, ok := order.Status.Rank(); ok && rank >= 2 { // Shipped or beyond
		return nil, ErrCancelAfterShipment
	}
	if !order.Status.CanTransitionTo(models.OrderStatusCancelled) {
		return nil, ErrIllegalTransition
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status": models.OrderStatusCancelled,
		"cancellation": &models.Cancellation{
			Cancelled:   true,
			Reason:      reason,
			CancelledAt: &now,
		},
	}

	refunded := false
	if order.PaymentStatus == models.PaymentStatusPaid {
		// Refund before the status write; a failed refund aborts the
		// cancellation instead of stranding the payment.
		if _, err := s.provider.Refund(ctx, &payment.RefundRequest{
			PaymentID: order.PaymentID,
			Amount:    order.TotalAmount,
			Reason:    "order cancelled",
		}); err != nil {
			return nil, externalError("REFUND_FAILED", "failed to refund cancelled order", err, true)
		}
		refunded = true
		updates["payment_status"] = models.PaymentStatusRefunded
		updates["refunded_at"] = now
	}

	ok, err := s.orderRepo.UpdateStatusGuarded(ctx, order.ID, order.Status, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		if refunded {
			s.logger.WithOrderID(order.ID).Error("MANUAL REVIEW: refund issued but cancellation lost a status race")
		}
		return nil, ErrIllegalTransition
	}

	if order.CouponCode != "" {
		if err := s.couponService.ReleaseRedemption(ctx, order.CouponCode, order.UserID); err != nil {
			s.logger.WithError(err).WithOrderID(order.ID).Warn("failed to release coupon on cancellation")
		}
	}

	updated, err := s.getOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, updated, EventOrderCancelled)
	if refunded {
		s.notify(ctx, updated, EventOrderRefunded)
	}
	s.logger.WithOrderID(order.ID).Info("order cancelled")

	return updated, nil
}

func (s *orderService) RequestReturn(ctx context.Context, userID, orderID primitive.ObjectID, reason string) (*models.Order, error) {
	order, err := s.GetUserOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != models.OrderStatusDelivered {
		return nil, ErrReturnNotAllowed
	}
	if rr := order.ReturnRequest; rr != nil && rr.Requested && rr.Status != models.ReturnStatusRejected {
		return nil, ErrReturnAlreadyOpen
	}
	if reason == "" {
		return nil, newValidationError("RETURN_REASON_REQUIRED", "a reason is required to request a return")
	}

	now := time.Now()
	updates := map[string]interface{}{
		"return_request": &models.ReturnRequest{
			Requested:   true,
			Reason:      reason,
			Status:      models.ReturnStatusPending,
			RequestedAt: &now,
		},
	}
	if err := s.orderRepo.Update(ctx, orderID, updates); err != nil {
		return nil, err
	}

	s.logger.WithOrderID(orderID).WithUserID(userID).Info("return requested")

	return s.getOrder(ctx, orderID)
}

func (s *orderService) ResolveReturn(ctx context.Context, orderID primitive.ObjectID, decision models.ReturnStatus) (*models.Order, error) {
	if decision != models.ReturnStatusApproved && decision != models.ReturnStatusRejected {
		return nil, newValidationError("INVALID_RETURN_DECISION", "decision must be approved or rejected")
	}

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	rr := order.ReturnRequest
	if rr == nil || !rr.Requested {
		return nil, ErrReturnNotRequested
	}
	if rr.Status != models.ReturnStatusPending && rr.Status != models.ReturnStatusProcessing {
		return nil, ErrReturnNotRequested
	}

	now := time.Now()
	resolved := *rr
	resolved.Status = decision
	resolved.ResolvedAt = &now

	updates := map[string]interface{}{"return_request": &resolved}

	if decision == models.ReturnStatusRejected {
		if err := s.orderRepo.Update(ctx, orderID, updates); err != nil {
			return nil, err
		}
		updated, err := s.getOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		s.notify(ctx, updated, EventReturnRejected)
		return updated, nil
	}

	if !order.Status.CanTransitionTo(models.OrderStatusReturned) {
		return nil, ErrIllegalTransition
	}

	refunded := false
	if order.PaymentStatus == models.PaymentStatusPaid {
		if _, err := s.provider.Refund(ctx, &payment.RefundRequest{
			PaymentID: order.PaymentID,
			Amount:    order.TotalAmount,
			Reason:    "return approved",
		}); err != nil {
			return nil, externalError("REFUND_FAILED", "failed to refund returned order", err, true)
		}
		refunded = true
		updates["payment_status"] = models.PaymentStatusRefunded
		updates["refunded_at"] = now
	}
	updates["status"] = models.OrderStatusReturned

	ok, err := s.orderRepo.UpdateStatusGuarded(ctx, orderID, order.Status, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		if refunded {
			s.logger.WithOrderID(orderID).Error("MANUAL REVIEW: refund issued but return lost a status race")
		}
		return nil, ErrIllegalTransition
	}

	updated, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, updated, EventReturnApproved)
	if refunded {
		s.notify(ctx, updated, EventOrderRefunded)
	}
	s.logger.WithOrderID(orderID).Info("return approved; order refunded")

	return updated, nil
}

func (s *orderService) getOrder(ctx context.Context, orderID primitive.ObjectID) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *orderService) notify(ctx context.Context, order *models.Order, event OrderEvent) {
	user, err := s.userRepo.GetByID(ctx, order.UserID)
	if err != nil {
		s.logger.WithError(err).WithOrderID(order.ID).Warn("could not resolve user for notification")
		return
	}
	s.notification.NotifyOrderEvent(user, order, event)
}
