package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"honeymart/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubCouponService struct {
	mu       sync.Mutex
	released []string
}

func (s *stubCouponService) ApplyCoupon(context.Context, primitive.ObjectID, string) (*models.Cart, error) {
	return nil, nil
}

func (s *stubCouponService) RemoveCoupon(context.Context, primitive.ObjectID) (*models.Cart, error) {
	return nil, nil
}

func (s *stubCouponService) ReleaseRedemption(_ context.Context, code string, _ primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = append(s.released, code)
	return nil
}

func (s *stubCouponService) CreateCoupon(context.Context, *models.Coupon) error { return nil }
func (s *stubCouponService) UpdateCoupon(context.Context, primitive.ObjectID, map[string]interface{}) error {
	return nil
}
func (s *stubCouponService) DeleteCoupon(context.Context, primitive.ObjectID) error { return nil }
func (s *stubCouponService) ListCoupons(context.Context, bool) ([]*models.Coupon, error) {
	return nil, nil
}

type orderFixture struct {
	user     *models.User
	repo     *memOrderRepo
	coupons  *stubCouponService
	provider *stubPaymentProvider
	notifier *recordingNotifier
	service  OrderService
}

func newOrderFixture(t *testing.T, orders ...*models.Order) *orderFixture {
	t.Helper()

	user := fixtureUser()
	for _, o := range orders {
		o.UserID = user.ID
	}

	repo := newMemOrderRepo(orders...)
	coupons := &stubCouponService{}
	provider := &stubPaymentProvider{}
	notifier := &recordingNotifier{}

	service := NewOrderService(repo, newMemUserRepo(user), coupons, provider, notifier, testLogger())

	return &orderFixture{
		user:     user,
		repo:     repo,
		coupons:  coupons,
		provider: provider,
		notifier: notifier,
		service:  service,
	}
}

func placedOrder() *models.Order {
	return &models.Order{
		Items:         []models.OrderItem{{Name: "Wild Forest Honey", Price: 600, Quantity: 2}},
		TotalAmount:   1200,
		PaymentType:   models.PaymentTypeCOD,
		PaymentStatus: models.PaymentStatusPending,
		Status:        models.OrderStatusPlaced,
	}
}

func TestUpdateStatus_ForwardOnly(t *testing.T) {
	tests := []struct {
		name    string
		from    models.OrderStatus
		to      models.OrderStatus
		wantErr bool
	}{
		{name: "placed to processing", from: models.OrderStatusPlaced, to: models.OrderStatusProcessing},
		{name: "processing to shipped", from: models.OrderStatusProcessing, to: models.OrderStatusShipped},
		{name: "shipped to delivered", from: models.OrderStatusShipped, to: models.OrderStatusDelivered},
		{name: "skip ahead is allowed", from: models.OrderStatusPlaced, to: models.OrderStatusDelivered},
		{name: "same status is a no-op", from: models.OrderStatusProcessing, to: models.OrderStatusProcessing},
		{name: "backward move rejected", from: models.OrderStatusShipped, to: models.OrderStatusProcessing, wantErr: true},
		{name: "delivered cannot return to placed", from: models.OrderStatusDelivered, to: models.OrderStatusPlaced, wantErr: true},
		{name: "cancelled is terminal", from: models.OrderStatusCancelled, to: models.OrderStatusProcessing, wantErr: true},
		{name: "returned is terminal", from: models.OrderStatusReturned, to: models.OrderStatusDelivered, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := placedOrder()
			order.Status = tt.from
			f := newOrderFixture(t, order)

			updated, err := f.service.UpdateStatus(context.Background(), order.ID, tt.to)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrIllegalTransition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, updated.Status)
		})
	}
}

func TestUpdateStatus_DeliveredStampsTimestamp(t *testing.T) {
	order := placedOrder()
	order.Status = models.OrderStatusShipped
	f := newOrderFixture(t, order)

	updated, err := f.service.UpdateStatus(context.Background(), order.ID, models.OrderStatusDelivered)
	require.NoError(t, err)
	require.NotNil(t, updated.DeliveredAt)
	assert.WithinDuration(t, time.Now(), *updated.DeliveredAt, time.Minute)
	assert.Contains(t, f.notifier.recorded(), EventOrderDelivered)
}

func TestCancelOrder_CODPendingNoRefund(t *testing.T) {
	order := placedOrder()
	f := newOrderFixture(t, order)

	cancelled, err := f.service.CancelOrder(context.Background(), f.user.ID, order.ID, "changed my mind")
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.Cancellation)
	assert.True(t, cancelled.Cancellation.Cancelled)
	assert.Equal(t, "changed my mind", cancelled.Cancellation.Reason)
	assert.Zero(t, f.provider.refundCount(), "unpaid orders have nothing to refund")
}

func TestCancelOrder_PaidOrderRefunds(t *testing.T) {
	order := placedOrder()
	order.PaymentType = models.PaymentTypeOnline
	order.PaymentStatus = models.PaymentStatusPaid
	order.PaymentID = "pay_42"
	order.CouponCode = "HONEY10"
	f := newOrderFixture(t, order)

	cancelled, err := f.service.CancelOrder(context.Background(), f.user.ID, order.ID, "ordered twice")
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, models.PaymentStatusRefunded, cancelled.PaymentStatus)
	require.NotNil(t, cancelled.RefundedAt)

	require.Equal(t, 1, f.provider.refundCount())
	assert.Equal(t, "pay_42", f.provider.refunds[0].PaymentID)
	assert.Equal(t, float64(1200), f.provider.refunds[0].Amount)

	assert.Equal(t, []string{"HONEY10"}, f.coupons.released, "coupon slot returns on cancellation")

	events := f.notifier.recorded()
	assert.Contains(t, events, EventOrderCancelled)
	assert.Contains(t, events, EventOrderRefunded)
}

func TestCancelOrder_RefundFailureAbortsCancellation(t *testing.T) {
	order := placedOrder()
	order.PaymentStatus = models.PaymentStatusPaid
	order.PaymentID = "pay_42"
	f := newOrderFixture(t, order)
	f.provider.refundErr = assert.AnError

	_, err := f.service.CancelOrder(context.Background(), f.user.ID, order.ID, "x")
	require.Error(t, err)

	current, err := f.repo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPlaced, current.Status, "order stays cancellable until the refund lands")
}

func TestCancelOrder_RejectedAfterShipment(t *testing.T) {
	for _, status := range []models.OrderStatus{models.OrderStatusShipped, models.OrderStatusDelivered} {
		order := placedOrder()
		order.Status = status
		f := newOrderFixture(t, order)

		_, err := f.service.CancelOrder(context.Background(), f.user.ID, order.ID, "too late")
		assert.ErrorIs(t, err, ErrCancelAfterShipment, "status %s", status)
	}
}

func TestCancelOrder_WrongUser(t *testing.T) {
	order := placedOrder()
	f := newOrderFixture(t, order)

	_, err := f.service.CancelOrder(context.Background(), primitive.NewObjectID(), order.ID, "not mine")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestRequestReturn(t *testing.T) {
	order := placedOrder()
	order.Status = models.OrderStatusDelivered
	f := newOrderFixture(t, order)

	updated, err := f.service.RequestReturn(context.Background(), f.user.ID, order.ID, "crystallized on arrival")
	require.NoError(t, err)

	require.NotNil(t, updated.ReturnRequest)
	assert.True(t, updated.ReturnRequest.Requested)
	assert.Equal(t, models.ReturnStatusPending, updated.ReturnRequest.Status)
	assert.Equal(t, models.OrderStatusDelivered, updated.Status, "status moves only on approval")

	// A second request while one is open is rejected.
	_, err = f.service.RequestReturn(context.Background(), f.user.ID, order.ID, "again")
	assert.ErrorIs(t, err, ErrReturnAlreadyOpen)
}

func TestRequestReturn_OnlyWhenDelivered(t *testing.T) {
	for _, status := range []models.OrderStatus{
		models.OrderStatusPlaced, models.OrderStatusShipped, models.OrderStatusCancelled,
	} {
		order := placedOrder()
		order.Status = status
		f := newOrderFixture(t, order)

		_, err := f.service.RequestReturn(context.Background(), f.user.ID, order.ID, "reason")
		assert.ErrorIs(t, err, ErrReturnNotAllowed, "status %s", status)
	}
}

func TestRequestReturn_AllowedAfterRejection(t *testing.T) {
	order := placedOrder()
	order.Status = models.OrderStatusDelivered
	f := newOrderFixture(t, order)

	_, err := f.service.RequestReturn(context.Background(), f.user.ID, order.ID, "first try")
	require.NoError(t, err)

	_, err = f.service.ResolveReturn(context.Background(), order.ID, models.ReturnStatusRejected)
	require.NoError(t, err)

	updated, err := f.service.RequestReturn(context.Background(), f.user.ID, order.ID, "second try")
	require.NoError(t, err)
	assert.Equal(t, models.ReturnStatusPending, updated.ReturnRequest.Status)
	assert.Equal(t, "second try", updated.ReturnRequest.Reason)
}

func TestResolveReturn_ApprovalRefundsAndMovesToReturned(t *testing.T) {
	order := placedOrder()
	order.Status = models.OrderStatusDelivered
	order.PaymentStatus = models.PaymentStatusPaid
	order.PaymentID = "pay_9"
	f := newOrderFixture(t, order)

	_, err := f.service.RequestReturn(context.Background(), f.user.ID, order.ID, "leaking jar")
	require.NoError(t, err)

	resolved, err := f.service.ResolveReturn(context.Background(), order.ID, models.ReturnStatusApproved)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusReturned, resolved.Status)
	assert.Equal(t, models.PaymentStatusRefunded, resolved.PaymentStatus)
	assert.Equal(t, models.ReturnStatusApproved, resolved.ReturnRequest.Status)
	require.NotNil(t, resolved.ReturnRequest.ResolvedAt)
	assert.Equal(t, 1, f.provider.refundCount())
}

func TestResolveReturn_WithoutRequest(t *testing.T) {
	order := placedOrder()
	order.Status = models.OrderStatusDelivered
	f := newOrderFixture(t, order)

	_, err := f.service.ResolveReturn(context.Background(), order.ID, models.ReturnStatusApproved)
	assert.ErrorIs(t, err, ErrReturnNotRequested)
}
