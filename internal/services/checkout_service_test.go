package services

import (
	"context"
	"errors"
	"testing"

	"honeymart/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkoutFixture struct {
	user      *models.User
	product   *models.Product
	variant   *models.Variant
	cartRepo  *memCartRepo
	orderRepo *memOrderRepo
	provider  *stubPaymentProvider
	intents   *memIntentStore
	notifier  *recordingNotifier
	service   CheckoutService
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	user := fixtureUser()
	product, variant := fixtureProduct("honey", 600, 10, 0.5, models.Dimensions{})

	cartRepo := newMemCartRepo()
	require.NoError(t, cartRepo.Upsert(context.Background(),
		cartWith(user.ID, product.ID, variant.ID, variant.Price, 2)))

	orderRepo := newMemOrderRepo()
	provider := &stubPaymentProvider{verifyOK: true}
	intents := newMemIntentStore()
	notifier := &recordingNotifier{}

	cartService := NewCartService(cartRepo, newMemProductRepo(product), testLogger())
	service := NewCheckoutService(
		cartService, orderRepo, newMemUserRepo(user), provider,
		notifier, intents, "INR", testLogger(),
	)

	return &checkoutFixture{
		user:      user,
		product:   product,
		variant:   variant,
		cartRepo:  cartRepo,
		orderRepo: orderRepo,
		provider:  provider,
		intents:   intents,
		notifier:  notifier,
		service:   service,
	}
}

func TestCheckout_COD(t *testing.T) {
	f := newCheckoutFixture(t)

	response, err := f.service.Checkout(context.Background(), f.user.ID, &CheckoutRequest{
		PaymentType: models.PaymentTypeCOD,
	})
	require.NoError(t, err)
	require.NotNil(t, response.Order)
	assert.Nil(t, response.Intent)

	order := response.Order
	assert.Equal(t, models.OrderStatusPlaced, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, models.PaymentTypeCOD, order.PaymentType)
	assert.Equal(t, float64(1200), order.TotalAmount)
	require.Len(t, order.Items, 1)

	// Cart is cleared once the order exists.
	cart, err := f.cartRepo.GetByUser(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	assert.Contains(t, f.notifier.recorded(), EventOrderPlaced)
}

func TestCheckout_OnlineOpensIntent(t *testing.T) {
	f := newCheckoutFixture(t)

	response, err := f.service.Checkout(context.Background(), f.user.ID, &CheckoutRequest{
		PaymentType: models.PaymentTypeOnline,
	})
	require.NoError(t, err)
	require.NotNil(t, response.Intent)
	assert.Nil(t, response.Order)
	assert.Equal(t, float64(1200), response.Intent.Amount)

	// No order yet, and the cart survives until payment is verified.
	orders, err := f.orderRepo.GetByUser(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)

	cart, err := f.cartRepo.GetByUser(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, cart.Items)
}

func TestCheckout_InvalidPaymentType(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.service.Checkout(context.Background(), f.user.ID, &CheckoutRequest{
		PaymentType: "upi",
	})
	assert.ErrorIs(t, err, ErrInvalidPaymentType)
}

func TestCheckout_NoAddress(t *testing.T) {
	f := newCheckoutFixture(t)
	f.user.Addresses = nil

	_, err := f.service.Checkout(context.Background(), f.user.ID, &CheckoutRequest{
		PaymentType: models.PaymentTypeCOD,
	})
	assert.ErrorIs(t, err, ErrNoShippingAddress)
}

func TestVerifyPayment(t *testing.T) {
	f := newCheckoutFixture(t)

	order, err := f.service.VerifyPayment(context.Background(), f.user.ID, &VerifyPaymentRequest{
		IntentID:  "intent_1",
		PaymentID: "pay_1",
		Signature: "sig",
	})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, "intent_1", order.PaymentIntentID)
	assert.Equal(t, "pay_1", order.PaymentID)
	assert.Equal(t, models.OrderStatusPlaced, order.Status)

	cart, err := f.cartRepo.GetByUser(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestVerifyPayment_Idempotent(t *testing.T) {
	f := newCheckoutFixture(t)

	request := &VerifyPaymentRequest{IntentID: "intent_1", PaymentID: "pay_1", Signature: "sig"}

	first, err := f.service.VerifyPayment(context.Background(), f.user.ID, request)
	require.NoError(t, err)

	// The gateway retries the callback; no second order appears.
	second, err := f.service.VerifyPayment(context.Background(), f.user.ID, request)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	orders, err := f.orderRepo.GetByUser(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestVerifyPayment_BadSignature(t *testing.T) {
	f := newCheckoutFixture(t)
	f.provider.verifyOK = false

	_, err := f.service.VerifyPayment(context.Background(), f.user.ID, &VerifyPaymentRequest{
		IntentID:  "intent_1",
		PaymentID: "pay_1",
		Signature: "forged",
	})
	assert.ErrorIs(t, err, ErrPaymentVerification)

	orders, _ := f.orderRepo.GetByUser(context.Background(), f.user.ID)
	assert.Empty(t, orders)
}

func TestCheckout_OnlineAddressCarriesToVerification(t *testing.T) {
	f := newCheckoutFixture(t)
	// No saved addresses; the one supplied at checkout is all there is.
	f.user.Addresses = nil

	response, err := f.service.Checkout(context.Background(), f.user.ID, &CheckoutRequest{
		PaymentType: models.PaymentTypeOnline,
		Address: &models.Address{
			Name:       "Asha",
			Phone:      "9876543210",
			HouseNo:    "44",
			Street:     "Residency Road",
			City:       "Bengaluru",
			State:      "Karnataka",
			PostalCode: "560025",
			Country:    "India",
		},
	})
	require.NoError(t, err)
	require.NotNil(t, response.Intent)

	order, err := f.service.VerifyPayment(context.Background(), f.user.ID, &VerifyPaymentRequest{
		IntentID:  response.Intent.IntentID,
		PaymentID: "pay_1",
		Signature: "sig",
	})
	require.NoError(t, err)

	assert.Equal(t, "560025", order.ShippingAddress.PostalCode)
	assert.Equal(t, "Residency Road", order.ShippingAddress.Street)
	assert.Zero(t, f.provider.refundCount())
}

func TestVerifyPayment_RefundsWhenCartEmptied(t *testing.T) {
	f := newCheckoutFixture(t)

	response, err := f.service.Checkout(context.Background(), f.user.ID, &CheckoutRequest{
		PaymentType: models.PaymentTypeOnline,
	})
	require.NoError(t, err)

	// Cart emptied between intent creation and the gateway callback.
	require.NoError(t, f.cartRepo.Clear(context.Background(), f.user.ID))

	_, err = f.service.VerifyPayment(context.Background(), f.user.ID, &VerifyPaymentRequest{
		IntentID:  response.Intent.IntentID,
		PaymentID: "pay_1",
		Signature: "sig",
	})
	assert.ErrorIs(t, err, ErrEmptyCart)

	require.Equal(t, 1, f.provider.refundCount())
	assert.Equal(t, float64(1200), f.provider.refunds[0].Amount)
}

func TestVerifyPayment_RefundsOnAmountMismatch(t *testing.T) {
	f := newCheckoutFixture(t)

	response, err := f.service.Checkout(context.Background(), f.user.ID, &CheckoutRequest{
		PaymentType: models.PaymentTypeOnline,
	})
	require.NoError(t, err)

	// Cart grows after the intent was opened for 1200.
	require.NoError(t, f.cartRepo.Upsert(context.Background(),
		cartWith(f.user.ID, f.product.ID, f.variant.ID, f.variant.Price, 3)))

	_, err = f.service.VerifyPayment(context.Background(), f.user.ID, &VerifyPaymentRequest{
		IntentID:  response.Intent.IntentID,
		PaymentID: "pay_1",
		Signature: "sig",
	})
	require.Error(t, err)

	require.Equal(t, 1, f.provider.refundCount())
	assert.Equal(t, float64(1200), f.provider.refunds[0].Amount, "refund matches the captured amount, not the new cart")

	orders, _ := f.orderRepo.GetByUser(context.Background(), f.user.ID)
	assert.Empty(t, orders)
}

func TestVerifyPayment_RefundsWhenOrderCreationFails(t *testing.T) {
	f := newCheckoutFixture(t)
	f.orderRepo.createErr = errors.New("write failed")

	_, err := f.service.VerifyPayment(context.Background(), f.user.ID, &VerifyPaymentRequest{
		IntentID:  "intent_1",
		PaymentID: "pay_1",
		Signature: "sig",
	})
	require.Error(t, err)

	// Captured money must not be stranded without an order.
	assert.Equal(t, 1, f.provider.refundCount())
}
