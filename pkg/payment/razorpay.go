package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/razorpay/razorpay-go"
)

type RazorpayProvider struct {
	client    *razorpay.Client
	keySecret string
}

func NewRazorpayProvider(keyID, keySecret string) *RazorpayProvider {
	client := razorpay.NewClient(keyID, keySecret)

	return &RazorpayProvider{
		client:    client,
		keySecret: keySecret,
	}
}

func (r *RazorpayProvider) CreateIntent(ctx context.Context, request *IntentRequest) (*Intent, error) {
	orderData := map[string]interface{}{
		"amount":   int(math.Round(request.Amount * 100)), // smallest currency unit (paise)
		"currency": request.Currency,
		"receipt":  request.Receipt,
		"notes":    request.Notes,
	}

	order, err := r.client.Order.Create(orderData, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment order: %w", err)
	}

	intentID, _ := order["id"].(string)
	if intentID == "" {
		return nil, fmt.Errorf("payment order response missing id")
	}

	// Payment itself is authorized on the frontend; we only hold the intent.
	return &Intent{
		IntentID:  intentID,
		Amount:    request.Amount,
		Currency:  request.Currency,
		CreatedAt: time.Now().Unix(),
	}, nil
}

// VerifySignature recomputes the checkout callback signature over
// "<intentID>|<paymentID>" and compares in constant time.
func (r *RazorpayProvider) VerifySignature(intentID, paymentID, signature string) bool {
	h := hmac.New(sha256.New, []byte(r.keySecret))
	h.Write([]byte(intentID + "|" + paymentID))
	expected := hex.EncodeToString(h.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expected))
}

func (r *RazorpayProvider) Refund(ctx context.Context, request *RefundRequest) (*RefundResponse, error) {
	amount := int(math.Round(request.Amount * 100))
	refundData := map[string]interface{}{
		"notes": map[string]interface{}{
			"reason": request.Reason,
		},
	}

	refund, err := r.client.Payment.Refund(request.PaymentID, amount, refundData, map[string]string{})
	if err != nil {
		return nil, fmt.Errorf("failed to create refund: %w", err)
	}

	refundID, _ := refund["id"].(string)
	status, _ := refund["status"].(string)

	return &RefundResponse{
		RefundID:  refundID,
		Status:    status,
		Amount:    request.Amount,
		CreatedAt: time.Now().Unix(),
	}, nil
}
