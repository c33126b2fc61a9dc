package payment

import (
	"context"
)

// Provider is the payment-gateway contract the checkout and order flows
// depend on. Implementations are constructed explicitly and injected, so
// tests can substitute doubles.
type Provider interface {
	CreateIntent(ctx context.Context, request *IntentRequest) (*Intent, error)
	VerifySignature(intentID, paymentID, signature string) bool
	Refund(ctx context.Context, request *RefundRequest) (*RefundResponse, error)
}

// IntentRequest asks the gateway to open a payment for Amount, expressed in
// major currency units. Providers convert to the smallest unit themselves.
type IntentRequest struct {
	Amount   float64           `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes"`
}

type Intent struct {
	IntentID  string  `json:"intent_id"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	CreatedAt int64   `json:"created_at"`
}

type RefundRequest struct {
	PaymentID string  `json:"payment_id"`
	Amount    float64 `json:"amount"`
	Reason    string  `json:"reason"`
}

type RefundResponse struct {
	RefundID  string  `json:"refund_id"`
	Status    string  `json:"status"`
	Amount    float64 `json:"amount"`
	CreatedAt int64   `json:"created_at"`
}
