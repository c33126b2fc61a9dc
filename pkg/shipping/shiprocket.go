package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const providerName = "shiprocket"

// estimatedDateLayouts covers the formats the carrier has been seen using.
var estimatedDateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339}

type ShiprocketConfig struct {
	BaseURL    string
	Email      string
	Password   string
	TokenTTL   time.Duration
	Timeout    time.Duration
	MaxRetries int
}

type ShiprocketProvider struct {
	config     *ShiprocketConfig
	httpClient *http.Client

	mu         sync.Mutex
	token      string
	acquiredAt time.Time

	refresh singleflight.Group
}

func NewShiprocketProvider(config *ShiprocketConfig) *ShiprocketProvider {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &ShiprocketProvider{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (p *ShiprocketProvider) Name() string {
	return providerName
}

// bearerToken returns a cached token, refreshing proactively once 90% of
// the validity window has elapsed. Concurrent refreshes converge on a
// single login call.
func (p *ShiprocketProvider) bearerToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	token := p.token
	fresh := token != "" && time.Since(p.acquiredAt) < p.config.TokenTTL*9/10
	p.mu.Unlock()

	if fresh {
		return token, nil
	}

	result, err, _ := p.refresh.Do("login", func() (interface{}, error) {
		return p.login(ctx)
	})
	if err != nil {
		return "", err
	}

	return result.(string), nil
}

func (p *ShiprocketProvider) login(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]string{
		"email":    p.config.Email,
		"password": p.config.Password,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: login returned %d", ErrAuth, resp.StatusCode)
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}
	if loginResp.Token == "" {
		return "", fmt.Errorf("%w: empty token", ErrAuth)
	}

	p.mu.Lock()
	p.token = loginResp.Token
	p.acquiredAt = time.Now()
	p.mu.Unlock()

	return loginResp.Token, nil
}

func (p *ShiprocketProvider) CreateShipment(ctx context.Context, request *ShipmentRequest) (*ShipmentRecord, error) {
	payload := map[string]interface{}{
		"order_id":              request.OrderRef,
		"order_date":            request.OrderDate.Format("2006-01-02 15:04"),
		"pickup_location":       request.PickupLocation,
		"billing_customer_name": request.CustomerName,
		"billing_address":       request.BillingAddress,
		"billing_city":          request.BillingCity,
		"billing_state":         request.BillingState,
		"billing_pincode":       request.BillingPincode,
		"billing_country":       request.BillingCountry,
		"billing_email":         request.CustomerEmail,
		"billing_phone":         request.CustomerPhone,
		"shipping_is_billing":   true,
		"payment_method":        request.PaymentMode,
		"sub_total":             request.SubTotal,
		"weight":                request.WeightKg,
		"length":                request.Dimensions.Length,
		"breadth":               request.Dimensions.Width,
		"height":                request.Dimensions.Height,
		"order_items":           shipmentItemsPayload(request.Items),
	}

	var createResp struct {
		ShipmentID            json.Number `json:"shipment_id"`
		AWBCode               string      `json:"awb_code"`
		EstimatedDeliveryDate string      `json:"estimated_delivery_date"`
	}
	if err := p.do(ctx, http.MethodPost, "/orders/create/adhoc", payload, &createResp); err != nil {
		return nil, err
	}

	record := &ShipmentRecord{
		ShipmentID: createResp.ShipmentID.String(),
		AWBNumber:  createResp.AWBCode,
		TrackingID: createResp.AWBCode,
		Status:     StatePickupScheduled,
	}
	if ts := parseEstimatedDate(createResp.EstimatedDeliveryDate); ts != nil {
		record.EstimatedDeliveryDate = ts
	}

	return record, nil
}

func (p *ShiprocketProvider) TrackByAWB(ctx context.Context, awb string) (DeliveryState, error) {
	var trackResp struct {
		ShipmentStatus string `json:"shipment_status"`
	}
	if err := p.do(ctx, http.MethodGet, "/courier/track/awb/"+awb, nil, &trackResp); err != nil {
		return "", err
	}

	return ParseCarrierStatus(trackResp.ShipmentStatus), nil
}

// do performs an authenticated carrier call with a capped retry loop.
// Network failures and 5xx responses are retried with a linearly growing
// delay; 4xx rejections surface immediately.
func (p *ShiprocketProvider) do(ctx context.Context, method, path string, payload interface{}, out interface{}) error {
	token, err := p.bearerToken(ctx)
	if err != nil {
		return err
	}

	var body []byte
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			return err
		}
	}

	maxRetries := p.config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt-1) * time.Second):
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, p.config.BaseURL+path, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := p.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if out == nil {
				return nil
			}
			return json.Unmarshal(respBody, out)
		}

		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(respBody)),
		}
		if !apiErr.Temporary() {
			return apiErr
		}
		lastErr = apiErr
	}

	return fmt.Errorf("shipping: giving up after %d attempts: %w", maxRetries, lastErr)
}

func shipmentItemsPayload(items []ShipmentItem) []map[string]interface{} {
	payload := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		payload = append(payload, map[string]interface{}{
			"name":          item.Name,
			"sku":           item.SKU,
			"units":         item.Units,
			"selling_price": item.SellingPrice,
		})
	}
	return payload
}

func parseEstimatedDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range estimatedDateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return &ts
		}
	}
	return nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
