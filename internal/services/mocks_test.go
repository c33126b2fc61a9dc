package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"honeymart/internal/models"
	"honeymart/internal/repositories/interfaces"
	"honeymart/internal/utils"
	"honeymart/pkg/logger"
	"honeymart/pkg/payment"
	"honeymart/pkg/shipping"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testLogger() *logger.Logger {
	log, _ := logger.NewLogger(&logger.Config{Level: "error", Format: "text", Output: "stderr"})
	return log
}

// --- cart repository ---

type memCartRepo struct {
	mu        sync.Mutex
	carts     map[primitive.ObjectID]*models.Cart
	upsertErr error
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{carts: make(map[primitive.ObjectID]*models.Cart)}
}

func (r *memCartRepo) GetByUser(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.carts[userID]
	if !ok {
		return nil, fmt.Errorf("cart: %w", interfaces.ErrNotFound)
	}
	copied := *cart
	copied.Items = append([]models.CartItem(nil), cart.Items...)
	return &copied, nil
}

func (r *memCartRepo) Upsert(_ context.Context, cart *models.Cart) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *cart
	copied.Items = append([]models.CartItem(nil), cart.Items...)
	r.carts[cart.UserID] = &copied
	return nil
}

func (r *memCartRepo) Clear(_ context.Context, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cart, ok := r.carts[userID]; ok {
		cart.Items = nil
		cart.CouponCode = ""
		cart.DiscountAmount = 0
		cart.TotalAmount = 0
	}
	return nil
}

// --- coupon repository ---

// memCouponRepo mirrors the conditional-update semantics of the Mongo
// implementation: Redeem consumes a slot only while the cap and per-user
// rule hold under the lock.
type memCouponRepo struct {
	mu      sync.Mutex
	coupons map[string]*models.Coupon
}

func newMemCouponRepo(coupons ...*models.Coupon) *memCouponRepo {
	repo := &memCouponRepo{coupons: make(map[string]*models.Coupon)}
	for _, c := range coupons {
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		repo.coupons[c.Code] = c
	}
	return repo
}

func (r *memCouponRepo) Create(_ context.Context, coupon *models.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	coupon.ID = primitive.NewObjectID()
	r.coupons[coupon.Code] = coupon
	return nil
}

func (r *memCouponRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.coupons {
		if c.ID == id {
			copied := *c
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("coupon: %w", interfaces.ErrNotFound)
}

func (r *memCouponRepo) GetByCode(_ context.Context, code string) (*models.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.coupons[code]
	if !ok {
		return nil, fmt.Errorf("coupon: %w", interfaces.ErrNotFound)
	}
	copied := *c
	copied.UsedBy = append([]primitive.ObjectID(nil), c.UsedBy...)
	return &copied, nil
}

func (r *memCouponRepo) Update(_ context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return nil
}

func (r *memCouponRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for code, c := range r.coupons {
		if c.ID == id {
			delete(r.coupons, code)
			return nil
		}
	}
	return fmt.Errorf("coupon: %w", interfaces.ErrNotFound)
}

func (r *memCouponRepo) List(_ context.Context, activeOnly bool) ([]*models.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Coupon
	for _, c := range r.coupons {
		if activeOnly && !c.IsActive {
			continue
		}
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

func (r *memCouponRepo) Redeem(_ context.Context, code string, userID primitive.ObjectID) (*models.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.coupons[code]
	if !ok || !c.IsActive || c.Expired(time.Now()) {
		return nil, fmt.Errorf("coupon: %w", interfaces.ErrNotFound)
	}
	if c.MaxUses > 0 && c.UsedCount >= c.MaxUses {
		return nil, fmt.Errorf("coupon: %w", interfaces.ErrNotFound)
	}
	if c.OncePerUser && c.UsedByUser(userID) {
		return nil, fmt.Errorf("coupon: %w", interfaces.ErrNotFound)
	}

	c.UsedCount++
	if !c.UsedByUser(userID) {
		c.UsedBy = append(c.UsedBy, userID)
	}

	copied := *c
	copied.UsedBy = append([]primitive.ObjectID(nil), c.UsedBy...)
	return &copied, nil
}

func (r *memCouponRepo) Release(_ context.Context, code string, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.coupons[code]
	if !ok || c.UsedCount == 0 || !c.UsedByUser(userID) {
		return nil
	}
	c.UsedCount--
	for i, id := range c.UsedBy {
		if id == userID {
			c.UsedBy = append(c.UsedBy[:i], c.UsedBy[i+1:]...)
			break
		}
	}
	return nil
}

// --- product repository ---

type memProductRepo struct {
	products map[primitive.ObjectID]*models.Product
}

func newMemProductRepo(products ...*models.Product) *memProductRepo {
	repo := &memProductRepo{products: make(map[primitive.ObjectID]*models.Product)}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

func (r *memProductRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product: %w", interfaces.ErrNotFound)
	}
	return p, nil
}

func (r *memProductRepo) GetVariant(_ context.Context, productID, variantID primitive.ObjectID) (*models.Product, *models.Variant, error) {
	p, ok := r.products[productID]
	if !ok {
		return nil, nil, fmt.Errorf("product: %w", interfaces.ErrNotFound)
	}
	v := p.FindVariant(variantID)
	if v == nil {
		return nil, nil, fmt.Errorf("variant: %w", interfaces.ErrNotFound)
	}
	return p, v, nil
}

// --- user repository ---

type memUserRepo struct {
	users map[primitive.ObjectID]*models.User
}

func newMemUserRepo(users ...*models.User) *memUserRepo {
	repo := &memUserRepo{users: make(map[primitive.ObjectID]*models.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *memUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", interfaces.ErrNotFound)
	}
	return u, nil
}

// --- order repository ---

type memOrderRepo struct {
	mu        sync.Mutex
	orders    map[primitive.ObjectID]*models.Order
	createErr error
}

func newMemOrderRepo(orders ...*models.Order) *memOrderRepo {
	repo := &memOrderRepo{orders: make(map[primitive.ObjectID]*models.Order)}
	for _, o := range orders {
		if o.ID.IsZero() {
			o.ID = primitive.NewObjectID()
		}
		repo.orders[o.ID] = o
	}
	return repo
}

func (r *memOrderRepo) Create(_ context.Context, order *models.Order) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	order.ID = primitive.NewObjectID()
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = order
	return nil
}

func (r *memOrderRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order: %w", interfaces.ErrNotFound)
	}
	copied := *o
	return &copied, nil
}

func (r *memOrderRepo) GetByUser(_ context.Context, userID primitive.ObjectID) ([]*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			copied := *o
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memOrderRepo) GetByAWB(_ context.Context, awb string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.Delivery != nil && o.Delivery.AWBNumber == awb {
			copied := *o
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("order by awb: %w", interfaces.ErrNotFound)
}

func (r *memOrderRepo) GetByPaymentIntent(_ context.Context, intentID string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.PaymentIntentID == intentID {
			copied := *o
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("order by payment intent: %w", interfaces.ErrNotFound)
}

func (r *memOrderRepo) List(_ context.Context, status models.OrderStatus, _ *utils.PaginationParams) ([]*models.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Order
	for _, o := range r.orders {
		if status != "" && o.Status != status {
			continue
		}
		copied := *o
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}

func (r *memOrderRepo) Update(_ context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order: %w", interfaces.ErrNotFound)
	}
	applyOrderUpdates(o, updates)
	return nil
}

func (r *memOrderRepo) UpdateStatusGuarded(_ context.Context, id primitive.ObjectID, expected models.OrderStatus, updates map[string]interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status != expected {
		return false, nil
	}
	applyOrderUpdates(o, updates)
	return true, nil
}

func (r *memOrderRepo) MarkPaid(_ context.Context, id primitive.ObjectID, paymentID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.PaymentStatus != models.PaymentStatusPending {
		return false, nil
	}
	o.PaymentStatus = models.PaymentStatusPaid
	o.PaymentID = paymentID
	return true, nil
}

func (r *memOrderRepo) AttachDelivery(_ context.Context, id primitive.ObjectID, delivery *models.Delivery, updates map[string]interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return false, nil
	}
	if o.Delivery != nil && o.Delivery.Partner != "" {
		return false, nil
	}
	o.Delivery = delivery
	applyOrderUpdates(o, updates)
	return true, nil
}

func (r *memOrderRepo) AdvanceDeliveryStatus(_ context.Context, id primitive.ObjectID, status models.DeliveryStatus, allowedCurrent []models.DeliveryStatus, updates map[string]interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Delivery == nil || o.Delivery.Partner == "" {
		return false, nil
	}
	allowed := false
	for _, s := range allowedCurrent {
		if o.Delivery.DeliveryStatus == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return false, nil
	}
	o.Delivery.DeliveryStatus = status
	applyOrderUpdates(o, updates)
	return true, nil
}

func (r *memOrderRepo) GetUndelivered(_ context.Context) ([]*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Order
	for _, o := range r.orders {
		if o.Delivery == nil || o.Delivery.Partner == "" {
			continue
		}
		if o.Delivery.DeliveryStatus == models.DeliveryStatusDelivered ||
			o.Delivery.DeliveryStatus == models.DeliveryStatusCancelled {
			continue
		}
		copied := *o
		out = append(out, &copied)
	}
	return out, nil
}

func applyOrderUpdates(o *models.Order, updates map[string]interface{}) {
	for key, value := range updates {
		switch key {
		case "status":
			o.Status = value.(models.OrderStatus)
		case "payment_status":
			o.PaymentStatus = value.(models.PaymentStatus)
		case "delivered_at":
			t := value.(time.Time)
			o.DeliveredAt = &t
		case "refunded_at":
			t := value.(time.Time)
			o.RefundedAt = &t
		case "cancellation":
			o.Cancellation = value.(*models.Cancellation)
		case "return_request":
			o.ReturnRequest = value.(*models.ReturnRequest)
		}
	}
	o.UpdatedAt = time.Now()
}

// --- payment provider ---

type stubPaymentProvider struct {
	mu          sync.Mutex
	intentErr   error
	verifyOK    bool
	refundErr   error
	refunds     []payment.RefundRequest
	intentCount int
}

func (p *stubPaymentProvider) CreateIntent(_ context.Context, request *payment.IntentRequest) (*payment.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.intentErr != nil {
		return nil, p.intentErr
	}
	p.intentCount++
	return &payment.Intent{
		IntentID: fmt.Sprintf("intent_%d", p.intentCount),
		Amount:   request.Amount,
		Currency: request.Currency,
	}, nil
}

func (p *stubPaymentProvider) VerifySignature(_, _, _ string) bool {
	return p.verifyOK
}

func (p *stubPaymentProvider) Refund(_ context.Context, request *payment.RefundRequest) (*payment.RefundResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refundErr != nil {
		return nil, p.refundErr
	}
	p.refunds = append(p.refunds, *request)
	return &payment.RefundResponse{RefundID: "rfnd_1", Status: "processed", Amount: request.Amount}, nil
}

func (p *stubPaymentProvider) refundCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.refunds)
}

// --- shipping provider ---

type stubShippingProvider struct {
	createErr  error
	trackState shipping.DeliveryState
	trackErr   error
	requests   []*shipping.ShipmentRequest
}

func (p *stubShippingProvider) Name() string { return "shiprocket" }

func (p *stubShippingProvider) CreateShipment(_ context.Context, request *shipping.ShipmentRequest) (*shipping.ShipmentRecord, error) {
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.requests = append(p.requests, request)
	return &shipping.ShipmentRecord{
		ShipmentID: "ship_1",
		AWBNumber:  "AWB123",
		TrackingID: "track_1",
		Status:     shipping.StatePending,
	}, nil
}

func (p *stubShippingProvider) TrackByAWB(_ context.Context, _ string) (shipping.DeliveryState, error) {
	if p.trackErr != nil {
		return "", p.trackErr
	}
	return p.trackState, nil
}

// --- intent store ---

type memIntentStore struct {
	mu      sync.Mutex
	records map[string][]byte
}

func newMemIntentStore() *memIntentStore {
	return &memIntentStore{records: make(map[string][]byte)}
}

func (s *memIntentStore) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = data
	return nil
}

func (s *memIntentStore) Get(_ context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.records[key]
	if !ok {
		return fmt.Errorf("intent store: %w", interfaces.ErrNotFound)
	}
	return json.Unmarshal(data, dest)
}

func (s *memIntentStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.records, key)
	}
	return nil
}

// --- notifications ---

type recordingNotifier struct {
	mu     sync.Mutex
	events []OrderEvent
}

func (n *recordingNotifier) NotifyOrderEvent(_ *models.User, _ *models.Order, event OrderEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) recorded() []OrderEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]OrderEvent(nil), n.events...)
}

// --- fixtures ---

func fixtureProduct(category string, price float64, stock int, weightKg float64, dims models.Dimensions) (*models.Product, *models.Variant) {
	variant := models.Variant{
		ID:          primitive.NewObjectID(),
		SKU:         "SKU-" + primitive.NewObjectID().Hex()[:6],
		WeightLabel: "500g",
		WeightInKg:  weightKg,
		Dimensions:  dims,
		Price:       price,
		Stock:       stock,
	}
	product := &models.Product{
		ID:       primitive.NewObjectID(),
		Name:     "Wild Forest Honey",
		Category: category,
		Variants: []models.Variant{variant},
		IsActive: true,
	}
	return product, &product.Variants[0]
}

func fixtureUser() *models.User {
	return &models.User{
		ID:        primitive.NewObjectID(),
		Email:     "asha@example.com",
		FirstName: "Asha",
		Phone:     "9876543210",
		UserType:  models.UserTypeCustomer,
		Addresses: []models.Address{{
			Name:       "Asha",
			Phone:      "9876543210",
			HouseNo:    "12",
			Street:     "MG Road",
			City:       "Bengaluru",
			State:      "Karnataka",
			PostalCode: "560001",
			Country:    "India",
			IsDefault:  true,
		}},
		IsActive: true,
	}
}
