package orders

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ridegearhq/ridegear-backend/pkg/config"
	"github.com/ridegearhq/ridegear-backend/pkg/db/models"
	"github.com/ridegearhq/ridegear-backend/pkg/enums"
	pkgerrors "github.com/ridegearhq/ridegear-backend/pkg/errors"
	"github.com/ridegearhq/ridegear-backend/pkg/razorpay"
	"github.com/ridegearhq/ridegear-backend/pkg/shiprocket"
)

type stubOrdersRepo struct {
	order        *models.Order
	addresses    []*models.Address
	items        []models.OrderItem
	tracking     []models.OrderTracking
	updates      []map[string]any
	productStock map[uuid.UUID]int
	variantStock map[uuid.UUID]int
	restored     map[uuid.UUID]int
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{
		productStock: make(map[uuid.UUID]int),
		variantStock: make(map[uuid.UUID]int),
		restored:     make(map[uuid.UUID]int),
	}
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubOrdersRepo) CreateAddress(ctx context.Context, address *models.Address) (*models.Address, error) {
	if address.ID == uuid.Nil {
		address.ID = uuid.New()
	}
	s.addresses = append(s.addresses, address)
	return address, nil
}

func (s *stubOrdersRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.order = order
	return order, nil
}

func (s *stubOrdersRepo) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
	}
	s.items = append(s.items, items...)
	return nil
}

func (s *stubOrdersRepo) AppendTracking(ctx context.Context, event *models.OrderTracking) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	s.tracking = append(s.tracking, *event)
	return nil
}

func (s *stubOrdersRepo) UpdateOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	s.updates = append(s.updates, updates)
	if s.order == nil || s.order.ID != id {
		return nil
	}
	if v, ok := updates["status"]; ok {
		s.order.Status = v.(enums.OrderStatus)
	}
	if v, ok := updates["payment_status"]; ok {
		s.order.PaymentStatus = v.(enums.PaymentStatus)
	}
	if v, ok := updates["gateway_payment_id"]; ok {
		paymentID := v.(string)
		s.order.GatewayPaymentID = &paymentID
	}
	if v, ok := updates["cancellation_reason"]; ok {
		reason := v.(string)
		s.order.CancellationReason = &reason
	}
	if v, ok := updates["cancelled_at"]; ok {
		at := v.(time.Time)
		s.order.CancelledAt = &at
	}
	return nil
}

func (s *stubOrdersRepo) DecrementProductStock(ctx context.Context, productID uuid.UUID, quantity int) (bool, error) {
	if s.productStock[productID] < quantity {
		return false, nil
	}
	s.productStock[productID] -= quantity
	return true, nil
}

func (s *stubOrdersRepo) DecrementVariantStock(ctx context.Context, variantID uuid.UUID, quantity int) (bool, error) {
	if s.variantStock[variantID] < quantity {
		return false, nil
	}
	s.variantStock[variantID] -= quantity
	return true, nil
}

func (s *stubOrdersRepo) RestoreProductStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	s.restored[productID] += quantity
	return nil
}

func (s *stubOrdersRepo) RestoreVariantStock(ctx context.Context, variantID uuid.UUID, quantity int) error {
	s.restored[variantID] += quantity
	return nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	order := *s.order
	order.Items = append([]models.OrderItem(nil), s.items...)
	order.Tracking = append([]models.OrderTracking(nil), s.tracking...)
	return &order, nil
}

func (s *stubOrdersRepo) FindByNumber(ctx context.Context, number string) (*models.Order, error) {
	if s.order == nil || s.order.OrderNumber != number {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubOrdersRepo) ListByUser(ctx context.Context, userID uuid.UUID, cursor string, limit int) ([]models.Order, string, error) {
	if s.order == nil {
		return nil, "", nil
	}
	return []models.Order{*s.order}, "", nil
}

func (s *stubOrdersRepo) ListAll(ctx context.Context, params AdminListParams) ([]models.Order, string, error) {
	if s.order == nil {
		return nil, "", nil
	}
	return []models.Order{*s.order}, "", nil
}

type stubTx struct {
	err error
}

func (s *stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s.err != nil {
		return s.err
	}
	return fn(nil)
}

type stubCatalog struct {
	products map[uuid.UUID]*models.Product
	variants map[uuid.UUID]*models.ProductVariant
}

func (s *stubCatalog) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if product, ok := s.products[id]; ok {
		return product, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCatalog) FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	if variant, ok := s.variants[id]; ok {
		return variant, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubGateway struct {
	createOrder  func(ctx context.Context, params razorpay.OrderParams) (*razorpay.Order, error)
	verifyResult bool
	createdWith  []razorpay.OrderParams
}

func (s *stubGateway) CreateOrder(ctx context.Context, params razorpay.OrderParams) (*razorpay.Order, error) {
	s.createdWith = append(s.createdWith, params)
	if s.createOrder != nil {
		return s.createOrder(ctx, params)
	}
	return &razorpay.Order{ID: "order_test123", Amount: params.Amount, Currency: params.Currency}, nil
}

func (s *stubGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return s.verifyResult
}

type stubFulfillment struct {
	err      error
	requests []shiprocket.ShipmentRequest
	response *shiprocket.ShipmentResponse
}

func (s *stubFulfillment) CreateShipment(ctx context.Context, req shiprocket.ShipmentRequest) (*shiprocket.ShipmentResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	if s.response != nil {
		return s.response, nil
	}
	return &shiprocket.ShipmentResponse{ShipmentID: 42, AWBCode: "AWB001", CourierName: "Delhivery"}, nil
}

func testShipping() config.ShippingConfig {
	return config.ShippingConfig{FlatRate: "50", FreeShippingThreshold: "999"}
}

func newTestService(t *testing.T, repo *stubOrdersRepo, cat *stubCatalog, gateway *stubGateway, fulfillment *stubFulfillment) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:         repo,
		Tx:           &stubTx{},
		Catalog:      cat,
		Gateway:      gateway,
		GatewayKeyID: "rzp_test_key",
		Fulfillment:  fulfillment,
		Shipping:     testShipping(),
	})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return svc
}

func testAddress() AddressInput {
	return AddressInput{
		FullName:   "Asha Rao",
		Phone:      "9876543210",
		Line1:      "12 MG Road",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560001",
	}
}

func mustDecimal(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", value, err)
	}
	return d
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	var appErr *pkgerrors.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected typed error, got %T: %v", err, err)
	}
	if appErr.Code() != code {
		t.Fatalf("expected code %s, got %s (%v)", code, appErr.Code(), err)
	}
}

func TestCreateCODOrderSkipsGateway(t *testing.T) {
	repo := newStubOrdersRepo()
	productID := uuid.New()
	repo.productStock[productID] = 10

	cat := &stubCatalog{products: map[uuid.UUID]*models.Product{
		productID: {ID: productID, Name: "Riding Gloves", Price: mustDecimal(t, "400.00"), IsActive: true},
	}}
	gateway := &stubGateway{}
	svc := newTestService(t, repo, cat, gateway, &stubFulfillment{})

	resp, err := svc.Create(context.Background(), nil, CreateOrderRequest{
		CustomerName:    "Asha Rao",
		CustomerEmail:   "Asha@Example.com",
		PaymentMethod:   enums.PaymentMethodCOD,
		ShippingAddress: testAddress(),
		Items:           []OrderItemInput{{ProductID: productID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if len(gateway.createdWith) != 0 {
		t.Fatalf("COD order must not touch the gateway")
	}
	if resp.GatewayOrderID != nil {
		t.Fatalf("unexpected gateway order id %v", *resp.GatewayOrderID)
	}
	if resp.Order.CustomerEmail != "asha@example.com" {
		t.Fatalf("email should be lowercased, got %s", resp.Order.CustomerEmail)
	}
	if !resp.Order.Subtotal.Equal(mustDecimal(t, "800")) {
		t.Fatalf("expected subtotal 800, got %s", resp.Order.Subtotal)
	}
	if !resp.Order.ShippingCharges.Equal(mustDecimal(t, "50")) {
		t.Fatalf("expected flat shipping 50, got %s", resp.Order.ShippingCharges)
	}
	if !resp.Order.TotalAmount.Equal(mustDecimal(t, "850")) {
		t.Fatalf("expected total 850, got %s", resp.Order.TotalAmount)
	}
	if repo.productStock[productID] != 8 {
		t.Fatalf("expected stock reserved down to 8, got %d", repo.productStock[productID])
	}
	if len(repo.tracking) != 1 || repo.tracking[0].Status != enums.TrackingOrderCreated {
		t.Fatalf("expected a single order_created tracking event, got %+v", repo.tracking)
	}
}

func TestCreateRazorpayOrderConvertsToMinorUnits(t *testing.T) {
	repo := newStubOrdersRepo()
	productID := uuid.New()
	repo.productStock[productID] = 5

	cat := &stubCatalog{products: map[uuid.UUID]*models.Product{
		productID: {ID: productID, Name: "Helmet", Price: mustDecimal(t, "400.00"), IsActive: true},
	}}
	gateway := &stubGateway{}
	svc := newTestService(t, repo, cat, gateway, &stubFulfillment{})

	resp, err := svc.Create(context.Background(), nil, CreateOrderRequest{
		CustomerName:    "Asha Rao",
		CustomerEmail:   "asha@example.com",
		PaymentMethod:   enums.PaymentMethodRazorpay,
		ShippingAddress: testAddress(),
		Items:           []OrderItemInput{{ProductID: productID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if len(gateway.createdWith) != 1 {
		t.Fatalf("expected one gateway order, got %d", len(gateway.createdWith))
	}
	// 800 subtotal + 50 shipping = 850 rupees = 85000 paise.
	if gateway.createdWith[0].Amount != 85000 {
		t.Fatalf("expected amount 85000, got %d", gateway.createdWith[0].Amount)
	}
	if resp.GatewayOrderID == nil || *resp.GatewayOrderID != "order_test123" {
		t.Fatalf("expected gateway order id in response, got %v", resp.GatewayOrderID)
	}
	if resp.GatewayKeyID == nil || *resp.GatewayKeyID != "rzp_test_key" {
		t.Fatalf("expected gateway key id in response, got %v", resp.GatewayKeyID)
	}
}

func TestCreateWaivesShippingAboveThreshold(t *testing.T) {
	repo := newStubOrdersRepo()
	productID := uuid.New()
	repo.productStock[productID] = 5

	cat := &stubCatalog{products: map[uuid.UUID]*models.Product{
		productID: {ID: productID, Name: "Helmet", Price: mustDecimal(t, "400.00"), IsActive: true},
	}}
	svc := newTestService(t, repo, cat, &stubGateway{}, &stubFulfillment{})

	resp, err := svc.Create(context.Background(), nil, CreateOrderRequest{
		CustomerName:    "Asha Rao",
		CustomerEmail:   "asha@example.com",
		PaymentMethod:   enums.PaymentMethodCOD,
		ShippingAddress: testAddress(),
		Items:           []OrderItemInput{{ProductID: productID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !resp.Order.ShippingCharges.IsZero() {
		t.Fatalf("expected free shipping above threshold, got %s", resp.Order.ShippingCharges)
	}
	if !resp.Order.TotalAmount.Equal(mustDecimal(t, "1200")) {
		t.Fatalf("expected total 1200, got %s", resp.Order.TotalAmount)
	}
}

func TestCreateUsesSalePriceAndVariantDelta(t *testing.T) {
	repo := newStubOrdersRepo()
	productID := uuid.New()
	variantID := uuid.New()
	repo.variantStock[variantID] = 4

	salePrice := mustDecimal(t, "350.00")
	cat := &stubCatalog{
		products: map[uuid.UUID]*models.Product{
			productID: {ID: productID, Name: "Jacket", Price: mustDecimal(t, "500.00"), SalePrice: &salePrice, IsActive: true},
		},
		variants: map[uuid.UUID]*models.ProductVariant{
			variantID: {ID: variantID, ProductID: productID, Name: "XL", AdditionalPrice: mustDecimal(t, "25.00"), IsActive: true},
		},
	}
	svc := newTestService(t, repo, cat, &stubGateway{}, &stubFulfillment{})

	resp, err := svc.Create(context.Background(), nil, CreateOrderRequest{
		CustomerName:    "Asha Rao",
		CustomerEmail:   "asha@example.com",
		PaymentMethod:   enums.PaymentMethodCOD,
		ShippingAddress: testAddress(),
		Items:           []OrderItemInput{{ProductID: productID, VariantID: &variantID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// (350 sale + 25 variant delta) * 2 = 750.
	if !resp.Order.Subtotal.Equal(mustDecimal(t, "750")) {
		t.Fatalf("expected subtotal 750, got %s", resp.Order.Subtotal)
	}
	if repo.variantStock[variantID] != 2 {
		t.Fatalf("expected variant stock reserved, got %d", repo.variantStock[variantID])
	}
	if len(repo.items) != 1 || repo.items[0].VariantName == nil || *repo.items[0].VariantName != "XL" {
		t.Fatalf("expected variant name snapshot, got %+v", repo.items)
	}
}

func TestCreateRejectsForeignVariant(t *testing.T) {
	repo := newStubOrdersRepo()
	productID := uuid.New()
	variantID := uuid.New()

	cat := &stubCatalog{
		products: map[uuid.UUID]*models.Product{
			productID: {ID: productID, Name: "Jacket", Price: mustDecimal(t, "500.00"), IsActive: true},
		},
		variants: map[uuid.UUID]*models.ProductVariant{
			variantID: {ID: variantID, ProductID: uuid.New(), Name: "XL", IsActive: true},
		},
	}
	svc := newTestService(t, repo, cat, &stubGateway{}, &stubFulfillment{})

	_, err := svc.Create(context.Background(), nil, CreateOrderRequest{
		CustomerName:    "Asha Rao",
		CustomerEmail:   "asha@example.com",
		PaymentMethod:   enums.PaymentMethodCOD,
		ShippingAddress: testAddress(),
		Items:           []OrderItemInput{{ProductID: productID, VariantID: &variantID, Quantity: 1}},
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateHidesInactiveProduct(t *testing.T) {
	repo := newStubOrdersRepo()
	productID := uuid.New()

	cat := &stubCatalog{products: map[uuid.UUID]*models.Product{
		productID: {ID: productID, Name: "Retired", Price: mustDecimal(t, "100.00"), IsActive: false},
	}}
	svc := newTestService(t, repo, cat, &stubGateway{}, &stubFulfillment{})

	_, err := svc.Create(context.Background(), nil, CreateOrderRequest{
		CustomerName:    "Asha Rao",
		CustomerEmail:   "asha@example.com",
		PaymentMethod:   enums.PaymentMethodCOD,
		ShippingAddress: testAddress(),
		Items:           []OrderItemInput{{ProductID: productID, Quantity: 1}},
	})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestCreateFailsOnInsufficientStock(t *testing.T) {
	repo := newStubOrdersRepo()
	productID := uuid.New()
	repo.productStock[productID] = 1

	cat := &stubCatalog{products: map[uuid.UUID]*models.Product{
		productID: {ID: productID, Name: "Gloves", Price: mustDecimal(t, "100.00"), IsActive: true},
	}}
	svc := newTestService(t, repo, cat, &stubGateway{}, &stubFulfillment{})

	_, err := svc.Create(context.Background(), nil, CreateOrderRequest{
		CustomerName:    "Asha Rao",
		CustomerEmail:   "asha@example.com",
		PaymentMethod:   enums.PaymentMethodCOD,
		ShippingAddress: testAddress(),
		Items:           []OrderItemInput{{ProductID: productID, Quantity: 5}},
	})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestCreateRejectsUnknownPaymentMethod(t *testing.T) {
	svc := newTestService(t, newStubOrdersRepo(), &stubCatalog{}, &stubGateway{}, &stubFulfillment{})

	_, err := svc.Create(context.Background(), nil, CreateOrderRequest{
		CustomerName:    "Asha Rao",
		CustomerEmail:   "asha@example.com",
		PaymentMethod:   enums.PaymentMethod("upi"),
		ShippingAddress: testAddress(),
		Items:           []OrderItemInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func pendingRazorpayOrder(repo *stubOrdersRepo) *models.Order {
	gatewayOrderID := "order_test123"
	order := &models.Order{
		ID:             uuid.New(),
		OrderNumber:    "RG17000000000000001",
		CustomerName:   "Asha Rao",
		CustomerEmail:  "asha@example.com",
		Status:         enums.OrderStatusPending,
		PaymentStatus:  enums.PaymentStatusPending,
		PaymentMethod:  enums.PaymentMethodRazorpay,
		Subtotal:       decimal.NewFromInt(800),
		TotalAmount:    decimal.NewFromInt(850),
		GatewayOrderID: &gatewayOrderID,
	}
	repo.order = order
	return order
}

func TestVerifyPaymentConfirmsAndShips(t *testing.T) {
	repo := newStubOrdersRepo()
	order := pendingRazorpayOrder(repo)
	gateway := &stubGateway{verifyResult: true}
	fulfillment := &stubFulfillment{}
	svc := newTestService(t, repo, &stubCatalog{}, gateway, fulfillment)

	resp, err := svc.VerifyPayment(context.Background(), VerifyPaymentRequest{
		OrderID:          order.ID,
		GatewayOrderID:   "order_test123",
		GatewayPaymentID: "pay_abc",
		Signature:        "sig",
	})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	if resp.Warning != nil {
		t.Fatalf("unexpected warning %q", *resp.Warning)
	}
	if resp.Order.PaymentStatus != enums.PaymentStatusCompleted {
		t.Fatalf("expected payment completed, got %s", resp.Order.PaymentStatus)
	}
	if resp.Order.GatewayPaymentID == nil || *resp.Order.GatewayPaymentID != "pay_abc" {
		t.Fatalf("expected gateway payment id recorded, got %v", resp.Order.GatewayPaymentID)
	}
	if len(fulfillment.requests) != 1 {
		t.Fatalf("expected one shipment request, got %d", len(fulfillment.requests))
	}
	if repo.order.Status != enums.OrderStatusProcessing {
		t.Fatalf("expected order moved to processing after shipment, got %s", repo.order.Status)
	}

	statuses := make([]enums.TrackingStatus, 0, len(repo.tracking))
	for _, event := range repo.tracking {
		statuses = append(statuses, event.Status)
	}
	if len(statuses) != 2 || statuses[0] != enums.TrackingPaymentConfirmed || statuses[1] != enums.TrackingShipmentCreated {
		t.Fatalf("unexpected tracking sequence %v", statuses)
	}
	if repo.tracking[1].TrackingCode == nil || *repo.tracking[1].TrackingCode != "AWB001" {
		t.Fatalf("expected AWB on shipment event, got %+v", repo.tracking[1])
	}
}

func TestVerifyPaymentSignatureMismatchMutatesNothing(t *testing.T) {
	repo := newStubOrdersRepo()
	order := pendingRazorpayOrder(repo)
	gateway := &stubGateway{verifyResult: false}
	fulfillment := &stubFulfillment{}
	svc := newTestService(t, repo, &stubCatalog{}, gateway, fulfillment)

	_, err := svc.VerifyPayment(context.Background(), VerifyPaymentRequest{
		OrderID:          order.ID,
		GatewayOrderID:   "order_test123",
		GatewayPaymentID: "pay_abc",
		Signature:        "forged",
	})
	assertCode(t, err, pkgerrors.CodeValidation)
	if got := pkgerrors.MetadataFor(pkgerrors.CodeValidation).HTTPStatus; got != http.StatusBadRequest {
		t.Fatalf("signature mismatch must surface as 400, got %d", got)
	}

	if len(repo.updates) != 0 {
		t.Fatalf("order must not be mutated on signature mismatch, got %v", repo.updates)
	}
	if len(fulfillment.requests) != 0 {
		t.Fatalf("no shipment on signature mismatch")
	}
	if repo.order.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("payment status changed to %s", repo.order.PaymentStatus)
	}
}

func TestVerifyPaymentFulfillmentFailureYieldsWarning(t *testing.T) {
	repo := newStubOrdersRepo()
	order := pendingRazorpayOrder(repo)
	gateway := &stubGateway{verifyResult: true}
	fulfillment := &stubFulfillment{err: errors.New("courier api down")}
	svc := newTestService(t, repo, &stubCatalog{}, gateway, fulfillment)

	resp, err := svc.VerifyPayment(context.Background(), VerifyPaymentRequest{
		OrderID:          order.ID,
		GatewayOrderID:   "order_test123",
		GatewayPaymentID: "pay_abc",
		Signature:        "sig",
	})
	if err != nil {
		t.Fatalf("verification must succeed despite fulfillment failure: %v", err)
	}
	if resp.Warning == nil {
		t.Fatalf("expected warning when shipment creation fails")
	}
	if resp.Order.PaymentStatus != enums.PaymentStatusCompleted {
		t.Fatalf("payment must stay settled, got %s", resp.Order.PaymentStatus)
	}
	if repo.order.Status != enums.OrderStatusConfirmed {
		t.Fatalf("order should stay confirmed without shipment, got %s", repo.order.Status)
	}
}

func TestVerifyPaymentRejectsCODOrders(t *testing.T) {
	repo := newStubOrdersRepo()
	order := pendingRazorpayOrder(repo)
	order.PaymentMethod = enums.PaymentMethodCOD
	svc := newTestService(t, repo, &stubCatalog{}, &stubGateway{verifyResult: true}, &stubFulfillment{})

	_, err := svc.VerifyPayment(context.Background(), VerifyPaymentRequest{
		OrderID:          order.ID,
		GatewayOrderID:   "order_test123",
		GatewayPaymentID: "pay_abc",
		Signature:        "sig",
	})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestVerifyPaymentRejectsSettledOrders(t *testing.T) {
	repo := newStubOrdersRepo()
	order := pendingRazorpayOrder(repo)
	order.PaymentStatus = enums.PaymentStatusCompleted
	svc := newTestService(t, repo, &stubCatalog{}, &stubGateway{verifyResult: true}, &stubFulfillment{})

	_, err := svc.VerifyPayment(context.Background(), VerifyPaymentRequest{
		OrderID:          order.ID,
		GatewayOrderID:   "order_test123",
		GatewayPaymentID: "pay_abc",
		Signature:        "sig",
	})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestVerifyPaymentRejectsGatewayOrderMismatch(t *testing.T) {
	repo := newStubOrdersRepo()
	order := pendingRazorpayOrder(repo)
	svc := newTestService(t, repo, &stubCatalog{}, &stubGateway{verifyResult: true}, &stubFulfillment{})

	_, err := svc.VerifyPayment(context.Background(), VerifyPaymentRequest{
		OrderID:          order.ID,
		GatewayOrderID:   "order_other",
		GatewayPaymentID: "pay_abc",
		Signature:        "sig",
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestCancelRestoresStock(t *testing.T) {
	repo := newStubOrdersRepo()
	userID := uuid.New()
	productID := uuid.New()
	variantID := uuid.New()

	order := pendingRazorpayOrder(repo)
	order.UserID = &userID
	repo.items = []models.OrderItem{
		{ID: uuid.New(), OrderID: order.ID, ProductID: &productID, Quantity: 2},
		{ID: uuid.New(), OrderID: order.ID, ProductID: &productID, VariantID: &variantID, Quantity: 1},
	}

	svc := newTestService(t, repo, &stubCatalog{}, &stubGateway{}, &stubFulfillment{})

	resp, err := svc.Cancel(context.Background(), Actor{UserID: userID}, order.ID, CancelRequest{Reason: "ordered by mistake"})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if resp.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", resp.Status)
	}
	if resp.CancellationReason == nil || *resp.CancellationReason != "ordered by mistake" {
		t.Fatalf("expected cancellation reason recorded, got %v", resp.CancellationReason)
	}
	if repo.restored[productID] != 2 {
		t.Fatalf("expected product stock restored by 2, got %d", repo.restored[productID])
	}
	if repo.restored[variantID] != 1 {
		t.Fatalf("expected variant stock restored by 1, got %d", repo.restored[variantID])
	}
}

func TestCancelRejectsShippedOrders(t *testing.T) {
	repo := newStubOrdersRepo()
	userID := uuid.New()
	order := pendingRazorpayOrder(repo)
	order.UserID = &userID
	order.Status = enums.OrderStatusShipped

	svc := newTestService(t, repo, &stubCatalog{}, &stubGateway{}, &stubFulfillment{})

	_, err := svc.Cancel(context.Background(), Actor{UserID: userID}, order.ID, CancelRequest{Reason: "too late"})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestGetHidesForeignOrders(t *testing.T) {
	repo := newStubOrdersRepo()
	owner := uuid.New()
	order := pendingRazorpayOrder(repo)
	order.UserID = &owner

	svc := newTestService(t, repo, &stubCatalog{}, &stubGateway{}, &stubFulfillment{})

	if _, err := svc.Get(context.Background(), Actor{UserID: uuid.New()}, order.ID); err == nil {
		t.Fatalf("expected not found for a stranger's order")
	} else {
		assertCode(t, err, pkgerrors.CodeNotFound)
	}

	if _, err := svc.Get(context.Background(), Actor{IsAdmin: true}, order.ID); err != nil {
		t.Fatalf("admin must see any order: %v", err)
	}
}

func TestUpdateStatusBlocksCancelledOrders(t *testing.T) {
	repo := newStubOrdersRepo()
	order := pendingRazorpayOrder(repo)
	order.Status = enums.OrderStatusCancelled

	svc := newTestService(t, repo, &stubCatalog{}, &stubGateway{}, &stubFulfillment{})

	_, err := svc.UpdateStatus(context.Background(), order.ID, UpdateStatusRequest{Status: enums.OrderStatusShipped})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestUpdateStatusAppendsTracking(t *testing.T) {
	repo := newStubOrdersRepo()
	order := pendingRazorpayOrder(repo)
	order.Status = enums.OrderStatusProcessing

	svc := newTestService(t, repo, &stubCatalog{}, &stubGateway{}, &stubFulfillment{})

	resp, err := svc.UpdateStatus(context.Background(), order.ID, UpdateStatusRequest{Status: enums.OrderStatusShipped})
	if err != nil {
		t.Fatalf("update status failed: %v", err)
	}
	if resp.Status != enums.OrderStatusShipped {
		t.Fatalf("expected shipped, got %s", resp.Status)
	}
	if len(repo.tracking) != 1 || repo.tracking[0].Status != enums.TrackingStatusUpdated {
		t.Fatalf("expected status_updated tracking event, got %+v", repo.tracking)
	}
	if repo.tracking[0].Message != "Status changed to shipped" {
		t.Fatalf("unexpected tracking message %q", repo.tracking[0].Message)
	}
}

func TestUpdateStatusRejectsInvalidValue(t *testing.T) {
	repo := newStubOrdersRepo()
	svc := newTestService(t, repo, &stubCatalog{}, &stubGateway{}, &stubFulfillment{})

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), UpdateStatusRequest{Status: enums.OrderStatus("archived")})
	assertCode(t, err, pkgerrors.CodeValidation)
}
