package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ridegearhq/ridegear-backend/internal/notifications"
	"github.com/ridegearhq/ridegear-backend/pkg/config"
	"github.com/ridegearhq/ridegear-backend/pkg/db/models"
	"github.com/ridegearhq/ridegear-backend/pkg/enums"
	pkgerrors "github.com/ridegearhq/ridegear-backend/pkg/errors"
	"github.com/ridegearhq/ridegear-backend/pkg/logger"
	"github.com/ridegearhq/ridegear-backend/pkg/razorpay"
	"github.com/ridegearhq/ridegear-backend/pkg/shiprocket"
)

const defaultCurrency = "INR"

// Service drives the order lifecycle: checkout, payment verification,
// fulfillment hand-off, and cancellation.
type Service interface {
	Create(ctx context.Context, userID *uuid.UUID, req CreateOrderRequest) (*CreateOrderResponse, error)
	VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (*VerifyPaymentResponse, error)
	Cancel(ctx context.Context, actor Actor, orderID uuid.UUID, req CancelRequest) (*OrderDTO, error)
	Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDTO, error)
	ListMine(ctx context.Context, userID uuid.UUID, cursor string, limit int) (*PageDTO, error)
	ListAll(ctx context.Context, params AdminListParams) (*PageDTO, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, req UpdateStatusRequest) (*OrderDTO, error)
}

// Actor identifies the caller for ownership checks.
type Actor struct {
	UserID  uuid.UUID
	IsAdmin bool
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productCatalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
}

type gatewayClient interface {
	razorpay.OrderCreator
	razorpay.SignatureVerifier
}

type service struct {
	repo          Repository
	tx            txRunner
	catalog       productCatalog
	gateway       gatewayClient
	gatewayKeyID  string
	fulfillment   shiprocket.ShipmentCreator
	notifications notifications.Service
	shipping      config.ShippingConfig
	logger        *logger.Logger
}

// ServiceParams bundles the order service dependencies.
type ServiceParams struct {
	Repo          Repository
	Tx            txRunner
	Catalog       productCatalog
	Gateway       gatewayClient
	GatewayKeyID  string
	Fulfillment   shiprocket.ShipmentCreator
	Notifications notifications.Service
	Shipping      config.ShippingConfig
	Logger        *logger.Logger
}

// NewService constructs the order workflow service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway is required")
	}
	if params.Fulfillment == nil {
		return nil, fmt.Errorf("fulfillment client is required")
	}
	return &service{
		repo:          params.Repo,
		tx:            params.Tx,
		catalog:       params.Catalog,
		gateway:       params.Gateway,
		gatewayKeyID:  params.GatewayKeyID,
		fulfillment:   params.Fulfillment,
		notifications: params.Notifications,
		shipping:      params.Shipping,
		logger:        params.Logger,
	}, nil
}

type pricedLine struct {
	input       OrderItemInput
	productName string
	variantName *string
	unitPrice   decimal.Decimal
	lineTotal   decimal.Decimal
}

// Create prices the cart, reserves stock, and persists the order, its
// addresses, items, and the first tracking event in a single transaction.
// Razorpay orders get a gateway order; COD skips the gateway entirely.
func (s *service) Create(ctx context.Context, userID *uuid.UUID, req CreateOrderRequest) (*CreateOrderResponse, error) {
	if !req.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment method").
			WithDetails(map[string]any{"payment_method": req.PaymentMethod})
	}

	lines, subtotal, err := s.priceLines(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	shippingCharges := s.shipping.FlatRateAmount()
	if subtotal.GreaterThanOrEqual(s.shipping.FreeShippingAbove()) {
		shippingCharges = decimal.Zero
	}
	total := subtotal.Add(shippingCharges)

	orderNumber := GenerateOrderNumber(time.Now().UTC())

	var gatewayOrderID *string
	if req.PaymentMethod.RequiresGateway() {
		// The gateway order is created before the transaction below. If the
		// commit fails the remote order is abandoned unpaid; it is never
		// captured, so no reconciliation is needed.
		gatewayOrder, err := s.gateway.CreateOrder(ctx, razorpay.OrderParams{
			Amount:   total.Mul(decimal.NewFromInt(100)).IntPart(),
			Currency: defaultCurrency,
			Receipt:  orderNumber,
		})
		if err != nil {
			return nil, err
		}
		gatewayOrderID = &gatewayOrder.ID
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		shippingAddr, err := repo.CreateAddress(ctx, addressFromInput(userID, req.ShippingAddress))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create shipping address")
		}
		billingAddr := shippingAddr
		if req.BillingAddress != nil {
			billingAddr, err = repo.CreateAddress(ctx, addressFromInput(userID, *req.BillingAddress))
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create billing address")
			}
		}

		order = &models.Order{
			OrderNumber:       orderNumber,
			UserID:            userID,
			CustomerName:      strings.TrimSpace(req.CustomerName),
			CustomerEmail:     strings.ToLower(strings.TrimSpace(req.CustomerEmail)),
			CustomerPhone:     req.CustomerPhone,
			Status:            enums.OrderStatusPending,
			PaymentStatus:     enums.PaymentStatusPending,
			PaymentMethod:     req.PaymentMethod,
			Subtotal:          subtotal,
			ShippingCharges:   shippingCharges,
			TaxAmount:         decimal.Zero,
			DiscountAmount:    decimal.Zero,
			TotalAmount:       total,
			ShippingAddressID: shippingAddr.ID,
			BillingAddressID:  billingAddr.ID,
			GatewayOrderID:    gatewayOrderID,
			Notes:             req.Notes,
		}
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}

		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			items = append(items, models.OrderItem{
				OrderID:     order.ID,
				ProductID:   &line.input.ProductID,
				VariantID:   line.input.VariantID,
				ProductName: line.productName,
				VariantName: line.variantName,
				Quantity:    line.input.Quantity,
				UnitPrice:   line.unitPrice,
				TotalPrice:  line.lineTotal,
			})
		}
		if err := repo.CreateOrderItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order items")
		}
		order.Items = items

		if err := s.reserveStock(ctx, repo, lines); err != nil {
			return err
		}

		event := &models.OrderTracking{
			OrderID: order.ID,
			Status:  enums.TrackingOrderCreated,
			Message: "Order placed",
		}
		if err := repo.AppendTracking(ctx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record tracking")
		}
		order.Tracking = []models.OrderTracking{*event}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info(s.logger.WithOrderNumber(ctx, order.OrderNumber), "order created")
	}
	s.sendConfirmation(ctx, order)

	resp := &CreateOrderResponse{Order: fromModel(order)}
	if gatewayOrderID != nil {
		resp.GatewayOrderID = gatewayOrderID
		keyID := s.gatewayKeyID
		if keyID != "" {
			resp.GatewayKeyID = &keyID
		}
	}
	return resp, nil
}

// VerifyPayment checks the gateway signature and, on success, confirms the
// order and hands it to fulfillment. A fulfillment failure does not fail the
// verification; it is reported as a warning.
func (s *service) VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (*VerifyPaymentResponse, error) {
	order, err := s.repo.FindByID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}

	if !order.PaymentMethod.RequiresGateway() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order does not use the payment gateway")
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment already settled")
	}
	if order.GatewayOrderID == nil || *order.GatewayOrderID != req.GatewayOrderID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order mismatch")
	}

	if !s.gateway.VerifyPaymentSignature(req.GatewayOrderID, req.GatewayPaymentID, req.Signature) {
		if s.logger != nil {
			s.logger.Warn(s.logger.WithOrderNumber(ctx, order.OrderNumber), "payment signature mismatch")
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment signature")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"payment_status":     enums.PaymentStatusCompleted,
			"status":             enums.OrderStatusConfirmed,
			"gateway_payment_id": req.GatewayPaymentID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "confirm payment")
		}
		return repo.AppendTracking(ctx, &models.OrderTracking{
			OrderID: order.ID,
			Status:  enums.TrackingPaymentConfirmed,
			Message: "Payment confirmed",
		})
	})
	if err != nil {
		return nil, err
	}

	warning := s.createShipment(ctx, order)

	fresh, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
	}
	return &VerifyPaymentResponse{Order: fromModel(fresh), Warning: warning}, nil
}

// Cancel aborts a pending or confirmed order and restores the reserved stock.
func (s *service) Cancel(ctx context.Context, actor Actor, orderID uuid.UUID, req CancelRequest) (*OrderDTO, error) {
	order, err := s.loadOwned(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.IsCancellable() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled").
			WithDetails(map[string]any{"status": order.Status})
	}

	now := time.Now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"status":              enums.OrderStatusCancelled,
			"cancellation_reason": strings.TrimSpace(req.Reason),
			"cancelled_at":        now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel order")
		}

		for _, item := range order.Items {
			if item.VariantID != nil {
				if err := repo.RestoreVariantStock(ctx, *item.VariantID, item.Quantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restore variant stock")
				}
				continue
			}
			if item.ProductID != nil {
				if err := repo.RestoreProductStock(ctx, *item.ProductID, item.Quantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restore product stock")
				}
			}
		}

		return repo.AppendTracking(ctx, &models.OrderTracking{
			OrderID: order.ID,
			Status:  enums.TrackingOrderCancelled,
			Message: "Order cancelled",
		})
	})
	if err != nil {
		return nil, err
	}

	fresh, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
	}
	return fromModel(fresh), nil
}

// Get loads one order, enforcing ownership for non-admin callers.
func (s *service) Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadOwned(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	return fromModel(order), nil
}

// ListMine returns the caller's orders newest first.
func (s *service) ListMine(ctx context.Context, userID uuid.UUID, cursor string, limit int) (*PageDTO, error) {
	rows, next, err := s.repo.ListByUser(ctx, userID, cursor, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return buildOrderPage(rows, next), nil
}

// ListAll returns the admin order list with optional status filters.
func (s *service) ListAll(ctx context.Context, params AdminListParams) (*PageDTO, error) {
	if params.Status != "" && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	if params.PaymentStatus != "" && !params.PaymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status filter")
	}
	rows, next, err := s.repo.ListAll(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return buildOrderPage(rows, next), nil
}

// UpdateStatus is the admin transition with an audit tracking event.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, req UpdateStatusRequest) (*OrderDTO, error) {
	if !req.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled orders cannot transition")
	}

	message := fmt.Sprintf("Status changed to %s", req.Status)
	if req.Message != nil && strings.TrimSpace(*req.Message) != "" {
		message = strings.TrimSpace(*req.Message)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"status": req.Status}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update status")
		}
		return repo.AppendTracking(ctx, &models.OrderTracking{
			OrderID: order.ID,
			Status:  enums.TrackingStatusUpdated,
			Message: message,
		})
	})
	if err != nil {
		return nil, err
	}

	fresh, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
	}
	return fromModel(fresh), nil
}

func (s *service) priceLines(ctx context.Context, inputs []OrderItemInput) ([]pricedLine, decimal.Decimal, error) {
	if len(inputs) == 0 {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}

	lines := make([]pricedLine, 0, len(inputs))
	subtotal := decimal.Zero

	for _, input := range inputs {
		product, err := s.catalog.FindByID(ctx, input.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
					WithDetails(map[string]any{"product_id": input.ProductID})
			}
			return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}
		if !product.IsActive {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": input.ProductID})
		}

		line := pricedLine{
			input:       input,
			productName: product.Name,
			unitPrice:   product.EffectivePrice(),
		}

		if input.VariantID != nil {
			variant, err := s.catalog.FindVariant(ctx, *input.VariantID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found").
						WithDetails(map[string]any{"variant_id": *input.VariantID})
				}
				return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load variant")
			}
			if variant.ProductID != product.ID || !variant.IsActive {
				return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "variant does not belong to product")
			}
			name := variant.Name
			line.variantName = &name
			line.unitPrice = line.unitPrice.Add(variant.AdditionalPrice)
		}

		line.lineTotal = line.unitPrice.Mul(decimal.NewFromInt(int64(input.Quantity)))
		lines = append(lines, line)
		subtotal = subtotal.Add(line.lineTotal)
	}

	return lines, subtotal, nil
}

func (s *service) reserveStock(ctx context.Context, repo Repository, lines []pricedLine) error {
	for _, line := range lines {
		var ok bool
		var err error
		if line.input.VariantID != nil {
			ok, err = repo.DecrementVariantStock(ctx, *line.input.VariantID, line.input.Quantity)
		} else {
			ok, err = repo.DecrementProductStock(ctx, line.input.ProductID, line.input.Quantity)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reserve stock")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
				WithDetails(map[string]any{
					"product_id": line.input.ProductID,
					"quantity":   line.input.Quantity,
				})
		}
	}
	return nil
}

// createShipment hands the paid order to the courier. Failure is downgraded
// to a warning; the payment outcome is already committed.
func (s *service) createShipment(ctx context.Context, order *models.Order) *string {
	req := shiprocket.ShipmentRequest{
		OrderNumber:   order.OrderNumber,
		OrderDate:     order.CreatedAt,
		BuyerName:     order.CustomerName,
		BuyerEmail:    order.CustomerEmail,
		PaymentMethod: "prepaid",
		SubTotal:      order.Subtotal,
	}
	if order.CustomerPhone != nil {
		req.BuyerPhone = *order.CustomerPhone
	}
	if order.ShippingAddress != nil {
		addr := order.ShippingAddress
		req.AddressLine1 = addr.Line1
		if addr.Line2 != nil {
			req.AddressLine2 = *addr.Line2
		}
		req.City = addr.City
		req.State = addr.State
		req.PostalCode = addr.PostalCode
		req.Country = addr.Country
		if req.BuyerPhone == "" {
			req.BuyerPhone = addr.Phone
		}
	}
	for _, item := range order.Items {
		sku := item.ProductName
		if item.ProductID != nil {
			sku = item.ProductID.String()
		}
		req.Items = append(req.Items, shiprocket.ShipmentItem{
			Name:      item.ProductName,
			SKU:       sku,
			Units:     item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	shipment, err := s.fulfillment.CreateShipment(ctx, req)
	if err != nil {
		if s.logger != nil {
			s.logger.Error(s.logger.WithOrderNumber(ctx, order.OrderNumber), "shipment creation failed", err)
		}
		warning := "payment confirmed but shipment creation failed; fulfillment will be retried manually"
		return &warning
	}

	event := &models.OrderTracking{
		OrderID: order.ID,
		Status:  enums.TrackingShipmentCreated,
		Message: "Shipment created",
	}
	if shipment.AWBCode != "" {
		code := shipment.AWBCode
		event.TrackingCode = &code
	}
	if shipment.CourierName != "" {
		courier := shipment.CourierName
		event.CourierName = &courier
	}
	if err := s.repo.AppendTracking(ctx, event); err != nil && s.logger != nil {
		s.logger.Error(s.logger.WithOrderNumber(ctx, order.OrderNumber), "record shipment tracking failed", err)
	}
	if err := s.repo.UpdateOrder(ctx, order.ID, map[string]any{"status": enums.OrderStatusProcessing}); err != nil && s.logger != nil {
		s.logger.Error(s.logger.WithOrderNumber(ctx, order.OrderNumber), "mark order processing failed", err)
	}
	return nil
}

func (s *service) sendConfirmation(ctx context.Context, order *models.Order) {
	if s.notifications == nil {
		return
	}
	if err := s.notifications.SendOrderConfirmation(ctx, order); err != nil && s.logger != nil {
		s.logger.Warn(s.logger.WithOrderNumber(ctx, order.OrderNumber), "order confirmation email failed")
	}
}

func (s *service) loadOwned(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if !actor.IsAdmin {
		if order.UserID == nil || *order.UserID != actor.UserID {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
	}
	return order, nil
}

func addressFromInput(userID *uuid.UUID, input AddressInput) *models.Address {
	country := strings.TrimSpace(input.Country)
	if country == "" {
		country = "India"
	}
	return &models.Address{
		UserID:     userID,
		FullName:   strings.TrimSpace(input.FullName),
		Phone:      strings.TrimSpace(input.Phone),
		Line1:      strings.TrimSpace(input.Line1),
		Line2:      input.Line2,
		City:       strings.TrimSpace(input.City),
		State:      strings.TrimSpace(input.State),
		PostalCode: strings.TrimSpace(input.PostalCode),
		Country:    country,
	}
}

func buildOrderPage(rows []models.Order, nextCursor string) *PageDTO {
	items := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *fromModel(&rows[i]))
	}
	return &PageDTO{Items: items, NextCursor: nextCursor}
}
