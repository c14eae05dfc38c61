package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ridegearhq/ridegear-backend/pkg/db/models"
	"github.com/ridegearhq/ridegear-backend/pkg/enums"
)

// AddressInput is a shipping or billing destination captured at checkout.
type AddressInput struct {
	FullName   string  `json:"full_name" validate:"required,max=200"`
	Phone      string  `json:"phone" validate:"required,min=8,max=20"`
	Line1      string  `json:"line1" validate:"required,max=255"`
	Line2      *string `json:"line2,omitempty" validate:"omitempty,max=255"`
	City       string  `json:"city" validate:"required,max=100"`
	State      string  `json:"state" validate:"required,max=100"`
	PostalCode string  `json:"postal_code" validate:"required,max=20"`
	Country    string  `json:"country,omitempty"`
}

// OrderItemInput is one checkout line. Prices are never trusted from the
// client; the service reprices from the catalog.
type OrderItemInput struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity" validate:"required,min=1"`
}

// CreateOrderRequest is the unified checkout payload for both payment methods.
type CreateOrderRequest struct {
	CustomerName    string              `json:"customer_name" validate:"required,max=200"`
	CustomerEmail   string              `json:"customer_email" validate:"required,email"`
	CustomerPhone   *string             `json:"customer_phone,omitempty" validate:"omitempty,min=8,max=20"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method" validate:"required"`
	ShippingAddress AddressInput        `json:"shipping_address" validate:"required"`
	BillingAddress  *AddressInput       `json:"billing_address,omitempty"`
	Items           []OrderItemInput    `json:"items" validate:"required,min=1,dive"`
	Notes           *string             `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// VerifyPaymentRequest carries the gateway callback fields for verification.
type VerifyPaymentRequest struct {
	OrderID          uuid.UUID `json:"order_id" validate:"required"`
	GatewayOrderID   string    `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string    `json:"gateway_payment_id" validate:"required"`
	Signature        string    `json:"signature" validate:"required"`
}

// CancelRequest gives the reason recorded on the order.
type CancelRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// UpdateStatusRequest is the admin transition payload.
type UpdateStatusRequest struct {
	Status  enums.OrderStatus `json:"status" validate:"required"`
	Message *string           `json:"message,omitempty" validate:"omitempty,max=500"`
}

// ItemDTO is an immutable order line snapshot.
type ItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	VariantID   *uuid.UUID      `json:"variant_id,omitempty"`
	ProductName string          `json:"product_name"`
	VariantName *string         `json:"variant_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// TrackingDTO is one append-only tracking event.
type TrackingDTO struct {
	ID           uuid.UUID            `json:"id"`
	Status       enums.TrackingStatus `json:"status"`
	Message      string               `json:"message"`
	TrackingCode *string              `json:"tracking_code,omitempty"`
	CourierName  *string              `json:"courier_name,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

// AddressDTO echoes the captured destination.
type AddressDTO struct {
	FullName   string  `json:"full_name"`
	Phone      string  `json:"phone"`
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
}

// OrderDTO is the full order payload.
type OrderDTO struct {
	ID                 uuid.UUID           `json:"id"`
	OrderNumber        string              `json:"order_number"`
	CustomerName       string              `json:"customer_name"`
	CustomerEmail      string              `json:"customer_email"`
	CustomerPhone      *string             `json:"customer_phone,omitempty"`
	Status             enums.OrderStatus   `json:"status"`
	PaymentStatus      enums.PaymentStatus `json:"payment_status"`
	PaymentMethod      enums.PaymentMethod `json:"payment_method"`
	Subtotal           decimal.Decimal     `json:"subtotal"`
	ShippingCharges    decimal.Decimal     `json:"shipping_charges"`
	TaxAmount          decimal.Decimal     `json:"tax_amount"`
	DiscountAmount     decimal.Decimal     `json:"discount_amount"`
	TotalAmount        decimal.Decimal     `json:"total_amount"`
	GatewayOrderID     *string             `json:"gateway_order_id,omitempty"`
	GatewayPaymentID   *string             `json:"gateway_payment_id,omitempty"`
	Notes              *string             `json:"notes,omitempty"`
	CancellationReason *string             `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time          `json:"cancelled_at,omitempty"`
	ShippingAddress    *AddressDTO         `json:"shipping_address,omitempty"`
	Items              []ItemDTO           `json:"items"`
	Tracking           []TrackingDTO       `json:"tracking"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// CreateOrderResponse returns the order plus the gateway handle the
// storefront needs to open the payment widget.
type CreateOrderResponse struct {
	Order          *OrderDTO `json:"order"`
	GatewayOrderID *string   `json:"gateway_order_id,omitempty"`
	GatewayKeyID   *string   `json:"gateway_key_id,omitempty"`
}

// VerifyPaymentResponse reports the confirmed order; Warning is set when the
// payment succeeded but shipment creation failed.
type VerifyPaymentResponse struct {
	Order   *OrderDTO `json:"order"`
	Warning *string   `json:"warning,omitempty"`
}

// PageDTO is a cursor-paginated order list.
type PageDTO struct {
	Items      []OrderDTO `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// AdminListParams filters the admin order list.
type AdminListParams struct {
	Status        enums.OrderStatus
	PaymentStatus enums.PaymentStatus
	Cursor        string
	Limit         int
}

func fromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}

	items := make([]ItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, ItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			ProductName: item.ProductName,
			VariantName: item.VariantName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		})
	}

	tracking := make([]TrackingDTO, 0, len(o.Tracking))
	for _, event := range o.Tracking {
		tracking = append(tracking, TrackingDTO{
			ID:           event.ID,
			Status:       event.Status,
			Message:      event.Message,
			TrackingCode: event.TrackingCode,
			CourierName:  event.CourierName,
			CreatedAt:    event.CreatedAt,
		})
	}

	var shipping *AddressDTO
	if o.ShippingAddress != nil {
		shipping = &AddressDTO{
			FullName:   o.ShippingAddress.FullName,
			Phone:      o.ShippingAddress.Phone,
			Line1:      o.ShippingAddress.Line1,
			Line2:      o.ShippingAddress.Line2,
			City:       o.ShippingAddress.City,
			State:      o.ShippingAddress.State,
			PostalCode: o.ShippingAddress.PostalCode,
			Country:    o.ShippingAddress.Country,
		}
	}

	return &OrderDTO{
		ID:                 o.ID,
		OrderNumber:        o.OrderNumber,
		CustomerName:       o.CustomerName,
		CustomerEmail:      o.CustomerEmail,
		CustomerPhone:      o.CustomerPhone,
		Status:             o.Status,
		PaymentStatus:      o.PaymentStatus,
		PaymentMethod:      o.PaymentMethod,
		Subtotal:           o.Subtotal,
		ShippingCharges:    o.ShippingCharges,
		TaxAmount:          o.TaxAmount,
		DiscountAmount:     o.DiscountAmount,
		TotalAmount:        o.TotalAmount,
		GatewayOrderID:     o.GatewayOrderID,
		GatewayPaymentID:   o.GatewayPaymentID,
		Notes:              o.Notes,
		CancellationReason: o.CancellationReason,
		CancelledAt:        o.CancelledAt,
		ShippingAddress:    shipping,
		Items:              items,
		Tracking:           tracking,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}
