package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ridegearhq/ridegear-backend/pkg/enums"
)

// Order is created in one insert at checkout and mutated only by payment
// verification, fulfillment, and cancellation.
type Order struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber        string              `gorm:"column:order_number;not null;uniqueIndex"`
	UserID             *uuid.UUID          `gorm:"column:user_id;type:uuid;index"`
	CustomerName       string              `gorm:"column:customer_name;not null"`
	CustomerEmail      string              `gorm:"column:customer_email;not null"`
	CustomerPhone      *string             `gorm:"column:customer_phone"`
	Status             enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus      enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentMethod      enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	Subtotal           decimal.Decimal     `gorm:"column:subtotal;type:numeric(10,2);not null"`
	ShippingCharges    decimal.Decimal     `gorm:"column:shipping_charges;type:numeric(10,2);not null;default:0"`
	TaxAmount          decimal.Decimal     `gorm:"column:tax_amount;type:numeric(10,2);not null;default:0"`
	DiscountAmount     decimal.Decimal     `gorm:"column:discount_amount;type:numeric(10,2);not null;default:0"`
	TotalAmount        decimal.Decimal     `gorm:"column:total_amount;type:numeric(10,2);not null"`
	ShippingAddressID  uuid.UUID           `gorm:"column:shipping_address_id;type:uuid;not null"`
	BillingAddressID   uuid.UUID           `gorm:"column:billing_address_id;type:uuid;not null"`
	GatewayOrderID     *string             `gorm:"column:gateway_order_id"`
	GatewayPaymentID   *string             `gorm:"column:gateway_payment_id"`
	Notes              *string             `gorm:"column:notes"`
	CancellationReason *string             `gorm:"column:cancellation_reason"`
	CancelledAt        *time.Time          `gorm:"column:cancelled_at"`
	ShippingAddress    *Address            `gorm:"foreignKey:ShippingAddressID"`
	Items              []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Tracking           []OrderTracking     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
