package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuoteItemInput is one cart line sent by the storefront.
type QuoteItemInput struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity" validate:"required,min=1"`
}

// QuoteRequest reprices the client-held cart on the server.
type QuoteRequest struct {
	Items []QuoteItemInput `json:"items" validate:"required,min=1,dive"`
}

// QuoteLine is one repriced cart line.
type QuoteLine struct {
	ProductID   uuid.UUID       `json:"product_id"`
	VariantID   *uuid.UUID      `json:"variant_id,omitempty"`
	ProductName string          `json:"product_name"`
	VariantName *string         `json:"variant_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	InStock     bool            `json:"in_stock"`
}

// Quote is the server-priced cart summary.
type Quote struct {
	Items           []QuoteLine     `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingCharges decimal.Decimal `json:"shipping_charges"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
}
