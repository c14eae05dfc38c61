package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ridegearhq/ridegear-backend/pkg/config"
	"github.com/ridegearhq/ridegear-backend/pkg/db/models"
	pkgerrors "github.com/ridegearhq/ridegear-backend/pkg/errors"
)

// Service reprices a client-held cart against the live catalog.
type Service interface {
	Quote(ctx context.Context, req QuoteRequest) (*Quote, error)
}

type productRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
}

type service struct {
	products productRepository
	shipping config.ShippingConfig
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	ProductRepo productRepository
	Shipping    config.ShippingConfig
}

// NewService builds a cart quote service.
func NewService(params ServiceParams) (Service, error) {
	if params.ProductRepo == nil {
		return nil, fmt.Errorf("product repository is required")
	}
	return &service{products: params.ProductRepo, shipping: params.Shipping}, nil
}

// Quote reprices every line from the catalog, ignoring any client-sent
// prices. Shipping is a flat charge waived above the free threshold.
func (s *service) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	lines := make([]QuoteLine, 0, len(req.Items))
	subtotal := decimal.Zero

	for _, item := range req.Items {
		line, err := s.priceLine(ctx, item)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
		subtotal = subtotal.Add(line.LineTotal)
	}

	shipping := s.shipping.FlatRateAmount()
	if subtotal.GreaterThanOrEqual(s.shipping.FreeShippingAbove()) {
		shipping = decimal.Zero
	}

	return &Quote{
		Items:           lines,
		Subtotal:        subtotal,
		ShippingCharges: shipping,
		TotalAmount:     subtotal.Add(shipping),
	}, nil
}

func (s *service) priceLine(ctx context.Context, item QuoteItemInput) (*QuoteLine, error) {
	product, err := s.products.FindByID(ctx, item.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
			WithDetails(map[string]any{"product_id": item.ProductID})
	}

	unitPrice := product.EffectivePrice()
	stock := product.StockQuantity
	line := QuoteLine{
		ProductID:   product.ID,
		Quantity:    item.Quantity,
		ProductName: product.Name,
		UnitPrice:   unitPrice,
	}

	if item.VariantID != nil {
		variant, err := s.products.FindVariant(ctx, *item.VariantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found").
					WithDetails(map[string]any{"variant_id": *item.VariantID})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load variant")
		}
		if variant.ProductID != product.ID || !variant.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant does not belong to product")
		}
		line.VariantID = &variant.ID
		name := variant.Name
		line.VariantName = &name
		line.UnitPrice = unitPrice.Add(variant.AdditionalPrice)
		stock = variant.StockQuantity
	}

	line.InStock = stock >= item.Quantity
	line.LineTotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
	return &line, nil
}
