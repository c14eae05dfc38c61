package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ridegearhq/ridegear-backend/pkg/db/models"
)

// ProductSummary is the storefront list projection.
type ProductSummary struct {
	ID            uuid.UUID        `json:"id"`
	SKU           string           `json:"sku"`
	Name          string           `json:"name"`
	Slug          string           `json:"slug"`
	Price         decimal.Decimal  `json:"price"`
	SalePrice     *decimal.Decimal `json:"sale_price,omitempty"`
	StockQuantity int              `json:"stock_quantity"`
	IsFeatured    bool             `json:"is_featured"`
	ThumbnailURL  *string          `json:"thumbnail_url,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// ImageDTO is a gallery entry ordered primary-first.
type ImageDTO struct {
	ID           uuid.UUID `json:"id"`
	URL          string    `json:"url"`
	AltText      *string   `json:"alt_text,omitempty"`
	IsPrimary    bool      `json:"is_primary"`
	DisplayOrder int       `json:"display_order"`
}

// VariantDTO is an active purchasable option.
type VariantDTO struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	SKU             *string         `json:"sku,omitempty"`
	AdditionalPrice decimal.Decimal `json:"additional_price"`
	StockQuantity   int             `json:"stock_quantity"`
}

// CompatibilityDTO lists a bike the product fits.
type CompatibilityDTO struct {
	ID        uuid.UUID `json:"id"`
	BikeBrand string    `json:"bike_brand"`
	BikeModel string    `json:"bike_model"`
	YearStart *int      `json:"year_start,omitempty"`
	YearEnd   *int      `json:"year_end,omitempty"`
}

// ProductDetail is the full storefront product page payload.
type ProductDetail struct {
	ID            uuid.UUID          `json:"id"`
	SKU           string             `json:"sku"`
	Name          string             `json:"name"`
	Slug          string             `json:"slug"`
	Description   *string            `json:"description,omitempty"`
	Price         decimal.Decimal    `json:"price"`
	SalePrice     *decimal.Decimal   `json:"sale_price,omitempty"`
	StockQuantity int                `json:"stock_quantity"`
	IsActive      bool               `json:"is_active"`
	IsFeatured    bool               `json:"is_featured"`
	CategoryID    uuid.UUID          `json:"category_id"`
	BrandID       *uuid.UUID         `json:"brand_id,omitempty"`
	Images        []ImageDTO         `json:"images"`
	Variants      []VariantDTO       `json:"variants"`
	Compatibility []CompatibilityDTO `json:"compatibility"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// CategoryDTO mirrors the category rows for both storefront and admin.
type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
}

// BrandDTO mirrors the brand rows.
type BrandDTO struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Slug     string    `json:"slug"`
	LogoURL  *string   `json:"logo_url,omitempty"`
	IsActive bool      `json:"is_active"`
}

// PageMeta carries cursor pagination metadata.
type PageMeta struct {
	NextCursor string `json:"next_cursor,omitempty"`
	Limit      int    `json:"limit"`
}

// ProductPage is a cursor-paginated list of product summaries.
type ProductPage struct {
	Items      []ProductSummary `json:"items"`
	Pagination PageMeta         `json:"pagination"`
}

// ListParams filters the storefront product list.
type ListParams struct {
	Cursor          string
	Limit           int
	CategorySlug    string
	BrandSlug       string
	Search          string
	FeaturedOnly    bool
	IncludeInactive bool
}

// FitmentParams searches products compatible with a specific bike.
type FitmentParams struct {
	BikeBrand string
	BikeModel string
	Year      int
	Cursor    string
	Limit     int
}

// CreateProductInput is the admin payload for a new listing.
type CreateProductInput struct {
	CategoryID    uuid.UUID            `json:"category_id" validate:"required"`
	BrandID       *uuid.UUID           `json:"brand_id,omitempty"`
	SKU           string               `json:"sku" validate:"required,max=64"`
	Name          string               `json:"name" validate:"required,max=255"`
	Slug          string               `json:"slug" validate:"required,max=255"`
	Description   *string              `json:"description,omitempty"`
	Price         decimal.Decimal      `json:"price" validate:"required"`
	SalePrice     *decimal.Decimal     `json:"sale_price,omitempty"`
	StockQuantity int                  `json:"stock_quantity" validate:"min=0"`
	IsActive      *bool                `json:"is_active,omitempty"`
	IsFeatured    bool                 `json:"is_featured"`
	Variants      []VariantInput       `json:"variants,omitempty" validate:"dive"`
	Compatibility []CompatibilityInput `json:"compatibility,omitempty" validate:"dive"`
}

// UpdateProductInput carries partial updates; nil fields are untouched.
type UpdateProductInput struct {
	CategoryID    *uuid.UUID       `json:"category_id,omitempty"`
	BrandID       *uuid.UUID       `json:"brand_id,omitempty"`
	Name          *string          `json:"name,omitempty" validate:"omitempty,max=255"`
	Description   *string          `json:"description,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	SalePrice     *decimal.Decimal `json:"sale_price,omitempty"`
	StockQuantity *int             `json:"stock_quantity,omitempty" validate:"omitempty,min=0"`
	IsActive      *bool            `json:"is_active,omitempty"`
	IsFeatured    *bool            `json:"is_featured,omitempty"`
}

// VariantInput describes a purchasable option at create time.
type VariantInput struct {
	Name            string          `json:"name" validate:"required,max=100"`
	SKU             *string         `json:"sku,omitempty"`
	AdditionalPrice decimal.Decimal `json:"additional_price"`
	StockQuantity   int             `json:"stock_quantity" validate:"min=0"`
}

// CompatibilityInput records a fitment row at create time.
type CompatibilityInput struct {
	BikeBrand string `json:"bike_brand" validate:"required,max=100"`
	BikeModel string `json:"bike_model" validate:"required,max=100"`
	YearStart *int   `json:"year_start,omitempty"`
	YearEnd   *int   `json:"year_end,omitempty"`
}

// ImageInput is one gallery upload in a bulk attach.
type ImageInput struct {
	URL          string  `json:"url" validate:"required,url"`
	AltText      *string `json:"alt_text,omitempty"`
	IsPrimary    bool    `json:"is_primary"`
	DisplayOrder int     `json:"display_order" validate:"min=0"`
}

// CreateCategoryInput is the admin payload for a new category.
type CreateCategoryInput struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Slug        string  `json:"slug" validate:"required,max=100"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// CreateBrandInput is the admin payload for a new brand.
type CreateBrandInput struct {
	Name     string  `json:"name" validate:"required,max=100"`
	Slug     string  `json:"slug" validate:"required,max=100"`
	LogoURL  *string `json:"logo_url,omitempty" validate:"omitempty,url"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// SummaryFromModel projects a product row (with gallery preloaded primary
// first) into the list shape. Shared with the wishlist view.
func SummaryFromModel(p models.Product) ProductSummary {
	summary := ProductSummary{
		ID:            p.ID,
		SKU:           p.SKU,
		Name:          p.Name,
		Slug:          p.Slug,
		Price:         p.Price,
		SalePrice:     p.SalePrice,
		StockQuantity: p.StockQuantity,
		IsFeatured:    p.IsFeatured,
		CreatedAt:     p.CreatedAt,
	}
	if len(p.Images) > 0 {
		url := p.Images[0].URL
		summary.ThumbnailURL = &url
	}
	return summary
}

func detailFromModel(p *models.Product) *ProductDetail {
	if p == nil {
		return nil
	}

	images := make([]ImageDTO, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, ImageDTO{
			ID:           img.ID,
			URL:          img.URL,
			AltText:      img.AltText,
			IsPrimary:    img.IsPrimary,
			DisplayOrder: img.DisplayOrder,
		})
	}

	variants := make([]VariantDTO, 0, len(p.Variants))
	for _, v := range p.Variants {
		variants = append(variants, VariantDTO{
			ID:              v.ID,
			Name:            v.Name,
			SKU:             v.SKU,
			AdditionalPrice: v.AdditionalPrice,
			StockQuantity:   v.StockQuantity,
		})
	}

	fitments := make([]CompatibilityDTO, 0, len(p.Compatibility))
	for _, c := range p.Compatibility {
		fitments = append(fitments, CompatibilityDTO{
			ID:        c.ID,
			BikeBrand: c.BikeBrand,
			BikeModel: c.BikeModel,
			YearStart: c.YearStart,
			YearEnd:   c.YearEnd,
		})
	}

	return &ProductDetail{
		ID:            p.ID,
		SKU:           p.SKU,
		Name:          p.Name,
		Slug:          p.Slug,
		Description:   p.Description,
		Price:         p.Price,
		SalePrice:     p.SalePrice,
		StockQuantity: p.StockQuantity,
		IsActive:      p.IsActive,
		IsFeatured:    p.IsFeatured,
		CategoryID:    p.CategoryID,
		BrandID:       p.BrandID,
		Images:        images,
		Variants:      variants,
		Compatibility: fitments,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func categoryFromModel(c models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		IsActive:    c.IsActive,
	}
}

func brandFromModel(b models.Brand) BrandDTO {
	return BrandDTO{
		ID:       b.ID,
		Name:     b.Name,
		Slug:     b.Slug,
		LogoURL:  b.LogoURL,
		IsActive: b.IsActive,
	}
}
