package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/ridegearhq/ridegear-backend/pkg/db"
	"github.com/ridegearhq/ridegear-backend/pkg/db/models"
	pkgerrors "github.com/ridegearhq/ridegear-backend/pkg/errors"
	"github.com/ridegearhq/ridegear-backend/pkg/logger"
)

const maxBulkImages = 10

// Service exposes the storefront and admin catalog operations.
type Service interface {
	List(ctx context.Context, params ListParams) (*ProductPage, error)
	GetBySlug(ctx context.Context, slug string) (*ProductDetail, error)
	SearchFitment(ctx context.Context, params FitmentParams) (*ProductPage, error)
	Categories(ctx context.Context, includeInactive bool) ([]CategoryDTO, error)
	Brands(ctx context.Context, includeInactive bool) ([]BrandDTO, error)

	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDetail, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDetail, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	AttachImages(ctx context.Context, productID uuid.UUID, inputs []ImageInput) ([]ImageDTO, error)
	DeleteImage(ctx context.Context, productID, imageID uuid.UUID) error
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error)
	CreateBrand(ctx context.Context, input CreateBrandInput) (*BrandDTO, error)
}

type service struct {
	repo   *Repository
	logger *logger.Logger
}

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	Repo   *Repository
	Logger *logger.Logger
}

// NewService builds a catalog service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("catalog repo is required")
	}
	return &service{repo: params.Repo, logger: params.Logger}, nil
}

// List returns the storefront product page.
func (s *service) List(ctx context.Context, params ListParams) (*ProductPage, error) {
	rows, next, err := s.repo.ListProducts(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "list products")
	}
	return buildPage(rows, next, params.Limit), nil
}

// GetBySlug returns the product page payload; inactive listings 404.
func (s *service) GetBySlug(ctx context.Context, slug string) (*ProductDetail, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}

	product, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return detailFromModel(product), nil
}

// SearchFitment returns active products that fit the given bike.
func (s *service) SearchFitment(ctx context.Context, params FitmentParams) (*ProductPage, error) {
	if strings.TrimSpace(params.BikeModel) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bike model is required")
	}
	rows, next, err := s.repo.SearchByFitment(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fitment search")
	}
	return buildPage(rows, next, params.Limit), nil
}

// Categories lists catalog categories.
func (s *service) Categories(ctx context.Context, includeInactive bool) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	result := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		result = append(result, categoryFromModel(row))
	}
	return result, nil
}

// Brands lists catalog brands.
func (s *service) Brands(ctx context.Context, includeInactive bool) ([]BrandDTO, error) {
	rows, err := s.repo.ListBrands(ctx, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list brands")
	}
	result := make([]BrandDTO, 0, len(rows))
	for _, row := range rows {
		result = append(result, brandFromModel(row))
	}
	return result, nil
}

// CreateProduct inserts a new listing with variants and fitment rows.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDetail, error) {
	if input.Price.IsNegative() || input.Price.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.SalePrice != nil && input.SalePrice.GreaterThanOrEqual(input.Price) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale price must be below the regular price")
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	product := &models.Product{
		CategoryID:    input.CategoryID,
		BrandID:       input.BrandID,
		SKU:           strings.TrimSpace(input.SKU),
		Name:          strings.TrimSpace(input.Name),
		Slug:          strings.ToLower(strings.TrimSpace(input.Slug)),
		Description:   input.Description,
		Price:         input.Price,
		SalePrice:     input.SalePrice,
		StockQuantity: input.StockQuantity,
		IsActive:      isActive,
		IsFeatured:    input.IsFeatured,
	}
	for _, v := range input.Variants {
		product.Variants = append(product.Variants, models.ProductVariant{
			Name:            strings.TrimSpace(v.Name),
			SKU:             v.SKU,
			AdditionalPrice: v.AdditionalPrice,
			StockQuantity:   v.StockQuantity,
			IsActive:        true,
		})
	}
	for _, c := range input.Compatibility {
		product.Compatibility = append(product.Compatibility, models.ProductCompatibility{
			BikeBrand: strings.TrimSpace(c.BikeBrand),
			BikeModel: strings.TrimSpace(c.BikeModel),
			YearStart: c.YearStart,
			YearEnd:   c.YearEnd,
		})
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku or slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return detailFromModel(created), nil
}

// UpdateProduct applies partial updates and returns the fresh detail payload.
func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDetail, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	updates := map[string]any{}
	if input.CategoryID != nil {
		updates["category_id"] = *input.CategoryID
	}
	if input.BrandID != nil {
		updates["brand_id"] = *input.BrandID
	}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() || input.Price.IsZero() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		updates["price"] = *input.Price
	}
	if input.SalePrice != nil {
		updates["sale_price"] = *input.SalePrice
	}
	if input.StockQuantity != nil {
		if *input.StockQuantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		updates["stock_quantity"] = *input.StockQuantity
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.IsFeatured != nil {
		updates["is_featured"] = *input.IsFeatured
	}

	if err := s.repo.UpdateProduct(ctx, product.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}

	fresh, err := s.repo.FindBySlug(ctx, product.Slug)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload product")
	}
	return detailFromModel(fresh), nil
}

// DeleteProduct removes the listing; gallery, variants, and fitment cascade.
// Order items keep their name/price snapshots.
func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	return nil
}

// AttachImages uploads a batch of gallery images concurrently. At most one of
// the batch may be flagged primary; the flag displaces any existing primary.
func (s *service) AttachImages(ctx context.Context, productID uuid.UUID, inputs []ImageInput) ([]ImageDTO, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one image is required")
	}
	if len(inputs) > maxBulkImages {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "too many images in one batch").
			WithDetails(map[string]any{"max": maxBulkImages})
	}

	primaryCount := 0
	for _, input := range inputs {
		if input.IsPrimary {
			primaryCount++
		}
	}
	if primaryCount > 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only one image may be primary")
	}

	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	if primaryCount == 1 {
		if err := s.repo.ClearPrimaryImage(ctx, productID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear primary image")
		}
	}

	images := make([]*models.ProductImage, len(inputs))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, input := range inputs {
		image := &models.ProductImage{
			ProductID:    productID,
			URL:          strings.TrimSpace(input.URL),
			AltText:      input.AltText,
			IsPrimary:    input.IsPrimary,
			DisplayOrder: input.DisplayOrder,
		}
		images[i] = image
		group.Go(func() error {
			return s.repo.CreateImage(groupCtx, image)
		})
	}
	if err := group.Wait(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "attach images")
	}

	result := make([]ImageDTO, 0, len(images))
	for _, image := range images {
		result = append(result, ImageDTO{
			ID:           image.ID,
			URL:          image.URL,
			AltText:      image.AltText,
			IsPrimary:    image.IsPrimary,
			DisplayOrder: image.DisplayOrder,
		})
	}
	return result, nil
}

// DeleteImage removes one gallery image.
func (s *service) DeleteImage(ctx context.Context, productID, imageID uuid.UUID) error {
	if err := s.repo.DeleteImage(ctx, productID, imageID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete image")
	}
	return nil
}

// CreateCategory inserts a new category.
func (s *service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error) {
	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	category, err := s.repo.CreateCategory(ctx, &models.Category{
		Name:        strings.TrimSpace(input.Name),
		Slug:        strings.ToLower(strings.TrimSpace(input.Slug)),
		Description: input.Description,
		IsActive:    isActive,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create category")
	}
	dto := categoryFromModel(*category)
	return &dto, nil
}

// CreateBrand inserts a new brand.
func (s *service) CreateBrand(ctx context.Context, input CreateBrandInput) (*BrandDTO, error) {
	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	brand, err := s.repo.CreateBrand(ctx, &models.Brand{
		Name:     strings.TrimSpace(input.Name),
		Slug:     strings.ToLower(strings.TrimSpace(input.Slug)),
		LogoURL:  input.LogoURL,
		IsActive: isActive,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "brand slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create brand")
	}
	dto := brandFromModel(*brand)
	return &dto, nil
}

func buildPage(rows []models.Product, nextCursor string, limit int) *ProductPage {
	items := make([]ProductSummary, 0, len(rows))
	for _, row := range rows {
		items = append(items, SummaryFromModel(row))
	}
	return &ProductPage{
		Items: items,
		Pagination: PageMeta{
			NextCursor: nextCursor,
			Limit:      len(items),
		},
	}
}
