package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ridegearhq/ridegear-backend/pkg/db/models"
	"github.com/ridegearhq/ridegear-backend/pkg/pagination"
)

// Repository encapsulates catalog persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// galleryOrder keeps the primary image first, then display order.
const galleryOrder = "is_primary DESC, display_order ASC, created_at ASC"

// ListProducts returns a cursor-paginated product page with thumbnails preloaded.
func (r *Repository) ListProducts(ctx context.Context, params ListParams) ([]models.Product, string, error) {
	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)

	decodedCursor, err := pagination.ParseCursor(strings.TrimSpace(params.Cursor))
	if err != nil {
		return nil, "", err
	}

	query := r.db.WithContext(ctx).Model(&models.Product{}).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order(galleryOrder)
		})

	if !params.IncludeInactive {
		query = query.Where("products.is_active = ?", true)
	}
	if params.FeaturedOnly {
		query = query.Where("products.is_featured = ?", true)
	}
	if slug := strings.TrimSpace(params.CategorySlug); slug != "" {
		query = query.Joins("JOIN categories c ON c.id = products.category_id").
			Where("c.slug = ?", slug)
	}
	if slug := strings.TrimSpace(params.BrandSlug); slug != "" {
		query = query.Joins("JOIN brands b ON b.id = products.brand_id").
			Where("b.slug = ?", slug)
	}
	if term := strings.TrimSpace(params.Search); term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		query = query.Where("LOWER(products.name) LIKE ? OR LOWER(products.sku) LIKE ?", pattern, pattern)
	}

	if decodedCursor != nil {
		query = query.Where("(products.created_at < ?) OR (products.created_at = ? AND products.id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var rows []models.Product
	if err := query.Order("products.created_at DESC").Order("products.id DESC").
		Limit(limitWithBuffer).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > normalizedLimit {
		rows = rows[:normalizedLimit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}

// FindBySlug loads one product with its ordered gallery, active variants, and fitment rows.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order(galleryOrder)
		}).
		Preload("Variants", "is_active = ?", true).
		Preload("Compatibility").
		Where("slug = ?", slug).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByID loads the bare product row.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindVariant loads one variant row.
func (r *Repository) FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

// SearchByFitment finds active products compatible with the given bike via a
// single join against the compatibility table.
func (r *Repository) SearchByFitment(ctx context.Context, params FitmentParams) ([]models.Product, string, error) {
	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)

	decodedCursor, err := pagination.ParseCursor(strings.TrimSpace(params.Cursor))
	if err != nil {
		return nil, "", err
	}

	query := r.db.WithContext(ctx).Model(&models.Product{}).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order(galleryOrder)
		}).
		Joins("JOIN product_compatibility pc ON pc.product_id = products.id").
		Where("products.is_active = ?", true).
		Where("LOWER(pc.bike_model) LIKE ?", "%"+strings.ToLower(strings.TrimSpace(params.BikeModel))+"%")

	if brand := strings.TrimSpace(params.BikeBrand); brand != "" {
		query = query.Where("LOWER(pc.bike_brand) = ?", strings.ToLower(brand))
	}
	if params.Year > 0 {
		query = query.Where("(pc.year_start IS NULL OR pc.year_start <= ?)", params.Year).
			Where("(pc.year_end IS NULL OR pc.year_end >= ?)", params.Year)
	}

	if decodedCursor != nil {
		query = query.Where("(products.created_at < ?) OR (products.created_at = ? AND products.id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var rows []models.Product
	if err := query.Distinct("products.*").
		Order("products.created_at DESC").Order("products.id DESC").
		Limit(limitWithBuffer).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > normalizedLimit {
		rows = rows[:normalizedLimit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}

// CreateProduct inserts the product along with its variants and fitment rows.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct applies the column map to one product.
func (r *Repository) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// DeleteProduct removes the product; images, variants, and fitment rows cascade.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error
}

// CreateImage inserts one gallery image.
func (r *Repository) CreateImage(ctx context.Context, image *models.ProductImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

// ClearPrimaryImage drops the primary flag from every image of the product.
func (r *Repository) ClearPrimaryImage(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.ProductImage{}).
		Where("product_id = ?", productID).
		UpdateColumn("is_primary", false).Error
}

// DeleteImage removes one gallery image.
func (r *Repository) DeleteImage(ctx context.Context, productID, imageID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", imageID, productID).
		Delete(&models.ProductImage{}).Error
}

// ListCategories returns categories, optionally including inactive ones.
func (r *Repository) ListCategories(ctx context.Context, includeInactive bool) ([]models.Category, error) {
	query := r.db.WithContext(ctx).Model(&models.Category{}).Order("name ASC")
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var rows []models.Category
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateCategory inserts a new category.
func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// ListBrands returns brands, optionally including inactive ones.
func (r *Repository) ListBrands(ctx context.Context, includeInactive bool) ([]models.Brand, error) {
	query := r.db.WithContext(ctx).Model(&models.Brand{}).Order("name ASC")
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var rows []models.Brand
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateBrand inserts a new brand.
func (r *Repository) CreateBrand(ctx context.Context, brand *models.Brand) (*models.Brand, error) {
	if err := r.db.WithContext(ctx).Create(brand).Error; err != nil {
		return nil, err
	}
	return brand, nil
}
