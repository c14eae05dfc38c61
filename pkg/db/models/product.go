package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a catalog listing. Prices live on the product; variants
// carry an additional price delta and their own stock.
type Product struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	CategoryID    uuid.UUID              `gorm:"column:category_id;type:uuid;not null;index"`
	BrandID       *uuid.UUID             `gorm:"column:brand_id;type:uuid;index"`
	SKU           string                 `gorm:"column:sku;not null;uniqueIndex"`
	Name          string                 `gorm:"column:name;not null"`
	Slug          string                 `gorm:"column:slug;not null;uniqueIndex"`
	Description   *string                `gorm:"column:description"`
	Price         decimal.Decimal        `gorm:"column:price;type:numeric(10,2);not null"`
	SalePrice     *decimal.Decimal       `gorm:"column:sale_price;type:numeric(10,2)"`
	StockQuantity int                    `gorm:"column:stock_quantity;not null;default:0"`
	IsActive      bool                   `gorm:"column:is_active;not null"`
	IsFeatured    bool                   `gorm:"column:is_featured;not null;default:false"`
	Images        []ProductImage         `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Variants      []ProductVariant       `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Compatibility []ProductCompatibility `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// EffectivePrice returns the sale price when present, else the regular price.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}
