package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductCompatibility records which bike brand/model/year range a product fits.
// Used by the fitment search.
type ProductCompatibility struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	BikeBrand string    `gorm:"column:bike_brand;not null"`
	BikeModel string    `gorm:"column:bike_model;not null;index"`
	YearStart *int      `gorm:"column:year_start"`
	YearEnd   *int      `gorm:"column:year_end"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ProductCompatibility) TableName() string {
	return "product_compatibility"
}

func (c *ProductCompatibility) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
