package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ridegearhq/ridegear-backend/pkg/enums"
)

// OrderTracking is an append-only status event on an order. Rows are never
// updated or deleted.
type OrderTracking struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderID      uuid.UUID            `gorm:"column:order_id;type:uuid;not null;index"`
	Status       enums.TrackingStatus `gorm:"column:status;type:text;not null"`
	Message      string               `gorm:"column:message;not null"`
	TrackingCode *string              `gorm:"column:tracking_code"`
	CourierName  *string              `gorm:"column:courier_name"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
}

func (OrderTracking) TableName() string {
	return "order_tracking"
}

func (t *OrderTracking) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
