package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EmailOTP is a one-time verification code delivered over SMTP.
type EmailOTP struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Email      string     `gorm:"column:email;not null;index"`
	Code       string     `gorm:"column:code;not null"`
	ExpiresAt  time.Time  `gorm:"column:expires_at;not null"`
	ConsumedAt *time.Time `gorm:"column:consumed_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (o *EmailOTP) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
