package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ridegearhq/ridegear-backend/pkg/db/models"
)

// OTPRepository persists email verification codes.
type OTPRepository struct {
	db *gorm.DB
}

// NewOTPRepository constructs an OTP repo bound to the provided GORM DB.
func NewOTPRepository(db *gorm.DB) *OTPRepository {
	return &OTPRepository{db: db}
}

// Create stores a fresh code expiring after ttl.
func (r *OTPRepository) Create(ctx context.Context, email, code string, ttl time.Duration) (*models.EmailOTP, error) {
	otp := &models.EmailOTP{
		Email:     email,
		Code:      code,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
	if err := r.db.WithContext(ctx).Create(otp).Error; err != nil {
		return nil, err
	}
	return otp, nil
}

// FindActive returns the newest unconsumed, unexpired code matching email+code.
func (r *OTPRepository) FindActive(ctx context.Context, email, code string, now time.Time) (*models.EmailOTP, error) {
	var otp models.EmailOTP
	err := r.db.WithContext(ctx).
		Where("email = ? AND code = ? AND consumed_at IS NULL AND expires_at > ?", email, code, now).
		Order("created_at DESC").
		First(&otp).Error
	if err != nil {
		return nil, err
	}
	return &otp, nil
}

// Consume marks the code as used so it cannot be redeemed twice.
func (r *OTPRepository) Consume(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.EmailOTP{}).
		Where("id = ? AND consumed_at IS NULL", id).
		UpdateColumn("consumed_at", at).Error
}
