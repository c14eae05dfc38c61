package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ridegearhq/ridegear-backend/internal/notifications"
	"github.com/ridegearhq/ridegear-backend/internal/users"
	"github.com/ridegearhq/ridegear-backend/pkg/config"
	"github.com/ridegearhq/ridegear-backend/pkg/db/models"
	"github.com/ridegearhq/ridegear-backend/pkg/enums"
	pkgerrors "github.com/ridegearhq/ridegear-backend/pkg/errors"
	"github.com/ridegearhq/ridegear-backend/pkg/security"
)

const (
	otpLength = 6
	otpTTL    = 10 * time.Minute
)

// RegisterService handles account creation and email verification.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	VerifyEmail(ctx context.Context, req VerifyEmailRequest) error
}

type registerUserRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	MarkEmailVerified(ctx context.Context, id uuid.UUID, at time.Time) error
}

type otpRepository interface {
	Create(ctx context.Context, email, code string, ttl time.Duration) (*models.EmailOTP, error)
	FindActive(ctx context.Context, email, code string, now time.Time) (*models.EmailOTP, error)
	Consume(ctx context.Context, id uuid.UUID, at time.Time) error
}

type registerService struct {
	users         registerUserRepository
	otps          otpRepository
	notifications notifications.Service
	passwordCfg   config.PasswordConfig
}

// RegisterServiceParams bundles dependencies for the register service.
type RegisterServiceParams struct {
	UserRepo      registerUserRepository
	OTPRepo       otpRepository
	Notifications notifications.Service
	PasswordCfg   config.PasswordConfig
}

// NewRegisterService constructs the registration flow.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.OTPRepo == nil {
		return nil, fmt.Errorf("otp repository is required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications service is required")
	}
	return &registerService{
		users:         params.UserRepo,
		otps:          params.OTPRepo,
		notifications: params.Notifications,
		passwordCfg:   params.PasswordCfg,
	}, nil
}

// Register creates an inactive customer account and emails a verification code.
func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if existing, err := s.users.FindByEmail(ctx, email); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
		}
	} else if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	inactive := false
	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        req.Phone,
		Role:         enums.UserRoleCustomer,
		IsActive:     &inactive,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	if err := s.issueOTP(ctx, email); err != nil {
		return nil, err
	}

	return &RegisterResponse{User: users.FromModel(user)}, nil
}

// VerifyEmail redeems the code, consumes it, and activates the account.
func (s *registerService) VerifyEmail(ctx context.Context, req VerifyEmailRequest) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	now := time.Now().UTC()

	otp, err := s.otps.FindActive(ctx, email, strings.TrimSpace(req.Code), now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired code")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup otp")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired code")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	if err := s.otps.Consume(ctx, otp.ID, now); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consume otp")
	}
	if err := s.users.MarkEmailVerified(ctx, user.ID, now); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark verified")
	}
	return nil
}

func (s *registerService) issueOTP(ctx context.Context, email string) error {
	code, err := security.GenerateOTP(otpLength)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate otp")
	}
	if _, err := s.otps.Create(ctx, email, code, otpTTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store otp")
	}
	if err := s.notifications.SendOTP(ctx, email, code, otpTTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send otp email").
			WithDetails(map[string]any{"step": "otp_email"})
	}
	return nil
}
