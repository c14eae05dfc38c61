package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ridegearhq/ridegear-backend/internal/users"
	"github.com/ridegearhq/ridegear-backend/pkg/config"
	"github.com/ridegearhq/ridegear-backend/pkg/db/models"
	"github.com/ridegearhq/ridegear-backend/pkg/enums"
	pkgerrors "github.com/ridegearhq/ridegear-backend/pkg/errors"
)

type stubRegisterUserRepo struct {
	byEmail  map[string]*models.User
	created  []users.CreateUserDTO
	verified []uuid.UUID
}

func (s *stubRegisterUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	s.created = append(s.created, dto)
	user := dto.ToModel()
	user.ID = uuid.New()
	if s.byEmail == nil {
		s.byEmail = make(map[string]*models.User)
	}
	s.byEmail[dto.Email] = user
	return user, nil
}

func (s *stubRegisterUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRegisterUserRepo) MarkEmailVerified(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.verified = append(s.verified, id)
	return nil
}

type stubOTPRepo struct {
	stored   []models.EmailOTP
	consumed []uuid.UUID
}

func (s *stubOTPRepo) Create(ctx context.Context, email, code string, ttl time.Duration) (*models.EmailOTP, error) {
	otp := models.EmailOTP{
		ID:        uuid.New(),
		Email:     email,
		Code:      code,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
	s.stored = append(s.stored, otp)
	return &otp, nil
}

func (s *stubOTPRepo) FindActive(ctx context.Context, email, code string, now time.Time) (*models.EmailOTP, error) {
	for i := range s.stored {
		otp := s.stored[i]
		if otp.Email == email && otp.Code == code && otp.ConsumedAt == nil && otp.ExpiresAt.After(now) {
			return &otp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOTPRepo) Consume(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.consumed = append(s.consumed, id)
	for i := range s.stored {
		if s.stored[i].ID == id {
			consumedAt := at
			s.stored[i].ConsumedAt = &consumedAt
		}
	}
	return nil
}

type stubNotifications struct {
	otpEmails []string
	otpCodes  []string
	err       error
}

func (s *stubNotifications) SendOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	if s.err != nil {
		return s.err
	}
	s.otpEmails = append(s.otpEmails, email)
	s.otpCodes = append(s.otpCodes, code)
	return nil
}

func (s *stubNotifications) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	return nil
}

func newRegisterTestService(t *testing.T, userRepo *stubRegisterUserRepo, otpRepo *stubOTPRepo, notifier *stubNotifications) RegisterService {
	t.Helper()
	svc, err := NewRegisterService(RegisterServiceParams{
		UserRepo:      userRepo,
		OTPRepo:       otpRepo,
		Notifications: notifier,
		PasswordCfg:   config.PasswordConfig{BcryptCost: 4},
	})
	if err != nil {
		t.Fatalf("failed to build register service: %v", err)
	}
	return svc
}

func TestRegisterCreatesInactiveAccountAndEmailsCode(t *testing.T) {
	userRepo := &stubRegisterUserRepo{}
	otpRepo := &stubOTPRepo{}
	notifier := &stubNotifications{}
	svc := newRegisterTestService(t, userRepo, otpRepo, notifier)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:     " Asha@Example.com ",
		Password:  "long enough pw",
		FirstName: " Asha ",
		LastName:  "Rao",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if len(userRepo.created) != 1 {
		t.Fatalf("expected one user created, got %d", len(userRepo.created))
	}
	created := userRepo.created[0]
	if created.Email != "asha@example.com" {
		t.Fatalf("email must be normalized, got %s", created.Email)
	}
	if created.FirstName != "Asha" {
		t.Fatalf("first name must be trimmed, got %q", created.FirstName)
	}
	if created.Role != enums.UserRoleCustomer {
		t.Fatalf("self sign-up must always be a customer, got %s", created.Role)
	}
	if created.IsActive == nil || *created.IsActive {
		t.Fatalf("account must start inactive pending verification")
	}
	if created.PasswordHash == "long enough pw" {
		t.Fatalf("password must be hashed, not stored verbatim")
	}

	if len(otpRepo.stored) != 1 || len(otpRepo.stored[0].Code) != 6 {
		t.Fatalf("expected one 6-digit code, got %+v", otpRepo.stored)
	}
	if len(notifier.otpEmails) != 1 || notifier.otpEmails[0] != "asha@example.com" {
		t.Fatalf("expected otp email sent, got %v", notifier.otpEmails)
	}
	if notifier.otpCodes[0] != otpRepo.stored[0].Code {
		t.Fatalf("emailed code must match the stored code")
	}
	if resp.User == nil || resp.User.IsActive {
		t.Fatalf("response user must be inactive, got %+v", resp.User)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	existing := &models.User{ID: uuid.New(), Email: "asha@example.com"}
	userRepo := &stubRegisterUserRepo{byEmail: map[string]*models.User{"asha@example.com": existing}}
	svc := newRegisterTestService(t, userRepo, &stubOTPRepo{}, &stubNotifications{})

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "asha@example.com",
		Password:  "long enough pw",
		FirstName: "Asha",
		LastName:  "Rao",
	})

	var appErr *pkgerrors.Error
	if !errors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterSurfacesMailFailure(t *testing.T) {
	svc := newRegisterTestService(t, &stubRegisterUserRepo{}, &stubOTPRepo{}, &stubNotifications{err: errors.New("smtp down")})

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "asha@example.com",
		Password:  "long enough pw",
		FirstName: "Asha",
		LastName:  "Rao",
	})

	var appErr *pkgerrors.Error
	if !errors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestVerifyEmailConsumesCodeAndActivates(t *testing.T) {
	userRepo := &stubRegisterUserRepo{}
	otpRepo := &stubOTPRepo{}
	svc := newRegisterTestService(t, userRepo, otpRepo, &stubNotifications{})

	if _, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "asha@example.com",
		Password:  "long enough pw",
		FirstName: "Asha",
		LastName:  "Rao",
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	code := otpRepo.stored[0].Code
	if err := svc.VerifyEmail(context.Background(), VerifyEmailRequest{
		Email: "Asha@Example.com",
		Code:  " " + code + " ",
	}); err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	if len(otpRepo.consumed) != 1 {
		t.Fatalf("expected code consumed once, got %d", len(otpRepo.consumed))
	}
	if len(userRepo.verified) != 1 {
		t.Fatalf("expected account marked verified, got %d", len(userRepo.verified))
	}

	// The same code cannot be redeemed twice.
	err := svc.VerifyEmail(context.Background(), VerifyEmailRequest{Email: "asha@example.com", Code: code})
	var appErr *pkgerrors.Error
	if !errors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for reused code, got %v", err)
	}
}

func TestVerifyEmailRejectsWrongCode(t *testing.T) {
	svc := newRegisterTestService(t, &stubRegisterUserRepo{}, &stubOTPRepo{}, &stubNotifications{})

	err := svc.VerifyEmail(context.Background(), VerifyEmailRequest{Email: "asha@example.com", Code: "000000"})
	var appErr *pkgerrors.Error
	if !errors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
