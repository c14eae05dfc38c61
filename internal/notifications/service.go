package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ridegearhq/ridegear-backend/pkg/db/models"
	pkgerrors "github.com/ridegearhq/ridegear-backend/pkg/errors"
	"github.com/ridegearhq/ridegear-backend/pkg/logger"
	"github.com/ridegearhq/ridegear-backend/pkg/mailer"
)

// Service sends customer-facing transactional email.
type Service interface {
	SendOTP(ctx context.Context, email, code string, ttl time.Duration) error
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
}

type service struct {
	sender mailer.Sender
	logger *logger.Logger
}

// ServiceParams groups the dependencies for the notifications service.
type ServiceParams struct {
	Sender mailer.Sender
	Logger *logger.Logger
}

// NewService constructs a notifications service.
func NewService(params ServiceParams) (Service, error) {
	if params.Sender == nil {
		return nil, fmt.Errorf("mail sender is required")
	}
	return &service{sender: params.Sender, logger: params.Logger}, nil
}

// SendOTP delivers the verification code for a new registration.
func (s *service) SendOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(code) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email and code are required")
	}

	body := fmt.Sprintf(
		"Your RideGear verification code is %s.\n\nIt expires in %d minutes. If you did not request this, ignore this email.",
		code, int(ttl.Minutes()),
	)
	return s.sender.Send(ctx, email, "Verify your RideGear account", body)
}

// SendOrderConfirmation emails the customer after checkout. Failures are
// reported to the caller, which treats them as non-fatal.
func (s *service) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}

	var lines strings.Builder
	fmt.Fprintf(&lines, "Hi %s,\n\nThanks for your order %s.\n\n", order.CustomerName, order.OrderNumber)
	for _, item := range order.Items {
		name := item.ProductName
		if item.VariantName != nil {
			name = fmt.Sprintf("%s (%s)", name, *item.VariantName)
		}
		fmt.Fprintf(&lines, "  %dx %s - %s\n", item.Quantity, name, formatAmount(item.TotalPrice))
	}
	fmt.Fprintf(&lines, "\nSubtotal: %s\nShipping: %s\nTotal: %s\n",
		formatAmount(order.Subtotal), formatAmount(order.ShippingCharges), formatAmount(order.TotalAmount))
	fmt.Fprintf(&lines, "\nWe will email you again once your order ships.\n")

	subject := fmt.Sprintf("RideGear order %s confirmed", order.OrderNumber)
	if err := s.sender.Send(ctx, order.CustomerEmail, subject, lines.String()); err != nil {
		if s.logger != nil {
			s.logger.Error(s.logger.WithOrderNumber(ctx, order.OrderNumber), "order confirmation email failed", err)
		}
		return err
	}
	return nil
}

func formatAmount(d decimal.Decimal) string {
	return "Rs. " + d.StringFixed(2)
}
