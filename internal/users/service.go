package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/ridegearhq/ridegear-backend/pkg/errors"
)

// Service exposes the admin-facing user operations.
type Service interface {
	List(ctx context.Context, cursor string, limit int) (*PageDTO, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*UserDTO, error)
}

// PageDTO is a cursor-paginated user list.
type PageDTO struct {
	Items      []UserDTO `json:"items"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

type service struct {
	repo *Repository
}

// NewService builds the user management service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, cursor string, limit int) (*PageDTO, error) {
	rows, next, err := s.repo.List(ctx, cursor, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	items := make([]UserDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return &PageDTO{Items: items, NextCursor: next}, nil
}

// SetActive toggles the account flag. Deactivation does not revoke live
// sessions; the auth middleware rejects inactive users on the next login.
func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if err := s.repo.SetActive(ctx, user.ID, active); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
	}
	user.IsActive = active
	return FromModel(user), nil
}
