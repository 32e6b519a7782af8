package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/project-ledger/internal"
	userDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/user"
)

type Repository interface {
	GetByID(ctx context.Context, userID int64) (*userDatamodel.User, error)
	GetPermissions(ctx context.Context, userID int64) ([]string, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// GetByID loads a user together with its permission set. Inactive users are
// returned as well; callers decide what inactivity means for them.
func (s *Service) GetByID(ctx context.Context, userID int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	if u == nil {
		return nil, internal.ErrUserNotFound
	}

	perms, err := s.repo.GetPermissions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user permissions: %w", err)
	}

	s.logger.DebugContext(ctx, "user loaded", "user_id", userID, "role", u.Role, "permissions", len(perms))
	return FromDataModelWithPermissions(u, perms), nil
}
