package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/project-ledger/internal"
	"github.com/frahmantamala/project-ledger/internal/user"
)

// UserLoader resolves the principal named by a token.
type UserLoader interface {
	GetByID(ctx context.Context, userID int64) (*user.User, error)
}

// Service turns a bearer token into the request principal.
type Service struct {
	validator TokenValidator
	users     UserLoader
	logger    *slog.Logger
}

func NewService(validator TokenValidator, users UserLoader, logger *slog.Logger) *Service {
	return &Service{
		validator: validator,
		users:     users,
		logger:    logger,
	}
}

// Authenticate validates the token and loads the active user behind it.
func (s *Service) Authenticate(ctx context.Context, token string) (*internal.User, error) {
	claims, err := s.validator.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}

	userID, err := claims.PrincipalID()
	if err != nil {
		s.logger.WarnContext(ctx, "token carries no usable principal", "error", err)
		return nil, internal.ErrInvalidToken
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			s.logger.WarnContext(ctx, "token principal does not exist", "user_id", userID)
			return nil, internal.ErrInvalidToken
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, internal.ErrUserInactive
	}

	return &internal.User{
		ID:          u.ID,
		Email:       u.Email,
		Role:        u.Role,
		Permissions: u.Permissions,
	}, nil
}
