package editpermission

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/project-ledger/internal"
	editDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/editpermission"
	"github.com/frahmantamala/project-ledger/internal/core/events"
)

type Repository interface {
	WithinTx(ctx context.Context, fn func(repo Repository) error) error

	UserExists(ctx context.Context, userID int64) (bool, error)
	ProjectExists(ctx context.Context, projectID int64) (bool, error)

	// FindActiveForTarget locks and returns the active grant for exactly
	// one of userID or projectID, or nil, nil.
	FindActiveForTarget(ctx context.Context, userID, projectID *int64) (*editDatamodel.TransactionEditPermission, error)
	// Create returns internal.ErrDuplicate when another active grant for the
	// same target already exists.
	Create(ctx context.Context, p *editDatamodel.TransactionEditPermission) error
	// Deactivate flips an active row to inactive; false when the row is
	// missing or already inactive.
	Deactivate(ctx context.Context, id int64, revokedBy *int64, at time.Time) (bool, error)
	GetByID(ctx context.Context, id int64) (*editDatamodel.TransactionEditPermission, error)

	// FindValid returns an active, unexpired grant for the user, or for the
	// project when projectID is set. User grants win ties.
	FindValid(ctx context.Context, userID int64, projectID *int64, now time.Time) (*editDatamodel.TransactionEditPermission, error)
	ListActive(ctx context.Context, now time.Time) ([]*editDatamodel.TransactionEditPermission, error)
	ExpireBefore(ctx context.Context, now time.Time) (int64, error)
}

type Option func(*Service)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithWindow sets how long a new grant lasts.
func WithWindow(window time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.window = window
		}
	}
}

type Service struct {
	repo      Repository
	publisher events.Publisher
	window    time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

func NewService(repo Repository, publisher events.Publisher, logger *slog.Logger, opts ...Option) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	s := &Service{
		repo:      repo,
		publisher: publisher,
		window:    internal.DefaultEditWindow,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Grant toggles the edit permission for one target: an active grant is
// revoked, otherwise a new one is created expiring after the window. The
// decision and the write share one transaction.
func (s *Service) Grant(ctx context.Context, grantedBy int64, dto GrantDTO) (*GrantResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var result GrantResult
	err := s.repo.WithinTx(ctx, func(repo Repository) error {
		if err := s.requireTarget(ctx, repo, dto); err != nil {
			return err
		}

		now := s.now()
		existing, err := repo.FindActiveForTarget(ctx, dto.UserID, dto.ProjectID)
		if err != nil {
			return err
		}

		// An expired grant the sweep has not reached yet counts as gone.
		if existing != nil && !existing.ExpiresAt.After(now) {
			if _, err := repo.Deactivate(ctx, existing.ID, nil, now); err != nil {
				return err
			}
			existing = nil
		}

		if existing != nil {
			ok, err := repo.Deactivate(ctx, existing.ID, &grantedBy, now)
			if err != nil {
				return err
			}
			if !ok {
				return internal.ErrNotFoundOrInactive
			}
			existing.IsActive = false
			existing.RevokedBy = &grantedBy
			existing.RevokedAt = &now
			result = GrantResult{Permission: FromDataModel(existing), Toggled: true}
			return nil
		}

		p := &editDatamodel.TransactionEditPermission{
			UserID:    dto.UserID,
			ProjectID: dto.ProjectID,
			GrantedBy: grantedBy,
			GrantedAt: now,
			ExpiresAt: now.Add(s.window),
			IsActive:  true,
			Reason:    dto.Reason,
		}
		if err := repo.Create(ctx, p); err != nil {
			return err
		}
		result = GrantResult{Permission: FromDataModel(p)}
		return nil
	})
	if err != nil {
		s.logger.Warn("edit permission grant failed", "error", err, "granted_by", grantedBy)
		return nil, err
	}

	p := result.Permission
	if result.Toggled {
		s.logger.Info("edit permission toggled off", "permission_id", p.ID, "revoked_by", grantedBy)
		s.publish(ctx, events.NewEditPermissionRevokedEvent(p.ID, grantedBy, p.ProjectScoped()))
	} else {
		s.logger.Info("edit permission granted",
			"permission_id", p.ID,
			"granted_by", grantedBy,
			"expires_at", p.ExpiresAt)
		s.publish(ctx, events.NewEditPermissionGrantedEvent(p.ID, grantedBy, p.ProjectScoped()))
	}
	return &result, nil
}

func (s *Service) Revoke(ctx context.Context, id, revokedBy int64) (*Permission, error) {
	now := s.now()
	ok, err := s.repo.Deactivate(ctx, id, &revokedBy, now)
	if err != nil {
		s.logger.Error("failed to revoke edit permission", "error", err, "permission_id", id)
		return nil, err
	}
	if !ok {
		return nil, internal.ErrNotFoundOrInactive
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, internal.ErrNotFoundOrInactive
	}

	s.logger.Info("edit permission revoked", "permission_id", id, "revoked_by", revokedBy)
	permission := FromDataModel(p)
	s.publish(ctx, events.NewEditPermissionRevokedEvent(id, revokedBy, permission.ProjectScoped()))
	return permission, nil
}

// Check returns the grant that currently lets userID edit, or nil. Having no
// grant is not an error.
func (s *Service) Check(ctx context.Context, userID int64, projectID *int64) (*Permission, error) {
	p, err := s.repo.FindValid(ctx, userID, projectID, s.now())
	if err != nil {
		s.logger.Error("failed to check edit permission", "error", err, "user_id", userID)
		return nil, err
	}
	return FromDataModel(p), nil
}

// HasActiveGrant satisfies the access gate.
func (s *Service) HasActiveGrant(ctx context.Context, userID int64, projectID *int64) (bool, error) {
	p, err := s.Check(ctx, userID, projectID)
	return p != nil, err
}

func (s *Service) ListActive(ctx context.Context) ([]*Permission, error) {
	rows, err := s.repo.ListActive(ctx, s.now())
	if err != nil {
		s.logger.Error("failed to list edit permissions", "error", err)
		return nil, err
	}
	permissions := make([]*Permission, 0, len(rows))
	for _, row := range rows {
		permissions = append(permissions, FromDataModel(row))
	}
	return permissions, nil
}

// ExpireSweep deactivates every grant whose expiry has passed. Running it
// again right away finds nothing.
func (s *Service) ExpireSweep(ctx context.Context) (int64, error) {
	count, err := s.repo.ExpireBefore(ctx, s.now())
	if err != nil {
		s.logger.Error("edit permission sweep failed", "error", err)
		return 0, err
	}
	if count > 0 {
		s.logger.Info("expired edit permissions", "count", count)
		s.publish(ctx, events.NewEditPermissionsExpiredEvent(count))
	}
	return count, nil
}

func (s *Service) requireTarget(ctx context.Context, repo Repository, dto GrantDTO) error {
	if dto.UserID != nil {
		ok, err := repo.UserExists(ctx, *dto.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return internal.ErrUserNotFound
		}
		return nil
	}
	ok, err := repo.ProjectExists(ctx, *dto.ProjectID)
	if err != nil {
		return err
	}
	if !ok {
		return internal.ErrProjectNotFound
	}
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
