package project

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/project-ledger/internal"
	fundDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/fund"
	projectDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/project"
)

type Repository interface {
	WithinTx(ctx context.Context, fn func(repo Repository) error) error

	Create(ctx context.Context, p *projectDatamodel.Project) error
	CreateFund(ctx context.Context, f *fundDatamodel.Fund) error
	// GetByID returns nil, nil when the project does not exist.
	GetByID(ctx context.Context, id int64) (*projectDatamodel.Project, error)
	// List returns every project when all is set, else those in ids.
	List(ctx context.Context, ids []int64, all bool, limit, offset int) ([]*projectDatamodel.Project, error)

	ActiveUserExists(ctx context.Context, userID int64) (bool, error)
	// Assign is idempotent; created is false when the row already existed.
	Assign(ctx context.Context, a *projectDatamodel.Assignment) (created bool, err error)
	Unassign(ctx context.Context, userID, projectID int64) (bool, error)
	ListAssignments(ctx context.Context, projectID int64) ([]*projectDatamodel.Assignment, error)

	// LockFund reads the project fund FOR UPDATE; nil, nil when absent.
	LockFund(ctx context.Context, projectID int64) (*fundDatamodel.Fund, error)
	DeleteFund(ctx context.Context, fundID int64) error
}

type Gate interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
	CanAccessProject(ctx context.Context, userID, projectID int64) (bool, error)
	CanManageAssignments(ctx context.Context, userID, projectID int64) (bool, error)
	AccessibleProjectIDs(ctx context.Context, userID int64) ([]int64, bool, error)
}

type Service struct {
	repo   Repository
	gate   Gate
	logger *slog.Logger
}

func NewService(repo Repository, gate Gate, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		gate:   gate,
		logger: logger,
	}
}

// Create stores the project together with its zero balance fund.
func (s *Service) Create(ctx context.Context, userID int64, dto CreateDTO) (*Project, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, userID); err != nil {
		return nil, err
	}

	p := &projectDatamodel.Project{
		Name:        dto.Name,
		Description: dto.Description,
		Budget:      dto.Budget,
		Status:      dto.Status,
		Progress:    int(dto.Progress),
		CreatedBy:   userID,
	}
	err := s.repo.WithinTx(ctx, func(repo Repository) error {
		if err := repo.Create(ctx, p); err != nil {
			return err
		}
		projectID := p.ID
		return repo.CreateFund(ctx, &fundDatamodel.Fund{Kind: fundDatamodel.KindProject, ProjectID: &projectID})
	})
	if err != nil {
		s.logger.Error("failed to create project", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to create project", err)
	}

	s.logger.Info("project created", "project_id", p.ID, "name", p.Name, "budget", p.Budget, "user_id", userID)
	return FromDataModel(p), nil
}

func (s *Service) List(ctx context.Context, userID int64, limit, offset int) ([]*Project, error) {
	ids, all, err := s.gate.AccessibleProjectIDs(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check permissions", err)
	}
	if !all && len(ids) == 0 {
		return []*Project{}, nil
	}

	rows, err := s.repo.List(ctx, ids, all, limit, offset)
	if err != nil {
		s.logger.Error("failed to list projects", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to list projects", err)
	}
	result := make([]*Project, 0, len(rows))
	for _, p := range rows {
		result = append(result, FromDataModel(p))
	}
	return result, nil
}

func (s *Service) Get(ctx context.Context, userID, projectID int64) (*Project, error) {
	ok, err := s.gate.CanAccessProject(ctx, userID, projectID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check permissions", err)
	}
	if !ok {
		return nil, internal.ErrUnauthorizedAccess
	}

	p, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, internal.NewInternalError("failed to get project", err)
	}
	if p == nil {
		return nil, internal.ErrProjectNotFound
	}
	return FromDataModel(p), nil
}

func (s *Service) Assign(ctx context.Context, userID, projectID int64, dto AssignDTO) (*Assignment, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireStaffing(ctx, userID, projectID); err != nil {
		return nil, err
	}
	if err := s.requireProject(ctx, projectID); err != nil {
		return nil, err
	}
	exists, err := s.repo.ActiveUserExists(ctx, dto.UserID)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up user", err)
	}
	if !exists {
		return nil, internal.ErrUserNotFound
	}

	a := &projectDatamodel.Assignment{UserID: dto.UserID, ProjectID: projectID, AssignedBy: userID}
	created, err := s.repo.Assign(ctx, a)
	if err != nil {
		s.logger.Error("failed to assign user", "error", err, "project_id", projectID, "assignee_id", dto.UserID)
		return nil, internal.NewInternalError("failed to assign user", err)
	}
	if created {
		s.logger.Info("user assigned to project", "project_id", projectID, "assignee_id", dto.UserID, "user_id", userID)
	}
	return AssignmentFromDataModel(a), nil
}

func (s *Service) Unassign(ctx context.Context, userID, projectID, assigneeID int64) error {
	if err := s.requireStaffing(ctx, userID, projectID); err != nil {
		return err
	}
	removed, err := s.repo.Unassign(ctx, assigneeID, projectID)
	if err != nil {
		return internal.NewInternalError("failed to unassign user", err)
	}
	if !removed {
		return internal.NewNotFoundError("assignment not found", internal.ErrCodeNotFound)
	}
	s.logger.Info("user unassigned from project", "project_id", projectID, "assignee_id", assigneeID, "user_id", userID)
	return nil
}

func (s *Service) ListAssignments(ctx context.Context, userID, projectID int64) ([]*Assignment, error) {
	ok, err := s.gate.CanAccessProject(ctx, userID, projectID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check permissions", err)
	}
	if !ok {
		return nil, internal.ErrUnauthorizedAccess
	}
	rows, err := s.repo.ListAssignments(ctx, projectID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list assignments", err)
	}
	result := make([]*Assignment, 0, len(rows))
	for _, a := range rows {
		result = append(result, AssignmentFromDataModel(a))
	}
	return result, nil
}

// DeleteFund removes the project fund. Only an empty fund can go.
func (s *Service) DeleteFund(ctx context.Context, userID, projectID int64) error {
	if err := s.requireAdmin(ctx, userID); err != nil {
		return err
	}

	err := s.repo.WithinTx(ctx, func(repo Repository) error {
		f, err := repo.LockFund(ctx, projectID)
		if err != nil {
			return err
		}
		if f == nil {
			return internal.ErrFundNotFound
		}
		if f.Balance != 0 {
			return internal.ErrFundNotEmpty
		}
		return repo.DeleteFund(ctx, f.ID)
	})
	if err != nil {
		if _, ok := internal.IsAppError(err); ok {
			s.logger.Warn("fund deletion refused", "project_id", projectID, "error", err)
			return err
		}
		s.logger.Error("failed to delete fund", "error", err, "project_id", projectID)
		return internal.NewInternalError("failed to delete fund", err)
	}

	s.logger.Info("project fund deleted", "project_id", projectID, "user_id", userID)
	return nil
}

func (s *Service) requireAdmin(ctx context.Context, userID int64) error {
	ok, err := s.gate.IsAdmin(ctx, userID)
	if err != nil {
		return internal.NewInternalError("failed to check permissions", err)
	}
	if !ok {
		return internal.ErrUnauthorizedAccess
	}
	return nil
}

func (s *Service) requireStaffing(ctx context.Context, userID, projectID int64) error {
	ok, err := s.gate.CanManageAssignments(ctx, userID, projectID)
	if err != nil {
		return internal.NewInternalError("failed to check permissions", err)
	}
	if !ok {
		s.logger.Warn("unauthorized assignment change", "user_id", userID, "project_id", projectID)
		return internal.ErrUnauthorizedAccess
	}
	return nil
}

func (s *Service) requireProject(ctx context.Context, projectID int64) error {
	p, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return internal.NewInternalError("failed to get project", err)
	}
	if p == nil {
		return internal.ErrProjectNotFound
	}
	return nil
}
