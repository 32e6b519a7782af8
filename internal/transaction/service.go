package transaction

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/project-ledger/internal"
	transactionDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/transaction"
)

type Repository interface {
	// GetByID returns nil, nil when the transaction does not exist.
	GetByID(ctx context.Context, id int64) (*transactionDatamodel.Transaction, error)
	// List returns transactions of the listed projects, or of every project
	// and none when all is set.
	List(ctx context.Context, filter ListFilter, projectIDs []int64, all bool) ([]*transactionDatamodel.Transaction, error)
	Update(ctx context.Context, id int64, changes map[string]interface{}) error
	SetArchived(ctx context.Context, id int64, archived bool) error
}

type Gate interface {
	CanAccessProject(ctx context.Context, userID, projectID int64) (bool, error)
	CanAccessTransaction(ctx context.Context, userID, transactionID int64) (bool, error)
	CanEditTransactions(ctx context.Context, userID int64, projectID *int64) (bool, error)
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

func (s *Service) List(ctx context.Context, userID int64, filter ListFilter) ([]*Transaction, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}

	var (
		ids []int64
		all bool
		err error
	)
	if filter.ProjectID != nil {
		ok, err := s.gate.CanAccessProject(ctx, userID, *filter.ProjectID)
		if err != nil {
			return nil, internal.NewInternalError("failed to check permissions", err)
		}
		if !ok {
			return nil, internal.ErrUnauthorizedAccess
		}
		ids = []int64{*filter.ProjectID}
	} else {
		ids, all, err = s.gate.AccessibleProjectIDs(ctx, userID)
		if err != nil {
			return nil, internal.NewInternalError("failed to check permissions", err)
		}
		if !all && len(ids) == 0 {
			return []*Transaction{}, nil
		}
	}

	rows, err := s.repo.List(ctx, filter, ids, all)
	if err != nil {
		s.logger.Error("failed to list transactions", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to list transactions", err)
	}
	result := make([]*Transaction, 0, len(rows))
	for _, t := range rows {
		result = append(result, FromDataModel(t))
	}
	return result, nil
}

func (s *Service) Get(ctx context.Context, userID, id int64) (*Transaction, error) {
	t, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(t), nil
}

// Update edits the descriptive fields of a transaction. Admins always may;
// others need an active edit permission for themselves or the project.
func (s *Service) Update(ctx context.Context, userID, id int64, dto UpdateDTO) (*Transaction, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	t, err := s.loadForEdit(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, id, dto.Changes()); err != nil {
		s.logger.Error("failed to update transaction", "error", err, "transaction_id", id)
		return nil, internal.NewInternalError("failed to update transaction", err)
	}
	updated, err := s.repo.GetByID(ctx, id)
	if err != nil || updated == nil {
		return nil, internal.NewInternalError("failed to reload transaction", err)
	}

	s.logger.Info("transaction updated", "transaction_id", id, "project_id", t.ProjectID, "user_id", userID)
	return FromDataModel(updated), nil
}

// Archive hides a transaction from reports. Balances are not touched.
func (s *Service) Archive(ctx context.Context, userID, id int64) (*Transaction, error) {
	t, err := s.loadForEdit(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !t.Archived {
		if err := s.repo.SetArchived(ctx, id, true); err != nil {
			s.logger.Error("failed to archive transaction", "error", err, "transaction_id", id)
			return nil, internal.NewInternalError("failed to archive transaction", err)
		}
		t.Archived = true
		s.logger.Info("transaction archived", "transaction_id", id, "user_id", userID)
	}
	return FromDataModel(t), nil
}

func (s *Service) load(ctx context.Context, userID, id int64) (*transactionDatamodel.Transaction, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get transaction", err)
	}
	if t == nil {
		return nil, internal.ErrTransactionNotFound
	}
	ok, err := s.gate.CanAccessTransaction(ctx, userID, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to check permissions", err)
	}
	if !ok {
		return nil, internal.ErrUnauthorizedAccess
	}
	return t, nil
}

func (s *Service) loadForEdit(ctx context.Context, userID, id int64) (*transactionDatamodel.Transaction, error) {
	t, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.gate.CanEditTransactions(ctx, userID, t.ProjectID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check permissions", err)
	}
	if !ok {
		s.logger.Warn("transaction edit without permission", "user_id", userID, "transaction_id", id)
		return nil, internal.ErrUnauthorizedAccess
	}
	return t, nil
}
