package expensetype

import (
	"context"
	"log/slog"
	"sort"

	"github.com/Rhymond/go-money"
	"github.com/frahmantamala/project-ledger/internal"
	expenseTypeDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/expensetype"
	"github.com/shopspring/decimal"
)

// ExpenseTotal is one row of the raw expense aggregation: the stored label
// of a group of expense transactions within one project.
type ExpenseTotal struct {
	ProjectID *int64  `db:"project_id"`
	Label     *string `db:"expense_type"`
	Total     int64   `db:"total"`
	Count     int64   `db:"tx_count"`
}

// TotalsScope narrows the aggregation. All ignores ProjectIDs and includes
// transactions without a project.
type TotalsScope struct {
	All        bool
	ProjectIDs []int64
}

type Repository interface {
	ProjectExists(ctx context.Context, projectID int64) (bool, error)

	Create(ctx context.Context, e *expenseTypeDatamodel.ExpenseType) error
	GetByID(ctx context.Context, id int64) (*expenseTypeDatamodel.ExpenseType, error)
	// FindByName matches case-insensitively in exactly the given scope,
	// active or not. nil, nil when absent.
	FindByName(ctx context.Context, projectID *int64, name string) (*expenseTypeDatamodel.ExpenseType, error)
	// GetOrCreate returns the active type called name in the scope,
	// creating or reactivating it as needed.
	GetOrCreate(ctx context.Context, projectID *int64, name string) (*expenseTypeDatamodel.ExpenseType, error)
	Deactivate(ctx context.Context, id int64) (bool, error)

	// ListActive returns the global types plus, when projectID is set, the
	// types of that project.
	ListActive(ctx context.Context, projectID *int64) ([]*expenseTypeDatamodel.ExpenseType, error)
	ListAllActive(ctx context.Context) ([]*expenseTypeDatamodel.ExpenseType, error)

	ExpenseTotals(ctx context.Context, scope TotalsScope) ([]ExpenseTotal, error)
}

type Gate interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
	CanAccessProject(ctx context.Context, userID, projectID int64) (bool, error)
	CanWriteProject(ctx context.Context, userID, projectID int64) (bool, error)
	AccessibleProjectIDs(ctx context.Context, userID int64) ([]int64, bool, error)
}

type Service struct {
	repo     Repository
	gate     Gate
	currency string
	logger   *slog.Logger
}

func NewService(repo Repository, gate Gate, currency string, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		gate:     gate,
		currency: currency,
		logger:   logger,
	}
}

// Create adds a type to a project, or a global type when ProjectID is nil.
// Global types are admin only.
func (s *Service) Create(ctx context.Context, userID int64, dto CreateDTO) (*ExpenseType, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.authorizeScope(ctx, userID, dto.ProjectID); err != nil {
		return nil, err
	}
	if dto.ProjectID != nil {
		exists, err := s.repo.ProjectExists(ctx, *dto.ProjectID)
		if err != nil {
			return nil, internal.NewInternalError("failed to check project", err)
		}
		if !exists {
			return nil, internal.ErrProjectNotFound
		}
	}

	existing, err := s.repo.FindByName(ctx, dto.ProjectID, dto.Name)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up expense type", err)
	}
	if existing != nil {
		return nil, internal.NewConflictError("expense type "+existing.Name+" already exists", internal.ErrCodeDuplicate)
	}

	e := &expenseTypeDatamodel.ExpenseType{
		Name:      dto.Name,
		ProjectID: dto.ProjectID,
		IsActive:  true,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return nil, err
		}
		s.logger.Error("failed to create expense type", "error", err, "name", dto.Name)
		return nil, internal.NewInternalError("failed to create expense type", err)
	}

	s.logger.Info("expense type created", "expense_type_id", e.ID, "name", e.Name, "project_id", e.ProjectID, "user_id", userID)
	return FromDataModel(e), nil
}

func (s *Service) List(ctx context.Context, userID int64, projectID *int64) ([]*ExpenseType, error) {
	if projectID != nil {
		ok, err := s.gate.CanAccessProject(ctx, userID, *projectID)
		if err != nil {
			return nil, internal.NewInternalError("failed to check permissions", err)
		}
		if !ok {
			return nil, internal.ErrUnauthorizedAccess
		}
	}

	types, err := s.repo.ListActive(ctx, projectID)
	if err != nil {
		s.logger.Error("failed to list expense types", "error", err)
		return nil, internal.NewInternalError("failed to list expense types", err)
	}
	result := make([]*ExpenseType, 0, len(types))
	for _, t := range types {
		result = append(result, FromDataModel(t))
	}
	return result, nil
}

// Deactivate hides a type from classification. Transactions keep their label.
func (s *Service) Deactivate(ctx context.Context, userID, id int64) error {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return internal.NewInternalError("failed to get expense type", err)
	}
	if e == nil {
		return internal.ErrExpenseTypeNotFound
	}
	if err := s.authorizeScope(ctx, userID, e.ProjectID); err != nil {
		return err
	}

	ok, err := s.repo.Deactivate(ctx, id)
	if err != nil {
		return internal.NewInternalError("failed to deactivate expense type", err)
	}
	if !ok {
		return internal.ErrExpenseTypeNotFound
	}
	s.logger.Info("expense type deactivated", "expense_type_id", id, "user_id", userID)
	return nil
}

// Classify maps a free-form label onto the canonical name of an active type,
// preferring the project scope over the global one.
func (s *Service) Classify(ctx context.Context, projectID *int64, label string) (string, error) {
	if Normalize(label) == "" {
		return Unclassified, nil
	}
	if projectID != nil {
		e, err := s.findActive(ctx, projectID, label)
		if err != nil || e != nil {
			return nameOf(e, err)
		}
	}
	e, err := s.findActive(ctx, nil, label)
	if err != nil || e != nil {
		return nameOf(e, err)
	}
	return Unclassified, nil
}

// ResolveForBeneficiary picks the type an installment to beneficiary is booked
// under: a type named after the beneficiary, else the shared deferred payments
// bucket of the same scope, created on first use.
func (s *Service) ResolveForBeneficiary(ctx context.Context, projectID *int64, beneficiary string) (string, error) {
	name, err := s.Classify(ctx, projectID, beneficiary)
	if err != nil {
		return "", err
	}
	if name != Unclassified {
		return name, nil
	}

	e, err := s.repo.GetOrCreate(ctx, projectID, DeferredPayments)
	if err != nil {
		s.logger.Error("failed to resolve deferred payments bucket", "error", err, "project_id", projectID)
		return "", internal.NewInternalError("failed to resolve expense type", err)
	}
	return e.Name, nil
}

// Summary aggregates unarchived expense transactions per classified type.
// Without a project it covers every project the caller can see.
func (s *Service) Summary(ctx context.Context, userID int64, projectID *int64) (*Summary, error) {
	var scope TotalsScope
	if projectID != nil {
		ok, err := s.gate.CanAccessProject(ctx, userID, *projectID)
		if err != nil {
			return nil, internal.NewInternalError("failed to check permissions", err)
		}
		if !ok {
			return nil, internal.ErrUnauthorizedAccess
		}
		scope.ProjectIDs = []int64{*projectID}
	} else {
		ids, all, err := s.gate.AccessibleProjectIDs(ctx, userID)
		if err != nil {
			return nil, internal.NewInternalError("failed to check permissions", err)
		}
		scope = TotalsScope{All: all, ProjectIDs: ids}
	}

	summary := &Summary{ProjectID: projectID, Buckets: []*SummaryBucket{}}
	if !scope.All && len(scope.ProjectIDs) == 0 {
		summary.TotalDisplay = s.display(0)
		return summary, nil
	}

	totals, err := s.repo.ExpenseTotals(ctx, scope)
	if err != nil {
		s.logger.Error("failed to aggregate expenses", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to build expense summary", err)
	}
	types, err := s.repo.ListAllActive(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to build expense summary", err)
	}
	c := newClassifier(types)

	byName := make(map[string]*SummaryBucket)
	for _, row := range totals {
		label := ""
		if row.Label != nil {
			label = *row.Label
		}
		name := c.classify(row.ProjectID, label)
		b, ok := byName[name]
		if !ok {
			b = &SummaryBucket{ExpenseType: name}
			byName[name] = b
			summary.Buckets = append(summary.Buckets, b)
		}
		b.Total += row.Total
		b.Count += row.Count
		summary.Total += row.Total
		summary.Count += row.Count
	}

	grand := decimal.NewFromInt(summary.Total)
	for _, b := range summary.Buckets {
		b.TotalDisplay = s.display(b.Total)
		b.Share = "0.00"
		if !grand.IsZero() {
			b.Share = decimal.NewFromInt(b.Total).Mul(decimal.NewFromInt(100)).Div(grand).StringFixed(2)
		}
	}
	sort.SliceStable(summary.Buckets, func(i, j int) bool {
		if summary.Buckets[i].Total != summary.Buckets[j].Total {
			return summary.Buckets[i].Total > summary.Buckets[j].Total
		}
		return summary.Buckets[i].ExpenseType < summary.Buckets[j].ExpenseType
	})
	summary.TotalDisplay = s.display(summary.Total)

	return summary, nil
}

func (s *Service) findActive(ctx context.Context, projectID *int64, label string) (*expenseTypeDatamodel.ExpenseType, error) {
	e, err := s.repo.FindByName(ctx, projectID, label)
	if err != nil {
		s.logger.Error("failed to classify label", "error", err, "label", label)
		return nil, internal.NewInternalError("failed to classify expense", err)
	}
	if e == nil || !e.IsActive {
		return nil, nil
	}
	return e, nil
}

func nameOf(e *expenseTypeDatamodel.ExpenseType, err error) (string, error) {
	if err != nil {
		return "", err
	}
	return e.Name, nil
}

func (s *Service) authorizeScope(ctx context.Context, userID int64, projectID *int64) error {
	var (
		ok  bool
		err error
	)
	if projectID == nil {
		ok, err = s.gate.IsAdmin(ctx, userID)
	} else {
		ok, err = s.gate.CanWriteProject(ctx, userID, *projectID)
	}
	if err != nil {
		return internal.NewInternalError("failed to check permissions", err)
	}
	if !ok {
		s.logger.Warn("unauthorized expense type change", "user_id", userID, "project_id", projectID)
		return internal.ErrUnauthorizedAccess
	}
	return nil
}

func (s *Service) display(amount int64) string {
	return money.New(amount, s.currency).Display()
}
