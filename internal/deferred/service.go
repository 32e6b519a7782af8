package deferred

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/project-ledger/internal"
	deferredDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/deferredpayment"
	"github.com/frahmantamala/project-ledger/internal/core/events"
	"github.com/frahmantamala/project-ledger/internal/fund"
)

// Scope limits List to the projects a caller may read. All includes payments
// without a project.
type Scope struct {
	All        bool
	ProjectIDs []int64
}

type Repository interface {
	WithinTx(ctx context.Context, fn func(repo Repository) error) error
	ProjectExists(ctx context.Context, projectID int64) (bool, error)
	Create(ctx context.Context, d *deferredDatamodel.DeferredPayment) error
	// GetByID and LockByID return nil, nil when the row is absent.
	GetByID(ctx context.Context, id int64) (*deferredDatamodel.DeferredPayment, error)
	LockByID(ctx context.Context, id int64) (*deferredDatamodel.DeferredPayment, error)
	UpdateAmounts(ctx context.Context, d *deferredDatamodel.DeferredPayment) error
	List(ctx context.Context, filter ListFilter, scope Scope) ([]*deferredDatamodel.DeferredPayment, error)
}

type Gate interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
	CanAccessProject(ctx context.Context, userID, projectID int64) (bool, error)
	CanWriteProject(ctx context.Context, userID, projectID int64) (bool, error)
	AccessibleProjectIDs(ctx context.Context, userID int64) ([]int64, bool, error)
}

// TypeResolver picks the expense type an installment is booked under.
type TypeResolver interface {
	ResolveForBeneficiary(ctx context.Context, projectID *int64, beneficiary string) (string, error)
}

// ExpensePoster books the expense transaction linked to an installment.
type ExpensePoster interface {
	PostExpense(ctx context.Context, userID int64, posting fund.ExpensePosting) (*fund.TransferResult, error)
}

type Service struct {
	repo      Repository
	gate      Gate
	types     TypeResolver
	funds     ExpensePoster
	publisher events.Publisher
	policy    OverpaymentPolicy
	logger    *slog.Logger
}

func NewService(repo Repository, gate Gate, types TypeResolver, funds ExpensePoster, publisher events.Publisher, policy OverpaymentPolicy, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if policy == "" {
		policy = PolicyReject
	}
	return &Service{
		repo:      repo,
		gate:      gate,
		types:     types,
		funds:     funds,
		publisher: publisher,
		policy:    policy,
		logger:    logger,
	}
}

func (s *Service) Create(ctx context.Context, userID int64, dto CreateDTO) (*DeferredPayment, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, userID, dto.ProjectID, true); err != nil {
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

	d := &deferredDatamodel.DeferredPayment{
		BeneficiaryName: dto.BeneficiaryName,
		Description:     dto.Description,
		TotalAmount:     dto.TotalAmount,
		PaidAmount:      0,
		RemainingAmount: dto.TotalAmount,
		Status:          deferredDatamodel.StatusPending,
		ProjectID:       dto.ProjectID,
		DueDate:         dto.DueDate,
		CreatedBy:       userID,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		s.logger.Error("failed to create deferred payment", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to create deferred payment", err)
	}

	s.logger.Info("deferred payment created",
		"deferred_payment_id", d.ID,
		"beneficiary", d.BeneficiaryName,
		"total_amount", d.TotalAmount,
		"project_id", d.ProjectID,
		"user_id", userID)
	return FromDataModel(d), nil
}

func (s *Service) Get(ctx context.Context, userID, id int64) (*DeferredPayment, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get deferred payment", err)
	}
	if d == nil {
		return nil, internal.ErrDeferredPaymentMissing
	}
	if err := s.authorize(ctx, userID, d.ProjectID, false); err != nil {
		return nil, err
	}
	return FromDataModel(d), nil
}

func (s *Service) List(ctx context.Context, userID int64, filter ListFilter) ([]*DeferredPayment, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}

	var scope Scope
	if filter.ProjectID != nil {
		if err := s.authorize(ctx, userID, filter.ProjectID, false); err != nil {
			return nil, err
		}
		scope.ProjectIDs = []int64{*filter.ProjectID}
	} else {
		ids, all, err := s.gate.AccessibleProjectIDs(ctx, userID)
		if err != nil {
			return nil, internal.NewInternalError("failed to check permissions", err)
		}
		scope = Scope{All: all, ProjectIDs: ids}
	}
	if !scope.All && len(scope.ProjectIDs) == 0 {
		return []*DeferredPayment{}, nil
	}

	rows, err := s.repo.List(ctx, filter, scope)
	if err != nil {
		s.logger.Error("failed to list deferred payments", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to list deferred payments", err)
	}
	result := make([]*DeferredPayment, 0, len(rows))
	for _, d := range rows {
		result = append(result, FromDataModel(d))
	}
	return result, nil
}

// PayInstallment records amount against the payment, then books the linked
// expense. When booking fails after the payment committed, the result is
// returned together with a partial success error.
func (s *Service) PayInstallment(ctx context.Context, userID, id int64, dto PayInstallmentDTO) (*InstallmentResult, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get deferred payment", err)
	}
	if current == nil {
		return nil, internal.ErrDeferredPaymentMissing
	}
	if err := s.authorize(ctx, userID, current.ProjectID, true); err != nil {
		return nil, err
	}
	if dto.Amount <= 0 {
		return nil, internal.ErrInvalidAmount
	}
	if err := s.checkPolicy(current, dto.Amount); err != nil {
		return nil, err
	}

	var updated *deferredDatamodel.DeferredPayment
	err = s.repo.WithinTx(ctx, func(repo Repository) error {
		d, err := repo.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if d == nil {
			return internal.ErrDeferredPaymentMissing
		}
		if err := s.checkPolicy(d, dto.Amount); err != nil {
			return err
		}
		applyInstallment(d, dto.Amount)
		if err := repo.UpdateAmounts(ctx, d); err != nil {
			return err
		}
		updated = d
		return nil
	})
	if err != nil {
		if _, ok := internal.IsAppError(err); ok {
			s.logger.Warn("installment rejected", "deferred_payment_id", id, "amount", dto.Amount, "error", err)
			return nil, err
		}
		s.logger.Error("failed to record installment", "deferred_payment_id", id, "error", err)
		return nil, internal.NewInternalError("failed to record installment", err)
	}

	result := &InstallmentResult{
		Payment: FromDataModel(updated),
		Amount:  dto.Amount,
	}
	s.logger.Info("installment recorded",
		"deferred_payment_id", id,
		"amount", dto.Amount,
		"paid_amount", updated.PaidAmount,
		"remaining_amount", updated.RemainingAmount,
		"status", updated.Status,
		"user_id", userID)

	linkErr := s.bookExpense(ctx, userID, updated, dto, result)
	s.publish(ctx, events.NewInstallmentPaidEvent(id, dto.Amount, updated.RemainingAmount, updated.Status, linkErr == nil))
	if linkErr != nil {
		s.logger.Error("installment recorded without linked expense",
			"deferred_payment_id", id,
			"amount", dto.Amount,
			"error", linkErr)
		partial := internal.NewPartialSuccessError("installment recorded but the linked expense transaction was not created", linkErr)
		if cause, ok := internal.IsAppError(linkErr); ok {
			partial.WithDetails(cause)
		}
		return result, partial
	}
	return result, nil
}

func (s *Service) bookExpense(ctx context.Context, userID int64, d *deferredDatamodel.DeferredPayment, dto PayInstallmentDTO, result *InstallmentResult) error {
	expenseType, err := s.types.ResolveForBeneficiary(ctx, d.ProjectID, d.BeneficiaryName)
	if err != nil {
		return err
	}
	result.ExpenseType = expenseType

	transfer, err := s.funds.PostExpense(ctx, userID, fund.ExpensePosting{
		ProjectID:   d.ProjectID,
		Amount:      dto.Amount,
		Description: installmentDescription(d, dto.Description),
		ExpenseType: expenseType,
	})
	if err != nil {
		return err
	}
	result.Transaction = transfer.Transaction
	return nil
}

// installmentDescription names the beneficiary and the obligation, followed
// by the caller's note when there is one.
func installmentDescription(d *deferredDatamodel.DeferredPayment, note string) string {
	description := fmt.Sprintf("Installment to %s", d.BeneficiaryName)
	if obligation := strings.TrimSpace(d.Description); obligation != "" {
		description += ": " + obligation
	}
	if note = strings.TrimSpace(note); note != "" {
		description += " (" + note + ")"
	}
	return description
}

func (s *Service) checkPolicy(d *deferredDatamodel.DeferredPayment, amount int64) error {
	if s.policy == PolicyAllow {
		return nil
	}
	if d.Status == deferredDatamodel.StatusCompleted || d.RemainingAmount <= 0 {
		return internal.NewValidationError("deferred payment is already completed", internal.ErrCodeInvalidAmount)
	}
	if amount > d.RemainingAmount {
		return internal.NewValidationError(
			fmt.Sprintf("installment of %d exceeds the remaining amount %d", amount, d.RemainingAmount),
			internal.ErrCodeInvalidAmount)
	}
	return nil
}

// authorize checks the payment's project; payments without a project belong
// to the admin fund and are admin only.
func (s *Service) authorize(ctx context.Context, userID int64, projectID *int64, write bool) error {
	var (
		ok  bool
		err error
	)
	switch {
	case projectID == nil:
		ok, err = s.gate.IsAdmin(ctx, userID)
	case write:
		ok, err = s.gate.CanWriteProject(ctx, userID, *projectID)
	default:
		ok, err = s.gate.CanAccessProject(ctx, userID, *projectID)
	}
	if err != nil {
		return internal.NewInternalError("failed to check permissions", err)
	}
	if !ok {
		s.logger.Warn("unauthorized deferred payment access", "user_id", userID, "project_id", projectID)
		return internal.ErrUnauthorizedAccess
	}
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
