package fund

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/project-ledger/internal"
	"github.com/frahmantamala/project-ledger/internal/core/events"
	fundDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/fund"
	transactionDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/transaction"
)

// Repository is the fund store. Every method except WithinTx runs on the
// handle it was obtained from; inside WithinTx that is the open transaction.
type Repository interface {
	WithinTx(ctx context.Context, fn func(repo Repository) error) error

	// BootstrapAdminID returns the oldest active admin, or
	// internal.ErrUserNotFound when there is none.
	BootstrapAdminID(ctx context.Context) (int64, error)
	ProjectExists(ctx context.Context, projectID int64) (bool, error)

	// Lock* read the fund row FOR UPDATE; nil, nil when absent.
	LockAdminFund(ctx context.Context, ownerID int64) (*fundDatamodel.Fund, error)
	LockProjectFund(ctx context.Context, projectID int64) (*fundDatamodel.Fund, error)
	// GetOrCreate* insert a zero balance fund when none exists and return the
	// locked row.
	GetOrCreateAdminFund(ctx context.Context, ownerID int64) (*fundDatamodel.Fund, error)
	GetOrCreateProjectFund(ctx context.Context, projectID int64) (*fundDatamodel.Fund, error)

	// Adjust applies delta to the balance. A negative delta only applies when
	// the balance covers it, otherwise ErrBalanceTooLow.
	Adjust(ctx context.Context, fundID, delta int64) (*fundDatamodel.Fund, error)
	AddProjectSpent(ctx context.Context, projectID, amount int64) error

	CreateTransaction(ctx context.Context, t *transactionDatamodel.Transaction) error
	CreateLedgerEntry(ctx context.Context, e *fundDatamodel.LedgerEntry) error

	GetAdminFund(ctx context.Context, ownerID int64) (*fundDatamodel.Fund, error)
	GetProjectFund(ctx context.Context, projectID int64) (*fundDatamodel.Fund, error)
	ListLedgerEntries(ctx context.Context, fundID int64, limit, offset int) ([]*fundDatamodel.LedgerEntry, error)
}

// Gate is the slice of the access gate the engine consults.
type Gate interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
	CanAccessProject(ctx context.Context, userID, projectID int64) (bool, error)
	CanWriteProject(ctx context.Context, userID, projectID int64) (bool, error)
}

type Service struct {
	repo      Repository
	gate      Gate
	publisher events.Publisher
	currency  string
	now       func() time.Time
	logger    *slog.Logger
}

func NewService(repo Repository, gate Gate, publisher events.Publisher, currency string, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		repo:      repo,
		gate:      gate,
		publisher: publisher,
		currency:  currency,
		now:       time.Now,
		logger:    logger,
	}
}

// Deposit moves amount from the bootstrap admin fund into the project fund,
// creating the project fund on first use.
func (s *Service) Deposit(ctx context.Context, userID, projectID int64, dto DepositDTO) (*TransferResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.authorizeProjectWrite(ctx, userID, projectID); err != nil {
		return nil, err
	}

	var result TransferResult
	err := s.repo.WithinTx(ctx, func(repo Repository) error {
		if err := s.requireProject(ctx, repo, projectID); err != nil {
			return err
		}

		adminID, err := repo.BootstrapAdminID(ctx)
		if err != nil {
			return err
		}
		adminFund, err := repo.LockAdminFund(ctx, adminID)
		if err != nil {
			return err
		}
		if adminFund == nil {
			return s.insufficient(&fundDatamodel.Fund{Kind: fundDatamodel.KindAdmin}, dto.Amount)
		}
		if adminFund.Balance < dto.Amount {
			return s.insufficient(adminFund, dto.Amount)
		}

		projectFund, err := repo.GetOrCreateProjectFund(ctx, projectID)
		if err != nil {
			return err
		}

		adminFund, err = s.adjust(ctx, repo, adminFund, -dto.Amount)
		if err != nil {
			return err
		}
		projectFund, err = s.adjust(ctx, repo, projectFund, dto.Amount)
		if err != nil {
			return err
		}

		txn := &transactionDatamodel.Transaction{
			Date:        s.now(),
			Type:        transactionDatamodel.TypeIncome,
			Amount:      dto.Amount,
			Description: dto.Description,
			ProjectID:   &projectID,
			CreatedBy:   userID,
		}
		if err := repo.CreateTransaction(ctx, txn); err != nil {
			return err
		}

		if err := s.record(ctx, repo, adminFund, txn.ID, fundDatamodel.OperationDeposit, -dto.Amount, userID); err != nil {
			return err
		}
		if err := s.record(ctx, repo, projectFund, txn.ID, fundDatamodel.OperationDeposit, dto.Amount, userID); err != nil {
			return err
		}

		result = TransferResult{
			AdminFund:   FromDataModel(adminFund),
			ProjectFund: FromDataModel(projectFund),
			Transaction: TransactionFromDataModel(txn),
		}
		return nil
	})
	if err != nil {
		s.logFailure("deposit failed", err, "user_id", userID, "project_id", projectID, "amount", dto.Amount)
		return nil, err
	}

	s.logger.Info("deposit completed",
		"user_id", userID,
		"project_id", projectID,
		"amount", dto.Amount,
		"transaction_id", result.Transaction.ID,
		"admin_balance", result.AdminFund.Balance,
		"project_balance", result.ProjectFund.Balance)
	s.publish(ctx, events.NewFundDepositedEvent(result.Transaction.ID, projectID, userID, dto.Amount))

	return &result, nil
}

// Withdraw debits the project fund and records an expense against the project.
func (s *Service) Withdraw(ctx context.Context, userID, projectID int64, dto WithdrawDTO) (*TransferResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.authorizeProjectWrite(ctx, userID, projectID); err != nil {
		return nil, err
	}

	var result TransferResult
	err := s.repo.WithinTx(ctx, func(repo Repository) error {
		if err := s.requireProject(ctx, repo, projectID); err != nil {
			return err
		}
		projectFund, txn, err := s.debitProject(ctx, repo, userID, projectID, dto.Amount, dto.Description, dto.ExpenseType, fundDatamodel.OperationWithdraw)
		if err != nil {
			return err
		}
		result = TransferResult{
			ProjectFund: FromDataModel(projectFund),
			Transaction: TransactionFromDataModel(txn),
		}
		return nil
	})
	if err != nil {
		s.logFailure("withdraw failed", err, "user_id", userID, "project_id", projectID, "amount", dto.Amount)
		return nil, err
	}

	s.logger.Info("withdraw completed",
		"user_id", userID,
		"project_id", projectID,
		"amount", dto.Amount,
		"transaction_id", result.Transaction.ID,
		"project_balance", result.ProjectFund.Balance)
	s.publish(ctx, events.NewFundWithdrawnEvent(result.Transaction.ID, projectID, userID, dto.Amount))

	return &result, nil
}

// AdminTransaction books income or expense on the bootstrap admin fund, the
// same fund deposits draw from, whichever admin calls it. Income creates the
// fund lazily.
func (s *Service) AdminTransaction(ctx context.Context, userID int64, dto AdminTransactionDTO) (*TransferResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	isAdmin, err := s.gate.IsAdmin(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check permissions", err)
	}
	if !isAdmin {
		s.logger.Warn("non-admin attempted admin transaction", "user_id", userID)
		return nil, internal.ErrUnauthorizedAccess
	}

	var result TransferResult
	err = s.repo.WithinTx(ctx, func(repo Repository) error {
		var (
			adminFund *fundDatamodel.Fund
			err       error
			delta     = dto.Amount
			operation = fundDatamodel.OperationAdminIncome
		)

		ownerID, err := repo.BootstrapAdminID(ctx)
		if err != nil {
			return err
		}

		if dto.Type == transactionDatamodel.TypeIncome {
			adminFund, err = repo.GetOrCreateAdminFund(ctx, ownerID)
			if err != nil {
				return err
			}
		} else {
			delta = -dto.Amount
			operation = fundDatamodel.OperationAdminExpense
			adminFund, err = repo.LockAdminFund(ctx, ownerID)
			if err != nil {
				return err
			}
			if adminFund == nil {
				return s.insufficient(&fundDatamodel.Fund{Kind: fundDatamodel.KindAdmin}, dto.Amount)
			}
			if adminFund.Balance < dto.Amount {
				return s.insufficient(adminFund, dto.Amount)
			}
		}

		adminFund, err = s.adjust(ctx, repo, adminFund, delta)
		if err != nil {
			return err
		}

		txn := &transactionDatamodel.Transaction{
			Date:        s.now(),
			Type:        dto.Type,
			Amount:      dto.Amount,
			Description: dto.Description,
			ExpenseType: dto.ExpenseType,
			CreatedBy:   userID,
		}
		if err := repo.CreateTransaction(ctx, txn); err != nil {
			return err
		}
		if err := s.record(ctx, repo, adminFund, txn.ID, operation, delta, userID); err != nil {
			return err
		}

		result = TransferResult{
			AdminFund:   FromDataModel(adminFund),
			Transaction: TransactionFromDataModel(txn),
		}
		return nil
	})
	if err != nil {
		s.logFailure("admin transaction failed", err, "user_id", userID, "type", dto.Type, "amount", dto.Amount)
		return nil, err
	}

	s.logger.Info("admin transaction completed",
		"user_id", userID,
		"type", dto.Type,
		"amount", dto.Amount,
		"transaction_id", result.Transaction.ID,
		"admin_balance", result.AdminFund.Balance)
	s.publish(ctx, events.NewAdminTransactionEvent(result.Transaction.ID, userID, dto.Type, dto.Amount))

	return &result, nil
}

// PostExpense is the withdraw primitive without an access check. It debits
// the project fund, or the bootstrap admin fund when ProjectID is nil.
// Callers authorize before calling.
func (s *Service) PostExpense(ctx context.Context, userID int64, posting ExpensePosting) (*TransferResult, error) {
	if err := posting.Validate(); err != nil {
		return nil, err
	}

	expenseType := posting.ExpenseType
	var result TransferResult
	err := s.repo.WithinTx(ctx, func(repo Repository) error {
		if posting.ProjectID != nil {
			projectFund, txn, err := s.debitProject(ctx, repo, userID, *posting.ProjectID, posting.Amount, posting.Description, &expenseType, fundDatamodel.OperationWithdraw)
			if err != nil {
				return err
			}
			result = TransferResult{ProjectFund: FromDataModel(projectFund), Transaction: TransactionFromDataModel(txn)}
			return nil
		}

		adminID, err := repo.BootstrapAdminID(ctx)
		if err != nil {
			return err
		}
		adminFund, err := repo.LockAdminFund(ctx, adminID)
		if err != nil {
			return err
		}
		if adminFund == nil {
			return s.insufficient(&fundDatamodel.Fund{Kind: fundDatamodel.KindAdmin}, posting.Amount)
		}
		if adminFund.Balance < posting.Amount {
			return s.insufficient(adminFund, posting.Amount)
		}
		adminFund, err = s.adjust(ctx, repo, adminFund, -posting.Amount)
		if err != nil {
			return err
		}
		txn := &transactionDatamodel.Transaction{
			Date:        s.now(),
			Type:        transactionDatamodel.TypeExpense,
			Amount:      posting.Amount,
			Description: posting.Description,
			ExpenseType: &expenseType,
			CreatedBy:   userID,
		}
		if err := repo.CreateTransaction(ctx, txn); err != nil {
			return err
		}
		if err := s.record(ctx, repo, adminFund, txn.ID, fundDatamodel.OperationAdminExpense, -posting.Amount, userID); err != nil {
			return err
		}
		result = TransferResult{AdminFund: FromDataModel(adminFund), Transaction: TransactionFromDataModel(txn)}
		return nil
	})
	if err != nil {
		s.logFailure("expense posting failed", err, "user_id", userID, "amount", posting.Amount)
		return nil, err
	}

	s.logger.Info("expense posted",
		"user_id", userID,
		"amount", posting.Amount,
		"transaction_id", result.Transaction.ID,
		"expense_type", expenseType)

	var projectID int64
	if posting.ProjectID != nil {
		projectID = *posting.ProjectID
	}
	s.publish(ctx, events.NewFundWithdrawnEvent(result.Transaction.ID, projectID, userID, posting.Amount))

	return &result, nil
}

func (s *Service) GetProjectFund(ctx context.Context, userID, projectID int64) (*Fund, error) {
	ok, err := s.gate.CanAccessProject(ctx, userID, projectID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check permissions", err)
	}
	if !ok {
		return nil, internal.ErrUnauthorizedAccess
	}

	f, err := s.repo.GetProjectFund(ctx, projectID)
	if err != nil {
		s.logger.Error("failed to get project fund", "error", err, "project_id", projectID)
		return nil, err
	}
	if f == nil {
		return nil, internal.ErrFundNotFound
	}
	return FromDataModel(f), nil
}

// GetAdminFund returns the bootstrap admin fund. Admins only.
func (s *Service) GetAdminFund(ctx context.Context, userID int64) (*Fund, error) {
	isAdmin, err := s.gate.IsAdmin(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check permissions", err)
	}
	if !isAdmin {
		return nil, internal.ErrUnauthorizedAccess
	}

	adminID, err := s.repo.BootstrapAdminID(ctx)
	if err != nil {
		return nil, err
	}
	f, err := s.repo.GetAdminFund(ctx, adminID)
	if err != nil {
		s.logger.Error("failed to get admin fund", "error", err, "owner_user_id", adminID)
		return nil, err
	}
	if f == nil {
		return nil, internal.ErrFundNotFound
	}
	return FromDataModel(f), nil
}

func (s *Service) ListProjectLedger(ctx context.Context, userID, projectID int64, limit, offset int) ([]*fundDatamodel.LedgerEntry, error) {
	f, err := s.GetProjectFund(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListLedgerEntries(ctx, f.ID, limit, offset)
}

func (s *Service) debitProject(ctx context.Context, repo Repository, userID, projectID, amount int64, description string, expenseType *string, operation string) (*fundDatamodel.Fund, *transactionDatamodel.Transaction, error) {
	projectFund, err := repo.LockProjectFund(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	if projectFund == nil {
		return nil, nil, s.insufficient(&fundDatamodel.Fund{Kind: fundDatamodel.KindProject, ProjectID: &projectID}, amount)
	}
	if projectFund.Balance < amount {
		return nil, nil, s.insufficient(projectFund, amount)
	}

	projectFund, err = s.adjust(ctx, repo, projectFund, -amount)
	if err != nil {
		return nil, nil, err
	}
	if err := repo.AddProjectSpent(ctx, projectID, amount); err != nil {
		return nil, nil, err
	}

	txn := &transactionDatamodel.Transaction{
		Date:        s.now(),
		Type:        transactionDatamodel.TypeExpense,
		Amount:      amount,
		Description: description,
		ProjectID:   &projectID,
		ExpenseType: expenseType,
		CreatedBy:   userID,
	}
	if err := repo.CreateTransaction(ctx, txn); err != nil {
		return nil, nil, err
	}
	if err := s.record(ctx, repo, projectFund, txn.ID, operation, -amount, userID); err != nil {
		return nil, nil, err
	}
	return projectFund, txn, nil
}

func (s *Service) adjust(ctx context.Context, repo Repository, f *fundDatamodel.Fund, delta int64) (*fundDatamodel.Fund, error) {
	updated, err := repo.Adjust(ctx, f.ID, delta)
	if errors.Is(err, ErrBalanceTooLow) {
		return nil, s.insufficient(f, -delta)
	}
	return updated, err
}

func (s *Service) record(ctx context.Context, repo Repository, f *fundDatamodel.Fund, transactionID int64, operation string, delta, actorID int64) error {
	return repo.CreateLedgerEntry(ctx, &fundDatamodel.LedgerEntry{
		FundID:        f.ID,
		TransactionID: transactionID,
		Operation:     operation,
		Delta:         delta,
		BalanceAfter:  f.Balance,
		ActorID:       actorID,
	})
}

func (s *Service) insufficient(f *fundDatamodel.Fund, requested int64) error {
	return internal.NewInsufficientFundsError(
		FromDataModel(f).Label(),
		formatAmount(f.Balance, s.currency),
		formatAmount(requested, s.currency),
	)
}

func (s *Service) authorizeProjectWrite(ctx context.Context, userID, projectID int64) error {
	ok, err := s.gate.CanWriteProject(ctx, userID, projectID)
	if err != nil {
		return internal.NewInternalError("failed to check permissions", err)
	}
	if !ok {
		s.logger.Warn("unauthorized fund access", "user_id", userID, "project_id", projectID)
		return internal.ErrUnauthorizedAccess
	}
	return nil
}

func (s *Service) requireProject(ctx context.Context, repo Repository, projectID int64) error {
	exists, err := repo.ProjectExists(ctx, projectID)
	if err != nil {
		return err
	}
	if !exists {
		return internal.ErrProjectNotFound
	}
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

// logFailure keeps expected business rejections at warn level.
func (s *Service) logFailure(msg string, err error, args ...any) {
	args = append(args, "error", err)
	if appErr, ok := internal.IsAppError(err); ok && appErr.StatusCode < 500 {
		s.logger.Warn(msg, args...)
		return
	}
	s.logger.Error(msg, args...)
}
