package fund

import (
	"errors"
	"strconv"
	"time"

	fundDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/fund"
	transactionDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/transaction"
	"github.com/Rhymond/go-money"
)

// ErrBalanceTooLow is returned by Repository.Adjust when a debit would take
// the fund below zero. The row is left untouched.
var ErrBalanceTooLow = errors.New("fund balance below requested amount")

type Fund struct {
	ID          int64     `json:"id"`
	Kind        string    `json:"kind"`
	Balance     int64     `json:"balance"`
	OwnerUserID *int64    `json:"owner_user_id,omitempty"`
	ProjectID   *int64    `json:"project_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func FromDataModel(f *fundDatamodel.Fund) *Fund {
	if f == nil {
		return nil
	}
	return &Fund{
		ID:          f.ID,
		Kind:        f.Kind,
		Balance:     f.Balance,
		OwnerUserID: f.OwnerUserID,
		ProjectID:   f.ProjectID,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Label names the fund in user facing messages.
func (f *Fund) Label() string {
	if f.Kind == fundDatamodel.KindAdmin {
		return "admin fund"
	}
	if f.ProjectID != nil {
		return "project fund #" + strconv.FormatInt(*f.ProjectID, 10)
	}
	return "project fund"
}

type Transaction struct {
	ID          int64     `json:"id"`
	Date        time.Time `json:"date"`
	Type        string    `json:"type"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	ProjectID   *int64    `json:"project_id,omitempty"`
	ExpenseType *string   `json:"expense_type,omitempty"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

func TransactionFromDataModel(t *transactionDatamodel.Transaction) *Transaction {
	if t == nil {
		return nil
	}
	return &Transaction{
		ID:          t.ID,
		Date:        t.Date,
		Type:        t.Type,
		Amount:      t.Amount,
		Description: t.Description,
		ProjectID:   t.ProjectID,
		ExpenseType: t.ExpenseType,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt,
	}
}

// TransferResult is returned by every fund mutation. AdminFund or
// ProjectFund is nil when the operation did not touch it.
type TransferResult struct {
	AdminFund   *Fund        `json:"admin_fund,omitempty"`
	ProjectFund *Fund        `json:"project_fund,omitempty"`
	Transaction *Transaction `json:"transaction"`
}

// formatAmount renders minor units in the ledger currency, e.g. "Rp200.000,00".
func formatAmount(amount int64, currency string) string {
	return money.New(amount, currency).Display()
}
