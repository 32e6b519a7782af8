package transaction

import (
	"time"

	transactionDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/transaction"
)

type Transaction struct {
	ID          int64     `json:"id"`
	Date        time.Time `json:"date"`
	Type        string    `json:"type"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	ProjectID   *int64    `json:"project_id,omitempty"`
	EmployeeID  *int64    `json:"employee_id,omitempty"`
	ExpenseType *string   `json:"expense_type,omitempty"`
	CreatedBy   int64     `json:"created_by"`
	Archived    bool      `json:"archived"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func FromDataModel(t *transactionDatamodel.Transaction) *Transaction {
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
		EmployeeID:  t.EmployeeID,
		ExpenseType: t.ExpenseType,
		CreatedBy:   t.CreatedBy,
		Archived:    t.Archived,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
