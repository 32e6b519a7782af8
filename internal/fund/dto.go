package fund

import (
	"github.com/frahmantamala/project-ledger/internal"
	"github.com/frahmantamala/project-ledger/internal/core/common/validation"
	transactionDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/transaction"
)

type DepositDTO struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

func (dto DepositDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("amount", dto.Amount).Positive()
	v.Field("description", dto.Description).Required().MaxLength(validation.MaxDescriptionLength)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type WithdrawDTO struct {
	Amount      int64   `json:"amount"`
	Description string  `json:"description"`
	ExpenseType *string `json:"expense_type,omitempty"`
}

func (dto WithdrawDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("amount", dto.Amount).Positive()
	v.Field("description", dto.Description).Required().MaxLength(validation.MaxDescriptionLength)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type AdminTransactionDTO struct {
	Type        string  `json:"type"`
	Amount      int64   `json:"amount"`
	Description string  `json:"description"`
	ExpenseType *string `json:"expense_type,omitempty"`
}

func (dto AdminTransactionDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("type", dto.Type).OneOf(internal.ErrCodeInvalidType, transactionDatamodel.TypeIncome, transactionDatamodel.TypeExpense)
	v.Field("amount", dto.Amount).Positive()
	v.Field("description", dto.Description).Required().MaxLength(validation.MaxDescriptionLength)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// ExpensePosting is the input of PostExpense. A nil ProjectID debits the
// admin fund.
type ExpensePosting struct {
	ProjectID   *int64
	Amount      int64
	Description string
	ExpenseType string
}

func (p ExpensePosting) Validate() error {
	v := validation.NewValidator()
	v.Field("amount", p.Amount).Positive()
	v.Field("description", p.Description).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
