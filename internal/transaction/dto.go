package transaction

import (
	"strings"
	"time"

	"github.com/frahmantamala/project-ledger/internal"
	"github.com/frahmantamala/project-ledger/internal/core/common/validation"
)

// UpdateDTO carries the editable fields. Amount, Type and ProjectID are
// decoded only to reject them: money moves through the fund engine.
type UpdateDTO struct {
	Description *string    `json:"description,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	ExpenseType *string    `json:"expense_type,omitempty"`
	EmployeeID  *int64     `json:"employee_id,omitempty"`

	Amount    *int64  `json:"amount,omitempty"`
	Type      *string `json:"type,omitempty"`
	ProjectID *int64  `json:"project_id,omitempty"`
}

func (dto *UpdateDTO) Validate() error {
	v := validation.NewValidator()
	immutable := func(field string, set bool) {
		v.Field(field, set).Custom(func(value interface{}) *internal.AppError {
			if value.(bool) {
				return internal.NewValidationFieldError(field, field+" cannot be changed", internal.ErrCodeValidationFailed)
			}
			return nil
		})
	}
	immutable("amount", dto.Amount != nil)
	immutable("type", dto.Type != nil)
	immutable("project_id", dto.ProjectID != nil)

	if dto.Description != nil {
		trimmed := strings.TrimSpace(*dto.Description)
		dto.Description = &trimmed
		v.Field("description", trimmed).Required().MaxLength(validation.MaxDescriptionLength)
	}
	if dto.ExpenseType != nil {
		trimmed := strings.TrimSpace(*dto.ExpenseType)
		dto.ExpenseType = &trimmed
		v.Field("expense_type", trimmed).MaxLength(100)
	}
	if dto.EmployeeID != nil {
		v.Field("employee_id", *dto.EmployeeID).MinInt(1, internal.ErrCodeValidationFailed)
	}
	if dto.Date != nil {
		v.Field("date", *dto.Date).Required()
	}
	if err := v.Validate(); err != nil {
		return err
	}
	if dto.Description == nil && dto.Date == nil && dto.ExpenseType == nil && dto.EmployeeID == nil {
		return internal.NewValidationError("nothing to update", internal.ErrCodeValidationFailed)
	}
	return nil
}

// Changes returns the column updates described by the DTO.
func (dto UpdateDTO) Changes() map[string]interface{} {
	changes := make(map[string]interface{})
	if dto.Description != nil {
		changes["description"] = *dto.Description
	}
	if dto.Date != nil {
		changes["date"] = *dto.Date
	}
	if dto.ExpenseType != nil {
		if *dto.ExpenseType == "" {
			changes["expense_type"] = nil
		} else {
			changes["expense_type"] = *dto.ExpenseType
		}
	}
	if dto.EmployeeID != nil {
		changes["employee_id"] = *dto.EmployeeID
	}
	return changes
}

type ListFilter struct {
	ProjectID       *int64
	Type            string
	IncludeArchived bool
	Limit           int
	Offset          int
}

func (f ListFilter) Validate() error {
	if f.Type == "" {
		return nil
	}
	if err := validation.ValidateTransactionType(f.Type); err != nil {
		return err
	}
	return nil
}

type ListResponse struct {
	Transactions []*Transaction `json:"transactions"`
}
