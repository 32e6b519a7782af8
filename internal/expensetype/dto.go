package expensetype

import (
	"strings"

	"github.com/frahmantamala/project-ledger/internal"
	"github.com/frahmantamala/project-ledger/internal/core/common/validation"
)

const MaxNameLength = 100

type CreateDTO struct {
	Name      string `json:"name"`
	ProjectID *int64 `json:"project_id,omitempty"`
}

func (dto *CreateDTO) Validate() error {
	dto.Name = strings.TrimSpace(dto.Name)

	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLength(MaxNameLength)
	v.Field("name", dto.Name).Custom(func(value interface{}) *internal.AppError {
		if Normalize(value.(string)) == Normalize(Unclassified) {
			return internal.NewValidationError("name is reserved", internal.ErrCodeValidationFailed)
		}
		return nil
	})
	if dto.ProjectID != nil {
		v.Field("project_id", *dto.ProjectID).MinInt(1, internal.ErrCodeValidationFailed)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ListResponse struct {
	ExpenseTypes []*ExpenseType `json:"expense_types"`
}

type ClassifyResponse struct {
	Label       string `json:"label"`
	ExpenseType string `json:"expense_type"`
}

// SummaryBucket aggregates expense transactions that classify to one type.
// Share is the percentage of the summary total, two decimals.
type SummaryBucket struct {
	ExpenseType  string `json:"expense_type"`
	Total        int64  `json:"total"`
	TotalDisplay string `json:"total_display"`
	Count        int64  `json:"count"`
	Share        string `json:"share"`
}

type Summary struct {
	ProjectID    *int64           `json:"project_id,omitempty"`
	Total        int64            `json:"total"`
	TotalDisplay string           `json:"total_display"`
	Count        int64            `json:"count"`
	Buckets      []*SummaryBucket `json:"buckets"`
}
