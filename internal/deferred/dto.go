package deferred

import (
	"strings"
	"time"

	"github.com/frahmantamala/project-ledger/internal"
	"github.com/frahmantamala/project-ledger/internal/core/common/validation"
	deferredDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/deferredpayment"
)

type CreateDTO struct {
	BeneficiaryName string     `json:"beneficiary_name"`
	Description     string     `json:"description"`
	TotalAmount     int64      `json:"total_amount"`
	ProjectID       *int64     `json:"project_id,omitempty"`
	DueDate         *time.Time `json:"due_date,omitempty"`
}

func (dto *CreateDTO) Validate() error {
	dto.BeneficiaryName = strings.TrimSpace(dto.BeneficiaryName)

	v := validation.NewValidator()
	v.Field("beneficiary_name", dto.BeneficiaryName).Required().MaxLength(200)
	v.Field("description", dto.Description).MaxLength(validation.MaxDescriptionLength)
	v.Field("total_amount", dto.TotalAmount).Positive()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type PayInstallmentDTO struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description,omitempty"`
}

// ListFilter narrows List. Zero values mean no restriction.
type ListFilter struct {
	ProjectID *int64
	Status    string
	Limit     int
	Offset    int
}

func (f ListFilter) Validate() error {
	if f.Status == "" {
		return nil
	}
	v := validation.NewValidator()
	v.Field("status", f.Status).OneOf(internal.ErrCodeValidationFailed,
		deferredDatamodel.StatusPending, deferredDatamodel.StatusPartial, deferredDatamodel.StatusCompleted)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ListResponse struct {
	DeferredPayments []*DeferredPayment `json:"deferred_payments"`
}
