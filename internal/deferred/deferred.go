package deferred

import (
	"fmt"
	"time"

	deferredDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/deferredpayment"
	"github.com/frahmantamala/project-ledger/internal/fund"
)

// OverpaymentPolicy decides what happens when an installment exceeds the
// remaining amount.
type OverpaymentPolicy string

const (
	// PolicyReject refuses installments above the remaining amount and any
	// installment on a completed payment.
	PolicyReject OverpaymentPolicy = "reject"
	// PolicyAllow accepts them; the remaining amount goes negative.
	PolicyAllow OverpaymentPolicy = "allow"
)

func ParsePolicy(s string) (OverpaymentPolicy, error) {
	switch OverpaymentPolicy(s) {
	case "", PolicyReject:
		return PolicyReject, nil
	case PolicyAllow:
		return PolicyAllow, nil
	}
	return "", fmt.Errorf("unknown overpayment policy %q", s)
}

type DeferredPayment struct {
	ID              int64      `json:"id"`
	BeneficiaryName string     `json:"beneficiary_name"`
	Description     string     `json:"description"`
	TotalAmount     int64      `json:"total_amount"`
	PaidAmount      int64      `json:"paid_amount"`
	RemainingAmount int64      `json:"remaining_amount"`
	Status          string     `json:"status"`
	ProjectID       *int64     `json:"project_id,omitempty"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	CreatedBy       int64      `json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func FromDataModel(d *deferredDatamodel.DeferredPayment) *DeferredPayment {
	if d == nil {
		return nil
	}
	return &DeferredPayment{
		ID:              d.ID,
		BeneficiaryName: d.BeneficiaryName,
		Description:     d.Description,
		TotalAmount:     d.TotalAmount,
		PaidAmount:      d.PaidAmount,
		RemainingAmount: d.RemainingAmount,
		Status:          d.Status,
		ProjectID:       d.ProjectID,
		DueDate:         d.DueDate,
		CreatedBy:       d.CreatedBy,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

// applyInstallment books amount on d. paid + remaining stays equal to total
// and the status follows the remaining amount.
func applyInstallment(d *deferredDatamodel.DeferredPayment, amount int64) {
	d.PaidAmount += amount
	d.RemainingAmount = d.TotalAmount - d.PaidAmount
	d.Status = statusFor(d)
}

func statusFor(d *deferredDatamodel.DeferredPayment) string {
	switch {
	case d.RemainingAmount <= 0:
		return deferredDatamodel.StatusCompleted
	case d.PaidAmount > 0:
		return deferredDatamodel.StatusPartial
	default:
		return deferredDatamodel.StatusPending
	}
}

// InstallmentResult is what PayInstallment returns. Transaction is nil when
// the linked expense could not be booked.
type InstallmentResult struct {
	Payment     *DeferredPayment  `json:"payment"`
	Amount      int64             `json:"amount"`
	ExpenseType string            `json:"expense_type,omitempty"`
	Transaction *fund.Transaction `json:"transaction,omitempty"`
}
