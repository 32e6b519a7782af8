package deferredpayment

import "time"

const (
	StatusPending   = "pending"
	StatusPartial   = "partial"
	StatusCompleted = "completed"
)

type DeferredPayment struct {
	ID              int64      `gorm:"primaryKey"`
	BeneficiaryName string     `gorm:"column:beneficiary_name;not null"`
	Description     string     `gorm:"column:description"`
	TotalAmount     int64      `gorm:"column:total_amount;not null"`
	PaidAmount      int64      `gorm:"column:paid_amount;not null;default:0"`
	RemainingAmount int64      `gorm:"column:remaining_amount;not null"`
	Status          string     `gorm:"column:status;not null;default:pending"`
	ProjectID       *int64     `gorm:"column:project_id;index"`
	DueDate         *time.Time `gorm:"column:due_date"`
	CreatedBy       int64      `gorm:"column:created_by;not null"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (DeferredPayment) TableName() string {
	return "deferred_payments"
}
