package transaction

import "time"

const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// Transaction amounts are always positive; Type carries the direction.
type Transaction struct {
	ID          int64     `gorm:"primaryKey"`
	Date        time.Time `gorm:"column:date;not null"`
	Type        string    `gorm:"column:type;not null"`
	Amount      int64     `gorm:"column:amount;not null"`
	Description string    `gorm:"column:description;not null"`
	ProjectID   *int64    `gorm:"column:project_id;index"`
	EmployeeID  *int64    `gorm:"column:employee_id"`
	ExpenseType *string   `gorm:"column:expense_type"`
	CreatedBy   int64     `gorm:"column:created_by;not null"`
	Archived    bool      `gorm:"column:archived;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Transaction) TableName() string {
	return "transactions"
}
