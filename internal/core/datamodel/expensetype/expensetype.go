package expensetype

import "time"

// ExpenseType names are unique per project; global types have a nil
// ProjectID and are unique among themselves.
type ExpenseType struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:idx_expense_types_project_name,where:project_id IS NOT NULL;uniqueIndex:idx_expense_types_global_name,where:project_id IS NULL"`
	ProjectID *int64    `gorm:"column:project_id;uniqueIndex:idx_expense_types_project_name,where:project_id IS NOT NULL"`
	IsActive  bool      `gorm:"column:is_active"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ExpenseType) TableName() string {
	return "expense_types"
}
