package fund

import "time"

const (
	KindAdmin   = "admin"
	KindProject = "project"
)

const (
	OperationDeposit      = "deposit"
	OperationWithdraw     = "withdraw"
	OperationAdminIncome  = "admin_income"
	OperationAdminExpense = "admin_expense"
)

// Fund is a balance bucket owned by exactly one of an administrator user or a
// project. Balance is in minor units.
type Fund struct {
	ID          int64     `gorm:"primaryKey"`
	Kind        string    `gorm:"column:kind;not null"`
	Balance     int64     `gorm:"column:balance;not null;default:0"`
	OwnerUserID *int64    `gorm:"column:owner_user_id;uniqueIndex"`
	ProjectID   *int64    `gorm:"column:project_id;uniqueIndex"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Fund) TableName() string {
	return "funds"
}

// LedgerEntry is the audit row written for every fund mutation.
type LedgerEntry struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	FundID        int64     `gorm:"column:fund_id;not null;index" json:"fund_id"`
	TransactionID int64     `gorm:"column:transaction_id;not null;index" json:"transaction_id"`
	Operation     string    `gorm:"column:operation;not null" json:"operation"`
	Delta         int64     `gorm:"column:delta;not null" json:"delta"`
	BalanceAfter  int64     `gorm:"column:balance_after;not null" json:"balance_after"`
	ActorID       int64     `gorm:"column:actor_id;not null" json:"actor_id"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
