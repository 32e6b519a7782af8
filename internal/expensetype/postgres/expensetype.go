package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/frahmantamala/project-ledger/internal"
	expenseTypeDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/expensetype"
	projectDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/project"
	transactionDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/transaction"
	"github.com/frahmantamala/project-ledger/internal/expensetype"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExpenseTypeRepository struct {
	db *gorm.DB
}

func NewExpenseTypeRepository(db *gorm.DB) expensetype.Repository {
	return &ExpenseTypeRepository{db: db}
}

func (r *ExpenseTypeRepository) ProjectExists(ctx context.Context, projectID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&projectDatamodel.Project{}).Where("id = ?", projectID).Count(&count).Error
	return count > 0, err
}

func (r *ExpenseTypeRepository) Create(ctx context.Context, e *expenseTypeDatamodel.ExpenseType) error {
	err := r.db.WithContext(ctx).Create(e).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return internal.NewConflictError("expense type "+e.Name+" already exists", internal.ErrCodeDuplicate)
	}
	return err
}

func (r *ExpenseTypeRepository) GetByID(ctx context.Context, id int64) (*expenseTypeDatamodel.ExpenseType, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *ExpenseTypeRepository) FindByName(ctx context.Context, projectID *int64, name string) (*expenseTypeDatamodel.ExpenseType, error) {
	q := scoped(r.db.WithContext(ctx), projectID).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		Order("is_active DESC, id ASC")
	return r.first(q)
}

func (r *ExpenseTypeRepository) GetOrCreate(ctx context.Context, projectID *int64, name string) (*expenseTypeDatamodel.ExpenseType, error) {
	var result *expenseTypeDatamodel.ExpenseType
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		candidate := &expenseTypeDatamodel.ExpenseType{Name: name, ProjectID: projectID, IsActive: true}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(candidate).Error; err != nil {
			return err
		}

		// The unique indexes fold case, so the row that won the insert may
		// be spelled differently.
		e, err := r.first(scoped(tx, projectID).
			Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
			Order("is_active DESC, id ASC").
			Clauses(clause.Locking{Strength: "UPDATE"}))
		if err != nil {
			return err
		}
		if e == nil {
			return internal.ErrExpenseTypeNotFound
		}
		if !e.IsActive {
			if err := tx.Model(e).Update("is_active", true).Error; err != nil {
				return err
			}
			e.IsActive = true
		}
		result = e
		return nil
	})
	return result, err
}

func (r *ExpenseTypeRepository) Deactivate(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&expenseTypeDatamodel.ExpenseType{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	return res.RowsAffected > 0, res.Error
}

func (r *ExpenseTypeRepository) ListActive(ctx context.Context, projectID *int64) ([]*expenseTypeDatamodel.ExpenseType, error) {
	q := r.db.WithContext(ctx).Where("is_active = ?", true)
	if projectID != nil {
		q = q.Where("project_id IS NULL OR project_id = ?", *projectID)
	} else {
		q = q.Where("project_id IS NULL")
	}
	var types []*expenseTypeDatamodel.ExpenseType
	err := q.Order("name ASC").Find(&types).Error
	return types, err
}

func (r *ExpenseTypeRepository) ListAllActive(ctx context.Context) ([]*expenseTypeDatamodel.ExpenseType, error) {
	var types []*expenseTypeDatamodel.ExpenseType
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&types).Error
	return types, err
}

const expenseTotalsQuery = `
SELECT project_id, expense_type, CAST(SUM(amount) AS BIGINT) AS total, COUNT(*) AS tx_count
FROM transactions
WHERE type = ? AND archived = ?`

// ExpenseTotals runs the report aggregation through sqlx on the pool gorm
// already holds.
func (r *ExpenseTypeRepository) ExpenseTotals(ctx context.Context, scope expensetype.TotalsScope) ([]expensetype.ExpenseTotal, error) {
	sqlDB, err := r.db.WithContext(ctx).DB()
	if err != nil {
		return nil, err
	}
	db := sqlx.NewDb(sqlDB, driverName(r.db))

	query := expenseTotalsQuery
	args := []interface{}{transactionDatamodel.TypeExpense, false}
	if !scope.All {
		query += " AND project_id IN (?)"
		args = append(args, scope.ProjectIDs)
	}
	query += " GROUP BY project_id, expense_type"

	query, args, err = sqlx.In(query, args...)
	if err != nil {
		return nil, err
	}

	var totals []expensetype.ExpenseTotal
	if err := db.SelectContext(ctx, &totals, db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return totals, nil
}

func (r *ExpenseTypeRepository) first(q *gorm.DB) (*expenseTypeDatamodel.ExpenseType, error) {
	var e expenseTypeDatamodel.ExpenseType
	if err := q.First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func scoped(q *gorm.DB, projectID *int64) *gorm.DB {
	if projectID == nil {
		return q.Where("project_id IS NULL")
	}
	return q.Where("project_id = ?", *projectID)
}

// driverName picks the sqlx bind style for the dialect gorm was opened with.
func driverName(db *gorm.DB) string {
	if db.Dialector.Name() == "sqlite" {
		return "sqlite3"
	}
	return "pgx"
}
