package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/project-ledger/internal"
	fundDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/fund"
	projectDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/project"
	transactionDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/transaction"
	userDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/user"
	"github.com/frahmantamala/project-ledger/internal/fund"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FundRepository struct {
	db *gorm.DB
}

func NewFundRepository(db *gorm.DB) fund.Repository {
	return &FundRepository{db: db}
}

func (r *FundRepository) WithinTx(ctx context.Context, fn func(repo fund.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&FundRepository{db: tx})
	})
}

func (r *FundRepository) BootstrapAdminID(ctx context.Context) (int64, error) {
	var admin userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND is_active = ?", userDatamodel.RoleAdmin, true).
		Order("id ASC").
		First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, internal.ErrUserNotFound
		}
		return 0, err
	}
	return admin.ID, nil
}

func (r *FundRepository) ProjectExists(ctx context.Context, projectID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&projectDatamodel.Project{}).Where("id = ?", projectID).Count(&count).Error
	return count > 0, err
}

func (r *FundRepository) LockAdminFund(ctx context.Context, ownerID int64) (*fundDatamodel.Fund, error) {
	return r.lockWhere(ctx, "owner_user_id = ? AND kind = ?", ownerID, fundDatamodel.KindAdmin)
}

func (r *FundRepository) LockProjectFund(ctx context.Context, projectID int64) (*fundDatamodel.Fund, error) {
	return r.lockWhere(ctx, "project_id = ? AND kind = ?", projectID, fundDatamodel.KindProject)
}

func (r *FundRepository) GetOrCreateAdminFund(ctx context.Context, ownerID int64) (*fundDatamodel.Fund, error) {
	if err := r.insertIfAbsent(ctx, &fundDatamodel.Fund{Kind: fundDatamodel.KindAdmin, OwnerUserID: &ownerID}, "owner_user_id"); err != nil {
		return nil, err
	}
	f, err := r.LockAdminFund(ctx, ownerID)
	if err == nil && f == nil {
		err = internal.ErrFundNotFound
	}
	return f, err
}

func (r *FundRepository) GetOrCreateProjectFund(ctx context.Context, projectID int64) (*fundDatamodel.Fund, error) {
	if err := r.insertIfAbsent(ctx, &fundDatamodel.Fund{Kind: fundDatamodel.KindProject, ProjectID: &projectID}, "project_id"); err != nil {
		return nil, err
	}
	f, err := r.LockProjectFund(ctx, projectID)
	if err == nil && f == nil {
		err = internal.ErrFundNotFound
	}
	return f, err
}

// insertIfAbsent leaves an existing row alone, so two racing creators end up
// reading the same fund.
func (r *FundRepository) insertIfAbsent(ctx context.Context, f *fundDatamodel.Fund, ownerColumn string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: ownerColumn}}, DoNothing: true}).
		Create(f).Error
}

func (r *FundRepository) Adjust(ctx context.Context, fundID, delta int64) (*fundDatamodel.Fund, error) {
	q := r.db.WithContext(ctx).Model(&fundDatamodel.Fund{}).Where("id = ?", fundID)
	if delta < 0 {
		q = q.Where("balance >= ?", -delta)
	}
	res := q.Update("balance", gorm.Expr("balance + ?", delta))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if delta < 0 {
			return nil, fund.ErrBalanceTooLow
		}
		return nil, internal.ErrFundNotFound
	}

	var f fundDatamodel.Fund
	if err := r.db.WithContext(ctx).Where("id = ?", fundID).First(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FundRepository) AddProjectSpent(ctx context.Context, projectID, amount int64) error {
	return r.db.WithContext(ctx).Model(&projectDatamodel.Project{}).
		Where("id = ?", projectID).
		Update("spent", gorm.Expr("spent + ?", amount)).Error
}

func (r *FundRepository) CreateTransaction(ctx context.Context, t *transactionDatamodel.Transaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *FundRepository) CreateLedgerEntry(ctx context.Context, e *fundDatamodel.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *FundRepository) GetAdminFund(ctx context.Context, ownerID int64) (*fundDatamodel.Fund, error) {
	return r.findWhere(ctx, "owner_user_id = ? AND kind = ?", ownerID, fundDatamodel.KindAdmin)
}

func (r *FundRepository) GetProjectFund(ctx context.Context, projectID int64) (*fundDatamodel.Fund, error) {
	return r.findWhere(ctx, "project_id = ? AND kind = ?", projectID, fundDatamodel.KindProject)
}

func (r *FundRepository) ListLedgerEntries(ctx context.Context, fundID int64, limit, offset int) ([]*fundDatamodel.LedgerEntry, error) {
	var entries []*fundDatamodel.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("fund_id = ?", fundID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	return entries, err
}

func (r *FundRepository) lockWhere(ctx context.Context, query string, args ...interface{}) (*fundDatamodel.Fund, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), query, args...)
}

func (r *FundRepository) findWhere(ctx context.Context, query string, args ...interface{}) (*fundDatamodel.Fund, error) {
	return r.first(r.db.WithContext(ctx), query, args...)
}

func (r *FundRepository) first(db *gorm.DB, query string, args ...interface{}) (*fundDatamodel.Fund, error) {
	var f fundDatamodel.Fund
	err := db.Where(query, args...).First(&f).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}
