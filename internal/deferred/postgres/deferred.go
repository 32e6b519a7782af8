package postgres

import (
	"context"
	"errors"

	deferredDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/deferredpayment"
	projectDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/project"
	"github.com/frahmantamala/project-ledger/internal/deferred"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DeferredPaymentRepository struct {
	db *gorm.DB
}

func NewDeferredPaymentRepository(db *gorm.DB) deferred.Repository {
	return &DeferredPaymentRepository{db: db}
}

func (r *DeferredPaymentRepository) WithinTx(ctx context.Context, fn func(repo deferred.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&DeferredPaymentRepository{db: tx})
	})
}

func (r *DeferredPaymentRepository) ProjectExists(ctx context.Context, projectID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&projectDatamodel.Project{}).Where("id = ?", projectID).Count(&count).Error
	return count > 0, err
}

func (r *DeferredPaymentRepository) Create(ctx context.Context, d *deferredDatamodel.DeferredPayment) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DeferredPaymentRepository) GetByID(ctx context.Context, id int64) (*deferredDatamodel.DeferredPayment, error) {
	return r.first(r.db.WithContext(ctx), id)
}

func (r *DeferredPaymentRepository) LockByID(ctx context.Context, id int64) (*deferredDatamodel.DeferredPayment, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

// UpdateAmounts writes the installment columns only.
func (r *DeferredPaymentRepository) UpdateAmounts(ctx context.Context, d *deferredDatamodel.DeferredPayment) error {
	return r.db.WithContext(ctx).Model(d).Select("paid_amount", "remaining_amount", "status").Updates(map[string]interface{}{
		"paid_amount":      d.PaidAmount,
		"remaining_amount": d.RemainingAmount,
		"status":           d.Status,
	}).Error
}

func (r *DeferredPaymentRepository) List(ctx context.Context, filter deferred.ListFilter, scope deferred.Scope) ([]*deferredDatamodel.DeferredPayment, error) {
	q := r.db.WithContext(ctx)
	if !scope.All {
		q = q.Where("project_id IN ?", scope.ProjectIDs)
	}
	if filter.ProjectID != nil {
		q = q.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var rows []*deferredDatamodel.DeferredPayment
	err := q.Order("id DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&rows).Error
	return rows, err
}

func (r *DeferredPaymentRepository) first(q *gorm.DB, id int64) (*deferredDatamodel.DeferredPayment, error) {
	var d deferredDatamodel.DeferredPayment
	if err := q.Where("id = ?", id).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}
