package postgres

import (
	"context"
	"errors"

	transactionDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/transaction"
	"github.com/frahmantamala/project-ledger/internal/transaction"
	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) transaction.Repository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*transactionDatamodel.Transaction, error) {
	var t transactionDatamodel.Transaction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) List(ctx context.Context, filter transaction.ListFilter, projectIDs []int64, all bool) ([]*transactionDatamodel.Transaction, error) {
	q := r.db.WithContext(ctx)
	if !all {
		q = q.Where("project_id IN ?", projectIDs)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if !filter.IncludeArchived {
		q = q.Where("archived = ?", false)
	}

	var rows []*transactionDatamodel.Transaction
	err := q.Order("date DESC, id DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&rows).Error
	return rows, err
}

func (r *TransactionRepository) Update(ctx context.Context, id int64, changes map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&transactionDatamodel.Transaction{}).Where("id = ?", id).Updates(changes).Error
}

func (r *TransactionRepository) SetArchived(ctx context.Context, id int64, archived bool) error {
	return r.db.WithContext(ctx).Model(&transactionDatamodel.Transaction{}).Where("id = ?", id).Update("archived", archived).Error
}
