package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/project-ledger/internal/access"
	projectDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/project"
	transactionDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/transaction"
	userDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type AccessRepository struct {
	db *gorm.DB
}

func NewAccessRepository(db *gorm.DB) access.Repository {
	return &AccessRepository{db: db}
}

func (r *AccessRepository) GetUser(ctx context.Context, userID int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *AccessRepository) IsAssigned(ctx context.Context, userID, projectID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&projectDatamodel.Assignment{}).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		Count(&count).Error
	return count > 0, err
}

func (r *AccessRepository) AssignedProjectIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&projectDatamodel.Assignment{}).
		Where("user_id = ?", userID).
		Order("project_id ASC").
		Pluck("project_id", &ids).Error
	return ids, err
}

func (r *AccessRepository) TransactionProjectID(ctx context.Context, transactionID int64) (*int64, bool, error) {
	var t transactionDatamodel.Transaction
	err := r.db.WithContext(ctx).Select("id", "project_id").Where("id = ?", transactionID).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return t.ProjectID, true, nil
}
