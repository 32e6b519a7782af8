package postgres

import (
	"context"
	"errors"

	fundDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/fund"
	projectDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/project"
	userDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/user"
	"github.com/frahmantamala/project-ledger/internal/project"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) project.Repository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) WithinTx(ctx context.Context, fn func(repo project.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ProjectRepository{db: tx})
	})
}

func (r *ProjectRepository) Create(ctx context.Context, p *projectDatamodel.Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ProjectRepository) CreateFund(ctx context.Context, f *fundDatamodel.Fund) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*projectDatamodel.Project, error) {
	var p projectDatamodel.Project
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepository) List(ctx context.Context, ids []int64, all bool, limit, offset int) ([]*projectDatamodel.Project, error) {
	q := r.db.WithContext(ctx)
	if !all {
		q = q.Where("id IN ?", ids)
	}
	var rows []*projectDatamodel.Project
	err := q.Order("id ASC").Limit(limit).Offset(offset).Find(&rows).Error
	return rows, err
}

func (r *ProjectRepository) ActiveUserExists(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("id = ? AND is_active = ?", userID, true).
		Count(&count).Error
	return count > 0, err
}

func (r *ProjectRepository) Assign(ctx context.Context, a *projectDatamodel.Assignment) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}, {Name: "project_id"}}, DoNothing: true}).
		Create(a)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	// already assigned; report the existing row
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND project_id = ?", a.UserID, a.ProjectID).
		First(a).Error
	return false, err
}

func (r *ProjectRepository) Unassign(ctx context.Context, userID, projectID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		Delete(&projectDatamodel.Assignment{})
	return res.RowsAffected > 0, res.Error
}

func (r *ProjectRepository) ListAssignments(ctx context.Context, projectID int64) ([]*projectDatamodel.Assignment, error) {
	var rows []*projectDatamodel.Assignment
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("user_id ASC").Find(&rows).Error
	return rows, err
}

func (r *ProjectRepository) LockFund(ctx context.Context, projectID int64) (*fundDatamodel.Fund, error) {
	var f fundDatamodel.Fund
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("project_id = ? AND kind = ?", projectID, fundDatamodel.KindProject).
		First(&f).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

func (r *ProjectRepository) DeleteFund(ctx context.Context, fundID int64) error {
	return r.db.WithContext(ctx).Where("id = ?", fundID).Delete(&fundDatamodel.Fund{}).Error
}
