package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/project-ledger/internal"
	editDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/editpermission"
	projectDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/project"
	userDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/user"
	"github.com/frahmantamala/project-ledger/internal/editpermission"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EditPermissionRepository struct {
	db *gorm.DB
}

func NewEditPermissionRepository(db *gorm.DB) editpermission.Repository {
	return &EditPermissionRepository{db: db}
}

func (r *EditPermissionRepository) WithinTx(ctx context.Context, fn func(repo editpermission.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&EditPermissionRepository{db: tx})
	})
}

func (r *EditPermissionRepository) UserExists(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("id = ?", userID).Count(&count).Error
	return count > 0, err
}

func (r *EditPermissionRepository) ProjectExists(ctx context.Context, projectID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&projectDatamodel.Project{}).Where("id = ?", projectID).Count(&count).Error
	return count > 0, err
}

func (r *EditPermissionRepository) FindActiveForTarget(ctx context.Context, userID, projectID *int64) (*editDatamodel.TransactionEditPermission, error) {
	q := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("is_active = ?", true)
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	} else {
		q = q.Where("project_id = ?", *projectID)
	}
	return first(q)
}

func (r *EditPermissionRepository) Create(ctx context.Context, p *editDatamodel.TransactionEditPermission) error {
	err := r.db.WithContext(ctx).Create(p).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return internal.NewConflictError("an active edit permission already exists for this target", internal.ErrCodeDuplicate)
	}
	return err
}

func (r *EditPermissionRepository) Deactivate(ctx context.Context, id int64, revokedBy *int64, at time.Time) (bool, error) {
	updates := map[string]interface{}{
		"is_active":  false,
		"updated_at": at,
	}
	if revokedBy != nil {
		updates["revoked_by"] = *revokedBy
		updates["revoked_at"] = at
	}
	res := r.db.WithContext(ctx).Model(&editDatamodel.TransactionEditPermission{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (r *EditPermissionRepository) GetByID(ctx context.Context, id int64) (*editDatamodel.TransactionEditPermission, error) {
	return first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *EditPermissionRepository) FindValid(ctx context.Context, userID int64, projectID *int64, now time.Time) (*editDatamodel.TransactionEditPermission, error) {
	q := r.db.WithContext(ctx).Where("is_active = ? AND expires_at > ?", true, now)
	if projectID != nil {
		q = q.Where("(user_id = ? OR project_id = ?)", userID, *projectID).
			Order("CASE WHEN user_id IS NULL THEN 1 ELSE 0 END")
	} else {
		q = q.Where("user_id = ?", userID)
	}
	return first(q)
}

func (r *EditPermissionRepository) ListActive(ctx context.Context, now time.Time) ([]*editDatamodel.TransactionEditPermission, error) {
	var rows []*editDatamodel.TransactionEditPermission
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND expires_at > ?", true, now).
		Order("expires_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *EditPermissionRepository) ExpireBefore(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&editDatamodel.TransactionEditPermission{}).
		Where("is_active = ? AND expires_at <= ?", true, now).
		Updates(map[string]interface{}{"is_active": false, "updated_at": now})
	return res.RowsAffected, res.Error
}

func first(q *gorm.DB) (*editDatamodel.TransactionEditPermission, error) {
	var p editDatamodel.TransactionEditPermission
	err := q.First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
