package editpermission

import "time"

// TransactionEditPermission targets exactly one of UserID or ProjectID. At most
// one active row exists per user and per project.
type TransactionEditPermission struct {
	ID        int64      `gorm:"primaryKey"`
	UserID    *int64     `gorm:"column:user_id;uniqueIndex:idx_active_user_edit_permission,where:is_active = true"`
	ProjectID *int64     `gorm:"column:project_id;uniqueIndex:idx_active_project_edit_permission,where:is_active = true"`
	GrantedBy int64      `gorm:"column:granted_by;not null"`
	GrantedAt time.Time  `gorm:"column:granted_at;not null"`
	ExpiresAt time.Time  `gorm:"column:expires_at;not null;index"`
	IsActive  bool       `gorm:"column:is_active;not null"`
	RevokedBy *int64     `gorm:"column:revoked_by"`
	RevokedAt *time.Time `gorm:"column:revoked_at"`
	Reason    *string    `gorm:"column:reason"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (TransactionEditPermission) TableName() string {
	return "transaction_edit_permissions"
}
