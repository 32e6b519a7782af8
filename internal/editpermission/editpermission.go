package editpermission

import (
	"time"

	editDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/editpermission"
)

type Permission struct {
	ID        int64      `json:"id"`
	UserID    *int64     `json:"user_id,omitempty"`
	ProjectID *int64     `json:"project_id,omitempty"`
	GrantedBy int64      `json:"granted_by"`
	GrantedAt time.Time  `json:"granted_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	IsActive  bool       `json:"is_active"`
	RevokedBy *int64     `json:"revoked_by,omitempty"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	Reason    *string    `json:"reason,omitempty"`
}

func FromDataModel(p *editDatamodel.TransactionEditPermission) *Permission {
	if p == nil {
		return nil
	}
	return &Permission{
		ID:        p.ID,
		UserID:    p.UserID,
		ProjectID: p.ProjectID,
		GrantedBy: p.GrantedBy,
		GrantedAt: p.GrantedAt,
		ExpiresAt: p.ExpiresAt,
		IsActive:  p.IsActive,
		RevokedBy: p.RevokedBy,
		RevokedAt: p.RevokedAt,
		Reason:    p.Reason,
	}
}

// ValidAt reports whether the grant still authorizes edits at t.
func (p *Permission) ValidAt(t time.Time) bool {
	return p.IsActive && p.ExpiresAt.After(t)
}

func (p *Permission) ProjectScoped() bool {
	return p.ProjectID != nil
}

// GrantResult tells the caller which branch the toggle took. When Toggled is
// true Permission is the grant that was just revoked.
type GrantResult struct {
	Permission *Permission `json:"permission"`
	Toggled    bool        `json:"toggled"`
}
