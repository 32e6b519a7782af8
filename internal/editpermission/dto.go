package editpermission

import (
	"github.com/frahmantamala/project-ledger/internal"
	"github.com/frahmantamala/project-ledger/internal/core/common/validation"
)

type GrantDTO struct {
	UserID    *int64  `json:"user_id,omitempty"`
	ProjectID *int64  `json:"project_id,omitempty"`
	Reason    *string `json:"reason,omitempty"`
}

// Validate enforces exactly one target.
func (dto GrantDTO) Validate() error {
	if (dto.UserID == nil) == (dto.ProjectID == nil) {
		return internal.ErrInvalidTarget
	}
	if dto.Reason != nil {
		v := validation.NewValidator()
		v.Field("reason", *dto.Reason).MaxLength(validation.MaxDescriptionLength)
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

type CheckResponse struct {
	HasPermission bool        `json:"has_permission"`
	Permission    *Permission `json:"permission,omitempty"`
}

type PermissionsResponse struct {
	Permissions []*Permission `json:"permissions"`
}

type SweepResponse struct {
	Expired int64 `json:"expired"`
}
