package project

import (
	"strings"

	"github.com/frahmantamala/project-ledger/internal"
	"github.com/frahmantamala/project-ledger/internal/core/common/validation"
	projectDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/project"
)

type CreateDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Budget      int64  `json:"budget"`
	Status      string `json:"status,omitempty"`
	Progress    int64  `json:"progress"`
}

func (dto *CreateDTO) Validate() error {
	dto.Name = strings.TrimSpace(dto.Name)
	if dto.Status == "" {
		dto.Status = projectDatamodel.StatusActive
	}

	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLength(200)
	v.Field("description", dto.Description).MaxLength(validation.MaxDescriptionLength)
	v.Field("budget", dto.Budget).MinInt(0, internal.ErrCodeInvalidAmount)
	v.Field("status", dto.Status).OneOf(internal.ErrCodeValidationFailed,
		projectDatamodel.StatusActive, projectDatamodel.StatusOnHold,
		projectDatamodel.StatusCompleted, projectDatamodel.StatusCancelled)
	v.Field("progress", dto.Progress).MinInt(0, internal.ErrCodeValidationFailed).MaxInt(100, internal.ErrCodeValidationFailed)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type AssignDTO struct {
	UserID int64 `json:"user_id"`
}

func (dto AssignDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("user_id", dto.UserID).MinInt(1, internal.ErrCodeValidationFailed)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ListResponse struct {
	Projects []*Project `json:"projects"`
}

type AssignmentsResponse struct {
	Assignments []*Assignment `json:"assignments"`
}
