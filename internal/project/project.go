package project

import (
	"time"

	projectDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/project"
	"github.com/shopspring/decimal"
)

type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Budget      int64     `json:"budget"`
	Spent       int64     `json:"spent"`
	Utilisation string    `json:"utilisation"`
	Status      string    `json:"status"`
	Progress    int       `json:"progress"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func FromDataModel(p *projectDatamodel.Project) *Project {
	if p == nil {
		return nil
	}
	return &Project{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Budget:      p.Budget,
		Spent:       p.Spent,
		Utilisation: Utilisation(p.Spent, p.Budget),
		Status:      p.Status,
		Progress:    p.Progress,
		CreatedBy:   p.CreatedBy,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// Utilisation is spent as a percentage of budget with two decimals. A project
// without a budget reports "0.00".
func Utilisation(spent, budget int64) string {
	if budget <= 0 {
		return "0.00"
	}
	return decimal.NewFromInt(spent).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(budget)).
		StringFixed(2)
}

type Assignment struct {
	UserID     int64     `json:"user_id"`
	ProjectID  int64     `json:"project_id"`
	AssignedBy int64     `json:"assigned_by"`
	AssignedAt time.Time `json:"assigned_at"`
}

func AssignmentFromDataModel(a *projectDatamodel.Assignment) *Assignment {
	return &Assignment{
		UserID:     a.UserID,
		ProjectID:  a.ProjectID,
		AssignedBy: a.AssignedBy,
		AssignedAt: a.AssignedAt,
	}
}
