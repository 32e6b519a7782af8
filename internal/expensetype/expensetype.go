package expensetype

import (
	"strings"
	"time"

	expenseTypeDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/expensetype"
)

const (
	// Unclassified is the bucket for labels that match no active type.
	Unclassified = "Unclassified"
	// DeferredPayments is the shared bucket for installments whose
	// beneficiary has no type of its own.
	DeferredPayments = "Deferred Payments"
)

type ExpenseType struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ProjectID *int64    `json:"project_id,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func FromDataModel(e *expenseTypeDatamodel.ExpenseType) *ExpenseType {
	if e == nil {
		return nil
	}
	return &ExpenseType{
		ID:        e.ID,
		Name:      e.Name,
		ProjectID: e.ProjectID,
		IsActive:  e.IsActive,
		CreatedAt: e.CreatedAt,
	}
}

func (e *ExpenseType) IsGlobal() bool {
	return e.ProjectID == nil
}

// Normalize is the comparison form of a label.
func Normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// classifier resolves labels against a snapshot of active types. Project
// scoped names shadow global ones.
type classifier struct {
	global  map[string]string
	project map[int64]map[string]string
}

func newClassifier(types []*expenseTypeDatamodel.ExpenseType) *classifier {
	c := &classifier{
		global:  make(map[string]string),
		project: make(map[int64]map[string]string),
	}
	for _, t := range types {
		key := Normalize(t.Name)
		if t.ProjectID == nil {
			c.global[key] = t.Name
			continue
		}
		scoped, ok := c.project[*t.ProjectID]
		if !ok {
			scoped = make(map[string]string)
			c.project[*t.ProjectID] = scoped
		}
		scoped[key] = t.Name
	}
	return c
}

func (c *classifier) classify(projectID *int64, label string) string {
	key := Normalize(label)
	if key == "" {
		return Unclassified
	}
	if projectID != nil {
		if name, ok := c.project[*projectID][key]; ok {
			return name
		}
	}
	if name, ok := c.global[key]; ok {
		return name
	}
	return Unclassified
}
