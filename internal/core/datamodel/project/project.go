package project

import "time"

const (
	StatusActive    = "active"
	StatusOnHold    = "on_hold"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

type Project struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description"`
	Budget      int64     `gorm:"column:budget;not null;default:0"`
	Spent       int64     `gorm:"column:spent;not null;default:0"`
	Status      string    `gorm:"column:status;not null;default:active"`
	Progress    int       `gorm:"column:progress;not null;default:0"`
	CreatedBy   int64     `gorm:"column:created_by;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Project) TableName() string {
	return "projects"
}

// Assignment links a user to a project. One row per (user, project).
type Assignment struct {
	ID         int64     `gorm:"primaryKey"`
	UserID     int64     `gorm:"column:user_id;not null;uniqueIndex:idx_project_assignment"`
	ProjectID  int64     `gorm:"column:project_id;not null;uniqueIndex:idx_project_assignment"`
	AssignedBy int64     `gorm:"column:assigned_by;not null"`
	AssignedAt time.Time `gorm:"column:assigned_at;autoCreateTime"`
}

func (Assignment) TableName() string {
	return "project_assignments"
}
