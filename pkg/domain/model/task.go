package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/reactask/pkg/domain/types"
)

// TaskID is a UUID v7 identifier for Task
type TaskID string

// NewTaskID generates a time-ordered TaskID
func NewTaskID() TaskID {
	return TaskID(uuid.Must(uuid.NewV7()).String())
}

// Task is a to-do item created from a Slack reaction. Deadline is nil for UrgencyLater.
type Task struct {
	ID             TaskID
	OwnerUserID    UserID
	Title          string
	Body           string
	Deadline       *time.Time
	Status         types.TaskStatus
	Urgency        types.Urgency
	ImportanceSeed int
	SourceChannel  string
	SourceTS       string
	CreatedAt      time.Time
}
