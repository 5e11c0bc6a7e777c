package types

// TaskStatus represents the lifecycle state of a task
type TaskStatus string

const (
	TaskStatusOpen TaskStatus = "open"
	TaskStatusDone TaskStatus = "done"
)

// IsValid checks if the task status is valid
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusOpen, TaskStatusDone:
		return true
	default:
		return false
	}
}

// Normalize returns the status, treating empty as TaskStatusOpen
func (s TaskStatus) Normalize() TaskStatus {
	if s == "" {
		return TaskStatusOpen
	}
	return s
}

func (s TaskStatus) String() string {
	return string(s)
}
