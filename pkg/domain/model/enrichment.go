package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/reactask/pkg/domain/types"
)

// EnrichmentJob is everything the background pipeline needs, captured at ingress time
type EnrichmentJob struct {
	WebhookID             WebhookID
	OwnerUserID           UserID
	WorkspaceConnectionID WorkspaceConnectionID
	AccessToken           string `masq:"secret"`
	Fingerprint           Fingerprint
	Urgency               types.Urgency
	Deadline              *time.Time
	ImportanceSeed        int
	AcceptedAt            time.Time
}

// DeadLetterID is a UUID v7 identifier for DeadLetter
type DeadLetterID string

// NewDeadLetterID generates a time-ordered DeadLetterID
func NewDeadLetterID() DeadLetterID {
	return DeadLetterID(uuid.Must(uuid.NewV7()).String())
}

// DeadLetter records an enrichment job that did not produce a task.
// The stored job never contains the access token; replay resolves it again.
type DeadLetter struct {
	ID        DeadLetterID
	Job       EnrichmentJob
	Stage     types.EnrichmentStage
	Error     string
	CreatedAt time.Time
}

// NewDeadLetter builds a dead letter for job with the credentials stripped
func NewDeadLetter(job EnrichmentJob, stage types.EnrichmentStage, err error, now time.Time) *DeadLetter {
	job.AccessToken = ""
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &DeadLetter{
		ID:        NewDeadLetterID(),
		Job:       job,
		Stage:     stage,
		Error:     msg,
		CreatedAt: now,
	}
}

// StageError tags a pipeline failure with the stage it happened in
type StageError struct {
	Stage types.EnrichmentStage
	Err   error
}

func (e *StageError) Error() string {
	return string(e.Stage) + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with stage. A nil err stays nil.
func NewStageError(stage types.EnrichmentStage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// StageOf returns the stage recorded in err, or EnrichmentStageUnknown
func StageOf(err error) types.EnrichmentStage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return types.EnrichmentStageUnknown
}
