package interfaces

import (
	"context"
	"time"

	"github.com/secmon-lab/reactask/pkg/domain/model"
)

// WebhookRepository persists webhook bindings
type WebhookRepository interface {
	// Get returns the binding regardless of its active flag. Returns ErrNotFound when absent.
	Get(ctx context.Context, id model.WebhookID) (*model.WebhookBinding, error)

	// Put saves a binding (upsert)
	Put(ctx context.Context, binding *model.WebhookBinding) error

	// RecordEvent increments the event counter and sets the last event time.
	// Concurrent updates are last-write-wins.
	RecordEvent(ctx context.Context, id model.WebhookID, at time.Time) error
}

// WorkspaceRepository persists linked Slack workspace credentials
type WorkspaceRepository interface {
	Get(ctx context.Context, id model.WorkspaceConnectionID) (*model.WorkspaceConnection, error)
	Put(ctx context.Context, conn *model.WorkspaceConnection) error
}

// EmojiPreferenceRepository persists per-user emoji preferences
type EmojiPreferenceRepository interface {
	// Get returns ErrNotFound when the user has no preference yet
	Get(ctx context.Context, ownerID model.UserID) (*model.EmojiPreference, error)
	Put(ctx context.Context, pref *model.EmojiPreference) error
}

// UserRepository persists application users
type UserRepository interface {
	Get(ctx context.Context, id model.UserID) (*model.User, error)
	Put(ctx context.Context, user *model.User) error
}
