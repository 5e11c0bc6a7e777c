package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/reactask/pkg/domain/interfaces"
	"github.com/secmon-lab/reactask/pkg/domain/model"
)

type webhookRepository struct {
	mu       sync.RWMutex
	bindings map[model.WebhookID]*model.WebhookBinding
}

var _ interfaces.WebhookRepository = &webhookRepository{}

func newWebhookRepository() *webhookRepository {
	return &webhookRepository{
		bindings: make(map[model.WebhookID]*model.WebhookBinding),
	}
}

func copyBinding(b *model.WebhookBinding) *model.WebhookBinding {
	c := *b
	if b.LastEventAt != nil {
		t := *b.LastEventAt
		c.LastEventAt = &t
	}
	return &c
}

func (r *webhookRepository) Get(ctx context.Context, id model.WebhookID) (*model.WebhookBinding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bindings[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "webhook not found", goerr.V("id", id))
	}
	return copyBinding(b), nil
}

func (r *webhookRepository) Put(ctx context.Context, binding *model.WebhookBinding) error {
	if binding == nil || binding.ID == "" {
		return goerr.New("webhook binding id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.bindings[binding.ID] = copyBinding(binding)
	return nil
}

func (r *webhookRepository) RecordEvent(ctx context.Context, id model.WebhookID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bindings[id]
	if !ok {
		return goerr.Wrap(ErrNotFound, "webhook not found", goerr.V("id", id))
	}
	b.EventCount++
	b.LastEventAt = &at
	return nil
}

type workspaceRepository struct {
	mu    sync.RWMutex
	conns map[model.WorkspaceConnectionID]model.WorkspaceConnection
}

var _ interfaces.WorkspaceRepository = &workspaceRepository{}

func newWorkspaceRepository() *workspaceRepository {
	return &workspaceRepository{
		conns: make(map[model.WorkspaceConnectionID]model.WorkspaceConnection),
	}
}

func (r *workspaceRepository) Get(ctx context.Context, id model.WorkspaceConnectionID) (*model.WorkspaceConnection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "workspace connection not found", goerr.V("id", id))
	}
	return &c, nil
}

func (r *workspaceRepository) Put(ctx context.Context, conn *model.WorkspaceConnection) error {
	if conn == nil || conn.ID == "" {
		return goerr.New("workspace connection id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[conn.ID] = *conn
	return nil
}

type emojiPreferenceRepository struct {
	mu    sync.RWMutex
	prefs map[model.UserID]model.EmojiPreference
}

var _ interfaces.EmojiPreferenceRepository = &emojiPreferenceRepository{}

func newEmojiPreferenceRepository() *emojiPreferenceRepository {
	return &emojiPreferenceRepository{
		prefs: make(map[model.UserID]model.EmojiPreference),
	}
}

func (r *emojiPreferenceRepository) Get(ctx context.Context, ownerID model.UserID) (*model.EmojiPreference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.prefs[ownerID]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "emoji preference not found", goerr.V("owner_user_id", ownerID))
	}
	return &p, nil
}

func (r *emojiPreferenceRepository) Put(ctx context.Context, pref *model.EmojiPreference) error {
	if pref == nil || pref.OwnerUserID == "" {
		return goerr.New("emoji preference owner is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs[pref.OwnerUserID] = *pref
	return nil
}

type userRepository struct {
	mu    sync.RWMutex
	users map[model.UserID]model.User
}

var _ interfaces.UserRepository = &userRepository{}

func newUserRepository() *userRepository {
	return &userRepository{
		users: make(map[model.UserID]model.User),
	}
}

func (r *userRepository) Get(ctx context.Context, id model.UserID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "user not found", goerr.V("id", id))
	}
	return &u, nil
}

func (r *userRepository) Put(ctx context.Context, user *model.User) error {
	if user == nil || user.ID == "" {
		return goerr.New("user id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[user.ID] = *user
	return nil
}
