package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/reactask/pkg/domain/interfaces"
	"github.com/secmon-lab/reactask/pkg/domain/model"
)

// ResolvedWebhook is everything the ingress path needs about a webhook id
type ResolvedWebhook struct {
	Binding    *model.WebhookBinding
	Owner      *model.User
	Connection *model.WorkspaceConnection
	Emoji      model.EmojiPreference
}

// WebhookDirectory resolves a public webhook id into its owner, credentials and
// emoji preference. Every call reads the primary store; nothing is cached, so the
// owner's Slack id is always the current value from the user record.
type WebhookDirectory struct {
	repo          interfaces.Repository
	emojiDefaults model.EmojiPreference
}

func NewWebhookDirectory(repo interfaces.Repository, emojiDefaults model.EmojiPreference) *WebhookDirectory {
	return &WebhookDirectory{
		repo:          repo,
		emojiDefaults: emojiDefaults,
	}
}

// Resolve returns ErrWebhookNotFound for a missing or inactive binding and for a
// binding whose owner or workspace connection no longer exists.
func (d *WebhookDirectory) Resolve(ctx context.Context, id model.WebhookID) (*ResolvedWebhook, error) {
	if id == "" {
		return nil, goerr.Wrap(ErrWebhookNotFound, "empty webhook id")
	}

	binding, err := d.repo.Webhook().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrWebhookNotFound, "webhook binding does not exist", goerr.V(WebhookIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get webhook binding", goerr.V(WebhookIDKey, id))
	}
	if !binding.IsActive {
		return nil, goerr.Wrap(ErrWebhookNotFound, "webhook binding is inactive", goerr.V(WebhookIDKey, id))
	}

	owner, err := d.repo.User().Get(ctx, binding.OwnerUserID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrWebhookNotFound, "webhook owner does not exist",
				goerr.V(WebhookIDKey, id), goerr.V("owner_user_id", binding.OwnerUserID))
		}
		return nil, goerr.Wrap(err, "failed to get webhook owner",
			goerr.V(WebhookIDKey, id), goerr.V("owner_user_id", binding.OwnerUserID))
	}

	conn, err := d.repo.Workspace().Get(ctx, binding.WorkspaceConnectionID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrWebhookNotFound, "workspace connection does not exist",
				goerr.V(WebhookIDKey, id), goerr.V("workspace_connection_id", binding.WorkspaceConnectionID))
		}
		return nil, goerr.Wrap(err, "failed to get workspace connection",
			goerr.V(WebhookIDKey, id), goerr.V("workspace_connection_id", binding.WorkspaceConnectionID))
	}

	var pref model.EmojiPreference
	stored, err := d.repo.EmojiPreference().Get(ctx, binding.OwnerUserID)
	switch {
	case err == nil:
		pref = *stored
	case errors.Is(err, interfaces.ErrNotFound):
		pref = model.EmojiPreference{OwnerUserID: binding.OwnerUserID}
	default:
		return nil, goerr.Wrap(err, "failed to get emoji preference",
			goerr.V(WebhookIDKey, id), goerr.V("owner_user_id", binding.OwnerUserID))
	}

	return &ResolvedWebhook{
		Binding:    binding,
		Owner:      owner,
		Connection: conn,
		Emoji:      pref.WithDefaults(d.emojiDefaults),
	}, nil
}
