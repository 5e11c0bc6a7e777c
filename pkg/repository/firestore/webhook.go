package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/reactask/pkg/domain/interfaces"
	"github.com/secmon-lab/reactask/pkg/domain/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type webhookRepository struct {
	cols *collections
}

var _ interfaces.WebhookRepository = &webhookRepository{}

// webhookDoc is the Firestore persistence model
type webhookDoc struct {
	ID                    string     `firestore:"id"`
	Secret                string     `firestore:"secret"`
	OwnerUserID           string     `firestore:"owner_user_id"`
	WorkspaceConnectionID string     `firestore:"workspace_connection_id"`
	IsActive              bool       `firestore:"is_active"`
	EventCount            int64      `firestore:"event_count"`
	LastEventAt           *time.Time `firestore:"last_event_at"`
	CreatedAt             time.Time  `firestore:"created_at"`
}

func (r *webhookRepository) collection() *firestore.CollectionRef {
	return r.cols.get(webhooksCollection)
}

func (r *webhookRepository) Get(ctx context.Context, id model.WebhookID) (*model.WebhookBinding, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "webhook not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get webhook", goerr.V("id", id))
	}

	var d webhookDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal webhook", goerr.V("id", id))
	}

	return &model.WebhookBinding{
		ID:                    model.WebhookID(d.ID),
		Secret:                d.Secret,
		OwnerUserID:           model.UserID(d.OwnerUserID),
		WorkspaceConnectionID: model.WorkspaceConnectionID(d.WorkspaceConnectionID),
		IsActive:              d.IsActive,
		EventCount:            d.EventCount,
		LastEventAt:           d.LastEventAt,
		CreatedAt:             d.CreatedAt,
	}, nil
}

func (r *webhookRepository) Put(ctx context.Context, b *model.WebhookBinding) error {
	if b == nil || b.ID == "" {
		return goerr.New("webhook binding id is required")
	}

	d := &webhookDoc{
		ID:                    string(b.ID),
		Secret:                b.Secret,
		OwnerUserID:           string(b.OwnerUserID),
		WorkspaceConnectionID: string(b.WorkspaceConnectionID),
		IsActive:              b.IsActive,
		EventCount:            b.EventCount,
		LastEventAt:           b.LastEventAt,
		CreatedAt:             b.CreatedAt,
	}
	if _, err := r.collection().Doc(string(b.ID)).Set(ctx, d); err != nil {
		return goerr.Wrap(err, "failed to put webhook", goerr.V("id", b.ID))
	}
	return nil
}

func (r *webhookRepository) RecordEvent(ctx context.Context, id model.WebhookID, at time.Time) error {
	_, err := r.collection().Doc(string(id)).Update(ctx, []firestore.Update{
		{Path: "event_count", Value: firestore.Increment(1)},
		{Path: "last_event_at", Value: at},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "webhook not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to record webhook event", goerr.V("id", id))
	}
	return nil
}

type workspaceRepository struct {
	cols *collections
}

var _ interfaces.WorkspaceRepository = &workspaceRepository{}

type workspaceDoc struct {
	ID            string `firestore:"id"`
	OwnerUserID   string `firestore:"owner_user_id"`
	WorkspaceID   string `firestore:"workspace_id"`
	WorkspaceName string `firestore:"workspace_name"`
	AccessToken   string `firestore:"access_token"`
	Scope         string `firestore:"scope"`
}

func (r *workspaceRepository) collection() *firestore.CollectionRef {
	return r.cols.get(workspacesCollection)
}

func (r *workspaceRepository) Get(ctx context.Context, id model.WorkspaceConnectionID) (*model.WorkspaceConnection, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "workspace connection not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get workspace connection", goerr.V("id", id))
	}

	var d workspaceDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal workspace connection", goerr.V("id", id))
	}

	return &model.WorkspaceConnection{
		ID:            model.WorkspaceConnectionID(d.ID),
		OwnerUserID:   model.UserID(d.OwnerUserID),
		WorkspaceID:   d.WorkspaceID,
		WorkspaceName: d.WorkspaceName,
		AccessToken:   d.AccessToken,
		Scope:         d.Scope,
	}, nil
}

func (r *workspaceRepository) Put(ctx context.Context, c *model.WorkspaceConnection) error {
	if c == nil || c.ID == "" {
		return goerr.New("workspace connection id is required")
	}

	d := &workspaceDoc{
		ID:            string(c.ID),
		OwnerUserID:   string(c.OwnerUserID),
		WorkspaceID:   c.WorkspaceID,
		WorkspaceName: c.WorkspaceName,
		AccessToken:   c.AccessToken,
		Scope:         c.Scope,
	}
	if _, err := r.collection().Doc(string(c.ID)).Set(ctx, d); err != nil {
		return goerr.Wrap(err, "failed to put workspace connection", goerr.V("id", c.ID))
	}
	return nil
}

type emojiPreferenceRepository struct {
	cols *collections
}

var _ interfaces.EmojiPreferenceRepository = &emojiPreferenceRepository{}

type emojiPreferenceDoc struct {
	OwnerUserID   string `firestore:"owner_user_id"`
	TodayEmoji    string `firestore:"today_emoji"`
	TomorrowEmoji string `firestore:"tomorrow_emoji"`
	LaterEmoji    string `firestore:"later_emoji"`
}

func (r *emojiPreferenceRepository) collection() *firestore.CollectionRef {
	return r.cols.get(emojiPreferencesCollection)
}

func (r *emojiPreferenceRepository) Get(ctx context.Context, ownerID model.UserID) (*model.EmojiPreference, error) {
	doc, err := r.collection().Doc(string(ownerID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "emoji preference not found", goerr.V("owner_user_id", ownerID))
		}
		return nil, goerr.Wrap(err, "failed to get emoji preference", goerr.V("owner_user_id", ownerID))
	}

	var d emojiPreferenceDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal emoji preference", goerr.V("owner_user_id", ownerID))
	}

	return &model.EmojiPreference{
		OwnerUserID:   model.UserID(d.OwnerUserID),
		TodayEmoji:    d.TodayEmoji,
		TomorrowEmoji: d.TomorrowEmoji,
		LaterEmoji:    d.LaterEmoji,
	}, nil
}

func (r *emojiPreferenceRepository) Put(ctx context.Context, p *model.EmojiPreference) error {
	if p == nil || p.OwnerUserID == "" {
		return goerr.New("emoji preference owner is required")
	}

	d := &emojiPreferenceDoc{
		OwnerUserID:   string(p.OwnerUserID),
		TodayEmoji:    p.TodayEmoji,
		TomorrowEmoji: p.TomorrowEmoji,
		LaterEmoji:    p.LaterEmoji,
	}
	if _, err := r.collection().Doc(string(p.OwnerUserID)).Set(ctx, d); err != nil {
		return goerr.Wrap(err, "failed to put emoji preference", goerr.V("owner_user_id", p.OwnerUserID))
	}
	return nil
}

type userRepository struct {
	cols *collections
}

var _ interfaces.UserRepository = &userRepository{}

type userDoc struct {
	ID          string `firestore:"id"`
	Name        string `firestore:"name"`
	Email       string `firestore:"email"`
	SlackUserID string `firestore:"slack_user_id"`
}

func (r *userRepository) collection() *firestore.CollectionRef {
	return r.cols.get(usersCollection)
}

func (r *userRepository) Get(ctx context.Context, id model.UserID) (*model.User, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "user not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get user", goerr.V("id", id))
	}

	var d userDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal user", goerr.V("id", id))
	}

	return &model.User{
		ID:          model.UserID(d.ID),
		Name:        d.Name,
		Email:       d.Email,
		SlackUserID: d.SlackUserID,
	}, nil
}

func (r *userRepository) Put(ctx context.Context, u *model.User) error {
	if u == nil || u.ID == "" {
		return goerr.New("user id is required")
	}

	d := &userDoc{
		ID:          string(u.ID),
		Name:        u.Name,
		Email:       u.Email,
		SlackUserID: u.SlackUserID,
	}
	if _, err := r.collection().Doc(string(u.ID)).Set(ctx, d); err != nil {
		return goerr.Wrap(err, "failed to put user", goerr.V("id", u.ID))
	}
	return nil
}
