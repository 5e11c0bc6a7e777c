package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/reactask/pkg/domain/interfaces"
	"github.com/secmon-lab/reactask/pkg/domain/model"
)

type webhookRepository struct {
	db *sqlx.DB
}

var _ interfaces.WebhookRepository = &webhookRepository{}

type webhookRow struct {
	ID                    string     `db:"id"`
	Secret                string     `db:"secret"`
	OwnerUserID           string     `db:"owner_user_id"`
	WorkspaceConnectionID string     `db:"workspace_connection_id"`
	IsActive              bool       `db:"is_active"`
	EventCount            int64      `db:"event_count"`
	LastEventAt           *time.Time `db:"last_event_at"`
	CreatedAt             time.Time  `db:"created_at"`
}

func (r *webhookRepository) Get(ctx context.Context, id model.WebhookID) (*model.WebhookBinding, error) {
	var row webhookRow
	err := r.db.GetContext(ctx, &row, "SELECT * FROM webhooks WHERE id = ?", string(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerr.Wrap(ErrNotFound, "webhook not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get webhook", goerr.V("id", id))
	}

	return &model.WebhookBinding{
		ID:                    model.WebhookID(row.ID),
		Secret:                row.Secret,
		OwnerUserID:           model.UserID(row.OwnerUserID),
		WorkspaceConnectionID: model.WorkspaceConnectionID(row.WorkspaceConnectionID),
		IsActive:              row.IsActive,
		EventCount:            row.EventCount,
		LastEventAt:           row.LastEventAt,
		CreatedAt:             row.CreatedAt,
	}, nil
}

func (r *webhookRepository) Put(ctx context.Context, b *model.WebhookBinding) error {
	if b == nil || b.ID == "" {
		return goerr.New("webhook binding id is required")
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO webhooks (
			id, secret, owner_user_id, workspace_connection_id,
			is_active, event_count, last_event_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(b.ID), b.Secret, string(b.OwnerUserID), string(b.WorkspaceConnectionID),
		b.IsActive, b.EventCount, utcPtr(b.LastEventAt), b.CreatedAt.UTC(),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to put webhook", goerr.V("id", b.ID))
	}
	return nil
}

func (r *webhookRepository) RecordEvent(ctx context.Context, id model.WebhookID, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE webhooks SET event_count = event_count + 1, last_event_at = ? WHERE id = ?",
		at.UTC(), string(id),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to record webhook event", goerr.V("id", id))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return goerr.Wrap(err, "failed to check affected rows", goerr.V("id", id))
	}
	if n == 0 {
		return goerr.Wrap(ErrNotFound, "webhook not found", goerr.V("id", id))
	}
	return nil
}

type workspaceRepository struct {
	db *sqlx.DB
}

var _ interfaces.WorkspaceRepository = &workspaceRepository{}

type workspaceRow struct {
	ID            string `db:"id"`
	OwnerUserID   string `db:"owner_user_id"`
	WorkspaceID   string `db:"workspace_id"`
	WorkspaceName string `db:"workspace_name"`
	AccessToken   string `db:"access_token"`
	Scope         string `db:"scope"`
}

func (r *workspaceRepository) Get(ctx context.Context, id model.WorkspaceConnectionID) (*model.WorkspaceConnection, error) {
	var row workspaceRow
	err := r.db.GetContext(ctx, &row, "SELECT * FROM workspace_connections WHERE id = ?", string(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerr.Wrap(ErrNotFound, "workspace connection not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get workspace connection", goerr.V("id", id))
	}

	return &model.WorkspaceConnection{
		ID:            model.WorkspaceConnectionID(row.ID),
		OwnerUserID:   model.UserID(row.OwnerUserID),
		WorkspaceID:   row.WorkspaceID,
		WorkspaceName: row.WorkspaceName,
		AccessToken:   row.AccessToken,
		Scope:         row.Scope,
	}, nil
}

func (r *workspaceRepository) Put(ctx context.Context, c *model.WorkspaceConnection) error {
	if c == nil || c.ID == "" {
		return goerr.New("workspace connection id is required")
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO workspace_connections (
			id, owner_user_id, workspace_id, workspace_name, access_token, scope
		) VALUES (?, ?, ?, ?, ?, ?)`,
		string(c.ID), string(c.OwnerUserID), c.WorkspaceID, c.WorkspaceName, c.AccessToken, c.Scope,
	)
	if err != nil {
		return goerr.Wrap(err, "failed to put workspace connection", goerr.V("id", c.ID))
	}
	return nil
}

type emojiPreferenceRepository struct {
	db *sqlx.DB
}

var _ interfaces.EmojiPreferenceRepository = &emojiPreferenceRepository{}

type emojiPreferenceRow struct {
	OwnerUserID   string `db:"owner_user_id"`
	TodayEmoji    string `db:"today_emoji"`
	TomorrowEmoji string `db:"tomorrow_emoji"`
	LaterEmoji    string `db:"later_emoji"`
}

func (r *emojiPreferenceRepository) Get(ctx context.Context, ownerID model.UserID) (*model.EmojiPreference, error) {
	var row emojiPreferenceRow
	err := r.db.GetContext(ctx, &row, "SELECT * FROM emoji_preferences WHERE owner_user_id = ?", string(ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerr.Wrap(ErrNotFound, "emoji preference not found", goerr.V("owner_user_id", ownerID))
		}
		return nil, goerr.Wrap(err, "failed to get emoji preference", goerr.V("owner_user_id", ownerID))
	}

	return &model.EmojiPreference{
		OwnerUserID:   model.UserID(row.OwnerUserID),
		TodayEmoji:    row.TodayEmoji,
		TomorrowEmoji: row.TomorrowEmoji,
		LaterEmoji:    row.LaterEmoji,
	}, nil
}

func (r *emojiPreferenceRepository) Put(ctx context.Context, p *model.EmojiPreference) error {
	if p == nil || p.OwnerUserID == "" {
		return goerr.New("emoji preference owner is required")
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO emoji_preferences (
			owner_user_id, today_emoji, tomorrow_emoji, later_emoji
		) VALUES (?, ?, ?, ?)`,
		string(p.OwnerUserID), p.TodayEmoji, p.TomorrowEmoji, p.LaterEmoji,
	)
	if err != nil {
		return goerr.Wrap(err, "failed to put emoji preference", goerr.V("owner_user_id", p.OwnerUserID))
	}
	return nil
}

type userRepository struct {
	db *sqlx.DB
}

var _ interfaces.UserRepository = &userRepository{}

type userRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Email       string `db:"email"`
	SlackUserID string `db:"slack_user_id"`
}

func (r *userRepository) Get(ctx context.Context, id model.UserID) (*model.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row, "SELECT * FROM users WHERE id = ?", string(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerr.Wrap(ErrNotFound, "user not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get user", goerr.V("id", id))
	}

	return &model.User{
		ID:          model.UserID(row.ID),
		Name:        row.Name,
		Email:       row.Email,
		SlackUserID: row.SlackUserID,
	}, nil
}

func (r *userRepository) Put(ctx context.Context, u *model.User) error {
	if u == nil || u.ID == "" {
		return goerr.New("user id is required")
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO users (id, name, email, slack_user_id) VALUES (?, ?, ?, ?)",
		string(u.ID), u.Name, u.Email, u.SlackUserID,
	)
	if err != nil {
		return goerr.Wrap(err, "failed to put user", goerr.V("id", u.ID))
	}
	return nil
}
