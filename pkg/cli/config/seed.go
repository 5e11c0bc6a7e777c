package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/reactask/pkg/domain/model"
)

// SeedFixtures is the development data loaded by the seed command
type SeedFixtures struct {
	Users            []SeedUser            `toml:"users"`
	Workspaces       []SeedWorkspace       `toml:"workspaces"`
	Webhooks         []SeedWebhook         `toml:"webhooks"`
	EmojiPreferences []SeedEmojiPreference `toml:"emoji_preferences"`
}

type SeedUser struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Email       string `toml:"email"`
	SlackUserID string `toml:"slack_user_id"`
}

type SeedWorkspace struct {
	ID            string `toml:"id"`
	OwnerUserID   string `toml:"owner_user_id"`
	WorkspaceID   string `toml:"workspace_id"`
	WorkspaceName string `toml:"workspace_name"`
	AccessToken   string `toml:"access_token" masq:"secret"`
	Scope         string `toml:"scope"`
}

// SeedWebhook describes a binding. An empty ID or secret is generated; Active defaults to true.
type SeedWebhook struct {
	ID                    string `toml:"id"`
	Secret                string `toml:"secret" masq:"secret"`
	OwnerUserID           string `toml:"owner_user_id"`
	WorkspaceConnectionID string `toml:"workspace_connection_id"`
	Active                *bool  `toml:"active"`
}

type SeedEmojiPreference struct {
	OwnerUserID string `toml:"owner_user_id"`
	Today       string `toml:"today"`
	Tomorrow    string `toml:"tomorrow"`
	Later       string `toml:"later"`
}

// SeedModels is SeedFixtures converted to domain records
type SeedModels struct {
	Users            []*model.User
	Workspaces       []*model.WorkspaceConnection
	Webhooks         []*model.WebhookBinding
	EmojiPreferences []*model.EmojiPreference
}

// Validate checks required fields, duplicates and references between records
func (s *SeedFixtures) Validate() error {
	users := make(map[string]bool)
	for _, u := range s.Users {
		if u.ID == "" {
			return goerr.Wrap(ErrMissingField, "user id is required", goerr.V(RecordKindKey, "user"))
		}
		if users[u.ID] {
			return goerr.Wrap(ErrDuplicateID, "duplicate user", goerr.V(RecordIDKey, u.ID))
		}
		users[u.ID] = true
	}

	workspaces := make(map[string]string)
	for _, w := range s.Workspaces {
		if w.ID == "" {
			return goerr.Wrap(ErrMissingField, "workspace id is required", goerr.V(RecordKindKey, "workspace"))
		}
		if _, ok := workspaces[w.ID]; ok {
			return goerr.Wrap(ErrDuplicateID, "duplicate workspace", goerr.V(RecordIDKey, w.ID))
		}
		if !users[w.OwnerUserID] {
			return goerr.Wrap(ErrUnknownReference, "workspace owner is not a seeded user",
				goerr.V(RecordIDKey, w.ID), goerr.V("owner_user_id", w.OwnerUserID))
		}
		if w.AccessToken == "" {
			return goerr.Wrap(ErrMissingField, "workspace access_token is required", goerr.V(RecordIDKey, w.ID))
		}
		workspaces[w.ID] = w.OwnerUserID
	}

	webhooks := make(map[string]bool)
	for _, h := range s.Webhooks {
		if h.ID != "" {
			if webhooks[h.ID] {
				return goerr.Wrap(ErrDuplicateID, "duplicate webhook", goerr.V(RecordIDKey, h.ID))
			}
			webhooks[h.ID] = true
		}
		if !users[h.OwnerUserID] {
			return goerr.Wrap(ErrUnknownReference, "webhook owner is not a seeded user",
				goerr.V(RecordIDKey, h.ID), goerr.V("owner_user_id", h.OwnerUserID))
		}
		owner, ok := workspaces[h.WorkspaceConnectionID]
		if !ok {
			return goerr.Wrap(ErrUnknownReference, "webhook workspace is not a seeded workspace",
				goerr.V(RecordIDKey, h.ID), goerr.V("workspace_connection_id", h.WorkspaceConnectionID))
		}
		if owner != h.OwnerUserID {
			return goerr.Wrap(ErrInvalidConfig, "webhook and workspace belong to different users",
				goerr.V(RecordIDKey, h.ID), goerr.V("owner_user_id", h.OwnerUserID))
		}
	}

	prefs := make(map[string]bool)
	for _, p := range s.EmojiPreferences {
		if !users[p.OwnerUserID] {
			return goerr.Wrap(ErrUnknownReference, "emoji preference owner is not a seeded user",
				goerr.V("owner_user_id", p.OwnerUserID))
		}
		if prefs[p.OwnerUserID] {
			return goerr.Wrap(ErrDuplicateID, "duplicate emoji preference", goerr.V("owner_user_id", p.OwnerUserID))
		}
		prefs[p.OwnerUserID] = true
	}

	return nil
}

// ToModels converts the fixtures, generating missing webhook ids and secrets
func (s *SeedFixtures) ToModels(now time.Time) *SeedModels {
	out := &SeedModels{}

	for _, u := range s.Users {
		out.Users = append(out.Users, &model.User{
			ID:          model.UserID(u.ID),
			Name:        u.Name,
			Email:       u.Email,
			SlackUserID: u.SlackUserID,
		})
	}

	for _, w := range s.Workspaces {
		out.Workspaces = append(out.Workspaces, &model.WorkspaceConnection{
			ID:            model.WorkspaceConnectionID(w.ID),
			OwnerUserID:   model.UserID(w.OwnerUserID),
			WorkspaceID:   w.WorkspaceID,
			WorkspaceName: w.WorkspaceName,
			AccessToken:   w.AccessToken,
			Scope:         w.Scope,
		})
	}

	for _, h := range s.Webhooks {
		id := model.WebhookID(h.ID)
		if id == "" {
			id = model.NewWebhookID()
		}
		secret := h.Secret
		if secret == "" {
			secret = model.NewWebhookSecret()
		}
		active := true
		if h.Active != nil {
			active = *h.Active
		}
		out.Webhooks = append(out.Webhooks, &model.WebhookBinding{
			ID:                    id,
			Secret:                secret,
			OwnerUserID:           model.UserID(h.OwnerUserID),
			WorkspaceConnectionID: model.WorkspaceConnectionID(h.WorkspaceConnectionID),
			IsActive:              active,
			CreatedAt:             now,
		})
	}

	for _, p := range s.EmojiPreferences {
		out.EmojiPreferences = append(out.EmojiPreferences, &model.EmojiPreference{
			OwnerUserID:   model.UserID(p.OwnerUserID),
			TodayEmoji:    model.NormalizeEmoji(p.Today),
			TomorrowEmoji: model.NormalizeEmoji(p.Tomorrow),
			LaterEmoji:    model.NormalizeEmoji(p.Later),
		})
	}

	return out
}

// LoadSeedFixtures reads and validates a fixtures file
func LoadSeedFixtures(path string) (*SeedFixtures, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "fixtures file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read fixtures file", goerr.V(ConfigPathKey, path))
	}

	var fixtures SeedFixtures
	if err := toml.Unmarshal(data, &fixtures); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, err.Error(), goerr.V(ConfigPathKey, path))
	}

	if err := fixtures.Validate(); err != nil {
		return nil, goerr.Wrap(err, "fixtures validation failed", goerr.V(ConfigPathKey, path))
	}

	return &fixtures, nil
}
