package model

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// WebhookID is the opaque public token embedded in a per-user webhook URL
type WebhookID string

// NewWebhookID generates a random 32-hex-character webhook id
func NewWebhookID() WebhookID {
	return WebhookID(randomHex(16))
}

// NewWebhookSecret generates a random secret for a new binding
func NewWebhookSecret() string {
	return randomHex(32)
}

func randomHex(n int) string {
	b := make([]byte, n)
	// crypto/rand.Read never returns an error on supported platforms
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// WebhookBinding maps a public webhook id to its owner and linked Slack workspace.
// OwnerUserID is fixed at creation; EventCount and LastEventAt are advisory counters.
type WebhookBinding struct {
	ID                    WebhookID
	Secret                string `masq:"secret"`
	OwnerUserID           UserID
	WorkspaceConnectionID WorkspaceConnectionID
	IsActive              bool
	EventCount            int64
	LastEventAt           *time.Time
	CreatedAt             time.Time
}
