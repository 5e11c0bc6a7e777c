package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// ErrWebhookNotFound covers unknown, inactive and half-provisioned bindings alike
	ErrWebhookNotFound = errors.New("webhook not found")

	// ErrOwnerSlackIDUnset means the webhook owner never linked a Slack user id
	ErrOwnerSlackIDUnset = errors.New("owner Slack user id is not configured")
)

// Context keys for error values
const (
	WebhookIDKey   = "webhook_id"
	FingerprintKey = "fingerprint"
)
