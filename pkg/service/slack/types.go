package slack

import (
	"context"
	"errors"
)

// ErrMessageNotFound is returned when the reacted message cannot be read,
// either because it was deleted or the token cannot see the channel.
var ErrMessageNotFound = errors.New("slack message not found")

// Service reads Slack messages on behalf of a workspace connection.
// The token is passed per call because each webhook owner has its own grant.
type Service interface {
	// FetchMessage returns the message at (channel, ts), including thread replies
	FetchMessage(ctx context.Context, token, channel, ts string) (*Message, error)
}

// Message is the subset of a Slack message the pipeline needs
type Message struct {
	Channel  string
	TS       string
	ThreadTS string
	User     string
	Text     string
}
