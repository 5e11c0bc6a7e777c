package slack

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// DefaultTimeout bounds a single Slack Web API call
const DefaultTimeout = 10 * time.Second

// client implements Service
type client struct {
	httpClient *http.Client
	apiURL     string
}

// Option is a functional option for client configuration
type Option func(*client)

// WithTimeout sets the HTTP timeout for Slack API calls
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

// WithAPIURL overrides the Slack API base URL. The URL must end with "/".
func WithAPIURL(url string) Option {
	return func(c *client) {
		c.apiURL = url
	}
}

// New creates a Slack service. Tokens are supplied per request.
func New(opts ...Option) Service {
	c := &client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *client) api(token string) *slack.Client {
	opts := []slack.Option{slack.OptionHTTPClient(c.httpClient)}
	if c.apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(c.apiURL))
	}
	return slack.New(token, opts...)
}

// notFoundErrors are Slack API error codes meaning the message is unreachable
var notFoundErrors = map[string]bool{
	"channel_not_found": true,
	"message_not_found": true,
	"thread_not_found":  true,
	"not_in_channel":    true,
}

func isNotFound(err error) bool {
	var resp slack.SlackErrorResponse
	if errors.As(err, &resp) {
		return notFoundErrors[resp.Err]
	}
	return notFoundErrors[err.Error()]
}

// FetchMessage looks the message up in channel history first, then in thread
// replies because replies are not returned by conversations.history.
func (c *client) FetchMessage(ctx context.Context, token, channel, ts string) (*Message, error) {
	if token == "" {
		return nil, goerr.New("Slack access token is required", goerr.V("channel", channel))
	}

	api := c.api(token)

	history, err := api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channel,
		Latest:    ts,
		Oldest:    ts,
		Inclusive: true,
		Limit:     1,
	})
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(ErrMessageNotFound, "conversation history unavailable",
				goerr.V("channel", channel), goerr.V("ts", ts), goerr.V("slack_error", err.Error()))
		}
		return nil, goerr.Wrap(err, "failed to get conversation history", goerr.V("channel", channel), goerr.V("ts", ts))
	}
	if msg := findMessage(history.Messages, channel, ts); msg != nil {
		return msg, nil
	}

	replies, _, _, err := api.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
		ChannelID: channel,
		Timestamp: ts,
		Latest:    ts,
		Oldest:    ts,
		Inclusive: true,
	})
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(ErrMessageNotFound, "message not found",
				goerr.V("channel", channel), goerr.V("ts", ts), goerr.V("slack_error", err.Error()))
		}
		return nil, goerr.Wrap(err, "failed to get conversation replies", goerr.V("channel", channel), goerr.V("ts", ts))
	}
	if msg := findMessage(replies, channel, ts); msg != nil {
		return msg, nil
	}

	return nil, goerr.Wrap(ErrMessageNotFound, "message not found", goerr.V("channel", channel), goerr.V("ts", ts))
}

func findMessage(msgs []slack.Message, channel, ts string) *Message {
	for _, m := range msgs {
		if m.Timestamp != ts {
			continue
		}
		return &Message{
			Channel:  channel,
			TS:       m.Timestamp,
			ThreadTS: m.ThreadTimestamp,
			User:     m.User,
			Text:     m.Text,
		}
	}
	return nil
}
