package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/reactask/pkg/domain/model"
	"github.com/secmon-lab/reactask/pkg/usecase"
	"github.com/secmon-lab/reactask/pkg/utils/errutil"
	"github.com/secmon-lab/reactask/pkg/utils/logging"
	"github.com/secmon-lab/reactask/pkg/utils/safe"
	"github.com/slack-go/slack/slackevents"
)

// MaxBodySize is the largest accepted webhook request body
const MaxBodySize = 1 << 20

// Public response messages
const (
	msgQueued        = "queued"
	msgDuplicate     = "Event already processed"
	msgInFlight      = "Event already being processed"
	msgNotOwner      = "Event ignored - only the webhook owner can create tasks from reactions"
	msgNotConfigured = "Emoji not configured for task creation"
	msgNotSupported  = "Event type not supported"

	errInvalidJSON       = "Invalid JSON"
	errInvalidPayload    = "Invalid event payload"
	errInvalidSignature  = "Invalid signature"
	errWebhookNotFound   = "Webhook not found"
	errOwnerSlackIDUnset = "Slack user ID is not configured for the webhook owner. Set your Slack user ID in your profile settings."
	errInternal          = "Internal server error"
)

// ReactionHandler is the use case behind the webhook endpoint
type ReactionHandler interface {
	HandleReaction(ctx context.Context, ev usecase.ReactionEvent) (*usecase.ReactionResult, error)
}

// ReactionWebhookHandler serves the per-user Slack reaction webhook
type ReactionWebhookHandler struct {
	reactions ReactionHandler
	verifier  *SignatureVerifier
}

func NewReactionWebhookHandler(reactions ReactionHandler, verifier *SignatureVerifier) *ReactionWebhookHandler {
	return &ReactionWebhookHandler{
		reactions: reactions,
		verifier:  verifier,
	}
}

type envelope struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	Event     struct {
		Type string `json:"type"`
	} `json:"event"`
}

type challengeResponse struct {
	Challenge string `json:"challenge"`
}

type messageResponse struct {
	Message        string       `json:"message"`
	ExistingTaskID model.TaskID `json:"existingTaskId,omitempty"`
}

type statusResponse struct {
	WebhookID model.WebhookID `json:"webhook_id"`
	Status    string          `json:"status"`
}

// ServeStatus is the unauthenticated liveness probe for a webhook URL
func (h *ReactionWebhookHandler) ServeStatus(w http.ResponseWriter, r *http.Request) {
	webhookID := model.WebhookID(chi.URLParam(r, "webhook_id"))
	errutil.WriteJSON(r.Context(), w, http.StatusOK, statusResponse{
		WebhookID: webhookID,
		Status:    "active",
	})
}

// ServeHTTP handles a Slack Events API delivery
func (h *ReactionWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	webhookID := model.WebhookID(chi.URLParam(r, "webhook_id"))
	ctx := logging.WithAttrs(r.Context(), usecase.WebhookIDKey, webhookID)

	body, tooLarge, err := safe.ReadAll(r.Body, MaxBodySize)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest, errInvalidJSON)
		return
	}
	if tooLarge {
		errutil.HandleHTTP(ctx, w, goerr.New("request body too large", goerr.V("limit", MaxBodySize)), http.StatusBadRequest, errInvalidJSON)
		return
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to parse request body"), http.StatusBadRequest, errInvalidJSON)
		return
	}

	// url_verification arrives before the signing secret is configured on the Slack app
	if env.Type == slackevents.URLVerification {
		logging.From(ctx).Info("answering url verification challenge")
		errutil.WriteJSON(ctx, w, http.StatusOK, challengeResponse{Challenge: env.Challenge})
		return
	}

	if !h.verifier.Verify(r.Header, body) {
		errutil.HandleHTTP(ctx, w, goerr.New("slack signature verification failed"), http.StatusUnauthorized, errInvalidSignature)
		return
	}

	if env.Type != slackevents.CallbackEvent || env.Event.Type != string(slackevents.ReactionAdded) {
		logging.From(ctx).Info("unsupported slack event", "type", env.Type, "event_type", env.Event.Type)
		errutil.WriteJSON(ctx, w, http.StatusOK, messageResponse{Message: msgNotSupported})
		return
	}

	ev, err := parseReactionAdded(body)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest, errInvalidPayload)
		return
	}

	result, err := h.reactions.HandleReaction(ctx, usecase.ReactionEvent{
		WebhookID: webhookID,
		Actor:     ev.User,
		Reaction:  ev.Reaction,
		Channel:   ev.Item.Channel,
		MessageTS: ev.Item.Timestamp,
	})
	switch {
	case errors.Is(err, usecase.ErrWebhookNotFound):
		errutil.HandleHTTP(ctx, w, err, http.StatusNotFound, errWebhookNotFound)
		return
	case errors.Is(err, usecase.ErrOwnerSlackIDUnset):
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest, errOwnerSlackIDUnset)
		return
	case err != nil:
		errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError, errInternal)
		return
	}

	errutil.WriteJSON(ctx, w, http.StatusOK, toMessageResponse(result))
}

func parseReactionAdded(body []byte) (*slackevents.ReactionAddedEvent, error) {
	apiEvent, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse slack event")
	}

	ev, ok := apiEvent.InnerEvent.Data.(*slackevents.ReactionAddedEvent)
	if !ok {
		return nil, goerr.New("unexpected inner event data", goerr.V("type", apiEvent.InnerEvent.Type))
	}
	if ev.User == "" || ev.Reaction == "" || ev.Item.Channel == "" || ev.Item.Timestamp == "" {
		return nil, goerr.New("reaction_added event is missing required fields",
			goerr.V("user", ev.User),
			goerr.V("reaction", ev.Reaction),
			goerr.V("channel", ev.Item.Channel),
			goerr.V("ts", ev.Item.Timestamp),
		)
	}
	return ev, nil
}

func toMessageResponse(result *usecase.ReactionResult) messageResponse {
	switch result.Outcome {
	case usecase.ReactionDuplicate:
		return messageResponse{Message: msgDuplicate, ExistingTaskID: result.ExistingTaskID}
	case usecase.ReactionInFlight:
		return messageResponse{Message: msgInFlight}
	case usecase.ReactionNotOwner:
		return messageResponse{Message: msgNotOwner}
	case usecase.ReactionNotConfigured:
		return messageResponse{Message: msgNotConfigured}
	default:
		return messageResponse{Message: msgQueued}
	}
}
