package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	httpctrl "github.com/secmon-lab/reactask/pkg/controller/http"
	"github.com/secmon-lab/reactask/pkg/domain/model"
	"github.com/secmon-lab/reactask/pkg/repository/memory"
	slacksvc "github.com/secmon-lab/reactask/pkg/service/slack"
	"github.com/secmon-lab/reactask/pkg/service/title"
	"github.com/secmon-lab/reactask/pkg/usecase"
)

const (
	testWebhookID = model.WebhookID("0123456789abcdef0123456789abcdef")
	testOwnerID   = model.UserID("user-1")
)

// mockSlackService is a mock slack.Service for testing
type mockSlackService struct {
	fetchMessageFn func(ctx context.Context, token, channel, ts string) (*slacksvc.Message, error)
}

func (m *mockSlackService) FetchMessage(ctx context.Context, token, channel, ts string) (*slacksvc.Message, error) {
	if m.fetchMessageFn != nil {
		return m.fetchMessageFn(ctx, token, channel, ts)
	}
	return &slacksvc.Message{Channel: channel, TS: ts, Text: "Buy milk"}, nil
}

// mockTitleService always returns the fallback title
type mockTitleService struct{}

func (m *mockTitleService) Generate(ctx context.Context, input title.Input) string {
	return title.Fallback(input.Reaction)
}

// mockReactionHandler is a mock ReactionHandler for testing
type mockReactionHandler struct {
	handleReactionFn func(ctx context.Context, ev usecase.ReactionEvent) (*usecase.ReactionResult, error)
}

func (m *mockReactionHandler) HandleReaction(ctx context.Context, ev usecase.ReactionEvent) (*usecase.ReactionResult, error) {
	return m.handleReactionFn(ctx, ev)
}

type testEnv struct {
	repo   *memory.Memory
	uc     *usecase.UseCases
	server *httpctrl.Server
}

func setupTestEnv(t *testing.T, slackUserID string) *testEnv {
	t.Helper()
	ctx := context.Background()
	repo := memory.New()

	gt.NoError(t, repo.User().Put(ctx, &model.User{ID: testOwnerID, SlackUserID: slackUserID})).Required()
	gt.NoError(t, repo.Workspace().Put(ctx, &model.WorkspaceConnection{
		ID: "conn-1", OwnerUserID: testOwnerID, WorkspaceID: "T1", AccessToken: "xoxp-test",
	})).Required()
	gt.NoError(t, repo.Webhook().Put(ctx, &model.WebhookBinding{
		ID: testWebhookID, OwnerUserID: testOwnerID, WorkspaceConnectionID: "conn-1", IsActive: true,
	})).Required()

	uc := usecase.New(repo,
		usecase.WithSlackService(&mockSlackService{}),
		usecase.WithTitleService(&mockTitleService{}),
	)
	uc.Pool.Start(ctx)
	t.Cleanup(uc.Pool.Stop)

	handler := httpctrl.NewReactionWebhookHandler(uc.Reaction, httpctrl.NewSignatureVerifier(testSigningSecret))
	return &testEnv{
		repo:   repo,
		uc:     uc,
		server: httpctrl.New(httpctrl.WithReactionWebhook(handler)),
	}
}

func reactionBody(user, reaction string) string {
	return `{"type":"event_callback","team_id":"T1","api_app_id":"A1","event":{"type":"reaction_added","user":"` + user +
		`","reaction":"` + reaction + `","item_user":"U9","item":{"type":"message","channel":"C1","ts":"111.1"},"event_ts":"111.2"}}`
}

func postSigned(t *testing.T, h http.Handler, webhookID model.WebhookID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook/"+string(webhookID), strings.NewReader(body))
	for k, v := range signedHeader(testSigningSecret, time.Now(), body) {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
	return resp
}

func TestReactionWebhook_URLVerification(t *testing.T) {
	env := setupTestEnv(t, "U1")

	body := `{"type":"url_verification","challenge":"abc123","token":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/webhook/anything", strings.NewReader(body))
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	gt.Number(t, rec.Code).Equal(http.StatusOK)
	gt.Value(t, decodeBody(t, rec)["challenge"]).Equal("abc123")
}

func TestReactionWebhook_Queued(t *testing.T) {
	env := setupTestEnv(t, "U1")

	rec := postSigned(t, env.server, testWebhookID, reactionBody("U1", "fire"))
	gt.Number(t, rec.Code).Equal(http.StatusOK)
	gt.Value(t, decodeBody(t, rec)["message"]).Equal("queued")

	env.uc.Pool.Stop()

	tasks, err := env.repo.Task().ListByOwner(context.Background(), testOwnerID)
	gt.NoError(t, err).Required()
	gt.Array(t, tasks).Length(1).Required()
	gt.Value(t, tasks[0].Title).Equal("Slack reaction: fire")

	event, err := env.repo.ProcessedEvent().Get(context.Background(), "C1:111.1:fire:U1")
	gt.NoError(t, err).Required()
	gt.Value(t, event.TaskID).Equal(tasks[0].ID)
}

func TestReactionWebhook_AlreadyProcessed(t *testing.T) {
	env := setupTestEnv(t, "U1")
	gt.NoError(t, env.repo.ProcessedEvent().Create(context.Background(), &model.ProcessedEvent{
		Key: "C1:111.1:fire:U1", OwnerUserID: testOwnerID, TaskID: "task-42",
	})).Required()

	rec := postSigned(t, env.server, testWebhookID, reactionBody("U1", "fire"))
	gt.Number(t, rec.Code).Equal(http.StatusOK)
	resp := decodeBody(t, rec)
	gt.Value(t, resp["message"]).Equal("Event already processed")
	gt.Value(t, resp["existingTaskId"]).Equal("task-42")
}

func TestReactionWebhook_Rejections(t *testing.T) {
	t.Run("invalid JSON", func(t *testing.T) {
		env := setupTestEnv(t, "U1")
		rec := postSigned(t, env.server, testWebhookID, `{not json`)
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
		gt.Value(t, decodeBody(t, rec)["error"]).Equal("Invalid JSON")
	})

	t.Run("invalid signature", func(t *testing.T) {
		env := setupTestEnv(t, "U1")
		body := reactionBody("U1", "fire")
		req := httptest.NewRequest(http.MethodPost, "/webhook/"+string(testWebhookID), strings.NewReader(body))
		for k, v := range signedHeader("wrong-secret", time.Now(), body) {
			req.Header[k] = v
		}
		rec := httptest.NewRecorder()
		env.server.ServeHTTP(rec, req)

		gt.Number(t, rec.Code).Equal(http.StatusUnauthorized)
		gt.Value(t, decodeBody(t, rec)["error"]).Equal("Invalid signature")
	})

	t.Run("invalid signature on unknown webhook", func(t *testing.T) {
		env := setupTestEnv(t, "U1")
		body := reactionBody("U1", "fire")
		req := httptest.NewRequest(http.MethodPost, "/webhook/ffffffffffffffffffffffffffffffff", strings.NewReader(body))
		for k, v := range signedHeader("wrong-secret", time.Now(), body) {
			req.Header[k] = v
		}
		rec := httptest.NewRecorder()
		env.server.ServeHTTP(rec, req)

		gt.Number(t, rec.Code).Equal(http.StatusUnauthorized)
		gt.Value(t, decodeBody(t, rec)["error"]).Equal("Invalid signature")
	})

	t.Run("unsigned request", func(t *testing.T) {
		env := setupTestEnv(t, "U1")
		req := httptest.NewRequest(http.MethodPost, "/webhook/"+string(testWebhookID), strings.NewReader(reactionBody("U1", "fire")))
		rec := httptest.NewRecorder()
		env.server.ServeHTTP(rec, req)
		gt.Number(t, rec.Code).Equal(http.StatusUnauthorized)
	})

	t.Run("unknown webhook", func(t *testing.T) {
		env := setupTestEnv(t, "U1")
		rec := postSigned(t, env.server, "ffffffffffffffffffffffffffffffff", reactionBody("U1", "fire"))
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
		gt.Value(t, decodeBody(t, rec)["error"]).Equal("Webhook not found")
	})

	t.Run("owner without Slack user id", func(t *testing.T) {
		env := setupTestEnv(t, "")
		rec := postSigned(t, env.server, testWebhookID, reactionBody("U1", "fire"))
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
		gt.String(t, decodeBody(t, rec)["error"].(string)).Contains("Slack user ID")
	})

	t.Run("reaction by someone else", func(t *testing.T) {
		env := setupTestEnv(t, "U1")
		rec := postSigned(t, env.server, testWebhookID, reactionBody("U2", "fire"))
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		gt.String(t, decodeBody(t, rec)["message"].(string)).Contains("only the webhook owner")

		env.uc.Pool.Stop()
		tasks, err := env.repo.Task().ListByOwner(context.Background(), testOwnerID)
		gt.NoError(t, err).Required()
		gt.Array(t, tasks).Length(0)
	})

	t.Run("emoji not configured", func(t *testing.T) {
		env := setupTestEnv(t, "U1")
		rec := postSigned(t, env.server, testWebhookID, reactionBody("U1", "thumbsup"))
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		gt.Value(t, decodeBody(t, rec)["message"]).Equal("Emoji not configured for task creation")
	})

	t.Run("unsupported inner event", func(t *testing.T) {
		env := setupTestEnv(t, "U1")
		body := `{"type":"event_callback","event":{"type":"reaction_removed","user":"U1","reaction":"fire","item":{"type":"message","channel":"C1","ts":"111.1"}}}`
		rec := postSigned(t, env.server, testWebhookID, body)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		gt.Value(t, decodeBody(t, rec)["message"]).Equal("Event type not supported")
	})

	t.Run("unsupported envelope", func(t *testing.T) {
		env := setupTestEnv(t, "U1")
		rec := postSigned(t, env.server, testWebhookID, `{"type":"app_rate_limited"}`)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		gt.Value(t, decodeBody(t, rec)["message"]).Equal("Event type not supported")
	})

	t.Run("missing event fields", func(t *testing.T) {
		env := setupTestEnv(t, "U1")
		rec := postSigned(t, env.server, testWebhookID, reactionBody("", "fire"))
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
		gt.Value(t, decodeBody(t, rec)["error"]).Equal("Invalid event payload")
	})

	t.Run("oversized body", func(t *testing.T) {
		env := setupTestEnv(t, "U1")
		body := `{"type":"event_callback","pad":"` + strings.Repeat("x", httpctrl.MaxBodySize) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/webhook/"+string(testWebhookID), bytes.NewReader([]byte(body)))
		rec := httptest.NewRecorder()
		env.server.ServeHTTP(rec, req)
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
		gt.Value(t, decodeBody(t, rec)["error"]).Equal("Invalid JSON")
	})
}

func TestReactionWebhook_InternalError(t *testing.T) {
	handler := httpctrl.NewReactionWebhookHandler(&mockReactionHandler{
		handleReactionFn: func(ctx context.Context, ev usecase.ReactionEvent) (*usecase.ReactionResult, error) {
			return nil, errors.New("firestore unavailable: secret detail")
		},
	}, httpctrl.NewSignatureVerifier(testSigningSecret))
	server := httpctrl.New(httpctrl.WithReactionWebhook(handler))

	rec := postSigned(t, server, testWebhookID, reactionBody("U1", "fire"))
	gt.Number(t, rec.Code).Equal(http.StatusInternalServerError)
	gt.Value(t, decodeBody(t, rec)["error"]).Equal("Internal server error")
	gt.Bool(t, strings.Contains(rec.Body.String(), "secret detail")).False()
}

func TestReactionWebhook_PanicRecovered(t *testing.T) {
	handler := httpctrl.NewReactionWebhookHandler(&mockReactionHandler{
		handleReactionFn: func(ctx context.Context, ev usecase.ReactionEvent) (*usecase.ReactionResult, error) {
			panic("nil map write")
		},
	}, httpctrl.NewSignatureVerifier(testSigningSecret))
	server := httpctrl.New(httpctrl.WithReactionWebhook(handler))

	rec := postSigned(t, server, testWebhookID, reactionBody("U1", "fire"))
	gt.Number(t, rec.Code).Equal(http.StatusInternalServerError)
	gt.Value(t, rec.Header().Get("Content-Type")).Equal("application/json")
	gt.Value(t, decodeBody(t, rec)["error"]).Equal("Internal server error")
	gt.Bool(t, strings.Contains(rec.Body.String(), "nil map write")).False()
}

func TestReactionWebhook_PassesEventFields(t *testing.T) {
	var got usecase.ReactionEvent
	handler := httpctrl.NewReactionWebhookHandler(&mockReactionHandler{
		handleReactionFn: func(ctx context.Context, ev usecase.ReactionEvent) (*usecase.ReactionResult, error) {
			got = ev
			return &usecase.ReactionResult{Outcome: usecase.ReactionInFlight}, nil
		},
	}, httpctrl.NewSignatureVerifier(testSigningSecret))
	server := httpctrl.New(httpctrl.WithReactionWebhook(handler))

	rec := postSigned(t, server, testWebhookID, reactionBody("U1", "fire"))
	gt.Number(t, rec.Code).Equal(http.StatusOK)
	gt.Value(t, decodeBody(t, rec)["message"]).Equal("Event already being processed")
	gt.Value(t, got).Equal(usecase.ReactionEvent{
		WebhookID: testWebhookID,
		Actor:     "U1",
		Reaction:  "fire",
		Channel:   "C1",
		MessageTS: "111.1",
	})
}

func TestReactionWebhook_Status(t *testing.T) {
	env := setupTestEnv(t, "U1")

	req := httptest.NewRequest(http.MethodGet, "/webhook/"+string(testWebhookID), nil)
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	gt.Number(t, rec.Code).Equal(http.StatusOK)
	resp := decodeBody(t, rec)
	gt.Value(t, resp["webhook_id"]).Equal(string(testWebhookID))
	gt.Value(t, resp["status"]).Equal("active")
}

func TestHealth(t *testing.T) {
	server := httpctrl.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	gt.Number(t, rec.Code).Equal(http.StatusOK)
}
