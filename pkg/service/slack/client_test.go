package slack_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/reactask/pkg/service/slack"
	slackgo "github.com/slack-go/slack"
)

type fakeSlack struct {
	mu          sync.Mutex
	history     string
	replies     string
	historyHits int
	repliesHits int
	lastToken   string
	lastChannel string
}

func (f *fakeSlack) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.mu.Lock()
		defer f.mu.Unlock()
		f.lastToken = r.FormValue("token")
		if f.lastToken == "" {
			f.lastToken = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		f.lastChannel = r.FormValue("channel")
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/conversations.history":
			f.historyHits++
			_, _ = w.Write([]byte(f.history))
		case "/conversations.replies":
			f.repliesHits++
			_, _ = w.Write([]byte(f.replies))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (f *fakeSlack) hits() (history, replies int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.historyHits, f.repliesHits
}

func TestFetchMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("message in channel history", func(t *testing.T) {
		f := &fakeSlack{
			history: `{"ok":true,"messages":[{"type":"message","user":"U999","text":"Can you review the deploy plan before Friday?","ts":"1700000000.000100"}]}`,
		}
		srv := f.server(t)
		svc := slack.New(slack.WithAPIURL(srv.URL + "/"))

		msg, err := svc.FetchMessage(ctx, "xoxp-token", "C123", "1700000000.000100")
		gt.NoError(t, err).Required()
		gt.Value(t, msg.Text).Equal("Can you review the deploy plan before Friday?")
		gt.Value(t, msg.User).Equal("U999")
		gt.Value(t, msg.Channel).Equal("C123")
		f.mu.Lock()
		gt.Value(t, f.lastToken).Equal("xoxp-token")
		gt.Value(t, f.lastChannel).Equal("C123")
		gt.Number(t, f.repliesHits).Equal(0)
		f.mu.Unlock()
	})

	t.Run("falls back to thread replies", func(t *testing.T) {
		f := &fakeSlack{
			history: `{"ok":true,"messages":[]}`,
			replies: `{"ok":true,"messages":[{"type":"message","user":"U1","text":"parent","ts":"1700000000.000001"},{"type":"message","user":"U2","text":"threaded reply","ts":"1700000000.000200","thread_ts":"1700000000.000001"}]}`,
		}
		srv := f.server(t)
		svc := slack.New(slack.WithAPIURL(srv.URL + "/"))

		msg, err := svc.FetchMessage(ctx, "xoxp-token", "C123", "1700000000.000200")
		gt.NoError(t, err).Required()
		gt.Value(t, msg.Text).Equal("threaded reply")
		gt.Value(t, msg.ThreadTS).Equal("1700000000.000001")
		historyHits, repliesHits := f.hits()
		gt.Number(t, historyHits).Equal(1)
		gt.Number(t, repliesHits).Equal(1)
	})

	t.Run("missing message is ErrMessageNotFound", func(t *testing.T) {
		f := &fakeSlack{
			history: `{"ok":true,"messages":[]}`,
			replies: `{"ok":false,"error":"thread_not_found"}`,
		}
		srv := f.server(t)
		svc := slack.New(slack.WithAPIURL(srv.URL + "/"))

		_, err := svc.FetchMessage(ctx, "xoxp-token", "C123", "1700000000.000300")
		gt.Error(t, err).Is(slack.ErrMessageNotFound)
	})

	t.Run("unknown channel is ErrMessageNotFound", func(t *testing.T) {
		f := &fakeSlack{history: `{"ok":false,"error":"channel_not_found"}`}
		srv := f.server(t)
		svc := slack.New(slack.WithAPIURL(srv.URL + "/"))

		_, err := svc.FetchMessage(ctx, "xoxp-token", "C404", "1700000000.000100")
		gt.Error(t, err).Is(slack.ErrMessageNotFound)
		_, repliesHits := f.hits()
		gt.Number(t, repliesHits).Equal(0)
	})

	t.Run("other Slack errors are passed through", func(t *testing.T) {
		f := &fakeSlack{history: `{"ok":false,"error":"invalid_auth"}`}
		srv := f.server(t)
		svc := slack.New(slack.WithAPIURL(srv.URL + "/"))

		_, err := svc.FetchMessage(ctx, "xoxp-bad", "C123", "1700000000.000100")
		gt.Value(t, err).NotNil()
		gt.Bool(t, errors.Is(err, slack.ErrMessageNotFound)).False()
	})

	t.Run("empty token is rejected without a request", func(t *testing.T) {
		f := &fakeSlack{}
		srv := f.server(t)
		svc := slack.New(slack.WithAPIURL(srv.URL + "/"))

		_, err := svc.FetchMessage(ctx, "", "C123", "1700000000.000100")
		gt.Value(t, err).NotNil()
		historyHits, _ := f.hits()
		gt.Number(t, historyHits).Equal(0)
	})

	t.Run("timeout bounds the call", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`{"ok":true,"messages":[]}`))
		}))
		t.Cleanup(srv.Close)
		svc := slack.New(slack.WithAPIURL(srv.URL+"/"), slack.WithTimeout(20*time.Millisecond))

		_, err := svc.FetchMessage(ctx, "xoxp-token", "C123", "1700000000.000100")
		gt.Value(t, err).NotNil()
		gt.Bool(t, errors.Is(err, slack.ErrMessageNotFound)).False()
	})
}

func TestIsNotFound(t *testing.T) {
	gt.Bool(t, slack.IsNotFound(slackgo.SlackErrorResponse{Err: "channel_not_found"})).True()
	gt.Bool(t, slack.IsNotFound(slackgo.SlackErrorResponse{Err: "ratelimited"})).False()
	gt.Bool(t, slack.IsNotFound(errors.New("message_not_found"))).True()
}

func TestIntegration(t *testing.T) {
	token := os.Getenv("TEST_SLACK_USER_TOKEN")
	channel := os.Getenv("TEST_SLACK_CHANNEL_ID")
	ts := os.Getenv("TEST_SLACK_MESSAGE_TS")
	if token == "" || channel == "" || ts == "" {
		t.Skip("TEST_SLACK_USER_TOKEN, TEST_SLACK_CHANNEL_ID or TEST_SLACK_MESSAGE_TS is not set")
	}

	msg, err := slack.New().FetchMessage(context.Background(), token, channel, ts)
	gt.NoError(t, err).Required()
	gt.String(t, msg.TS).Equal(ts)
	t.Logf("fetched message: %q", msg.Text)
}
