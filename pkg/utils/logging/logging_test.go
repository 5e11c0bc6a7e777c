package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/reactask/pkg/utils/logging"
)

func TestFromReturnsDefaultWithoutLogger(t *testing.T) {
	gt.Value(t, logging.From(context.Background())).Equal(logging.Default())
}

func TestWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := logging.With(context.Background(), logger)
	ctx = logging.WithAttrs(ctx, "webhook_id", "wh-1")
	logging.From(ctx).Info("hello")

	var record map[string]any
	gt.NoError(t, json.Unmarshal(buf.Bytes(), &record)).Required()
	gt.Value(t, record["webhook_id"]).Equal("wh-1")
	gt.Value(t, record["msg"]).Equal("hello")
}
