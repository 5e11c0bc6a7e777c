package config_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/reactask/pkg/cli/config"
)

func TestRepository_Configure(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		repo, err := config.NewRepositoryForTest("memory", "").Configure(ctx)
		gt.NoError(t, err).Required()
		gt.NoError(t, repo.Close())
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "reactask.db")
		repo, err := config.NewRepositoryForTest("sqlite", path).Configure(ctx)
		gt.NoError(t, err).Required()
		gt.NoError(t, repo.Close())
	})

	t.Run("firestore without project", func(t *testing.T) {
		_, err := config.NewRepositoryForTest("firestore", "").Configure(ctx)
		gt.Error(t, err).Is(config.ErrMissingField)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := config.NewRepositoryForTest("mysql", "").Configure(ctx)
		gt.Error(t, err).Is(config.ErrUnsupportedOption)
	})

	t.Run("cache disabled without redis url", func(t *testing.T) {
		cache, closer, err := config.NewRepositoryForTest("memory", "").ConfigureCache(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, cache).Nil()
		closer()
	})
}

func TestLLM_Configure(t *testing.T) {
	ctx := context.Background()

	t.Run("no provider returns nil client", func(t *testing.T) {
		client, err := config.NewLLMForTest("", "").Configure(ctx)
		gt.NoError(t, err)
		gt.Value(t, client).Nil()
	})

	t.Run("no provider still yields a fallback title service", func(t *testing.T) {
		svc, err := config.NewLLMForTest("", "").ConfigureTitle(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, svc).NotNil()
	})

	t.Run("gemini without project", func(t *testing.T) {
		_, err := config.NewLLMForTest("gemini", "").Configure(ctx)
		gt.Error(t, err).Is(config.ErrMissingField)
	})

	t.Run("openai without key", func(t *testing.T) {
		_, err := config.NewLLMForTest("openai", "").Configure(ctx)
		gt.Error(t, err).Is(config.ErrMissingField)
	})

	t.Run("claude without key", func(t *testing.T) {
		_, err := config.NewLLMForTest("claude", "").Configure(ctx)
		gt.Error(t, err).Is(config.ErrMissingField)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := config.NewLLMForTest("bard", "").Configure(ctx)
		gt.Error(t, err).Is(config.ErrUnsupportedOption)
	})

	t.Run("returns flags", func(t *testing.T) {
		gt.Array(t, config.NewLLMForTest("", "").Flags()).Length(7)
	})
}

func TestPipeline_Options(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		opts, err := config.NewPipelineForTest(4, 16, time.Minute).Options()
		gt.NoError(t, err).Required()
		gt.Array(t, opts).Length(2)
	})

	t.Run("zero workers", func(t *testing.T) {
		_, err := config.NewPipelineForTest(0, 16, time.Minute).Options()
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})

	t.Run("negative queue", func(t *testing.T) {
		_, err := config.NewPipelineForTest(1, -1, time.Minute).Options()
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})

	t.Run("zero timeout", func(t *testing.T) {
		_, err := config.NewPipelineForTest(1, 1, 0).Options()
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})
}

func TestSlack(t *testing.T) {
	cfg := config.NewSlackForTest("", time.Second)
	gt.Bool(t, cfg.IsWebhookConfigured()).False()
	gt.Value(t, cfg.Configure()).NotNil()

	cfg = config.NewSlackForTest("secret", time.Second)
	gt.Bool(t, cfg.IsWebhookConfigured()).True()
	gt.Value(t, cfg.SigningSecret()).Equal("secret")
}

func TestLogger_Configure(t *testing.T) {
	t.Run("json to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		closer, err := config.NewLoggerForTest("debug", "json", path).Configure()
		gt.NoError(t, err).Required()
		closer()
	})

	t.Run("console to stderr", func(t *testing.T) {
		closer, err := config.NewLoggerForTest("info", "console", "stderr").Configure()
		gt.NoError(t, err).Required()
		closer()
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := config.NewLoggerForTest("verbose", "json", "stdout").Configure()
		gt.Error(t, err).Is(config.ErrUnsupportedOption)
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := config.NewLoggerForTest("info", "xml", "stdout").Configure()
		gt.Error(t, err).Is(config.ErrUnsupportedOption)
	})
}
