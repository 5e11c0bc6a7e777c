package usecase_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/reactask/pkg/domain/model"
	"github.com/secmon-lab/reactask/pkg/domain/types"
	"github.com/secmon-lab/reactask/pkg/usecase"
)

func TestUrgencyClassifier_Classify(t *testing.T) {
	pref := model.EmojiPreference{TodayEmoji: "fire", TomorrowEmoji: "soon", LaterEmoji: "memo"}
	now := time.Date(2024, 2, 29, 15, 30, 0, 0, time.UTC)
	c := usecase.NewUrgencyClassifier(
		func() time.Time { return now },
		time.UTC,
		func(n int) int { return n - 1 },
		usecase.DefaultImportanceSeeds(),
	)

	t.Run("today", func(t *testing.T) {
		got, ok := c.Classify("fire", pref)
		gt.Bool(t, ok).True()
		gt.Value(t, got.Urgency).Equal(types.UrgencyToday)
		gt.Value(t, got.Deadline).NotNil()
		gt.Bool(t, got.Deadline.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))).True()
		gt.Number(t, got.ImportanceSeed).Equal(90)
	})

	t.Run("tomorrow crosses month boundary", func(t *testing.T) {
		got, ok := c.Classify("soon", pref)
		gt.Bool(t, ok).True()
		gt.Value(t, got.Urgency).Equal(types.UrgencyTomorrow)
		gt.Bool(t, got.Deadline.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))).True()
		gt.Number(t, got.ImportanceSeed).Equal(70)
	})

	t.Run("later has no deadline and a seed in band", func(t *testing.T) {
		got, ok := c.Classify("memo", pref)
		gt.Bool(t, ok).True()
		gt.Value(t, got.Urgency).Equal(types.UrgencyLater)
		gt.Value(t, got.Deadline).Nil()
		gt.Number(t, got.ImportanceSeed).Equal(49)
	})

	t.Run("colon wrapped reaction still matches", func(t *testing.T) {
		got, ok := c.Classify(":fire:", pref)
		gt.Bool(t, ok).True()
		gt.Value(t, got.Urgency).Equal(types.UrgencyToday)
	})

	t.Run("unconfigured emoji", func(t *testing.T) {
		_, ok := c.Classify("thumbsup", pref)
		gt.Bool(t, ok).False()
	})

	t.Run("empty reaction", func(t *testing.T) {
		_, ok := c.Classify("", pref)
		gt.Bool(t, ok).False()
	})

	t.Run("same emoji in two slots resolves to the earlier slot", func(t *testing.T) {
		got, ok := c.Classify("fire", model.EmojiPreference{TodayEmoji: "memo", TomorrowEmoji: "fire", LaterEmoji: "fire"})
		gt.Bool(t, ok).True()
		gt.Value(t, got.Urgency).Equal(types.UrgencyTomorrow)
	})
}

func TestUrgencyClassifier_DeadlineZone(t *testing.T) {
	pref := model.DefaultEmojiPreference()
	jst := time.FixedZone("JST", 9*60*60)

	// 2024-03-01 20:00 UTC is already 2024-03-02 in JST
	now := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	c := usecase.NewUrgencyClassifier(func() time.Time { return now }, jst, nil, usecase.DefaultImportanceSeeds())

	today, ok := c.Classify(model.DefaultTodayEmoji, pref)
	gt.Bool(t, ok).True()
	gt.Bool(t, today.Deadline.Equal(time.Date(2024, 3, 2, 0, 0, 0, 0, jst))).True()

	tomorrow, ok := c.Classify(model.DefaultTomorrowEmoji, pref)
	gt.Bool(t, ok).True()
	gt.Bool(t, tomorrow.Deadline.Equal(time.Date(2024, 3, 3, 0, 0, 0, 0, jst))).True()
}

func TestUrgencyClassifier_LaterSeedBand(t *testing.T) {
	c := usecase.NewUrgencyClassifier(nil, nil, nil, usecase.DefaultImportanceSeeds())
	pref := model.DefaultEmojiPreference()

	for i := 0; i < 200; i++ {
		got, ok := c.Classify(model.DefaultLaterEmoji, pref)
		gt.Bool(t, ok).True()
		gt.Number(t, got.ImportanceSeed).GreaterOrEqual(10)
		gt.Number(t, got.ImportanceSeed).Less(50)
	}
}

func TestUrgencyClassifier_DegenerateBand(t *testing.T) {
	c := usecase.NewUrgencyClassifier(nil, nil, nil, usecase.ImportanceSeeds{Today: 1, Tomorrow: 1, LaterMin: 30, LaterMax: 30})
	got, ok := c.Classify(model.DefaultLaterEmoji, model.DefaultEmojiPreference())
	gt.Bool(t, ok).True()
	gt.Number(t, got.ImportanceSeed).Equal(30)
}
