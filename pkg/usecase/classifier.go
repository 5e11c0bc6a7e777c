package usecase

import (
	"math/rand/v2"
	"time"

	"github.com/secmon-lab/reactask/pkg/domain/model"
	"github.com/secmon-lab/reactask/pkg/domain/types"
)

// ImportanceSeeds are the initial priority priors per urgency. Later tasks draw
// from [LaterMin, LaterMax) so they do not all start with the same value.
type ImportanceSeeds struct {
	Today    int
	Tomorrow int
	LaterMin int
	LaterMax int
}

// DefaultImportanceSeeds returns the built-in seed values
func DefaultImportanceSeeds() ImportanceSeeds {
	return ImportanceSeeds{
		Today:    90,
		Tomorrow: 70,
		LaterMin: 10,
		LaterMax: 50,
	}
}

// Classification is the urgency derived from a reaction
type Classification struct {
	Urgency        types.Urgency
	Deadline       *time.Time
	ImportanceSeed int
}

// UrgencyClassifier maps a reaction to today, tomorrow or later.
// Deadlines are midnight of the target calendar day in the configured location.
type UrgencyClassifier struct {
	now      func() time.Time
	location *time.Location
	intN     func(n int) int
	seeds    ImportanceSeeds
}

func NewUrgencyClassifier(now func() time.Time, location *time.Location, intN func(n int) int, seeds ImportanceSeeds) *UrgencyClassifier {
	if now == nil {
		now = time.Now
	}
	if location == nil {
		location = time.UTC
	}
	if intN == nil {
		intN = rand.IntN
	}
	return &UrgencyClassifier{
		now:      now,
		location: location,
		intN:     intN,
		seeds:    seeds,
	}
}

// Classify returns false when reaction matches none of the three configured emoji.
// Slots are checked in today, tomorrow, later order.
func (c *UrgencyClassifier) Classify(reaction string, pref model.EmojiPreference) (Classification, bool) {
	name := model.NormalizeEmoji(reaction)
	if name == "" {
		return Classification{}, false
	}

	slots := map[types.Urgency]string{
		types.UrgencyToday:    model.NormalizeEmoji(pref.TodayEmoji),
		types.UrgencyTomorrow: model.NormalizeEmoji(pref.TomorrowEmoji),
		types.UrgencyLater:    model.NormalizeEmoji(pref.LaterEmoji),
	}

	for _, u := range types.AllUrgencies() {
		if slots[u] == name {
			return c.classification(u), true
		}
	}
	return Classification{}, false
}

func (c *UrgencyClassifier) classification(u types.Urgency) Classification {
	now := c.now().In(c.location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.location)

	switch u {
	case types.UrgencyToday:
		return Classification{
			Urgency:        u,
			Deadline:       &today,
			ImportanceSeed: c.seeds.Today,
		}
	case types.UrgencyTomorrow:
		tomorrow := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, c.location)
		return Classification{
			Urgency:        u,
			Deadline:       &tomorrow,
			ImportanceSeed: c.seeds.Tomorrow,
		}
	default:
		return Classification{
			Urgency:        types.UrgencyLater,
			ImportanceSeed: c.laterSeed(),
		}
	}
}

func (c *UrgencyClassifier) laterSeed() int {
	width := c.seeds.LaterMax - c.seeds.LaterMin
	if width <= 0 {
		return c.seeds.LaterMin
	}
	return c.seeds.LaterMin + c.intN(width)
}
