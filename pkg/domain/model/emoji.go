package model

import "strings"

// Default emoji names applied to empty preference slots
const (
	DefaultTodayEmoji    = "fire"
	DefaultTomorrowEmoji = "soon"
	DefaultLaterEmoji    = "memo"
)

// EmojiPreference is a user's mapping from urgency to reaction emoji name
type EmojiPreference struct {
	OwnerUserID   UserID
	TodayEmoji    string
	TomorrowEmoji string
	LaterEmoji    string
}

// DefaultEmojiPreference returns the built-in emoji names
func DefaultEmojiPreference() EmojiPreference {
	return EmojiPreference{
		TodayEmoji:    DefaultTodayEmoji,
		TomorrowEmoji: DefaultTomorrowEmoji,
		LaterEmoji:    DefaultLaterEmoji,
	}
}

// WithDefaults returns a copy where each empty slot is filled from defaults.
// Configured names are normalized with NormalizeEmoji.
func (p EmojiPreference) WithDefaults(defaults EmojiPreference) EmojiPreference {
	fill := func(v, d string) string {
		if n := NormalizeEmoji(v); n != "" {
			return n
		}
		return NormalizeEmoji(d)
	}

	return EmojiPreference{
		OwnerUserID:   p.OwnerUserID,
		TodayEmoji:    fill(p.TodayEmoji, defaults.TodayEmoji),
		TomorrowEmoji: fill(p.TomorrowEmoji, defaults.TomorrowEmoji),
		LaterEmoji:    fill(p.LaterEmoji, defaults.LaterEmoji),
	}
}

// NormalizeEmoji strips surrounding colons and whitespace, e.g. ":fire:" -> "fire"
func NormalizeEmoji(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, ":")
	name = strings.TrimSuffix(name, ":")
	return strings.ToLower(name)
}
