package model

import (
	"strings"
	"time"
)

// Fingerprint identifies one reaction on one message by one actor.
// It is the duplicate suppression key for Slack redeliveries.
type Fingerprint struct {
	Channel   string
	MessageTS string
	Reaction  string
	Actor     string
}

// Key returns the stable "channel:ts:reaction:actor" form
func (f Fingerprint) Key() FingerprintKey {
	return FingerprintKey(strings.Join([]string{f.Channel, f.MessageTS, f.Reaction, f.Actor}, ":"))
}

// FingerprintKey is the serialized Fingerprint
type FingerprintKey string

func (k FingerprintKey) String() string {
	return string(k)
}

// ProcessedEvent records that a fingerprint produced a task. Written only after the
// task is persisted, never reserved up front.
type ProcessedEvent struct {
	Key         FingerprintKey
	OwnerUserID UserID
	TaskID      TaskID
	ProcessedAt time.Time
}
