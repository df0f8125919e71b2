// Package intel narrates how much the app has learned about the user from
// their feedback and style preferences.
//
// Proactive messages are throttled by a cooldown and each message is shown at
// most once. Immediate acknowledgments of a single feedback action are not
// throttled and do not touch storage.
package intel

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/kalambet/lookbook/internal/clock"
	"github.com/kalambet/lookbook/internal/feedback"
	"github.com/kalambet/lookbook/internal/metrics"
	"github.com/kalambet/lookbook/internal/storage"
)

// StorageKey is the persisted key of the narrator state.
const StorageKey = "@intelligence_state"

// DefaultCooldown is the minimum gap between two proactive messages.
const DefaultCooldown = 2 * time.Hour

// MessageID identifies a proactive message.
type MessageID string

const (
	FirstFeedback  MessageID = "first_feedback"
	Learning       MessageID = "learning"
	PreferencesSet MessageID = "preferences_set"
	KnowingStyle   MessageID = "knowing_style"
)

var messageText = map[MessageID]string{
	FirstFeedback:  "Thanks for your first rating! I'm starting to learn your style.",
	Learning:       "I'm learning what you like. Your suggestions are getting more personal.",
	PreferencesSet: "I'm using your style profile to tailor every suggestion.",
	KnowingStyle:   "I'm really getting to know your style now.",
}

const (
	AckLike    = "Got it! I'll show you more looks like this."
	AckDislike = "Thanks for the feedback. I'll adjust future suggestions."
)

// Message is an emitted proactive message.
type Message struct {
	ID   MessageID `json:"id"`
	Text string    `json:"text"`
}

// State is the persisted throttle state.
type State struct {
	MessagesShown []MessageID `json:"messagesShown"`
	LastShown     *time.Time  `json:"lastShown,omitempty"`
}

func (s State) shown(id MessageID) bool {
	return slices.Contains(s.MessagesShown, id)
}

// StatsSource supplies feedback aggregates.
type StatsSource interface {
	Stats(ctx context.Context) feedback.Stats
}

// PreferenceChecker reports whether style preferences are configured.
type PreferenceChecker interface {
	HasPreferences(ctx context.Context) bool
}

// Narrator produces learning-progress messages.
type Narrator struct {
	kv       storage.KV
	stats    StatsSource
	prefs    PreferenceChecker
	clock    clock.Clock
	cooldown time.Duration
	logger   *slog.Logger
}

// NewNarrator creates a Narrator. A non-positive cooldown selects DefaultCooldown.
func NewNarrator(kv storage.KV, stats StatsSource, prefs PreferenceChecker, cooldown time.Duration) *Narrator {
	return NewNarratorWithClock(kv, stats, prefs, cooldown, clock.Real{})
}

// NewNarratorWithClock creates a Narrator with a custom clock (for testing).
func NewNarratorWithClock(kv storage.KV, stats StatsSource, prefs PreferenceChecker, cooldown time.Duration, c clock.Clock) *Narrator {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Narrator{
		kv:       kv,
		stats:    stats,
		prefs:    prefs,
		clock:    c,
		cooldown: cooldown,
		logger:   slog.Default().With("component", "intel"),
	}
}

// ImmediateAcknowledgment returns the fixed sentence for a feedback kind.
func ImmediateAcknowledgment(kind feedback.Kind) string {
	if kind == feedback.Like {
		return AckLike
	}
	return AckDislike
}

// ProactiveMessage returns the highest-priority unseen message whose
// condition currently holds, unless the cooldown since the last emitted
// message has not elapsed. State is only written when a message is returned;
// if that write fails the message is withheld so it can be shown later.
func (n *Narrator) ProactiveMessage(ctx context.Context) (Message, bool) {
	st, err := n.load(ctx)
	if err != nil {
		n.fail("read", err)
		return Message{}, false
	}
	now := n.clock.Now().UTC()
	if st.LastShown != nil && now.Sub(*st.LastShown) < n.cooldown {
		return Message{}, false
	}

	id, ok := n.pick(ctx, st)
	if !ok {
		return Message{}, false
	}

	st.MessagesShown = append(st.MessagesShown, id)
	st.LastShown = &now
	if err := storage.SetJSON(ctx, n.kv, StorageKey, st); err != nil {
		n.fail("write", err)
		return Message{}, false
	}
	metrics.IntelMessages.WithLabelValues(string(id)).Inc()
	return Message{ID: id, Text: messageText[id]}, true
}

// pick evaluates the triggers in priority order against fresh reads.
func (n *Narrator) pick(ctx context.Context, st State) (MessageID, bool) {
	total := n.stats.Stats(ctx).Total
	triggers := []struct {
		id   MessageID
		cond func() bool
	}{
		{FirstFeedback, func() bool { return total == 1 }},
		{Learning, func() bool { return total >= 3 && total <= 5 }},
		{PreferencesSet, func() bool { return n.prefs.HasPreferences(ctx) }},
		{KnowingStyle, func() bool { return total >= 8 }},
	}
	for _, t := range triggers {
		if st.shown(t.id) {
			continue
		}
		if t.cond() {
			return t.id, true
		}
	}
	return "", false
}

// State returns the persisted throttle state.
func (n *Narrator) State(ctx context.Context) State {
	st, err := n.load(ctx)
	if err != nil {
		n.fail("read", err)
		return State{MessagesShown: []MessageID{}}
	}
	return st
}

// ResetState forgets which messages were shown and when.
func (n *Narrator) ResetState(ctx context.Context) bool {
	if err := n.kv.Remove(ctx, StorageKey); err != nil {
		n.fail("remove", err)
		return false
	}
	return true
}

func (n *Narrator) load(ctx context.Context) (State, error) {
	var st State
	if _, err := storage.GetJSON(ctx, n.kv, StorageKey, &st); err != nil {
		return State{}, err
	}
	if st.MessagesShown == nil {
		st.MessagesShown = []MessageID{}
	}
	return st, nil
}

func (n *Narrator) fail(op string, err error) {
	metrics.StorageErrors.WithLabelValues("intel", op).Inc()
	n.logger.Error("intelligence state storage failure", "op", op, "error", err)
}
