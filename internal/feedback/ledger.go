// Package feedback records like/dislike reactions to generated outfits and
// derives aggregate statistics from them.
//
// The ledger keeps at most one record per subject: recording feedback for a
// subject that already has a record replaces it. Storage failures never reach
// the caller; they are logged and the operation reports an empty result.
package feedback

import (
	"context"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/kalambet/lookbook/internal/analytics"
	"github.com/kalambet/lookbook/internal/clock"
	"github.com/kalambet/lookbook/internal/metrics"
	"github.com/kalambet/lookbook/internal/storage"
)

// Event is the analytics event name emitted for every recorded feedback.
const Event = "outfit_feedback"

// Ledger is the persisted feedback log.
type Ledger struct {
	kv     storage.KV
	sink   analytics.Sink
	clock  clock.Clock
	newID  func() string
	logger *slog.Logger
}

// NewLedger creates a Ledger over kv. A nil sink disables analytics.
func NewLedger(kv storage.KV, sink analytics.Sink) *Ledger {
	return NewLedgerWithClock(kv, sink, clock.Real{})
}

// NewLedgerWithClock creates a Ledger with a custom clock (for testing).
func NewLedgerWithClock(kv storage.KV, sink analytics.Sink, c clock.Clock) *Ledger {
	if sink == nil {
		sink = analytics.Nop{}
	}
	return &Ledger{
		kv:     kv,
		sink:   sink,
		clock:  c,
		newID:  newRecordID,
		logger: slog.Default().With("store", "feedback"),
	}
}

// newRecordID returns a UUIDv7, which sorts by creation time.
func newRecordID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// RecordFeedback replaces any record for subjectID with a new one and
// persists the full list in a single write. The returned bool is false when
// the record could not be stored.
//
// The read and the write are separate storage calls; two concurrent writers
// can lose an update.
func (l *Ledger) RecordFeedback(ctx context.Context, subjectID string, kind Kind, reason Reason) (*Record, bool) {
	if subjectID == "" {
		l.logger.Warn("refusing feedback without subject")
		return nil, false
	}
	if kind != Like && kind != Dislike {
		l.logger.Warn("refusing feedback of unknown kind", "kind", kind)
		return nil, false
	}

	records, err := l.load(ctx)
	if err != nil {
		l.fail("read", err)
		return nil, false
	}

	rec := Record{
		ID:        l.newID(),
		SubjectID: subjectID,
		Kind:      kind,
		Reason:    reason,
		Timestamp: l.clock.Now().UTC(),
	}

	next := make([]Record, 0, len(records)+1)
	for _, r := range records {
		if r.SubjectID != subjectID {
			next = append(next, r)
		}
	}
	next = append(next, rec)

	if err := storage.SetJSON(ctx, l.kv, StorageKey, next); err != nil {
		l.fail("write", err)
		return nil, false
	}

	metrics.FeedbackRecorded.WithLabelValues(string(kind)).Inc()
	l.emit(ctx, rec)
	return &rec, true
}

// Like records a like for subjectID.
func (l *Ledger) Like(ctx context.Context, subjectID string) (*Record, bool) {
	return l.RecordFeedback(ctx, subjectID, Like, "")
}

// Dislike records a dislike for subjectID with an optional reason.
func (l *Ledger) Dislike(ctx context.Context, subjectID string, reason Reason) (*Record, bool) {
	return l.RecordFeedback(ctx, subjectID, Dislike, reason)
}

// FeedbackFor returns the record for subjectID, if any.
func (l *Ledger) FeedbackFor(ctx context.Context, subjectID string) (Record, bool) {
	for _, r := range l.All(ctx) {
		if r.SubjectID == subjectID {
			return r, true
		}
	}
	return Record{}, false
}

// All returns every record in insertion order. Never nil.
func (l *Ledger) All(ctx context.Context) []Record {
	records, err := l.load(ctx)
	if err != nil {
		l.fail("read", err)
		return []Record{}
	}
	return records
}

// Stats aggregates the current ledger.
func (l *Ledger) Stats(ctx context.Context) Stats {
	return Aggregate(l.All(ctx))
}

// Reset deletes the whole ledger.
func (l *Ledger) Reset(ctx context.Context) bool {
	if err := l.kv.Remove(ctx, StorageKey); err != nil {
		l.fail("remove", err)
		return false
	}
	return true
}

// Aggregate computes Stats over records.
func Aggregate(records []Record) Stats {
	s := Stats{ReasonCounts: make(map[Reason]int)}
	for _, r := range records {
		s.Total++
		switch r.Kind {
		case Like:
			s.LikeCount++
		case Dislike:
			s.DislikeCount++
			if r.Reason != "" {
				s.ReasonCounts[r.Reason]++
			}
		}
	}
	if s.Total > 0 {
		s.LikeRate = int(math.Round(float64(s.LikeCount) / float64(s.Total) * 100))
	}
	return s
}

func (l *Ledger) load(ctx context.Context) ([]Record, error) {
	var records []Record
	if _, err := storage.GetJSON(ctx, l.kv, StorageKey, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

func (l *Ledger) emit(ctx context.Context, rec Record) {
	props := map[string]string{"kind": string(rec.Kind)}
	if rec.Kind == Dislike {
		reason := string(rec.Reason)
		if reason == "" {
			reason = "unspecified"
		}
		props["reason"] = reason
	}
	if err := l.sink.Emit(ctx, Event, props); err != nil {
		l.logger.Debug("analytics emit failed", "event", Event, "error", err)
	}
}

func (l *Ledger) fail(op string, err error) {
	metrics.StorageErrors.WithLabelValues("feedback", op).Inc()
	l.logger.Error("feedback storage failure", "op", op, "error", err)
}
