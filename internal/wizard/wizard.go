// Package wizard sequences the three-step outfit decision flow:
// occasion, then style, then a generated result the user can rate.
//
// A Wizard is a single-session object and is not safe for concurrent use.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kalambet/lookbook/internal/feedback"
	"github.com/kalambet/lookbook/internal/intel"
	"github.com/kalambet/lookbook/internal/outfit"
	"github.com/kalambet/lookbook/internal/wardrobe"
	"github.com/kalambet/lookbook/internal/weather"
)

// Step is a wizard state.
type Step int

const (
	StepOccasion Step = iota
	StepStyle
	StepResult
)

func (s Step) String() string {
	switch s {
	case StepOccasion:
		return "occasion"
	case StepStyle:
		return "style"
	case StepResult:
		return "result"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

var (
	ErrWrongStep            = errors.New("action not available at this step")
	ErrWardrobeTooSmall     = errors.New("wardrobe too small to generate an outfit")
	ErrUnknownOccasion      = errors.New("unknown occasion")
	ErrUnknownStyle         = errors.New("unknown style")
	ErrTooManyStyles        = errors.New("too many styles selected")
	ErrFeedbackAlreadyGiven = errors.New("feedback already given for this outfit")
	ErrFeedbackNotSaved     = errors.New("feedback could not be saved")
)

// WardrobeSource lists closet items.
type WardrobeSource interface {
	List(ctx context.Context) []wardrobe.Item
}

// FeedbackRecorder persists a rating of a generated outfit.
type FeedbackRecorder interface {
	RecordFeedback(ctx context.Context, subjectID string, kind feedback.Kind, reason feedback.Reason) (*feedback.Record, bool)
}

// Generator builds an outfit.
type Generator interface {
	Generate(in outfit.Input) outfit.Outfit
}

// Deps are the collaborators a Wizard drives.
type Deps struct {
	Wardrobe  WardrobeSource
	Weather   weather.Provider
	Feedback  FeedbackRecorder
	Generator Generator
	// Acknowledge defaults to intel.ImmediateAcknowledgment.
	Acknowledge func(feedback.Kind) string
}

// Config tunes the flow.
type Config struct {
	// MinWardrobe is the fewest items generation accepts. Defaults to 3.
	MinWardrobe int
	// ResultDelay is a fixed pause before the result is shown.
	ResultDelay time.Duration
	// Sleep implements the pause. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

const DefaultMinWardrobe = 3

// Wizard is one run of the decision flow.
type Wizard struct {
	deps Deps
	cfg  Config

	step     Step
	occasion *string
	styles   []string

	wardrobe []wardrobe.Item
	weather  weather.Reading

	outfit *outfit.Outfit
	rated  *feedback.Kind
	ack    string
}

// New creates a Wizard. Call Open before use.
func New(deps Deps, cfg Config) *Wizard {
	if deps.Acknowledge == nil {
		deps.Acknowledge = intel.ImmediateAcknowledgment
	}
	if cfg.MinWardrobe <= 0 {
		cfg.MinWardrobe = DefaultMinWardrobe
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	return &Wizard{deps: deps, cfg: cfg}
}

// Open (re)starts the flow: selections and any prior outfit are discarded,
// and the wardrobe and weather are loaded concurrently. Weather failures
// degrade to weather.Fallback.
func (w *Wizard) Open(ctx context.Context) error {
	w.clear()

	var (
		items   []wardrobe.Item
		reading weather.Reading
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items = w.deps.Wardrobe.List(gctx)
		return nil
	})
	g.Go(func() error {
		reading = weather.CurrentOrFallback(gctx, w.deps.Weather)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("opening wizard: %w", err)
	}

	w.wardrobe = items
	w.weather = reading
	return nil
}

// Reset returns to the occasion step, discarding selections and the outfit.
// The loaded wardrobe and weather are kept.
func (w *Wizard) Reset() {
	w.clear()
}

func (w *Wizard) clear() {
	w.step = StepOccasion
	w.occasion = nil
	w.styles = nil
	w.outfit = nil
	w.rated = nil
	w.ack = ""
}

// SelectOccasion sets the occasion; nil clears it (skip).
func (w *Wizard) SelectOccasion(id *string) error {
	if w.step != StepOccasion {
		return ErrWrongStep
	}
	if id == nil {
		w.occasion = nil
		return nil
	}
	if _, ok := outfit.OccasionLabel(*id); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownOccasion, *id)
	}
	v := *id
	w.occasion = &v
	return nil
}

// ToggleStyle adds or removes a style tag. At most outfit.MaxStyles may be
// selected at once.
func (w *Wizard) ToggleStyle(id string) error {
	if w.step != StepStyle {
		return ErrWrongStep
	}
	if i := slices.Index(w.styles, id); i >= 0 {
		w.styles = slices.Delete(w.styles, i, i+1)
		return nil
	}
	if _, ok := outfit.StyleLabel(id); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStyle, id)
	}
	if len(w.styles) >= outfit.MaxStyles {
		return ErrTooManyStyles
	}
	w.styles = append(w.styles, id)
	return nil
}

// Next advances one step. Advancing from the style step generates the
// outfit after the configured pause; it is refused with ErrWardrobeTooSmall
// when the wardrobe has fewer than MinWardrobe items.
func (w *Wizard) Next() error {
	switch w.step {
	case StepOccasion:
		w.step = StepStyle
		return nil
	case StepStyle:
		if len(w.wardrobe) < w.cfg.MinWardrobe {
			return fmt.Errorf("%w: have %d, need %d", ErrWardrobeTooSmall, len(w.wardrobe), w.cfg.MinWardrobe)
		}
		if w.cfg.ResultDelay > 0 {
			w.cfg.Sleep(w.cfg.ResultDelay)
		}
		o := w.deps.Generator.Generate(outfit.Input{
			Wardrobe: w.wardrobe,
			Weather:  w.weather,
			Occasion: w.occasion,
			Styles:   slices.Clone(w.styles),
		})
		w.outfit = &o
		w.step = StepResult
		return nil
	}
	return ErrWrongStep
}

// Back returns from the style step to the occasion step, keeping selections.
func (w *Wizard) Back() error {
	if w.step != StepStyle {
		return ErrWrongStep
	}
	w.step = StepOccasion
	return nil
}

// GiveFeedback rates the current outfit once and returns the immediate
// acknowledgment. A failed save leaves feedback available for a retry.
func (w *Wizard) GiveFeedback(ctx context.Context, kind feedback.Kind, reason feedback.Reason) (string, error) {
	if w.step != StepResult || w.outfit == nil {
		return "", ErrWrongStep
	}
	if w.rated != nil {
		return w.ack, ErrFeedbackAlreadyGiven
	}
	if _, ok := w.deps.Feedback.RecordFeedback(ctx, w.outfit.ID, kind, reason); !ok {
		return "", ErrFeedbackNotSaved
	}
	k := kind
	w.rated = &k
	w.ack = w.deps.Acknowledge(kind)
	return w.ack, nil
}

// Acknowledgment returns the stored acknowledgment once feedback was given.
func (w *Wizard) Acknowledgment() (string, bool) {
	return w.ack, w.rated != nil
}

// FeedbackAvailable reports whether the result can still be rated.
func (w *Wizard) FeedbackAvailable() bool {
	return w.step == StepResult && w.rated == nil
}

func (w *Wizard) Step() Step { return w.step }

// Occasion returns the selected occasion id, nil if skipped.
func (w *Wizard) Occasion() *string { return w.occasion }

func (w *Wizard) Styles() []string { return slices.Clone(w.styles) }

// Outfit returns the generated outfit once the result step is reached.
func (w *Wizard) Outfit() (outfit.Outfit, bool) {
	if w.outfit == nil {
		return outfit.Outfit{}, false
	}
	return *w.outfit, true
}

func (w *Wizard) Weather() weather.Reading { return w.weather }

func (w *Wizard) WardrobeSize() int { return len(w.wardrobe) }

// MinWardrobe is the fewest items Next accepts before generating.
func (w *Wizard) MinWardrobe() int { return w.cfg.MinWardrobe }
