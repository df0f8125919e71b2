package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"

	"github.com/kalambet/lookbook/internal/config"
	"github.com/kalambet/lookbook/internal/feedback"
	"github.com/kalambet/lookbook/internal/intel"
	"github.com/kalambet/lookbook/internal/outfit"
	"github.com/kalambet/lookbook/internal/wardrobe"
	"github.com/kalambet/lookbook/internal/weather"
	"github.com/kalambet/lookbook/internal/wizard"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Pick an occasion and style, then get an outfit",
	Long: `Walk through the outfit wizard: choose an occasion, up to two styles,
then rate the suggestion.

Without flags the wizard is interactive. With --occasion or --style it runs
straight through.

Examples:
  lookbook suggest
  lookbook suggest --occasion work --style classic --style minimal --rate like`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		var ch chooser = huhChooser{}
		if cmd.Flags().Changed("occasion") || cmd.Flags().Changed("style") {
			fc := flagChooser{}
			if v, _ := cmd.Flags().GetString("occasion"); v != "" {
				fc.occasion = &v
			}
			fc.styles, _ = cmd.Flags().GetStringSlice("style")
			rate, _ := cmd.Flags().GetString("rate")
			reason, _ := cmd.Flags().GetString("reason")
			if fc.rating, fc.reason, err = parseRating(rate, reason); err != nil {
				return err
			}
			ch = fc
		}

		w := wizard.New(wizard.Deps{
			Wardrobe:  apiWardrobe{client},
			Weather:   apiWeather{client},
			Feedback:  apiFeedback{client},
			Generator: outfit.NewGenerator(),
		}, wizard.Config{
			MinWardrobe: cfg.Wizard.MinWardrobe,
			ResultDelay: cfg.Wizard.ResultDelay,
		})

		err = runSuggest(cmd.Context(), w, ch)
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		if err != nil {
			return err
		}

		if resp, err := client.get(cmd.Context(), "/intel/proactive"); err == nil {
			var msg intel.Message
			if resp.StatusCode != http.StatusOK {
				resp.Body.Close()
			} else if decodeJSON(resp, &msg) == nil {
				fmt.Println(colorize(colorCyan, "✦ ") + msg.Text)
			}
		}
		return nil
	},
}

func init() {
	suggestCmd.Flags().String("occasion", "", "occasion id, e.g. work or date")
	suggestCmd.Flags().StringSlice("style", nil, "style id, up to two")
	suggestCmd.Flags().String("rate", "", "rate the result: like or dislike")
	suggestCmd.Flags().String("reason", "", "dislike reason: fit, color, weather or vibe")
}

func parseRating(rate, reason string) (*feedback.Kind, feedback.Reason, error) {
	if rate == "" {
		if reason != "" {
			return nil, "", fmt.Errorf("--reason needs --rate dislike")
		}
		return nil, "", nil
	}
	kind, err := feedback.ParseKind(rate)
	if err != nil {
		return nil, "", err
	}
	var r feedback.Reason
	if reason != "" {
		if r, err = feedback.ParseReason(reason); err != nil {
			return nil, "", err
		}
	}
	return &kind, r, nil
}

// chooser collects the user's picks for one wizard run.
type chooser interface {
	Occasion() (*string, error)
	Styles() ([]string, error)
	// Rate returns a nil kind when the user skips rating.
	Rate(o outfit.Outfit) (*feedback.Kind, feedback.Reason, error)
	Working(title string, action func()) error
}

func runSuggest(ctx context.Context, w *wizard.Wizard, ch chooser) error {
	if err := w.Open(ctx); err != nil {
		return err
	}
	printStatus("Weather", "%s %s", w.Weather().TempDisplay, w.Weather().Icon)

	occasion, err := ch.Occasion()
	if err != nil {
		return err
	}
	if err := w.SelectOccasion(occasion); err != nil {
		return err
	}
	if err := w.Next(); err != nil {
		return err
	}

	styles, err := ch.Styles()
	if err != nil {
		return err
	}
	for _, s := range styles {
		if err := w.ToggleStyle(s); err != nil {
			return err
		}
	}

	var nextErr error
	if err := ch.Working("Putting your look together...", func() { nextErr = w.Next() }); err != nil {
		return err
	}
	if errors.Is(nextErr, wizard.ErrWardrobeTooSmall) {
		printWarning("Add at least %d items with 'lookbook wardrobe add' to get suggestions (you have %d).",
			w.MinWardrobe(), w.WardrobeSize())
		return nil
	}
	if nextErr != nil {
		return nextErr
	}

	o, _ := w.Outfit()
	printOutfit(o)

	kind, reason, err := ch.Rate(o)
	if err != nil {
		return err
	}
	if kind == nil {
		return nil
	}
	ack, err := w.GiveFeedback(ctx, *kind, reason)
	if err != nil {
		return err
	}
	printSuccess("%s", ack)
	return nil
}

// huhChooser asks interactively.
type huhChooser struct{}

func (huhChooser) Occasion() (*string, error) {
	choice := ""
	opts := []huh.Option[string]{huh.NewOption("Skip", "")}
	for _, o := range outfit.Occasions {
		opts = append(opts, huh.NewOption(o.Label, o.ID))
	}
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("What's the occasion?").
				Options(opts...).
				Value(&choice),
		),
	).WithTheme(huh.ThemeDracula()).Run()
	if err != nil {
		return nil, err
	}
	if choice == "" {
		return nil, nil
	}
	return &choice, nil
}

func (huhChooser) Styles() ([]string, error) {
	var picked []string
	opts := make([]huh.Option[string], 0, len(outfit.Styles))
	for _, s := range outfit.Styles {
		opts = append(opts, huh.NewOption(s.Label, s.ID))
	}
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Pick a style").
				Description(fmt.Sprintf("Up to %d, or none", outfit.MaxStyles)).
				Options(opts...).
				Limit(outfit.MaxStyles).
				Value(&picked),
		),
	).WithTheme(huh.ThemeDracula()).Run()
	return picked, err
}

func (huhChooser) Rate(o outfit.Outfit) (*feedback.Kind, feedback.Reason, error) {
	rating := ""
	reason := ""
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("How does this look?").
				Options(
					huh.NewOption("Love it", string(feedback.Like)),
					huh.NewOption("Not for me", string(feedback.Dislike)),
					huh.NewOption("Skip", ""),
				).
				Value(&rating),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("What's off?").
				Options(
					huh.NewOption("Fit", string(feedback.ReasonFit)),
					huh.NewOption("Color", string(feedback.ReasonColor)),
					huh.NewOption("Weather", string(feedback.ReasonWeather)),
					huh.NewOption("Vibe", string(feedback.ReasonVibe)),
					huh.NewOption("Just skip", ""),
				).
				Value(&reason),
		).WithHideFunc(func() bool { return rating != string(feedback.Dislike) }),
	).WithTheme(huh.ThemeDracula())
	if err := form.Run(); err != nil {
		return nil, "", err
	}
	return parseRating(rating, strings.TrimSpace(reason))
}

func (huhChooser) Working(title string, action func()) error {
	return spinner.New().Title(title).Action(action).Run()
}

// flagChooser replays choices given on the command line.
type flagChooser struct {
	occasion *string
	styles   []string
	rating   *feedback.Kind
	reason   feedback.Reason
}

func (f flagChooser) Occasion() (*string, error) { return f.occasion, nil }

func (f flagChooser) Styles() ([]string, error) { return f.styles, nil }

func (f flagChooser) Rate(outfit.Outfit) (*feedback.Kind, feedback.Reason, error) {
	return f.rating, f.reason, nil
}

func (f flagChooser) Working(_ string, action func()) error {
	action()
	return nil
}

// apiWardrobe lists closet items from the server. Errors read as an empty
// closet, matching the local store.
type apiWardrobe struct{ c *apiClient }

func (a apiWardrobe) List(ctx context.Context) []wardrobe.Item {
	resp, err := a.c.get(ctx, "/wardrobe")
	if err != nil {
		slog.Warn("loading wardrobe", "error", err)
		return []wardrobe.Item{}
	}
	var items []wardrobe.Item
	if err := decodeJSON(resp, &items); err != nil {
		slog.Warn("loading wardrobe", "error", err)
		return []wardrobe.Item{}
	}
	return items
}

type apiWeather struct{ c *apiClient }

func (a apiWeather) Current(ctx context.Context) (weather.Reading, error) {
	resp, err := a.c.get(ctx, "/weather")
	if err != nil {
		return weather.Reading{}, err
	}
	var r weather.Reading
	if err := decodeJSON(resp, &r); err != nil {
		return weather.Reading{}, err
	}
	return r, nil
}

type apiFeedback struct{ c *apiClient }

func (a apiFeedback) RecordFeedback(ctx context.Context, subjectID string, kind feedback.Kind, reason feedback.Reason) (*feedback.Record, bool) {
	body := map[string]string{"subject_id": subjectID, "kind": string(kind)}
	if reason != "" {
		body["reason"] = string(reason)
	}
	resp, err := a.c.post(ctx, "/feedback", body)
	if err != nil {
		slog.Warn("recording feedback", "error", err)
		return nil, false
	}
	var result feedbackResult
	if err := decodeJSON(resp, &result); err != nil {
		slog.Warn("recording feedback", "error", err)
		return nil, false
	}
	return &result.Record, true
}
