package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kalambet/lookbook/internal/config"
	"github.com/kalambet/lookbook/internal/feedback"
	"github.com/kalambet/lookbook/internal/intel"
	"github.com/kalambet/lookbook/internal/preferences"
	"github.com/kalambet/lookbook/internal/wardrobe"
	"github.com/kalambet/lookbook/internal/watchlist"
)

// --- feedback ---

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Rate outfits and inspect feedback",
}

type feedbackResult struct {
	Record         feedback.Record `json:"record"`
	Acknowledgment string          `json:"acknowledgment"`
}

func sendFeedback(cmd *cobra.Command, subjectID string, kind feedback.Kind, reason string) error {
	if reason != "" {
		if _, err := feedback.ParseReason(reason); err != nil {
			return err
		}
	}

	client, err := newAPIClient()
	if err != nil {
		return err
	}

	body := map[string]string{"subject_id": subjectID, "kind": string(kind)}
	if reason != "" {
		body["reason"] = reason
	}
	resp, err := client.post(cmd.Context(), "/feedback", body)
	if err != nil {
		return err
	}

	var result feedbackResult
	if err := decodeJSON(resp, &result); err != nil {
		return err
	}
	printSuccess("%s", result.Acknowledgment)
	return nil
}

var feedbackLikeCmd = &cobra.Command{
	Use:   "like <subject-id>",
	Short: "Like a suggestion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendFeedback(cmd, args[0], feedback.Like, "")
	},
}

var feedbackDislikeCmd = &cobra.Command{
	Use:   "dislike <subject-id>",
	Short: "Dislike a suggestion",
	Long: `Dislike a suggestion, optionally saying why.

Reasons: fit, color, weather, vibe.

Examples:
  lookbook feedback dislike 0192f3c4-... --reason color`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		return sendFeedback(cmd, args[0], feedback.Dislike, reason)
	},
}

var feedbackStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show feedback statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/feedback/stats")
		if err != nil {
			return err
		}
		var stats feedback.Stats
		if err := decodeJSON(resp, &stats); err != nil {
			return err
		}

		printStatus("Total", "%d", stats.Total)
		printStatus("Likes", "%d", stats.LikeCount)
		printStatus("Dislikes", "%d", stats.DislikeCount)
		printStatus("Like rate", "%d%%", stats.LikeRate)
		for _, r := range feedback.Reasons {
			if n := stats.ReasonCounts[r]; n > 0 {
				printStatus("  "+string(r), "%d", n)
			}
		}
		return nil
	},
}

var feedbackResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all feedback",
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("This will delete ALL feedback. Use --confirm to proceed.")
			return nil
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.delete(cmd.Context(), "/feedback")
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("Feedback cleared")
		return nil
	},
}

func init() {
	feedbackDislikeCmd.Flags().String("reason", "", "why: fit, color, weather or vibe")
	feedbackResetCmd.Flags().Bool("confirm", false, "confirm deletion")
	feedbackCmd.AddCommand(feedbackLikeCmd, feedbackDislikeCmd, feedbackStatsCmd, feedbackResetCmd)
}

// --- prefs ---

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or update style preferences",
}

type prefsView struct {
	Preferences    *preferences.Preferences `json:"preferences"`
	HasPreferences bool                     `json:"hasPreferences"`
	Summary        string                   `json:"summary"`
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show style preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/preferences")
		if err != nil {
			return err
		}
		var view prefsView
		if err := decodeJSON(resp, &view); err != nil {
			return err
		}

		fmt.Println(view.Summary)
		if view.Preferences != nil && !view.Preferences.UpdatedAt.IsZero() {
			printStatus("Updated", "%s", view.Preferences.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Replace style preferences",
	Long: `Replace style preferences. Fields not given are cleared.

Examples:
  lookbook prefs set --hair brown --eyes green`,
	RunE: func(cmd *cobra.Command, args []string) error {
		hair, _ := cmd.Flags().GetString("hair")
		eyes, _ := cmd.Flags().GetString("eyes")
		skin, _ := cmd.Flags().GetString("skin")
		if strings.TrimSpace(hair+eyes+skin) == "" {
			return fmt.Errorf("at least one of --hair, --eyes or --skin is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.put(cmd.Context(), "/preferences", preferences.Update{Hair: hair, Eyes: eyes, Skin: skin})
		if err != nil {
			return err
		}
		var view prefsView
		if err := decodeJSON(resp, &view); err != nil {
			return err
		}
		printSuccess("%s", view.Summary)
		return nil
	},
}

var prefsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear style preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.delete(cmd.Context(), "/preferences")
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("Style preferences cleared")
		return nil
	},
}

func init() {
	prefsSetCmd.Flags().String("hair", "", "hair color")
	prefsSetCmd.Flags().String("eyes", "", "eye color")
	prefsSetCmd.Flags().String("skin", "", "skin tone")
	prefsCmd.AddCommand(prefsShowCmd, prefsSetCmd, prefsClearCmd)
}

// --- watchlist ---

var watchlistCmd = &cobra.Command{
	Use:   "watchlist",
	Short: "Manage the movie watchlist",
}

var watchlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved movies",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/watchlist")
		if err != nil {
			return err
		}
		var movies []watchlist.Movie
		if err := decodeJSON(resp, &movies); err != nil {
			return err
		}

		if len(movies) == 0 {
			fmt.Println("Your watchlist is empty.")
			return nil
		}
		for _, m := range movies {
			fmt.Printf("%s  %s\n", colorize(colorCyan, m.ID), movieLine(m))
		}
		return nil
	},
}

var watchlistAddCmd = &cobra.Command{
	Use:   "add <id> <title>",
	Short: "Save a movie",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, _ := cmd.Flags().GetString("year")
		overview, _ := cmd.Flags().GetString("overview")
		poster, _ := cmd.Flags().GetString("poster")
		rating, _ := cmd.Flags().GetFloat64("rating")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/watchlist", watchlist.Movie{
			ID:          args[0],
			Title:       args[1],
			Year:        year,
			Overview:    overview,
			Poster:      poster,
			VoteAverage: rating,
		})
		if err != nil {
			return err
		}

		// A duplicate answers 409 with a Result body rather than an error envelope.
		if resp.StatusCode == http.StatusConflict {
			defer resp.Body.Close()
			var result watchlist.Result
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				return fmt.Errorf("decoding conflict: %w", err)
			}
			printWarning("%s", result.Message)
			return nil
		}

		var result watchlist.Result
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Added %s to your watchlist", args[1])
		return nil
	},
}

var watchlistRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a movie",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.delete(cmd.Context(), "/watchlist/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}
		var result watchlist.Result
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("could not remove %s: %s", args[0], result.Message)
		}
		printSuccess("Removed %s", args[0])
		return nil
	},
}

func init() {
	watchlistAddCmd.Flags().String("year", "", "release year")
	watchlistAddCmd.Flags().String("overview", "", "short synopsis")
	watchlistAddCmd.Flags().String("poster", "", "poster URL")
	watchlistAddCmd.Flags().Float64("rating", 0, "average vote, 0-10")
	watchlistCmd.AddCommand(watchlistListCmd, watchlistAddCmd, watchlistRemoveCmd)
}

// --- wardrobe ---

var wardrobeCmd = &cobra.Command{
	Use:   "wardrobe",
	Short: "Manage closet items",
}

var wardrobeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List closet items",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/wardrobe")
		if err != nil {
			return err
		}
		var items []wardrobe.Item
		if err := decodeJSON(resp, &items); err != nil {
			return err
		}

		if len(items) == 0 {
			fmt.Println("Your wardrobe is empty. Add items with 'lookbook wardrobe add'.")
			return nil
		}
		for _, it := range items {
			fmt.Printf("%s  %-10s %s\n", colorize(colorCyan, it.ID), it.NormalizedCategory(), itemLabel(it))
		}
		return nil
	},
}

var wardrobeAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a closet item",
	Long: `Add a closet item.

Examples:
  lookbook wardrobe add --category tops --name "oxford shirt" --color white
  lookbook wardrobe add --category shoes --image ~/photos/boots.jpg`,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		category, _ := cmd.Flags().GetString("category")
		name, _ := cmd.Flags().GetString("name")
		color, _ := cmd.Flags().GetString("color")
		image, _ := cmd.Flags().GetString("image")

		if category == "" {
			return fmt.Errorf("--category is required")
		}
		if id == "" {
			id = uuid.Must(uuid.NewV7()).String()
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		item := wardrobe.Item{ID: id, Category: category, Name: name, Color: color, Image: image}
		resp, err := client.post(cmd.Context(), "/wardrobe", item)
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, &item); err != nil {
			if statusOf(err) == http.StatusConflict {
				printWarning("An item with id %s already exists", id)
				return nil
			}
			return err
		}
		printSuccess("Added %s (%s)", itemLabel(item), item.ID)
		return nil
	},
}

var wardrobeRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a closet item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.delete(cmd.Context(), "/wardrobe/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			if statusOf(err) == http.StatusNotFound {
				printWarning("No item with id %s", args[0])
				return nil
			}
			return err
		}
		printSuccess("Removed %s", args[0])
		return nil
	},
}

func init() {
	wardrobeAddCmd.Flags().String("id", "", "item id (generated when empty)")
	wardrobeAddCmd.Flags().String("category", "", "tops, bottoms, shoes or outerwear")
	wardrobeAddCmd.Flags().String("name", "", "display name")
	wardrobeAddCmd.Flags().String("color", "", "color")
	wardrobeAddCmd.Flags().String("image", "", "image path or URL")
	wardrobeCmd.AddCommand(wardrobeListCmd, wardrobeAddCmd, wardrobeRemoveCmd)
}

// --- intel ---

var intelCmd = &cobra.Command{
	Use:   "intel",
	Short: "Show what lookbook has learned about your style",
	RunE: func(cmd *cobra.Command, args []string) error {
		showState, _ := cmd.Flags().GetBool("state")
		reset, _ := cmd.Flags().GetBool("reset")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		switch {
		case reset:
			resp, err := client.delete(cmd.Context(), "/intel/state")
			if err != nil {
				return err
			}
			if err := decodeJSON(resp, nil); err != nil {
				return err
			}
			printSuccess("Intelligence messages will be shown again")
			return nil

		case showState:
			resp, err := client.get(cmd.Context(), "/intel/state")
			if err != nil {
				return err
			}
			var st intel.State
			if err := decodeJSON(resp, &st); err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		}

		resp, err := client.get(cmd.Context(), "/intel/proactive")
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusNoContent {
			resp.Body.Close()
			fmt.Println("Nothing new yet. Keep rating outfits.")
			return nil
		}
		var msg intel.Message
		if err := decodeJSON(resp, &msg); err != nil {
			return err
		}
		fmt.Println(colorize(colorCyan, "✦ ") + msg.Text)
		return nil
	},
}

func init() {
	intelCmd.Flags().Bool("state", false, "print the stored narrator state")
	intelCmd.Flags().Bool("reset", false, "forget which messages were shown")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Revert a configuration value to its default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}
		printSuccess("Unset %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd, configUnsetCmd)
}
