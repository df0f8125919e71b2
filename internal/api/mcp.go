package api

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/lookbook/internal/feedback"
	"github.com/kalambet/lookbook/internal/intel"
	"github.com/kalambet/lookbook/internal/outfit"
	"github.com/kalambet/lookbook/internal/preferences"
	"github.com/kalambet/lookbook/internal/wardrobe"
	"github.com/kalambet/lookbook/internal/watchlist"
	"github.com/kalambet/lookbook/internal/weather"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Ledger      *feedback.Ledger
	Preferences *preferences.Store
	Watchlist   *watchlist.Store
	Wardrobe    *wardrobe.Store
	Narrator    *intel.Narrator
	Weather     weather.Provider
	Generator   *outfit.Generator
	MinWardrobe int
}

// NewMCPServer creates an MCP server with all lookbook tools and resources registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	if deps.MinWardrobe <= 0 {
		deps.MinWardrobe = 3
	}

	s := server.NewMCPServer(
		"lookbook",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("lookbook: outfit suggestions from the user's wardrobe, feedback on them, and a movie watchlist."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("record_feedback",
			mcp.WithDescription("Record a like or dislike for a generated outfit. Replaces earlier feedback for the same outfit."),
			mcp.WithString("subject_id", mcp.Description("Outfit id the feedback is about"), mcp.Required()),
			mcp.WithString("kind", mcp.Description("like or dislike"), mcp.Required(), mcp.Enum("like", "dislike")),
			mcp.WithString("reason", mcp.Description("Optional dislike reason"), mcp.Enum("fit", "color", "weather", "vibe")),
		),
		mcpRecordFeedback(deps),
	)

	s.AddTool(
		mcp.NewTool("feedback_stats",
			mcp.WithDescription("Return aggregate like/dislike statistics."),
		),
		mcpFeedbackStats(deps),
	)

	s.AddTool(
		mcp.NewTool("generate_outfit",
			mcp.WithDescription("Suggest one outfit from the wardrobe for the current weather."),
			mcp.WithString("occasion", mcp.Description("Occasion id (work, date, casual, party, interview, wedding)")),
			mcp.WithArray("styles", mcp.Description("Up to two style ids (classic, minimal, street, bohemian, sporty, edgy)")),
		),
		mcpGenerateOutfit(deps),
	)

	s.AddTool(
		mcp.NewTool("watchlist_add",
			mcp.WithDescription("Add a movie to the watchlist. Duplicates are rejected."),
			mcp.WithString("id", mcp.Description("Catalog movie id"), mcp.Required()),
			mcp.WithString("title", mcp.Description("Movie title"), mcp.Required()),
			mcp.WithString("year", mcp.Description("Release year")),
		),
		mcpWatchlistAdd(deps),
	)

	s.AddTool(
		mcp.NewTool("watchlist_remove",
			mcp.WithDescription("Remove a movie from the watchlist."),
			mcp.WithString("id", mcp.Description("Catalog movie id"), mcp.Required()),
		),
		mcpWatchlistRemove(deps),
	)

	s.AddTool(
		mcp.NewTool("set_style_preferences",
			mcp.WithDescription("Replace the stored style preferences. Attributes not supplied are cleared."),
			mcp.WithString("hair", mcp.Description("Hair color")),
			mcp.WithString("eyes", mcp.Description("Eye color")),
			mcp.WithString("skin", mcp.Description("Skin tone")),
		),
		mcpSetStylePreferences(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"lookbook://stats",
			"Feedback Stats",
			mcp.WithResourceDescription("Aggregate feedback statistics as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpJSONResource(func(ctx context.Context) any { return deps.Ledger.Stats(ctx) }),
	)

	s.AddResource(
		mcp.NewResource(
			"lookbook://watchlist",
			"Watchlist",
			mcp.WithResourceDescription("Saved movies in insertion order"),
			mcp.WithMIMEType("application/json"),
		),
		mcpJSONResource(func(ctx context.Context) any { return deps.Watchlist.List(ctx) }),
	)

	s.AddResource(
		mcp.NewResource(
			"lookbook://intel",
			"Learning Progress",
			mcp.WithResourceDescription("A throttled message about what has been learned; null when there is nothing new"),
			mcp.WithMIMEType("application/json"),
		),
		mcpJSONResource(func(ctx context.Context) any {
			if msg, ok := deps.Narrator.ProactiveMessage(ctx); ok {
				return msg
			}
			return nil
		}),
	)

	return s
}

func mcpRecordFeedback(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		subjectID, err := req.RequireString("subject_id")
		if err != nil || subjectID == "" {
			return mcpError("subject_id is required"), nil
		}
		rawKind, err := req.RequireString("kind")
		if err != nil {
			return mcpError("kind is required"), nil
		}
		kind, err := feedback.ParseKind(rawKind)
		if err != nil {
			return mcpError(err.Error()), nil
		}
		var reason feedback.Reason
		if kind == feedback.Dislike {
			if reason, err = feedback.ParseReason(req.GetString("reason", "")); err != nil {
				return mcpError(err.Error()), nil
			}
		}

		if _, ok := deps.Ledger.RecordFeedback(ctx, subjectID, kind, reason); !ok {
			return mcpError("feedback could not be saved"), nil
		}
		return mcpText(intel.ImmediateAcknowledgment(kind)), nil
	}
}

func mcpFeedbackStats(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcpJSON(deps.Ledger.Stats(ctx))
	}
}

func mcpGenerateOutfit(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var occasion *string
		if id := req.GetString("occasion", ""); id != "" {
			if _, ok := outfit.OccasionLabel(id); !ok {
				return mcpError(fmt.Sprintf("unknown occasion %q", id)), nil
			}
			occasion = &id
		}
		styles := req.GetStringSlice("styles", nil)
		if len(styles) > outfit.MaxStyles {
			return mcpError(fmt.Sprintf("at most %d styles may be selected", outfit.MaxStyles)), nil
		}
		for _, s := range styles {
			if _, ok := outfit.StyleLabel(s); !ok {
				return mcpError(fmt.Sprintf("unknown style %q", s)), nil
			}
		}

		items := deps.Wardrobe.List(ctx)
		if len(items) < deps.MinWardrobe {
			return mcpError(fmt.Sprintf("add at least %d wardrobe items to get a suggestion (have %d)", deps.MinWardrobe, len(items))), nil
		}

		o := deps.Generator.Generate(outfit.Input{
			Wardrobe: items,
			Weather:  weather.CurrentOrFallback(ctx, deps.Weather),
			Occasion: occasion,
			Styles:   styles,
		})
		return mcpJSON(o)
	}
}

func mcpWatchlistAdd(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil || id == "" {
			return mcpError("id is required"), nil
		}
		title, err := req.RequireString("title")
		if err != nil || title == "" {
			return mcpError("title is required"), nil
		}

		res := deps.Watchlist.Add(ctx, watchlist.Movie{ID: id, Title: title, Year: req.GetString("year", "")})
		if !res.Success {
			// A duplicate is informational, not a tool failure.
			return mcpText(res.Message), nil
		}
		return mcpText(fmt.Sprintf("Added %s to the watchlist", title)), nil
	}
}

func mcpWatchlistRemove(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}
		if res := deps.Watchlist.Remove(ctx, id); !res.Success {
			return mcpError("watchlist could not be updated"), nil
		}
		return mcpText(fmt.Sprintf("Removed %s from the watchlist", id)), nil
	}
}

func mcpSetStylePreferences(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		u := preferences.Update{
			Hair: req.GetString("hair", ""),
			Eyes: req.GetString("eyes", ""),
			Skin: req.GetString("skin", ""),
		}
		if !deps.Preferences.Save(ctx, u) {
			return mcpError("preferences could not be saved"), nil
		}
		return mcpText(deps.Preferences.Summary(ctx)), nil
	}
}

func mcpJSONResource(read func(ctx context.Context) any) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(read(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", req.Params.URI, err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
