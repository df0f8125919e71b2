package main

import (
	"fmt"
	"os"

	"github.com/kalambet/lookbook/internal/outfit"
	"github.com/kalambet/lookbook/internal/wardrobe"
	"github.com/kalambet/lookbook/internal/watchlist"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+msg))
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(colorBold, label+":")
	fmt.Fprintf(os.Stderr, "  %s %s\n", l, val)
}

func printStep(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorCyan, "→ "+msg))
}

func printOutfit(o outfit.Outfit) {
	fmt.Println()
	fmt.Println(colorize(colorBold, o.Title))
	for _, it := range o.Items {
		fmt.Printf("  %s %-10s %s\n", colorize(colorCyan, "•"), it.NormalizedCategory(), itemLabel(it))
	}
	fmt.Printf("  %s\n\n", colorize(colorYellow, o.Tip))
}

func itemLabel(it wardrobe.Item) string {
	label := it.Name
	if label == "" {
		label = it.NormalizedCategory()
	}
	if it.Color != "" {
		label = it.Color + " " + label
	}
	return label
}

func movieLine(m watchlist.Movie) string {
	line := colorize(colorBold, m.Title)
	if m.Year != "" {
		line += " (" + m.Year + ")"
	}
	if m.VoteAverage > 0 {
		line += fmt.Sprintf("  ★ %.1f", m.VoteAverage)
	}
	return line
}
