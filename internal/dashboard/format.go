// Package dashboard holds the text the sentiment dashboard renders: counts,
// timestamps, captions and empty-state copy. It has no terminal dependencies.
package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"marketpulse/internal/sentiment"
	"marketpulse/pkg/marketpulse"
)

// Fixed copy shown by the dashboard panels.
const (
	LoadingText        = "Analyzing the latest market stories…"
	ErrorText          = "Failed to load sentiment data. Please try again."
	EmptyBreakdownText = "No articles scored yet. Try a different filter or refresh the feed."
	EmptyArticlesText  = "Nothing to show right now. Adjust the filter or refresh to fetch new coverage."
)

// asOfLayout renders the absolute part of the "Last updated" line.
const asOfLayout = "Jan 2, 2006 3:04 PM"

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	return humanize.Comma(int64(n))
}

// RelativeTime renders t relative to now, e.g. "3 hours ago".
func RelativeTime(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

// FormatAsOf renders the snapshot timestamp line of the summary card.
func FormatAsOf(asOf, now time.Time) string {
	if asOf.IsZero() {
		return "Last updated: unknown"
	}
	return fmt.Sprintf("Last updated %s | %s UTC", RelativeTime(asOf, now), asOf.UTC().Format(asOfLayout))
}

// BreakdownHeader captions the breakdown panel.
func BreakdownHeader(total int) string {
	if total <= 0 {
		return "Awaiting fresh headlines"
	}
	return FormatInt(total) + " headlines analyzed"
}

// ArticlesHeader captions the article list.
func ArticlesHeader(n int) string {
	if n <= 0 {
		return "No headlines yet"
	}
	return FormatInt(n) + " curated stories"
}

// ClassCaption describes one per-class count in the summary card.
func ClassCaption(c sentiment.Class) string {
	return fmt.Sprintf("Headlines flagged %s in the last sweep.", c)
}

// ConfidenceLabel renders "Confidence 87%".
func ConfidenceLabel(b sentiment.Badge) string {
	return fmt.Sprintf("Confidence %d%%", b.Confidence)
}

// ArticleMeta renders "source | 3 hours ago", leaving out missing parts.
func ArticleMeta(a marketpulse.Article, now time.Time) string {
	var parts []string
	if s := strings.TrimSpace(a.Source); s != "" {
		parts = append(parts, s)
	}
	if a.PublishedAt != nil && !a.PublishedAt.IsZero() {
		parts = append(parts, RelativeTime(a.PublishedAt.Time, now))
	}
	return strings.Join(parts, " | ")
}

// Bar renders a horizontal bar of width cells filled to percent.
func Bar(percent, width int) string {
	if width <= 0 {
		return ""
	}
	filled := percent * width / 100
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	if percent > 0 && filled == 0 {
		filled = 1
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// Truncate shortens s to at most width runes, ending with "…" when cut.
func Truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 {
		return ""
	}
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
