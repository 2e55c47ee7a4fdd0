package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"marketpulse/internal/dashboard"
	"marketpulse/internal/fetcher"
	"marketpulse/internal/sentiment"
	"marketpulse/pkg/marketpulse"
)

// Styles.
var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	sectionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	positiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	neutralStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	negativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	chipStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Padding(0, 1)
	urlStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Underline(true)
)

// labelWidth aligns class names in the summary and breakdown rows.
const labelWidth = 9

func classStyle(c sentiment.Class) lipgloss.Style {
	switch c {
	case sentiment.Positive:
		return positiveStyle
	case sentiment.Negative:
		return negativeStyle
	default:
		return neutralStyle
	}
}

func chipColor(c sentiment.Class) lipgloss.Color {
	switch c {
	case sentiment.Positive:
		return lipgloss.Color("10")
	case sentiment.Negative:
		return lipgloss.Color("9")
	default:
		return lipgloss.Color("11")
	}
}

// descriptorStyle colours a descriptor by direction; the strongest bands are
// bold.
func descriptorStyle(d sentiment.Descriptor) lipgloss.Style {
	var s lipgloss.Style
	switch {
	case d.Level > 0:
		s = positiveStyle
	case d.Level < 0:
		s = negativeStyle
	default:
		s = neutralStyle
	}
	if d.Level >= 3 || d.Level <= -3 {
		s = s.Bold(true)
	}
	return s
}

// renderContent renders the scrollable body for st.
func renderContent(st fetcher.State, width int, now time.Time) string {
	var b strings.Builder
	switch {
	case st.Status == fetcher.StatusIdle:
		b.WriteString(dimStyle.Render("  Press / to enter a ticker or topic, r to refresh."))
		b.WriteString("\n")
	case st.Status == fetcher.StatusError:
		b.WriteString("  ")
		b.WriteString(errorStyle.Render(dashboard.ErrorText))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("  Press r to try again."))
		b.WriteString("\n")
	case st.HasData():
		renderSummary(&b, st.Snapshot, now)
		b.WriteString("\n")
		renderBreakdown(&b, st.Snapshot.Breakdown, width)
		b.WriteString("\n")
		renderArticles(&b, st.Snapshot.Articles, width, now)
	default:
		b.WriteString("  ")
		b.WriteString(dimStyle.Render(dashboard.LoadingText))
		b.WriteString("\n")
	}
	return b.String()
}

func renderSummary(b *strings.Builder, snap *marketpulse.Snapshot, now time.Time) {
	d := sentiment.ResolveDescriptor(snap.AverageScore)

	b.WriteString(sectionStyle.Render("  Market Mood"))
	b.WriteString("\n")
	fmt.Fprintf(b, "  %s  %s\n",
		descriptorStyle(d).Render(d.Label),
		dimStyle.Render("avg "+sentiment.FormatScore(snap.AverageScore)),
	)
	fmt.Fprintf(b, "  %s\n", d.Copy)
	fmt.Fprintf(b, "  %s\n\n", dimStyle.Render(dashboard.FormatAsOf(snap.AsOf.Time, now)))

	for _, seg := range sentiment.Normalize(snap.Breakdown) {
		fmt.Fprintf(b, "  %s %6s  %s\n",
			classStyle(seg.Class).Render(padRight(seg.Label, labelWidth)),
			dashboard.FormatInt(seg.Count),
			dimStyle.Render(dashboard.ClassCaption(seg.Class)),
		)
	}
}

func renderBreakdown(b *strings.Builder, bd marketpulse.Breakdown, width int) {
	b.WriteString(sectionStyle.Render("  Sentiment Breakdown"))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render(dashboard.BreakdownHeader(bd.Total())))
	b.WriteString("\n")

	if bd.Total() == 0 {
		fmt.Fprintf(b, "  %s\n", dimStyle.Render(dashboard.EmptyBreakdownText))
		return
	}

	barWidth := width - labelWidth - 16
	if barWidth > 40 {
		barWidth = 40
	}
	if barWidth < 10 {
		barWidth = 10
	}
	for _, seg := range sentiment.NonZero(sentiment.Normalize(bd)) {
		style := classStyle(seg.Class)
		fmt.Fprintf(b, "  %s %s %5s\n",
			style.Render(padRight(seg.Label, labelWidth)),
			style.Render(dashboard.Bar(seg.Percent, barWidth)),
			seg.PercentLabel(),
		)
	}
}

func renderArticles(b *strings.Builder, articles []marketpulse.Article, width int, now time.Time) {
	b.WriteString(sectionStyle.Render("  Latest Headlines"))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render(dashboard.ArticlesHeader(len(articles))))
	b.WriteString("\n")

	if len(articles) == 0 {
		fmt.Fprintf(b, "  %s\n", dimStyle.Render(dashboard.EmptyArticlesText))
		return
	}

	textWidth := width - 4
	if textWidth < 20 {
		textWidth = 20
	}
	body := lipgloss.NewStyle().Width(textWidth)

	for _, a := range articles {
		badge := sentiment.ArticleBadge(a)
		b.WriteString("\n  ")
		b.WriteString(chipStyle.Background(chipColor(badge.Class)).Render(badge.String()))
		if meta := dashboard.ArticleMeta(a, now); meta != "" {
			b.WriteString("  ")
			b.WriteString(dimStyle.Render(meta))
		}
		b.WriteString("\n")
		b.WriteString(indent(titleStyle.Inherit(body).Render(a.Title)))
		if a.Description != "" {
			b.WriteString(indent(dimStyle.Inherit(body).Render(a.Description)))
		}
		fmt.Fprintf(b, "  %s  %s\n",
			dimStyle.Render(dashboard.ConfidenceLabel(badge)),
			urlStyle.Render(dashboard.Truncate(a.URL, textWidth-16)),
		)
	}
}

// indent prefixes every line of s with two spaces and ends it with a newline.
func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n") + "\n"
}

func padRight(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// padOrTrunc pads s with spaces to width, or truncates if longer. s may
// already be styled; escape sequences are kept intact.
func padOrTrunc(s string, width int) string {
	n := ansi.StringWidth(s)
	if n > width {
		return ansi.Truncate(s, width, "…")
	}
	return s + strings.Repeat(" ", width-n)
}
