package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/internal/dashboard"
	"marketpulse/internal/fetcher"
	"marketpulse/pkg/marketpulse"
)

type stubSource struct {
	err error
}

func (s stubSource) GetSentiment(_ context.Context, symbol string) (*marketpulse.Snapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	published := marketpulse.NewTimestamp(time.Now().Add(-time.Hour))
	return &marketpulse.Snapshot{
		AsOf:         marketpulse.NewTimestamp(time.Now()),
		OverallLabel: "positive",
		AverageScore: 0.5,
		Breakdown:    marketpulse.Breakdown{Positive: 1},
		Articles: []marketpulse.Article{{
			Title:          symbol + " rallies",
			URL:            "https://example.com/" + symbol,
			Source:         "Reuters",
			PublishedAt:    &published,
			SentimentLabel: "POSITIVE",
			SentimentScore: 0.9,
		}},
	}, nil
}

func newTestModel(t *testing.T, src fetcher.Source, symbol string) model {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	f := fetcher.New(src, fetcher.Options{Logger: logger})
	m := initialModel(ctx, cancel, f, symbol, logger)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(model)
}

// settle runs cmd, which must produce a fetchedMsg, and feeds it back.
func settle(t *testing.T, m model, cmd tea.Cmd) model {
	t.Helper()
	require.NotNil(t, cmd)
	msg, ok := cmd().(fetchedMsg)
	require.True(t, ok)
	next, _ := m.Update(msg)
	return next.(model)
}

func TestInitialFetch(t *testing.T) {
	m := newTestModel(t, stubSource{}, "AAPL")
	assert.Equal(t, fetcher.StatusLoading, m.state.Status)
	assert.Contains(t, renderContent(m.state, m.width, time.Now()), dashboard.LoadingText)

	m = settle(t, m, m.runCmd(m.pending))
	assert.Equal(t, fetcher.StatusSuccess, m.state.Status)

	out := renderContent(m.state, m.width, time.Now())
	assert.Contains(t, out, "Strongly Positive Bias")
	assert.Contains(t, out, "avg 0.50")
	assert.Contains(t, out, "Bullish | 90%")
	assert.Contains(t, out, "Reuters | 1 hour ago")
	assert.Contains(t, out, "AAPL rallies")
	assert.Contains(t, out, "1 curated stories")
	assert.Contains(t, out, "Confidence 90%")
}

func TestFilterSubmit(t *testing.T) {
	m := newTestModel(t, stubSource{}, "")
	m = settle(t, m, m.runCmd(m.pending))

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	m = next.(model)
	require.True(t, m.input.Focused())

	m.input.SetValue("  TSLA ")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(model)
	assert.False(t, m.input.Focused())
	assert.Equal(t, "TSLA", m.input.Value())
	assert.Equal(t, fetcher.StatusLoading, m.state.Status)

	m = settle(t, m, cmd)
	assert.Equal(t, "TSLA", m.state.Key.Symbol())
	assert.Contains(t, renderContent(m.state, m.width, time.Now()), "TSLA rallies")
}

func TestRefreshKey(t *testing.T) {
	m := newTestModel(t, stubSource{}, "AAPL")
	m = settle(t, m, m.runCmd(m.pending))

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	m = next.(model)
	assert.Equal(t, fetcher.StatusRefreshing, m.state.Status)
	assert.Contains(t, renderContent(m.state, m.width, time.Now()), "AAPL rallies", "data stays visible while refreshing")

	m = settle(t, m, cmd)
	assert.Equal(t, fetcher.StatusSuccess, m.state.Status)
}

func TestErrorNotice(t *testing.T) {
	src := stubSource{err: &marketpulse.FetchError{Status: 502, Err: errors.New("bad gateway")}}
	m := newTestModel(t, src, "AAPL")
	m = settle(t, m, m.runCmd(m.pending))

	assert.Equal(t, fetcher.StatusError, m.state.Status)
	out := renderContent(m.state, m.width, time.Now())
	assert.Contains(t, out, dashboard.ErrorText)
	assert.NotContains(t, out, "AAPL rallies")
}

func TestEmptySnapshot(t *testing.T) {
	st := fetcher.State{
		Status:   fetcher.StatusSuccess,
		Snapshot: &marketpulse.Snapshot{OverallLabel: "neutral", Articles: []marketpulse.Article{}},
	}
	out := renderContent(st, 100, time.Now())
	assert.Contains(t, out, "Neutral Bias")
	assert.Contains(t, out, dashboard.EmptyBreakdownText)
	assert.Contains(t, out, dashboard.EmptyArticlesText)
	assert.Contains(t, out, "Awaiting fresh headlines")
	assert.Contains(t, out, "No headlines yet")
}

func TestPadOrTruncKeepsEscapes(t *testing.T) {
	styled := "\x1b[1mpress / to filter\x1b[0m"

	cut := padOrTrunc(styled, 6)
	assert.Equal(t, 6, ansi.StringWidth(cut))
	assert.Equal(t, "press…", ansi.Strip(cut))
	assert.True(t, strings.HasPrefix(cut, "\x1b[1m"), "leading escape must survive: %q", cut)
	assert.NotContains(t, ansi.Strip(cut), "[", "no partial escape left in the visible text")

	padded := padOrTrunc(styled, 30)
	assert.Equal(t, 30, ansi.StringWidth(padded))
	assert.True(t, strings.HasPrefix(padded, styled))

	assert.Equal(t, "exact", padOrTrunc("exact", 5))
}
