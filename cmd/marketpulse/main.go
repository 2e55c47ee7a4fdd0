package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"marketpulse/internal/config"
	"marketpulse/internal/fetcher"
	"marketpulse/internal/util"
	"marketpulse/pkg/marketpulse"
)

// Messages.
type fetchedMsg struct{ res fetcher.Result }

// Layout rows outside the viewport: header, filter line, footer.
const chromeHeight = 3

// Model.
type model struct {
	fetcher *fetcher.Fetcher
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *slog.Logger
	now     func() time.Time

	state   fetcher.State
	pending *fetcher.Request // issued before the program started
	notice  string

	input         textinput.Model
	spinner       spinner.Model
	viewport      viewport.Model
	ready         bool
	width, height int
}

func initialModel(ctx context.Context, cancel context.CancelFunc, f *fetcher.Fetcher, symbol string, logger *slog.Logger) model {
	ti := textinput.New()
	ti.Placeholder = "ticker or topic, e.g. AAPL, BTC"
	ti.Prompt = "filter> "
	ti.CharLimit = 64
	ti.SetValue(strings.TrimSpace(symbol))

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	st, req := f.Select(symbol)
	return model{
		fetcher: f,
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
		now:     time.Now,
		state:   st,
		pending: req,
		input:   ti,
		spinner: sp,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runCmd(m.pending))
}

// runCmd runs req off the event loop and reports back with a fetchedMsg.
func (m model) runCmd(req *fetcher.Request) tea.Cmd {
	if req == nil {
		return nil
	}
	f, ctx, r := m.fetcher, m.ctx, *req
	return func() tea.Msg {
		return fetchedMsg{res: f.Run(ctx, r)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.input.Focused() {
			return m.updateInput(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		case "/":
			m.notice = ""
			return m, m.input.Focus()
		case "r":
			st, req := m.fetcher.Refresh()
			m.state = st
			m.notice = ""
			if req == nil && !st.Busy() && st.Status != fetcher.StatusIdle {
				m.notice = "refresh skipped, try again in a moment"
			}
			m.setContent()
			return m, m.runCmd(req)
		}
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case fetchedMsg:
		st, applied := m.fetcher.Apply(msg.res)
		if !applied {
			m.logger.Debug("result not displayed", "key", msg.res.Key, "seq", msg.res.Seq)
		}
		m.state = st
		m.setContent()
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - len(m.input.Prompt) - 2
		vpHeight := msg.Height - chromeHeight
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.viewport.MouseWheelEnabled = true
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.setContent()
		return m, nil

	case tea.MouseMsg:
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

// updateInput handles keys while the filter input has focus.
func (m model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.cancel()
		return m, tea.Quit
	case "enter":
		m.input.Blur()
		st, req := m.fetcher.Select(m.input.Value())
		m.input.SetValue(st.Key.Symbol())
		m.state = st
		m.setContent()
		m.viewport.GotoTop()
		m.logger.Info("filter selected", "key", st.Key, "status", st.Status.String())
		return m, m.runCmd(req)
	case "esc":
		m.input.Blur()
		m.input.SetValue(m.state.Key.Symbol())
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) setContent() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(renderContent(m.state, m.width, m.now()))
}

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}

	filter := "all markets"
	if !m.state.Key.IsUnfiltered() {
		filter = m.state.Key.Symbol()
	}
	status := m.state.Status.String()
	if m.state.Busy() {
		status = m.spinner.View() + status
	}
	headerText := fmt.Sprintf(" MarketPulse AI    %s    %s ", filter, status)
	headerBar := headerStyle.Render(padOrTrunc(headerText, m.width))

	filterLine := m.input.View()
	if !m.input.Focused() && m.notice != "" {
		filterLine = dimStyle.Render(" " + m.notice)
	} else if !m.input.Focused() {
		filterLine = dimStyle.Render(" press / to filter by ticker or topic")
	}

	pct := m.viewport.ScrollPercent() * 100
	footerLeft := " q quit  / filter  enter apply  esc cancel  r refresh  up/dn pgup/dn scroll"
	footerRight := fmt.Sprintf("%.0f%% ", pct)
	gap := m.width - len(footerLeft) - len(footerRight)
	if gap < 0 {
		gap = 0
	}
	footerText := footerLeft + strings.Repeat(" ", gap) + footerRight
	footerBar := footerStyle.Render(padOrTrunc(footerText, m.width))

	return headerBar + "\n" + padOrTrunc(filterLine, m.width) + "\n" + m.viewport.View() + "\n" + footerBar
}

func main() {
	cfgPath := flag.String("config", "", "path to config file (default $MARKETPULSE_CONFIG or "+config.DefaultPath+")")
	symbol := flag.String("symbol", "", "initial ticker or topic filter")
	flag.Parse()

	// .env is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "loading .env: %v\n", err)
	}

	cfg, err := config.Resolve(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	logFile, err := util.OpenLogFile(cfg.Logging.File, "marketpulse", time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := util.NewLogger(logFile, cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	client := marketpulse.NewClient(cfg.API.BaseURL,
		marketpulse.WithTimeout(cfg.API.Timeout),
		marketpulse.WithLogger(logger),
	)
	f := fetcher.New(client, fetcher.Options{
		RefreshMinInterval: cfg.Dashboard.RefreshMinInterval,
		StaleAfter:         cfg.Dashboard.StaleAfter,
		Logger:             logger,
	})
	logger.Info("starting dashboard", "api", client.BaseURL(), "log", logFile.Name())

	initial := cfg.Dashboard.InitialSymbol
	if *symbol != "" {
		initial = *symbol
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := tea.NewProgram(
		initialModel(ctx, cancel, f, initial, logger),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
