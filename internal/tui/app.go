package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mgomes/plagdrop/internal/detail"
	"github.com/mgomes/plagdrop/internal/drop"
	"github.com/mgomes/plagdrop/internal/history"
	"github.com/mgomes/plagdrop/internal/lsh"
	"github.com/mgomes/plagdrop/internal/rank"
	"github.com/mgomes/plagdrop/internal/submit"
	"go.uber.org/zap"
)

const dropPlaceholder = "Drop your .txt file here"

// Service is the remote similarity service.
type Service interface {
	Replace(ctx context.Context, text string) lsh.Outcome
	ReadFile(ctx context.Context, name string) (string, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Recorder interface {
	Record(run history.Run) (int64, error)
}

type Config struct {
	Service   Service
	Resolver  *drop.Resolver
	History   Recorder
	Logger    *zap.Logger
	ServerURL string
	InboxDir  string
	// Initial is resolved as soon as the program starts.
	Initial []drop.Provider
	// ResolveTimeout bounds each drop resolution. Zero uses resolveTimeout.
	ResolveTimeout time.Duration
}

type viewMode int

const (
	modeResults viewMode = iota
	modeDetail
)

type AppModel struct {
	cfg    Config
	logger *zap.Logger

	analyze *submit.Controller
	fetcher *detail.Fetcher

	activeSource drop.Source
	resolving    int
	notice       string
	noticeIsErr  bool
	serverErr    string

	mode     viewMode
	selected int

	spinner  spinner.Model
	spinning bool
	viewport viewport.Model

	width  int
	height int
}

func NewAppModel(cfg Config) AppModel {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Resolver == nil {
		cfg.Resolver = drop.NewResolver(logger)
	}
	if cfg.ResolveTimeout <= 0 {
		cfg.ResolveTimeout = resolveTimeout
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = activeStyle

	return AppModel{
		cfg:      cfg,
		logger:   logger,
		analyze:  submit.NewController(),
		fetcher:  detail.NewFetcher(),
		spinner:  s,
		viewport: viewport.New(80, 20),
		width:    80,
		height:   24,
	}
}

func (m AppModel) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnableBracketedPaste}
	if p, ok := m.cfg.Service.(Pinger); ok {
		cmds = append(cmds, pingCmd(p))
	}
	if len(m.cfg.Initial) > 0 {
		initial := m.cfg.Initial
		cmds = append(cmds, func() tea.Msg {
			return DropMsg{Providers: initial, Origin: "command line"}
		})
	}
	return tea.Batch(cmds...)
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Paste {
			return m.handleDrop(drop.FromPaste(string(msg.Runes)), "paste")
		}
		if m.mode == modeDetail {
			return m.updateDetail(msg)
		}
		return m.updateResults(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()
		m.refreshDetail()

	case DropMsg:
		if m.analyze.Busy() && len(msg.Paths) > 0 {
			m.notice = "Still analyzing, skipped " + skippedNames(msg.Paths) + " (drop again when done)"
			m.noticeIsErr = true
			m.logger.Warn("inbox drop skipped while busy", zap.Strings("paths", msg.Paths))
			return m, nil
		}
		return m.handleDrop(msg.Providers, msg.Origin)

	case resolvedMsg:
		return m.handleResolved(msg)

	case analyzeDoneMsg:
		return m.handleAnalyzeDone(msg)

	case detailDoneMsg:
		if !m.fetcher.Complete(msg.token, msg.content, msg.err) {
			m.logger.Debug("discarded stale detail response")
			return m, nil
		}
		if msg.err != nil {
			m.logger.Warn("detail fetch failed", zap.String("file", m.fetcher.Active().FileName), zap.Error(msg.err))
		}
		m.refreshDetail()
		m.viewport.GotoTop()

	case historySavedMsg:
		if msg.err != nil {
			m.logger.Warn("failed to record run", zap.Error(msg.err))
		}

	case PingResultMsg:
		if msg.Err != nil {
			m.serverErr = msg.Err.Error()
			m.logger.Warn("similarity service not reachable", zap.Error(msg.Err))
		} else {
			m.serverErr = ""
		}

	case spinner.TickMsg:
		if !m.busy() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m AppModel) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	results := m.analyze.Results()

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}

	case "down", "j":
		if m.selected < len(results)-1 {
			m.selected++
		}

	case "enter":
		if len(results) > 0 && m.selected < len(results) {
			return m.startDetail(results[m.selected])
		}

	case "ctrl+r":
		if text := m.analyze.Active().Text; text != "" {
			return m.startAnalyze(text, m.activeSource)
		}

	case "esc":
		m.analyze.Acknowledge()
		m.notice = ""
		m.noticeIsErr = false
	}

	return m, nil
}

func (m AppModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "q", "backspace":
		m.mode = modeResults
		m.fetcher.Dismiss()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m AppModel) handleDrop(providers []drop.Provider, origin string) (tea.Model, tea.Cmd) {
	if m.analyze.Busy() {
		m.notice = "Still analyzing, drop ignored"
		m.noticeIsErr = false
		m.logger.Info("drop ignored while busy", zap.String("origin", origin))
		return m, nil
	}

	m.logger.Debug("drop received", zap.String("origin", origin), zap.Int("providers", len(providers)))
	m.resolving++
	m.notice = ""
	m.noticeIsErr = false
	return m, tea.Batch(resolveCmd(m.cfg.Resolver, providers, m.cfg.ResolveTimeout), m.startSpinner())
}

func (m AppModel) handleResolved(msg resolvedMsg) (tea.Model, tea.Cmd) {
	if m.resolving > 0 {
		m.resolving--
	}

	if msg.err != nil {
		m.notice = resolutionNotice(msg.err)
		m.noticeIsErr = true
		m.logger.Info("drop not resolved", zap.Error(msg.err))
		return m, nil
	}

	return m.startAnalyze(msg.res.Text, msg.res.Source)
}

func (m AppModel) startAnalyze(text string, source drop.Source) (tea.Model, tea.Cmd) {
	ticket := m.analyze.Begin(text)
	m.activeSource = source
	m.selected = 0
	m.notice = ""
	m.noticeIsErr = false
	m.logger.Info("analyze started",
		zap.String("token", ticket.Token.String()),
		zap.Stringer("source", source),
		zap.Int("text_len", len(text)),
	)
	return m, tea.Batch(analyzeCmd(m.cfg.Service, ticket), m.startSpinner())
}

func (m AppModel) handleAnalyzeDone(msg analyzeDoneMsg) (tea.Model, tea.Cmd) {
	ticket := m.analyze.Active()
	if !m.analyze.Complete(msg.token, msg.outcome) {
		m.logger.Debug("discarded stale analyze response", zap.String("token", msg.token.String()))
		return m, nil
	}

	m.logger.Info("analyze finished",
		zap.String("token", ticket.Token.String()),
		zap.Stringer("outcome", msg.outcome.Kind),
		zap.Int("results", len(m.analyze.Results())),
	)

	if m.cfg.History == nil {
		return m, nil
	}
	run := runFor(ticket, m.analyze, m.activeSource)
	run.FinishedAt = msg.finishedAt
	return m, recordCmd(m.cfg.History, run)
}

func (m AppModel) startDetail(result rank.Result) (tea.Model, tea.Cmd) {
	ticket, err := m.fetcher.Begin(result.DocumentID, m.analyze.SubmittedText())
	if err != nil {
		m.notice = fmt.Sprintf("Cannot open %s: %v", result.DocumentID, err)
		m.noticeIsErr = true
		return m, nil
	}

	m.mode = modeDetail
	m.refreshDetail()
	return m, tea.Batch(fetchCmd(m.cfg.Service, ticket), m.startSpinner())
}

func (m *AppModel) startSpinner() tea.Cmd {
	if m.spinning {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

func (m AppModel) busy() bool {
	return m.analyze.Busy() || m.fetcher.Busy() || m.resolving > 0
}

func (m *AppModel) resizeViewport() {
	m.viewport.Width = m.width
	h := m.height - 4
	if h < 3 {
		h = 3
	}
	m.viewport.Height = h
}

func (m *AppModel) refreshDetail() {
	res := m.fetcher.Result()
	if res == nil {
		m.viewport.SetContent("")
		return
	}
	m.viewport.SetContent(sideBySide(res.Original, res.Content, res.FileName, m.width))
}

func runFor(ticket submit.Ticket, c *submit.Controller, source drop.Source) history.Run {
	run := history.Run{
		Token:       ticket.Token.String(),
		TextSHA:     history.HashText(ticket.Text),
		TextLen:     len(ticket.Text),
		Source:      source.String(),
		Outcome:     c.Phase().String(),
		StatusCode:  c.StatusCode(),
		ResultCount: len(c.Results()),
		StartedAt:   ticket.StartedAt,
	}
	if et := c.ExecutionTime(); et.Valid {
		v := et.Seconds
		run.ExecutionTime = &v
	}
	if top, ok := rank.Top(c.Results()); ok {
		run.TopDocument = top.DocumentID
		run.TopScore = top.Score
	}
	return run
}

func resolutionNotice(err error) string {
	var readErr *drop.ReadError
	switch {
	case errors.Is(err, drop.ErrEmptyDrop):
		return "Nothing was dropped"
	case errors.As(err, &readErr):
		return "Failed to read file: " + truncate(readErr.Err.Error(), 60)
	case errors.Is(err, drop.ErrInvalidReference):
		return "Only local files can be dropped"
	case errors.Is(err, drop.ErrNoPayload):
		return "Drop had no file or text"
	case errors.Is(err, context.DeadlineExceeded):
		return "Timed out reading drop"
	default:
		return "Drop failed: " + truncate(err.Error(), 60)
	}
}

func outcomeLine(c *submit.Controller) (string, bool) {
	switch c.Phase() {
	case submit.PhaseSucceeded:
		n := len(c.Results())
		line := fmt.Sprintf("%d similar document%s", n, plural(n))
		if et := c.ExecutionTime(); et.Valid {
			line += fmt.Sprintf(" · %.3fs", et.Seconds)
		}
		return line, false
	case submit.PhaseNoMatches:
		return "No similar documents found.", false
	case submit.PhaseServerError:
		return fmt.Sprintf("Server error (code %d)", c.StatusCode()), true
	case submit.PhaseTransportError:
		return "Processing failed: " + truncate(c.Message(), 60), true
	default:
		return "", false
	}
}

func skippedNames(paths []string) string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return truncate(strings.Join(names, ", "), 60)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
