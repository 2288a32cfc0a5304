package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mgomes/plagdrop/internal/config"
	"github.com/mgomes/plagdrop/internal/drop"
	"github.com/mgomes/plagdrop/internal/history"
	"github.com/mgomes/plagdrop/internal/inbox"
	"github.com/mgomes/plagdrop/internal/logging"
	"github.com/mgomes/plagdrop/internal/lsh"
	"github.com/mgomes/plagdrop/internal/tui"
	"go.uber.org/zap"
)

const historyLimit = 20

func main() {
	file := flag.String("f", "", "analyze this file on startup")
	inboxDir := flag.String("inbox", "", "watch this directory for dropped files")
	serverURL := flag.String("server", "", "similarity service URL")
	doSetup := flag.Bool("setup", false, "run setup wizard")
	showHistory := flag.Bool("history", false, "print recent runs and exit")
	noAltScreen := flag.Bool("no-alt-screen", false, "render inline instead of full screen")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *doSetup {
		if err := runSetup(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Setup failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *serverURL != "" {
		cfg.ServerURL = strings.TrimRight(*serverURL, "/")
	}
	if *inboxDir != "" {
		cfg.InboxDir = *inboxDir
	}

	if *showHistory {
		if err := printHistory(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read history: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logPath, err := config.LogPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get log path: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(logPath, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger, *file, !*noAltScreen); err != nil {
		logger.Error("plagdrop exited with error", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger, file string, altScreen bool) error {
	timeout, err := cfg.Timeout()
	if err != nil {
		return err
	}

	client := lsh.NewClient(cfg.ServerURL, lsh.WithTimeout(timeout), lsh.WithLogger(logger))

	initial, piped, err := initialProviders(file)
	if err != nil {
		return err
	}

	appCfg := tui.Config{
		Service:   client,
		Resolver:  drop.NewResolver(logger),
		Logger:    logger,
		ServerURL: client.BaseURL(),
		InboxDir:  cfg.InboxDir,
		Initial:   initial,
	}

	if cfg.HistoryEnabled {
		store, err := openHistory()
		if err != nil {
			logger.Warn("history disabled", zap.Error(err))
		} else {
			defer store.Close() //nolint:errcheck
			appCfg.History = store
		}
	}

	opts := []tea.ProgramOption{}
	if altScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if piped {
		opts = append(opts, tea.WithInputTTY())
	}
	program := tea.NewProgram(tui.NewAppModel(appCfg), opts...)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	if cfg.InboxDir != "" {
		watcher, err := inbox.NewWatcher(cfg.InboxDir, func(g inbox.Gesture) {
			program.Send(tui.DropMsg{Providers: g.Providers(), Origin: "inbox", Paths: g.Paths})
		}, logger)
		if err != nil {
			return err
		}
		go func() {
			if err := watcher.Start(ctx); err != nil {
				logger.Error("inbox watcher stopped", zap.Error(err))
			}
		}()
	}

	logger.Info("plagdrop started",
		zap.String("server", client.BaseURL()),
		zap.String("inbox", cfg.InboxDir),
		zap.Bool("history", appCfg.History != nil),
	)

	_, err = program.Run()
	return err
}

// initialProviders turns -f and piped stdin into a drop gesture. piped
// reports whether stdin was consumed.
func initialProviders(file string) ([]drop.Provider, bool, error) {
	var providers []drop.Provider
	if file != "" {
		providers = append(providers, drop.FileProvider(file))
	}

	info, err := os.Stdin.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice != 0 {
		return providers, false, nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, false, fmt.Errorf("read stdin: %w", err)
	}
	if strings.TrimSpace(string(data)) != "" {
		providers = append(providers, drop.TextProvider(string(data)))
	}
	return providers, true, nil
}

func openHistory() (*history.Store, error) {
	path, err := config.HistoryPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	return history.Open(path)
}

func printHistory() error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	runs, err := store.Recent(historyLimit)
	if err != nil {
		return err
	}
	total, err := store.Count()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	fmt.Printf("Showing %d of %d runs\n\n", len(runs), total)
	for _, r := range runs {
		exec := "-"
		if r.ExecutionTime != nil {
			exec = fmt.Sprintf("%.3fs", *r.ExecutionTime)
		}
		top := "-"
		if r.TopDocument != "" {
			top = fmt.Sprintf("%s (%.4f)", r.TopDocument, r.TopScore)
		}
		fmt.Printf("%s  %-15s %-4s %6d chars  %3d results  %-8s top %s\n",
			r.FinishedAt.Format(time.DateTime),
			r.Outcome,
			r.Source,
			r.TextLen,
			r.ResultCount,
			exec,
			top,
		)
	}

	return nil
}

func runSetup(cfg *config.Config) error {
	program := tea.NewProgram(newSetupRunner(cfg))

	finalModel, err := program.Run()
	if err != nil {
		return err
	}

	runner, ok := finalModel.(setupRunner)
	if !ok || runner.serverURL == "" {
		return fmt.Errorf("setup cancelled")
	}

	cfg.ServerURL = runner.serverURL
	cfg.InboxDir = runner.inboxDir
	return cfg.Save()
}

type setupRunner struct {
	setupModel tui.SetupModel
	serverURL  string
	inboxDir   string
}

func newSetupRunner(cfg *config.Config) setupRunner {
	return setupRunner{setupModel: tui.NewSetupModel(cfg.ServerURL, cfg.InboxDir)}
}

func (m setupRunner) Init() tea.Cmd {
	return tea.Batch(m.setupModel.Init(), tea.EnableBracketedPaste)
}

func (m setupRunner) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tui.SetupSubmitMsg:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := lsh.NewClient(msg.ServerURL).Ping(ctx); err != nil {
			return m.fail("Service not reachable: " + err.Error())
		}

		if msg.InboxDir != "" {
			info, err := os.Stat(msg.InboxDir)
			if err != nil || !info.IsDir() {
				return m.fail("Inbox directory does not exist")
			}
		}

		m.serverURL = msg.ServerURL
		m.inboxDir = msg.InboxDir
		return m, tea.Quit

	default:
		newModel, cmd := m.setupModel.Update(msg)
		if sm, ok := newModel.(tui.SetupModel); ok {
			m.setupModel = sm
		}
		return m, cmd
	}
}

func (m setupRunner) fail(reason string) (tea.Model, tea.Cmd) {
	newModel, _ := m.setupModel.Update(tui.SetupErrorMsg{Error: reason})
	if sm, ok := newModel.(tui.SetupModel); ok {
		m.setupModel = sm
	}
	return m, nil
}

func (m setupRunner) View() string {
	return m.setupModel.View()
}
