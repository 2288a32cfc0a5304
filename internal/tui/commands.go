package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mgomes/plagdrop/internal/detail"
	"github.com/mgomes/plagdrop/internal/drop"
	"github.com/mgomes/plagdrop/internal/history"
	"github.com/mgomes/plagdrop/internal/submit"
)

const (
	pingTimeout = 3 * time.Second
	// resolveTimeout bounds how long a drop may take to produce its text.
	resolveTimeout = 15 * time.Second
)

func resolveCmd(resolver *drop.Resolver, providers []drop.Provider, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := resolver.Resolve(ctx, providers)
		return resolvedMsg{res: res, err: err}
	}
}

func analyzeCmd(svc Service, ticket submit.Ticket) tea.Cmd {
	return func() tea.Msg {
		out := svc.Replace(context.Background(), ticket.Text)
		return analyzeDoneMsg{token: ticket.Token, outcome: out, finishedAt: time.Now()}
	}
}

func fetchCmd(svc Service, ticket detail.Ticket) tea.Cmd {
	return func() tea.Msg {
		content, err := svc.ReadFile(context.Background(), ticket.FileName)
		return detailDoneMsg{token: ticket.Token, content: content, err: err}
	}
}

func recordCmd(store Recorder, run history.Run) tea.Cmd {
	return func() tea.Msg {
		_, err := store.Record(run)
		return historySavedMsg{err: err}
	}
}

func pingCmd(p Pinger) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()
		return PingResultMsg{Err: p.Ping(ctx)}
	}
}
