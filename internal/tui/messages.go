package tui

import (
	"time"

	"github.com/google/uuid"
	"github.com/mgomes/plagdrop/internal/drop"
	"github.com/mgomes/plagdrop/internal/lsh"
)

type SetupSubmitMsg struct {
	ServerURL string
	InboxDir  string
}

type SetupErrorMsg struct {
	Error string
}

// DropMsg delivers a drop gesture from outside the terminal, such as the
// inbox watcher or command line input.
type DropMsg struct {
	Providers []drop.Provider
	Origin    string
	// Paths names the files behind Providers when they came from disk.
	Paths []string
}

// PingResultMsg reports whether the similarity service answered at startup.
type PingResultMsg struct {
	Err error
}

type resolvedMsg struct {
	res drop.Resolution
	err error
}

type analyzeDoneMsg struct {
	token      uuid.UUID
	outcome    lsh.Outcome
	finishedAt time.Time
}

type detailDoneMsg struct {
	token   uuid.UUID
	content string
	err     error
}

type historySavedMsg struct {
	err error
}
