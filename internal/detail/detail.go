package detail

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// NameTemplate is how the server names stored documents; the numeric suffix
// of a document id fills the verb.
const NameTemplate = "essay%s.txt"

var (
	ErrNoNumericSuffix = errors.New("document id has no numeric suffix")

	numericSuffix = regexp.MustCompile(`(\d+)$`)
)

// FileName maps a document id such as "doc_2" to "essay2.txt".
func FileName(documentID string) (string, error) {
	match := numericSuffix.FindStringSubmatch(documentID)
	if match == nil {
		return "", fmt.Errorf("%w: %q", ErrNoNumericSuffix, documentID)
	}
	return fmt.Sprintf(NameTemplate, match[1]), nil
}

type Ticket struct {
	Token      uuid.UUID
	DocumentID string
	FileName   string
	// Original is the analyzed text whose results the document came from.
	Original string
}

// Result pairs fetched content with the text that was analyzed.
type Result struct {
	DocumentID string
	FileName   string
	Content    string
	Original   string
}

// Fetcher tracks detail requests. A newer Begin supersedes older requests and
// their completions are ignored. Like submit.Controller it is owned by the UI
// event loop.
type Fetcher struct {
	active Ticket
	busy   bool
	result *Result
	err    error
}

func NewFetcher() *Fetcher {
	return &Fetcher{}
}

// Begin starts a fetch for documentID. original is captured now so the
// document is always shown next to the text it was matched against.
func (f *Fetcher) Begin(documentID, original string) (Ticket, error) {
	name, err := FileName(documentID)
	if err != nil {
		return Ticket{}, err
	}

	f.active = Ticket{Token: uuid.New(), DocumentID: documentID, FileName: name, Original: original}
	f.busy = true
	f.err = nil
	return f.active, nil
}

// Complete records the answer for token and reports whether it was applied.
func (f *Fetcher) Complete(token uuid.UUID, content string, fetchErr error) bool {
	if !f.busy || token != f.active.Token {
		return false
	}

	f.busy = false
	if fetchErr != nil {
		f.err = fetchErr
		return true
	}

	f.result = &Result{
		DocumentID: f.active.DocumentID,
		FileName:   f.active.FileName,
		Content:    content,
		Original:   f.active.Original,
	}
	f.err = nil
	return true
}

// Dismiss drops the displayed result or error.
func (f *Fetcher) Dismiss() {
	f.result = nil
	f.err = nil
}

func (f *Fetcher) Busy() bool {
	return f.busy
}

func (f *Fetcher) Active() Ticket {
	return f.active
}

func (f *Fetcher) Result() *Result {
	return f.result
}

func (f *Fetcher) Err() error {
	return f.err
}
