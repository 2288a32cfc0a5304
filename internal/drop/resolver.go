package drop

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrEmptyDrop        = errors.New("drop contained no items")
	ErrNoPayload        = errors.New("drop contained no file or text")
	ErrInvalidReference = errors.New("not a local file reference")
)

// ReadError means a file reference was valid but its content could not be
// used. It is kept distinct from ErrNoPayload.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

type Source int

const (
	SourceFile Source = iota
	SourceText
)

func (s Source) String() string {
	if s == SourceFile {
		return "file"
	}
	return "text"
}

type Resolution struct {
	Text   string
	Source Source
	// Path is set for SourceFile.
	Path string
}

type Resolver struct {
	logger *zap.Logger
	read   func(path string) (string, error)
}

func NewResolver(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{logger: logger, read: ReadText}
}

// Resolve races all providers and returns the first usable text. A file
// reference beats inline text no matter which arrives first: text only
// commits once every provider has finished its file probe. The first file
// that reads successfully wins immediately, and the remaining probes are
// cancelled. If ctx hits its deadline while a file reference is still loading,
// text that already arrived is used. Text that is only whitespace is not a
// payload.
func (r *Resolver) Resolve(ctx context.Context, providers []Provider) (Resolution, error) {
	if len(providers) == 0 {
		return Resolution{}, ErrEmptyDrop
	}

	probeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	winner := newGate()
	fallback := &textFallback{filesPending: len(providers), gate: winner}
	failures := &failureLog{}

	var g errgroup.Group
	for i, p := range providers {
		g.Go(func() error {
			r.probe(probeCtx, i, p, winner, fallback, failures)
			return nil
		})
	}

	finished := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(finished)
	}()

	select {
	case <-winner.done:
		return r.settled(winner.value), nil
	case <-finished:
	case <-ctx.Done():
		// A file reference that never loads must not strand text that already
		// arrived.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			if held, ok := fallback.pending(); ok {
				winner.commit(held)
				res, _ := winner.result()
				r.logger.Debug("file reference timed out, using inline text")
				return r.settled(res), nil
			}
		}
		return Resolution{}, ctx.Err()
	}

	if res, ok := winner.result(); ok {
		return r.settled(res), nil
	}
	if err := ctx.Err(); err != nil {
		return Resolution{}, err
	}
	return Resolution{}, failures.err()
}

func (r *Resolver) settled(res Resolution) Resolution {
	r.logger.Debug("drop resolved",
		zap.Stringer("source", res.Source),
		zap.String("path", res.Path),
		zap.Int("text_len", len(res.Text)),
	)
	return res
}

func (r *Resolver) probe(ctx context.Context, idx int, p Provider, winner *gate, fallback *textFallback, failures *failureLog) {
	ref, err := p.LoadFileURL(ctx)
	if err == nil {
		defer fallback.fileSettled()

		path, err := localPath(ref)
		if err != nil {
			r.logger.Debug("rejected file reference", zap.Int("provider", idx), zap.Error(err))
			failures.add(err)
			return
		}

		text, err := r.read(path)
		if err != nil {
			r.logger.Debug("file reference unreadable", zap.Int("provider", idx), zap.String("path", path), zap.Error(err))
			failures.add(&ReadError{Path: path, Err: err})
			return
		}

		winner.commit(Resolution{Text: text, Source: SourceFile, Path: path})
		return
	}
	if !errors.Is(err, ErrUnsupported) {
		r.logger.Debug("file capability failed", zap.Int("provider", idx), zap.Error(err))
	}
	fallback.fileSettled()

	text, err := p.LoadText(ctx)
	if err != nil {
		if !errors.Is(err, ErrUnsupported) {
			r.logger.Debug("text capability failed", zap.Int("provider", idx), zap.Error(err))
		}
		return
	}
	if strings.TrimSpace(text) == "" {
		return
	}
	fallback.offer(Resolution{Text: text, Source: SourceText})
}

// localPath accepts only file URLs on this machine.
func localPath(ref *url.URL) (string, error) {
	if ref == nil {
		return "", ErrInvalidReference
	}
	if !strings.EqualFold(ref.Scheme, "file") {
		return "", fmt.Errorf("%w: scheme %q", ErrInvalidReference, ref.Scheme)
	}
	if ref.Host != "" && !strings.EqualFold(ref.Host, "localhost") {
		return "", fmt.Errorf("%w: remote host %q", ErrInvalidReference, ref.Host)
	}
	path := filepath.FromSlash(ref.Path)
	if path == "" || !filepath.IsAbs(path) {
		return "", fmt.Errorf("%w: %q is not an absolute path", ErrInvalidReference, ref.Path)
	}
	return path, nil
}

// gate commits at most one Resolution. done is closed on commit, so reading
// value after <-done is safe.
type gate struct {
	settled atomic.Bool
	done    chan struct{}
	value   Resolution
}

func newGate() *gate {
	return &gate{done: make(chan struct{})}
}

func (g *gate) commit(res Resolution) bool {
	if !g.settled.CompareAndSwap(false, true) {
		return false
	}
	g.value = res
	close(g.done)
	return true
}

func (g *gate) result() (Resolution, bool) {
	select {
	case <-g.done:
		return g.value, true
	default:
		return Resolution{}, false
	}
}

// textFallback holds the first inline text until no file probe is pending.
type textFallback struct {
	mu           sync.Mutex
	filesPending int
	held         *Resolution
	gate         *gate
}

func (t *textFallback) fileSettled() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.filesPending--
	if t.filesPending == 0 && t.held != nil {
		t.gate.commit(*t.held)
	}
}

func (t *textFallback) offer(res Resolution) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.held == nil {
		t.held = &res
	}
	if t.filesPending == 0 {
		t.gate.commit(*t.held)
	}
}

func (t *textFallback) pending() (Resolution, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.held == nil {
		return Resolution{}, false
	}
	return *t.held, true
}

type failureLog struct {
	mu      sync.Mutex
	read    *ReadError
	invalid error
}

func (f *failureLog) add(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var readErr *ReadError
	switch {
	case errors.As(err, &readErr):
		if f.read == nil {
			f.read = readErr
		}
	case f.invalid == nil:
		f.invalid = err
	}
}

// err picks the most useful failure: a read error, then an invalid
// reference, then plain "nothing found".
func (f *failureLog) err() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.read != nil {
		return f.read
	}
	if f.invalid != nil {
		return f.invalid
	}
	return ErrNoPayload
}
