package drop

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupported is returned by a Provider that cannot supply the requested
// capability.
var ErrUnsupported = errors.New("capability not supported by provider")

// Provider is one item of a drop gesture. It may carry a file reference,
// inline text, or both; each capability is loaded asynchronously.
type Provider interface {
	LoadFileURL(ctx context.Context) (*url.URL, error)
	LoadText(ctx context.Context) (string, error)
}

type fileProvider struct {
	path string
}

// FileProvider offers path as a file reference and no inline text.
func FileProvider(path string) Provider {
	return fileProvider{path: path}
}

func (p fileProvider) LoadFileURL(ctx context.Context) (*url.URL, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(p.path)
	if err != nil {
		return nil, err
	}
	return fileURL(abs), nil
}

func (p fileProvider) LoadText(context.Context) (string, error) {
	return "", ErrUnsupported
}

type textProvider struct {
	text string
}

// TextProvider offers inline text only.
func TextProvider(text string) Provider {
	return textProvider{text: text}
}

func (p textProvider) LoadFileURL(context.Context) (*url.URL, error) {
	return nil, ErrUnsupported
}

func (p textProvider) LoadText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.text, nil
}

// pasteProvider is what a terminal delivers for a bracketed paste. Dragging a
// file onto a terminal pastes its path, so a path-like paste is offered as a
// file reference as well as text.
type pasteProvider struct {
	raw string
	ref *url.URL
}

func (p pasteProvider) LoadFileURL(ctx context.Context) (*url.URL, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.ref == nil {
		return nil, ErrUnsupported
	}
	u := *p.ref
	return &u, nil
}

func (p pasteProvider) LoadText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.raw, nil
}

// FromPaste turns pasted terminal input into providers. Several dragged files
// arrive as one paste of space separated paths and become one provider each.
func FromPaste(raw string) []Provider {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	tokens, ok := splitPaths(raw)
	if !ok {
		return []Provider{pasteProvider{raw: raw}}
	}

	providers := make([]Provider, 0, len(tokens))
	for _, tok := range tokens {
		providers = append(providers, pasteProvider{raw: tok, ref: referenceFor(tok)})
	}
	return providers
}

// splitPaths tokenizes a single-line paste the way terminals quote dropped
// paths: backslash escapes, single or double quotes. It reports false unless
// every token looks like a path or URL.
func splitPaths(raw string) ([]string, bool) {
	raw = strings.TrimSpace(raw)
	if strings.ContainsAny(raw, "\n\r") {
		return nil, false
	}

	var (
		tokens  []string
		current strings.Builder
		quote   rune
		escaped bool
		started bool
	)
	flush := func() {
		if started {
			tokens = append(tokens, current.String())
		}
		current.Reset()
		started = false
	}

	for _, r := range raw {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			started = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			started = true
		case r == ' ' || r == '\t':
			flush()
		default:
			current.WriteRune(r)
			started = true
		}
	}
	if quote != 0 || escaped {
		return nil, false
	}
	flush()

	if len(tokens) == 0 {
		return nil, false
	}
	for _, tok := range tokens {
		if !looksLikeReference(tok) {
			return nil, false
		}
	}
	return tokens, true
}

func looksLikeReference(tok string) bool {
	return strings.HasPrefix(tok, "/") ||
		strings.HasPrefix(tok, "~/") ||
		strings.Contains(tok, "://")
}

func referenceFor(tok string) *url.URL {
	if strings.Contains(tok, "://") {
		u, err := url.Parse(tok)
		if err != nil {
			return &url.URL{Opaque: tok}
		}
		return u
	}
	if strings.HasPrefix(tok, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			tok = filepath.Join(home, tok[2:])
		}
	}
	return fileURL(tok)
}

func fileURL(path string) *url.URL {
	return &url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
}
