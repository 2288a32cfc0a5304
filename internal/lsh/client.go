package lsh

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "http://127.0.0.1:5000"

	replacePath = "/replace"
	readPath    = "/read"

	// StatusNoMatches is how the server says it found no similar documents.
	StatusNoMatches = http.StatusInternalServerError

	maxBodyBytes = 32 << 20
)

var errMissingContent = errors.New("response has no file_content")

// Client talks to the LSH similarity service.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	logger  *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request, whatever HTTP client is in use. Zero
// keeps the default of no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ping checks that the service answers on its root route.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("service unreachable: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("service returned %s", resp.Status)
	}
	return nil
}

// Replace submits text for analysis. It never returns an error: every failure
// is folded into the returned Outcome.
func (c *Client) Replace(ctx context.Context, text string) Outcome {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return transportError(fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+replacePath, bytes.NewReader(payload))
	if err != nil {
		return transportError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("replace request failed", zap.Error(err))
		return transportError(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	c.logger.Debug("replace response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("text_len", len(text)),
	)

	switch resp.StatusCode {
	case http.StatusOK:
		return c.interpretOK(resp.Body)
	case StatusNoMatches:
		return noMatches()
	default:
		return serverError(resp.StatusCode)
	}
}

func (c *Client) interpretOK(body io.Reader) Outcome {
	data, err := io.ReadAll(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		c.logger.Warn("failed to read replace body", zap.Error(err))
		return succeeded(map[string]float64{}, ExecutionTime{})
	}

	scores, execTime, skipped, err := decodeReplaceBody(data)
	if err != nil {
		c.logger.Warn("unparseable replace body, treating as empty result", zap.Error(err), zap.Int("body_len", len(data)))
		return succeeded(map[string]float64{}, ExecutionTime{})
	}
	if len(skipped) > 0 {
		c.logger.Warn("skipped non-numeric scores", zap.Strings("document_ids", skipped))
	}
	if !execTime.Valid {
		c.logger.Debug("execution_time missing or not numeric")
	}

	return succeeded(scores, execTime)
}

// ReadFile fetches a stored document by file name.
func (c *Client) ReadFile(ctx context.Context, name string) (string, error) {
	endpoint := c.baseURL + readPath + "?" + url.Values{"name": {name}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("read request failed", zap.String("name", name), zap.Error(err))
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", &StatusError{Code: resp.StatusCode, Name: name}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}

	content, err := decodeReadBody(data)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return content, nil
}

// StatusError reports a non-2xx answer from the read endpoint.
type StatusError struct {
	Code int
	Name string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("read %s: server returned status %d", e.Name, e.Code)
}
