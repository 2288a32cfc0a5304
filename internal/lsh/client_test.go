package lsh

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, WithHTTPClient(srv.Client()))
}

func TestReplace_SendsTextAsJSON(t *testing.T) {
	var gotBody map[string]string
	var gotMethod, gotPath, gotContentType string

	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"similar_docs": {}}`))
	})

	client.Replace(context.Background(), "the quick brown fox")

	if gotMethod != http.MethodPost {
		t.Errorf("expected POST, got '%s'", gotMethod)
	}
	if gotPath != "/replace" {
		t.Errorf("expected /replace, got '%s'", gotPath)
	}
	if gotContentType != "application/json" {
		t.Errorf("expected JSON content type, got '%s'", gotContentType)
	}
	if gotBody["text"] != "the quick brown fox" {
		t.Errorf("expected text field, got %v", gotBody)
	}
}

func TestReplace_OKWithScores(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"similar_docs": {"doc_3": 0.87}}`))
	})

	out := client.Replace(context.Background(), "text")

	if out.Kind != OutcomeSucceeded {
		t.Fatalf("expected succeeded, got %s", out.Kind)
	}
	if out.Scores["doc_3"] != 0.87 {
		t.Errorf("expected doc_3 = 0.87, got %v", out.Scores)
	}
	if out.ExecutionTime.Valid {
		t.Error("expected execution time unset when absent")
	}
}

func TestReplace_OKEmptyIsStillSucceeded(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"execution_time": 0.2, "similar_docs": {}}`))
	})

	out := client.Replace(context.Background(), "text")

	if out.Kind != OutcomeSucceeded {
		t.Fatalf("expected succeeded, got %s", out.Kind)
	}
	if len(out.Scores) != 0 {
		t.Errorf("expected no scores, got %v", out.Scores)
	}
	if !out.ExecutionTime.Valid || out.ExecutionTime.Seconds != 0.2 {
		t.Errorf("unexpected execution time %+v", out.ExecutionTime)
	}
}

func TestReplace_MalformedBodyIsLoggedAndEmpty(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithLogger(zap.New(core)))
	out := client.Replace(context.Background(), "text")

	if out.Kind != OutcomeSucceeded {
		t.Fatalf("expected succeeded, got %s", out.Kind)
	}
	if len(out.Scores) != 0 {
		t.Errorf("expected empty scores, got %v", out.Scores)
	}
	if logs.FilterMessage("unparseable replace body, treating as empty result").Len() != 1 {
		t.Errorf("expected a parse warning, got %v", logs.All())
	}
}

func TestReplace_500IsNoMatches(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status": "error", "message": "no similar docs"}`))
	})

	out := client.Replace(context.Background(), "text")

	if out.Kind != OutcomeNoMatches {
		t.Fatalf("expected no matches, got %s", out.Kind)
	}
	if out.Scores != nil {
		t.Errorf("expected no scores, got %v", out.Scores)
	}
}

func TestReplace_OtherStatusIsServerError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"similar_docs": {"doc_1": 0.9}}`))
	})

	out := client.Replace(context.Background(), "text")

	if out.Kind != OutcomeServerError {
		t.Fatalf("expected server error, got %s", out.Kind)
	}
	if out.StatusCode != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", out.StatusCode)
	}
	if out.Scores != nil {
		t.Errorf("body must not be parsed, got %v", out.Scores)
	}
}

func TestReplace_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	out := NewClient(url).Replace(context.Background(), "text")

	if out.Kind != OutcomeTransportError {
		t.Fatalf("expected transport error, got %s", out.Kind)
	}
	if out.Message == "" {
		t.Error("expected a transport error message")
	}
}

func TestReadFile_Success(t *testing.T) {
	var gotName, gotPath string
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotName = r.URL.Query().Get("name")
		_, _ = w.Write([]byte(`{"file_content": "essay body"}`))
	})

	content, err := client.ReadFile(context.Background(), "essay2.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/read" {
		t.Errorf("expected /read, got '%s'", gotPath)
	}
	if gotName != "essay2.txt" {
		t.Errorf("expected name 'essay2.txt', got '%s'", gotName)
	}
	if content != "essay body" {
		t.Errorf("expected 'essay body', got '%s'", content)
	}
}

func TestReadFile_NotFound(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := client.ReadFile(context.Background(), "essay9.txt")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", statusErr.Code)
	}
}

func TestPing(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("Welcome to the plagiarism detector\n"))
	})

	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("unexpected ping error: %v", err)
	}
}

func TestNewClient_DefaultsAndTrim(t *testing.T) {
	if got := NewClient("").BaseURL(); got != DefaultBaseURL {
		t.Errorf("expected default base URL, got '%s'", got)
	}
	if got := NewClient("http://localhost:5000/").BaseURL(); got != "http://localhost:5000" {
		t.Errorf("expected trailing slash trimmed, got '%s'", got)
	}
}

func TestWithTimeout_IndependentOfOptionOrder(t *testing.T) {
	custom := &http.Client{}

	before := NewClient("", WithTimeout(2*time.Second), WithHTTPClient(custom))
	after := NewClient("", WithHTTPClient(custom), WithTimeout(2*time.Second))

	for name, c := range map[string]*Client{"before": before, "after": after} {
		if c.http.Timeout != 2*time.Second {
			t.Errorf("%s: expected 2s timeout, got %v", name, c.http.Timeout)
		}
	}
	if custom.Timeout != 0 {
		t.Errorf("expected caller's client left untouched, got %v", custom.Timeout)
	}
}

func TestWithTimeout_AbortsSlowServer(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	client := NewClient(srv.URL, WithTimeout(50*time.Millisecond))
	out := client.Replace(context.Background(), "text")

	if out.Kind != OutcomeTransportError {
		t.Errorf("expected transport error, got %s", out.Kind)
	}
}
