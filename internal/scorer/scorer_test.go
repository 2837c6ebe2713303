package scorer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"
)

func TestGenerate_Success(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"response":"{\"severity\":\"HIGH\"}","done":true}`))
	}))
	defer srv.Close()

	c := New(Config{Host: srv.URL + "/", Model: "llama3.2", Temperature: 0.1})
	out, err := c.Generate(context.Background(), "analyze this", "be terse")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != `{"severity":"HIGH"}` {
		t.Fatalf("unexpected response %q", out)
	}
	if got.Model != "llama3.2" || got.Prompt != "analyze this" || got.System != "be terse" ||
		got.Stream || got.Format != "json" || got.Options["temperature"] != 0.1 {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestGenerate_RetriesOn5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(503)
			return
		}
		w.Write([]byte(`{"response":"ok"}`))
	}))
	defer srv.Close()

	c := New(Config{Host: srv.URL, MaxRetries: 2, RetryDelay: time.Millisecond})
	out, err := c.Generate(context.Background(), "p", "")
	if err != nil || out != "ok" {
		t.Fatalf("out=%q err=%v", out, err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestGenerate_NoRetryOn4xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(404)
		w.Write([]byte(`{"error":"model 'nope' not found"}`))
	}))
	defer srv.Close()

	c := New(Config{Host: srv.URL, Model: "nope", MaxRetries: 3, RetryDelay: time.Millisecond})
	_, err := c.Generate(context.Background(), "p", "")
	var se *StatusError
	if !errors.As(err, &se) || se.Code != 404 {
		t.Fatalf("expected 404 StatusError, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 call, got %d", calls.Load())
	}
}

func TestGenerate_ErrorBodyKeepsWholeRunes(t *testing.T) {
	body := "x" + strings.Repeat("é", MaxErrorBody)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(400)
		w.Write([]byte(body))
	}))
	defer srv.Close()

	c := New(Config{Host: srv.URL, MaxRetries: 0, RetryDelay: time.Millisecond})
	_, err := c.Generate(context.Background(), "p", "")
	var se *StatusError
	if !errors.As(err, &se) || se.Code != 400 {
		t.Fatalf("expected 400 StatusError, got %v", err)
	}
	if !utf8.ValidString(se.Body) {
		t.Fatalf("body split a rune: %q", se.Body[len(se.Body)-4:])
	}
	if n := utf8.RuneCountInString(se.Body); n != MaxErrorBody {
		t.Fatalf("body has %d runes, want %d", n, MaxErrorBody)
	}
}

func TestGenerate_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(`{"response":"late"}`))
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := New(Config{Host: srv.URL}).Generate(ctx, "p", "")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("cancellation did not interrupt the request")
	}
}

func TestAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"models":[{"name":"llama3.2:latest"},{"name":"mistral:7b"}]}`))
	}))
	defer srv.Close()

	if err := New(Config{Host: srv.URL, Model: "llama3.2"}).Available(context.Background()); err != nil {
		t.Fatalf("expected model available, got %v", err)
	}
	err := New(Config{Host: srv.URL, Model: "phi3"}).Available(context.Background())
	if !errors.Is(err, ErrModelMissing) {
		t.Fatalf("expected ErrModelMissing, got %v", err)
	}
}

func TestAvailable_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	if err := New(Config{Host: url, Timeout: time.Second}).Available(context.Background()); err == nil {
		t.Fatal("expected error for closed server")
	}
}
