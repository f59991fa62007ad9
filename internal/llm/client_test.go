package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func completionBody(content string) string {
	return fmt.Sprintf(`{"id":"c1","model":"m","choices":[{"index":0,"message":{"role":"assistant","content":%q},"finish_reason":"stop"}]}`, content)
}

func TestCompleteReturnsContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected auth header %q", got)
		}
		fmt.Fprint(w, completionBody("hello"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "test-model", time.Second, 0)
	got, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "hello" {
		t.Fatalf("expected hello, got %q", got)
	}
}

func TestCompleteRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 3 {
			http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, completionBody("recovered"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "test-model", time.Second, 3)
	c.httpClient = srv.Client()

	got, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if got != "recovered" {
		t.Fatalf("unexpected content %q", got)
	}
	if n := calls.Load(); n != 4 {
		t.Fatalf("expected 4 attempts, got %d", n)
	}
}

func TestCompleteNeverRetriesAuthFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad-key", "test-model", time.Second, 5)
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("401 must not be retried, got %d attempts", n)
	}
}

func TestCompleteNeverRetriesValidationFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "test-model", time.Second, 5)
	if _, err := c.Complete(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("422 must not be retried, got %d attempts", n)
	}
}

func TestCompleteExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "still down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "test-model", time.Second, 2)
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err == nil || !strings.Contains(err.Error(), "max retries") {
		t.Fatalf("expected max retries error, got %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Fatalf("expected 3 attempts for maxRetries=2, got %d", n)
	}
}

func TestCompleteFailsWithoutAPIKey(t *testing.T) {
	c := NewClient("http://localhost:0", "", "test-model", time.Second, 0)
	if _, err := c.Complete(context.Background(), nil); err == nil {
		t.Fatal("expected configuration error for missing api key")
	}
}

func TestStreamDeliversChunksInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, token := range []string{"Idea", "Launcher", "!"} {
			fmt.Fprintf(w, "data: {\"id\":\"c1\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", token)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "test-model", time.Second, 0)
	chunks, errs := c.Stream(context.Background(), []Message{{Role: "user", Content: "hi"}})

	var got strings.Builder
	for chunk := range chunks {
		got.WriteString(chunk.DeltaContent())
	}
	if err := <-errs; err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	if got.String() != "IdeaLauncher!" {
		t.Fatalf("unexpected assembled content %q", got.String())
	}
}

func TestStreamSurfacesAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "test-model", time.Second, 3)
	chunks, errs := c.Stream(context.Background(), nil)

	for range chunks {
		t.Fatal("expected no chunks")
	}
	var apiErr *APIError
	if err := <-errs; !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
}
