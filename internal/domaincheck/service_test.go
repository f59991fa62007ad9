package domaincheck

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckRequiresAPIKey(t *testing.T) {
	svc := NewService("https://lookup.example.com", "")
	if _, err := svc.Check(context.Background(), "example.com"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestCheckAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected auth header %q", got)
		}
		if got := r.URL.Query().Get("domain"); got != "ideatracker.io" {
			t.Errorf("unexpected domain %q", got)
		}
		fmt.Fprint(w, `{"status":"available"}`)
	}))
	defer srv.Close()

	svc := NewService(srv.URL, "key")
	res, err := svc.Check(context.Background(), "IdeaTracker.IO")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !res.Available || res.Domain != "ideatracker.io" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestCheckTaken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"registered"}`)
	}))
	defer srv.Close()

	svc := NewService(srv.URL, "key")
	res, err := svc.Check(context.Background(), "google.com")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if res.Available {
		t.Fatal("expected registered domain to be unavailable")
	}
}

func TestCheckRejectsInvalidDomain(t *testing.T) {
	svc := NewService("https://lookup.example.com", "key")
	for _, domain := range []string{"", "no spaces.com", "nodots", "-bad.com"} {
		if _, err := svc.Check(context.Background(), domain); err == nil {
			t.Errorf("expected error for %q", domain)
		}
	}
}

func TestCheckUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	svc := NewService(srv.URL, "key")
	if _, err := svc.Check(context.Background(), "example.com"); err == nil {
		t.Fatal("expected upstream error")
	}
}
