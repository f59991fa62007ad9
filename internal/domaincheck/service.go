// Package domaincheck proxies domain-name availability lookups to a
// third-party RDAP-style HTTP API.
package domaincheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// ErrNotConfigured is returned when the lookup API key is missing.
// Surfaces at call time so the rest of the service runs without it.
var ErrNotConfigured = errors.New("domain lookup api key not configured")

var domainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)+$`)

// Result is one domain's availability answer.
type Result struct {
	Domain    string `json:"domain"`
	Available bool   `json:"available"`
}

// Service performs availability lookups.
type Service struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewService(baseURL, apiKey string) *Service {
	return &Service{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Check looks up availability for one domain name.
func (s *Service) Check(ctx context.Context, domain string) (Result, error) {
	if s.apiKey == "" {
		return Result{}, ErrNotConfigured
	}

	domain = strings.ToLower(strings.TrimSpace(domain))
	if !domainPattern.MatchString(domain) {
		return Result{}, fmt.Errorf("invalid domain name %q", domain)
	}

	endpoint := fmt.Sprintf("%s/v1/availability?domain=%s", s.baseURL, url.QueryEscape(domain))
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return Result{}, fmt.Errorf("create lookup request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("domain lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Result{}, fmt.Errorf("domain lookup failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Result{}, fmt.Errorf("decode lookup response: %w", err)
	}

	return Result{
		Domain:    domain,
		Available: strings.EqualFold(payload.Status, "available"),
	}, nil
}
