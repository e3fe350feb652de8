package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrServiceStatus is returned when the dedupe service answers with a non-2xx status.
var ErrServiceStatus = errors.New("unexpected dedupe service status")

// ServiceRegistry talks to a remote dedupe service with a bearer key.
type ServiceRegistry struct {
	batchURL  string
	singleURL string
	key       string
	client    *http.Client
}

// NewServiceRegistry creates a client. batchURL answers CheckRegistered, singleURL answers Register.
func NewServiceRegistry(batchURL, singleURL, key string, client *http.Client) *ServiceRegistry {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ServiceRegistry{batchURL: batchURL, singleURL: singleURL, key: key, client: client}
}

type batchRequest struct {
	URIs []string `json:"uris"`
}

type batchEntry struct {
	URI        string `json:"uri"`
	Registered bool   `json:"registered"`
}

type registerRequest struct {
	URI string `json:"uri"`
}

type registerResponse struct {
	Registered bool `json:"registered"`
}

func (s *ServiceRegistry) CheckRegistered(ctx context.Context, uris []string) (map[string]bool, error) {
	out := make(map[string]bool, len(uris))
	if len(uris) == 0 {
		return out, nil
	}

	var entries []batchEntry
	if err := s.post(ctx, s.batchURL, batchRequest{URIs: uris}, &entries); err != nil {
		return nil, fmt.Errorf("check registered: %w", err)
	}
	for _, e := range entries {
		out[e.URI] = e.Registered
	}
	return out, nil
}

func (s *ServiceRegistry) Register(ctx context.Context, uri string) (bool, error) {
	var resp registerResponse
	if err := s.post(ctx, s.singleURL, registerRequest{URI: uri}, &resp); err != nil {
		return false, fmt.Errorf("register %s: %w", uri, err)
	}
	return resp.Registered, nil
}

func (s *ServiceRegistry) post(ctx context.Context, url string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s: %s", ErrServiceStatus, resp.Status, bytes.TrimSpace(text))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
