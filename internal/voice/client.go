package voice

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

	"realty-crm/internal/config"
	"realty-crm/internal/outcome"
)

var (
	// ErrMissingCallID is returned when the calling service accepts a call
	// but the response carries no call identifier.
	ErrMissingCallID = errors.New("voice: response missing call_id")
	ErrNotConfigured = errors.New("voice: client not configured")
)

// APIError is a non-2xx response from the calling service.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("voice: %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

type StartCallRequest struct {
	PhoneNumber string `json:"phone_number"`
	Task        string `json:"task"`
	Voice       string `json:"voice,omitempty"`
}

type startCallResponse struct {
	CallID  string `json:"call_id"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// CallDetails is the calling service's view of one call.
type CallDetails struct {
	CallID      string              `json:"call_id"`
	Status      string              `json:"status"`
	Summary     string              `json:"summary"`
	Transcripts []outcome.Utterance `json:"transcripts"`
}

// Client talks to the outbound calling service. Credentials are fixed at
// construction and shared by call placement and transcript reads.
type Client struct {
	baseURL string
	apiKey  string
	orgID   string
	voice   string
	http    *http.Client
}

// NewClient builds a Client from cfg. A nil hc gets a client bounded by cfg.Timeout.
func NewClient(cfg config.VoiceConfig, hc *http.Client) *Client {
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		orgID:   cfg.OrgID,
		voice:   cfg.Voice,
		http:    hc,
	}
}

// StartCall places one outbound call and returns the service's call id.
func (c *Client) StartCall(ctx context.Context, req StartCallRequest) (string, error) {
	if c == nil || c.baseURL == "" {
		return "", ErrNotConfigured
	}
	if req.Voice == "" {
		req.Voice = c.voice
	}
	var out startCallResponse
	if err := c.do(ctx, http.MethodPost, "/v1/calls", req, &out); err != nil {
		return "", err
	}
	id := strings.TrimSpace(out.CallID)
	if id == "" {
		return "", ErrMissingCallID
	}
	return id, nil
}

// GetCall fetches the status, summary and transcript of a call.
func (c *Client) GetCall(ctx context.Context, callID string) (CallDetails, error) {
	if c == nil || c.baseURL == "" {
		return CallDetails{}, ErrNotConfigured
	}
	callID = strings.TrimSpace(callID)
	if callID == "" {
		return CallDetails{}, ErrMissingCallID
	}
	var out CallDetails
	if err := c.do(ctx, http.MethodGet, "/v1/calls/"+url.PathEscape(callID), nil, &out); err != nil {
		return CallDetails{}, err
	}
	if out.CallID == "" {
		out.CallID = callID
	}
	return out, nil
}

// Transcript adapts GetCall into the classifier's input.
func (c *Client) Transcript(ctx context.Context, callID string) (outcome.Transcript, error) {
	d, err := c.GetCall(ctx, callID)
	if err != nil {
		return outcome.Transcript{}, err
	}
	return outcome.Transcript{Utterances: d.Transcripts, Summary: d.Summary}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("voice: marshal request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("voice: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("authorization", c.apiKey)
	if c.orgID != "" {
		req.Header.Set("X-Org-Id", c.orgID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("voice: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("voice: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("voice: decode response: %w", err)
	}
	return nil
}
