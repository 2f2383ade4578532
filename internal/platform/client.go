package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ignite/adperf-monitor/internal/config"
	"github.com/ignite/adperf-monitor/internal/optimizer"
	"github.com/ignite/adperf-monitor/internal/pkg/httpretry"
)

// Client is the ad platform management API client. It performs the real
// side effects behind recommendations (pausing creatives, shifting budget,
// applying audience exclusions) and implements optimizer.ActionExecutor.
type Client struct {
	baseURL    string
	apiKey     string
	accountID  string
	httpClient httpretry.HTTPDoer
}

// NewClient creates a new platform API client
func NewClient(cfg config.PlatformConfig) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		accountID: cfg.AccountID,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.Timeout(),
		}, 3),
	}
}

// actionRequest is the body sent with every action call.
type actionRequest struct {
	AccountID    string `json:"account_id"`
	ActionModule string `json:"action_module"`
	Type         string `json:"type"`
	SnoozeUntil  string `json:"snooze_until,omitempty"`
}

// actionResponse is the platform's success envelope.
type actionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Execute applies the recommendation's action on the platform.
func (c *Client) Execute(ctx context.Context, rec *optimizer.Recommendation) error {
	return c.postAction(ctx, rec.ID, "execute", actionRequest{
		AccountID:    c.accountID,
		ActionModule: rec.ActionModule,
		Type:         string(rec.Type),
	})
}

// Ignore records the dismissal on the platform so the recommendation is not
// re-surfaced on the next refresh.
func (c *Client) Ignore(ctx context.Context, rec *optimizer.Recommendation) error {
	return c.postAction(ctx, rec.ID, "ignore", actionRequest{
		AccountID:    c.accountID,
		ActionModule: rec.ActionModule,
		Type:         string(rec.Type),
	})
}

// Snooze tells the platform to hold the recommendation until the given time.
// Snoozing is engine-local; callers treat a failure here as advisory only.
func (c *Client) Snooze(ctx context.Context, rec *optimizer.Recommendation, until time.Time) error {
	return c.postAction(ctx, rec.ID, "snooze", actionRequest{
		AccountID:    c.accountID,
		ActionModule: rec.ActionModule,
		Type:         string(rec.Type),
		SnoozeUntil:  until.UTC().Format(time.RFC3339),
	})
}

// postAction makes a POST request to a recommendation action endpoint
func (c *Client) postAction(ctx context.Context, recID, action string, body actionRequest) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	fullURL := fmt.Sprintf("%s/recommendations/%s/%s", c.baseURL, recID, action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(payload)), nil
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var envelope actionResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	if !envelope.Success {
		return fmt.Errorf("platform rejected %s for %s: %s", action, recID, envelope.Message)
	}

	return nil
}
