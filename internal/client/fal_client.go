package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/motionhero/api/internal/config"
	"github.com/motionhero/api/internal/model"
	"github.com/rs/zerolog"
)

// QueueObserver receives every status poll of a running request.
type QueueObserver func(update model.QueueUpdate)

// Result is the settled output of a provider request.
type Result struct {
	RequestID string
	Data      json.RawMessage
}

// Inferencer defines the interface for running a model to completion
type Inferencer interface {
	Subscribe(ctx context.Context, modelID string, input interface{}, observe QueueObserver) (*Result, error)
}

// FalClient implements Inferencer and AssetStore for the fal.ai queue and storage APIs
type FalClient struct {
	httpClient   *http.Client
	queueURL     string
	restURL      string
	apiKey       string
	pollInterval time.Duration
	logger       zerolog.Logger
}

type submitResponse struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

// NewFalClient creates a new fal API client. The HTTP client carries no
// timeout; callers bound a request through its context.
func NewFalClient(cfg *config.FalConfig, logger zerolog.Logger) *FalClient {
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	return &FalClient{
		httpClient:   &http.Client{},
		queueURL:     cfg.QueueURL,
		restURL:      cfg.RestURL,
		apiKey:       cfg.Key,
		pollInterval: poll,
		logger:       logger.With().Str("component", "fal").Logger(),
	}
}

// Subscribe submits input to the model queue and blocks until the request
// completes, the provider fails it, or ctx is done.
func (c *FalClient) Subscribe(ctx context.Context, modelID string, input interface{}, observe QueueObserver) (*Result, error) {
	modelID = modelPath(modelID)

	var sub submitResponse
	if err := c.post(ctx, c.queueURL+"/"+modelID, input, &sub); err != nil {
		return nil, err
	}
	if sub.RequestID == "" {
		return nil, fmt.Errorf("provider returned no request id")
	}

	statusURL := sub.StatusURL
	if statusURL == "" {
		statusURL = fmt.Sprintf("%s/%s/requests/%s/status", c.queueURL, modelID, sub.RequestID)
	}
	responseURL := sub.ResponseURL
	if responseURL == "" {
		responseURL = fmt.Sprintf("%s/%s/requests/%s", c.queueURL, modelID, sub.RequestID)
	}

	c.logger.Info().Str("request_id", sub.RequestID).Str("model", modelID).Msg("request queued")

	if err := c.waitCompleted(ctx, sub.RequestID, statusURL, observe); err != nil {
		return nil, err
	}

	var data json.RawMessage
	if err := c.get(ctx, responseURL, &data); err != nil {
		return nil, err
	}

	return &Result{
		RequestID: sub.RequestID,
		Data:      data,
	}, nil
}

// waitCompleted polls the request status until it reports COMPLETED
func (c *FalClient) waitCompleted(ctx context.Context, requestID, statusURL string, observe QueueObserver) error {
	pollURL, err := withQuery(statusURL, "logs", "1")
	if err != nil {
		return err
	}

	attempt := 0
	for {
		attempt++
		var update model.QueueUpdate
		if err := c.get(ctx, pollURL, &update); err != nil {
			return err
		}
		update.RequestID = requestID

		c.logger.Debug().
			Str("request_id", requestID).
			Int("attempt", attempt).
			Str("status", update.Status).
			Int("queue_position", update.QueuePosition).
			Msg("queue update")

		if observe != nil {
			observe(update)
		}

		if update.Status == model.QueueStatusCompleted {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// post sends a POST request with JSON body
func (c *FalClient) post(ctx context.Context, endpoint string, body interface{}, result interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doRequest(req, result)
}

// get sends a GET request and parses JSON response
func (c *FalClient) get(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, result)
}

// doRequest executes an authenticated request and parses the response
func (c *FalClient) doRequest(req *http.Request, result interface{}) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Key "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Msg("provider call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newProviderError(resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

// IsConfigured returns true if the client has valid configuration
func (c *FalClient) IsConfigured() bool {
	return c.apiKey != ""
}

func withQuery(rawURL, key, value string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid status url %q: %w", rawURL, err)
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// modelPath keeps the owner/alias prefix intact while trimming stray slashes
func modelPath(modelID string) string {
	return strings.Trim(modelID, "/")
}
