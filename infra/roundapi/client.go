package roundapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/anrusu/fueldist/core/logger"
	"github.com/anrusu/fueldist/core/model"
	"github.com/anrusu/fueldist/core/sim"
)

const (
	headerAPIKey    = "API-KEY"
	headerSessionID = "SESSION-ID"
)

// Config holds the RoundService connection settings.
type Config struct {
	BaseURL        string `json:"base_url"`
	APIKey         string `json:"api_key"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	MaxRetries     int    `json:"max_retries"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("api_key is required")
	}
	return nil
}

// Client talks to the RoundService over HTTP. It implements sim.RoundService.
// Transport errors and 5xx responses are retried with exponential backoff up
// to MaxRetries; 4xx responses are permanent.
type Client struct {
	base    string
	apiKey  string
	retries int
	backoff *ExponentialBackoff
	client  *http.Client
	log     logger.Logger
}

// NewClient creates a RoundService client.
func NewClient(cfg Config, log logger.Logger) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		retries: cfg.MaxRetries,
		backoff: DefaultBackoff(),
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		log:     log,
	}, nil
}

// StartSession opens a session. The service returns the opaque session id as
// the plain-text response body.
func (c *Client) StartSession(ctx context.Context) (string, error) {
	body, err := c.post(ctx, "/session/start", "", []byte("{}"))
	if err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}
	id := strings.TrimSpace(string(body))
	if id == "" {
		return "", fmt.Errorf("start session: empty session id")
	}
	return id, nil
}

// PlayRound submits the day's movements and returns the newly revealed
// demand with the round KPIs.
func (c *Client) PlayRound(ctx context.Context, sessionID string, day int, movements []model.Movement) (sim.RoundResult, error) {
	req := RoundRequest{Day: day, Movements: toWireMovements(movements)}
	payload, err := json.Marshal(req)
	if err != nil {
		return sim.RoundResult{}, fmt.Errorf("encode round %d: %w", day, err)
	}
	body, err := c.post(ctx, "/play/round", sessionID, payload)
	if err != nil {
		return sim.RoundResult{}, fmt.Errorf("play round %d: %w", day, err)
	}
	var resp RoundResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return sim.RoundResult{}, fmt.Errorf("decode round %d response: %w", day, err)
	}
	return sim.RoundResult{
		Demand:    fromWireDemand(resp.Demand),
		DeltaKPIs: resp.DeltaKPIs,
		TotalKPIs: resp.TotalKPIs,
	}, nil
}

// EndSession releases the session.
func (c *Client) EndSession(ctx context.Context, sessionID string) error {
	if _, err := c.post(ctx, "/session/end", sessionID, []byte("{}")); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path, sessionID string, payload []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			wait := c.backoff.Next(attempt - 1)
			c.log.Warnf("retrying %s in %s after: %v", path, wait, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}
		body, retryable, err := c.do(ctx, path, sessionID, payload)
		if err == nil {
			return body, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, path, sessionID string, payload []byte) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerAPIKey, c.apiKey)
	if sessionID != "" {
		req.Header.Set(headerSessionID, sessionID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}
	return body, false, nil
}
