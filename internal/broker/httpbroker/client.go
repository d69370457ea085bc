// Package httpbroker is a net/http-based Broker Adapter implementation
// keyed by an API key/secret pair, in the shape of the pack's brokerage
// client wrapper: a small ServiceResponse JSON envelope plus get/post
// helpers carrying custom auth headers.
package httpbroker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/aristath/trading-council/internal/domain"
	"github.com/rs/zerolog"
)

const requestTimeout = 30 * time.Second

// ServiceResponse is the upstream venue's JSON envelope for every call.
type ServiceResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error,omitempty"`
}

// Config configures a Client.
type Config struct {
	BaseURL   string
	APIKey    string
	APISecret string
}

// Client is the concrete Broker Adapter. Market orders are internally
// converted to a limit order at the currently quoted price, since the
// upstream venue accepts only limit orders.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        zerolog.Logger

	tokenMu     sync.Mutex
	token       string
	tokenExpiry time.Time
	refreshing  bool
	refreshDone chan struct{}
}

// New creates an httpbroker Client.
func New(cfg Config, log zerolog.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: requestTimeout},
		log:        log.With().Str("component", "httpbroker").Logger(),
	}
}

// ensureToken returns a valid auth token, refreshing it if it is within
// 5 minutes of expiry. Refresh is single-flight per process: concurrent
// callers wait on the in-flight refresh instead of racing the venue.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	if time.Now().Before(c.tokenExpiry.Add(-5 * time.Minute)) {
		token := c.token
		c.tokenMu.Unlock()
		return token, nil
	}

	if c.refreshing {
		done := c.refreshDone
		c.tokenMu.Unlock()
		<-done
		c.tokenMu.Lock()
		token := c.token
		c.tokenMu.Unlock()
		return token, nil
	}

	c.refreshing = true
	c.refreshDone = make(chan struct{})
	c.tokenMu.Unlock()

	token, expiry, err := c.refreshToken(ctx)

	c.tokenMu.Lock()
	if err == nil {
		c.token = token
		c.tokenExpiry = expiry
	}
	c.refreshing = false
	close(c.refreshDone)
	c.tokenMu.Unlock()

	return token, err
}

func (c *Client) refreshToken(ctx context.Context) (string, time.Time, error) {
	var resp struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expires_in"`
	}
	if err := c.post(ctx, "/auth/token", map[string]string{
		"api_key":    c.cfg.APIKey,
		"api_secret": c.cfg.APISecret,
	}, &resp); err != nil {
		return "", time.Time{}, fmt.Errorf("token refresh: %w", err)
	}
	return resp.Token, time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second), nil
}

func (c *Client) authHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + token,
		"X-Api-Key":     c.cfg.APIKey,
	}
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	return c.doWithHeaders(ctx, http.MethodPost, path, body, out, nil)
}

func (c *Client) authenticatedPost(ctx context.Context, path string, body interface{}, out interface{}) error {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}
	return c.doWithHeaders(ctx, http.MethodPost, path, body, out, c.authHeaders(token))
}

func (c *Client) authenticatedGet(ctx context.Context, path string, out interface{}) error {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}
	return c.doWithHeaders(ctx, http.MethodGet, path, nil, out, c.authHeaders(token))
}

func (c *Client) doWithHeaders(ctx context.Context, method, path string, body interface{}, out interface{}, headers map[string]string) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("path", path).Msg("broker request failed")
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.log.Debug().Str("path", path).Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("broker request")

	if resp.StatusCode >= 400 {
		return fmt.Errorf("broker returned status %d: %s", resp.StatusCode, string(raw))
	}

	var sr ServiceResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if !sr.Success {
		return fmt.Errorf("broker error: %s", sr.Error)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(sr.Data, out)
}
