// Package api talks to the speech synthesis service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speakr/internal/voice"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout           = 60 * time.Second
	defaultRequestsPerMinute = 30

	// maxAudioSize guards against a runaway response body.
	maxAudioSize = 50 * 1024 * 1024
)

// Config holds client settings.
type Config struct {
	// BaseURL is the API root, e.g. "http://localhost:8000/api".
	BaseURL string

	// Timeout for a single request (defaults to 60s)
	Timeout time.Duration

	// RequestsPerMinute throttles outbound calls (defaults to 30, <0 disables)
	RequestsPerMinute int

	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client is a synthesis service client.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	now     func() time.Time
}

// NewClient creates a client for the service at cfg.BaseURL.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("api base URL is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RequestsPerMinute == 0 {
		cfg.RequestsPerMinute = defaultRequestsPerMinute
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), cfg.RequestsPerMinute)
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
		limiter: limiter,
		now:     time.Now,
	}, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Voices fetches the full voice catalog. The query string carries a cache
// buster so intermediaries never serve a stale list.
func (c *Client) Voices(ctx context.Context) ([]voice.Voice, error) {
	url := c.baseURL + "/voices?_=" + strconv.FormatInt(c.now().UnixMilli(), 10)

	resp, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, &Error{
			Kind:    KindNetwork,
			Status:  resp.StatusCode,
			Message: extractMessage(body, "Failed to load voices"),
		}
	}

	var voices []voice.Voice
	if err := json.NewDecoder(resp.Body).Decode(&voices); err != nil {
		return nil, &Error{Kind: KindNetwork, Status: resp.StatusCode, Message: "Failed to load voices", Cause: err}
	}

	log.Debug("Loaded voices", "count", len(voices))
	return voices, nil
}

// SynthesizeOptions tunes the messages used when a synthesis call fails.
type SynthesizeOptions struct {
	// GenericMessage replaces an unstructured failure body.
	GenericMessage string

	// VoiceHint is appended to voice-related failures.
	VoiceHint string
}

// DefaultSynthesizeOptions are used by Synthesize.
var DefaultSynthesizeOptions = SynthesizeOptions{
	GenericMessage: "Failed to generate speech",
	VoiceHint:      "Try selecting a different voice or reload the voice list.",
}

// Synthesize posts req and returns the audio payload.
func (c *Client) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	return c.SynthesizeWith(ctx, req, DefaultSynthesizeOptions)
}

// SynthesizeWith is Synthesize with custom failure messages.
func (c *Client) SynthesizeWith(ctx context.Context, req Request, opts SynthesizeOptions) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal synthesis request: %w", err)
	}

	log.Debug("Synthesizing speech", "text_length", len(req.Text), "voice", req.Voice)

	resp, err := c.do(ctx, http.MethodPost, c.baseURL+"/synthesize", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, newStatusError(resp.StatusCode, errBody, opts.GenericMessage, opts.VoiceHint)
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioSize+1))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Status: resp.StatusCode, Message: opts.GenericMessage, Cause: err}
	}
	if len(audio) > maxAudioSize {
		return nil, &Error{Kind: KindNetwork, Status: resp.StatusCode, Message: "audio response too large"}
	}
	if len(audio) == 0 {
		return nil, &Error{
			Kind:    KindVoiceUnavailable,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("Voice error: No audio was generated. %s", opts.VoiceHint),
			Cause:   ErrEmptyAudio,
		}
	}

	log.Debug("Speech synthesized", "bytes", len(audio))
	return audio, nil
}

// Health reports whether the service answers its health check.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	var payload struct {
		Status string `json:"status"`
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("%w: %v", ErrUnhealthy, err)
	}
	if payload.Status != "healthy" {
		return fmt.Errorf("%w: %q", ErrUnhealthy, payload.Status)
	}
	return nil
}

// do waits for the limiter and performs one request. Transport failures are
// returned as KindNetwork errors.
func (c *Client) do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "request cancelled", Cause: err}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{
			Kind:    KindNetwork,
			Message: "Unable to reach the speech service. Please check the server connection.",
			Cause:   err,
		}
	}
	return resp, nil
}
