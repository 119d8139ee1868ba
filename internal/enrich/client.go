package enrich

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"wordmill/internal/card"
)

// Config captures the runtime settings required to talk to the collaborator.
type Config struct {
	Transport      string
	APIKey         string
	BaseURL        string
	Model          string
	Temperature    float64
	TopP           float64
	MaxTokens      int
	TimeoutSeconds int
	AzureEndpoint  string
}

// Client produces bilingual cards from lemmas. Construct one per run with
// NewClient; it is safe for sequential reuse across a whole batch.
type Client struct {
	cfg       Config
	transport transport
}

// Option customizes the client.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient       *http.Client
	retryMaxAttempts *int
	retryBaseDelay   *time.Duration
	retryMaxDelay    *time.Duration
	sleeper          func(time.Duration)
}

// WithHTTPClient overrides the default HTTP client used by every transport.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the http transport retry count (defaults to 5).
func WithRetryMaxAttempts(attempts int) Option {
	return func(o *clientOptions) {
		o.retryMaxAttempts = &attempts
	}
}

// WithRetryBackoff overrides the http transport retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(o *clientOptions) {
		o.retryBaseDelay = &baseDelay
		o.retryMaxDelay = &maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(o *clientOptions) {
		o.sleeper = sleeper
	}
}

// NewClient constructs an enrichment client for the configured transport.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg.Transport = strings.TrimSpace(cfg.Transport)
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Model = strings.TrimSpace(cfg.Model)

	var options clientOptions
	for _, opt := range opts {
		opt(&options)
	}

	tr, err := newTransport(cfg, options.httpClient)
	if err != nil {
		return nil, err
	}
	if ht, ok := tr.(*httpTransport); ok {
		if options.retryMaxAttempts != nil {
			ht.retryMaxAttempts = *options.retryMaxAttempts
		}
		if options.retryBaseDelay != nil {
			ht.retryBaseDelay = *options.retryBaseDelay
		}
		if options.retryMaxDelay != nil {
			ht.retryMaxDelay = *options.retryMaxDelay
		}
		if options.sleeper != nil {
			ht.sleeper = options.sleeper
		}
	}

	return &Client{cfg: cfg, transport: tr}, nil
}

// Enrich requests a bilingual card for the lemma. The returned Result carries
// the transport-normalized payload for logging; it is valid even when card
// decoding fails, so token usage can be accounted for either way.
func (c *Client) Enrich(ctx context.Context, lemma string) (card.Card, Result, error) {
	lemma = strings.TrimSpace(lemma)
	if lemma == "" {
		return card.Card{}, Result{}, errors.New("enrich: lemma required")
	}
	if c.cfg.APIKey == "" {
		return card.Card{}, Result{}, errors.New("enrich: api key required")
	}

	result, err := c.transport.complete(ctx, request{
		Model:       c.cfg.Model,
		System:      SystemPrompt,
		User:        UserPrompt(lemma),
		Temperature: c.cfg.Temperature,
		TopP:        c.cfg.TopP,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return card.Card{}, result, fmt.Errorf("enrich %q: %w", lemma, err)
	}

	parsed, err := decodeCard(result.Content)
	if err != nil {
		return card.Card{}, result, fmt.Errorf("enrich %q: %w", lemma, err)
	}
	return parsed, result, nil
}

// HealthCheck issues a fast ping to verify the API key and model are usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("enrich health: api key required")
	}
	result, err := c.transport.complete(ctx, request{
		Model:       c.cfg.Model,
		System:      "You must respond with JSON only.",
		User:        `Respond with {"ok":true}`,
		Temperature: 0,
		TopP:        1,
		MaxTokens:   16,
	})
	if err != nil {
		return fmt.Errorf("enrich health: %w", err)
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := decodeObject(result.Content, &parsed); err != nil {
		return fmt.Errorf("enrich health: %w", err)
	}
	if !parsed.OK {
		return errors.New("enrich health: unexpected response")
	}
	return nil
}
