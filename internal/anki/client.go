package anki

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"wordmill/internal/card"
)

const (
	connectVersion        = 6
	defaultRequestTimeout = 15 * time.Second
	defaultPingTimeout    = 5 * time.Second
	userAgent             = "Wordmill/0.1.0"
)

// Config captures the connection and note-shape settings for the sync client.
type Config struct {
	URL                   string
	Deck                  string
	NoteModel             string
	Tags                  []string
	LanguageTag           string
	RequestTimeoutSeconds int
	PingTimeoutSeconds    int
	LaunchCommand         string
	LaunchGraceSeconds    int
}

// ConnectError is a failure reported by the AnkiConnect endpoint itself, as
// opposed to a transport problem reaching it.
type ConnectError struct {
	Action  string
	Message string
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("anki %s: %s", e.Action, e.Message)
}

// Option adjusts client construction.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for AnkiConnect calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLauncher overrides how the desktop application is started during
// connection-refused recovery.
func WithLauncher(fn func(command string) error) Option {
	return func(c *Client) {
		if fn != nil {
			c.launch = fn
		}
	}
}

// WithSleeper overrides the grace-period wait after a launch.
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

// WithClock overrides the time source used for dated note tags.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// Client talks to one AnkiConnect endpoint for the duration of a run.
type Client struct {
	cfg         Config
	endpoint    string
	pingTimeout time.Duration
	httpClient  *http.Client
	launch      func(command string) error
	sleep       func(ctx context.Context, d time.Duration) error
	now         func() time.Time

	launchAttempted bool
}

// NewClient validates the configuration and builds a client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if endpoint == "" {
		return nil, errors.New("anki: url required")
	}

	requestTimeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	pingTimeout := time.Duration(cfg.PingTimeoutSeconds) * time.Second
	if pingTimeout <= 0 {
		pingTimeout = defaultPingTimeout
	}
	cfg.LaunchCommand = strings.TrimSpace(cfg.LaunchCommand)

	c := &Client{
		cfg:         cfg,
		endpoint:    endpoint,
		pingTimeout: pingTimeout,
		httpClient:  &http.Client{Timeout: requestTimeout},
		launch:      startDetached,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// PushResult summarizes one sync commit.
type PushResult struct {
	Requested int      // notes built from incoming cards
	Addable   int      // notes the duplicate check let through
	Added     int      // notes the service actually created
	NoteIDs   []*int64 // one entry per submitted note, nil for rejects
}

// Push builds notes for the given cards, asks the service which ones it will
// accept, and commits only that subset. Notes rejected by the duplicate
// check are skipped silently; replaying an already-synced batch adds zero.
func (c *Client) Push(ctx context.Context, cards []card.Card) (PushResult, error) {
	result := PushResult{Requested: len(cards)}
	if len(cards) == 0 {
		return result, nil
	}

	notes := BuildNotes(cards, c.cfg, c.now())
	flags, err := c.CanAddNotes(ctx, notes)
	if err != nil {
		return result, err
	}

	addable := make([]Note, 0, len(notes))
	for i, note := range notes {
		if flags[i] {
			addable = append(addable, note)
		}
	}
	result.Addable = len(addable)
	if len(addable) == 0 {
		return result, nil
	}

	added, ids, err := c.AddNotes(ctx, addable)
	if err != nil {
		return result, err
	}
	result.Added = added
	result.NoteIDs = ids
	return result, nil
}

// CanAddNotes reports, per note, whether the service would accept it.
func (c *Client) CanAddNotes(ctx context.Context, notes []Note) ([]bool, error) {
	if len(notes) == 0 {
		return nil, nil
	}
	var flags []bool
	if err := c.invoke(ctx, "canAddNotes", notesParams{Notes: notes}, &flags); err != nil {
		return nil, err
	}
	if len(flags) != len(notes) {
		return nil, fmt.Errorf("anki canAddNotes: got %d answers for %d notes", len(flags), len(notes))
	}
	return flags, nil
}

// AddNotes commits notes and returns the created count alongside the raw
// identifier list. A nil identifier marks a note the service rejected.
func (c *Client) AddNotes(ctx context.Context, notes []Note) (int, []*int64, error) {
	if len(notes) == 0 {
		return 0, nil, nil
	}
	var ids []*int64
	if err := c.invoke(ctx, "addNotes", notesParams{Notes: notes}, &ids); err != nil {
		return 0, nil, err
	}
	added := 0
	for _, id := range ids {
		if id != nil {
			added++
		}
	}
	return added, ids, nil
}

// RefreshUI asks the desktop application to redraw its views so freshly
// added notes show up without a manual sync.
func (c *Client) RefreshUI(ctx context.Context) error {
	return c.invoke(ctx, "gui.refreshAll", nil, nil)
}

// Ping asks the endpoint for its protocol version using the shorter ping
// timeout. Used by preflight checks and as a cheap reachability probe.
func (c *Client) Ping(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.pingTimeout)
	defer cancel()

	var version int
	if err := c.invoke(ctx, "version", nil, &version); err != nil {
		return 0, err
	}
	return version, nil
}

// LaunchAttempted reports whether this client already spent its one
// automatic service launch.
func (c *Client) LaunchAttempted() bool {
	return c.launchAttempted
}

type rpcRequest struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

type notesParams struct {
	Notes []Note `json:"notes"`
}

// invoke posts one AnkiConnect action and decodes its result. On a
// connection-refused failure it may start the desktop application, once per
// client lifetime, and retry the call a single time.
func (c *Client) invoke(ctx context.Context, action string, params, result any) error {
	err := c.send(ctx, action, params, result)
	if err == nil {
		return nil
	}
	if c.launchAttempted || c.cfg.LaunchCommand == "" || !errors.Is(err, syscall.ECONNREFUSED) {
		return err
	}

	c.launchAttempted = true
	if launchErr := c.launch(c.cfg.LaunchCommand); launchErr != nil {
		return fmt.Errorf("launch flashcard app: %w", launchErr)
	}
	if grace := time.Duration(c.cfg.LaunchGraceSeconds) * time.Second; grace > 0 {
		if waitErr := c.wait(ctx, grace); waitErr != nil {
			return waitErr
		}
	}
	return c.send(ctx, action, params, result)
}

func (c *Client) send(ctx context.Context, action string, params, result any) error {
	body, err := json.Marshal(rpcRequest{Action: action, Version: connectVersion, Params: params})
	if err != nil {
		return fmt.Errorf("encode %s request: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("anki %s returned %d: %s", action, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var envelope rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode %s response: %w", action, err)
	}
	if envelope.Error != "" {
		return &ConnectError{Action: action, Message: envelope.Error}
	}
	if result == nil || len(envelope.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return fmt.Errorf("decode %s result: %w", action, err)
	}
	return nil
}

func (c *Client) wait(ctx context.Context, d time.Duration) error {
	if c.sleep != nil {
		return c.sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// startDetached launches the configured command without tying its lifetime
// to the calling context. The desktop application must outlive the run that
// started it. The command is split on whitespace; quoting is not supported.
func startDetached(command string) error {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return errors.New("launch command empty")
	}
	cmd := exec.Command(parts[0], parts[1:]...) //nolint:gosec
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", parts[0], err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
