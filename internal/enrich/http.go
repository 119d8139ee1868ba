package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout    = 60 * time.Second
	defaultRetryAttempts  = 5
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second

	completionsPath = "/chat/completions"
)

// httpTransport talks to a chat-completions endpoint directly over net/http.
type httpTransport struct {
	apiKey     string
	endpoint   string
	label      string
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

func newHTTPTransport(cfg Config, httpClient *http.Client) *httpTransport {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeoutFor(cfg)}
	}
	return &httpTransport{
		apiKey:           strings.TrimSpace(cfg.APIKey),
		endpoint:         base + completionsPath,
		label:            TransportHTTP,
		httpClient:       httpClient,
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse tolerates both the chat-completions shape and the
// responses-style shape some historical revisions of the collaborator
// returned. Normalization happens in toResult so nothing downstream ever
// sees the difference.
type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Text string `json:"text"`
	} `json:"choices"`
	OutputText string `json:"output_text"`
	Output     []struct {
		Content []struct {
			Text       string `json:"text"`
			OutputText string `json:"output_text"`
		} `json:"content"`
	} `json:"output"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
		InputTokens      int `json:"input_tokens"`
		OutputTokens     int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (r chatResponse) content() string {
	for _, choice := range r.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content
		}
		if content := strings.TrimSpace(choice.Text); content != "" {
			return content
		}
	}
	if content := strings.TrimSpace(r.OutputText); content != "" {
		return content
	}
	var parts []string
	for _, block := range r.Output {
		for _, element := range block.Content {
			if text := strings.TrimSpace(element.Text); text != "" {
				parts = append(parts, text)
			} else if text := strings.TrimSpace(element.OutputText); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func (t *httpTransport) toResult(r chatResponse) Result {
	usage := Usage{
		PromptTokens:     r.Usage.PromptTokens,
		CompletionTokens: r.Usage.CompletionTokens,
		TotalTokens:      r.Usage.TotalTokens,
	}
	if usage.PromptTokens == 0 {
		usage.PromptTokens = r.Usage.InputTokens
	}
	if usage.CompletionTokens == 0 {
		usage.CompletionTokens = r.Usage.OutputTokens
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}
	return Result{
		Content: r.content(),
		Usage:   usage,
		Meta:    Meta{ID: r.ID, Model: r.Model, Transport: t.label},
	}
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("enrichment request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func (t *httpTransport) complete(ctx context.Context, req request) (Result, error) {
	attempts := t.retryMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := t.sendOnce(ctx, req)
		if err == nil {
			if result.Content == "" {
				return Result{}, errors.New("enrichment request: empty content")
			}
			return result, nil
		}

		delay, retry := t.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return Result{}, err
		}
		if err := t.sleep(ctx, delay); err != nil {
			return Result{}, err
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return Result{}, fmt.Errorf("enrichment request: failed after %d attempts: %w", attempts, lastErr)
}

func (t *httpTransport) sendOnce(ctx context.Context, req request) (Result, error) {
	payload := chatRequest{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxTokens:   req.MaxTokens,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("enrichment request: encode body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(encoded))
	if err != nil {
		return Result{}, fmt.Errorf("enrichment request: new request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("enrichment request: http error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("enrichment request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return Result{}, &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: retryAfter,
		}
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Result{}, fmt.Errorf("enrichment request: decode response: %w", err)
	}
	if decoded.Error != nil {
		return Result{}, fmt.Errorf("enrichment request: api error: %s", strings.TrimSpace(decoded.Error.Message))
	}
	return t.toResult(decoded), nil
}

func (t *httpTransport) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || err == nil {
		return 0, false
	}
	if ctx != nil && ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return t.capDelay(statusErr.RetryAfter), true
			}
			return t.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return t.backoffDelay(attempt), true
	}

	return 0, false
}

// backoffDelay doubles per attempt: 1 -> base, 2 -> base*2, 3 -> base*4.
func (t *httpTransport) backoffDelay(attempt int) time.Duration {
	base := t.retryBaseDelay
	if base <= 0 {
		return 0
	}
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > t.retryMaxDelay/2 {
			return t.retryMaxDelay
		}
		delay *= 2
	}
	return t.capDelay(delay)
}

func (t *httpTransport) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if t.retryMaxDelay > 0 && delay > t.retryMaxDelay {
		return t.retryMaxDelay
	}
	return delay
}

func (t *httpTransport) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx == nil {
		return errors.New("enrichment retry: nil context")
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if t.sleeper != nil {
		t.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
