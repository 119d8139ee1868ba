package enrich

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Transport values accepted by Config.Transport.
const (
	TransportHTTP      = "http"
	TransportSDKPublic = "sdk-public"
	TransportSDKAzure  = "sdk-azure"
)

// Result is the transport-normalized completion payload. Every transport
// reduces its wire shape to this before anything else sees the response.
type Result struct {
	Content string
	Usage   Usage
	Meta    Meta
}

// Usage reports token consumption for one completion call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Meta carries call metadata useful for logging.
type Meta struct {
	ID        string
	Model     string
	Transport string
}

// request is the transport-independent completion request.
type request struct {
	Model       string
	System      string
	User        string
	Temperature float64
	TopP        float64
	MaxTokens   int
}

type transport interface {
	complete(ctx context.Context, req request) (Result, error)
}

func newTransport(cfg Config, httpClient *http.Client) (transport, error) {
	switch cfg.Transport {
	case TransportHTTP, "":
		return newHTTPTransport(cfg, httpClient), nil
	case TransportSDKPublic:
		return newSDKTransport(cfg, httpClient, false)
	case TransportSDKAzure:
		return newSDKTransport(cfg, httpClient, true)
	default:
		return nil, fmt.Errorf("enrichment transport: unsupported value %q", cfg.Transport)
	}
}

func timeoutFor(cfg Config) time.Duration {
	if cfg.TimeoutSeconds > 0 {
		return time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return defaultHTTPTimeout
}
