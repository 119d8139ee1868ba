package enrich

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// sdkTransport drives the OpenAI SDK against either the public API or an
// Azure deployment. Which one is fixed at construction time.
type sdkTransport struct {
	client *openai.Client
	label  string
}

func newSDKTransport(cfg Config, httpClient *http.Client, azure bool) (*sdkTransport, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeoutFor(cfg)}
	}

	var clientConfig openai.ClientConfig
	label := TransportSDKPublic
	if azure {
		endpoint := strings.TrimSpace(cfg.AzureEndpoint)
		if endpoint == "" {
			return nil, errors.New("enrichment transport: azure endpoint required")
		}
		clientConfig = openai.DefaultAzureConfig(cfg.APIKey, endpoint)
		label = TransportSDKAzure
	} else {
		clientConfig = openai.DefaultConfig(cfg.APIKey)
		if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
			clientConfig.BaseURL = base
		}
	}
	clientConfig.HTTPClient = httpClient

	return &sdkTransport{
		client: openai.NewClientWithConfig(clientConfig),
		label:  label,
	}, nil
}

func (t *sdkTransport) complete(ctx context.Context, req request) (Result, error) {
	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature: float32(req.Temperature),
		TopP:        float32(req.TopP),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return Result{}, fmt.Errorf("enrichment request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, errors.New("enrichment request: empty choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return Result{}, errors.New("enrichment request: empty content")
	}
	return Result{
		Content: content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Meta: Meta{ID: resp.ID, Model: resp.Model, Transport: t.label},
	}, nil
}
