// Package integration contains the clients for external collaborators: the
// OpenAI-compatible text-generation capability and its pricing table.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ChatMessage is a single message in a chat-completions request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateResult is the raw outcome of one capability call.
type GenerateResult struct {
	Content    string
	Model      string
	TokensUsed int
}

// CapabilityClient is the boundary contract with the external analysis
// capability: one generate call returning raw text plus token usage.
type CapabilityClient interface {
	Generate(ctx context.Context, messages []ChatMessage) (*GenerateResult, error)
}

// OpenAIConfig configures the direct HTTP chat-completions client.
type OpenAIConfig struct {
	APIBase     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

type openAIClient struct {
	cfg        OpenAIConfig
	httpClient *http.Client
}

// NewOpenAIClient creates a CapabilityClient speaking the OpenAI
// chat-completions protocol over direct HTTP.
func NewOpenAIClient(cfg OpenAIConfig) (CapabilityClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("capability client: API key is empty")
	}
	if cfg.APIBase == "" {
		cfg.APIBase = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-3.5-turbo"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &openAIClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *openAIClient) Generate(ctx context.Context, messages []ChatMessage) (*GenerateResult, error) {
	payload := chatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling completion request: %w", err)
	}

	url := strings.TrimSuffix(c.cfg.APIBase, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling capability: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("reading capability response: %w", err)
	}

	var decoded chatCompletionResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("decoding capability response (HTTP %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := "unknown error"
		if decoded.Error != nil && decoded.Error.Message != "" {
			msg = decoded.Error.Message
		}
		return nil, fmt.Errorf("capability returned HTTP %d: %s", resp.StatusCode, msg)
	}

	if len(decoded.Choices) == 0 {
		return nil, fmt.Errorf("capability returned no choices")
	}

	return &GenerateResult{
		Content:    strings.TrimSpace(decoded.Choices[0].Message.Content),
		Model:      c.cfg.Model,
		TokensUsed: decoded.Usage.TotalTokens,
	}, nil
}
