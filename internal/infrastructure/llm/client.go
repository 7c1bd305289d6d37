// Package llm 提供文本生成后端客户端
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ilhaam43/horila-apps-ai-sub000/internal/application/assistant"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/config"
	"github.com/ilhaam43/horila-apps-ai-sub000/pkg/metrics"
)

// Client OpenAI 兼容的 chat completions 客户端
type Client struct {
	provider    string
	endpoint    string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

var _ assistant.Generator = (*Client)(nil)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewClient 创建生成客户端
func NewClient(cfg *config.LLMConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}
	return &Client{
		provider:    provider,
		endpoint:    strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Generate 用给定提示词生成回答文本。
// 超时与连接失败分别映射为流水线可识别的哨兵错误，调用方据此降级。
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.endpoint == "" {
		return "", assistant.ErrBackendUnavailable
	}

	reqBody, err := json.Marshal(&chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	metrics.LLMCallDuration.WithLabelValues(c.provider).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMCallTotal.WithLabelValues(c.provider, "error").Inc()
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return "", fmt.Errorf("%w: %v", assistant.ErrBackendTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", assistant.ErrBackendUnavailable, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		metrics.LLMCallTotal.WithLabelValues(c.provider, "error").Inc()
		return "", fmt.Errorf("%w: status=%d", assistant.ErrBackendUnavailable, httpResp.StatusCode)
	}

	var resp chatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		metrics.LLMCallTotal.WithLabelValues(c.provider, "error").Inc()
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(resp.Choices) == 0 {
		metrics.LLMCallTotal.WithLabelValues(c.provider, "error").Inc()
		return "", fmt.Errorf("%w: empty choices", assistant.ErrBackendUnavailable)
	}

	metrics.LLMCallTotal.WithLabelValues(c.provider, "ok").Inc()
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
