package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIClient calls an OpenAI-compatible Chat Completions endpoint.
type OpenAIClient struct {
	http        *http.Client
	apiKey      string
	model       string
	baseURL     string
	maxTokens   int
	temperature float32

	mu      sync.RWMutex
	last    RateLimitHeaders
	hasLast bool
}

// NewOpenAIClient creates a client. If apiKey is empty, it falls back to the
// OPENAI_API_KEY env var.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAIClient{
		http:        &http.Client{Timeout: 120 * time.Second},
		apiKey:      apiKey,
		model:       model,
		baseURL:     strings.TrimRight(baseURL, "/"),
		maxTokens:   4096,
		temperature: 0.2,
	}
}

func (c *OpenAIClient) Name() string { return "OpenAI:" + c.model }
func (c *OpenAIClient) Close() error { return nil }

// LastRateLimitHeaders returns the quota signals of the latest response.
func (c *OpenAIClient) LastRateLimitHeaders() (RateLimitHeaders, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last, c.hasLast
}

type chatReq struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	b, err := json.Marshal(chatReq{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	headers, ok := parseRateLimitHeaders(resp.Header)
	if ok {
		c.mu.Lock()
		c.last, c.hasLast = headers, true
		c.mu.Unlock()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		const max = 2048
		if len(body) > max {
			body = body[:max]
		}
		var apiErr apiError
		msg := string(body)
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		err := fmt.Errorf("HTTP %d error from API: %s", resp.StatusCode, msg)
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return "", &RateLimitedError{Wait: headers.NextWait(), Err: err}
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return "", NewPermanentError(err)
		case resp.StatusCode == http.StatusBadRequest && apiErr.Error.Code == "context_length_exceeded":
			return "", NewPermanentError(err)
		}
		return "", err
	}

	var out chatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to parse API response: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return out.Choices[0].Message.Content, nil
}
