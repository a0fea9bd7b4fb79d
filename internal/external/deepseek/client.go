package deepseek

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
	"github.com/robroyhobbs/burgerprice/pkg/config"
	"github.com/robroyhobbs/burgerprice/pkg/httputil"
	"github.com/robroyhobbs/burgerprice/pkg/logger"
)

// Client talks to a DeepSeek-compatible chat-completions endpoint
// ⭐ SSOT: generative service calls go through this client only
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.GenerativeConfig
}

// NewClient creates a new generative client
func NewClient(cfg config.GenerativeConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("deepseek"),
		cfg:        cfg,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []message      `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one system + user prompt pair and returns the raw content of
// the first choice. Every failure wraps contracts.ErrUpstream.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("%w: DEEPSEEK_API_KEY is not configured", contracts.ErrUpstream)
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	body := chatRequest{
		Model: c.cfg.Model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    c.cfg.Temperature,
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	start := time.Now()

	resp, err := c.httpClient.PostJSON(ctx, url, body, map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: request timed out after %s", contracts.ErrUpstream, c.cfg.Timeout)
		}
		return "", fmt.Errorf("%w: %v", contracts.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("%w: api error %d: %s", contracts.ErrUpstream, resp.StatusCode, string(text))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", contracts.ErrUpstream, err)
	}

	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: response has no choices", contracts.ErrUpstream)
	}

	c.logger.WithFields(map[string]interface{}{
		"model":    c.cfg.Model,
		"duration": time.Since(start).String(),
	}).Debug("Completion received")

	return out.Choices[0].Message.Content, nil
}
