// Package classifier – llm.go implements the completion client used for
// intent classification. Uses the OpenAI-compatible API format by default,
// with native support for Google's Gemini generateContent endpoint, so the
// bot works against OpenAI, Gemini, or any compatible proxy.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jholhewres/classclaw/pkg/classclaw/config"
)

// Client handles communication with the LLM provider API.
type Client struct {
	baseURL    string
	provider   string // "openai", "google", or any OpenAI-compatible endpoint
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new completion client from config.
func NewClient(cfg config.APIConfig, model string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	provider := detectProvider(baseURL)
	if provider == "openai" && cfg.Provider != "" {
		provider = cfg.Provider
	}

	return &Client{
		baseURL:  baseURL,
		provider: provider,
		apiKey:   cfg.APIKey,
		model:    model,
		httpClient: &http.Client{
			// No global timeout here — each call uses context.WithTimeout
			// for precise per-call control.
			Transport: &http.Transport{
				MaxIdleConns:          10,
				MaxIdleConnsPerHost:   5,
				IdleConnTimeout:       120 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 60 * time.Second,
			},
		},
		logger: logger.With("component", "llm", "provider", provider),
	}
}

// detectProvider infers the provider from the base URL.
func detectProvider(baseURL string) string {
	switch {
	case strings.Contains(baseURL, "generativelanguage.googleapis.com"):
		return "google"
	case strings.Contains(baseURL, "openai.com"):
		return "openai"
	case strings.Contains(baseURL, "openrouter.ai"):
		return "openrouter"
	case strings.Contains(baseURL, "api.groq.com"):
		return "groq"
	case strings.Contains(baseURL, "localhost:11434"),
		strings.Contains(baseURL, "127.0.0.1:11434"),
		strings.Contains(baseURL, "ollama"):
		return "ollama"
	default:
		return "openai" // assume OpenAI-compatible
	}
}

// providerKeyNames maps provider IDs to their standard API key variable names.
var providerKeyNames = map[string]string{
	"openai":     "OPENAI_API_KEY",
	"google":     "GEMINI_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
	"groq":       "GROQ_API_KEY",
}

// resolveAPIKey returns the API key to use for this client.
// Priority: 1) explicitly set key, 2) provider-specific env var,
// 3) OS keyring, 4) generic API_KEY.
func (c *Client) resolveAPIKey() string {
	if c.apiKey != "" {
		return c.apiKey
	}
	if name, ok := providerKeyNames[c.provider]; ok {
		if key := os.Getenv(name); key != "" {
			return key
		}
	}
	if key := config.GetKeyring(config.KeyringAPIKey); key != "" {
		return key
	}
	return os.Getenv("API_KEY")
}

// Complete sends a single-prompt completion request and returns the text.
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	if c.provider == "google" {
		return c.completeGemini(ctx, prompt, maxTokens, temperature)
	}
	return c.completeChat(ctx, prompt, maxTokens, temperature)
}

// completeChat calls an OpenAI-compatible /chat/completions endpoint.
func (c *Client) completeChat(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	payload := map[string]any{
		"model":       c.model,
		"messages":    []map[string]string{{"role": "user", "content": prompt}},
		"max_tokens":  maxTokens,
		"temperature": temperature,
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := c.postJSON(ctx, c.baseURL+"/chat/completions", payload, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", fmt.Errorf("llm: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("llm: no choices in response")
	}
	return result.Choices[0].Message.Content, nil
}

// completeGemini calls the Gemini generateContent endpoint.
func (c *Client) completeGemini(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.resolveAPIKey())

	payload := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"temperature":     temperature,
			"maxOutputTokens": maxTokens,
		},
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := c.postJSON(ctx, url, payload, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", fmt.Errorf("llm: %s", result.Error.Message)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("llm: no candidates in response")
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

// postJSON posts a JSON payload and decodes the JSON response into out.
func (c *Client) postJSON(ctx context.Context, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("llm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("llm: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.provider != "google" {
		req.Header.Set("Authorization", "Bearer "+c.resolveAPIKey())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("llm: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("llm: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("llm: HTTP %d: %s", resp.StatusCode, truncate(string(data), 200))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("llm: decoding response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Compile-time interface verification.
var _ Completer = (*Client)(nil)
