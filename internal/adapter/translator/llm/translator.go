// Package llm implements the translation contract with a chat-completions
// model constrained to a JSON response.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/torisu/jimaku/internal/domain"
	"github.com/torisu/jimaku/internal/port"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultModel       = "gpt-4o-mini"
	defaultHTTPTimeout = 60 * time.Second
)

const systemPrompt = `You are a professional subtitle translator. Translate the user's %s text into natural %s suitable for subtitles. Respond with a JSON object: {"translation": "<translated text>", "confidence": <0.0-1.0>}.`

type Client struct {
	apiKey     string
	model      string
	baseURL    string
	sourceLang string
	targetLang string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

func WithModel(model string) Option {
	return func(c *Client) {
		model = strings.TrimSpace(model)
		if model != "" {
			c.model = model
		}
	}
}

func NewClient(apiKey, sourceLang, targetLang string, opts ...Option) *Client {
	client := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		model:      defaultModel,
		baseURL:    defaultBaseURL,
		sourceLang: sourceLang,
		targetLang: targetLang,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Temperature float64 `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type translationPayload struct {
	Translation string  `json:"translation"`
	Confidence  float64 `json:"confidence"`
}

func (c *Client) Translate(ctx context.Context, text string) (domain.Translation, error) {
	var empty domain.Translation

	text = strings.TrimSpace(text)
	if text == "" {
		return empty, domain.WrapError(domain.ErrValidation, "translation", "empty text", nil)
	}
	if c.apiKey == "" {
		return empty, domain.WrapError(domain.ErrProvider, "translation", "api key not configured", nil)
	}

	request := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: fmt.Sprintf(systemPrompt, c.sourceLang, c.targetLang)},
			{Role: "user", Content: text},
		},
	}
	request.ResponseFormat.Type = "json_object"

	encoded, err := json.Marshal(request)
	if err != nil {
		return empty, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(encoded))
	if err != nil {
		return empty, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return empty, err
		}
		return empty, domain.WrapError(domain.ErrProvider, "translation", "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return empty, domain.WrapError(domain.ErrProvider, "translation", "read response", err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		return empty, statusError(resp.StatusCode, body)
	}

	var completion chatResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return empty, domain.WrapError(domain.ErrProvider, "translation", "decode response", err)
	}
	if completion.Error != nil {
		return empty, domain.WrapError(domain.ErrProvider, "translation", "api error", errors.New(completion.Error.Message))
	}
	if len(completion.Choices) == 0 {
		return empty, domain.WrapError(domain.ErrEmptyResult, "translation", "empty choices", nil)
	}

	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return empty, domain.WrapError(domain.ErrEmptyResult, "translation", "empty content", nil)
	}

	var payload translationPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return empty, domain.WrapError(domain.ErrProvider, "translation", "parse payload", err)
	}
	if strings.TrimSpace(payload.Translation) == "" {
		return empty, domain.WrapError(domain.ErrEmptyResult, "translation", "empty translation", nil)
	}

	return domain.Translation{
		SourceText:     text,
		TranslatedText: strings.TrimSpace(payload.Translation),
		Confidence:     clampConfidence(payload.Confidence),
	}, nil
}

func statusError(status int, body []byte) error {
	detail := strings.TrimSpace(string(body))

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.WrapError(domain.ErrProvider, "translation", "invalid or missing api credential", fmt.Errorf("http %d: %s", status, detail))
	case http.StatusTooManyRequests:
		return domain.WrapError(domain.ErrProvider, "translation", "rate limit or quota exceeded", fmt.Errorf("http %d: %s", status, detail))
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return domain.WrapError(domain.ErrProvider, "translation", "provider timeout", fmt.Errorf("http %d: %s", status, detail))
	default:
		return domain.WrapError(domain.ErrProvider, "translation", "unexpected provider response", fmt.Errorf("http %d: %s", status, detail))
	}
}

func clampConfidence(confidence float64) float64 {
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

var _ port.Translator = (*Client)(nil)
