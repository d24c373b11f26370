// Package whisper implements the transcription contract against the OpenAI
// audio transcriptions API.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/torisu/jimaku/internal/domain"
	"github.com/torisu/jimaku/internal/port"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultModel       = "whisper-1"
	defaultHTTPTimeout = 10 * time.Minute
)

type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the default API base (useful for tests/mocks).
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

func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		model:      defaultModel,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type verboseResponse struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
	Language string  `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe sends the audio as multipart form data and normalizes the
// verbose_json response into a Transcript with millisecond segment offsets.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, filename, language string) (*domain.Transcript, error) {
	if audio == nil {
		return nil, domain.WrapError(domain.ErrValidation, "transcription", "missing audio input", nil)
	}
	if c.apiKey == "" {
		return nil, domain.WrapError(domain.ErrProvider, "transcription", "api key not configured", nil)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("model", c.model); err != nil {
		return nil, fmt.Errorf("write model field: %w", err)
	}
	if err := mw.WriteField("response_format", "verbose_json"); err != nil {
		return nil, fmt.Errorf("write format field: %w", err)
	}
	if language != "" {
		if err := mw.WriteField("language", language); err != nil {
			return nil, fmt.Errorf("write language field: %w", err)
		}
	}
	fw, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	written, err := io.Copy(fw, audio)
	if err != nil {
		return nil, fmt.Errorf("copy audio: %w", err)
	}
	if written == 0 {
		return nil, domain.WrapError(domain.ErrValidation, "transcription", "empty audio input", nil)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrProvider, "transcription", "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, statusError(resp)
	}

	var parsed verboseResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, domain.WrapError(domain.ErrProvider, "transcription", "decode response", err)
	}

	if strings.TrimSpace(parsed.Text) == "" {
		return nil, domain.WrapError(domain.ErrEmptyResult, "transcription", "provider returned no transcript text", nil)
	}

	transcript := &domain.Transcript{
		Text:     strings.TrimSpace(parsed.Text),
		Duration: parsed.Duration,
	}
	for _, seg := range parsed.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		transcript.Segments = append(transcript.Segments, domain.Segment{
			StartMS: int64(seg.Start * 1000),
			EndMS:   int64(seg.End * 1000),
			Text:    text,
		})
	}
	return transcript, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	detail := strings.TrimSpace(string(body))

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.WrapError(domain.ErrProvider, "transcription", "invalid or missing api credential", fmt.Errorf("http %d: %s", resp.StatusCode, detail))
	case http.StatusTooManyRequests:
		return domain.WrapError(domain.ErrProvider, "transcription", "rate limit or quota exceeded", fmt.Errorf("http %d: %s", resp.StatusCode, detail))
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return domain.WrapError(domain.ErrProvider, "transcription", "provider timeout", fmt.Errorf("http %d: %s", resp.StatusCode, detail))
	default:
		return domain.WrapError(domain.ErrProvider, "transcription", "unexpected provider response", fmt.Errorf("http %d: %s", resp.StatusCode, detail))
	}
}

var _ port.Transcriber = (*Client)(nil)
