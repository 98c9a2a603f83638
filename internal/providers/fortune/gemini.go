package fortune

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

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"server/internal/domain"
)

// ErrMissingAPIKey indicates the Gemini client was configured without
// credentials.
var ErrMissingAPIKey = errors.New("gemini: api key is required")

// GeminiOptions configures the Gemini generateContent client.
type GeminiOptions struct {
	APIKey         string
	BaseURL        string
	Model          string
	HTTPClient     *http.Client
	Logger         *zerolog.Logger
	RequestTimeout time.Duration
}

// Gemini calls the Google generateContent API.
type Gemini struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     zerolog.Logger
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// NewGemini constructs a client with sane defaults.
func NewGemini(opts GeminiOptions) *Gemini {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gemini-2.0-flash"
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Gemini{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Model returns the configured model identifier.
func (g *Gemini) Model() string {
	return g.model
}

// HasCredentials reports whether the client can perform remote calls.
func (g *Gemini) HasCredentials() bool {
	return g.apiKey != ""
}

func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	if !g.HasCredentials() {
		return "", ErrMissingAPIKey
	}
	payload := geminiRequest{
		Contents: make([]geminiContent, 0, len(req.History)),
	}
	if sys := strings.TrimSpace(req.System); sys != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: sys}}}
	}
	for _, m := range req.History {
		role := "user"
		if m.Role == domain.RoleModel {
			role = "model"
		}
		payload.Contents = append(payload.Contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: m.Text}},
		})
	}
	if len(payload.Contents) == 0 {
		return "", errors.New("gemini: empty conversation")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("gemini: encode request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Goog-Api-Key", g.apiKey)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		if msg := gjson.GetBytes(raw, "error.message").String(); msg != "" {
			return "", fmt.Errorf("gemini: %s (status %d)", msg, resp.StatusCode)
		}
		return "", fmt.Errorf("gemini: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	text := gjson.GetBytes(raw, "candidates.0.content.parts.0.text").String()
	if strings.TrimSpace(text) == "" {
		if reason := gjson.GetBytes(raw, "candidates.0.finishReason").String(); reason != "" && reason != "STOP" {
			return "", fmt.Errorf("%w: finish reason %s", ErrEmptyReply, reason)
		}
		return "", ErrEmptyReply
	}
	g.logger.Debug().
		Str("model", g.model).
		Int("history_len", len(req.History)).
		Msg("gemini reply generated")
	return text, nil
}
