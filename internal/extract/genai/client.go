// Package genai wraps the Gemini REST API for the two model-backed steps of
// the pipeline: OCR on scanned documents and schema-constrained profile
// extraction.
package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"talent-match/internal/config"
	pkgerrors "talent-match/pkg/errors"
	"talent-match/pkg/retry"
)

const generateAttempts = 3

type Client struct {
	apiKey        string
	endpoint      string
	model         string
	degradedModel string
	http          *http.Client
	log           zerolog.Logger
}

func NewClient(cfg config.GenAIConfig, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiKey:        cfg.APIKey,
		endpoint:      strings.TrimRight(cfg.Endpoint, "/"),
		model:         cfg.Model,
		degradedModel: cfg.DegradedModel,
		http:          &http.Client{Timeout: timeout},
		log:           log,
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate sends a text prompt to the given model and returns the raw
// candidate text. Transient faults (network, 429, 5xx) are retried with
// backoff before the error surfaces.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	req := generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{Temperature: 0.1, MaxOutputTokens: 8192},
	}
	return c.generate(ctx, model, req)
}

// Model returns the primary extraction model name.
func (c *Client) Model() string { return c.model }

// OCR asks the vision model to transcribe the document bytes. The degraded
// flag switches to the smaller model used for the single fallback retry.
func (c *Client) OCR(ctx context.Context, data []byte, mimeType string, degraded bool) (string, error) {
	model := c.model
	if degraded && c.degradedModel != "" {
		model = c.degradedModel
	}

	req := generateRequest{
		Contents: []content{{Parts: []part{
			{Text: ocrPrompt},
			{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}},
		}}},
		GenerationConfig: generationConfig{Temperature: 0.1, MaxOutputTokens: 8192},
	}
	return c.generate(ctx, model, req)
}

const ocrPrompt = `Extract ALL text content from this document. Return ONLY the raw extracted text without any additional comments, formatting, or explanations. Include personal information, education history, work experience, skills, certifications and projects exactly as they appear.`

func (c *Client) generate(ctx context.Context, model string, reqBody generateRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.endpoint, model, c.apiKey)

	var text string
	err = retry.Do(ctx, generateAttempts, 500*time.Millisecond, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return pkgerrors.NewRetryableError(err, "genai request")
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return pkgerrors.NewRetryableError(err, "genai response read")
		}

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("genai status %d: %s", resp.StatusCode, truncate(string(body), 512))
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return pkgerrors.NewRetryableError(err, "genai server fault")
			}
			return err
		}

		var parsed generateResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return fmt.Errorf("parse genai response: %w", err)
		}
		if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
			return fmt.Errorf("genai response has no candidates")
		}
		text = parsed.Candidates[0].Content.Parts[0].Text
		return nil
	})
	if err != nil {
		c.log.Warn().Err(err).Str("model", model).Msg("genai call failed")
		return "", err
	}
	return text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// cleanJSONResponse strips markdown fences and any prose around the first
// top-level JSON object the model returned.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end > start {
		content = content[start : end+1]
	}
	return strings.TrimSpace(content)
}
