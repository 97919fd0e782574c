// Package ai is the gateway to the hosted generative model that identifies
// and appraises audio equipment.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"audiovault/internal/config"
	"audiovault/internal/middleware"
	"audiovault/internal/models"
	"audiovault/internal/observability"

	"github.com/google/generative-ai-go/genai"
)

const unavailableMessage = "Analysis service unavailable"

// Image is one picture sent to the model.
type Image struct {
	MimeType string
	Data     []byte
}

func (img Image) part() genai.Part {
	format := strings.TrimPrefix(img.MimeType, "image/")
	if format == "" {
		format = "jpeg"
	}
	return genai.ImageData(format, img.Data)
}

// Client runs the analysis operations. It never retries; every call is
// bounded by the configured timeout.
type Client struct {
	gen     Generator
	prompts *Prompts
	timeout time.Duration
	closer  func() error
}

// NewClient wires a Client around an arbitrary Generator.
func NewClient(gen Generator, prompts *Prompts, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{gen: gen, prompts: prompts, timeout: timeout}
}

// NewFromConfig builds a Gemini-backed Client. Without an API key the client
// still works but every call fails with an upstream error.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Client, error) {
	prompts, err := LoadPrompts()
	if err != nil {
		return nil, err
	}

	gemini, err := NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if errors.Is(err, ErrNotConfigured) {
		middleware.Logger.Warn("GEMINI_API_KEY not set, AI analysis disabled")
		return NewClient(unconfigured{}, prompts, cfg.AITimeout), nil
	}
	if err != nil {
		return nil, err
	}

	c := NewClient(gemini, prompts, cfg.AITimeout)
	c.closer = gemini.Close
	return c, nil
}

// Close releases the underlying API client, if any.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

// Identify proposes make/model candidates for the device in img.
func (c *Client) Identify(ctx context.Context, img Image) ([]models.Candidate, error) {
	raw, err := c.call(ctx, "identify", c.prompts.Identify, img.part())
	if err != nil {
		return nil, err
	}

	var candidates []models.Candidate
	var wrapped struct {
		Candidates *[]models.Candidate `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		if wrapped.Candidates == nil {
			return nil, models.NewUpstreamError(unavailableMessage, errors.New("decode candidates: missing candidates key"))
		}
		candidates = *wrapped.Candidates
	} else if err2 := json.Unmarshal(raw, &candidates); err2 != nil {
		return nil, models.NewUpstreamError(unavailableMessage, fmt.Errorf("decode candidates: %w", err))
	}
	if candidates == nil {
		candidates = []models.Candidate{}
	}
	return candidates, nil
}

// AnalyzeItem appraises a catalogued item from its fields and photos.
func (c *Client) AnalyzeItem(ctx context.Context, item *models.AudioItem, images []Image) (*models.ItemAnalysis, error) {
	prompt, err := render(c.prompts.AnalyzeItem, item)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	parts := []genai.Part{genai.Text(prompt)}
	for _, img := range images {
		parts = append(parts, img.part())
	}

	raw, err := c.call(ctx, "analyze_item", "", parts...)
	if err != nil {
		return nil, err
	}

	var analysis models.ItemAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return nil, models.NewUpstreamError(unavailableMessage, fmt.Errorf("decode item analysis: %w", err))
	}
	if analysis.Issues == nil {
		analysis.Issues = []string{}
	}
	if analysis.Tips == nil {
		analysis.Tips = []string{}
	}
	analysis.AnalyzedAt = time.Now().UTC()
	return &analysis, nil
}

// AnalyzeWildFind identifies and values equipment spotted in the wild. The
// returned document is stored as-is.
func (c *Client) AnalyzeWildFind(ctx context.Context, img Image, notes string) (json.RawMessage, error) {
	prompt, err := render(c.prompts.WildFind, struct{ Notes string }{strings.TrimSpace(notes)})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return c.callObject(ctx, "wild_find", genai.Text(prompt), img.part())
}

// AnalyzeListing evaluates a sale listing from its text, an optional
// screenshot and the asking price.
func (c *Client) AnalyzeListing(ctx context.Context, listingText string, img *Image, askingPrice *float64) (json.RawMessage, error) {
	data := struct {
		ListingText string
		AskingPrice string
	}{ListingText: strings.TrimSpace(listingText)}
	if askingPrice != nil {
		data.AskingPrice = strconv.FormatFloat(*askingPrice, 'f', 2, 64)
	}

	prompt, err := render(c.prompts.Listing, data)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	parts := []genai.Part{genai.Text(prompt)}
	if img != nil {
		parts = append(parts, img.part())
	}
	return c.callObject(ctx, "listing", parts...)
}

func (c *Client) callObject(ctx context.Context, op string, parts ...genai.Part) (json.RawMessage, error) {
	raw, err := c.call(ctx, op, "", parts...)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, models.NewUpstreamError(unavailableMessage, fmt.Errorf("decode %s: %w", op, err))
	}
	return raw, nil
}

// call sends the prompt and returns the cleaned JSON payload. A non-empty
// text is prepended as the first part.
func (c *Client) call(ctx context.Context, op, text string, parts ...genai.Part) (out json.RawMessage, err error) {
	start := time.Now()
	ctx, span := observability.StartClientSpan(ctx, "gemini", op)
	defer func() {
		observability.ObserveAI(op, start, err)
		observability.EndSpan(span, err)
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if text != "" {
		parts = append([]genai.Part{genai.Text(text)}, parts...)
	}

	resp, err := c.gen.Generate(ctx, c.prompts.System, parts...)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "AI request failed", "operation", op, "error", err)
		return nil, models.NewUpstreamError(unavailableMessage, err)
	}

	cleaned := StripCodeFences(resp)
	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(cleaned)); err != nil {
		middleware.Logger.WarnContext(ctx, "AI response was not JSON", "operation", op)
		return nil, models.NewUpstreamError(unavailableMessage, fmt.Errorf("invalid JSON from model: %w", err))
	}
	return compact.Bytes(), nil
}

// StripCodeFences removes a surrounding ```json ... ``` block, if present.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
