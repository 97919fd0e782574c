package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ErrNotConfigured is returned by every call when no API key is set.
var ErrNotConfigured = errors.New("GEMINI_API_KEY is not configured")

// Generator sends one multimodal prompt and returns the model's text.
type Generator interface {
	Generate(ctx context.Context, system string, parts ...genai.Part) (string, error)
}

// GeminiGenerator is a Generator backed by the hosted Gemini API.
type GeminiGenerator struct {
	client    *genai.Client
	modelName string
}

// NewGeminiGenerator creates the API client. It does not contact the API.
func NewGeminiGenerator(ctx context.Context, apiKey, modelName string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiGenerator{client: client, modelName: modelName}, nil
}

// Generate asks for a JSON response and concatenates the text parts of the first candidate.
func (g *GeminiGenerator) Generate(ctx context.Context, system string, parts ...genai.Part) (string, error) {
	model := g.client.GenerativeModel(g.modelName)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}

	temp := float32(0.2)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini returned no candidates")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	if text.Len() == 0 {
		return "", errors.New("gemini returned an empty response")
	}
	return text.String(), nil
}

// Close releases the API client.
func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

type unconfigured struct{}

func (unconfigured) Generate(context.Context, string, ...genai.Part) (string, error) {
	return "", ErrNotConfigured
}
