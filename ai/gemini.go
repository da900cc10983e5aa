package ai

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GeminiBackend talks to the Gemini API with a single key.
type GeminiBackend struct {
	client *genai.Client
}

// NewGeminiBackend matches BackendFactory and is used both for the
// server-wide default key and for per-request caller keys.
func NewGeminiBackend(ctx context.Context, apiKey string) (Backend, error) {
	if apiKey == "" {
		return nil, errors.New("empty API key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &GeminiBackend{client: client}, nil
}

func (g *GeminiBackend) GenerateContent(ctx context.Context, model, systemInstruction, prompt string) (string, error) {
	var cfg *genai.GenerateContentConfig
	if systemInstruction != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", model, err)
	}
	// A blocked or empty candidate list yields "" and is reported as a silent answer.
	return resp.Text(), nil
}
