package gcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Lllllllleong/docforge/internal/capability"
)

// PlaceholderText is what OCR returns when no model is configured. It is clearly
// labelled so it can never be mistaken for a real extraction.
const PlaceholderText = "OCR Simulation: [Please set GEMINI_API_KEY, or PROJECT_ID for Vertex AI, to see real extraction].\n\nSample Extracted Content:\nProfessional PDF Management Platform\nCore Objectives & Technical Mandates..."

// PlaceholderExtractor is used when OCR is not configured.
type PlaceholderExtractor struct{}

func (PlaceholderExtractor) Extract(context.Context, []byte, string) (string, error) {
	return PlaceholderText, nil
}

var refusalPhrases = []string{
	"i am unable to",
	"i cannot fulfill",
	"i cannot answer",
	"i cannot provide",
	"as a large language model",
}

// finalizeText trims code fences, substitutes the empty answer and fails fast on a
// model refusal.
func finalizeText(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	lower := strings.ToLower(text)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return "", fmt.Errorf("model response indicates refusal: %q", phrase)
		}
	}
	if text == "" {
		return NoTextExtracted, nil
	}
	return text, nil
}

// ExtractorConfig selects the OCR backend.
type ExtractorConfig struct {
	APIKey    string
	Model     string
	ProjectID string
	Region    string
}

// NewTextExtractor picks Vertex AI when a project is configured, the Gemini API
// when an API key is present, and the placeholder otherwise. The returned close
// function releases the underlying client.
func NewTextExtractor(ctx context.Context, cfg ExtractorConfig) (capability.TextExtractor, func() error, error) {
	noop := func() error { return nil }
	switch {
	case cfg.ProjectID != "":
		c, err := NewVertexClient(ctx, cfg.ProjectID, cfg.Region, cfg.Model)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create vertex client: %w", err)
		}
		slog.Info("OCR backed by Vertex AI.", "projectId", cfg.ProjectID, "region", cfg.Region)
		return c, c.Close, nil
	case cfg.APIKey != "":
		c, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create gemini client: %w", err)
		}
		slog.Info("OCR backed by Gemini API.", "model", c.model)
		return c, noop, nil
	default:
		slog.Warn("No OCR backend configured; OCR results will be placeholders.")
		return PlaceholderExtractor{}, noop, nil
	}
}
