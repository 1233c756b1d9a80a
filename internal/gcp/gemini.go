package gcp

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GeminiClient runs OCR through the Gemini Developer API using an API key.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("missing GEMINI_API_KEY")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	return &GeminiClient{client: c, model: model}, nil
}

// Extract implements capability.TextExtractor.
func (g *GeminiClient) Extract(ctx context.Context, data []byte, mimeType string) (string, error) {
	content := &genai.Content{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
			{Text: OCRUserPrompt},
		},
	}
	res, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{content}, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(OCRSystemPrompt, genai.RoleUser),
	})
	if err != nil {
		return "", fmt.Errorf("failed to process OCR via gemini: %w", err)
	}
	return finalizeText(res.Text())
}
