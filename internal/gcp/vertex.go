package gcp

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

// --- OCR Model Prompts ---
const OCRSystemPrompt = "You are an optical character recognition engine. Your task is to read scanned documents and images and return the text they contain. Accuracy and preservation of the original structure are of utmost importance."
const OCRUserPrompt = "Perform Optical Character Recognition (OCR) on this document. Extract all readable text accurately, maintaining the structure and formatting where possible. Return only the extracted text."

// NoTextExtracted is returned in place of an empty model answer.
const NoTextExtracted = "No text could be extracted."

// VertexClient holds the pre-configured OCR model backed by Vertex AI.
type VertexClient struct {
	OCRModel   *genai.GenerativeModel
	baseClient *genai.Client
}

// NewVertexClient creates a new client holding the OCR model.
func NewVertexClient(ctx context.Context, projectID, region, modelName string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	ocrModel := baseClient.GenerativeModel(modelName)
	ocrModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(OCRSystemPrompt)},
	}
	ocrModel.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0.0),
	}

	return &VertexClient{
		OCRModel:   ocrModel,
		baseClient: baseClient,
	}, nil
}

// Extract implements capability.TextExtractor.
func (c *VertexClient) Extract(ctx context.Context, data []byte, mimeType string) (string, error) {
	resp, err := c.OCRModel.GenerateContent(ctx, genai.Blob{MIMEType: mimeType, Data: data}, genai.Text(OCRUserPrompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content from vertex ai: %w", err)
	}
	return finalizeText(extractVertexText(resp))
}

// extractVertexText concatenates every text part of the first candidate.
func extractVertexText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String()
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
