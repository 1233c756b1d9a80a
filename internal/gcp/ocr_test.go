package gcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalizeText(t *testing.T) {
	got, err := finalizeText("```text\nHello\nWorld\n```")
	require.NoError(t, err)
	assert.Equal(t, "Hello\nWorld", got)

	got, err = finalizeText("   ")
	require.NoError(t, err)
	assert.Equal(t, NoTextExtracted, got)

	_, err = finalizeText("As a large language model, I cannot read this.")
	assert.Error(t, err)
}

func TestNewTextExtractor_PlaceholderWithoutConfig(t *testing.T) {
	ex, closeFn, err := NewTextExtractor(context.Background(), ExtractorConfig{})
	require.NoError(t, err)
	defer closeFn()

	text, err := ex.Extract(context.Background(), []byte("%PDF"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, PlaceholderText, text)
	assert.Contains(t, text, "OCR Simulation")
}
