package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/docforge/internal/models"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"ocr", OCR},
		{"/ocr-pdf", OCR},
		{"ocr-pdf", OCR},
		{"pdf-to-image", PDFToImage},
		{"/pdf-to-jpg", PDFToImage},
		{"merge-pdf", "merge-pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			tool, ok := Lookup(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.want, tool.ID)
		})
	}
}

func TestLookup_NotFound(t *testing.T) {
	_, ok := Lookup("does-not-exist")
	assert.False(t, ok)

	_, ok = Lookup("  ")
	assert.False(t, ok)
}

func TestRegistry_UniqueIDsAndPaths(t *testing.T) {
	ids := map[string]bool{}
	paths := map[string]bool{}
	for _, tool := range All() {
		assert.False(t, ids[tool.ID], "duplicate id %s", tool.ID)
		assert.False(t, paths[tool.Path], "duplicate path %s", tool.Path)
		ids[tool.ID] = true
		paths[tool.Path] = true
		assert.NotEmpty(t, tool.OutputType, tool.ID)
		assert.NotEmpty(t, tool.Accepts, tool.ID)
	}
}

func TestLookup_ReturnsCopy(t *testing.T) {
	tool, ok := Lookup("merge-pdf")
	require.True(t, ok)
	tool.Accepts[0] = ".exe"

	again, _ := Lookup("merge-pdf")
	assert.Equal(t, ".pdf", again.Accepts[0])
}

func TestQualityOnlyForImageOutput(t *testing.T) {
	for _, tool := range All() {
		if tool.SupportsQuality {
			assert.Equal(t, models.MIMEJPEG, tool.OutputType, tool.ID)
		}
	}
}
