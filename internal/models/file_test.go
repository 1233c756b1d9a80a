package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectMIME(t *testing.T) {
	assert.Equal(t, MIMEPDF, DetectMIME("report.PDF", nil))
	assert.Equal(t, MIMEJPEG, DetectMIME("photo.jpeg", nil))
	assert.Equal(t, MIMEDocx, DetectMIME("letter.docx", nil))
	assert.Equal(t, MIMEPDF, DetectMIME("noext", []byte("%PDF-1.7\n")))
	assert.Equal(t, MIMEUnknown, DetectMIME("noext", nil))
}

func TestArtifactRelease(t *testing.T) {
	a := NewArtifact([]byte("hello"))
	assert.Equal(t, 5, a.Size())
	assert.False(t, a.Released())

	a.Release()

	assert.True(t, a.Released())
	assert.Nil(t, a.Bytes())
	assert.Equal(t, 0, a.Size())
}

func TestAcceptsFile(t *testing.T) {
	tool := ToolDefinition{Accepts: []string{".pdf", "image/*"}}

	assert.True(t, tool.AcceptsFile("a.PDF", ""))
	assert.True(t, tool.AcceptsFile("scan", "image/png"))
	assert.False(t, tool.AcceptsFile("notes.txt", MIMEText))
	assert.False(t, tool.AcceptsFile("noext", ""))
}
