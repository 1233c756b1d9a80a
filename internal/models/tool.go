package models

import (
	"path/filepath"
	"strings"
)

// MIME types produced or declared by the tools.
const (
	MIMEPDF     = "application/pdf"
	MIMEJPEG    = "image/jpeg"
	MIMEPNG     = "image/png"
	MIMEZip     = "application/zip"
	MIMEText    = "text/plain"
	MIMEDocx    = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEXlsx    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMEPptx    = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	MIMEDoc     = "application/msword"
	MIMEUnknown = "application/octet-stream"
)

// ToolCategory groups tools for listing.
type ToolCategory string

const (
	CategoryConvertToPDF   ToolCategory = "Convert to PDF"
	CategoryConvertFromPDF ToolCategory = "Convert from PDF"
	CategoryUtilities      ToolCategory = "PDF Utilities"
	CategorySecurity       ToolCategory = "Security"
)

// ToolDefinition describes one transformation capability. Values are built once
// from the static registry table and never mutated.
type ToolDefinition struct {
	ID          string
	Name        string
	Description string
	Category    ToolCategory
	Path        string
	Pro         bool

	// Accepts lists file extensions (".pdf") and MIME patterns ("image/*").
	Accepts    []string
	OutputType string

	SupportsOrientation bool
	SupportsBorder      bool
	SupportsQuality     bool
	SupportsRotation    bool
}

// AcceptsFile reports whether a file with the given name and MIME type can be fed
// to the tool.
func (t ToolDefinition) AcceptsFile(name, mimeType string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	mimeType = strings.ToLower(mimeType)
	for _, pattern := range t.Accepts {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		switch {
		case strings.HasPrefix(pattern, "."):
			if ext == pattern {
				return true
			}
		case strings.HasSuffix(pattern, "/*"):
			if mimeType != "" && strings.HasPrefix(mimeType, strings.TrimSuffix(pattern, "*")) {
				return true
			}
		case pattern == mimeType:
			return true
		}
	}
	return false
}

// ProducesPDF reports whether the tool declares a PDF output.
func (t ToolDefinition) ProducesPDF() bool {
	return t.OutputType == MIMEPDF
}
