// Package tools holds the static table of transformation tools.
package tools

import (
	"strings"

	"github.com/Lllllllleong/docforge/internal/models"
)

// Tool ids with dedicated processing strategies.
const (
	OCR        = "ocr"
	PDFToImage = "pdf-to-image"
)

var registry = []models.ToolDefinition{
	{
		ID: "merge-pdf", Name: "Merge PDF", Path: "/merge-pdf",
		Description: "Combine PDFs in the order you want.",
		Category:    models.CategoryUtilities,
		Accepts:     []string{".pdf"}, OutputType: models.MIMEPDF,
		SupportsOrientation: true, SupportsBorder: true, SupportsRotation: true,
	},
	{
		ID: "split-pdf", Name: "Split PDF", Path: "/split-pdf",
		Description: "Separate one page or a whole set for easy conversion.",
		Category:    models.CategoryUtilities,
		Accepts:     []string{".pdf"}, OutputType: models.MIMEPDF,
		SupportsRotation: true,
	},
	{
		ID: "compress-pdf", Name: "Compress PDF", Path: "/compress-pdf",
		Description: "Reduce file size while optimizing for maximal PDF quality.",
		Category:    models.CategoryUtilities,
		Accepts:     []string{".pdf"}, OutputType: models.MIMEPDF,
		SupportsRotation: true,
	},
	{
		ID: "rotate-pdf", Name: "Rotate PDF", Path: "/rotate-pdf",
		Description: "Rotate every page of a PDF.",
		Category:    models.CategoryUtilities,
		Accepts:     []string{".pdf"}, OutputType: models.MIMEPDF,
		SupportsRotation: true,
	},
	{
		ID: "image-to-pdf", Name: "JPG to PDF", Path: "/jpg-to-pdf",
		Description: "Convert JPG and PNG images to PDF.",
		Category:    models.CategoryConvertToPDF,
		Accepts:     []string{".jpg", ".jpeg", ".png", "image/*"}, OutputType: models.MIMEPDF,
		SupportsOrientation: true, SupportsBorder: true, SupportsRotation: true,
	},
	{
		ID: "word-to-pdf", Name: "Word to PDF", Path: "/word-to-pdf",
		Description: "Make DOC and DOCX files easy to read by converting them to PDF.",
		Category:    models.CategoryConvertToPDF,
		Accepts:     []string{".doc", ".docx"}, OutputType: models.MIMEPDF,
		SupportsOrientation: true, SupportsRotation: true,
	},
	{
		ID: PDFToImage, Name: "PDF to JPG", Path: "/pdf-to-jpg",
		Description: "Convert each PDF page into a JPG.",
		Category:    models.CategoryConvertFromPDF,
		Accepts:     []string{".pdf"}, OutputType: models.MIMEJPEG,
		SupportsQuality: true, SupportsRotation: true,
	},
	{
		ID: "pdf-to-word", Name: "PDF to Word", Path: "/pdf-to-word",
		Description: "Convert PDF files into editable DOCX documents.",
		Category:    models.CategoryConvertFromPDF,
		Accepts:     []string{".pdf"}, OutputType: models.MIMEDocx,
	},
	{
		ID: "pdf-to-excel", Name: "PDF to Excel", Path: "/pdf-to-excel",
		Description: "Pull data straight from PDFs into Excel spreadsheets.",
		Category:    models.CategoryConvertFromPDF,
		Accepts:     []string{".pdf"}, OutputType: models.MIMEXlsx,
	},
	{
		ID: OCR, Name: "OCR PDF", Path: "/ocr-pdf", Pro: true,
		Description: "Extract text from scanned documents and images.",
		Category:    models.CategoryConvertFromPDF,
		Accepts:     []string{".pdf", ".jpg", ".jpeg", ".png"}, OutputType: models.MIMEText,
	},
	{
		ID: "protect-pdf", Name: "Protect PDF", Path: "/protect-pdf",
		Description: "Prepare a PDF for protected distribution.",
		Category:    models.CategorySecurity,
		Accepts:     []string{".pdf"}, OutputType: models.MIMEPDF,
		SupportsRotation: true,
	},
}

// Lookup finds a tool by id or by route path, with or without the leading slash.
func Lookup(pathOrID string) (models.ToolDefinition, bool) {
	key := strings.TrimSpace(pathOrID)
	if key == "" {
		return models.ToolDefinition{}, false
	}
	for _, t := range registry {
		if t.ID == key || t.Path == key || t.Path == "/"+key {
			return clone(t), true
		}
	}
	return models.ToolDefinition{}, false
}

// All returns the tools in registry order.
func All() []models.ToolDefinition {
	out := make([]models.ToolDefinition, len(registry))
	for i, t := range registry {
		out[i] = clone(t)
	}
	return out
}

func clone(t models.ToolDefinition) models.ToolDefinition {
	t.Accepts = append([]string(nil), t.Accepts...)
	return t
}
