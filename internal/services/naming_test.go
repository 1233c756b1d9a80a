package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Lllllllleong/docforge/internal/models"
)

func TestDeriveResultName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		produced string
		declared string
		want     string
	}{
		{"actual type wins over declared", "report.docx", models.MIMEJPEG, models.MIMEPDF, "processed_report.jpg"},
		{"archive", "deck.pdf", models.MIMEZip, models.MIMEJPEG, "processed_deck.zip"},
		{"pdf", "scan.final.pdf", models.MIMEPDF, models.MIMEPDF, "processed_scan.final.pdf"},
		{"declared spreadsheet", "table.pdf", models.MIMEXlsx, models.MIMEXlsx, "processed_table.xlsx"},
		{"declared word", "cv.pdf", "", models.MIMEDocx, "processed_cv.docx"},
		{"declared text", "scan.png", models.MIMEText, models.MIMEText, "processed_scan.txt"},
		{"unknown binary", "blob", "application/x-thing", "application/x-other", "processed_blob.bin"},
		{"no extension", "README", models.MIMEPDF, models.MIMEPDF, "processed_README.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveResultName(tt.input, tt.produced, tt.declared))
		})
	}
}
