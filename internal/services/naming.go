package services

import (
	"strings"

	"github.com/Lllllllleong/docforge/internal/models"
)

const resultPrefix = "processed_"

// producedExtensions are recognised from the bytes a strategy actually returned.
var producedExtensions = map[string]string{
	models.MIMEZip:  ".zip",
	models.MIMEJPEG: ".jpg",
	models.MIMEPDF:  ".pdf",
}

var declaredExtensions = map[string]string{
	models.MIMEPDF:  ".pdf",
	models.MIMEJPEG: ".jpg",
	models.MIMEXlsx: ".xlsx",
	models.MIMEDocx: ".docx",
	models.MIMEText: ".txt",
	models.MIMEZip:  ".zip",
}

// ExtensionFor maps a declared output type to a file extension, ".bin" when unknown.
func ExtensionFor(mimeType string) string {
	if ext, ok := declaredExtensions[mimeType]; ok {
		return ext
	}
	return ".bin"
}

// DeriveResultName names a result after its input. The extension follows the
// produced MIME type and only falls back to the declared one when the produced
// type is not recognised.
func DeriveResultName(inputName, producedMIME, declaredMIME string) string {
	base := inputName
	if i := strings.LastIndex(inputName, "."); i >= 0 {
		base = inputName[:i]
	}
	ext, ok := producedExtensions[producedMIME]
	if !ok {
		ext = ExtensionFor(declaredMIME)
	}
	return resultPrefix + base + ext
}
