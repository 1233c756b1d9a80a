package models

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
)

// InputFile is a document selected for processing, either from disk or from the
// remote picker.
type InputFile struct {
	Name     string
	MimeType string
	Data     []byte
}

// IsPDF reports whether the file is a structured document.
func (f InputFile) IsPDF() bool {
	return f.MimeType == MIMEPDF
}

var extensionTypes = map[string]string{
	".pdf":  MIMEPDF,
	".jpg":  MIMEJPEG,
	".jpeg": MIMEJPEG,
	".png":  MIMEPNG,
	".doc":  MIMEDoc,
	".docx": MIMEDocx,
	".xlsx": MIMEXlsx,
	".pptx": MIMEPptx,
	".txt":  MIMEText,
	".zip":  MIMEZip,
}

// DetectMIME resolves a MIME type from the file extension, then the content.
func DetectMIME(name string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return stripParams(t)
	}
	if len(data) > 0 {
		return stripParams(http.DetectContentType(data))
	}
	return MIMEUnknown
}

func stripParams(t string) string {
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}

// Artifact is a revocable reference to result bytes. Once released the bytes are
// dropped and can no longer be read.
type Artifact struct {
	mu       sync.Mutex
	data     []byte
	released bool
}

func NewArtifact(data []byte) *Artifact {
	return &Artifact{data: data}
}

// Bytes returns the artifact content, or nil after Release.
func (a *Artifact) Bytes() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.data
}

func (a *Artifact) Size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.data)
}

func (a *Artifact) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.data = nil
	a.released = true
}

func (a *Artifact) Released() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.released
}

// ProcessedResult is created once per successful run.
type ProcessedResult struct {
	Name         string
	OriginalName string
	Size         int
	MimeType     string
	Artifact     *Artifact

	// Text holds extracted text for display, independent of the artifact.
	Text    string
	HasText bool
}
