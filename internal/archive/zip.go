// Package archive bundles multiple output files into a single zip artifact.
package archive

import (
	"bytes"
	"fmt"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/Lllllllleong/docforge/internal/capability"
	"github.com/Lllllllleong/docforge/internal/models"
)

// Zip implements capability.Archiver.
type Zip struct {
	// Modified is stamped on every entry; zero means time.Now at Add.
	Modified time.Time
}

func NewZip() *Zip {
	return &Zip{}
}

func (z *Zip) MIMEType() string {
	return models.MIMEZip
}

func (z *Zip) Create() capability.ArchiveWriter {
	w := &zipWriter{modified: z.Modified}
	w.zw = zip.NewWriter(&w.buf)
	return w
}

type zipWriter struct {
	buf       bytes.Buffer
	zw        *zip.Writer
	modified  time.Time
	finalized bool
}

func (w *zipWriter) Add(name string, data []byte) error {
	if w.finalized {
		return fmt.Errorf("archive already finalized, cannot add %s", name)
	}
	modified := w.modified
	if modified.IsZero() {
		modified = time.Now()
	}
	// JPEG and PNG payloads are stored as is.
	method := zip.Deflate
	if isCompressedImage(name) {
		method = zip.Store
	}
	f, err := w.zw.CreateHeader(&zip.FileHeader{Name: name, Method: method, Modified: modified})
	if err != nil {
		return fmt.Errorf("failed to create archive entry %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write archive entry %s: %w", name, err)
	}
	return nil
}

func (w *zipWriter) Finalize() ([]byte, error) {
	if w.finalized {
		return nil, fmt.Errorf("archive already finalized")
	}
	w.finalized = true
	if err := w.zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return w.buf.Bytes(), nil
}

func isCompressedImage(name string) bool {
	switch models.DetectMIME(name, nil) {
	case models.MIMEJPEG, models.MIMEPNG:
		return true
	}
	return false
}
