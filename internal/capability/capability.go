// Package capability declares the narrow interfaces through which the processing
// pipeline consumes its opaque providers: text extraction, structured documents,
// page rendering and archives.
package capability

import (
	"context"
	"image"
)

// TextExtractor turns a document or image into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Rect is a region in page units, anchored at its lower-left corner.
type Rect struct {
	X, Y, Width, Height float64
}

// RGB colour with components in [0, 1].
type RGB struct {
	R, G, B float64
}

var Black = RGB{}

// Document is a loaded structured document. Page indexes are zero based.
type Document interface {
	PageCount() int
	PageRotation(page int) (int, error)
	SetPageRotation(page int, degrees int) error
	PageSize(page int) (width, height float64, err error)
	DrawRectangle(page int, r Rect, stroke RGB, strokeWidth float64) error
}

// DocumentEngine loads and re-serializes structured documents.
type DocumentEngine interface {
	Load(data []byte) (Document, error)
	Save(doc Document) ([]byte, error)
}

// RasterDocument is a document opened for rendering.
type RasterDocument interface {
	PageCount() int
	// PageRotation is the intrinsic rotation the page carries.
	PageRotation(page int) int
	// RenderPage rasterises the page at scale (1.0 = 72 dpi) with the given absolute
	// clockwise rotation in degrees.
	RenderPage(page int, scale float64, rotation int) (image.Image, error)
	Close() error
}

// Renderer opens documents for rasterisation and encodes raster surfaces.
type Renderer interface {
	Open(data []byte) (RasterDocument, error)
	Encode(img image.Image, mimeType string, quality float64) ([]byte, error)
}

// ArchiveWriter accumulates entries until Finalize.
type ArchiveWriter interface {
	Add(name string, data []byte) error
	Finalize() ([]byte, error)
}

// Archiver creates archive writers.
type Archiver interface {
	Create() ArchiveWriter
	MIMEType() string
}
