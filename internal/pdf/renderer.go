package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	"github.com/gen2brain/go-fitz"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/Lllllllleong/docforge/internal/capability"
	"github.com/Lllllllleong/docforge/internal/models"
)

const pointsPerInch = 72.0

// Renderer implements capability.Renderer with MuPDF (go-fitz). Intrinsic page
// rotations are stripped with pdfcpu before rasterising so callers control the
// final orientation through the rotation passed to RenderPage.
type Renderer struct {
	engine *Engine
}

func NewRenderer(engine *Engine) *Renderer {
	if engine == nil {
		engine = NewEngine()
	}
	return &Renderer{engine: engine}
}

type rasterDocument struct {
	doc       *fitz.Document
	rotations []int
}

func (r *Renderer) Open(data []byte) (capability.RasterDocument, error) {
	doc, err := r.engine.load(data)
	if err != nil {
		return nil, err
	}
	rotations := make([]int, doc.PageCount())
	for i := range rotations {
		rot, err := doc.PageRotation(i)
		if err != nil {
			return nil, err
		}
		rotations[i] = rot
		if rot != 0 {
			if err := doc.SetPageRotation(i, 0); err != nil {
				return nil, err
			}
		}
	}
	upright, err := r.engine.Save(doc)
	if err != nil {
		return nil, err
	}

	fd, err := fitz.NewFromMemory(upright)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF for rendering: %w", err)
	}
	if fd.NumPage() != len(rotations) {
		fd.Close()
		return nil, fmt.Errorf("page count mismatch: renderer sees %d pages, document has %d", fd.NumPage(), len(rotations))
	}
	return &rasterDocument{doc: fd, rotations: rotations}, nil
}

func (d *rasterDocument) PageCount() int {
	return len(d.rotations)
}

func (d *rasterDocument) PageRotation(page int) int {
	if page < 0 || page >= len(d.rotations) {
		return 0
	}
	return d.rotations[page]
}

func (d *rasterDocument) RenderPage(page int, scale float64, rotation int) (image.Image, error) {
	if page < 0 || page >= len(d.rotations) {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", page, len(d.rotations))
	}
	if scale <= 0 {
		return nil, fmt.Errorf("scale must be positive, got %v", scale)
	}
	img, err := d.doc.ImageDPI(page, pointsPerInch*scale)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", page+1, err)
	}
	return Rotate(img, rotation)
}

func (d *rasterDocument) Close() error {
	return d.doc.Close()
}

// Rotate turns img clockwise by a multiple of 90 degrees.
func Rotate(img image.Image, degrees int) (image.Image, error) {
	degrees = normalizeRotation(degrees)
	if degrees%90 != 0 {
		return nil, fmt.Errorf("rotation must be a multiple of 90, got %d", degrees)
	}
	if degrees == 0 {
		return img, nil
	}

	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	// s2d maps source pixel space (origin at b.Min) onto the destination.
	var (
		s2d  f64.Aff3
		dstW = b.Dx()
		dstH = b.Dy()
	)
	switch degrees {
	case 90:
		s2d = f64.Aff3{0, -1, h, 1, 0, 0}
		dstW, dstH = b.Dy(), b.Dx()
	case 180:
		s2d = f64.Aff3{-1, 0, w, 0, -1, h}
	case 270:
		s2d = f64.Aff3{0, 1, 0, -1, 0, w}
		dstW, dstH = b.Dy(), b.Dx()
	}
	// Translate so the source minimum point is treated as the origin.
	s2d[2] -= s2d[0]*float64(b.Min.X) + s2d[1]*float64(b.Min.Y)
	s2d[5] -= s2d[3]*float64(b.Min.X) + s2d[4]*float64(b.Min.Y)

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	xdraw.NearestNeighbor.Transform(dst, s2d, img, b, xdraw.Src, nil)
	return dst, nil
}

// Encode writes img as JPEG or PNG. quality is a 0..1 factor used for JPEG.
func (r *Renderer) Encode(img image.Image, mimeType string, quality float64) ([]byte, error) {
	var buf bytes.Buffer
	switch mimeType {
	case models.MIMEJPEG:
		q := int(math.Round(quality * 100))
		if q < 1 {
			q = 1
		} else if q > 100 {
			q = 100
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
			return nil, fmt.Errorf("failed to encode JPEG: %w", err)
		}
	case models.MIMEPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode PNG: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported raster type %q", mimeType)
	}
	return buf.Bytes(), nil
}
