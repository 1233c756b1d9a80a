// Package pdf adapts pdfcpu and go-fitz to the structured-document and rendering
// capabilities used by the processing pipeline.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/Lllllllleong/docforge/internal/capability"
)

// Engine implements capability.DocumentEngine on top of pdfcpu.
type Engine struct {
	conf *model.Configuration
}

func NewEngine() *Engine {
	return &Engine{conf: newConfiguration()}
}

func newConfiguration() *model.Configuration {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return cfg
}

// Document is a pdfcpu context opened for editing.
type Document struct {
	ctx *model.Context
}

func (e *Engine) Load(data []byte) (capability.Document, error) {
	return e.load(data)
}

func (e *Engine) load(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty PDF input")
	}
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), e.conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	return &Document{ctx: ctx}, nil
}

func (e *Engine) Save(doc capability.Document) ([]byte, error) {
	d, ok := doc.(*Document)
	if !ok {
		return nil, fmt.Errorf("unsupported document type %T", doc)
	}
	var buf bytes.Buffer
	if err := api.WriteContext(d.ctx, &buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// PageCount returns the number of pages in the document.
func (e *Engine) PageCount(data []byte) (int, error) {
	doc, err := e.load(data)
	if err != nil {
		return 0, err
	}
	return doc.PageCount(), nil
}

func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

func (d *Document) pageDict(page int) (types.Dict, *model.InheritedPageAttrs, error) {
	if page < 0 || page >= d.ctx.PageCount {
		return nil, nil, fmt.Errorf("page index %d out of range [0, %d)", page, d.ctx.PageCount)
	}
	dict, _, inherited, err := d.ctx.PageDict(page+1, false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve page %d: %w", page+1, err)
	}
	if dict == nil || inherited == nil {
		return nil, nil, fmt.Errorf("page %d not found", page+1)
	}
	return dict, inherited, nil
}

func (d *Document) PageRotation(page int) (int, error) {
	_, inherited, err := d.pageDict(page)
	if err != nil {
		return 0, err
	}
	return normalizeRotation(inherited.Rotate), nil
}

func (d *Document) SetPageRotation(page int, degrees int) error {
	if degrees%90 != 0 {
		return fmt.Errorf("rotation must be a multiple of 90, got %d", degrees)
	}
	dict, _, err := d.pageDict(page)
	if err != nil {
		return err
	}
	dict["Rotate"] = types.Integer(normalizeRotation(degrees))
	return nil
}

func (d *Document) PageSize(page int) (float64, float64, error) {
	_, inherited, err := d.pageDict(page)
	if err != nil {
		return 0, 0, err
	}
	box := visibleBox(inherited)
	if box == nil {
		return 0, 0, fmt.Errorf("page %d has no media box", page+1)
	}
	return box.Width(), box.Height(), nil
}

// DrawRectangle strokes r on top of the existing page content. The original
// content is wrapped in its own graphics state so the stroke is unaffected by it.
func (d *Document) DrawRectangle(page int, r capability.Rect, stroke capability.RGB, strokeWidth float64) error {
	dict, inherited, err := d.pageDict(page)
	if err != nil {
		return err
	}
	var originX, originY float64
	if box := visibleBox(inherited); box != nil {
		originX, originY = box.LL.X, box.LL.Y
	}

	pre, err := d.newContentStream([]byte("q\n"))
	if err != nil {
		return err
	}
	ops := fmt.Sprintf("Q\nq\n%.3f %.3f %.3f RG\n%.3f w\n%.3f %.3f %.3f %.3f re\nS\nQ\n",
		stroke.R, stroke.G, stroke.B,
		strokeWidth,
		originX+r.X, originY+r.Y, r.Width, r.Height)
	post, err := d.newContentStream([]byte(ops))
	if err != nil {
		return err
	}

	existing, err := d.contentRefs(dict)
	if err != nil {
		return fmt.Errorf("page %d: %w", page+1, err)
	}
	contents := make(types.Array, 0, len(existing)+2)
	contents = append(contents, *pre)
	contents = append(contents, existing...)
	contents = append(contents, *post)
	dict["Contents"] = contents
	return nil
}

func (d *Document) newContentStream(buf []byte) (*types.IndirectRef, error) {
	sd, err := d.ctx.XRefTable.NewStreamDictForBuf(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create content stream: %w", err)
	}
	if err := sd.Encode(); err != nil {
		return nil, fmt.Errorf("failed to encode content stream: %w", err)
	}
	ir, err := d.ctx.XRefTable.IndRefForNewObject(*sd)
	if err != nil {
		return nil, fmt.Errorf("failed to register content stream: %w", err)
	}
	return ir, nil
}

// contentRefs flattens the page's Contents entry into a list of stream references.
func (d *Document) contentRefs(dict types.Dict) (types.Array, error) {
	obj, found := dict.Find("Contents")
	if !found || obj == nil {
		return nil, nil
	}
	switch c := obj.(type) {
	case types.Array:
		return append(types.Array(nil), c...), nil
	case types.IndirectRef:
		resolved, err := d.ctx.Dereference(c)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve page contents: %w", err)
		}
		if arr, ok := resolved.(types.Array); ok {
			return append(types.Array(nil), arr...), nil
		}
		return types.Array{c}, nil
	default:
		return nil, fmt.Errorf("unexpected page contents type %T", obj)
	}
}

func visibleBox(attrs *model.InheritedPageAttrs) *types.Rectangle {
	if attrs.CropBox != nil {
		return attrs.CropBox
	}
	return attrs.MediaBox
}

func normalizeRotation(deg int) int {
	return ((deg % 360) + 360) % 360
}
