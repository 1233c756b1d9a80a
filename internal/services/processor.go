// Package services turns an input file, a tool and output settings into a result
// artifact.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/docforge/internal/capability"
	"github.com/Lllllllleong/docforge/internal/models"
	"github.com/Lllllllleong/docforge/internal/tools"
)

const (
	renderScale       = 2.5
	borderInset       = 10.0
	borderStrokeWidth = 2.0
)

// Output is the all-or-nothing result of one Process call.
type Output struct {
	Data     []byte
	MimeType string
	// Text is set by text extraction and shown independently of Data.
	Text    string
	HasText bool
}

type strategy func(ctx context.Context, in models.InputFile, tool models.ToolDefinition, s models.OutputSettings) (*Output, error)

// Processor dispatches tools to transform strategies.
type Processor struct {
	extractor capability.TextExtractor
	documents capability.DocumentEngine
	renderer  capability.Renderer
	archiver  capability.Archiver
	logger    *slog.Logger

	strategies map[string]strategy
}

// ProcessorDeps bundles the capability providers a Processor is built from.
type ProcessorDeps struct {
	Extractor capability.TextExtractor
	Documents capability.DocumentEngine
	Renderer  capability.Renderer
	Archiver  capability.Archiver
	Logger    *slog.Logger
}

func NewProcessor(deps ProcessorDeps) (*Processor, error) {
	if deps.Extractor == nil || deps.Documents == nil || deps.Renderer == nil || deps.Archiver == nil {
		return nil, fmt.Errorf("NewProcessor: all capability providers must be set")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		extractor: deps.Extractor,
		documents: deps.Documents,
		renderer:  deps.Renderer,
		archiver:  deps.Archiver,
		logger:    logger,
	}
	p.strategies = map[string]strategy{
		tools.OCR:        p.extractText,
		tools.PDFToImage: p.renderImages,
	}
	return p, nil
}

// Process runs the tool over the input. Any failure is a *ProcessingError and no
// partial output is returned.
func (p *Processor) Process(ctx context.Context, in models.InputFile, tool models.ToolDefinition, s models.OutputSettings) (*Output, error) {
	run, name := p.strategyFor(tool, in)
	logCtx := p.logger.With("tool", tool.ID, "file", in.Name, "strategy", name)
	logCtx.Info("Processing file.", "size", len(in.Data))

	out, err := run(ctx, in, tool, s)
	if err != nil {
		logCtx.Error("Processing failed.", "error", err)
		return nil, &ProcessingError{Tool: tool.ID, Cause: err}
	}
	logCtx.Info("Processing complete.", "outputType", out.MimeType, "outputSize", len(out.Data))
	return out, nil
}

func (p *Processor) strategyFor(tool models.ToolDefinition, in models.InputFile) (strategy, string) {
	if run, ok := p.strategies[tool.ID]; ok {
		return run, tool.ID
	}
	if in.IsPDF() {
		return p.applyPDFSettings, "pdf-settings"
	}
	return p.passThrough, "pass-through"
}

func (p *Processor) extractText(ctx context.Context, in models.InputFile, _ models.ToolDefinition, _ models.OutputSettings) (*Output, error) {
	text, err := p.extractor.Extract(ctx, in.Data, in.MimeType)
	if err != nil {
		return nil, fmt.Errorf("text extraction: %w", err)
	}
	return &Output{
		Data:     []byte(text),
		MimeType: models.MIMEText,
		Text:     text,
		HasText:  true,
	}, nil
}

func (p *Processor) renderImages(ctx context.Context, in models.InputFile, _ models.ToolDefinition, s models.OutputSettings) (*Output, error) {
	doc, err := p.renderer.Open(in.Data)
	if err != nil {
		return nil, fmt.Errorf("open for rendering: %w", err)
	}
	defer doc.Close()

	pageCount := doc.PageCount()
	if pageCount == 0 {
		return nil, fmt.Errorf("document has no pages")
	}
	quality := s.ImageQuality.EncoderQuality()

	// Pages are rendered and encoded one at a time, in page order.
	encoded := make([][]byte, pageCount)
	for i := 0; i < pageCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rotation := (doc.PageRotation(i) + int(s.Rotation)) % 360
		img, err := doc.RenderPage(i, renderScale, rotation)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", i+1, err)
		}
		data, err := p.renderer.Encode(img, models.MIMEJPEG, quality)
		if err != nil {
			return nil, fmt.Errorf("encode page %d: %w", i+1, err)
		}
		encoded[i] = data
	}

	if pageCount == 1 {
		return &Output{Data: encoded[0], MimeType: models.MIMEJPEG}, nil
	}
	w := p.archiver.Create()
	for i, data := range encoded {
		if err := w.Add(fmt.Sprintf("page-%d.jpg", i+1), data); err != nil {
			return nil, fmt.Errorf("archive page %d: %w", i+1, err)
		}
	}
	archive, err := w.Finalize()
	if err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return &Output{Data: archive, MimeType: p.archiver.MIMEType()}, nil
}

func (p *Processor) applyPDFSettings(_ context.Context, in models.InputFile, _ models.ToolDefinition, s models.OutputSettings) (*Output, error) {
	doc, err := p.documents.Load(in.Data)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	for i := 0; i < doc.PageCount(); i++ {
		if s.Rotation != 0 {
			if err := doc.SetPageRotation(i, int(s.Rotation)); err != nil {
				return nil, fmt.Errorf("rotate page %d: %w", i+1, err)
			}
		}
		if s.AddBorder {
			w, h, err := doc.PageSize(i)
			if err != nil {
				return nil, fmt.Errorf("page %d size: %w", i+1, err)
			}
			border := capability.Rect{
				X:      borderInset,
				Y:      borderInset,
				Width:  w - 2*borderInset,
				Height: h - 2*borderInset,
			}
			if err := doc.DrawRectangle(i, border, capability.Black, borderStrokeWidth); err != nil {
				return nil, fmt.Errorf("border page %d: %w", i+1, err)
			}
		}
	}
	data, err := p.documents.Save(doc)
	if err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	return &Output{Data: data, MimeType: models.MIMEPDF}, nil
}

// passThrough returns the input unchanged, tagged with the tool's declared type.
func (p *Processor) passThrough(_ context.Context, in models.InputFile, tool models.ToolDefinition, _ models.OutputSettings) (*Output, error) {
	data := append([]byte(nil), in.Data...)
	return &Output{Data: data, MimeType: tool.OutputType}, nil
}

// RotateInPlace adds degrees to every page's rotation of a produced PDF and
// returns the re-serialized document. The caller releases the previous buffer.
func (p *Processor) RotateInPlace(ctx context.Context, pdf []byte, degrees int) ([]byte, error) {
	switch degrees {
	case 90, 180, 270:
	default:
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRotation, degrees)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := p.documents.Load(pdf)
	if err != nil {
		return nil, &ProcessingError{Tool: "rotate", Cause: fmt.Errorf("load document: %w", err)}
	}
	for i := 0; i < doc.PageCount(); i++ {
		current, err := doc.PageRotation(i)
		if err != nil {
			return nil, &ProcessingError{Tool: "rotate", Cause: err}
		}
		if err := doc.SetPageRotation(i, (current+degrees)%360); err != nil {
			return nil, &ProcessingError{Tool: "rotate", Cause: err}
		}
	}
	out, err := p.documents.Save(doc)
	if err != nil {
		return nil, &ProcessingError{Tool: "rotate", Cause: fmt.Errorf("save document: %w", err)}
	}
	p.logger.Info("Rotated document.", "degrees", degrees, "pages", doc.PageCount(), "outputSize", len(out))
	return out, nil
}
