// Package workflow drives one tool over one selected file, from selection through
// processing to the completed result.
package workflow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Lllllllleong/docforge/internal/history"
	"github.com/Lllllllleong/docforge/internal/models"
	"github.com/Lllllllleong/docforge/internal/services"
)

var (
	ErrBusy            = errors.New("a run is already in progress")
	ErrNoFile          = errors.New("no file selected")
	ErrNotReady        = errors.New("settings can only change while a file is ready")
	ErrUnsupportedFile = errors.New("file type not accepted by this tool")
	ErrNotRotatable    = errors.New("only completed PDF results can be rotated")
)

// Phase of a workflow.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseReady
	PhaseUploading
	PhaseProcessing
	PhaseCompleted
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseReady:
		return "ready"
	case PhaseUploading:
		return "uploading"
	case PhaseProcessing:
		return "processing"
	case PhaseCompleted:
		return "completed"
	case PhaseError:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Processor is the part of services.Processor a workflow needs.
type Processor interface {
	Process(ctx context.Context, in models.InputFile, tool models.ToolDefinition, s models.OutputSettings) (*services.Output, error)
	RotateInPlace(ctx context.Context, pdf []byte, degrees int) ([]byte, error)
}

type Options struct {
	Processor Processor
	// Recorder is optional.
	Recorder history.Recorder
	// Observer is called after every phase change, outside the workflow lock.
	Observer func(Phase)
	Logger   *slog.Logger
}

type Workflow struct {
	tool     models.ToolDefinition
	proc     Processor
	recorder history.Recorder
	observer func(Phase)
	logger   *slog.Logger

	mu       sync.Mutex
	phase    Phase
	file     *models.InputFile
	settings models.OutputSettings
	result   *models.ProcessedResult
	errMsg   string
	running  bool
}

func New(tool models.ToolDefinition, opts Options) *Workflow {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{
		tool:     tool,
		proc:     opts.Processor,
		recorder: opts.Recorder,
		observer: opts.Observer,
		logger:   logger.With("tool", tool.ID),
		settings: models.DefaultSettings(),
	}
}

func (w *Workflow) Tool() models.ToolDefinition { return w.tool }

func (w *Workflow) Phase() Phase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase
}

func (w *Workflow) Settings() models.OutputSettings {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.settings
}

// Result is the completed result, or nil.
func (w *Workflow) Result() *models.ProcessedResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result
}

// ErrorMessage is the human-readable cause of the Error phase.
func (w *Workflow) ErrorMessage() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.errMsg
}

func (w *Workflow) notify(p Phase) {
	if w.observer != nil {
		w.observer(p)
	}
}

// setPhase must be called without the lock held.
func (w *Workflow) setPhase(p Phase) {
	w.mu.Lock()
	w.phase = p
	w.mu.Unlock()
	w.notify(p)
}

// SelectFile makes f the current input. Settings always return to their defaults.
func (w *Workflow) SelectFile(f models.InputFile) error {
	if f.MimeType == "" {
		f.MimeType = models.DetectMIME(f.Name, f.Data)
	}
	if !w.tool.AcceptsFile(f.Name, f.MimeType) {
		return fmt.Errorf("%w: %s (%s)", ErrUnsupportedFile, f.Name, f.MimeType)
	}

	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrBusy
	}
	w.releaseResultLocked()
	w.file = &f
	w.settings = models.DefaultSettings()
	w.errMsg = ""
	w.phase = PhaseReady
	w.mu.Unlock()

	w.logger.Info("File selected.", "file", f.Name, "mimeType", f.MimeType, "size", len(f.Data))
	w.notify(PhaseReady)
	return nil
}

// UpdateSettings applies fn to the current settings.
func (w *Workflow) UpdateSettings(fn func(models.OutputSettings) models.OutputSettings) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.phase != PhaseReady {
		return ErrNotReady
	}
	w.settings = fn(w.settings)
	return nil
}

// Run processes the selected file. It may be retried from the Error phase.
func (w *Workflow) Run(ctx context.Context) (*models.ProcessedResult, error) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil, ErrBusy
	}
	if w.file == nil {
		w.mu.Unlock()
		return nil, ErrNoFile
	}
	if w.phase != PhaseReady && w.phase != PhaseError {
		w.mu.Unlock()
		return nil, fmt.Errorf("cannot run from phase %s", w.phase)
	}
	w.running = true
	w.errMsg = ""
	file := *w.file
	settings := w.settings
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	job := models.Job{
		ID:               uuid.NewString(),
		ToolID:           w.tool.ID,
		OriginalFilename: file.Name,
		CreatedAt:        time.Now(),
	}
	logCtx := w.logger.With("jobId", job.ID, "file", file.Name)

	w.setPhase(PhaseUploading)
	staged, hash := stage(file)
	job.FileHash = hash
	logCtx = logCtx.With("fileHash", hash)
	logCtx.Info("Input staged.", "size", len(staged.Data))
	w.checkPrevious(ctx, logCtx, hash)

	w.setPhase(PhaseProcessing)
	out, err := w.proc.Process(ctx, staged, w.tool, settings)
	if err != nil {
		w.mu.Lock()
		w.errMsg = err.Error()
		w.phase = PhaseError
		w.mu.Unlock()
		w.notify(PhaseError)

		job.Status = models.JobStatusFailed
		job.ErrorDetails = err.Error()
		w.record(ctx, logCtx, job)
		return nil, err
	}

	mimeType := out.MimeType
	if mimeType == "" {
		mimeType = w.tool.OutputType
	}
	result := &models.ProcessedResult{
		Name:         services.DeriveResultName(file.Name, out.MimeType, w.tool.OutputType),
		OriginalName: file.Name,
		Size:         len(out.Data),
		MimeType:     mimeType,
		Artifact:     models.NewArtifact(out.Data),
		Text:         out.Text,
		HasText:      out.HasText,
	}

	w.mu.Lock()
	w.releaseResultLocked()
	w.result = result
	w.phase = PhaseCompleted
	w.mu.Unlock()
	w.notify(PhaseCompleted)

	job.Status = models.JobStatusCompleted
	job.ResultFilename = result.Name
	job.ResultMIMEType = result.MimeType
	job.ResultSize = result.Size
	w.record(ctx, logCtx, job)
	logCtx.Info("Run completed.", "result", result.Name, "resultSize", result.Size)
	return result, nil
}

// stage copies the input and fingerprints it.
func stage(f models.InputFile) (models.InputFile, string) {
	f.Data = append([]byte(nil), f.Data...)
	sum := sha256.Sum256(f.Data)
	return f, hex.EncodeToString(sum[:])
}

// checkPrevious logs when the same input already went through this tool.
func (w *Workflow) checkPrevious(ctx context.Context, logCtx *slog.Logger, hash string) {
	finder, ok := w.recorder.(history.Finder)
	if !ok {
		return
	}
	prev, err := finder.Previous(ctx, w.tool.ID, hash)
	if err != nil {
		logCtx.Warn("Failed to check for a previous run.", "error", err)
		return
	}
	if prev != nil {
		logCtx.Info("Same file was processed before.", "previousJobId", prev.ID, "previousResult", prev.ResultFilename)
	}
}

func (w *Workflow) record(ctx context.Context, logCtx *slog.Logger, job models.Job) {
	if w.recorder == nil {
		return
	}
	job.CompletedAt = time.Now()
	if err := w.recorder.Record(ctx, job); err != nil {
		logCtx.Warn("Failed to record job.", "error", err)
	}
}

// RotateResult rotates every page of a completed PDF result. The previous
// artifact is released once the rotated one replaces it. On failure the result is
// left untouched.
func (w *Workflow) RotateResult(ctx context.Context, degrees int) (*models.ProcessedResult, error) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil, ErrBusy
	}
	prev := w.result
	if w.phase != PhaseCompleted || prev == nil || prev.MimeType != models.MIMEPDF {
		w.mu.Unlock()
		return nil, ErrNotRotatable
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	rotated, err := w.proc.RotateInPlace(ctx, prev.Artifact.Bytes(), degrees)
	if err != nil {
		w.logger.Error("Rotation failed.", "degrees", degrees, "error", err)
		return nil, err
	}

	next := *prev
	next.Artifact = models.NewArtifact(rotated)
	next.Size = len(rotated)

	w.mu.Lock()
	w.result = &next
	w.mu.Unlock()
	prev.Artifact.Release()

	w.logger.Info("Result rotated.", "degrees", degrees, "size", next.Size)
	return &next, nil
}

// Reset releases the result and returns to Idle.
func (w *Workflow) Reset() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrBusy
	}
	w.releaseResultLocked()
	w.file = nil
	w.errMsg = ""
	w.phase = PhaseIdle
	w.mu.Unlock()
	w.notify(PhaseIdle)
	return nil
}

func (w *Workflow) releaseResultLocked() {
	if w.result != nil && w.result.Artifact != nil {
		w.result.Artifact.Release()
	}
	w.result = nil
}
