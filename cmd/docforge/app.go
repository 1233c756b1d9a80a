package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Lllllllleong/docforge/internal/archive"
	"github.com/Lllllllleong/docforge/internal/config"
	"github.com/Lllllllleong/docforge/internal/drive"
	"github.com/Lllllllleong/docforge/internal/gcp"
	"github.com/Lllllllleong/docforge/internal/history"
	"github.com/Lllllllleong/docforge/internal/pdf"
	"github.com/Lllllllleong/docforge/internal/services"
)

const consentTimeout = 5 * time.Minute

// app lazily builds the long-lived clients a command needs.
type app struct {
	cfg *config.Config

	procOnce sync.Once
	proc     *services.Processor
	procErr  error

	recOnce  sync.Once
	recorder history.Recorder

	sessOnce sync.Once
	session  *drive.Session
	sessErr  error

	mu      sync.Mutex
	closers []func() error
}

func (a *app) onClose(fn func() error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closers = append(a.closers, fn)
}

func (a *app) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("Failed to close client.", "error", err)
		}
	}
	a.closers = nil
}

func (a *app) processor(ctx context.Context) (*services.Processor, error) {
	a.procOnce.Do(func() {
		extractor, closeFn, err := gcp.NewTextExtractor(ctx, gcp.ExtractorConfig{
			APIKey:    a.cfg.GeminiAPIKey,
			Model:     a.cfg.GeminiModel,
			ProjectID: a.cfg.ProjectID,
			Region:    a.cfg.VertexAIRegion,
		})
		if err != nil {
			a.procErr = err
			return
		}
		a.onClose(closeFn)

		engine := pdf.NewEngine()
		a.proc, a.procErr = services.NewProcessor(services.ProcessorDeps{
			Extractor: extractor,
			Documents: engine,
			Renderer:  pdf.NewRenderer(engine),
			Archiver:  archive.NewZip(),
			Logger:    slog.Default(),
		})
	})
	return a.proc, a.procErr
}

// historyRecorder writes to Firestore when a project is configured and to the log
// otherwise.
func (a *app) historyRecorder(ctx context.Context) history.Recorder {
	a.recOnce.Do(func() {
		a.recorder = history.LogRecorder{Logger: slog.Default()}
		if a.cfg.ProjectID == "" {
			return
		}
		rec, err := history.OpenFirestore(ctx, a.cfg.ProjectID, a.cfg.FirestoreCollection)
		if err != nil {
			slog.Warn("Job history falls back to the log.", "error", err)
			return
		}
		a.onClose(rec.Close)
		a.recorder = rec
	})
	return a.recorder
}

// credentialStore holds developer credentials and Drive refresh tokens.
func (a *app) credentialStore() *config.FileStore {
	return config.NewFileStore(filepath.Join(a.cfg.ConfigDir, "credentials.yaml"))
}

func (a *app) driveSession() (*drive.Session, error) {
	a.sessOnce.Do(func() {
		store := a.credentialStore()
		driveAPI := drive.ServiceFactory{Endpoint: a.cfg.DriveEndpoint, Timeout: a.cfg.DriveHTTPTimeout}
		a.session, a.sessErr = drive.NewSession(drive.Options{
			Credentials: config.NewCredentialResolver(store),
			Loader:      drive.NewHTTPLoader(nil, "", ""),
			Identity: &drive.LoopbackIdentity{
				ClientSecret:   a.cfg.GoogleClientSecret,
				ConsentTimeout: consentTimeout,
				Store:          store,
				Logger:         slog.Default(),
			},
			Picker: drive.NewAPIPicker(driveAPI, drive.TerminalChooser{In: os.Stdin, Out: os.Stdout}),
			Store:  drive.NewAPIStore(driveAPI),
			Logger: slog.Default(),
		})
		if a.sessErr != nil {
			a.sessErr = fmt.Errorf("failed to create drive session: %w", a.sessErr)
		}
	})
	return a.session, a.sessErr
}
