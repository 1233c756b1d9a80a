package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/docforge/internal/drive"
	"github.com/Lllllllleong/docforge/internal/models"
	"github.com/Lllllllleong/docforge/internal/tools"
	"github.com/Lllllllleong/docforge/internal/workflow"
)

var (
	processTool         string
	processRotate       int
	processBorder       bool
	processQuality      string
	processOrientation  string
	processOutDir       string
	processSaveToDrive  bool
	processFromDrive    bool
	processRotateResult int
	processJobs         int
)

var processCmd = &cobra.Command{
	Use:   "process [files...]",
	Short: "Run a tool over one or more files",
	Long: `Run a tool over local files, or a file picked from Google Drive with --from-drive.
Every file is processed independently; results are written to --out as processed_<name>.`,
	Example: `  docforge process --tool pdf-to-jpg --quality medium deck.pdf
  docforge process --tool rotate-pdf --rotate 90 --border a.pdf b.pdf
  docforge process --tool ocr --from-drive --save-to-drive`,
	RunE: runProcess,
}

func init() {
	f := processCmd.Flags()
	f.StringVarP(&processTool, "tool", "t", "", "tool id or path (see `docforge tools`)")
	f.IntVar(&processRotate, "rotate", 0, "page rotation in degrees (multiple of 90)")
	f.BoolVar(&processBorder, "border", false, "draw a border on every page")
	f.StringVar(&processQuality, "quality", string(models.QualityHigh), "image quality: low, medium or high")
	f.StringVar(&processOrientation, "orientation", string(models.Portrait), "page orientation: portrait or landscape")
	f.StringVarP(&processOutDir, "out", "o", ".", "output directory")
	f.BoolVar(&processSaveToDrive, "save-to-drive", false, "also save every result to Google Drive")
	f.BoolVar(&processFromDrive, "from-drive", false, "pick an input file from Google Drive")
	f.IntVar(&processRotateResult, "rotate-result", 0, "rotate a completed PDF result by 90, 180 or 270 degrees")
	f.IntVarP(&processJobs, "jobs", "j", 4, "number of files processed concurrently")
	processCmd.MarkFlagRequired("tool")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	if processJobs < 1 {
		return fmt.Errorf("--jobs must be at least 1, got %d", processJobs)
	}
	ctx := cmd.Context()
	tool, ok := tools.Lookup(processTool)
	if !ok {
		return fmt.Errorf("unknown tool %q (see `docforge tools`)", processTool)
	}
	apply, err := settingsFromFlags(tool)
	if err != nil {
		return err
	}

	inputs := make([]models.InputFile, 0, len(args)+1)
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		name := filepath.Base(path)
		inputs = append(inputs, models.InputFile{Name: name, MimeType: models.DetectMIME(name, data), Data: data})
	}

	var session *drive.Session
	if processFromDrive || processSaveToDrive {
		if session, err = application.driveSession(); err != nil {
			return err
		}
	}
	if processFromDrive {
		picked, err := session.OpenPicker(ctx)
		if err != nil {
			return err
		}
		if picked == nil {
			warnColor.Fprintln(os.Stderr, "No file picked from Google Drive.")
		} else {
			inputs = append(inputs, *picked)
		}
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no input files given")
	}
	if err := os.MkdirAll(processOutDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	proc, err := application.processor(ctx)
	if err != nil {
		return err
	}
	recorder := application.historyRecorder(ctx)

	prog := newProgress(os.Stderr)
	var (
		mu      sync.Mutex
		results = make([]*models.ProcessedResult, len(inputs))
		failed  int
	)
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(processJobs)
	for i, in := range inputs {
		eg.Go(func() error {
			wf := workflow.New(tool, workflow.Options{
				Processor: proc,
				Recorder:  recorder,
				Observer:  prog.observer(in.Name),
			})
			res, err := runOne(gctx, wf, in, apply)
			if err != nil {
				slog.Error("File failed.", "file", in.Name, "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			results[i] = res
			return nil
		})
	}
	eg.Wait()
	prog.Stop()

	for i, res := range results {
		if res == nil {
			warnColor.Fprintf(os.Stderr, "✗ %s failed\n", inputs[i].Name)
			continue
		}
		if err := report(ctx, session, res); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(inputs))
	}
	return nil
}

func runOne(ctx context.Context, wf *workflow.Workflow, in models.InputFile, apply func(models.OutputSettings) models.OutputSettings) (*models.ProcessedResult, error) {
	if err := wf.SelectFile(in); err != nil {
		return nil, err
	}
	if err := wf.UpdateSettings(apply); err != nil {
		return nil, err
	}
	res, err := wf.Run(ctx)
	if err != nil {
		return nil, err
	}
	if processRotateResult != 0 {
		if res, err = wf.RotateResult(ctx, processRotateResult); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// settingsFromFlags validates the flags and returns the settings transition to
// apply after a file is selected. Settings the tool does not support are ignored.
func settingsFromFlags(tool models.ToolDefinition) (func(models.OutputSettings) models.OutputSettings, error) {
	rotation, err := models.RotationFromDegrees(processRotate)
	if err != nil {
		return nil, err
	}
	quality, err := models.ParseQuality(processQuality)
	if err != nil {
		return nil, err
	}
	orientation, err := models.ParseOrientation(processOrientation)
	if err != nil {
		return nil, err
	}
	if rotation != 0 && !tool.SupportsRotation {
		warnColor.Fprintf(os.Stderr, "%s ignores --rotate\n", tool.Name)
	}
	if processBorder && !tool.SupportsBorder {
		warnColor.Fprintf(os.Stderr, "%s ignores --border\n", tool.Name)
	}

	return func(s models.OutputSettings) models.OutputSettings {
		if tool.SupportsRotation {
			for s.Rotation != rotation {
				s = s.AdvanceRotation()
			}
		}
		if tool.SupportsBorder && processBorder != s.AddBorder {
			s = s.ToggleBorder()
		}
		if tool.SupportsOrientation && orientation != s.Orientation {
			s = s.ToggleOrientation()
		}
		if tool.SupportsQuality {
			s = s.WithQuality(quality)
		}
		return s
	}, nil
}

func report(ctx context.Context, session *drive.Session, res *models.ProcessedResult) error {
	path := filepath.Join(processOutDir, res.Name)
	if err := os.WriteFile(path, res.Artifact.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	successColor.Fprint(os.Stdout, "✓ ")
	fmt.Fprintf(os.Stdout, "%s → %s ", res.OriginalName, path)
	faintColor.Fprintf(os.Stdout, "(%s, %s)\n", res.MimeType, humanSize(res.Size))
	if res.HasText {
		labelColor.Fprintln(os.Stdout, "Extracted text:")
		fmt.Fprintln(os.Stdout, res.Text)
	}

	if processSaveToDrive {
		id, err := session.Save(ctx, res.Name, res.MimeType, res.Artifact.Bytes())
		if err != nil {
			if errors.Is(err, drive.ErrAuthDeclined) {
				warnColor.Fprintln(os.Stderr, "Google Drive access was declined; result kept locally.")
				return nil
			}
			return err
		}
		labelColor.Fprintf(os.Stdout, "  saved to Google Drive (id %s)\n", id)
	}
	res.Artifact.Release()
	return nil
}
