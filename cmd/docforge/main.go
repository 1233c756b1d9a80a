package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Lllllllleong/docforge/internal/config"
	"github.com/Lllllllleong/docforge/internal/drive"
)

var (
	envFile string
	noColor bool

	application = &app{}
)

var rootCmd = &cobra.Command{
	Use:   "docforge",
	Short: "Convert, rotate, OCR and move PDFs and images, locally or through Google Drive",
	Long: `docforge runs document tools (PDF to JPG, OCR, rotate, border, compress and more)
over local files or files picked from Google Drive, and can save results back to Drive.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		color.NoColor = color.NoColor || noColor
		cfg, err := config.Load(envFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		// --- Set up structured logging ---
		logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
		slog.SetDefault(logger)
		application.cfg = cfg
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	application.Close()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
}

func printError(err error) {
	red := color.New(color.FgRed, color.Bold)
	red.Fprint(os.Stderr, "Error: ")
	fmt.Fprintln(os.Stderr, err)
	switch {
	case errors.Is(err, drive.ErrMissingCredentials):
		fmt.Fprintln(os.Stderr, "Run `docforge drive configure` or set GOOGLE_API_KEY and GOOGLE_CLIENT_ID.")
	case errors.Is(err, drive.ErrServiceInitFailed):
		fmt.Fprintln(os.Stderr, "Google services could not be reached. Check your connection and try again.")
	case errors.Is(err, drive.ErrAuthorizationInFlight):
		fmt.Fprintln(os.Stderr, "Finish or cancel the pending Google consent first.")
	}
}
