package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/docforge/internal/config"
	"github.com/Lllllllleong/docforge/internal/drive"
	"github.com/Lllllllleong/docforge/internal/models"
)

var (
	driveAPIKey   string
	driveClientID string
	drivePickOut  string
)

var driveCmd = &cobra.Command{
	Use:   "drive",
	Short: "Google Drive integration",
}

var driveConfigureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Store the Google API key and OAuth client ID",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := bufio.NewReader(os.Stdin)
		apiKey, err := promptIfEmpty(reader, driveAPIKey, "Google API key")
		if err != nil {
			return err
		}
		clientID, err := promptIfEmpty(reader, driveClientID, "OAuth client ID")
		if err != nil {
			return err
		}
		creds := config.Credentials{APIKey: apiKey, ClientID: clientID}
		if !creds.Complete() {
			return drive.ErrMissingCredentials
		}

		session, err := application.driveSession()
		if err != nil {
			return err
		}
		if err := session.Reconfigure(creds); err != nil {
			return err
		}
		successColor.Fprintln(os.Stdout, "✓ Google Drive credentials saved.")
		if os.Getenv(config.KeyGoogleAPIKey) != "" || os.Getenv(config.KeyGoogleClientID) != "" {
			warnColor.Fprintln(os.Stderr, "Environment variables take precedence over the saved values.")
		}
		return nil
	},
}

func promptIfEmpty(r *bufio.Reader, current, label string) (string, error) {
	if current != "" {
		return current, nil
	}
	labelColor.Fprintf(os.Stdout, "%s: ", label)
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read %s: %w", label, err)
	}
	return strings.TrimSpace(line), nil
}

var drivePickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Pick a file from Google Drive and download it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := application.driveSession()
		if err != nil {
			return err
		}
		file, err := session.OpenPicker(cmd.Context())
		if err != nil {
			return err
		}
		if file == nil {
			warnColor.Fprintln(os.Stderr, "Nothing picked.")
			return nil
		}
		path := filepath.Join(drivePickOut, filepath.Base(file.Name))
		if err := os.WriteFile(path, file.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		successColor.Fprint(os.Stdout, "✓ ")
		fmt.Fprintf(os.Stdout, "downloaded %s (%s)\n", path, humanSize(len(file.Data)))
		return nil
	},
}

var driveSaveCmd = &cobra.Command{
	Use:   "save <file>",
	Short: "Upload a local file to Google Drive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		session, err := application.driveSession()
		if err != nil {
			return err
		}
		name := filepath.Base(args[0])
		id, err := session.Save(cmd.Context(), name, models.DetectMIME(name, data), data)
		if errors.Is(err, drive.ErrAuthDeclined) {
			warnColor.Fprintln(os.Stderr, "Google Drive access was declined.")
			return nil
		}
		if err != nil {
			return err
		}
		successColor.Fprint(os.Stdout, "✓ ")
		fmt.Fprintf(os.Stdout, "saved %s to Google Drive (id %s)\n", name, id)
		return nil
	},
}

var driveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the Google Drive session state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := application.driveSession()
		if err != nil {
			return err
		}
		snap := session.Snapshot()
		printStatus("configured", snap.Configured)
		printStatus("picker ready", snap.PickerReady)
		printStatus("identity ready", snap.IdentityReady)
		printStatus("authorized", snap.HasToken)
		labelColor.Fprintf(os.Stdout, "%-16s", "state")
		fmt.Fprintln(os.Stdout, snap.State)
		return nil
	},
}

func printStatus(label string, ok bool) {
	labelColor.Fprintf(os.Stdout, "%-16s", label)
	if ok {
		successColor.Fprintln(os.Stdout, "yes")
		return
	}
	warnColor.Fprintln(os.Stdout, "no")
}

func init() {
	driveConfigureCmd.Flags().StringVar(&driveAPIKey, "api-key", "", "Google API key")
	driveConfigureCmd.Flags().StringVar(&driveClientID, "client-id", "", "OAuth 2.0 client ID")
	drivePickCmd.Flags().StringVarP(&drivePickOut, "out", "o", ".", "download directory")
	driveCmd.AddCommand(driveConfigureCmd, drivePickCmd, driveSaveCmd, driveStatusCmd)
	rootCmd.AddCommand(driveCmd)
}
