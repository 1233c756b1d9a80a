package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/docforge/internal/models"
	"github.com/Lllllllleong/docforge/internal/services"
)

var (
	rotateDegrees int
	rotateOut     string
)

var rotateCmd = &cobra.Command{
	Use:   "rotate <file.pdf>",
	Short: "Add a rotation to every page of a PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		proc, err := application.processor(cmd.Context())
		if err != nil {
			return err
		}
		rotated, err := proc.RotateInPlace(cmd.Context(), data, rotateDegrees)
		if err != nil {
			return err
		}

		out := rotateOut
		if out == "" {
			name := filepath.Base(args[0])
			out = filepath.Join(filepath.Dir(args[0]), services.DeriveResultName(name, models.MIMEPDF, models.MIMEPDF))
		}
		if err := os.WriteFile(out, rotated, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		successColor.Fprint(os.Stdout, "✓ ")
		fmt.Fprintf(os.Stdout, "rotated %d° → %s (%s)\n", rotateDegrees, out, humanSize(len(rotated)))
		return nil
	},
}

func init() {
	rotateCmd.Flags().IntVarP(&rotateDegrees, "degrees", "d", 90, "degrees to add: 90, 180 or 270")
	rotateCmd.Flags().StringVarP(&rotateOut, "out", "o", "", "output file (default processed_<name>.pdf next to the input)")
	rootCmd.AddCommand(rotateCmd)
}
