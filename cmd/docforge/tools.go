package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/docforge/internal/models"
	"github.com/Lllllllleong/docforge/internal/tools"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the available tools",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		var last models.ToolCategory
		for _, t := range tools.All() {
			if t.Category != last {
				labelColor.Fprintf(os.Stdout, "\n%s\n", t.Category)
				last = t.Category
			}
			fmt.Fprintf(os.Stdout, "  %-14s %-14s %s", t.ID, t.Path, t.Name)
			if t.Pro {
				warnColor.Fprint(os.Stdout, " [Pro]")
			}
			fmt.Fprintln(os.Stdout)
			faintColor.Fprintf(os.Stdout, "  %-29s %s\n", "", t.Description)
		}
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
