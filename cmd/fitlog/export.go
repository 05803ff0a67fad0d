// ABOUTME: CLI commands for exporting and importing fitlog data.
// ABOUTME: Supports JSON and YAML; import skips documents that already exist.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/harperreed/fitlog/internal/records"
	"github.com/harperreed/fitlog/internal/storage"
	"github.com/spf13/cobra"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Export fitlog data",
	Long: `Export every collection in JSON or YAML.

FORMATS:

  json   Full JSON export (suitable for backup/restore)
  yaml   YAML export (human-readable)

EXAMPLES:

  fitlog export json                  # Export all data as JSON
  fitlog export json -o backup.json   # Save to file
  fitlog export yaml`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"json", "yaml"},
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := storage.GetAllData(cmd.Context(), store, records.Collections())
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		var raw []byte
		switch args[0] {
		case "json":
			raw, err = storage.ExportJSON(data)
		case "yaml":
			raw, err = storage.ExportYAML(data)
		default:
			return fmt.Errorf("unknown format: %s (use json or yaml)", args[0])
		}
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		if exportOutput != "" {
			if err := os.WriteFile(exportOutput, raw, 0600); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Exported to %s\n", exportOutput)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(raw))
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import fitlog data from an export",
	Long: `Import data from a JSON or YAML export.

Identifiers are preserved. Documents whose ID already exists are skipped,
so importing the same file twice is harmless.

EXAMPLES:

  fitlog import backup.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		data, err := storage.ParseExport(raw)
		if err != nil {
			return err
		}

		resume := pauseAutoSync(store)
		summary, err := storage.ImportData(cmd.Context(), store, data)
		if syncErr := resume(); syncErr != nil {
			color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "⚠ Sync after import failed: %v\n", syncErr)
		}
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintf(out, "✓ Imported from %s\n", args[0])
		printCounts(out, summary.Imported, summary.Skipped, "imported")
		return nil
	},
}

// printCounts writes one line per collection with done and skipped counts.
func printCounts(out io.Writer, done, skipped map[string]int, verb string) {
	names := make([]string, 0, len(done)+len(skipped))
	seen := map[string]bool{}
	for _, m := range []map[string]int{done, skipped} {
		for name := range m {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %s %d %s, %d skipped\n", padRight(name+":", 14), done[name], verb, skipped[name])
	}
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
