package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/jtorresq/pericias-console/internal/export"
	"github.com/jtorresq/pericias-console/internal/pericias"
	"github.com/jtorresq/pericias-console/internal/source"
)

// exportCmd builds the matrix workbook without going through the TUI gate.
// The gate only hides the in-app control; the CLI is already operator-only.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Generate the official matrix workbook",
	Long: `Fetch the full dataset from the data source and generate the official
matrix workbook (one row per pericia) at the configured artifact path.

Examples:
  # Write to the default ./exports/Matriz_Oficial.xlsx
  pericias-console export

  # Write somewhere else
  pericias-console export --export-artifact /tmp/matriz.xlsx`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	config := GetConfig()
	logger := log.New(os.Stderr, "[export] ", log.LstdFlags)

	client := source.NewClient(source.Options{
		BaseURL: config.Data.URL,
		Logger:  logger,
	})

	index, err := client.LoadIndex(ctx)
	if err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}
	logger.Printf("Loaded %d cases", len(index))

	details := make(map[string]*pericias.CaseDetail, len(index))
	for _, summary := range index {
		detail, err := client.LoadCase(ctx, summary.Caso)
		if err != nil {
			return fmt.Errorf("failed to load case %s: %w", summary.Caso, err)
		}
		details[summary.Caso] = detail
	}

	buf, err := export.BuildMatrix(index, details)
	if err != nil {
		return fmt.Errorf("failed to build workbook: %w", err)
	}

	artifact := resolvePathRelativeToBase(getWorkingDir(), config.Export.Artifact)
	if err := export.WriteArtifact(buf, artifact); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d cases)\n", artifact, len(index))
	return nil
}
