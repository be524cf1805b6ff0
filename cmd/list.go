package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/jtorresq/pericias-console/internal/pericias"
	"github.com/jtorresq/pericias-console/internal/source"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cases from the data source",
	Long: `List cases from the configured data source in a simple text format.
This command works in any terminal environment and provides an alternative
to the TUI interface when terminal capabilities are limited.

The same filters as the TUI apply: a case-insensitive substring match on
the case number and an exact estado match.

Examples:
  # List all cases
  pericias-console list

  # Cases whose number contains "2024"
  pericias-console list --q 2024

  # Cases with a derived estado
  pericias-console list --estado "En proceso"`,
	RunE: runList,
}

var (
	listTerm   string
	listEstado string
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listTerm, "q", "", "Substring filter on the case number (case-insensitive)")
	listCmd.Flags().StringVar(&listEstado, "estado", "", `Exact estado filter ("No iniciada", "En proceso", "Realizada")`)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	config := GetConfig()

	if listEstado != "" {
		valid := false
		for _, e := range pericias.Estados {
			if string(e) == listEstado {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("unknown estado %q (use %q, %q or %q)",
				listEstado, pericias.EstadoNoIniciada, pericias.EstadoEnProceso, pericias.EstadoRealizada)
		}
	}

	client := source.NewClient(source.Options{
		BaseURL: config.Data.URL,
		Logger:  log.New(os.Stderr, "[list] ", log.LstdFlags),
	})

	index, err := client.LoadIndex(ctx)
	if err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}

	filtered := pericias.FilterIndex(index, pericias.Query{
		Term:   listTerm,
		Estado: pericias.Estado(listEstado),
	})

	if len(filtered) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No cases matched.")
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Found %d of %d cases:\n\n", len(filtered), len(index))
	for i, c := range filtered {
		fmt.Fprintf(out, "%d. %s [%s]\n", i+1, c.Caso, c.EstadoGeneral)
		fmt.Fprintf(out, "   Tipo: %s\n", c.Tipo)
		fmt.Fprintf(out, "   Fecha hecho: %s\n", c.FechaHecho)
		fmt.Fprintf(out, "   Pericias: %d\n", c.TotalPericias)
		fmt.Fprintln(out)
	}
	return nil
}
