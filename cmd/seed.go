package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jtorresq/pericias-console/internal/pericias"
)

var seedDir string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write a sample data directory",
	Long: `Write a sample dataset (index.json plus per-case files under casos/)
into a local directory. Useful for local testing: serve the directory with
any static file server and point --data-url at it.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVar(&seedDir, "dir", "./data", "Directory to write the sample dataset into")
}

func runSeed(cmd *cobra.Command, args []string) error {
	logger := log.New(cmd.OutOrStdout(), "[seed] ", log.LstdFlags)
	logger.Printf("Seeding sample data into %s...", seedDir)

	details := []pericias.CaseDetail{
		{
			Caso:       "IF-2024-001",
			Tipo:       "Robo agravado",
			FechaHecho: "2024-03-12",
			Pericias: []pericias.Pericia{
				{
					ID:                  "P-001",
					TipoPericia:         "Levantamiento de rastros",
					Seccion:             "Rastros",
					Estado:              pericias.EstadoRealizada,
					FechaDisposicion:    "2024-03-13",
					UltimaActualizacion: "2024-03-20",
					Avance:              "100%",
					Responsable:         "Pérez",
				},
				{
					ID:                  "P-002",
					TipoPericia:         "Balística",
					Seccion:             "Balística",
					Estado:              pericias.EstadoEnProceso,
					FechaDisposicion:    "2024-03-14",
					UltimaActualizacion: "2024-04-02",
					Avance:              "60%",
					Responsable:         "Gómez",
					Observaciones:       "A la espera de material de comparación",
				},
			},
		},
		{
			Caso:       "IF-2024-002",
			Tipo:       "Estafa",
			FechaHecho: "2024-04-01",
			Pericias: []pericias.Pericia{
				{
					ID:                  "P-010",
					TipoPericia:         "Documentológica",
					Seccion:             "Documentología",
					Estado:              pericias.EstadoRealizada,
					FechaDisposicion:    "2024-04-02",
					UltimaActualizacion: "2024-04-15",
					Avance:              "100%",
					Responsable:         "Suárez",
				},
			},
		},
		{
			Caso:       "IF-2024-003",
			Tipo:       "Homicidio",
			FechaHecho: "2024-05-20",
			Pericias: []pericias.Pericia{
				{
					ID:          "P-020",
					TipoPericia: "Autopsia",
					Seccion:     "Medicina legal",
					Estado:      pericias.EstadoNoIniciada,
				},
				{
					ID:                  "P-021",
					TipoPericia:         "Levantamiento de rastros",
					Seccion:             "Rastros",
					Estado:              pericias.EstadoEnProceso,
					FechaDisposicion:    "2024-05-21",
					UltimaActualizacion: "2024-05-25",
					Avance:              "30%",
					Responsable:         "Pérez",
				},
			},
		},
	}

	casosDir := filepath.Join(seedDir, "casos")
	if err := os.MkdirAll(casosDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", casosDir, err)
	}

	index := make([]pericias.CaseSummary, 0, len(details))
	for i := range details {
		detail := details[i]
		index = append(index, pericias.CaseSummary{
			Caso:                detail.Caso,
			Tipo:                detail.Tipo,
			FechaHecho:          detail.FechaHecho,
			EstadoGeneral:       pericias.DeriveEstadoGeneral(detail.Pericias),
			TotalPericias:       len(detail.Pericias),
			UltimaActualizacion: latestActualizacion(detail.Pericias),
		})

		if err := writeJSON(filepath.Join(casosDir, detail.Caso+".json"), detail); err != nil {
			return err
		}
		logger.Printf("Wrote caso %s (%d pericias)", detail.Caso, len(detail.Pericias))
	}

	if err := writeJSON(filepath.Join(seedDir, "index.json"), index); err != nil {
		return err
	}
	logger.Printf("Wrote index with %d cases", len(index))
	return nil
}

func latestActualizacion(items []pericias.Pericia) string {
	latest := ""
	for _, p := range items {
		if p.UltimaActualizacion > latest {
			latest = p.UltimaActualizacion
		}
	}
	return latest
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
