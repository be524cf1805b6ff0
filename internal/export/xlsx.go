// Package export builds and delivers the official matrix workbook.
package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/jtorresq/pericias-console/internal/pericias"
)

const sheetName = "Matriz"

// SuggestedFilename is the fixed name offered for the downloaded artifact.
const SuggestedFilename = "Matriz_Oficial.xlsx"

var headers = []string{
	"Caso", "Tipo", "Fecha hecho", "Estado general",
	"Pericia", "Tipo pericia", "Sección", "Estado",
	"Fecha disposición", "Últ. actualización", "Avance", "Responsable", "Observaciones",
}

// BuildMatrix generates the matrix workbook: one row per pericia, the case
// columns repeated per row. Case-level estado uses the derived value so
// the export matches the detail view, not the precomputed index.
func BuildMatrix(index []pericias.CaseSummary, details map[string]*pericias.CaseDetail) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := writeHeaders(f); err != nil {
		return nil, fmt.Errorf("write headers: %w", err)
	}

	row := 2
	for _, summary := range index {
		detail := details[summary.Caso]
		if detail == nil {
			continue
		}
		estado := string(pericias.DeriveEstadoGeneral(detail.Pericias))
		for _, p := range pericias.SortedPericias(detail) {
			cells := []interface{}{
				detail.Caso, detail.Tipo, detail.FechaHecho, estado,
				p.ID, p.TipoPericia, p.Seccion, string(p.Estado),
				p.FechaDisposicion, p.UltimaActualizacion, p.Avance, p.Responsable, p.Observaciones,
			}
			for col, value := range cells {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				if err := f.SetCellValue(sheetName, cell, value); err != nil {
					return nil, fmt.Errorf("write row %d: %w", row, err)
				}
			}
			row++
		}
	}

	if err := autoFitColumns(f, len(headers)); err != nil {
		return nil, fmt.Errorf("fit columns: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write buffer: %w", err)
	}
	return buf, nil
}

func writeHeaders(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:  true,
			Size:  11,
			Color: "FFFFFF",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"4472C4"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return err
	}

	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

func autoFitColumns(f *excelize.File, count int) error {
	for col := 1; col <= count; col++ {
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheetName, name, name, 18); err != nil {
			return err
		}
	}
	return nil
}

// WriteArtifact writes the workbook to the fixed artifact path, creating
// parent directories as needed.
func WriteArtifact(buf *bytes.Buffer, path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create export directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write artifact %s: %w", path, err)
	}
	return nil
}

// Download copies the prepared artifact into destDir under the fixed
// suggested filename (the terminal analogue of a browser download) and
// returns the destination path.
func Download(artifactPath, destDir string) (string, error) {
	src, err := os.Open(artifactPath)
	if err != nil {
		return "", fmt.Errorf("open artifact %s: %w", artifactPath, err)
	}
	defer src.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("create download directory %s: %w", destDir, err)
	}

	destPath := filepath.Join(destDir, SuggestedFilename)
	dst, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", destPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("copy artifact: %w", err)
	}
	return destPath, nil
}
