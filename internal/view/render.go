// Package view builds toolkit-independent view models from case data.
// Rendering is pure: the same inputs always produce the same models, and
// an adapter (internal/ui) paints them onto the terminal.
package view

import (
	"strconv"
	"strings"

	"github.com/jtorresq/pericias-console/internal/pericias"
)

// escaper maps markup-special characters to their entity equivalents.
// Record fields are untrusted external data and must never reach an
// output surface un-escaped.
var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeText escapes interpolated text against markup injection.
func EscapeText(s string) string {
	return escaper.Replace(s)
}

// Card is the rendered form of one case summary. All fields are escaped.
// EstadoBadge carries the index's precomputed estado_general verbatim;
// it is not recomputed from the detail.
type Card struct {
	Caso                string
	EstadoBadge         string
	Tipo                string
	FechaHecho          string
	TotalPericias       string
	UltimaActualizacion string

	// CasoRaw is the unescaped identifier used to address the detail
	// resource on selection.
	CasoRaw string
}

// List is the view model for the case list area: either cards or an
// error message replacing them.
type List struct {
	Cards []Card
	Err   string
}

// RenderCards renders one card per summary, preserving input order.
// Calling it again with the same input fully replaces prior content.
func RenderCards(summaries []pericias.CaseSummary) List {
	cards := make([]Card, 0, len(summaries))
	for _, c := range summaries {
		cards = append(cards, Card{
			Caso:                EscapeText(c.Caso),
			EstadoBadge:         EscapeText(string(c.EstadoGeneral)),
			Tipo:                EscapeText(c.Tipo),
			FechaHecho:          EscapeText(c.FechaHecho),
			TotalPericias:       strconv.Itoa(c.TotalPericias),
			UltimaActualizacion: EscapeText(c.UltimaActualizacion),
			CasoRaw:             c.Caso,
		})
	}
	return List{Cards: cards}
}

// RenderLoadError renders the list area replaced by a visible failure
// reason. Load failures are surfaced, never silently swallowed.
func RenderLoadError(err error) List {
	return List{Err: "Error cargando datos: " + EscapeText(err.Error())}
}

// Row is one rendered pericia with all nine fields escaped; missing
// optional fields render as empty strings.
type Row struct {
	ID                  string
	TipoPericia         string
	Seccion             string
	Estado              string
	FechaDisposicion    string
	UltimaActualizacion string
	Avance              string
	Responsable         string
	Observaciones       string
}

// Fields returns the row's cells in table column order.
func (r Row) Fields() []string {
	return []string{
		r.ID, r.TipoPericia, r.Seccion, r.Estado, r.FechaDisposicion,
		r.UltimaActualizacion, r.Avance, r.Responsable, r.Observaciones,
	}
}

// RowHeaders lists the detail table column titles in Fields order.
var RowHeaders = []string{
	"ID", "Tipo pericia", "Sección", "Estado", "Fecha disposición",
	"Últ. actualización", "Avance", "Responsable", "Observaciones",
}

// Detail is the view model for the case drill-down: escaped header plus
// pericia rows sorted ascending by ID.
type Detail struct {
	Caso          string
	Tipo          string
	FechaHecho    string
	EstadoGeneral string
	Rows          []Row
}

// RenderDetail renders a case detail. The header's estado is derived from
// the pericias via the priority scan, independently of whatever the index
// said. Sorting never mutates the source detail.
func RenderDetail(detail *pericias.CaseDetail) Detail {
	d := Detail{
		Caso:          EscapeText(detail.Caso),
		Tipo:          EscapeText(detail.Tipo),
		FechaHecho:    EscapeText(detail.FechaHecho),
		EstadoGeneral: EscapeText(string(pericias.DeriveEstadoGeneral(detail.Pericias))),
	}
	for _, p := range pericias.SortedPericias(detail) {
		d.Rows = append(d.Rows, Row{
			ID:                  EscapeText(p.ID),
			TipoPericia:         EscapeText(p.TipoPericia),
			Seccion:             EscapeText(p.Seccion),
			Estado:              EscapeText(string(p.Estado)),
			FechaDisposicion:    EscapeText(p.FechaDisposicion),
			UltimaActualizacion: EscapeText(p.UltimaActualizacion),
			Avance:              EscapeText(p.Avance),
			Responsable:         EscapeText(p.Responsable),
			Observaciones:       EscapeText(p.Observaciones),
		})
	}
	return d
}
