package view

import (
	"errors"
	"reflect"
	"testing"

	"github.com/jtorresq/pericias-console/internal/pericias"
)

func TestEscapeText(t *testing.T) {
	in := `<script>alert("x") & 'y'</script>`
	want := `&lt;script&gt;alert(&quot;x&quot;) &amp; &#039;y&#039;&lt;/script&gt;`
	if got := EscapeText(in); got != want {
		t.Errorf("EscapeText() = %q, want %q", got, want)
	}
}

func TestRenderCards_EscapesUntrustedFields(t *testing.T) {
	list := RenderCards([]pericias.CaseSummary{
		{Caso: `<script>boom</script>`, Tipo: "Robo", EstadoGeneral: pericias.EstadoEnProceso, TotalPericias: 2},
	})

	if len(list.Cards) != 1 {
		t.Fatalf("expected 1 card, got %d", len(list.Cards))
	}
	card := list.Cards[0]
	if card.Caso != "&lt;script&gt;boom&lt;/script&gt;" {
		t.Errorf("identifier not escaped: %q", card.Caso)
	}
	// The raw identifier is still available to address the detail fetch.
	if card.CasoRaw != "<script>boom</script>" {
		t.Errorf("CasoRaw altered: %q", card.CasoRaw)
	}
	if card.EstadoBadge != "En proceso" {
		t.Errorf("badge should carry estado_general verbatim, got %q", card.EstadoBadge)
	}
	if card.TotalPericias != "2" {
		t.Errorf("TotalPericias = %q", card.TotalPericias)
	}
}

func TestRenderCards_Idempotent(t *testing.T) {
	index := []pericias.CaseSummary{
		{Caso: "C1", EstadoGeneral: pericias.EstadoRealizada},
		{Caso: "C2", EstadoGeneral: pericias.EstadoNoIniciada},
	}

	first := RenderCards(index)
	second := RenderCards(index)
	if !reflect.DeepEqual(first, second) {
		t.Error("re-rendering the same input must produce identical output")
	}
}

func TestRenderLoadError(t *testing.T) {
	list := RenderLoadError(errors.New("index returned status 503"))
	if list.Err == "" || len(list.Cards) != 0 {
		t.Fatalf("error render should replace cards: %+v", list)
	}
	if list.Err != "Error cargando datos: index returned status 503" {
		t.Errorf("unexpected error text: %q", list.Err)
	}
}

func TestRenderDetail_DerivedEstadoAndSortedRows(t *testing.T) {
	detail := &pericias.CaseDetail{
		Caso:       "C1",
		Tipo:       "Homicidio",
		FechaHecho: "2025-01-10",
		Pericias: []pericias.Pericia{
			{ID: "P2", Estado: pericias.EstadoRealizada},
			{ID: "P1", Estado: pericias.EstadoNoIniciada},
			{ID: "P3", Estado: pericias.EstadoEnProceso},
		},
	}

	d := RenderDetail(detail)
	if d.EstadoGeneral != string(pericias.EstadoNoIniciada) {
		t.Errorf("derived estado = %q, want %q", d.EstadoGeneral, pericias.EstadoNoIniciada)
	}

	gotOrder := []string{d.Rows[0].ID, d.Rows[1].ID, d.Rows[2].ID}
	wantOrder := []string{"P1", "P2", "P3"}
	if !reflect.DeepEqual(gotOrder, wantOrder) {
		t.Errorf("row order = %v, want %v", gotOrder, wantOrder)
	}

	// Source sequence must stay untouched.
	if detail.Pericias[0].ID != "P2" {
		t.Errorf("render mutated the source detail: %+v", detail.Pericias)
	}
}

func TestRenderDetail_MissingOptionalFieldsRenderEmpty(t *testing.T) {
	detail := &pericias.CaseDetail{
		Caso:     "C1",
		Pericias: []pericias.Pericia{{ID: "P1", Estado: pericias.EstadoRealizada}},
	}

	row := RenderDetail(detail).Rows[0]
	for i, cell := range row.Fields()[4:] {
		if cell != "" {
			t.Errorf("optional field %d should render empty, got %q", i+4, cell)
		}
	}
	if len(row.Fields()) != len(RowHeaders) {
		t.Errorf("row has %d cells for %d headers", len(row.Fields()), len(RowHeaders))
	}
}
