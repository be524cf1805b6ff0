package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jtorresq/pericias-console/internal/gate"
	"github.com/jtorresq/pericias-console/internal/nav"
	"github.com/jtorresq/pericias-console/internal/pericias"
	"github.com/jtorresq/pericias-console/internal/source"
	"github.com/jtorresq/pericias-console/internal/store"
	"github.com/jtorresq/pericias-console/internal/view"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestDataServer(t *testing.T) *httptest.Server {
	t.Helper()

	index := []pericias.CaseSummary{
		{Caso: "IF-2024-001", Tipo: "Robo", FechaHecho: "2024-03-12", EstadoGeneral: pericias.EstadoEnProceso, TotalPericias: 2},
		{Caso: "IF-2024-002", Tipo: "Estafa", FechaHecho: "2024-04-01", EstadoGeneral: pericias.EstadoRealizada, TotalPericias: 1},
	}
	details := map[string]pericias.CaseDetail{
		"IF-2024-001": {
			Caso:       "IF-2024-001",
			Tipo:       "Robo",
			FechaHecho: "2024-03-12",
			Pericias: []pericias.Pericia{
				{ID: "P-002", TipoPericia: "Balística", Estado: pericias.EstadoEnProceso},
				{ID: "P-001", TipoPericia: "Rastros", Estado: pericias.EstadoRealizada},
			},
		},
		"IF-2024-002": {
			Caso:       "IF-2024-002",
			Tipo:       "Estafa",
			FechaHecho: "2024-04-01",
			Pericias: []pericias.Pericia{
				{ID: "P-010", TipoPericia: "Documentológica", Estado: pericias.EstadoRealizada},
			},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/data/index.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(index)
	})
	mux.HandleFunc("/data/casos/", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path[len("/data/casos/") : len(r.URL.Path)-len(".json")]
		detail, ok := details[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(detail)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// TestViewerWorkflow walks the whole pipeline: load the index, filter it,
// drill into a case, come back with the filter intact.
func TestViewerWorkflow(t *testing.T) {
	srv := newTestDataServer(t)
	ctx := context.Background()

	client := source.NewClient(source.Options{BaseURL: srv.URL + "/data", Logger: testLogger()})
	ctl := nav.NewController()

	index, err := client.LoadIndex(ctx)
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if len(index) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(index))
	}

	// Filter to Realizada: only IF-2024-002 remains.
	ctl.SetEstado(pericias.EstadoRealizada)
	filtered := pericias.FilterIndex(index, ctl.Query())
	if len(filtered) != 1 || filtered[0].Caso != "IF-2024-002" {
		t.Fatalf("estado filter: got %+v", filtered)
	}

	cards := view.RenderCards(filtered)
	if len(cards.Cards) != 1 || cards.Cards[0].CasoRaw != "IF-2024-002" {
		t.Fatalf("rendered cards: got %+v", cards.Cards)
	}

	// Drill into the case.
	token := ctl.BeginLoad()
	detail, err := client.LoadCase(ctx, cards.Cards[0].CasoRaw)
	if err != nil {
		t.Fatalf("LoadCase: %v", err)
	}
	if !ctl.CompleteLoad(token, detail) {
		t.Fatal("fresh detail load should be accepted")
	}
	if ctl.View() != nav.ViewDetail {
		t.Fatalf("expected detail view, got %v", ctl.View())
	}

	vm := view.RenderDetail(ctl.Current())
	if vm.EstadoGeneral != string(pericias.EstadoRealizada) {
		t.Errorf("derived estado = %q, want Realizada", vm.EstadoGeneral)
	}
	if len(vm.Rows) != 1 {
		t.Errorf("expected 1 pericia row, got %d", len(vm.Rows))
	}

	// Back to the list: the estado filter survives.
	ctl.Back()
	if ctl.View() != nav.ViewList {
		t.Fatalf("expected list view after back, got %v", ctl.View())
	}
	again := pericias.FilterIndex(index, ctl.Query())
	if len(again) != 1 || again[0].Caso != "IF-2024-002" {
		t.Fatalf("filter lost across drill-down: got %+v", again)
	}
}

// TestDetailSortOrder checks the drill-down sorts pericias by identifier
// regardless of source order.
func TestDetailSortOrder(t *testing.T) {
	srv := newTestDataServer(t)

	client := source.NewClient(source.Options{BaseURL: srv.URL + "/data", Logger: testLogger()})
	detail, err := client.LoadCase(context.Background(), "IF-2024-001")
	if err != nil {
		t.Fatalf("LoadCase: %v", err)
	}

	vm := view.RenderDetail(detail)
	if len(vm.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(vm.Rows))
	}
	if vm.Rows[0].ID != "P-001" || vm.Rows[1].ID != "P-002" {
		t.Errorf("rows not sorted by id: %q, %q", vm.Rows[0].ID, vm.Rows[1].ID)
	}
	if vm.EstadoGeneral != string(pericias.EstadoEnProceso) {
		t.Errorf("derived estado = %q, want En proceso", vm.EstadoGeneral)
	}
}

// TestGateRoundTrip unlocks the export gate, persists it, and verifies a
// fresh controller over the same session comes back unlocked.
func TestGateRoundTrip(t *testing.T) {
	st, err := store.NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer st.Close()

	ctx := context.Background()

	first := gate.NewController(gate.Options{SessionID: "it-1", Store: st, Logger: testLogger()})
	if err := first.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if first.Unlocked() {
		t.Fatal("gate should boot locked")
	}
	if first.Submit(ctx, "wrong") {
		t.Fatal("wrong passphrase should not unlock")
	}
	if !first.Submit(ctx, "Admin123") {
		t.Fatal("default passphrase should unlock")
	}

	second := gate.NewController(gate.Options{SessionID: "it-1", Store: st, Logger: testLogger()})
	if err := second.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !second.Unlocked() {
		t.Error("unlock should survive a restart within the same session")
	}

	entries, err := st.GetActivity(ctx, "it-1", 10)
	if err != nil {
		t.Fatalf("GetActivity: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 recorded attempts, got %d", len(entries))
	}
}
