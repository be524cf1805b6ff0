package ui

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/jtorresq/pericias-console/internal/gate"
	"github.com/jtorresq/pericias-console/internal/pericias"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestEstadoForOption(t *testing.T) {
	if got := estadoForOption(0); got != "" {
		t.Errorf("option 0 should mean no filter, got %q", got)
	}
	if got := estadoForOption(1); got != pericias.EstadoNoIniciada {
		t.Errorf("option 1 = %q, want %q", got, pericias.EstadoNoIniciada)
	}
	if got := estadoForOption(2); got != pericias.EstadoEnProceso {
		t.Errorf("option 2 = %q, want %q", got, pericias.EstadoEnProceso)
	}
	if got := estadoForOption(3); got != pericias.EstadoRealizada {
		t.Errorf("option 3 = %q, want %q", got, pericias.EstadoRealizada)
	}
	if got := estadoForOption(99); got != "" {
		t.Errorf("out-of-range option should mean no filter, got %q", got)
	}
}

func TestEstadoFilterLabelsCoverAllEstados(t *testing.T) {
	if len(estadoFilterLabels) != len(pericias.Estados)+1 {
		t.Fatalf("expected one label per estado plus the no-filter entry, got %d", len(estadoFilterLabels))
	}
	for _, estado := range pericias.Estados {
		found := false
		for _, label := range estadoFilterLabels {
			if label == string(estado) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("estado %q missing from dropdown labels", estado)
		}
	}
}

func TestEstadoTag(t *testing.T) {
	if got := estadoTag(string(pericias.EstadoRealizada)); got != "green" {
		t.Errorf("Realizada tag = %q, want green", got)
	}
	if got := estadoTag(string(pericias.EstadoEnProceso)); got != "yellow" {
		t.Errorf("En proceso tag = %q, want yellow", got)
	}
	if got := estadoTag(string(pericias.EstadoNoIniciada)); got != "red" {
		t.Errorf("No iniciada tag = %q, want red", got)
	}
	if got := estadoTag("anything else"); got != "red" {
		t.Errorf("unknown estado tag = %q, want red", got)
	}
}

func TestStatusHelpLine_ExportHintGatedOnUnlock(t *testing.T) {
	g := gate.NewController(gate.Options{SessionID: "s1", Logger: testLogger()})
	ui := NewUI(context.Background(), Options{Gate: g, Logger: testLogger()})
	defer ui.cancel()

	if strings.Contains(ui.statusHelpLine(), "exportar") {
		t.Error("export hint visible while gate is locked")
	}

	if !g.Submit(context.Background(), "Admin123") {
		t.Fatal("expected default passphrase to unlock")
	}
	if !strings.Contains(ui.statusHelpLine(), "exportar") {
		t.Error("export hint missing after unlock")
	}
}
