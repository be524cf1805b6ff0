package nav

import (
	"testing"

	"github.com/jtorresq/pericias-console/internal/pericias"
)

func TestController_InitialState(t *testing.T) {
	c := NewController()
	if c.View() != ViewList {
		t.Errorf("initial view = %v, want ViewList", c.View())
	}
	if c.Current() != nil {
		t.Error("no case should be current initially")
	}
}

func TestController_LoadAndBack(t *testing.T) {
	c := NewController()
	c.SetEstado(pericias.EstadoRealizada)

	token := c.BeginLoad()
	detail := &pericias.CaseDetail{Caso: "C2"}
	if !c.CompleteLoad(token, detail) {
		t.Fatal("fresh load should be accepted")
	}
	if c.View() != ViewDetail || c.Current() != detail {
		t.Fatalf("expected detail view with C2, got view=%v current=%v", c.View(), c.Current())
	}

	c.Back()
	if c.View() != ViewList || c.Current() != nil {
		t.Error("back should clear current and return to list")
	}
	// Filter state survives navigation.
	if c.Query().Estado != pericias.EstadoRealizada {
		t.Errorf("estado filter lost on back: %q", c.Query().Estado)
	}
}

func TestController_SupersededLoadDiscarded(t *testing.T) {
	c := NewController()

	stale := c.BeginLoad()
	fresh := c.BeginLoad()

	if c.CompleteLoad(stale, &pericias.CaseDetail{Caso: "OLD"}) {
		t.Error("stale load must be discarded")
	}
	if !c.CompleteLoad(fresh, &pericias.CaseDetail{Caso: "NEW"}) {
		t.Fatal("latest load must be accepted")
	}
	if c.Current().Caso != "NEW" {
		t.Errorf("current = %q, want NEW", c.Current().Caso)
	}
}

func TestController_LateLoadAfterBackDiscarded(t *testing.T) {
	c := NewController()

	token := c.BeginLoad()
	c.Back()
	if c.CompleteLoad(token, &pericias.CaseDetail{Caso: "LATE"}) {
		t.Error("a load completing after back must not flip the view")
	}
	if c.View() != ViewList {
		t.Errorf("view = %v, want ViewList", c.View())
	}
}

func TestController_ResetFromDetail(t *testing.T) {
	c := NewController()
	token := c.BeginLoad()
	c.CompleteLoad(token, &pericias.CaseDetail{Caso: "C1"})

	c.Reset()
	if c.View() != ViewList || c.Current() != nil {
		t.Error("refresh must reset to the list from any view")
	}
}
