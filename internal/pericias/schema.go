package pericias

import "sort"

// Estado represents the lifecycle state of a pericia or case
type Estado string

const (
	EstadoNoIniciada Estado = "No iniciada"
	EstadoEnProceso  Estado = "En proceso"
	EstadoRealizada  Estado = "Realizada"
)

// Estados lists the enum values in the order shown in the status filter.
var Estados = []Estado{EstadoNoIniciada, EstadoEnProceso, EstadoRealizada}

// CaseSummary is one entry of the case index. The estado_general here is
// precomputed upstream and may disagree with the value derived from the
// case detail; the two are kept as independently-sourced values.
type CaseSummary struct {
	Caso                 string `json:"caso"`
	Tipo                 string `json:"tipo"`
	FechaHecho           string `json:"fecha_hecho"`
	EstadoGeneral        Estado `json:"estado_general"`
	TotalPericias        int    `json:"total_pericias"`
	UltimaActualizacion  string `json:"ultima_actualizacion"`
}

// Pericia is a single expert-examination task belonging to a case.
// Optional fields decode to "" when absent.
type Pericia struct {
	ID                  string `json:"id"`
	TipoPericia         string `json:"tipo_pericia"`
	Seccion             string `json:"seccion"`
	Estado              Estado `json:"estado"`
	FechaDisposicion    string `json:"fecha_disposicion,omitempty"`
	UltimaActualizacion string `json:"ultima_actualizacion,omitempty"`
	Avance              string `json:"avance,omitempty"`
	Responsable         string `json:"responsable,omitempty"`
	Observaciones       string `json:"observaciones,omitempty"`
}

// CaseDetail is the full record for one case. It carries no stored
// estado_general; use DeriveEstadoGeneral.
type CaseDetail struct {
	Caso       string    `json:"caso"`
	Tipo       string    `json:"tipo"`
	FechaHecho string    `json:"fecha_hecho"`
	Pericias   []Pericia `json:"pericias"`
}

// DeriveEstadoGeneral computes the case-level estado from its pericias.
// This is a priority scan, not a majority vote: a single unstarted pericia
// forces the whole case to "No iniciada".
func DeriveEstadoGeneral(pericias []Pericia) Estado {
	anyEnProceso := false
	for _, p := range pericias {
		switch p.Estado {
		case EstadoNoIniciada:
			return EstadoNoIniciada
		case EstadoEnProceso:
			anyEnProceso = true
		}
	}
	if anyEnProceso {
		return EstadoEnProceso
	}
	if len(pericias) > 0 {
		return EstadoRealizada
	}
	return EstadoNoIniciada
}

// SortedPericias returns the case's pericias sorted ascending by ID.
// A missing ID sorts as the empty string, before any non-empty ID.
// The detail's own slice is never mutated.
func SortedPericias(detail *CaseDetail) []Pericia {
	if detail == nil {
		return nil
	}
	out := make([]Pericia, len(detail.Pericias))
	copy(out, detail.Pericias)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}
