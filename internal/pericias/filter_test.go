package pericias

import "testing"

func sampleIndex() []CaseSummary {
	return []CaseSummary{
		{Caso: "Case-ABC-01", EstadoGeneral: EstadoEnProceso},
		{Caso: "Case-XYZ-02", EstadoGeneral: EstadoRealizada},
		{Caso: "Case-ABC-03", EstadoGeneral: EstadoRealizada},
		{Caso: "Case-DEF-04", EstadoGeneral: EstadoNoIniciada},
	}
}

func casos(in []CaseSummary) []string {
	out := make([]string, len(in))
	for i, c := range in {
		out[i] = c.Caso
	}
	return out
}

func TestFilterIndex_NoFilterReturnsCopy(t *testing.T) {
	index := sampleIndex()
	got := FilterIndex(index, Query{})

	if len(got) != len(index) {
		t.Fatalf("expected %d entries, got %d", len(index), len(got))
	}
	got[0].Caso = "mutated"
	if index[0].Caso == "mutated" {
		t.Error("FilterIndex must not alias the input slice")
	}
}

func TestFilterIndex_TermIsCaseInsensitive(t *testing.T) {
	index := sampleIndex()

	lower := FilterIndex(index, Query{Term: "abc"})
	upper := FilterIndex(index, Query{Term: "ABC"})

	if len(lower) != 2 || len(upper) != 2 {
		t.Fatalf("expected 2 matches for both spellings, got %d and %d", len(lower), len(upper))
	}
	for i := range lower {
		if lower[i].Caso != upper[i].Caso {
			t.Errorf("case-insensitive results diverge at %d: %q vs %q", i, lower[i].Caso, upper[i].Caso)
		}
	}
}

func TestFilterIndex_ConjunctivePredicate(t *testing.T) {
	index := sampleIndex()

	got := FilterIndex(index, Query{Term: "abc", Estado: EstadoRealizada})
	if len(got) != 1 || got[0].Caso != "Case-ABC-03" {
		t.Fatalf("expected only Case-ABC-03, got %v", casos(got))
	}
}

func TestFilterIndex_EstadoExactMatch(t *testing.T) {
	index := []CaseSummary{
		{Caso: "C1", EstadoGeneral: EstadoEnProceso},
		{Caso: "C2", EstadoGeneral: EstadoRealizada},
	}

	got := FilterIndex(index, Query{Estado: EstadoRealizada})
	if len(got) != 1 || got[0].Caso != "C2" {
		t.Fatalf("expected only C2, got %v", casos(got))
	}
}

func TestFilterIndex_PreservesOrder(t *testing.T) {
	index := sampleIndex()

	got := FilterIndex(index, Query{Estado: EstadoRealizada})
	want := []string{"Case-XYZ-02", "Case-ABC-03"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, casos(got))
	}
	for i := range want {
		if got[i].Caso != want[i] {
			t.Errorf("order not preserved: expected %v, got %v", want, casos(got))
			break
		}
	}
}

func TestFilterIndex_WhitespaceTermIgnored(t *testing.T) {
	index := sampleIndex()
	got := FilterIndex(index, Query{Term: "   "})
	if len(got) != len(index) {
		t.Errorf("blank term should match everything, got %d of %d", len(got), len(index))
	}
}
