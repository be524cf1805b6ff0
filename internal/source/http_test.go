package source

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtorresq/pericias-console/internal/pericias"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{
		BaseURL: srv.URL,
		Logger:  log.New(io.Discard, "", 0),
	})
}

func TestLoadIndex(t *testing.T) {
	var gotCacheControl string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/index.json", r.URL.Path)
		gotCacheControl = r.Header.Get("Cache-Control")
		_, _ = w.Write([]byte(`[
			{"caso":"C1","tipo":"Homicidio","fecha_hecho":"2025-01-10","estado_general":"En proceso","total_pericias":3,"ultima_actualizacion":"2025-02-01"},
			{"caso":"C2","estado_general":"Realizada"}
		]`))
	}))

	index, err := client.LoadIndex(context.Background())
	require.NoError(t, err)
	require.Len(t, index, 2)
	assert.Equal(t, "C1", index[0].Caso)
	assert.Equal(t, pericias.EstadoEnProceso, index[0].EstadoGeneral)
	assert.Equal(t, 3, index[0].TotalPericias)
	// Malformed/partial records pass through without validation.
	assert.Equal(t, "", index[1].Tipo)
	assert.Equal(t, "no-store", gotCacheControl)
}

func TestLoadIndex_NonSuccessStatus(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))

	_, err := client.LoadIndex(context.Background())
	require.Error(t, err)

	var unavailable *DataUnavailableError
	require.True(t, errors.As(err, &unavailable), "expected DataUnavailableError, got %T", err)
	assert.Equal(t, http.StatusNotFound, unavailable.Status)
}

func TestLoadCase(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/casos/C1.json", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"caso":"C1","tipo":"Homicidio","fecha_hecho":"2025-01-10",
			"pericias":[{"id":"P1","tipo_pericia":"ADN","seccion":"Biología","estado":"Realizada"}]
		}`))
	}))

	detail, err := client.LoadCase(context.Background(), "C1")
	require.NoError(t, err)
	assert.Equal(t, "C1", detail.Caso)
	require.Len(t, detail.Pericias, 1)
	assert.Equal(t, pericias.EstadoRealizada, detail.Pericias[0].Estado)
	// Optional fields absent from the payload decode to empty strings.
	assert.Equal(t, "", detail.Pericias[0].Responsable)
}

func TestLoadCase_FreshFetchEveryCall(t *testing.T) {
	hits := 0
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte(`{"caso":"C1","pericias":[]}`))
	}))

	ctx := context.Background()
	_, err := client.LoadCase(ctx, "C1")
	require.NoError(t, err)
	_, err = client.LoadCase(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, 2, hits, "reselecting a case must re-fetch, never cache")
}
