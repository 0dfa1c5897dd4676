package mapa

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/arrabal/mapaderecursos/internal/repo"
)

func setupRouter(store Store) http.Handler {
	r := chi.NewRouter()
	Mount(r, NewHandler(newTestService(store, nil), func() float64 { return 5 }))
	return r
}

func decodeEntidades(t *testing.T, rec *httptest.ResponseRecorder) []repo.Entidad {
	t.Helper()
	var env struct {
		Data []repo.Entidad `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v (%s)", err, rec.Body.String())
	}
	return env.Data
}

func TestHandleEntidades(t *testing.T) {
	router := setupRouter(escenario())

	req := httptest.NewRequest(http.MethodGet, "/entidades?bbox=-4.5,36.6,-4.3,36.8", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	if got := decodeEntidades(t, rec); len(got) != 1 {
		t.Fatalf("got %+v", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/entidades?bbox=-4.5,36.6,-4.3,36.8&servicio=99", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Fatalf("expected empty array, got %s", rec.Body.String())
	}
}

func TestHandleEntidadesRadio(t *testing.T) {
	router := setupRouter(escenario())

	req := httptest.NewRequest(http.MethodGet, "/entidades?include_empty=1&lat=36.7213&lng=-4.4214&radio_km=2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	got := decodeEntidades(t, rec)
	if len(got) != 1 || got[0].ID != 3 {
		t.Fatalf("expected only the closest entity, got %+v", got)
	}
}

func TestHandleRecursosRequiresEntidad(t *testing.T) {
	router := setupRouter(escenario())

	for _, target := range []string{"/recursos", "/recursos?entidad_id=abc", "/recursos?entidad_id=-3"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status %d", target, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/recursos?entidad_id=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
}

func TestHandleEntidadNotFound(t *testing.T) {
	router := setupRouter(escenario())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/entidades/desconocida", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: %d", rec.Code)
	}
}
