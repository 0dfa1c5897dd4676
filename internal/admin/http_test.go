package admin

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/arrabal/mapaderecursos/internal/auth"
	"github.com/arrabal/mapaderecursos/internal/http/middleware"
	"github.com/arrabal/mapaderecursos/internal/http/respond"
	"github.com/arrabal/mapaderecursos/internal/storage"
)

type envelope struct {
	Data  json.RawMessage    `json:"data"`
	Error *respond.ErrorBody `json:"error"`
}

func newRouter(f *fixture) http.Handler {
	r := chi.NewRouter()
	Mount(r, NewHandler(f.service, f.jwt, middleware.LoginRateLimit(2, time.Minute)))
	return r
}

func (f *fixture) token(t *testing.T) string {
	t.Helper()
	token, _, _, err := f.jwt.GenerateAccessToken(1, "ana@arrabal.org")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return token
}

func do(t *testing.T, h http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("envelope %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func TestRutasProtegidas(t *testing.T) {
	f := newFixture(t)
	h := newRouter(f)

	rec, env := do(t, h, http.MethodPost, "/admin/zonas", "", `{"nombre":"Centro"}`)
	if rec.Code != http.StatusUnauthorized || env.Error == nil || env.Error.Code != respond.CodeAuth {
		t.Fatalf("sin token: %d %s", rec.Code, rec.Body.String())
	}

	otro := auth.NewJWTManager("otro-secreto-otro-secreto-otro-secreto", time.Hour)
	ajeno, _, _, _ := otro.GenerateAccessToken(1, "x@y.z")
	rec, _ = do(t, h, http.MethodPost, "/admin/zonas", ajeno, `{"nombre":"Centro"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("firma ajena: %d", rec.Code)
	}
}

func TestCrearYActualizarTaxonomia(t *testing.T) {
	f := newFixture(t)
	h := newRouter(f)
	token := f.token(t)

	rec, env := do(t, h, http.MethodPost, "/admin/ambitos", token, `{"nombre":"Inclusión Social"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("crear: %d %s", rec.Code, rec.Body.String())
	}
	var tax struct {
		ID   int64  `json:"id"`
		Slug string `json:"slug"`
	}
	if err := json.Unmarshal(env.Data, &tax); err != nil || tax.Slug != "inclusion-social" {
		t.Fatalf("taxonomía: %s %v", env.Data, err)
	}

	rec, _ = do(t, h, http.MethodPut, fmt.Sprintf("/admin/ambitos/%d", tax.ID), token, `{"nombre":"Inclusión","slug":"inclusion"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("actualizar: %d %s", rec.Code, rec.Body.String())
	}
	if got := f.store.acciones(); len(got) != 2 || got[1] != "actualizar:ambitos" {
		t.Fatalf("auditoría: %v", got)
	}
}

func TestErroresDeEscritura(t *testing.T) {
	f := newFixture(t)
	h := newRouter(f)
	token := f.token(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"id inválido", http.MethodPut, "/admin/zonas/abc", `{"nombre":"x"}`, http.StatusBadRequest, respond.CodeValidation},
		{"json roto", http.MethodPost, "/admin/zonas", `{"nombre":`, http.StatusBadRequest, respond.CodeValidation},
		{"campo desconocido", http.MethodPost, "/admin/zonas", `{"nombre":"x","color":"rojo"}`, http.StatusBadRequest, respond.CodeValidation},
		{"coordenadas a medias", http.MethodPost, "/admin/entidades", `{"nombre":"Arrabal","lat":36.7}`, http.StatusBadRequest, respond.CodeValidation},
		{"borrar inexistente", http.MethodDelete, "/admin/recursos/1000", ``, http.StatusNotFound, respond.CodeNotFound},
		{"id de borrado inválido", http.MethodDelete, "/admin/recursos/0", ``, http.StatusBadRequest, respond.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := do(t, h, tc.method, tc.path, token, tc.body)
			if rec.Code != tc.status || env.Error == nil || env.Error.Code != tc.code {
				t.Fatalf("got %d %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestDetallesDeValidacion(t *testing.T) {
	f := newFixture(t)
	h := newRouter(f)

	rec, env := do(t, h, http.MethodPost, "/admin/entidades", f.token(t), `{"nombre":"Arrabal","email":"no-es-email"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", rec.Code)
	}
	raw, _ := json.Marshal(env.Error.Details)
	if !strings.Contains(string(raw), `"campo":"email"`) || !strings.Contains(string(raw), `"regla":"email"`) {
		t.Fatalf("detalles: %s", raw)
	}
}

func TestColeccionDesconocida(t *testing.T) {
	f := newFixture(t)
	rec, _ := do(t, newRouter(f), http.MethodDelete, "/admin/usuarios/1", f.token(t), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: %d", rec.Code)
	}
}

func TestBorrarDevuelveNoContent(t *testing.T) {
	f := newFixture(t)
	h := newRouter(f)

	rec, _ := do(t, h, http.MethodDelete, "/admin/servicios/5", f.token(t), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: %d", rec.Code)
	}
	if len(f.store.borrados[TipoServicio]) != 1 {
		t.Fatalf("borrados: %v", f.store.borrados)
	}
}

func TestAjustesFlushEInforme(t *testing.T) {
	f := newFixture(t)
	h := newRouter(f)
	token := f.token(t)

	rec, _ := do(t, h, http.MethodPut, "/admin/ajustes", token, `{"default_radius_km":8}`)
	if rec.Code != http.StatusOK || *f.ajustes.got.DefaultRadiusKm != 8 {
		t.Fatalf("ajustes: %d %s", rec.Code, rec.Body.String())
	}
	rec, _ = do(t, h, http.MethodPost, "/admin/cache/flush", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("flush: %d", rec.Code)
	}
	rec, env := do(t, h, http.MethodPost, "/admin/informes", token, `{"ultimas_24h":true}`)
	if rec.Code != http.StatusCreated || !strings.Contains(string(env.Data), "informes/r.txt") {
		t.Fatalf("informe: %d %s", rec.Code, rec.Body.String())
	}
}

func TestInformeSinAlmacenamiento(t *testing.T) {
	f := newFixture(t)
	f.service = NewService(f.store, f.cache, f.jwt, f.ajustes, fakeInformes{err: fmt.Errorf("informe: %w", storage.ErrNoConfigurado)}, zerolog.Nop())
	h := newRouter(f)

	rec, env := do(t, h, http.MethodPost, "/admin/informes", f.token(t), `{}`)
	if rec.Code != http.StatusServiceUnavailable || env.Error.Code != respond.CodeUnavailable {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestLoginHTTP(t *testing.T) {
	f := newFixture(t)
	hash, err := auth.Hash("secreto-largo")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	f.store.admins["ana@arrabal.org"] = Admin{ID: 7, Email: "ana@arrabal.org", PasswordHash: hash, Activo: true}
	h := newRouter(f)

	rec, env := do(t, h, http.MethodPost, "/admin/login", "", `{"email":"ana@arrabal.org","password":"secreto-largo"}`)
	if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), "access_token") {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}

	rec, env = do(t, h, http.MethodPost, "/admin/login", "", `{"email":"ana@arrabal.org","password":"mala"}`)
	if rec.Code != http.StatusUnauthorized || env.Error.Code != respond.CodeAuth {
		t.Fatalf("login fallido: %d %s", rec.Code, rec.Body.String())
	}

	rec, env = do(t, h, http.MethodPost, "/admin/login", "", `{"email":"ana@arrabal.org","password":"mala"}`)
	if rec.Code != http.StatusTooManyRequests || env.Error.Code != respond.CodeRateLimit {
		t.Fatalf("límite: %d %s", rec.Code, rec.Body.String())
	}
}
