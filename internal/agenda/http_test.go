package agenda

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

type fakeLister struct {
	res  Result
	err  error
	last Query
}

func (f *fakeLister) Events(_ context.Context, q Query) (Result, error) {
	f.last = q
	return f.res, f.err
}

func serve(t *testing.T, events EventLister, target string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	Mount(r, NewHandler(events))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandleListJSON(t *testing.T) {
	lister := &fakeLister{res: Result{
		Events: []Evento{{
			Title: "Taller <b>abierto</b>", Link: "https://x/taller", Featured: "p.svg", IsPlaceholder: true, PlaceholderBG: "#7e57c2",
			Terms: Terminos{Categorias: []Termino{{Name: "Formación"}}, Ubicaciones: []Termino{}},
		}},
		HasMore: true,
	}}

	rec := serve(t, lister, "/agenda?per_page=80&order=asc&mode=upcoming&search=taller")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if lister.last.PerPage != 50 || lister.last.Order != "asc" || lister.last.Mode != "upcoming" || lister.last.Search != "taller" {
		t.Fatalf("query: %+v", lister.last)
	}

	var env struct {
		Data struct {
			Events  []Evento `json:"events"`
			HasMore bool     `json:"has_more"`
			HTML    string   `json:"html"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if len(env.Data.Events) != 1 || !env.Data.HasMore {
		t.Fatalf("data: %+v", env.Data)
	}
	if !strings.Contains(env.Data.HTML, "Taller &lt;b&gt;abierto&lt;/b&gt;") {
		t.Fatalf("title must be escaped: %s", env.Data.HTML)
	}
	if !strings.Contains(env.Data.HTML, "background-color: #7e57c2;") {
		t.Fatalf("placeholder color missing: %s", env.Data.HTML)
	}
}

func TestHandleListUnavailable(t *testing.T) {
	lister := &fakeLister{err: errors.Join(ErrPrimaryUnavailable, errors.New("http 502"))}

	rec := serve(t, lister, "/agenda")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"code":"UNAVAILABLE"`) || !strings.Contains(rec.Body.String(), MsgNoDisponible) {
		t.Fatalf("body: %s", rec.Body.String())
	}
}

func TestHandleFragment(t *testing.T) {
	lister := &fakeLister{res: Result{
		Events:  []Evento{{Title: "Uno", Meta: Meta{Inicio: "15 de enero de 2026", Lugar: "Sede"}, Estado: "Finalizado"}},
		HasMore: true,
	}}

	rec := serve(t, lister, "/agenda/fragmento?per_page=3&page=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content-type %s", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{`data-has-more="1"`, `data-per-page="3"`, `data-page="2"`, "mdr-agenda-sentinel", "<strong>Lugar:</strong> Sede", "Finalizado"} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in %s", want, body)
		}
	}

	lister.res = Result{Events: []Evento{}}
	rec = serve(t, lister, "/agenda/fragmento")
	if !strings.Contains(rec.Body.String(), MsgSinEventos) || strings.Contains(rec.Body.String(), "sentinel") {
		t.Fatalf("empty: %s", rec.Body.String())
	}
}

func TestHandleFragmentUnavailable(t *testing.T) {
	lister := &fakeLister{err: ErrPrimaryUnavailable}

	rec := serve(t, lister, "/agenda/fragmento")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "mdr-agenda-error") || !strings.Contains(rec.Body.String(), MsgNoDisponible) {
		t.Fatalf("body: %s", rec.Body.String())
	}
}
