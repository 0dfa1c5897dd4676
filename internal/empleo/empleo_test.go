package empleo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/arrabal/mapaderecursos/internal/cache"
	"github.com/arrabal/mapaderecursos/internal/clock"
)

const feedRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Ofertas</title><link>https://empleo.example.org</link>
<item>
  <title>Auxiliar de cocina | Málaga</title>
  <link>https://empleo.example.org/oferta/1</link>
  <pubDate>Thu, 15 Jan 2026 09:30:00 +0000</pubDate>
  <description>&lt;p&gt;Se busca &lt;strong&gt;auxiliar&lt;/strong&gt; para cocina&lt;/p&gt;</description>
</item>
<item>
  <title>Mozo de almacén</title>
  <link>https://empleo.example.org/oferta/2</link>
  <description>Sin fecha</description>
</item>
<item>
  <title>Dependienta | Torremolinos</title>
  <link>https://empleo.example.org/oferta/3</link>
</item>
</channel></rss>`

func feedServer(t *testing.T, status int, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newReader(url string, c cache.Store) *Reader {
	loc := time.FixedZone("CET", 3600)
	return NewReader(url, nil, c, clock.Fixed(time.Date(2026, 2, 1, 0, 0, 0, 0, loc)), time.Hour, zerolog.Nop())
}

func TestClampPerPage(t *testing.T) {
	tests := map[int]int{0: 9, -3: 1, 1: 1, 50: 50, 51: 50}
	for in, want := range tests {
		if got := ClampPerPage(in); got != want {
			t.Fatalf("ClampPerPage(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestOfertasMapping(t *testing.T) {
	srv := feedServer(t, http.StatusOK, feedRSS, nil)
	r := newReader(srv.URL, nil)

	ofertas, err := r.Ofertas(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(ofertas) != 3 {
		t.Fatalf("got %d ofertas", len(ofertas))
	}

	first := ofertas[0]
	if first.Title != "Auxiliar de cocina" || first.Location != "Málaga" {
		t.Fatalf("title split: %+v", first)
	}
	if first.Date != "15 de enero de 2026" || first.DateTS == nil {
		t.Fatalf("date: %+v", first)
	}
	if first.Excerpt != "Se busca auxiliar para cocina" {
		t.Fatalf("excerpt: %q", first.Excerpt)
	}
	if first.PlaceholderBG == "" {
		t.Fatal("expected accent color")
	}
	if ofertas[1].Title != "Mozo de almacén" || ofertas[1].Location != "" || ofertas[1].DateTS != nil {
		t.Fatalf("second: %+v", ofertas[1])
	}
}

func TestOfertasTruncatesAndCaches(t *testing.T) {
	var hits atomic.Int32
	srv := feedServer(t, http.StatusOK, feedRSS, &hits)
	r := newReader(srv.URL, cache.NewMemory())
	n := 0
	r.color = func() string {
		n++
		return fmt.Sprintf("#c%d", n)
	}

	first, err := r.Ofertas(context.Background(), 2)
	if err != nil || len(first) != 2 {
		t.Fatalf("first: %d %v", len(first), err)
	}
	second, _ := r.Ofertas(context.Background(), 2)
	if hits.Load() != 1 {
		t.Fatalf("expected cached second call, got %d hits", hits.Load())
	}
	if first[0].PlaceholderBG == second[0].PlaceholderBG {
		t.Fatal("color must be re-rolled per response")
	}

	if _, err := r.Ofertas(context.Background(), 3); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 2 {
		t.Fatalf("per_page is part of the cache key, got %d hits", hits.Load())
	}
}

func TestOfertasErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"no 200", http.StatusInternalServerError, feedRSS},
		{"vacío", http.StatusOK, "  "},
		{"no es rss", http.StatusOK, "<html><body>mantenimiento</body></html>"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := feedServer(t, tc.status, tc.body, nil)
			c := cache.NewMemory()
			r := newReader(srv.URL, c)
			if _, err := r.Ofertas(context.Background(), 5); !errors.Is(err, ErrFeedUnavailable) {
				t.Fatalf("expected ErrFeedUnavailable, got %v", err)
			}
		})
	}

	if _, err := newReader("", nil).Ofertas(context.Background(), 5); !errors.Is(err, ErrFeedUnavailable) {
		t.Fatalf("empty url: %v", err)
	}
}

type fakeLister struct {
	ofertas []Oferta
	err     error
	perPage int
}

func (f *fakeLister) Ofertas(_ context.Context, perPage int) ([]Oferta, error) {
	f.perPage = perPage
	return f.ofertas, f.err
}

func serve(l Lister, target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	Mount(r, NewHandler(l, "https://example.org/p.svg"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandlers(t *testing.T) {
	l := &fakeLister{ofertas: []Oferta{{Title: "Auxiliar", Location: "Málaga", Link: "https://x/1", Date: "15 de enero de 2026", PlaceholderBG: "#ff9500"}}}

	rec := serve(l, "/empleo?per_page=99")
	if rec.Code != http.StatusOK || l.perPage != 50 {
		t.Fatalf("status %d per_page %d", rec.Code, l.perPage)
	}
	if !strings.Contains(rec.Body.String(), `"total":1`) {
		t.Fatalf("body: %s", rec.Body.String())
	}

	rec = serve(l, "/empleo/fragmento")
	body := rec.Body.String()
	for _, want := range []string{"Publicado el 15 de enero de 2026", `<span class="mdr-agenda-badge">Málaga</span>`, "Ver oferta", "background-color: #ff9500;"} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in %s", want, body)
		}
	}

	l.ofertas = nil
	rec = serve(l, "/empleo/fragmento")
	if !strings.Contains(rec.Body.String(), MsgSinOfertas) {
		t.Fatalf("empty: %s", rec.Body.String())
	}

	l.err = errors.Join(ErrFeedUnavailable, errors.New("timeout"))
	rec = serve(l, "/empleo")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), MsgNoDisponible) {
		t.Fatalf("json error: %d %s", rec.Code, rec.Body.String())
	}
	rec = serve(l, "/empleo/fragmento")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "mdr-agenda-error") {
		t.Fatalf("fragment error: %d %s", rec.Code, rec.Body.String())
	}
}
