package mapa

import (
	"strings"
	"testing"
	"time"

	"github.com/arrabal/mapaderecursos/internal/geo"
)

func TestBuildEntidadesQuery(t *testing.T) {
	today := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		filtro   Filtro
		contains []string
		excludes []string
		args     int
	}{
		{
			name:     "sin bbox exige coordenadas y recursos visibles",
			filtro:   Filtro{},
			contains: []string{"JOIN mdr_recursos r", "r.periodo_fin >= $1::date", "e.lat IS NOT NULL AND e.lng IS NOT NULL", "LIMIT $2"},
			excludes: []string{"LEFT JOIN", "BETWEEN"},
			args:     2,
		},
		{
			name:     "all sin bbox no exige coordenadas",
			filtro:   Filtro{Todas: true, IncluirVacias: true},
			excludes: []string{"JOIN", "IS NOT NULL"},
			args:     1,
		},
		{
			name:     "bbox",
			filtro:   Filtro{BBox: &geo.BBox{MinLng: -4.5, MinLat: 36.6, MaxLng: -4.3, MaxLat: 36.8}, IncluirVacias: true},
			contains: []string{"e.lat BETWEEN $1 AND $2", "e.lng BETWEEN $3 AND $4"},
			excludes: []string{"JOIN"},
			args:     5,
		},
		{
			name:     "include_empty con texto usa left join",
			filtro:   Filtro{IncluirVacias: true, Q: "taller"},
			contains: []string{"LEFT JOIN mdr_recursos r", "(e.nombre ILIKE $2 OR r.recurso_programa ILIKE $2)"},
			args:     3,
		},
		{
			name:     "taxonomía fuerza inner join aunque include_empty",
			filtro:   Filtro{IncluirVacias: true, ServicioID: 7, AmbitoID: 2, SubcategoriaID: 3, ZonaID: 1},
			contains: []string{" JOIN mdr_recursos r", "e.zona_id = $2", "r.ambito_id = $3", "r.subcategoria_id = $4", "r.servicio_id = $5"},
			excludes: []string{"LEFT JOIN"},
			args:     6,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sql, args := buildEntidadesQuery(tc.filtro, today, 2000)
			for _, want := range tc.contains {
				if !strings.Contains(sql, want) {
					t.Errorf("missing %q in %s", want, sql)
				}
			}
			for _, bad := range tc.excludes {
				if strings.Contains(sql, bad) {
					t.Errorf("unexpected %q in %s", bad, sql)
				}
			}
			if len(args) != tc.args {
				t.Fatalf("args: got %d want %d (%v)", len(args), tc.args, args)
			}
			if args[len(args)-1] != 2000 {
				t.Fatalf("limit arg: %v", args[len(args)-1])
			}
			if !strings.HasPrefix(sql, "SELECT DISTINCT") {
				t.Fatalf("not distinct: %s", sql)
			}
		})
	}
}

func TestBuildEntidadesQueryDateParam(t *testing.T) {
	today := time.Date(2026, 2, 1, 0, 0, 0, 0, time.FixedZone("CET", 3600))
	_, args := buildEntidadesQuery(Filtro{}, today, 10)
	if args[0] != "2026-02-01" {
		t.Fatalf("date arg: %v", args[0])
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike(`50%_a\b`); got != `50\%\_a\\b` {
		t.Fatalf("got %q", got)
	}
}

func TestFiltroFromQuery(t *testing.T) {
	f := FiltroFromQuery(map[string][]string{
		"bbox":          {"0,0,0,0"},
		"zona":          {"3"},
		"servicio":      {"abc"},
		"include_empty": {"1"},
		"q":             {"  empleo "},
	})
	if f.BBox != nil {
		t.Fatal("zero bbox must be absent")
	}
	if f.ZonaID != 3 || f.ServicioID != 0 || !f.IncluirVacias || f.Q != "empleo" {
		t.Fatalf("got %+v", f)
	}
	if _, ok := f.Params()["bbox"]; ok {
		t.Fatal("absent bbox leaked into params")
	}
}
