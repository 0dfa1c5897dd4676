package repo

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

func TestVisible(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)
	ayer := today.AddDate(0, 0, -1)
	hoyTarde := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	manana := today.AddDate(0, 0, 1)

	tests := []struct {
		name   string
		activo bool
		fin    *time.Time
		want   bool
	}{
		{"activo sin fin", true, nil, true},
		{"inactivo sin fin", false, nil, false},
		{"fin ayer", true, &ayer, false},
		{"fin hoy", true, &hoyTarde, true},
		{"fin mañana", true, &manana, true},
		{"inactivo con fin futuro", false, &manana, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Visible(tc.activo, tc.fin, today); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestVisibleProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	today := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 1000; i++ {
		activo := rng.Intn(2) == 0
		var fin *time.Time
		offset := rng.Intn(61) - 30
		if rng.Intn(4) > 0 {
			f := today.AddDate(0, 0, offset)
			fin = &f
		}
		want := activo && (fin == nil || offset >= 0)
		if got := Visible(activo, fin, today); got != want {
			t.Fatalf("activo=%v offset=%d fin=%v: got %v", activo, offset, fin != nil, got)
		}
		r := Recurso{Activo: activo, PeriodoFin: fin}
		if r.Visible(today) != want {
			t.Fatalf("Recurso.Visible diverge")
		}
	}
}

func TestVisibleSQL(t *testing.T) {
	got := VisibleSQL("r", "$3")
	want := "r.activo AND (r.periodo_fin IS NULL OR r.periodo_fin >= $3::date)"
	if got != want {
		t.Fatalf("got %q", got)
	}
	if DateParam(time.Date(2026, 1, 5, 23, 0, 0, 0, time.UTC)) != "2026-01-05" {
		t.Fatal("date param")
	}
}

func TestNewEntidad(t *testing.T) {
	lat, lng := 36.70, -4.42
	e, err := NewEntidad(Entidad{Nombre: " Asociación Arrabal ", Lat: &lat, Lng: &lng})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Slug != "asociacion-arrabal" || e.Nombre != "Asociación Arrabal" {
		t.Fatalf("got %+v", e)
	}

	if _, err := NewEntidad(Entidad{Nombre: "X", Lat: &lat}); !errors.Is(err, ErrCoordenadas) {
		t.Fatalf("expected ErrCoordenadas, got %v", err)
	}
	if _, err := NewEntidad(Entidad{Nombre: "  "}); err == nil {
		t.Fatal("expected error for empty name")
	}
	bad := 120.0
	if _, err := NewEntidad(Entidad{Nombre: "X", Lat: &bad, Lng: &lng}); err == nil {
		t.Fatal("expected range error")
	}
	if _, _, ok := (Entidad{}).Coordinates(); ok {
		t.Fatal("entity without coordinates")
	}
}

func TestNewRecurso(t *testing.T) {
	if _, err := NewRecurso(Recurso{RecursoPrograma: "Taller"}); err == nil {
		t.Fatal("expected entity error")
	}
	ini := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	fin := ini.AddDate(0, 0, -1)
	if _, err := NewRecurso(Recurso{EntidadID: 1, RecursoPrograma: "Taller", PeriodoInicio: &ini, PeriodoFin: &fin}); err == nil {
		t.Fatal("expected range error")
	}
	r, err := NewRecurso(Recurso{EntidadID: 1, RecursoPrograma: " Taller "})
	if err != nil || r.RecursoPrograma != "Taller" {
		t.Fatalf("got %+v %v", r, err)
	}
}

func TestSlugifyAndContacto(t *testing.T) {
	if got := Slugify("Zona Norte - Palma/Palmilla"); got != "zona-norte-palma-palmilla" {
		t.Fatalf("slug: %q", got)
	}
	got := ContactoPlano([]Contacto{
		{Nombre: "Ana", Email: "ana@example.org"},
		{},
		{Telefono: "600000000"},
	})
	if got != "Ana - ana@example.org / 600000000" {
		t.Fatalf("contacto: %q", got)
	}
}
