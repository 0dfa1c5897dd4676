package ajustes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type memStore struct {
	saved   Guardados
	by      *int64
	saveErr error
	getErr  error
}

func (m *memStore) Get(context.Context) (Guardados, time.Time, error) {
	return m.saved, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), m.getErr
}

func (m *memStore) Save(_ context.Context, g Guardados, by *int64) (time.Time, error) {
	if m.saveErr != nil {
		return time.Time{}, m.saveErr
	}
	m.saved, m.by = g, by
	return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), nil
}

func base() Ajustes {
	return Ajustes{MapProvider: "osm", DefaultRadiusKm: 5, FallbackLat: 36.7213, FallbackLng: -4.4214}
}

func ptr[T any](v T) *T { return &v }

func TestLoadMergesOverDefaults(t *testing.T) {
	store := &memStore{saved: Guardados{DefaultRadiusKm: ptr(12.5), DefaultZona: ptr("Palma-Palmilla")}}
	svc := NewService(store, base(), zerolog.Nop())

	if svc.RadioDefecto() != 5 {
		t.Fatalf("before load: %v", svc.RadioDefecto())
	}
	if err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	got := svc.Actual()
	if got.DefaultRadiusKm != 12.5 || got.DefaultZona != "Palma-Palmilla" || got.MapProvider != "osm" || got.FallbackLat != 36.7213 {
		t.Fatalf("merged: %+v", got)
	}
}

func TestLoadError(t *testing.T) {
	svc := NewService(&memStore{getErr: errors.New("down")}, base(), zerolog.Nop())
	if err := svc.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if svc.Actual().DefaultRadiusKm != 5 {
		t.Fatal("defaults must survive a failed load")
	}
}

func TestUpdate(t *testing.T) {
	store := &memStore{saved: Guardados{DefaultZona: ptr("Centro")}}
	svc := NewService(store, base(), zerolog.Nop())
	if err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	admin := int64(7)
	got, err := svc.Update(context.Background(), Cambio{MapProvider: ptr(" Mapbox "), MapboxToken: ptr(" pk.abc "), DefaultRadiusKm: ptr(3.0)}, &admin)
	if err != nil {
		t.Fatal(err)
	}
	if got.MapProvider != "mapbox" || got.MapboxToken != "pk.abc" || got.DefaultRadiusKm != 3 || got.DefaultZona != "Centro" {
		t.Fatalf("updated: %+v", got)
	}
	if store.by == nil || *store.by != 7 || store.saved.DefaultZona == nil {
		t.Fatalf("saved: %+v", store.saved)
	}
	if svc.RadioDefecto() != 3 {
		t.Fatalf("radio: %v", svc.RadioDefecto())
	}

	if _, err := svc.Update(context.Background(), Cambio{MapProvider: ptr("google")}, nil); !errors.Is(err, ErrInvalido) {
		t.Fatalf("expected ErrInvalido, got %v", err)
	}
	if _, err := svc.Update(context.Background(), Cambio{DefaultRadiusKm: ptr(-1.0)}, nil); !errors.Is(err, ErrInvalido) {
		t.Fatalf("expected ErrInvalido, got %v", err)
	}

	store.saveErr = errors.New("down")
	if _, err := svc.Update(context.Background(), Cambio{DefaultRadiusKm: ptr(9.0)}, nil); err == nil {
		t.Fatal("expected save error")
	}
	if svc.RadioDefecto() != 3 {
		t.Fatal("failed save must not change current settings")
	}
}

func TestHandleGet(t *testing.T) {
	svc := NewService(&memStore{}, base(), zerolog.Nop())
	r := chi.NewRouter()
	Mount(r, NewHandler(svc))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ajustes", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"default_radius_km":5`) {
		t.Fatalf("%d %s", rec.Code, rec.Body.String())
	}
}
