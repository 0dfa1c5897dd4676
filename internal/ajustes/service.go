// Package ajustes guarda la configuración pública del mapa que el
// administrador puede cambiar sin reiniciar.
package ajustes

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/arrabal/mapaderecursos/internal/config"
)

var ErrInvalido = errors.New("ajustes inválidos")

// Ajustes es la vista efectiva: entorno más lo guardado en base de datos.
type Ajustes struct {
	MapProvider     string    `json:"map_provider"`
	MapboxToken     string    `json:"mapbox_token"`
	DefaultRadiusKm float64   `json:"default_radius_km"`
	FallbackLat     float64   `json:"fallback_lat"`
	FallbackLng     float64   `json:"fallback_lng"`
	DefaultZona     string    `json:"default_zona"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Defaults construye los ajustes de partida a partir del entorno.
func Defaults(cfg *config.Config) Ajustes {
	return Ajustes{
		MapProvider:     cfg.Mapa.Provider,
		MapboxToken:     cfg.Mapa.MapboxToken,
		DefaultRadiusKm: cfg.Mapa.DefaultRadiusKm,
		FallbackLat:     cfg.Mapa.FallbackLat,
		FallbackLng:     cfg.Mapa.FallbackLng,
		DefaultZona:     cfg.Mapa.DefaultZona,
	}
}

// Store abstrae la persistencia de la fila única.
type Store interface {
	Get(ctx context.Context) (Guardados, time.Time, error)
	Save(ctx context.Context, g Guardados, updatedBy *int64) (time.Time, error)
}

type Service struct {
	store    Store
	defaults Ajustes
	logger   zerolog.Logger

	mu      sync.RWMutex
	saved   Guardados
	current Ajustes
}

func NewService(store Store, defaults Ajustes, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		defaults: defaults,
		current:  defaults,
		logger:   logger.With().Str("component", "ajustes").Logger(),
	}
}

// Load lee la base de datos y recalcula los ajustes efectivos.
func (s *Service) Load(ctx context.Context) error {
	g, updatedAt, err := s.store.Get(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.saved = g
	s.current = merge(s.defaults, g)
	s.current.UpdatedAt = updatedAt
	s.mu.Unlock()
	return nil
}

// Actual devuelve una copia de los ajustes efectivos.
func (s *Service) Actual() Ajustes {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// RadioDefecto es el radio que se aplica cuando la petición no trae uno.
func (s *Service) RadioDefecto() float64 {
	return s.Actual().DefaultRadiusKm
}

// Cambio son los campos que el administrador quiere modificar.
type Cambio struct {
	MapProvider     *string  `json:"map_provider" validate:"omitempty,max=20"`
	MapboxToken     *string  `json:"mapbox_token" validate:"omitempty,max=255"`
	DefaultRadiusKm *float64 `json:"default_radius_km" validate:"omitempty,gt=0,lte=100"`
	FallbackLat     *float64 `json:"fallback_lat" validate:"omitempty,gte=-90,lte=90"`
	FallbackLng     *float64 `json:"fallback_lng" validate:"omitempty,gte=-180,lte=180"`
	DefaultZona     *string  `json:"default_zona" validate:"omitempty,max=120"`
}

// Update mezcla el cambio con lo guardado, persiste y publica el resultado.
func (s *Service) Update(ctx context.Context, c Cambio, adminID *int64) (Ajustes, error) {
	if c.MapProvider != nil {
		v := strings.ToLower(strings.TrimSpace(*c.MapProvider))
		if v != "osm" && v != "mapbox" {
			return Ajustes{}, ErrInvalido
		}
		c.MapProvider = &v
	}
	if c.DefaultRadiusKm != nil && *c.DefaultRadiusKm <= 0 {
		return Ajustes{}, ErrInvalido
	}

	s.mu.RLock()
	g := s.saved
	s.mu.RUnlock()

	if c.MapProvider != nil {
		g.MapProvider = c.MapProvider
	}
	if c.MapboxToken != nil {
		g.MapboxToken = trimmed(*c.MapboxToken)
	}
	if c.DefaultRadiusKm != nil {
		g.DefaultRadiusKm = c.DefaultRadiusKm
	}
	if c.FallbackLat != nil {
		g.FallbackLat = c.FallbackLat
	}
	if c.FallbackLng != nil {
		g.FallbackLng = c.FallbackLng
	}
	if c.DefaultZona != nil {
		g.DefaultZona = trimmed(*c.DefaultZona)
	}

	updatedAt, err := s.store.Save(ctx, g, adminID)
	if err != nil {
		return Ajustes{}, err
	}

	s.mu.Lock()
	s.saved = g
	s.current = merge(s.defaults, g)
	s.current.UpdatedAt = updatedAt
	out := s.current
	s.mu.Unlock()

	s.logger.Info().Msg("ajustes actualizados")
	return out, nil
}

func trimmed(v string) *string {
	v = strings.TrimSpace(v)
	return &v
}

func merge(base Ajustes, g Guardados) Ajustes {
	out := base
	if g.MapProvider != nil {
		out.MapProvider = *g.MapProvider
	}
	if g.MapboxToken != nil {
		out.MapboxToken = *g.MapboxToken
	}
	if g.DefaultRadiusKm != nil && *g.DefaultRadiusKm > 0 {
		out.DefaultRadiusKm = *g.DefaultRadiusKm
	}
	if g.FallbackLat != nil {
		out.FallbackLat = *g.FallbackLat
	}
	if g.FallbackLng != nil {
		out.FallbackLng = *g.FallbackLng
	}
	if g.DefaultZona != nil {
		out.DefaultZona = *g.DefaultZona
	}
	return out
}
