package mapa

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/arrabal/mapaderecursos/internal/cache"
	"github.com/arrabal/mapaderecursos/internal/clock"
	"github.com/arrabal/mapaderecursos/internal/geo"
	"github.com/arrabal/mapaderecursos/internal/metrics"
	"github.com/arrabal/mapaderecursos/internal/repo"
)

// ErrEntidadRequerida se devuelve al listar recursos sin entidad válida.
var ErrEntidadRequerida = errors.New("entidad requerida")

// Store es el colaborador de persistencia de las lecturas públicas.
type Store interface {
	BuscarEntidades(ctx context.Context, f Filtro, today time.Time, limit int) ([]repo.Entidad, error)
	RecursosVisibles(ctx context.Context, entidadID int64, today time.Time) ([]repo.Recurso, error)
	Filtros(ctx context.Context) (repo.Filtros, error)
	EntidadPorSlug(ctx context.Context, slug string, today time.Time) (repo.EntidadDetalle, error)
}

// Options fija los TTL y límites del servicio.
type Options struct {
	EntidadesTTL time.Duration
	FiltrosTTL   time.Duration
	MaxEntidades int
	SiteURL      string
}

// Service aplica caché de lectura sobre Store. Con cache nil el resultado es
// el mismo, solo más lento.
type Service struct {
	store  Store
	cache  cache.Store
	clock  *clock.Clock
	opts   Options
	logger zerolog.Logger
}

func NewService(store Store, c cache.Store, clk *clock.Clock, opts Options, logger zerolog.Logger) *Service {
	if opts.MaxEntidades <= 0 {
		opts.MaxEntidades = 2000
	}
	if clk == nil {
		clk = clock.New(time.UTC)
	}
	return &Service{
		store:  store,
		cache:  c,
		clock:  clk,
		opts:   opts,
		logger: logger.With().Str("component", "mapa").Logger(),
	}
}

// Entidades ejecuta la búsqueda geográfica con caché por parámetros. El día
// forma parte de la clave para que la vigencia no sobreviva a medianoche.
func (s *Service) Entidades(ctx context.Context, f Filtro) ([]repo.Entidad, error) {
	today := s.clock.Today()
	params := f.Params()
	params["hoy"] = repo.DateParam(today)
	key := cache.Key("mdr_entidades", params)

	var entidades []repo.Entidad
	if cache.GetJSON(ctx, s.cache, key, &entidades) {
		return entidades, nil
	}

	entidades, err := s.store.BuscarEntidades(ctx, f, today, s.opts.MaxEntidades)
	if err != nil {
		return nil, fmt.Errorf("buscar entidades: %w", err)
	}
	if entidades == nil {
		entidades = make([]repo.Entidad, 0)
	}
	metrics.EntidadesReturned.Observe(float64(len(entidades)))

	cache.SetJSON(ctx, s.cache, key, entidades, s.opts.EntidadesTTL)
	return entidades, nil
}

// EntidadesCerca aplica el filtro de radio exacto sobre el resultado del bbox.
func (s *Service) EntidadesCerca(ctx context.Context, f Filtro, centro geo.Point, radioKm float64) ([]repo.Entidad, error) {
	entidades, err := s.Entidades(ctx, f)
	if err != nil {
		return nil, err
	}
	return geo.WithinRadius(entidades, centro, radioKm), nil
}

func (s *Service) Recursos(ctx context.Context, entidadID int64) ([]repo.Recurso, error) {
	if entidadID <= 0 {
		return nil, ErrEntidadRequerida
	}
	today := s.clock.Today()
	key := cache.Key("mdr_recursos", map[string]string{
		"entidad": strconv.FormatInt(entidadID, 10),
		"hoy":     repo.DateParam(today),
	})

	var recursos []repo.Recurso
	if cache.GetJSON(ctx, s.cache, key, &recursos) {
		return recursos, nil
	}

	recursos, err := s.store.RecursosVisibles(ctx, entidadID, today)
	if err != nil {
		return nil, fmt.Errorf("listar recursos: %w", err)
	}
	if recursos == nil {
		recursos = make([]repo.Recurso, 0)
	}

	cache.SetJSON(ctx, s.cache, key, recursos, s.opts.EntidadesTTL)
	return recursos, nil
}

// Filtros nunca falla: si la base no responde se devuelven listas vacías
// y no se cachea.
func (s *Service) Filtros(ctx context.Context) repo.Filtros {
	key := cache.Key("mdr_filtros", nil)

	var filtros repo.Filtros
	if cache.GetJSON(ctx, s.cache, key, &filtros) {
		return filtros
	}

	filtros, err := s.store.Filtros(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("no se pudieron cargar los filtros")
		return repo.Filtros{
			Zonas:         []repo.Taxonomia{},
			Ambitos:       []repo.Taxonomia{},
			Subcategorias: []repo.Subcategoria{},
			Servicios:     []repo.Servicio{},
		}
	}

	cache.SetJSON(ctx, s.cache, key, filtros, s.opts.FiltrosTTL)
	return filtros
}

// Entidad devuelve la ficha pública con sus recursos visibles y enlaces.
func (s *Service) Entidad(ctx context.Context, slug string) (repo.EntidadDetalle, error) {
	slug = repo.Slugify(slug)
	if slug == "" {
		return repo.EntidadDetalle{}, repo.ErrNotFound
	}
	today := s.clock.Today()
	key := cache.Key("mdr_entidad", map[string]string{"slug": slug, "hoy": repo.DateParam(today)})

	var detalle repo.EntidadDetalle
	if cache.GetJSON(ctx, s.cache, key, &detalle) {
		return detalle, nil
	}

	detalle, err := s.store.EntidadPorSlug(ctx, slug, today)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return detalle, err
		}
		return detalle, fmt.Errorf("ficha de entidad: %w", err)
	}
	detalle.MapsURL = mapsURL(detalle.Entidad)
	detalle.WhatsAppURL = whatsAppURL(detalle.Entidad, s.opts.SiteURL)

	cache.SetJSON(ctx, s.cache, key, detalle, s.opts.EntidadesTTL)
	return detalle, nil
}

func rawURLEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func mapsURL(e repo.Entidad) string {
	const base = "https://www.google.com/maps/search/?api=1&query="
	if lat, lng, ok := e.Coordinates(); ok {
		return base + rawURLEncode(strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lng, 'f', -1, 64))
	}
	if strings.TrimSpace(e.Direccion) != "" {
		return base + rawURLEncode(e.Direccion)
	}
	return ""
}

func whatsAppURL(e repo.Entidad, siteURL string) string {
	parts := []string{e.Nombre, e.Direccion, deref(e.Email), deref(e.Telefono)}
	if siteURL != "" {
		parts = append(parts, siteURL+"/entidades/"+e.Slug+"/")
	}
	var keep []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keep = append(keep, p)
		}
	}
	return "https://wa.me/?text=" + rawURLEncode(strings.Join(keep, " | "))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
