package mapa

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/arrabal/mapaderecursos/internal/geo"
	"github.com/arrabal/mapaderecursos/internal/http/respond"
	"github.com/arrabal/mapaderecursos/internal/repo"
)

// Handler expone las lecturas públicas del mapa.
type Handler struct {
	service      *Service
	radioDefecto func() float64
}

// NewHandler recibe el radio por defecto como función porque los ajustes
// pueden cambiar en caliente.
func NewHandler(service *Service, radioDefecto func() float64) *Handler {
	if radioDefecto == nil {
		radioDefecto = func() float64 { return 5 }
	}
	return &Handler{service: service, radioDefecto: radioDefecto}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/entidades", h.handleEntidades)
	r.Get("/entidades/{slug}", h.handleEntidad)
	r.Get("/recursos", h.handleRecursos)
	r.Get("/filtros", h.handleFiltros)
}

func (h *Handler) handleEntidades(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := FiltroFromQuery(q)

	var (
		entidades []repo.Entidad
		err       error
	)
	if centro, ok := parseCentro(q.Get("lat"), q.Get("lng")); ok {
		radio := parsePositive(q.Get("radio_km"))
		if radio == 0 {
			radio = h.radioDefecto()
		}
		entidades, err = h.service.EntidadesCerca(r.Context(), f, centro, radio)
	} else {
		entidades, err = h.service.Entidades(r.Context(), f)
	}
	if err != nil {
		respond.Internal(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, entidades)
}

func (h *Handler) handleRecursos(w http.ResponseWriter, r *http.Request) {
	entidadID, _ := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("entidad_id")), 10, 64)

	recursos, err := h.service.Recursos(r.Context(), entidadID)
	if err != nil {
		if errors.Is(err, ErrEntidadRequerida) {
			respond.Error(w, http.StatusBadRequest, respond.CodeValidation, "Entidad requerida", nil)
			return
		}
		respond.Internal(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, recursos)
}

func (h *Handler) handleFiltros(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, h.service.Filtros(r.Context()))
}

func (h *Handler) handleEntidad(w http.ResponseWriter, r *http.Request) {
	detalle, err := h.service.Entidad(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "entidad no encontrada", nil)
			return
		}
		respond.Internal(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, detalle)
}

func parseCentro(rawLat, rawLng string) (geo.Point, bool) {
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(rawLat), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(rawLng), 64)
	if err1 != nil || err2 != nil || math.IsNaN(lat) || math.IsNaN(lng) {
		return geo.Point{}, false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return geo.Point{}, false
	}
	return geo.Point{Lat: lat, Lng: lng}, true
}

func parsePositive(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}
