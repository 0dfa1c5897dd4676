package agenda

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/arrabal/mapaderecursos/internal/http/respond"
)

// EventLister es lo que el handler necesita del agregador.
type EventLister interface {
	Events(ctx context.Context, q Query) (Result, error)
}

// Handler sirve la agenda como JSON y como fragmento HTML.
type Handler struct {
	events EventLister
}

func NewHandler(events EventLister) *Handler {
	return &Handler{events: events}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/agenda", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/fragmento", h.handleFragment)
	})
}

// QueryFromValues lee los parámetros de la agenda de la URL.
func QueryFromValues(v url.Values) Query {
	perPage, _ := strconv.Atoi(v.Get("per_page"))
	page, _ := strconv.Atoi(v.Get("page"))
	return Query{
		PerPage: perPage,
		Page:    page,
		OrderBy: v.Get("orderby"),
		Order:   v.Get("order"),
		Search:  v.Get("search"),
		Mode:    v.Get("mode"),
	}.Normalize()
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := QueryFromValues(r.URL.Query())

	res, err := h.events.Events(r.Context(), q)
	if err != nil {
		if errors.Is(err, ErrPrimaryUnavailable) {
			respond.Error(w, http.StatusServiceUnavailable, respond.CodeUnavailable, MsgNoDisponible, nil)
			return
		}
		respond.Internal(w, err)
		return
	}

	html, err := RenderCards(res.Events)
	if err != nil {
		respond.Internal(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"events":   res.Events,
		"has_more": res.HasMore,
		"html":     html,
	})
}

func (h *Handler) handleFragment(w http.ResponseWriter, r *http.Request) {
	q := QueryFromValues(r.URL.Query())

	res, err := h.events.Events(r.Context(), q)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrPrimaryUnavailable) {
			status = http.StatusServiceUnavailable
		} else {
			log.Error().Err(err).Msg("agenda: error inesperado")
		}
		body, _ := RenderMensaje("mdr-agenda-error", MsgNoDisponible)
		respond.HTML(w, status, body)
		return
	}

	body, err := RenderFragment(q, res)
	if err != nil {
		respond.Internal(w, err)
		return
	}
	respond.HTML(w, http.StatusOK, body)
}
