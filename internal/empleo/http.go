package empleo

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/arrabal/mapaderecursos/internal/http/respond"
)

// Lister es lo que el handler necesita del lector del feed.
type Lister interface {
	Ofertas(ctx context.Context, perPage int) ([]Oferta, error)
}

type Handler struct {
	ofertas     Lister
	placeholder string
}

func NewHandler(ofertas Lister, placeholder string) *Handler {
	return &Handler{ofertas: ofertas, placeholder: placeholder}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/empleo", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/fragmento", h.handleFragment)
	})
}

func perPageFrom(r *http.Request) int {
	n, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	return ClampPerPage(n)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ofertas, err := h.ofertas.Ofertas(r.Context(), perPageFrom(r))
	if err != nil {
		if errors.Is(err, ErrFeedUnavailable) {
			respond.Error(w, http.StatusServiceUnavailable, respond.CodeUnavailable, MsgNoDisponible, nil)
			return
		}
		respond.Internal(w, err)
		return
	}

	html, err := Render(ofertas, h.placeholder)
	if err != nil {
		respond.Internal(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"items": ofertas,
		"total": len(ofertas),
		"html":  string(html),
	})
}

func (h *Handler) handleFragment(w http.ResponseWriter, r *http.Request) {
	ofertas, err := h.ofertas.Ofertas(r.Context(), perPageFrom(r))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrFeedUnavailable) {
			status = http.StatusServiceUnavailable
		}
		body, _ := RenderMensaje("mdr-agenda-error", MsgNoDisponible)
		respond.HTML(w, status, body)
		return
	}

	body, err := Render(ofertas, h.placeholder)
	if err != nil {
		respond.Internal(w, err)
		return
	}
	respond.HTML(w, http.StatusOK, body)
}
