package ajustes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arrabal/mapaderecursos/internal/http/respond"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ajustes", h.handleGet)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, h.service.Actual())
}
