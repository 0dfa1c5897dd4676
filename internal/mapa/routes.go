package mapa

import (
	"github.com/go-chi/chi/v5"
)

// Mount añade las rutas públicas del mapa al router.
func Mount(r chi.Router, handler *Handler) {
	handler.RegisterRoutes(r)
}
