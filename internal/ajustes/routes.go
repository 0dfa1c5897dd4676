package ajustes

import "github.com/go-chi/chi/v5"

func Mount(r chi.Router, handler *Handler) {
	handler.RegisterRoutes(r)
}
