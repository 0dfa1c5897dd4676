package agenda

import "github.com/go-chi/chi/v5"

// Mount añade las rutas de la agenda al router.
func Mount(r chi.Router, handler *Handler) {
	handler.RegisterRoutes(r)
}
