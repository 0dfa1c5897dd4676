package middleware

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/arrabal/mapaderecursos/internal/http/respond"
)

// Recover devuelve un error saneado si un handler entra en pánico.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("pánico recuperado")
				respond.Error(w, http.StatusInternalServerError, respond.CodeInternal, "error interno", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
