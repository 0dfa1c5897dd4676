// Package respond padroniza el sobre JSON {"data", "error"} de la API.
package respond

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// SuccessEnvelope envuelve respuestas con datos.
type SuccessEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

// ErrorEnvelope envuelve respuestas de error.
type ErrorEnvelope struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

// ErrorBody describe un fallo normalizado.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Códigos de error expuestos por la API.
const (
	CodeValidation  = "VALIDATION"
	CodeNotFound    = "NOT_FOUND"
	CodeUnavailable = "UNAVAILABLE"
	CodeConflict    = "CONFLICT"
	CodeAuth        = "AUTH"
	CodeForbidden   = "FORBIDDEN"
	CodeRateLimit   = "RATE_LIMIT"
	CodeInternal    = "INTERNAL"
)

// JSON escribe un sobre de éxito.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessEnvelope{Data: data, Error: nil})
}

// Error escribe un sobre de error con formato consistente.
func Error(w http.ResponseWriter, status int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Data:  nil,
		Error: &ErrorBody{Code: code, Message: message, Details: details},
	})
}

// Internal registra el error y responde sin filtrar detalles.
func Internal(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("error interno")
	Error(w, http.StatusInternalServerError, CodeInternal, "error interno", nil)
}

// HTML escribe un fragmento ya renderizado.
func HTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
