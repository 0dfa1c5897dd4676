package admin

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/arrabal/mapaderecursos/internal/ajustes"
	"github.com/arrabal/mapaderecursos/internal/auth"
	"github.com/arrabal/mapaderecursos/internal/http/middleware"
	"github.com/arrabal/mapaderecursos/internal/http/respond"
	"github.com/arrabal/mapaderecursos/internal/informe"
	"github.com/arrabal/mapaderecursos/internal/repo"
	"github.com/arrabal/mapaderecursos/internal/storage"
)

const maxBody = 1 << 20

// Handler publica la API de escritura del panel bajo /admin.
type Handler struct {
	service    *Service
	jwt        *auth.JWTManager
	loginLimit func(http.Handler) http.Handler
}

func NewHandler(service *Service, jwt *auth.JWTManager, loginLimit func(http.Handler) http.Handler) *Handler {
	return &Handler{service: service, jwt: jwt, loginLimit: loginLimit}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		login := http.Handler(http.HandlerFunc(h.handleLogin))
		if h.loginLimit != nil {
			login = h.loginLimit(login)
		}
		r.Method(http.MethodPost, "/login", login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(h.jwt))
			r.Use(middleware.RequireAdmin)

			for _, tipo := range Taxonomias {
				fn := func(ctx context.Context, adminID, id int64, in TaxonomiaInput) (repo.Taxonomia, error) {
					return h.service.GuardarTaxonomia(ctx, adminID, tipo, id, in)
				}
				r.Post("/"+string(tipo), guardar(fn))
				r.Put("/"+string(tipo)+"/{id}", guardar(fn))
			}
			r.Post("/servicios", guardar(h.service.GuardarServicio))
			r.Put("/servicios/{id}", guardar(h.service.GuardarServicio))
			r.Post("/subcategorias", guardar(h.service.GuardarSubcategoria))
			r.Put("/subcategorias/{id}", guardar(h.service.GuardarSubcategoria))
			r.Post("/entidades", guardar(h.service.GuardarEntidad))
			r.Put("/entidades/{id}", guardar(h.service.GuardarEntidad))
			r.Post("/recursos", guardar(h.service.GuardarRecurso))
			r.Put("/recursos/{id}", guardar(h.service.GuardarRecurso))
			for tipo := range tablas {
				r.Delete("/"+string(tipo)+"/{id}", h.borrar(tipo))
			}

			r.Put("/ajustes", h.handleAjustes)
			r.Post("/cache/flush", h.handleFlush)
			r.Post("/informes", h.handleInforme)
		})
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &payload) {
		return
	}
	if strings.TrimSpace(payload.Email) == "" || payload.Password == "" {
		respond.Error(w, http.StatusBadRequest, respond.CodeValidation, "email y contraseña obligatorios", nil)
		return
	}

	sesion, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, sesion)
}

// guardar adapta una operación de alta/edición: POST crea y PUT /{id} actualiza.
func guardar[T, O any](fn func(ctx context.Context, adminID, id int64, in T) (O, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id int64
		if raw := chi.URLParam(r, "id"); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || parsed <= 0 {
				respond.Error(w, http.StatusBadRequest, respond.CodeValidation, "id inválido", nil)
				return
			}
			id = parsed
		}

		var in T
		if !decode(w, r, &in) {
			return
		}

		out, err := fn(r.Context(), middleware.GetAdminID(r.Context()), id, in)
		if err != nil {
			writeError(w, err)
			return
		}
		status := http.StatusOK
		if id == 0 {
			status = http.StatusCreated
		}
		respond.JSON(w, status, out)
	}
}

func (h *Handler) borrar(tipo Tipo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			respond.Error(w, http.StatusBadRequest, respond.CodeValidation, "id inválido", nil)
			return
		}
		if err := h.service.Borrar(r.Context(), middleware.GetAdminID(r.Context()), tipo, id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) handleAjustes(w http.ResponseWriter, r *http.Request) {
	var c ajustes.Cambio
	if !decode(w, r, &c) {
		return
	}
	out, err := h.service.ActualizarAjustes(r.Context(), middleware.GetAdminID(r.Context()), c)
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleFlush(w http.ResponseWriter, r *http.Request) {
	if err := h.service.VaciarCache(r.Context(), middleware.GetAdminID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]bool{"flushed": true})
}

func (h *Handler) handleInforme(w http.ResponseWriter, r *http.Request) {
	var rango informe.Rango
	if !decode(w, r, &rango) {
		return
	}
	res, err := h.service.GenerarInforme(r.Context(), middleware.GetAdminID(r.Context()), rango)
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, res)
}

// decode admite cuerpo vacío como objeto vacío.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(w, http.StatusBadRequest, respond.CodeValidation, "JSON inválido", nil)
		return false
	}
	return true
}

type campoInvalido struct {
	Campo string `json:"campo"`
	Regla string `json:"regla"`
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidacion), errors.Is(err, repo.ErrCoordenadas):
		var details []campoInvalido
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				details = append(details, campoInvalido{Campo: fe.Field(), Regla: fe.Tag()})
			}
		}
		msg := "datos inválidos"
		if details == nil {
			msg = err.Error()
		}
		respond.Error(w, http.StatusBadRequest, respond.CodeValidation, msg, details)
	case errors.Is(err, ErrCredenciales):
		respond.Error(w, http.StatusUnauthorized, respond.CodeAuth, "credenciales inválidas", nil)
	case errors.Is(err, repo.ErrNotFound):
		respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "registro no encontrado", nil)
	case errors.Is(err, informe.ErrSinRecursos):
		respond.Error(w, http.StatusNotFound, respond.CodeNotFound, err.Error(), nil)
	case errors.Is(err, ErrConflict):
		respond.Error(w, http.StatusConflict, respond.CodeConflict, err.Error(), nil)
	case errors.Is(err, storage.ErrNoConfigurado):
		respond.Error(w, http.StatusServiceUnavailable, respond.CodeUnavailable, "almacenamiento no configurado", nil)
	default:
		respond.Internal(w, err)
	}
}
