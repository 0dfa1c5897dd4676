package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arrabal/mapaderecursos/internal/admin"
	"github.com/arrabal/mapaderecursos/internal/agenda"
	"github.com/arrabal/mapaderecursos/internal/ajustes"
	"github.com/arrabal/mapaderecursos/internal/auth"
	"github.com/arrabal/mapaderecursos/internal/cache"
	"github.com/arrabal/mapaderecursos/internal/config"
	"github.com/arrabal/mapaderecursos/internal/empleo"
	httpmiddleware "github.com/arrabal/mapaderecursos/internal/http/middleware"
	"github.com/arrabal/mapaderecursos/internal/http/respond"
	"github.com/arrabal/mapaderecursos/internal/mapa"
)

// Pinger comprueba la conexión con la base de datos.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps reúne los servicios ya construidos; un módulo sin dependencia no se monta.
type Deps struct {
	DB          Pinger
	Cache       cache.Store
	JWT         *auth.JWTManager
	Mapa        *mapa.Service
	Ajustes     *ajustes.Service
	Agenda      agenda.EventLister
	Empleo      empleo.Lister
	Admin       *admin.Service
	Placeholder string
}

type Handler struct {
	db    Pinger
	cache cache.Store
}

// NewRouter devuelve el router configurado.
func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	h := &Handler{db: deps.DB, cache: deps.Cache}
	publicLimiter := httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(httpmiddleware.IPRateLimit(publicLimiter))

		radio := func() float64 { return cfg.Mapa.DefaultRadiusKm }
		if deps.Ajustes != nil {
			radio = deps.Ajustes.RadioDefecto
			ajustes.Mount(api, ajustes.NewHandler(deps.Ajustes))
		}
		if deps.Mapa != nil {
			mapa.Mount(api, mapa.NewHandler(deps.Mapa, radio))
		}
		if deps.Agenda != nil {
			agenda.Mount(api, agenda.NewHandler(deps.Agenda))
		}
		if deps.Empleo != nil {
			empleo.Mount(api, empleo.NewHandler(deps.Empleo, deps.Placeholder))
		}
		if deps.Admin != nil {
			loginLimit := httpmiddleware.LoginRateLimit(cfg.RateLimitLogin.Burst, loginWindow(cfg.RateLimitLogin))
			admin.Mount(api, admin.NewHandler(deps.Admin, deps.JWT, loginLimit))
		}
	})

	return r
}

// loginWindow convierte el límite por segundo en la ventana que tarda en rellenarse la ráfaga.
func loginWindow(rl config.RateLimitConfig) time.Duration {
	if rl.RequestsPerSecond <= 0 || rl.Burst <= 0 {
		return time.Minute
	}
	return time.Duration(float64(rl.Burst) / rl.RequestsPerSecond * float64(time.Second))
}

// Health valida Postgres y hace un ida y vuelta por la caché.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	var dbErr, cacheErr string
	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			dbErr = err.Error()
		}
	}
	backend := ""
	if h.cache != nil {
		backend = h.cache.Name()
		h.cache.Set(ctx, "mdr_health", []byte("ok"), 10*time.Second)
		if v, ok := h.cache.Get(ctx, "mdr_health"); !ok || string(v) != "ok" {
			cacheErr = "lectura fallida"
		}
	}

	if dbErr != "" || cacheErr != "" {
		respond.Error(w, http.StatusServiceUnavailable, respond.CodeUnavailable, "dependencias no disponibles", map[string]string{
			"db":    dbErr,
			"cache": cacheErr,
		})
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok", "cache": backend})
}
