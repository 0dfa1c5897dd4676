package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Caché de consultas
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mdr_cache_requests_total",
			Help: "Lecturas de caché por backend y resultado (hit, miss, error)",
		},
		[]string{"backend", "result"},
	)

	CacheFlushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mdr_cache_flushes_total",
			Help: "Invalidaciones globales de caché",
		},
		[]string{"backend"},
	)

	// Fuentes remotas de la agenda y el empleo
	FeedFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mdr_feed_fetch_duration_seconds",
			Help:    "Duración de cada petición a una fuente remota",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)

	FeedFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mdr_feed_fetch_errors_total",
			Help: "Fallos al consultar una fuente remota",
		},
		[]string{"source"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mdr_feed_breaker_state",
			Help: "Estado del circuit breaker por fuente (0 cerrado, 1 semiabierto, 2 abierto)",
		},
		[]string{"source"},
	)

	// API HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mdr_http_requests_total",
			Help: "Peticiones HTTP atendidas",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mdr_http_request_duration_seconds",
			Help:    "Latencia de las peticiones HTTP",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	EntidadesReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mdr_entidades_result_size",
			Help:    "Entidades devueltas por búsqueda",
			Buckets: []float64{0, 1, 10, 50, 100, 500, 1000, 2000},
		},
	)
)

// StatusClass agrupa códigos HTTP para no disparar la cardinalidad.
func StatusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
