// Package cache implementa la caché de consultas con invalidación global.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/arrabal/mapaderecursos/internal/metrics"
)

// Store es el contrato mínimo: get, set con TTL y vaciado total.
// Un error del backend nunca llega al llamador como fallo; cuenta como miss.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	FlushAll(ctx context.Context) error
	Name() string
}

// Key deriva una clave estable de los parámetros de consulta. Los mapas se
// serializan con las claves ordenadas, así que el orden de iteración no influye.
func Key(prefix string, params map[string]string) string {
	payload, err := json.Marshal(params)
	if err != nil {
		payload = []byte(prefix)
	}
	sum := sha256.Sum256(payload)
	return prefix + ":" + hex.EncodeToString(sum[:16])
}

// GetJSON lee y decodifica; un payload corrupto se trata como miss.
func GetJSON(ctx context.Context, s Store, key string, dst any) bool {
	if s == nil {
		return false
	}
	data, ok := s.Get(ctx, key)
	if !ok {
		metrics.CacheRequests.WithLabelValues(s.Name(), "miss").Inc()
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		metrics.CacheRequests.WithLabelValues(s.Name(), "error").Inc()
		return false
	}
	metrics.CacheRequests.WithLabelValues(s.Name(), "hit").Inc()
	return true
}

// SetJSON codifica y guarda sin propagar errores.
func SetJSON(ctx context.Context, s Store, key string, value any, ttl time.Duration) {
	if s == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	s.Set(ctx, key, payload, ttl)
}

// Flush vacía la caché y deja constancia en log y métricas.
func Flush(ctx context.Context, s Store, logger zerolog.Logger) {
	if s == nil {
		return
	}
	if err := s.FlushAll(ctx); err != nil {
		logger.Warn().Err(err).Str("backend", s.Name()).Msg("no se pudo vaciar la caché")
		return
	}
	metrics.CacheFlushes.WithLabelValues(s.Name()).Inc()
	logger.Debug().Str("backend", s.Name()).Msg("caché vaciada")
}
