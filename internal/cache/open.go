package cache

import (
	"context"
	"fmt"

	"github.com/arrabal/mapaderecursos/internal/config"
)

const (
	ScopeConsultas = "consultas"
	ScopeFeeds     = "feeds"
)

// Stores separa las consultas del mapa, que se vacían con cada escritura del
// panel, de los feeds externos, que solo caducan por TTL.
type Stores struct {
	Consultas Store
	Feeds     Store
	close     []func() error
}

// Close libera conexiones y detiene los barridos de memoria.
func (s *Stores) Close() error {
	var first error
	for _, fn := range s.close {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open construye el backend elegido en la configuración con un ámbito para
// consultas y otro para feeds.
func Open(ctx context.Context, cfg config.CacheConfig) (*Stores, error) {
	switch cfg.Backend {
	case "redis":
		r, err := OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Consultas: r.Scope(ScopeConsultas),
			Feeds:     r.Scope(ScopeFeeds),
			close:     []func() error{r.Close},
		}, nil
	case "badger":
		b, err := OpenBadger(cfg.BadgerPath)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Consultas: b.Scope(ScopeConsultas),
			Feeds:     b.Scope(ScopeFeeds),
			close:     []func() error{b.Close},
		}, nil
	case "memory", "":
		consultas, feeds := NewMemory(), NewMemory()
		stopConsultas := consultas.StartJanitor(janitorInterval)
		stopFeeds := feeds.StartJanitor(janitorInterval)
		return &Stores{
			Consultas: consultas,
			Feeds:     feeds,
			close: []func() error{
				func() error { stopConsultas(); return nil },
				func() error { stopFeeds(); return nil },
			},
		}, nil
	default:
		return nil, fmt.Errorf("backend de caché desconocido: %s", cfg.Backend)
	}
}
