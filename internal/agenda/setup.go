package agenda

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/arrabal/mapaderecursos/internal/cache"
	"github.com/arrabal/mapaderecursos/internal/clock"
	"github.com/arrabal/mapaderecursos/internal/config"
)

// NewFromConfig arma el agregador: la agenda de WordPress es la fuente
// principal y, si hay PostsURL, las entradas publicadas de la categoría
// configurada son la secundaria.
func NewFromConfig(cfg config.AgendaConfig, c cache.Store, clk *clock.Clock, logger zerolog.Logger) *Aggregator {
	client := &http.Client{Timeout: cfg.HTTPTimeout}
	norm := Normalizer{
		Extractor:   NewJetFieldExtractor(clk.Location(), logger),
		Placeholder: cfg.PlaceholderURL,
		Location:    clk.Location(),
	}

	primary := NewWPSource("agenda", cfg.APIURL, nil, client, norm.Evento, logger)

	var secondary []Source
	if cfg.PostsURL != "" {
		extra := url.Values{
			"categories": {strconv.Itoa(cfg.PostsCategory)},
			"status":     {"publish"},
		}
		secondary = append(secondary, NewWPSource("posts", cfg.PostsURL, extra, client, norm.Post, logger))
	} else {
		logger.Warn().Str("component", "agenda").Msg("AGENDA_POSTS_URL vacío: la agenda solo usa la fuente principal")
	}

	return NewAggregator(primary, secondary, c, clk, Options{FetchCount: cfg.FetchCount, CacheTTL: cfg.CacheTTL}, logger)
}
