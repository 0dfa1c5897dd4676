package agenda

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/arrabal/mapaderecursos/internal/metrics"
)

const maxBodyBytes = 8 << 20

// FetchParams son los parámetros que se reenvían a cada fuente.
type FetchParams struct {
	PerPage int
	OrderBy string
	Order   string
	Search  string
}

// Page es el resultado de una fuente: sus items y el total que declara.
type Page struct {
	Items []Evento
	Total int
}

// Source es una colección paginada independiente.
type Source interface {
	Name() string
	Fetch(ctx context.Context, p FetchParams) (Page, error)
}

// WPSource lee un endpoint REST de WordPress. Hace un único intento por
// petición; el breaker solo evita insistir contra un origen caído.
type WPSource struct {
	name      string
	endpoint  string
	extra     url.Values
	client    *http.Client
	normalize func(wpItem) Evento
	breaker   *gobreaker.CircuitBreaker[Page]
	logger    zerolog.Logger
}

// NewWPSource crea la fuente; con endpoint vacío Fetch devuelve una página vacía.
func NewWPSource(name, endpoint string, extra url.Values, client *http.Client, normalize func(wpItem) Evento, logger zerolog.Logger) *WPSource {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	s := &WPSource{
		name:      name,
		endpoint:  strings.TrimRight(endpoint, "/"),
		extra:     extra,
		client:    client,
		normalize: normalize,
		logger:    logger.With().Str("source", name).Logger(),
	}
	s.breaker = gobreaker.NewCircuitBreaker[Page](gobreaker.Settings{
		Name:        "agenda-" + name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			s.logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("cambio de estado del breaker")
		},
	})
	return s
}

func (s *WPSource) Name() string { return s.name }

func (s *WPSource) Fetch(ctx context.Context, p FetchParams) (Page, error) {
	if s.endpoint == "" {
		return Page{Items: []Evento{}}, nil
	}

	start := time.Now()
	page, err := s.breaker.Execute(func() (Page, error) {
		return s.fetch(ctx, p)
	})
	metrics.FeedFetchDuration.WithLabelValues(s.name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FeedFetchErrors.WithLabelValues(s.name).Inc()
		return Page{}, fmt.Errorf("%s: %w", s.name, err)
	}
	return page, nil
}

func (s *WPSource) fetch(ctx context.Context, p FetchParams) (Page, error) {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(p.PerPage))
	q.Set("page", "1")
	q.Set("orderby", p.OrderBy)
	q.Set("order", p.Order)
	q.Set("_embed", "1")
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	for k, vs := range s.extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return Page{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Page{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("http %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Page{}, err
	}
	if len(body) == 0 {
		return Page{}, errors.New("respuesta vacía")
	}

	var items []wpItem
	if err := json.Unmarshal(body, &items); err != nil {
		return Page{}, fmt.Errorf("json inválido: %w", err)
	}

	page := Page{Items: make([]Evento, 0, len(items))}
	for _, item := range items {
		page.Items = append(page.Items, s.normalize(item))
	}
	page.Total, _ = strconv.Atoi(resp.Header.Get("X-WP-Total"))
	if page.Total <= 0 {
		page.Total = len(page.Items)
	}
	return page, nil
}
