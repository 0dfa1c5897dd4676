// Package empleo lee el feed RSS de ofertas de empleo de la agencia de
// colocación y lo sirve con la misma estética que la agenda.
package empleo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/arrabal/mapaderecursos/internal/cache"
	"github.com/arrabal/mapaderecursos/internal/clock"
	"github.com/arrabal/mapaderecursos/internal/metrics"
	"github.com/arrabal/mapaderecursos/internal/texto"
)

// ErrFeedUnavailable indica que el feed no respondió o no se pudo leer.
var ErrFeedUnavailable = errors.New("feed de empleo no disponible")

const (
	defaultPerPage   = 9
	maxPerPage       = 50
	palabrasExtracto = 40
	maxFeedBytes     = 4 << 20
)

// Oferta es un item del feed ya preparado para pintar.
type Oferta struct {
	Title         string `json:"title"`
	Location      string `json:"location"`
	Link          string `json:"link"`
	Date          string `json:"date"`
	DateTS        *int64 `json:"date_ts"`
	Excerpt       string `json:"excerpt"`
	PlaceholderBG string `json:"placeholder_bg"`
}

// ClampPerPage acota per_page a 1..50; 0 equivale al valor por defecto.
func ClampPerPage(n int) int {
	if n == 0 {
		n = defaultPerPage
	}
	return min(maxPerPage, max(1, n))
}

// Reader descarga el feed, lo normaliza y cachea el resultado por tamaño de página.
type Reader struct {
	feedURL string
	client  *http.Client
	parser  *gofeed.Parser
	breaker *gobreaker.CircuitBreaker[[]byte]
	cache   cache.Store
	clock   *clock.Clock
	ttl     time.Duration
	color   func() string
	logger  zerolog.Logger
}

func NewReader(feedURL string, client *http.Client, c cache.Store, clk *clock.Clock, ttl time.Duration, logger zerolog.Logger) *Reader {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if clk == nil {
		clk = clock.New(time.UTC)
	}
	r := &Reader{
		feedURL: strings.TrimSpace(feedURL),
		client:  client,
		parser:  gofeed.NewParser(),
		cache:   c,
		clock:   clk,
		ttl:     ttl,
		color:   texto.ColorAleatorio,
		logger:  logger.With().Str("component", "empleo").Logger(),
	}
	r.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "empleo",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues("empleo").Set(float64(to))
			r.logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("cambio de estado del breaker")
		},
	})
	return r
}

// Ofertas devuelve como mucho perPage ofertas. El color de acento se elige de
// nuevo en cada respuesta, también cuando la lista sale de la caché.
func (r *Reader) Ofertas(ctx context.Context, perPage int) ([]Oferta, error) {
	perPage = ClampPerPage(perPage)
	key := cache.Key("mdr_empleo", map[string]string{
		"feed":     r.feedURL,
		"per_page": strconv.Itoa(perPage),
	})

	var ofertas []Oferta
	if !cache.GetJSON(ctx, r.cache, key, &ofertas) {
		var err error
		ofertas, err = r.fetch(ctx, perPage)
		if err != nil {
			r.logger.Error().Err(err).Msg("feed de empleo no disponible")
			return nil, errors.Join(ErrFeedUnavailable, err)
		}
		cache.SetJSON(ctx, r.cache, key, ofertas, r.ttl)
	}

	for i := range ofertas {
		ofertas[i].PlaceholderBG = r.color()
	}
	return ofertas, nil
}

func (r *Reader) fetch(ctx context.Context, perPage int) ([]Oferta, error) {
	if r.feedURL == "" {
		return nil, errors.New("EMPLEO_FEED_URL vacío")
	}

	start := time.Now()
	body, err := r.breaker.Execute(func() ([]byte, error) {
		return r.download(ctx)
	})
	metrics.FeedFetchDuration.WithLabelValues("empleo").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FeedFetchErrors.WithLabelValues("empleo").Inc()
		return nil, err
	}

	feed, err := r.parser.Parse(bytes.NewReader(body))
	if err != nil {
		metrics.FeedFetchErrors.WithLabelValues("empleo").Inc()
		return nil, fmt.Errorf("rss inválido: %w", err)
	}

	out := make([]Oferta, 0, min(perPage, len(feed.Items)))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		out = append(out, r.mapItem(item))
		if len(out) >= perPage {
			break
		}
	}
	return out, nil
}

func (r *Reader) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/rss+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("feed vacío")
	}
	return body, nil
}

// mapItem separa "Puesto | Ubicación" y prepara fecha y extracto.
func (r *Reader) mapItem(item *gofeed.Item) Oferta {
	raw := texto.StripTags(item.Title)
	title, location := raw, ""
	if before, after, ok := strings.Cut(raw, "|"); ok {
		title, location = strings.TrimSpace(before), strings.TrimSpace(after)
		if title == "" {
			title = raw
		}
	}

	o := Oferta{
		Title:    title,
		Location: location,
		Link:     strings.TrimSpace(item.Link),
		Excerpt:  texto.TrimWords(texto.StripTags(item.Description), palabrasExtracto),
	}
	if item.PublishedParsed != nil {
		t := item.PublishedParsed.In(r.clock.Location())
		ts := t.Unix()
		o.DateTS = &ts
		o.Date = texto.FormatFecha(t)
	}
	return o
}
