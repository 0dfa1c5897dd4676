package agenda

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/arrabal/mapaderecursos/internal/cache"
	"github.com/arrabal/mapaderecursos/internal/clock"
	"github.com/arrabal/mapaderecursos/internal/texto"
)

// ErrPrimaryUnavailable indica que la fuente principal de eventos falló.
var ErrPrimaryUnavailable = errors.New("agenda no disponible")

const (
	defaultPerPage = 9
	maxPerPage     = 50
)

// Query es la petición de una página de la agenda.
type Query struct {
	PerPage int
	Page    int
	OrderBy string
	Order   string
	Search  string
	Mode    string
}

// Normalize acota per_page a 1..50 y aplica los valores por defecto.
func (q Query) Normalize() Query {
	if q.PerPage == 0 {
		q.PerPage = defaultPerPage
	}
	q.PerPage = min(maxPerPage, max(1, q.PerPage))
	q.Page = max(1, q.Page)
	q.Order = strings.ToLower(strings.TrimSpace(q.Order))
	if q.Order != "asc" {
		q.Order = "desc"
	}
	q.OrderBy = strings.ToLower(strings.TrimSpace(q.OrderBy))
	if q.OrderBy != "title" {
		q.OrderBy = "date"
	}
	q.Mode = strings.ToLower(strings.TrimSpace(q.Mode))
	if q.Mode != "upcoming" && q.Mode != "past" {
		q.Mode = "all"
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// Result es una página ya ordenada y filtrada.
type Result struct {
	Events  []Evento `json:"events"`
	HasMore bool     `json:"has_more"`
}

// merged es lo que se guarda en caché: la lista completa ordenada y el total
// declarado por las fuentes.
type merged struct {
	Items []Evento `json:"items"`
	Total int      `json:"total"`
}

// Options configura el agregador.
type Options struct {
	FetchCount int
	CacheTTL   time.Duration
}

// Aggregator combina una fuente principal con cero o más secundarias.
type Aggregator struct {
	primary   Source
	secondary []Source
	cache     cache.Store
	clock     *clock.Clock
	opts      Options
	color     func() string
	logger    zerolog.Logger
}

func NewAggregator(primary Source, secondary []Source, c cache.Store, clk *clock.Clock, opts Options, logger zerolog.Logger) *Aggregator {
	if opts.FetchCount <= 0 {
		opts.FetchCount = 100
	}
	if clk == nil {
		clk = clock.New(time.UTC)
	}
	return &Aggregator{
		primary:   primary,
		secondary: secondary,
		cache:     c,
		clock:     clk,
		opts:      opts,
		color:     texto.ColorAleatorio,
		logger:    logger.With().Str("component", "agenda").Logger(),
	}
}

// Events devuelve la página pedida. Solo un fallo de la fuente principal es
// visible para el llamador; las secundarias que fallan no aportan nada.
func (a *Aggregator) Events(ctx context.Context, q Query) (Result, error) {
	q = q.Normalize()

	data, err := a.merged(ctx, q)
	if err != nil {
		return Result{}, err
	}

	offset := (q.Page - 1) * q.PerPage
	page := make([]Evento, 0, q.PerPage)
	if offset < len(data.Items) {
		end := min(len(data.Items), offset+q.PerPage)
		page = append(page, data.Items[offset:end]...)
	}
	hasMore := data.Total > offset+q.PerPage

	page = filterByMode(page, q.Mode, a.clock.Now())
	for i := range page {
		if page[i].IsPlaceholder {
			page[i].PlaceholderBG = a.color()
		}
	}

	return Result{Events: page, HasMore: hasMore}, nil
}

func (a *Aggregator) cacheKey(q Query) string {
	return cache.Key("mdr_agenda", map[string]string{
		"orderby": q.OrderBy,
		"order":   q.Order,
		"search":  q.Search,
		"fetch":   strconv.Itoa(a.opts.FetchCount),
	})
}

func (a *Aggregator) merged(ctx context.Context, q Query) (merged, error) {
	key := a.cacheKey(q)
	var data merged
	if cache.GetJSON(ctx, a.cache, key, &data) {
		return data, nil
	}

	params := FetchParams{PerPage: a.opts.FetchCount, OrderBy: q.OrderBy, Order: q.Order, Search: q.Search}
	pages := make([]Page, 1+len(a.secondary))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := a.primary.Fetch(gctx, params)
		if err != nil {
			a.logger.Error().Err(err).Msg("fuente principal no disponible")
			return errors.Join(ErrPrimaryUnavailable, err)
		}
		pages[0] = p
		return nil
	})
	for i, src := range a.secondary {
		g.Go(func() error {
			p, err := src.Fetch(gctx, params)
			if err != nil {
				a.logger.Warn().Err(err).Str("source", src.Name()).Msg("fuente secundaria ignorada")
				return nil
			}
			pages[i+1] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return merged{}, err
	}

	for _, p := range pages {
		data.Items = append(data.Items, p.Items...)
		data.Total += p.Total
	}
	if data.Items == nil {
		data.Items = []Evento{}
	}
	sortEventos(data.Items, q.OrderBy, q.Order)

	cache.SetJSON(ctx, a.cache, key, data, a.opts.CacheTTL)
	return data, nil
}

// sortEventos ordena de forma estable. Por fecha, los eventos sin fecha
// cuentan como 0 y quedan al final en desc y al principio en asc.
func sortEventos(items []Evento, orderBy, order string) {
	desc := order != "asc"
	sort.SliceStable(items, func(i, j int) bool {
		if orderBy == "title" {
			a, b := strings.ToLower(items[i].Title), strings.ToLower(items[j].Title)
			if desc {
				return a > b
			}
			return a < b
		}
		a, b := items[i].sortTS(), items[j].sortTS()
		if desc {
			return a > b
		}
		return a < b
	})
}

// filterByMode conserva siempre los eventos sin fecha.
func filterByMode(items []Evento, mode string, now time.Time) []Evento {
	if mode != "upcoming" && mode != "past" {
		return items
	}
	ref := now.Unix()
	out := items[:0]
	for _, ev := range items {
		ts := ev.sortTS()
		switch {
		case ts == 0:
			out = append(out, ev)
		case mode == "upcoming" && ts >= ref:
			out = append(out, ev)
		case mode == "past" && ts < ref:
			out = append(out, ev)
		}
	}
	return out
}
