// Package informe exporta un volcado de texto de los recursos actualizados en
// un rango de fechas.
package informe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arrabal/mapaderecursos/internal/clock"
	"github.com/arrabal/mapaderecursos/internal/repo"
	"github.com/arrabal/mapaderecursos/internal/storage"
	"github.com/arrabal/mapaderecursos/internal/texto"
)

var (
	ErrSinRecursos   = errors.New("no hay recursos en el rango seleccionado")
	ErrRangoInvalido = errors.New("rango de fechas inválido")
)

const (
	separador         = "----------------------------------------"
	maxDescripcion    = 260
	layoutDia         = "2006-01-02"
	layoutActualizado = "2006-01-02 15:04:05"
)

// Rango son fechas civiles (YYYY-MM-DD) en la zona del sitio, ambas
// inclusivas. Ultimas24h ignora Desde y Hasta.
type Rango struct {
	Desde      string `json:"desde"`
	Hasta      string `json:"hasta"`
	Ultimas24h bool   `json:"ultimas_24h"`
}

// Resultado describe el fichero generado.
type Resultado struct {
	URL   string `json:"url"`
	Key   string `json:"key"`
	Total int    `json:"total"`
}

type Store interface {
	Actualizados(ctx context.Context, desde, hasta time.Time) ([]Fila, error)
}

type Service struct {
	store    Store
	uploader storage.Uploader
	clock    *clock.Clock
	logger   zerolog.Logger
}

func NewService(store Store, uploader storage.Uploader, clk *clock.Clock, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		uploader: uploader,
		clock:    clk,
		logger:   logger.With().Str("component", "informe").Logger(),
	}
}

// Limites traduce el rango a instantes: [desde, hasta).
func (s *Service) Limites(r Rango) (time.Time, time.Time, error) {
	now := s.clock.Now()
	if r.Ultimas24h {
		return now.Add(-24 * time.Hour), now, nil
	}

	var desde, hasta time.Time
	loc := s.clock.Location()
	if v := strings.TrimSpace(r.Desde); v != "" {
		d, err := time.ParseInLocation(layoutDia, v, loc)
		if err != nil {
			return time.Time{}, time.Time{}, ErrRangoInvalido
		}
		desde = d
	}
	if v := strings.TrimSpace(r.Hasta); v != "" {
		d, err := time.ParseInLocation(layoutDia, v, loc)
		if err != nil {
			return time.Time{}, time.Time{}, ErrRangoInvalido
		}
		hasta = d.AddDate(0, 0, 1)
	}
	if !desde.IsZero() && !hasta.IsZero() && !desde.Before(hasta) {
		return time.Time{}, time.Time{}, ErrRangoInvalido
	}
	return desde, hasta, nil
}

// Generar selecciona, filtra por visibilidad, vuelca y sube el informe.
func (s *Service) Generar(ctx context.Context, r Rango) (Resultado, error) {
	desde, hasta, err := s.Limites(r)
	if err != nil {
		return Resultado{}, err
	}

	filas, err := s.store.Actualizados(ctx, desde, hasta)
	if err != nil {
		return Resultado{}, fmt.Errorf("informe: %w", err)
	}

	today := s.clock.Today()
	visibles := filas[:0]
	for _, f := range filas {
		if repo.Visible(f.Activo, f.PeriodoFin, today) {
			visibles = append(visibles, f)
		}
	}
	if len(visibles) == 0 {
		return Resultado{}, ErrSinRecursos
	}

	now := s.clock.Now()
	body := Volcado(visibles, now)
	key := fmt.Sprintf("informes/recursos-%s-%s.txt", now.Format("20060102-150405"), uuid.NewString()[:8])

	up, err := s.uploader.Upload(ctx, storage.UploadInput{
		Key:          key,
		Body:         []byte(body),
		ContentType:  "text/plain; charset=utf-8",
		CacheControl: "private, max-age=0",
	})
	if err != nil {
		return Resultado{}, fmt.Errorf("informe: %w", err)
	}

	s.logger.Info().Str("key", key).Int("total", len(visibles)).Msg("informe generado")
	return Resultado{URL: up.URL, Key: key, Total: len(visibles)}, nil
}

// Volcado produce las líneas de texto del informe.
func Volcado(filas []Fila, generado time.Time) string {
	lines := []string{"Recursos actualizados " + generado.Format("02/01/2006 15:04")}
	for _, f := range filas {
		lines = append(lines, separador, f.Zona+" | "+f.Entidad, f.RecursoPrograma)
		if f.Ambito != "" || f.Subcategoria != "" {
			lines = append(lines, strings.TrimSpace(f.Ambito+" / "+f.Subcategoria))
		}
		if f.Contacto != "" {
			lines = append(lines, "Contacto: "+f.Contacto)
		}
		if f.Destinatarios != "" {
			lines = append(lines, "Destinatarios: "+f.Destinatarios)
		}
		if f.PeriodoEjecucion != "" {
			lines = append(lines, "Periodo: "+f.PeriodoEjecucion)
		}
		if f.Descripcion != "" {
			lines = append(lines, "Descripción: "+recortar(texto.StripTags(f.Descripcion), maxDescripcion))
		}
		lines = append(lines, "Actualizado: "+f.UpdatedAt.In(generado.Location()).Format(layoutActualizado))
	}
	return strings.Join(lines, "\n") + "\n"
}

func recortar(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}
