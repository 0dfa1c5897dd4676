package agenda

import (
	"strings"
	"time"

	"github.com/arrabal/mapaderecursos/internal/texto"
)

const palabrasExtracto = 30

// Termino es una categoría o ubicación embebida en el item remoto.
type Termino struct {
	Name string `json:"name"`
	Link string `json:"link"`
}

type Terminos struct {
	Categorias  []Termino `json:"categorias"`
	Ubicaciones []Termino `json:"ubicaciones"`
}

// Meta son los campos semiestructurados extraídos del contenido.
type Meta struct {
	Inicio   string `json:"inicio"`
	Fin      string `json:"fin"`
	Lugar    string `json:"lugar"`
	Organiza string `json:"organiza"`
	InicioTS *int64 `json:"inicio_ts"`
}

// Evento es la forma común de los items de ambas fuentes.
type Evento struct {
	Title         string   `json:"title"`
	Link          string   `json:"link"`
	Featured      string   `json:"featured"`
	Excerpt       string   `json:"excerpt"`
	Meta          Meta     `json:"meta"`
	Terms         Terminos `json:"terms"`
	InicioTS      *int64   `json:"inicio_ts"`
	Estado        string   `json:"estado"`
	IsPlaceholder bool     `json:"is_placeholder"`
	PlaceholderBG string   `json:"placeholder_bg"`
	Fuente        string   `json:"fuente"`
}

// sortTS trata la ausencia de fecha como 0 para ordenar.
func (e Evento) sortTS() int64 {
	if e.InicioTS == nil {
		return 0
	}
	return *e.InicioTS
}

type wpRendered struct {
	Rendered string `json:"rendered"`
}

type wpTerm struct {
	Taxonomy string `json:"taxonomy"`
	Name     string `json:"name"`
	Link     string `json:"link"`
}

type wpMedia struct {
	SourceURL string `json:"source_url"`
}

// wpItem es el subconjunto de la API REST de WordPress que se consume.
type wpItem struct {
	Date     string     `json:"date"`
	Link     string     `json:"link"`
	Title    wpRendered `json:"title"`
	Content  wpRendered `json:"content"`
	Excerpt  wpRendered `json:"excerpt"`
	Embedded struct {
		FeaturedMedia []wpMedia  `json:"wp:featuredmedia"`
		Terms         [][]wpTerm `json:"wp:term"`
	} `json:"_embedded"`
}

// Normalizer convierte items de WordPress en eventos.
type Normalizer struct {
	Extractor   MetadataExtractor
	Placeholder string
	Location    *time.Location
}

// Evento normaliza un item del tipo de contenido "agenda".
func (n Normalizer) Evento(item wpItem) Evento {
	ev := n.base(item)
	ev.Fuente = "agenda"
	if n.Extractor != nil {
		ev.Meta = n.Extractor.Extract(item.Content.Rendered)
	}
	ev.InicioTS = ev.Meta.InicioTS
	if strings.Contains(strings.ToUpper(item.Content.Rendered), "FINALIZADO") {
		ev.Estado = "Finalizado"
	}
	return ev
}

// Post normaliza una entrada local del blog; la fecha sale de la publicación.
func (n Normalizer) Post(item wpItem) Evento {
	ev := n.base(item)
	ev.Fuente = "posts"
	if item.Date != "" {
		loc := n.Location
		if loc == nil {
			loc = time.UTC
		}
		if t, err := time.ParseInLocation("2006-01-02T15:04:05", item.Date, loc); err == nil {
			ts := t.Unix()
			ev.Meta.InicioTS = &ts
			ev.Meta.Inicio = texto.FormatFecha(t)
			ev.InicioTS = &ts
		}
	}
	return ev
}

func (n Normalizer) base(item wpItem) Evento {
	ev := Evento{
		Title:         texto.StripTags(item.Title.Rendered),
		Link:          strings.TrimSpace(item.Link),
		Featured:      n.Placeholder,
		IsPlaceholder: true,
		Terms:         parseTerms(item.Embedded.Terms),
	}
	if media := item.Embedded.FeaturedMedia; len(media) > 0 && media[0].SourceURL != "" {
		ev.Featured = media[0].SourceURL
		ev.IsPlaceholder = false
	}
	switch {
	case item.Excerpt.Rendered != "":
		ev.Excerpt = texto.TrimWords(texto.StripTags(item.Excerpt.Rendered), palabrasExtracto)
	case item.Content.Rendered != "":
		ev.Excerpt = texto.TrimWords(texto.StripTags(item.Content.Rendered), palabrasExtracto)
	}
	return ev
}

func parseTerms(groups [][]wpTerm) Terminos {
	out := Terminos{Categorias: []Termino{}, Ubicaciones: []Termino{}}
	for _, group := range groups {
		for _, term := range group {
			t := Termino{Name: term.Name, Link: term.Link}
			switch term.Taxonomy {
			case "categorias-eventos", "category":
				out.Categorias = append(out.Categorias, t)
			case "ubicaciones-eventos":
				out.Ubicaciones = append(out.Ubicaciones, t)
			}
		}
	}
	return out
}
