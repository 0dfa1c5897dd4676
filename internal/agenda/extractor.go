package agenda

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/arrabal/mapaderecursos/internal/texto"
)

// MetadataExtractor saca inicio, fin, lugar y organizador del contenido de un
// evento. Aísla el raspado de HTML del resto de la agregación.
type MetadataExtractor interface {
	Extract(html string) Meta
}

// FieldClass es la clase que JetEngine pone a los campos dinámicos.
const FieldClass = "jet-listing-dynamic-field__content"

var etiquetas = []struct {
	prefijo string
	campo   func(*Meta) *string
}{
	{"INICIO:", func(m *Meta) *string { return &m.Inicio }},
	{"FINALIZACIÓN:", func(m *Meta) *string { return &m.Fin }},
	{"FINALIZACION:", func(m *Meta) *string { return &m.Fin }},
	{"LUGAR:", func(m *Meta) *string { return &m.Lugar }},
	{"ORGANIZA:", func(m *Meta) *string { return &m.Organiza }},
}

// JetFieldExtractor lee los bloques con FieldClass mediante goquery.
type JetFieldExtractor struct {
	loc    *time.Location
	logger zerolog.Logger
}

func NewJetFieldExtractor(loc *time.Location, logger zerolog.Logger) *JetFieldExtractor {
	if loc == nil {
		loc = time.UTC
	}
	return &JetFieldExtractor{loc: loc, logger: logger}
}

func (x *JetFieldExtractor) Extract(html string) Meta {
	var meta Meta
	if strings.TrimSpace(html) == "" {
		return meta
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		x.logger.Debug().Err(err).Msg("contenido html ilegible")
		return meta
	}

	doc.Find("." + FieldClass).Each(func(_ int, sel *goquery.Selection) {
		text := texto.NormalizeSpace(sel.Text())
		if text == "" {
			return
		}
		upper := strings.ToUpper(text)
		for _, et := range etiquetas {
			if !strings.HasPrefix(upper, et.prefijo) {
				continue
			}
			value := ""
			if idx := strings.Index(text, ":"); idx >= 0 {
				value = strings.TrimSpace(text[idx+1:])
			}
			*et.campo(&meta) = value
			break
		}
	})

	if meta.Inicio != "" {
		if t, ok := texto.ParseFecha(meta.Inicio, x.loc); ok {
			ts := t.Unix()
			meta.InicioTS = &ts
		} else {
			x.logger.Debug().Str("inicio", meta.Inicio).Msg("fecha de inicio no reconocida")
		}
	}
	return meta
}
