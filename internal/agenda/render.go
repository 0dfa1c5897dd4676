package agenda

import (
	"bytes"
	"html/template"

	"github.com/arrabal/mapaderecursos/internal/texto"
)

const (
	MsgNoDisponible = "No se pudo cargar la agenda en este momento."
	MsgSinEventos   = "No hay eventos para mostrar."
)

const cardsTemplate = `{{define "card"}}<div class="mdr-agenda-card">
<div class="mdr-agenda-thumb{{if .IsPlaceholder}} mdr-agenda-thumb--placeholder{{end}}"{{if and .IsPlaceholder .PlaceholderBG}} style="background-color: {{.PlaceholderBG | css}};"{{end}}>
<img{{if .IsPlaceholder}} class="mdr-agenda-thumb-img--placeholder"{{end}} src="{{.Featured}}" alt="" loading="lazy" />
</div>
<div class="mdr-agenda-body">
<div class="mdr-agenda-terms">{{range .Terms.Categorias}}<span class="mdr-agenda-badge" style="--mdr-badge-bg: {{color | css}};">{{.Name}}</span>{{end}}{{range .Terms.Ubicaciones}}<span class="mdr-agenda-badge mdr-agenda-badge-ghost" style="--mdr-badge-bg: {{color | css}};">{{.Name}}</span>{{end}}</div>
<h3 class="mdr-agenda-title"><a target="_blank" rel="noopener noreferrer" href="{{.Link}}">{{.Title}}</a></h3>
{{if .Estado}}<div class="mdr-agenda-estado">{{.Estado}}</div>
{{end}}<p class="mdr-agenda-excerpt">{{.Excerpt}}</p>
<div class="mdr-agenda-meta">
{{with .Meta.Inicio}}<div><strong>Inicio:</strong> {{.}}</div>{{end}}
{{with .Meta.Fin}}<div><strong>Finalización:</strong> {{.}}</div>{{end}}
{{with .Meta.Lugar}}<div><strong>Lugar:</strong> {{.}}</div>{{end}}
{{with .Meta.Organiza}}<div><strong>Organiza:</strong> {{.}}</div>{{end}}
</div>
<div class="mdr-agenda-actions"><a class="button mdr-entities-btn" target="_blank" rel="noopener noreferrer" href="{{.Link}}">Ver más</a></div>
</div>
</div>
{{end}}{{define "cards"}}{{range .}}{{template "card" .}}{{end}}{{end}}{{define "grid"}}<div class="mdr-agenda-grid" data-per-page="{{.Query.PerPage}}" data-page="{{.Query.Page}}" data-order="{{.Query.Order}}" data-orderby="{{.Query.OrderBy}}" data-search="{{.Query.Search}}" data-mode="{{.Query.Mode}}" data-has-more="{{if .HasMore}}1{{else}}0{{end}}">
{{template "cards" .Events}}</div>
{{if .HasMore}}<div class="mdr-agenda-sentinel"></div>
{{end}}{{end}}{{define "mensaje"}}<div class="mdr-agenda {{.Clase}}">{{.Texto}}</div>
{{end}}`

var templates = template.Must(template.New("agenda").Funcs(template.FuncMap{
	"color": texto.ColorAleatorio,
	"css":   func(s string) template.CSS { return template.CSS(s) },
}).Parse(cardsTemplate))

// RenderCards devuelve solo las tarjetas, para la carga incremental.
func RenderCards(events []Evento) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "cards", events); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderFragment devuelve la rejilla completa con sus atributos de paginación,
// o el mensaje de vacío si no hay eventos.
func RenderFragment(q Query, res Result) ([]byte, error) {
	var buf bytes.Buffer
	if len(res.Events) == 0 {
		return RenderMensaje("mdr-agenda-empty", MsgSinEventos)
	}
	err := templates.ExecuteTemplate(&buf, "grid", struct {
		Query   Query
		Events  []Evento
		HasMore bool
	}{q.Normalize(), res.Events, res.HasMore})
	return buf.Bytes(), err
}

// RenderMensaje pinta los avisos de error o vacío.
func RenderMensaje(clase, msg string) ([]byte, error) {
	var buf bytes.Buffer
	err := templates.ExecuteTemplate(&buf, "mensaje", struct{ Clase, Texto string }{clase, msg})
	return buf.Bytes(), err
}
