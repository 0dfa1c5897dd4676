package empleo

import (
	"bytes"
	"html/template"
)

const (
	MsgNoDisponible = "No se pudo cargar las ofertas en este momento."
	MsgSinOfertas   = "No hay ofertas disponibles ahora mismo."
)

const ofertasTemplate = `{{define "grid"}}<div class="mdr-agenda-grid">
{{range .Ofertas}}<div class="mdr-agenda-card mdr-job-card">
<div class="mdr-agenda-thumb mdr-agenda-thumb--placeholder" style="background-color: {{.PlaceholderBG | css}};">
<img class="mdr-agenda-thumb-img--placeholder" src="{{$.Placeholder}}" alt="" loading="lazy" />
</div>
<div class="mdr-agenda-body">
<div class="mdr-agenda-terms">{{with .Location}}<span class="mdr-agenda-badge">{{.}}</span>{{end}}<span class="mdr-agenda-badge mdr-agenda-badge-ghost">Oferta</span></div>
<h3 class="mdr-agenda-title"><a target="_blank" rel="noopener noreferrer" href="{{.Link}}">{{.Title}}</a></h3>
{{with .Date}}<div class="mdr-agenda-estado">Publicado el {{.}}</div>
{{end}}<p class="mdr-agenda-excerpt">{{.Excerpt}}</p>
<div class="mdr-agenda-actions"><a class="button mdr-entities-btn" target="_blank" rel="noopener noreferrer" href="{{.Link}}">Ver oferta</a></div>
</div>
</div>
{{end}}</div>
{{end}}{{define "mensaje"}}<div class="mdr-agenda {{.Clase}}">{{.Texto}}</div>
{{end}}`

var templates = template.Must(template.New("empleo").Funcs(template.FuncMap{
	"css": func(s string) template.CSS { return template.CSS(s) },
}).Parse(ofertasTemplate))

// Render pinta la rejilla de ofertas o el aviso de lista vacía.
func Render(ofertas []Oferta, placeholder string) ([]byte, error) {
	if len(ofertas) == 0 {
		return RenderMensaje("mdr-agenda-empty", MsgSinOfertas)
	}
	var buf bytes.Buffer
	err := templates.ExecuteTemplate(&buf, "grid", struct {
		Ofertas     []Oferta
		Placeholder string
	}{ofertas, placeholder})
	return buf.Bytes(), err
}

func RenderMensaje(clase, msg string) ([]byte, error) {
	var buf bytes.Buffer
	err := templates.ExecuteTemplate(&buf, "mensaje", struct{ Clase, Texto string }{clase, msg})
	return buf.Bytes(), err
}
