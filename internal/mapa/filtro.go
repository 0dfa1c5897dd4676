package mapa

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/arrabal/mapaderecursos/internal/geo"
)

// Filtro reúne los parámetros de búsqueda de entidades. Un ID a cero significa
// que ese filtro no se aplica.
type Filtro struct {
	BBox           *geo.BBox
	Todas          bool
	IncluirVacias  bool
	ZonaID         int64
	AmbitoID       int64
	SubcategoriaID int64
	ServicioID     int64
	Q              string
}

// FiltroFromQuery lee los parámetros públicos. Los valores mal formados se
// descartan sin error, igual que un bbox inválido.
func FiltroFromQuery(v url.Values) Filtro {
	return Filtro{
		BBox:           geo.ParseBBox(v.Get("bbox")),
		Todas:          parseBool(v.Get("all")),
		IncluirVacias:  parseBool(v.Get("include_empty")),
		ZonaID:         parseID(v.Get("zona")),
		AmbitoID:       parseID(v.Get("ambito")),
		SubcategoriaID: parseID(v.Get("subcategoria")),
		ServicioID:     parseID(v.Get("servicio")),
		Q:              strings.TrimSpace(v.Get("q")),
	}
}

// PorTaxonomia indica si algún filtro exige pasar por los recursos.
func (f Filtro) PorTaxonomia() bool {
	return f.AmbitoID > 0 || f.SubcategoriaID > 0 || f.ServicioID > 0
}

// Params es la forma canónica usada para la clave de caché.
func (f Filtro) Params() map[string]string {
	p := map[string]string{
		"all":           strconv.FormatBool(f.Todas),
		"include_empty": strconv.FormatBool(f.IncluirVacias),
		"zona":          strconv.FormatInt(f.ZonaID, 10),
		"ambito":        strconv.FormatInt(f.AmbitoID, 10),
		"subcategoria":  strconv.FormatInt(f.SubcategoriaID, 10),
		"servicio":      strconv.FormatInt(f.ServicioID, 10),
		"q":             f.Q,
	}
	if f.BBox != nil {
		p["bbox"] = f.BBox.String()
	}
	return p
}

func parseID(raw string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "si", "sí", "on":
		return true
	}
	return false
}
