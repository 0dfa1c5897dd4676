package mapa

import (
	"fmt"
	"strings"
	"time"

	"github.com/arrabal/mapaderecursos/internal/repo"
)

const entidadColumns = `e.id, e.nombre, e.slug, e.lat, e.lng, e.zona_id, e.telefono, e.email, e.logo_url, e.logo_media_id, e.direccion`

type sqlBuilder struct {
	args []any
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// buildEntidadesQuery traduce el filtro a SQL parametrizado. Los filtros de
// taxonomía obligan a unir con recursos visibles; include_empty solo relaja esa
// unión cuando no hay taxonomía, y la búsqueda de texto usa entonces LEFT JOIN.
func buildEntidadesQuery(f Filtro, today time.Time, limit int) (string, []any) {
	b := &sqlBuilder{}
	var joins, where []string

	joinRecursos := !f.IncluirVacias || f.PorTaxonomia()
	leftJoin := !joinRecursos && f.Q != ""
	if joinRecursos || leftJoin {
		kind := "JOIN"
		if leftJoin {
			kind = "LEFT JOIN"
		}
		joins = append(joins, fmt.Sprintf("%s mdr_recursos r ON r.entidad_id = e.id AND %s",
			kind, repo.VisibleSQL("r", b.arg(repo.DateParam(today)))))
	}

	if f.BBox != nil {
		where = append(where,
			"e.lat IS NOT NULL AND e.lng IS NOT NULL",
			fmt.Sprintf("e.lat BETWEEN %s AND %s", b.arg(f.BBox.MinLat), b.arg(f.BBox.MaxLat)),
			fmt.Sprintf("e.lng BETWEEN %s AND %s", b.arg(f.BBox.MinLng), b.arg(f.BBox.MaxLng)),
		)
	} else if !f.Todas {
		where = append(where, "e.lat IS NOT NULL AND e.lng IS NOT NULL")
	}

	if f.ZonaID > 0 {
		where = append(where, "e.zona_id = "+b.arg(f.ZonaID))
	}
	if f.AmbitoID > 0 {
		where = append(where, "r.ambito_id = "+b.arg(f.AmbitoID))
	}
	if f.SubcategoriaID > 0 {
		where = append(where, "r.subcategoria_id = "+b.arg(f.SubcategoriaID))
	}
	if f.ServicioID > 0 {
		where = append(where, "r.servicio_id = "+b.arg(f.ServicioID))
	}
	if f.Q != "" {
		p := b.arg("%" + escapeLike(f.Q) + "%")
		if joinRecursos || leftJoin {
			where = append(where, fmt.Sprintf("(e.nombre ILIKE %[1]s OR r.recurso_programa ILIKE %[1]s)", p))
		} else {
			where = append(where, "e.nombre ILIKE "+p)
		}
	}

	var sb strings.Builder
	sb.WriteString("SELECT DISTINCT ")
	sb.WriteString(entidadColumns)
	sb.WriteString(" FROM mdr_entidades e")
	for _, j := range joins {
		sb.WriteString(" ")
		sb.WriteString(j)
	}
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY e.nombre, e.id LIMIT ")
	sb.WriteString(b.arg(limit))
	return sb.String(), b.args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
