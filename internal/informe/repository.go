package informe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	dbTimeout = 5 * time.Second
	maxFilas  = 5000
)

// Fila es un recurso con los nombres de sus relaciones ya resueltos.
type Fila struct {
	ID               int64
	RecursoPrograma  string
	Descripcion      string
	Destinatarios    string
	PeriodoEjecucion string
	EntidadGestora   string
	Financiacion     string
	Contacto         string
	UpdatedAt        time.Time
	Entidad          string
	Zona             string
	Ambito           string
	Subcategoria     string
	Activo           bool
	PeriodoFin       *time.Time
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Actualizados devuelve los recursos con updated_at en [desde, hasta). Un
// límite cero no se aplica.
func (r *Repository) Actualizados(ctx context.Context, desde, hasta time.Time) ([]Fila, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var (
		where []string
		args  []any
	)
	if !desde.IsZero() {
		args = append(args, desde)
		where = append(where, fmt.Sprintf("r.updated_at >= $%d", len(args)))
	}
	if !hasta.IsZero() {
		args = append(args, hasta)
		where = append(where, fmt.Sprintf("r.updated_at < $%d", len(args)))
	}
	whereSQL := ""
	if len(where) > 0 {
		whereSQL = "WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, maxFilas)

	query := fmt.Sprintf(`
        SELECT r.id, r.recurso_programa, COALESCE(r.descripcion, ''), COALESCE(r.destinatarios, ''),
               COALESCE(r.periodo_ejecucion, ''), COALESCE(r.entidad_gestora, ''),
               COALESCE(NULLIF(r.financiacion, ''), f.nombre, ''), COALESCE(r.contacto, ''),
               r.updated_at, COALESCE(e.nombre, ''), COALESCE(z.nombre, ''),
               COALESCE(a.nombre, ''), COALESCE(s.nombre, ''), r.activo, r.periodo_fin
        FROM mdr_recursos r
        LEFT JOIN mdr_entidades e ON e.id = r.entidad_id
        LEFT JOIN mdr_zonas z ON z.id = e.zona_id
        LEFT JOIN mdr_ambitos a ON a.id = r.ambito_id
        LEFT JOIN mdr_subcategorias s ON s.id = r.subcategoria_id
        LEFT JOIN mdr_financiaciones f ON f.id = r.financiacion_id
        %s
        ORDER BY r.updated_at DESC
        LIMIT $%d
    `, whereSQL, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Fila
	for rows.Next() {
		var f Fila
		if err := rows.Scan(
			&f.ID, &f.RecursoPrograma, &f.Descripcion, &f.Destinatarios,
			&f.PeriodoEjecucion, &f.EntidadGestora, &f.Financiacion, &f.Contacto,
			&f.UpdatedAt, &f.Entidad, &f.Zona, &f.Ambito, &f.Subcategoria, &f.Activo, &f.PeriodoFin,
		); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
