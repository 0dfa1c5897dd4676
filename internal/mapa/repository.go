package mapa

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arrabal/mapaderecursos/internal/repo"
)

const dbTimeout = 3 * time.Second

// Repository resuelve las lecturas públicas contra Postgres.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) BuscarEntidades(ctx context.Context, f Filtro, today time.Time, limit int) ([]repo.Entidad, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	query, args := buildEntidadesQuery(f, today, limit)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entidades := make([]repo.Entidad, 0)
	for rows.Next() {
		var e repo.Entidad
		var direccion *string
		if err := rows.Scan(&e.ID, &e.Nombre, &e.Slug, &e.Lat, &e.Lng, &e.ZonaID,
			&e.Telefono, &e.Email, &e.LogoURL, &e.LogoMediaID, &direccion); err != nil {
			return nil, err
		}
		if direccion != nil {
			e.Direccion = *direccion
		}
		entidades = append(entidades, e)
	}

	return entidades, rows.Err()
}

func (r *Repository) RecursosVisibles(ctx context.Context, entidadID int64, today time.Time) ([]repo.Recurso, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT r.id, r.entidad_id, r.recurso_programa, r.descripcion, r.objetivo, r.destinatarios,
		       r.periodo_ejecucion, r.periodo_inicio, r.periodo_fin, r.entidad_gestora, r.entidad_gestora_id,
		       COALESCE(r.financiacion, f.nombre), r.financiacion_id, r.contacto, r.contactos,
		       r.servicio_id, r.ambito_id, r.subcategoria_id, r.activo, r.updated_at
		FROM mdr_recursos r
		LEFT JOIN mdr_financiaciones f ON f.id = r.financiacion_id
		WHERE r.entidad_id = $1 AND `+repo.VisibleSQL("r", "$2")+`
		ORDER BY r.updated_at DESC
		LIMIT 500
	`, entidadID, repo.DateParam(today))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recursos := make([]repo.Recurso, 0)
	for rows.Next() {
		rec, err := scanRecurso(rows)
		if err != nil {
			return nil, err
		}
		recursos = append(recursos, rec)
	}

	return recursos, rows.Err()
}

func scanRecurso(row pgx.Row) (repo.Recurso, error) {
	var rec repo.Recurso
	var contacto *string
	var contactos []byte
	if err := row.Scan(&rec.ID, &rec.EntidadID, &rec.RecursoPrograma, &rec.Descripcion, &rec.Objetivo,
		&rec.Destinatarios, &rec.PeriodoEjecucion, &rec.PeriodoInicio, &rec.PeriodoFin, &rec.EntidadGestora,
		&rec.EntidadGestoraID, &rec.Financiacion, &rec.FinanciacionID, &contacto, &contactos,
		&rec.ServicioID, &rec.AmbitoID, &rec.SubcategoriaID, &rec.Activo, &rec.UpdatedAt); err != nil {
		return rec, err
	}
	rec.Contactos = make([]repo.Contacto, 0)
	if len(contactos) > 0 {
		_ = json.Unmarshal(contactos, &rec.Contactos)
	}
	if rec.Contacto = repo.ContactoPlano(rec.Contactos); rec.Contacto == "" && contacto != nil {
		rec.Contacto = *contacto
	}
	return rec, nil
}

func (r *Repository) Filtros(ctx context.Context) (repo.Filtros, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	out := repo.Filtros{
		Zonas:         make([]repo.Taxonomia, 0),
		Ambitos:       make([]repo.Taxonomia, 0),
		Subcategorias: make([]repo.Subcategoria, 0),
		Servicios:     make([]repo.Servicio, 0),
	}

	var err error
	if out.Zonas, err = r.taxonomia(ctx, "mdr_zonas"); err != nil {
		return out, err
	}
	if out.Ambitos, err = r.taxonomia(ctx, "mdr_ambitos"); err != nil {
		return out, err
	}

	rows, err := r.db.Query(ctx, `SELECT id, ambito_id, nombre, slug FROM mdr_subcategorias ORDER BY nombre ASC`)
	if err != nil {
		return out, err
	}
	for rows.Next() {
		var s repo.Subcategoria
		if err := rows.Scan(&s.ID, &s.AmbitoID, &s.Nombre, &s.Slug); err != nil {
			rows.Close()
			return out, err
		}
		out.Subcategorias = append(out.Subcategorias, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return out, err
	}

	rows, err = r.db.Query(ctx, `SELECT id, nombre, slug, icono_media_id, icono_svg, icono_clase FROM mdr_servicios ORDER BY nombre ASC`)
	if err != nil {
		return out, err
	}
	defer rows.Close()
	for rows.Next() {
		var s repo.Servicio
		if err := rows.Scan(&s.ID, &s.Nombre, &s.Slug, &s.IconoMediaID, &s.IconoSVG, &s.IconoClase); err != nil {
			return out, err
		}
		out.Servicios = append(out.Servicios, s)
	}

	return out, rows.Err()
}

// taxonomia lee una de las tablas simples; table nunca viene del usuario.
func (r *Repository) taxonomia(ctx context.Context, table string) ([]repo.Taxonomia, error) {
	rows, err := r.db.Query(ctx, `SELECT id, nombre, slug FROM `+table+` ORDER BY nombre ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]repo.Taxonomia, 0)
	for rows.Next() {
		var t repo.Taxonomia
		if err := rows.Scan(&t.ID, &t.Nombre, &t.Slug); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (r *Repository) EntidadPorSlug(ctx context.Context, slug string, today time.Time) (repo.EntidadDetalle, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var d repo.EntidadDetalle
	err := r.db.QueryRow(ctx, `
		SELECT e.id, e.nombre, e.slug, e.lat, e.lng, e.zona_id, e.telefono, e.email, e.web, e.descripcion,
		       e.logo_url, e.logo_media_id, e.direccion, e.cp, e.ciudad, e.provincia, e.pais, z.nombre
		FROM mdr_entidades e
		LEFT JOIN mdr_zonas z ON z.id = e.zona_id
		WHERE e.slug = $1
	`, slug).Scan(&d.ID, &d.Nombre, &d.Slug, &d.Lat, &d.Lng, &d.ZonaID, &d.Telefono, &d.Email, &d.Web,
		&d.Descripcion, &d.LogoURL, &d.LogoMediaID, &d.Direccion, &d.CP, &d.Ciudad, &d.Provincia, &d.Pais,
		&d.ZonaNombre)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return d, repo.ErrNotFound
		}
		return d, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT r.id, r.recurso_programa, r.descripcion, r.objetivo, r.destinatarios, r.periodo_ejecucion,
		       r.servicio_id, s.nombre, s.icono_clase, a.nombre
		FROM mdr_recursos r
		LEFT JOIN mdr_servicios s ON s.id = r.servicio_id
		LEFT JOIN mdr_ambitos a ON a.id = r.ambito_id
		WHERE r.entidad_id = $1 AND `+repo.VisibleSQL("r", "$2")+`
		ORDER BY r.id DESC
		LIMIT 200
	`, d.ID, repo.DateParam(today))
	if err != nil {
		return d, err
	}
	defer rows.Close()

	d.Recursos = make([]repo.RecursoResumen, 0)
	for rows.Next() {
		var rr repo.RecursoResumen
		if err := rows.Scan(&rr.ID, &rr.RecursoPrograma, &rr.Descripcion, &rr.Objetivo, &rr.Destinatarios,
			&rr.PeriodoEjecucion, &rr.ServicioID, &rr.ServicioNombre, &rr.IconoClase, &rr.AmbitoNombre); err != nil {
			return d, err
		}
		d.Recursos = append(d.Recursos, rr)
	}

	return d, rows.Err()
}
