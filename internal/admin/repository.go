package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arrabal/mapaderecursos/internal/db"
	"github.com/arrabal/mapaderecursos/internal/repo"
)

const dbTimeout = 5 * time.Second

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AdminPorEmail(ctx context.Context, email string) (Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	const query = `
        SELECT id, email, nombre, password_hash, activo
        FROM mdr_admins
        WHERE lower(email) = lower($1)
    `
	var a Admin
	err := r.db.QueryRow(ctx, query, strings.TrimSpace(email)).Scan(&a.ID, &a.Email, &a.Nombre, &a.PasswordHash, &a.Activo)
	if err != nil {
		return Admin{}, mapError(err)
	}
	return a, nil
}

// GuardarAdmin crea el administrador o reemplaza su contraseña si ya existe.
func (r *Repository) GuardarAdmin(ctx context.Context, email, nombre, hash string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	const query = `
        INSERT INTO mdr_admins (email, nombre, password_hash)
        VALUES (lower($1), $2, $3)
        ON CONFLICT (email)
        DO UPDATE SET nombre = EXCLUDED.nombre, password_hash = EXCLUDED.password_hash, activo = TRUE
        RETURNING id
    `
	var id int64
	if err := r.db.QueryRow(ctx, query, strings.TrimSpace(email), nombre, hash).Scan(&id); err != nil {
		return 0, mapError(err)
	}
	return id, nil
}

// escribir ejecuta fn y el registro de auditoría en la misma transacción.
func (r *Repository) escribir(ctx context.Context, a Auditoria, fn func(ctx context.Context, tx pgx.Tx) (int64, error)) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	err := db.WithTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if fn != nil {
			id, err := fn(ctx, tx)
			if err != nil {
				return err
			}
			if id > 0 {
				a.ObjetoID = &id
			}
		}
		return insertLog(ctx, tx, a)
	})
	return mapError(err)
}

func insertLog(ctx context.Context, tx pgx.Tx, a Auditoria) error {
	var detalle []byte
	if a.Detalle != nil {
		raw, err := json.Marshal(a.Detalle)
		if err != nil {
			return err
		}
		detalle = raw
	}
	var adminID *int64
	if a.AdminID > 0 {
		adminID = &a.AdminID
	}
	_, err := tx.Exec(ctx,
		`INSERT INTO mdr_logs (admin_id, accion, objeto, objeto_id, detalle) VALUES ($1, $2, $3, $4, $5)`,
		adminID, a.Accion, a.Objeto, a.ObjetoID, detalle,
	)
	return err
}

// Registrar guarda una acción que no modifica datos del mapa.
func (r *Repository) Registrar(ctx context.Context, a Auditoria) error {
	return r.escribir(ctx, a, nil)
}

func (r *Repository) GuardarTaxonomia(ctx context.Context, tipo Tipo, t repo.Taxonomia, a Auditoria) (repo.Taxonomia, error) {
	tabla, ok := tipo.Tabla()
	if !ok || !tipo.esTaxonomia() {
		return repo.Taxonomia{}, fmt.Errorf("tipo %q no es una taxonomía", tipo)
	}

	var out repo.Taxonomia
	err := r.escribir(ctx, a, func(ctx context.Context, tx pgx.Tx) (int64, error) {
		var row pgx.Row
		if t.ID == 0 {
			row = tx.QueryRow(ctx, fmt.Sprintf(`INSERT INTO %s (nombre, slug) VALUES ($1, $2) RETURNING id, nombre, slug`, tabla), t.Nombre, t.Slug)
		} else {
			row = tx.QueryRow(ctx, fmt.Sprintf(`UPDATE %s SET nombre = $1, slug = $2 WHERE id = $3 RETURNING id, nombre, slug`, tabla), t.Nombre, t.Slug, t.ID)
		}
		err := row.Scan(&out.ID, &out.Nombre, &out.Slug)
		return out.ID, err
	})
	return out, err
}

func (r *Repository) GuardarServicio(ctx context.Context, s repo.Servicio, a Auditoria) (repo.Servicio, error) {
	var out repo.Servicio
	err := r.escribir(ctx, a, func(ctx context.Context, tx pgx.Tx) (int64, error) {
		var row pgx.Row
		if s.ID == 0 {
			row = tx.QueryRow(ctx, `
                INSERT INTO mdr_servicios (nombre, slug, icono_media_id, icono_svg, icono_clase)
                VALUES ($1, $2, $3, $4, $5)
                RETURNING id, nombre, slug, icono_media_id, icono_svg, icono_clase
            `, s.Nombre, s.Slug, s.IconoMediaID, s.IconoSVG, s.IconoClase)
		} else {
			row = tx.QueryRow(ctx, `
                UPDATE mdr_servicios
                SET nombre = $1, slug = $2, icono_media_id = $3, icono_svg = $4, icono_clase = $5
                WHERE id = $6
                RETURNING id, nombre, slug, icono_media_id, icono_svg, icono_clase
            `, s.Nombre, s.Slug, s.IconoMediaID, s.IconoSVG, s.IconoClase, s.ID)
		}
		err := row.Scan(&out.ID, &out.Nombre, &out.Slug, &out.IconoMediaID, &out.IconoSVG, &out.IconoClase)
		return out.ID, err
	})
	return out, err
}

func (r *Repository) GuardarSubcategoria(ctx context.Context, s repo.Subcategoria, a Auditoria) (repo.Subcategoria, error) {
	var out repo.Subcategoria
	err := r.escribir(ctx, a, func(ctx context.Context, tx pgx.Tx) (int64, error) {
		var row pgx.Row
		if s.ID == 0 {
			row = tx.QueryRow(ctx, `
                INSERT INTO mdr_subcategorias (ambito_id, nombre, slug) VALUES ($1, $2, $3)
                RETURNING id, ambito_id, nombre, slug
            `, s.AmbitoID, s.Nombre, s.Slug)
		} else {
			row = tx.QueryRow(ctx, `
                UPDATE mdr_subcategorias SET ambito_id = $1, nombre = $2, slug = $3 WHERE id = $4
                RETURNING id, ambito_id, nombre, slug
            `, s.AmbitoID, s.Nombre, s.Slug, s.ID)
		}
		err := row.Scan(&out.ID, &out.AmbitoID, &out.Nombre, &out.Slug)
		return out.ID, err
	})
	return out, err
}

const entidadCols = `nombre, slug, lat, lng, zona_id, telefono, email, web, descripcion, logo_url, logo_media_id, direccion, cp, ciudad, provincia, pais`

func (r *Repository) GuardarEntidad(ctx context.Context, e repo.Entidad, a Auditoria) (repo.Entidad, error) {
	args := []any{
		e.Nombre, e.Slug, e.Lat, e.Lng, e.ZonaID, e.Telefono, e.Email, e.Web, e.Descripcion,
		e.LogoURL, e.LogoMediaID, e.Direccion, e.CP, e.Ciudad, e.Provincia, e.Pais,
	}

	var out repo.Entidad
	err := r.escribir(ctx, a, func(ctx context.Context, tx pgx.Tx) (int64, error) {
		var row pgx.Row
		if e.ID == 0 {
			row = tx.QueryRow(ctx, `
                INSERT INTO mdr_entidades (`+entidadCols+`)
                VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
                RETURNING id, `+entidadCols, args...)
		} else {
			row = tx.QueryRow(ctx, `
                UPDATE mdr_entidades SET
                    nombre = $1, slug = $2, lat = $3, lng = $4, zona_id = $5, telefono = $6, email = $7,
                    web = $8, descripcion = $9, logo_url = $10, logo_media_id = $11, direccion = $12,
                    cp = $13, ciudad = $14, provincia = $15, pais = $16
                WHERE id = $17
                RETURNING id, `+entidadCols, append(args, e.ID)...)
		}
		err := row.Scan(
			&out.ID, &out.Nombre, &out.Slug, &out.Lat, &out.Lng, &out.ZonaID, &out.Telefono, &out.Email,
			&out.Web, &out.Descripcion, &out.LogoURL, &out.LogoMediaID, &out.Direccion, &out.CP,
			&out.Ciudad, &out.Provincia, &out.Pais,
		)
		return out.ID, err
	})
	return out, err
}

func (r *Repository) GuardarRecurso(ctx context.Context, rec repo.Recurso, a Auditoria) (repo.Recurso, error) {
	contactos, err := json.Marshal(rec.Contactos)
	if err != nil {
		return repo.Recurso{}, err
	}
	args := []any{
		rec.EntidadID, rec.RecursoPrograma, rec.Descripcion, rec.Objetivo, rec.Destinatarios,
		rec.PeriodoEjecucion, rec.PeriodoInicio, rec.PeriodoFin, rec.EntidadGestora, rec.EntidadGestoraID,
		rec.Financiacion, rec.FinanciacionID, rec.Contacto, contactos, rec.ServicioID, rec.AmbitoID,
		rec.SubcategoriaID, rec.Activo,
	}

	out := rec
	err = r.escribir(ctx, a, func(ctx context.Context, tx pgx.Tx) (int64, error) {
		var row pgx.Row
		if rec.ID == 0 {
			row = tx.QueryRow(ctx, `
                INSERT INTO mdr_recursos (
                    entidad_id, recurso_programa, descripcion, objetivo, destinatarios,
                    periodo_ejecucion, periodo_inicio, periodo_fin, entidad_gestora, entidad_gestora_id,
                    financiacion, financiacion_id, contacto, contactos, servicio_id, ambito_id,
                    subcategoria_id, activo
                )
                VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
                RETURNING id, updated_at
            `, args...)
		} else {
			row = tx.QueryRow(ctx, `
                UPDATE mdr_recursos SET
                    entidad_id = $1, recurso_programa = $2, descripcion = $3, objetivo = $4,
                    destinatarios = $5, periodo_ejecucion = $6, periodo_inicio = $7, periodo_fin = $8,
                    entidad_gestora = $9, entidad_gestora_id = $10, financiacion = $11,
                    financiacion_id = $12, contacto = $13, contactos = $14, servicio_id = $15,
                    ambito_id = $16, subcategoria_id = $17, activo = $18, updated_at = now()
                WHERE id = $19
                RETURNING id, updated_at
            `, append(args, rec.ID)...)
		}
		err := row.Scan(&out.ID, &out.UpdatedAt)
		return out.ID, err
	})
	return out, err
}

func (r *Repository) Borrar(ctx context.Context, tipo Tipo, id int64, a Auditoria) error {
	tabla, ok := tipo.Tabla()
	if !ok {
		return fmt.Errorf("tipo %q desconocido", tipo)
	}
	return r.escribir(ctx, a, func(ctx context.Context, tx pgx.Tx) (int64, error) {
		tag, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, tabla), id)
		if err != nil {
			return 0, err
		}
		if tag.RowsAffected() == 0 {
			return 0, repo.ErrNotFound
		}
		return id, nil
	})
}

// mapError traduce los errores de Postgres a errores del dominio.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repo.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		case "23503":
			return fmt.Errorf("%w: referencia inexistente (%s)", ErrConflict, pgErr.ConstraintName)
		case "23514":
			return repo.ErrCoordenadas
		}
	}
	return err
}
