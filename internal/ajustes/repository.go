package ajustes

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 3 * time.Second

// Guardados son los valores que el administrador ha sobrescrito. Un campo nil
// conserva el valor del entorno.
type Guardados struct {
	MapProvider     *string  `json:"map_provider,omitempty"`
	MapboxToken     *string  `json:"mapbox_token,omitempty"`
	DefaultRadiusKm *float64 `json:"default_radius_km,omitempty"`
	FallbackLat     *float64 `json:"fallback_lat,omitempty"`
	FallbackLng     *float64 `json:"fallback_lng,omitempty"`
	DefaultZona     *string  `json:"default_zona,omitempty"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Get devuelve la fila única; sin fila devuelve Guardados vacío.
func (r *Repository) Get(ctx context.Context) (Guardados, time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var (
		raw       []byte
		updatedAt time.Time
		out       Guardados
	)
	err := r.db.QueryRow(ctx, `SELECT datos, updated_at FROM mdr_ajustes WHERE id = 1`).Scan(&raw, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return out, time.Time{}, nil
		}
		return out, time.Time{}, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return Guardados{}, time.Time{}, err
	}
	return out, updatedAt, nil
}

// Save sustituye la fila única.
func (r *Repository) Save(ctx context.Context, g Guardados, updatedBy *int64) (time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	raw, err := json.Marshal(g)
	if err != nil {
		return time.Time{}, err
	}

	const query = `
        INSERT INTO mdr_ajustes (id, datos, updated_at, updated_by)
        VALUES (1, $1, now(), $2)
        ON CONFLICT (id)
        DO UPDATE SET
            datos = EXCLUDED.datos,
            updated_at = EXCLUDED.updated_at,
            updated_by = EXCLUDED.updated_by
        RETURNING updated_at
    `
	var updatedAt time.Time
	if err := r.db.QueryRow(ctx, query, raw, updatedBy).Scan(&updatedAt); err != nil {
		return time.Time{}, err
	}
	return updatedAt, nil
}
