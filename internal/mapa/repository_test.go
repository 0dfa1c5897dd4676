package mapa

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/arrabal/mapaderecursos/internal/db"
	"github.com/arrabal/mapaderecursos/internal/geo"
)

// Requiere TEST_DB_DSN apuntando a una base de datos desechable.
func TestRepositoryBuscarEntidadesPostgres(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN no definido")
	}
	ctx := context.Background()

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	sufijo := uuid.NewString()[:8]
	var entidadID, servicioID, otroServicioID int64
	if err := pool.QueryRow(ctx, `INSERT INTO mdr_entidades (nombre, slug, lat, lng) VALUES ($1, $2, 36.70, -4.42) RETURNING id`,
		"Prueba "+sufijo, "prueba-"+sufijo).Scan(&entidadID); err != nil {
		t.Fatalf("entidad: %v", err)
	}
	if err := pool.QueryRow(ctx, `INSERT INTO mdr_servicios (nombre, slug) VALUES ($1, $1) RETURNING id`, "serv-"+sufijo).Scan(&servicioID); err != nil {
		t.Fatalf("servicio: %v", err)
	}
	if err := pool.QueryRow(ctx, `INSERT INTO mdr_servicios (nombre, slug) VALUES ($1, $1) RETURNING id`, "otro-"+sufijo).Scan(&otroServicioID); err != nil {
		t.Fatalf("servicio: %v", err)
	}
	if _, err := pool.Exec(ctx, `INSERT INTO mdr_recursos (entidad_id, recurso_programa, servicio_id) VALUES ($1, 'Acogida', $2)`, entidadID, servicioID); err != nil {
		t.Fatalf("recurso: %v", err)
	}
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM mdr_entidades WHERE id = $1`, entidadID)
		_, _ = pool.Exec(context.Background(), `DELETE FROM mdr_servicios WHERE id IN ($1, $2)`, servicioID, otroServicioID)
	})

	repository := NewRepository(pool)
	today := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	base := Filtro{BBox: geo.ParseBBox("-4.43,36.69,-4.41,36.71"), Q: sufijo}

	got, err := repository.BuscarEntidades(ctx, base, today, 2000)
	if err != nil {
		t.Fatalf("buscar: %v", err)
	}
	if len(got) != 1 || got[0].ID != entidadID {
		t.Fatalf("esperaba la entidad %d, got %+v", entidadID, got)
	}

	conServicio := base
	conServicio.ServicioID = servicioID
	if got, err = repository.BuscarEntidades(ctx, conServicio, today, 2000); err != nil || len(got) != 1 {
		t.Fatalf("con su servicio: %+v %v", got, err)
	}

	otro := base
	otro.ServicioID = otroServicioID
	if got, err = repository.BuscarEntidades(ctx, otro, today, 2000); err != nil || len(got) != 0 {
		t.Fatalf("con otro servicio: %+v %v", got, err)
	}

	if _, err := pool.Exec(ctx, `UPDATE mdr_recursos SET periodo_fin = '2026-03-31' WHERE entidad_id = $1`, entidadID); err != nil {
		t.Fatalf("caducar: %v", err)
	}
	if got, err = repository.BuscarEntidades(ctx, base, today, 2000); err != nil || len(got) != 0 {
		t.Fatalf("recurso caducado: %+v %v", got, err)
	}
}
