package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/arrabal/mapaderecursos/internal/admin"
	"github.com/arrabal/mapaderecursos/internal/agenda"
	"github.com/arrabal/mapaderecursos/internal/auth"
	"github.com/arrabal/mapaderecursos/internal/cache"
	"github.com/arrabal/mapaderecursos/internal/clock"
	"github.com/arrabal/mapaderecursos/internal/config"
	"github.com/arrabal/mapaderecursos/internal/db"
	"github.com/arrabal/mapaderecursos/internal/geo"
	"github.com/arrabal/mapaderecursos/internal/mapa"
	"github.com/arrabal/mapaderecursos/internal/util"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuración inválida")
	}
	clk, err := clock.Load(cfg.Timezone)
	if err != nil {
		log.Fatal().Err(err).Msg("zona horaria inválida")
	}

	ctx := context.Background()
	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "migrate":
		err = runMigrate(ctx, cfg)
	case "cache-flush":
		err = runCacheFlush(ctx, cfg)
	case "buscar":
		err = runBuscar(ctx, cfg, clk, args)
	case "agenda":
		err = runAgenda(ctx, cfg, clk, args)
	case "admin-create":
		err = runAdminCreate(ctx, cfg, args)
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal().Err(err).Str("cmd", cmd).Msg("fallo")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "mdrctl: utilidades del mapa de recursos")
	fmt.Fprintln(os.Stderr, "uso:")
	fmt.Fprintln(os.Stderr, "  mdrctl migrate")
	fmt.Fprintln(os.Stderr, "  mdrctl cache-flush")
	fmt.Fprintln(os.Stderr, "  mdrctl buscar [--lat 36.72 --lng -4.42 --radio 5] [--zona 3] [--ambito 2] [--q texto] [--all]")
	fmt.Fprintln(os.Stderr, "  mdrctl agenda [--per-page 9] [--page 1] [--order desc] [--mode upcoming]")
	fmt.Fprintln(os.Stderr, "  mdrctl admin-create --email ana@arrabal.org --nombre \"Ana\" (contraseña en MDR_ADMIN_PASSWORD)")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runMigrate(ctx context.Context, cfg *config.Config) error {
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}
	log.Info().Msg("esquema aplicado")
	return nil
}

func runCacheFlush(ctx context.Context, cfg *config.Config) error {
	stores, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer stores.Close()

	// los feeds externos solo caducan por TTL
	store := stores.Consultas
	if err := store.FlushAll(ctx); err != nil {
		return err
	}
	log.Info().Str("backend", store.Name()).Msg("caché vaciada")
	return nil
}

func runBuscar(ctx context.Context, cfg *config.Config, clk *clock.Clock, args []string) error {
	fs := flag.NewFlagSet("buscar", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		lat    = fs.Float64("lat", 0, "latitud del centro")
		lng    = fs.Float64("lng", 0, "longitud del centro")
		radio  = fs.Float64("radio", cfg.Mapa.DefaultRadiusKm, "radio en km")
		zona   = fs.Int64("zona", 0, "id de zona")
		ambito = fs.Int64("ambito", 0, "id de ámbito")
		sub    = fs.Int64("subcategoria", 0, "id de subcategoría")
		serv   = fs.Int64("servicio", 0, "id de servicio")
		q      = fs.String("q", "", "texto libre")
		todas  = fs.Bool("all", false, "ignorar el bbox")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	// sin caché: la CLI siempre consulta la base de datos
	service := mapa.NewService(mapa.NewRepository(pool), nil, clk, mapa.Options{
		MaxEntidades: cfg.Mapa.MaxEntidades,
		SiteURL:      cfg.Mapa.SiteURL,
	}, log.Logger)

	f := mapa.Filtro{
		Todas:          *todas,
		ZonaID:         *zona,
		AmbitoID:       *ambito,
		SubcategoriaID: *sub,
		ServicioID:     *serv,
		Q:              *q,
	}

	var resultado any
	if *lat != 0 || *lng != 0 {
		if *radio <= 0 {
			return errors.New("el radio debe ser positivo")
		}
		resultado, err = service.EntidadesCerca(ctx, f, geo.Point{Lat: *lat, Lng: *lng}, *radio)
	} else {
		resultado, err = service.Entidades(ctx, f)
	}
	if err != nil {
		return err
	}
	return printJSON(resultado)
}

func runAgenda(ctx context.Context, cfg *config.Config, clk *clock.Clock, args []string) error {
	fs := flag.NewFlagSet("agenda", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		perPage = fs.Int("per-page", 9, "eventos por página")
		page    = fs.Int("page", 1, "página")
		orderBy = fs.String("orderby", "date", "campo de orden")
		order   = fs.String("order", "desc", "asc o desc")
		search  = fs.String("search", "", "búsqueda")
		mode    = fs.String("mode", "", "upcoming, past o all")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	agg := agenda.NewFromConfig(cfg.Agenda, nil, clk, log.Logger)
	res, err := agg.Events(ctx, agenda.Query{
		PerPage: *perPage,
		Page:    *page,
		OrderBy: *orderBy,
		Order:   *order,
		Search:  *search,
		Mode:    *mode,
	})
	if err != nil {
		return err
	}
	return printJSON(res)
}

func runAdminCreate(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("admin-create", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		email  = fs.String("email", "", "email del administrador")
		nombre = fs.String("nombre", "", "nombre visible")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := util.ValidateEmail(*email); err != nil {
		return err
	}
	if err := util.RequireString(*nombre, "nombre"); err != nil {
		return err
	}
	password := os.Getenv("MDR_ADMIN_PASSWORD")
	if err := util.ValidatePassword(password); err != nil {
		return err
	}

	hash, err := auth.Hash(password)
	if err != nil {
		return err
	}

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	id, err := admin.NewRepository(pool).GuardarAdmin(ctx, *email, *nombre, hash)
	if err != nil {
		return err
	}
	log.Info().Int64("id", id).Str("email", *email).Msg("administrador guardado")
	return nil
}
