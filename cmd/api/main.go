package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/arrabal/mapaderecursos/internal/admin"
	"github.com/arrabal/mapaderecursos/internal/agenda"
	"github.com/arrabal/mapaderecursos/internal/ajustes"
	"github.com/arrabal/mapaderecursos/internal/auth"
	"github.com/arrabal/mapaderecursos/internal/cache"
	"github.com/arrabal/mapaderecursos/internal/clock"
	"github.com/arrabal/mapaderecursos/internal/config"
	"github.com/arrabal/mapaderecursos/internal/db"
	"github.com/arrabal/mapaderecursos/internal/empleo"
	internalhttp "github.com/arrabal/mapaderecursos/internal/http"
	"github.com/arrabal/mapaderecursos/internal/informe"
	"github.com/arrabal/mapaderecursos/internal/mapa"
	"github.com/arrabal/mapaderecursos/internal/storage"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api terminada con error")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	clk, err := clock.Load(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	stores, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer stores.Close()
	store := stores.Consultas

	logger := log.Logger

	ajustesService := ajustes.NewService(ajustes.NewRepository(pool), ajustes.Defaults(cfg), logger)
	if err := ajustesService.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("ajustes guardados no disponibles, se usan los del entorno")
	}

	mapaService := mapa.NewService(mapa.NewRepository(pool), store, clk, mapa.Options{
		EntidadesTTL: cfg.Cache.EntidadesTTL,
		FiltrosTTL:   cfg.Cache.FiltrosTTL,
		MaxEntidades: cfg.Mapa.MaxEntidades,
		SiteURL:      cfg.Mapa.SiteURL,
	}, logger)

	aggregator := agenda.NewFromConfig(cfg.Agenda, stores.Feeds, clk, logger)

	empleoReader := empleo.NewReader(cfg.Empleo.FeedURL, &http.Client{Timeout: cfg.Agenda.HTTPTimeout}, stores.Feeds, clk, cfg.Empleo.CacheTTL, logger)

	uploader, err := storage.New(cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	informes := informe.NewService(informe.NewRepository(pool), uploader, clk, logger)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	adminService := admin.NewService(admin.NewRepository(pool), store, jwtManager, ajustesService, informes, logger)

	handler := internalhttp.NewRouter(cfg, internalhttp.Deps{
		DB:          pool,
		Cache:       store,
		JWT:         jwtManager,
		Mapa:        mapaService,
		Ajustes:     ajustesService,
		Agenda:      aggregator,
		Empleo:      empleoReader,
		Admin:       adminService,
		Placeholder: cfg.Agenda.PlaceholderURL,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("cache", store.Name()).Msgf("API escuchando en :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("cerrando...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
