package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config centraliza la configuración cargada del entorno.
type Config struct {
	Port         int
	DBDSN        string
	LogLevel     string
	AllowOrigins []string
	Timezone     string

	JWTSecret    string
	JWTAccessTTL time.Duration

	RateLimitPublic RateLimitConfig
	RateLimitLogin  RateLimitConfig

	Cache   CacheConfig
	Mapa    MapaConfig
	Agenda  AgendaConfig
	Empleo  EmpleoConfig
	Storage StorageConfig
}

// RateLimitConfig representa límites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// CacheConfig selecciona el backend y los TTL de las consultas.
type CacheConfig struct {
	Backend      string
	RedisURL     string
	BadgerPath   string
	EntidadesTTL time.Duration
	FiltrosTTL   time.Duration
}

// MapaConfig agrupa los ajustes públicos del mapa.
type MapaConfig struct {
	Provider        string
	MapboxToken     string
	DefaultRadiusKm float64
	FallbackLat     float64
	FallbackLng     float64
	DefaultZona     string
	MaxEntidades    int
	SiteURL         string
}

// AgendaConfig describe las dos fuentes de la agenda.
type AgendaConfig struct {
	APIURL         string
	PostsURL       string
	PostsCategory  int
	FetchCount     int
	CacheTTL       time.Duration
	HTTPTimeout    time.Duration
	PlaceholderURL string
}

// EmpleoConfig describe el feed RSS de ofertas.
type EmpleoConfig struct {
	FeedURL  string
	CacheTTL time.Duration
}

// StorageConfig elige dónde se guardan los informes exportados.
type StorageConfig struct {
	Provider    string
	Dir         string
	PublicURL   string
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string
}

const defaultPlaceholder = "https://eracis.asociacionarrabal.org/wp-content/uploads/eracis-plus-blanco.svg"

// Load carga variables de entorno y aplica valores por defecto seguros.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválido")
	}
	cfg.Port = port

	cfg.DBDSN = strings.TrimSpace(getEnv("DB_DSN", ""))
	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN obligatorio")
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info")))
	cfg.Timezone = strings.TrimSpace(getEnv("TIMEZONE", "Europe/Madrid"))

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", ""))
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET debe tener al menos 32 caracteres")
	}
	if cfg.JWTAccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", 8*time.Hour); err != nil {
		return nil, err
	}

	cfg.AllowOrigins = splitList(getEnv("ALLOW_ORIGINS", ""))
	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 10, Burst: 30}
	cfg.RateLimitLogin = RateLimitConfig{RequestsPerSecond: 5.0 / 60.0, Burst: 5}

	if err := loadCache(cfg); err != nil {
		return nil, err
	}
	if err := loadMapa(cfg); err != nil {
		return nil, err
	}
	if err := loadAgenda(cfg); err != nil {
		return nil, err
	}

	cfg.Empleo.FeedURL = strings.TrimSpace(getEnv("EMPLEO_FEED_URL", "https://arrabalempleo.agenciascolocacion.com/rss"))
	if cfg.Empleo.CacheTTL, err = parseDurationEnv("EMPLEO_CACHE_TTL", time.Hour); err != nil {
		return nil, err
	}

	cfg.Storage = StorageConfig{
		Provider:    strings.ToLower(strings.TrimSpace(getEnv("STORAGE_PROVIDER", "noop"))),
		Dir:         getEnv("STORAGE_DIR", "./informes"),
		PublicURL:   getEnv("STORAGE_PUBLIC_URL", ""),
		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3Region:    getEnv("S3_REGION", "auto"),
		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		S3PublicURL: getEnv("S3_PUBLIC_URL", ""),
	}

	return cfg, nil
}

func loadCache(cfg *Config) error {
	var err error
	cfg.Cache.Backend = strings.ToLower(strings.TrimSpace(getEnv("CACHE_BACKEND", "memory")))
	cfg.Cache.RedisURL = strings.TrimSpace(getEnv("REDIS_URL", ""))
	cfg.Cache.BadgerPath = strings.TrimSpace(getEnv("BADGER_PATH", ""))
	switch cfg.Cache.Backend {
	case "memory", "badger":
	case "redis":
		if cfg.Cache.RedisURL == "" {
			return errors.New("REDIS_URL obligatorio con CACHE_BACKEND=redis")
		}
	default:
		return errors.New("CACHE_BACKEND inválido")
	}
	if cfg.Cache.EntidadesTTL, err = parseDurationEnv("ENTIDADES_CACHE_TTL", 300*time.Second); err != nil {
		return err
	}
	if cfg.Cache.FiltrosTTL, err = parseDurationEnv("FILTROS_CACHE_TTL", 600*time.Second); err != nil {
		return err
	}
	return nil
}

func loadMapa(cfg *Config) error {
	var err error
	cfg.Mapa.Provider = strings.ToLower(strings.TrimSpace(getEnv("MAP_PROVIDER", "osm")))
	cfg.Mapa.MapboxToken = strings.TrimSpace(getEnv("MAPBOX_TOKEN", ""))
	cfg.Mapa.DefaultZona = strings.TrimSpace(getEnv("DEFAULT_ZONA", ""))
	cfg.Mapa.SiteURL = strings.TrimRight(strings.TrimSpace(getEnv("SITE_URL", "https://eracis.asociacionarrabal.org")), "/")
	if cfg.Mapa.DefaultRadiusKm, err = parseFloatEnv("DEFAULT_RADIUS_KM", 5); err != nil {
		return err
	}
	if cfg.Mapa.DefaultRadiusKm <= 0 {
		return errors.New("DEFAULT_RADIUS_KM debe ser positivo")
	}
	if cfg.Mapa.FallbackLat, err = parseFloatEnv("FALLBACK_LAT", 36.7213); err != nil {
		return err
	}
	if cfg.Mapa.FallbackLng, err = parseFloatEnv("FALLBACK_LNG", -4.4214); err != nil {
		return err
	}
	if cfg.Mapa.MaxEntidades, err = parseIntEnv("MAX_ENTIDADES", 2000); err != nil {
		return err
	}
	return nil
}

func loadAgenda(cfg *Config) error {
	var err error
	cfg.Agenda.APIURL = strings.TrimRight(strings.TrimSpace(getEnv("AGENDA_API_URL", "https://asociacionarrabal.org/wp-json/wp/v2/agenda")), "/")
	cfg.Agenda.PostsURL = strings.TrimRight(strings.TrimSpace(getEnv("AGENDA_POSTS_URL", postsURL(cfg.Agenda.APIURL))), "/")
	cfg.Agenda.PlaceholderURL = strings.TrimSpace(getEnv("PLACEHOLDER_URL", defaultPlaceholder))
	if cfg.Agenda.PostsCategory, err = parseIntEnv("AGENDA_POSTS_CATEGORY", 14); err != nil {
		return err
	}
	if cfg.Agenda.FetchCount, err = parseIntEnv("AGENDA_FETCH_COUNT", 100); err != nil {
		return err
	}
	if cfg.Agenda.CacheTTL, err = parseDurationEnv("AGENDA_CACHE_TTL", time.Hour); err != nil {
		return err
	}
	if cfg.Agenda.HTTPTimeout, err = parseDurationEnv("HTTP_CLIENT_TIMEOUT", 10*time.Second); err != nil {
		return err
	}
	return nil
}

// postsURL deriva el endpoint de entradas del mismo WordPress que sirve la
// agenda: .../wp-json/wp/v2/agenda pasa a .../wp-json/wp/v2/posts.
func postsURL(agendaURL string) string {
	idx := strings.LastIndex(agendaURL, "/")
	if idx <= 0 {
		return ""
	}
	return agendaURL[:idx] + "/posts"
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil || dur <= 0 {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}

func parseFloatEnv(key string, def float64) (float64, error) {
	val := strings.TrimSpace(getEnv(key, ""))
	if val == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, errors.New(key + " inválido")
	}
	return f, nil
}

func parseIntEnv(key string, def int) (int, error) {
	val := strings.TrimSpace(getEnv(key, ""))
	if val == "" {
		return def, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return 0, errors.New(key + " inválido")
	}
	return n, nil
}
