package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis antepone a cada clave su ámbito y un contador de generación propio
// del ámbito; vaciar es un INCR y las claves antiguas caducan solas por TTL.
type Redis struct {
	client *redis.Client
	scope  string
}

func NewRedis(client *redis.Client, scope string) *Redis {
	return &Redis{client: client, scope: scope}
}

// OpenRedis conecta a partir de una URL redis:// y comprueba la conexión.
func OpenRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Redis{client: client, scope: ScopeConsultas}, nil
}

// Scope devuelve una vista que comparte la conexión pero no la generación.
func (r *Redis) Scope(name string) *Redis {
	return &Redis{client: r.client, scope: name}
}

func (r *Redis) generationKey() string {
	return "mdr:" + r.scope + ":gen"
}

func (r *Redis) Name() string { return "redis" }

func (r *Redis) Close() error { return r.client.Close() }

func (r *Redis) generation(ctx context.Context) (int64, error) {
	val, err := r.client.Get(ctx, r.generationKey()).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

func (r *Redis) versioned(ctx context.Context, key string) (string, error) {
	gen, err := r.generation(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("mdr:%s:%d:%s", r.scope, gen, key), nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	vkey, err := r.versioned(ctx, key)
	if err != nil {
		return nil, false
	}
	data, err := r.client.Get(ctx, vkey).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	vkey, err := r.versioned(ctx, key)
	if err != nil {
		return
	}
	_ = r.client.Set(ctx, vkey, value, ttl).Err()
}

func (r *Redis) FlushAll(ctx context.Context) error {
	return r.client.Incr(ctx, r.generationKey()).Err()
}
