// Package storage guarda los ficheros exportados (informes) y devuelve su URL.
package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/arrabal/mapaderecursos/internal/config"
)

// UploadInput es una subida simple de un objeto.
type UploadInput struct {
	Key          string
	Body         []byte
	ContentType  string
	CacheControl string
}

// UploadResult describe el objeto guardado.
type UploadResult struct {
	URL  string
	ETag string
}

// Uploader guarda blobs en algún backend.
type Uploader interface {
	Upload(ctx context.Context, input UploadInput) (*UploadResult, error)
}

// New elige el backend según STORAGE_PROVIDER.
func New(cfg config.StorageConfig) (Uploader, error) {
	switch cfg.Provider {
	case "", "noop":
		return NoopUploader{}, nil
	case "dir":
		return NewDirUploader(cfg.Dir, cfg.PublicURL)
	case "s3":
		return NewS3Uploader(S3Config{
			Endpoint:     cfg.S3Endpoint,
			Region:       cfg.S3Region,
			Bucket:       cfg.S3Bucket,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			PublicDomain: cfg.S3PublicURL,
			HTTPClient:   &http.Client{Timeout: 15 * time.Second},
		})
	default:
		return nil, fmt.Errorf("storage: proveedor %q desconocido", cfg.Provider)
	}
}
