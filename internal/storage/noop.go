package storage

import (
	"context"
	"errors"
)

// ErrNoConfigurado indica que no hay backend de almacenamiento.
var ErrNoConfigurado = errors.New("storage: almacenamiento no configurado")

// NoopUploader rechaza todas las subidas.
type NoopUploader struct{}

func (NoopUploader) Upload(context.Context, UploadInput) (*UploadResult, error) {
	return nil, ErrNoConfigurado
}
