package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirUploader escribe los objetos en un directorio local servido aparte.
type DirUploader struct {
	dir       string
	publicURL string
}

func NewDirUploader(dir, publicURL string) (*DirUploader, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("storage: STORAGE_DIR vacío")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	return &DirUploader{dir: dir, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (u *DirUploader) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	key := strings.TrimLeft(filepath.ToSlash(filepath.Clean("/"+input.Key)), "/")
	if key == "" {
		return nil, errors.New("storage: clave del objeto obligatoria")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target := filepath.Join(u.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, input.Body, 0o644); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	sum := sha256.Sum256(input.Body)
	url := "file://" + filepath.ToSlash(target)
	if u.publicURL != "" {
		url = u.publicURL + "/" + key
	}
	return &UploadResult{URL: url, ETag: hex.EncodeToString(sum[:8])}, nil
}
