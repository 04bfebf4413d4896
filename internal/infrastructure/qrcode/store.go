// Package qrcode renders QR codes to PNG files served under a public base URL.
package qrcode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	qr "github.com/skip2/go-qrcode"
)

const defaultSize = 256

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// Store writes QR images into Dir and links them under BaseURL.
type Store struct {
	dir     string
	baseURL string
	size    int
}

func NewStore(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("qrcode dir: %w", err)
	}
	return &Store{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), size: defaultSize}, nil
}

// Encode renders payload as JSON into <dir>/<name>.png and returns its URL.
// The file is written to a temporary name first so readers never see a
// partial image.
func (s *Store) Encode(ctx context.Context, name string, payload any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	content, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("qrcode payload: %w", err)
	}
	png, err := qr.Encode(string(content), qr.Medium, s.size)
	if err != nil {
		return "", fmt.Errorf("qrcode encode: %w", err)
	}

	file := fileName(name)
	tmp, err := os.CreateTemp(s.dir, ".qr-*")
	if err != nil {
		return "", fmt.Errorf("qrcode write: %w", err)
	}
	if _, err := tmp.Write(png); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("qrcode write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("qrcode write: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, file)); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("qrcode write: %w", err)
	}

	return s.baseURL + "/" + file, nil
}

// Remove deletes the image stored under name. A missing file is not an error.
func (s *Store) Remove(_ context.Context, name string) error {
	if err := os.Remove(filepath.Join(s.dir, fileName(name))); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("qrcode remove: %w", err)
	}
	return nil
}

func fileName(name string) string {
	return unsafeName.ReplaceAllString(name, "_") + ".png"
}

// Dir is the directory images are written to.
func (s *Store) Dir() string {
	return s.dir
}
