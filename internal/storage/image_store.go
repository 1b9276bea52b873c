// Package storage keeps uploaded menu images.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/werewolfcoder/OrderingSystem/internal/domain"
)

// ErrTooLarge is returned when an upload exceeds the configured limit
var ErrTooLarge = errors.New("image too large")

// ImageStore saves images and returns the URL they are served under
type ImageStore interface {
	Save(ctx context.Context, tenantID, filename string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// DiskStore writes images below Dir/<tenant>/ and serves them from
// URLPrefix/<tenant>/.
type DiskStore struct {
	Dir       string
	URLPrefix string
	MaxBytes  int64
}

// NewDiskStore creates the upload directory if needed
func NewDiskStore(dir, urlPrefix string, maxBytes int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{Dir: dir, URLPrefix: strings.TrimRight(urlPrefix, "/"), MaxBytes: maxBytes}, nil
}

func (s *DiskStore) Save(ctx context.Context, tenantID, filename string, r io.Reader) (string, error) {
	if err := domain.ValidateTenantID(tenantID); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", domain.NewValidationError("image", "must be a jpg, png, webp or gif file")
	}

	dir := filepath.Join(s.Dir, tenantID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	full := filepath.Join(dir, name)
	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}

	src := r
	if s.MaxBytes > 0 {
		src = io.LimitReader(r, s.MaxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.MaxBytes > 0 && n > s.MaxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(full)
		return "", err
	}

	return s.URLPrefix + "/" + tenantID + "/" + name, nil
}

// Delete removes the file behind url. URLs that do not belong to this store
// are ignored.
func (s *DiskStore) Delete(ctx context.Context, url string) error {
	rel, ok := strings.CutPrefix(url, s.URLPrefix+"/")
	if !ok || rel == "" {
		return nil
	}
	rel = path.Clean("/" + rel)[1:]
	if rel == "" || strings.Contains(rel, "..") {
		return nil
	}

	err := os.Remove(filepath.Join(s.Dir, filepath.FromSlash(rel)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
