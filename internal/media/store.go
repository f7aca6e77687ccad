// Package media stores durable copies of poster photos on local disk and
// maps them to the web paths served by the read API.
package media

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"partybot/core/logger"
)

// WebPrefix is the URL prefix under which stored photos are exposed.
const WebPrefix = "/posters/"

// Store writes poster photos into a single flat directory.
type Store struct {
	dir string
}

// NewStore ensures the directory exists and returns a store over it.
func NewStore(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("media: empty storage dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media: create storage dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Save streams the photo to disk under a collision-resistant generated name
// and returns its web path. The context cancels a long copy.
func (s *Store) Save(ctx context.Context, r io.Reader, ext string) (string, error) {
	name := generateName(ext)
	dst := filepath.Join(s.dir, name)

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("media: create %s: %w", dst, err)
	}
	defer f.Close()

	n, err := io.Copy(f, contextReader{ctx: ctx, r: r})
	if err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("media: write %s: %w", dst, err)
	}
	logger.SVCMedia.Info("photo.stored",
		slog.String("event", "save"),
		slog.String("path", WebPrefix+name),
		slog.Int64("count", n),
	)
	return WebPrefix + name, nil
}

// Remove deletes the stored photo referenced by its web path. Paths outside
// the store are rejected.
func (s *Store) Remove(webPath string) error {
	name, ok := s.fileName(webPath)
	if !ok {
		return fmt.Errorf("media: %q is not a stored photo path", webPath)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("media: remove %s: %w", name, err)
	}
	logger.SVCMedia.Info("photo.removed",
		slog.String("event", "remove"),
		slog.String("path", webPath),
	)
	return nil
}

// Abs returns the absolute filesystem path for a stored photo web path.
func (s *Store) Abs(webPath string) (string, bool) {
	name, ok := s.fileName(webPath)
	if !ok {
		return "", false
	}
	return filepath.Join(s.dir, name), true
}

// IsLocal reports whether the reference points into this store.
func (s *Store) IsLocal(ref string) bool {
	_, ok := s.fileName(ref)
	return ok
}

// Dir returns the backing directory, used to mount the static file route.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) fileName(webPath string) (string, bool) {
	if !strings.HasPrefix(webPath, WebPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(webPath, WebPrefix)
	if name == "" || name == "." || strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return "", false
	}
	return name, true
}

func generateName(ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		ext = "jpg"
	}
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("poster_%d_%s.%s", time.Now().UnixNano(), hex.EncodeToString(buf), ext)
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
