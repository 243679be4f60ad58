package wallpaper

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jo-hoe/photobrowser/internal/backend/database"
)

// FileSetter writes the wallpaper to a fixed path, e.g. a file picked up by a
// desktop background daemon. Writes go through a temp file and a rename.
type FileSetter struct {
	path    string
	allowed bool

	mu      sync.Mutex
	mediaID string
}

func NewFileSetter(path string, allowed bool) (*FileSetter, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("wallpaper path must not be empty for type file")
	}
	return &FileSetter{path: filepath.Clean(path), allowed: allowed}, nil
}

func (s *FileSetter) IsSupported() bool {
	return true
}

func (s *FileSetter) IsSetAllowed() bool {
	return s.allowed
}

func (s *FileSetter) SetImage(ctx context.Context, mediaID string, data []byte) error {
	if err := checkSettable(s); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create wallpaper directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".wallpaper-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary wallpaper file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write wallpaper: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close wallpaper file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace wallpaper: %w", err)
	}

	s.mediaID = mediaID
	slog.Info("file wallpaper updated", "media_id", mediaID, "path", s.path, "size_bytes", len(data))
	return nil
}

func (s *FileSetter) Current(_ context.Context) (*database.Wallpaper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, database.ErrWallpaperNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat wallpaper: %w", err)
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallpaper: %w", err)
	}
	return &database.Wallpaper{
		MediaID:  s.mediaID,
		MimeType: mimeTypeOf(data),
		Data:     data,
		SetAt:    info.ModTime().UTC(),
	}, nil
}
