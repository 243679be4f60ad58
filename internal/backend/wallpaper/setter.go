package wallpaper

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jo-hoe/photobrowser/internal/backend/database"
)

var (
	// ErrUnsupported is returned by setters on targets without a wallpaper.
	ErrUnsupported = errors.New("wallpaper is not supported")
	// ErrNotAllowed is returned when setting the wallpaper is disabled by policy.
	ErrNotAllowed = errors.New("setting the wallpaper is not allowed")
)

// Setter hands processed images to the wallpaper target.
type Setter interface {
	IsSupported() bool
	IsSetAllowed() bool
	SetImage(ctx context.Context, mediaID string, data []byte) error
	Current(ctx context.Context) (*database.Wallpaper, error)
}

// Config selects the wallpaper target.
type Config struct {
	Type     string `yaml:"type"`
	Path     string `yaml:"path"`
	AllowSet *bool  `yaml:"allowSet"`
}

func (c Config) setAllowed() bool {
	return c.AllowSet == nil || *c.AllowSet
}

// NewSetter builds the setter for cfg. store backs the frame target and may be
// nil for the other types.
func NewSetter(cfg Config, store database.WallpaperStore) (Setter, error) {
	switch cfg.Type {
	case "", "frame":
		if store == nil {
			store = database.NewMemoryWallpaperStore()
		}
		return NewFrameSetter(store, cfg.setAllowed()), nil
	case "file":
		return NewFileSetter(cfg.Path, cfg.setAllowed())
	case "none":
		return NoopSetter{}, nil
	default:
		return nil, fmt.Errorf("unsupported wallpaper type: %s", cfg.Type)
	}
}

func checkSettable(s Setter) error {
	if !s.IsSupported() {
		return ErrUnsupported
	}
	if !s.IsSetAllowed() {
		return ErrNotAllowed
	}
	return nil
}

func mimeTypeOf(data []byte) string {
	return http.DetectContentType(data)
}
