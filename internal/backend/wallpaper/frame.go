package wallpaper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jo-hoe/photobrowser/internal/backend/database"
)

// FrameSetter keeps the processed image in a WallpaperStore from where the
// server hands it to a display device.
type FrameSetter struct {
	store   database.WallpaperStore
	allowed bool
}

func NewFrameSetter(store database.WallpaperStore, allowed bool) *FrameSetter {
	return &FrameSetter{store: store, allowed: allowed}
}

func (s *FrameSetter) IsSupported() bool {
	return true
}

func (s *FrameSetter) IsSetAllowed() bool {
	return s.allowed
}

func (s *FrameSetter) SetImage(ctx context.Context, mediaID string, data []byte) error {
	if err := checkSettable(s); err != nil {
		return err
	}
	wallpaper := database.Wallpaper{
		MediaID:  mediaID,
		MimeType: mimeTypeOf(data),
		Data:     data,
	}
	if err := s.store.SetWallpaper(ctx, wallpaper); err != nil {
		return fmt.Errorf("failed to store frame wallpaper: %w", err)
	}
	slog.Info("frame wallpaper updated", "media_id", mediaID, "mime_type", wallpaper.MimeType, "size_bytes", len(data))
	return nil
}

func (s *FrameSetter) Current(ctx context.Context) (*database.Wallpaper, error) {
	return s.store.GetWallpaper(ctx)
}
