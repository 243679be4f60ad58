package database

import (
	"context"
	"sync"
	"time"
)

// MemoryWallpaperStore keeps the wallpaper in process memory, used with media
// stores that have no wallpaper table.
type MemoryWallpaperStore struct {
	mu        sync.RWMutex
	wallpaper *Wallpaper
}

func NewMemoryWallpaperStore() *MemoryWallpaperStore {
	return &MemoryWallpaperStore{}
}

func (s *MemoryWallpaperStore) SetWallpaper(_ context.Context, wallpaper Wallpaper) error {
	if wallpaper.SetAt.IsZero() {
		wallpaper.SetAt = time.Now().UTC()
	}
	wallpaper.Data = append([]byte(nil), wallpaper.Data...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallpaper = &wallpaper
	return nil
}

func (s *MemoryWallpaperStore) GetWallpaper(_ context.Context) (*Wallpaper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.wallpaper == nil {
		return nil, ErrWallpaperNotFound
	}
	copied := *s.wallpaper
	return &copied, nil
}
