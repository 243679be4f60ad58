package database

import "context"

// MediaStore persists saved images.
//
// Stores that support pending writes hide a record from List until the
// pending flag is cleared, so readers never observe a half-written file.
type MediaStore interface {
	Insert(ctx context.Context, details MediaDetails) (*Media, error)
	Write(ctx context.Context, id string, data []byte) error
	Update(ctx context.Context, id string, update MediaUpdate) error
	Get(ctx context.Context, id string) (*Media, error)
	List(ctx context.Context, includePending bool) ([]*Media, error)
	Data(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
	Close() error

	SupportsPending() bool
	RequiresWritePermission() bool
}

// PermissionRequester is implemented by stores that need a write grant before use.
type PermissionRequester interface {
	RequestWritePermission(ctx context.Context) (bool, error)
}

// WallpaperStore keeps the single current wallpaper.
type WallpaperStore interface {
	SetWallpaper(ctx context.Context, wallpaper Wallpaper) error
	GetWallpaper(ctx context.Context) (*Wallpaper, error)
}

var (
	_ MediaStore          = (*SQLiteDatabase)(nil)
	_ WallpaperStore      = (*SQLiteDatabase)(nil)
	_ MediaStore          = (*DirectoryMediaStore)(nil)
	_ PermissionRequester = (*DirectoryMediaStore)(nil)
	_ WallpaperStore      = (*MemoryWallpaperStore)(nil)
)
