package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jo-hoe/photobrowser/internal/backend/cache"
	"github.com/jo-hoe/photobrowser/internal/backend/commands"
	"github.com/jo-hoe/photobrowser/internal/backend/commandstructure"
	"github.com/jo-hoe/photobrowser/internal/backend/database"
	"github.com/jo-hoe/photobrowser/internal/backend/wallpaper"
	"github.com/jo-hoe/photobrowser/internal/browser"
	"github.com/jo-hoe/photobrowser/internal/unsplash"
	"github.com/twitsprout/tools/clock"
)

const (
	savedMimeType = "image/jpeg"
	saveQuality   = 100
)

// SaveResult is the outcome of a completed download.
type SaveResult struct {
	Media *database.Media
	// WallpaperOffered tells the screen to show the "set as wallpaper" action.
	WallpaperOffered bool
}

type CoreService struct {
	config    *ServiceConfig
	clock     clock.Clock
	photos    *unsplash.Client
	browser   *browser.Browser
	media     database.MediaStore
	batches   cache.BatchStore
	wallpaper wallpaper.Setter

	saveInvoker      *commandstructure.CommandInvoker
	wallpaperInvoker *commandstructure.CommandInvoker
	thumbnailer      commandstructure.Command

	// serializes saves so millisecond display names stay unique
	saveMu           sync.Mutex
	permissionDenied atomic.Bool
}

type Option func(*CoreService)

func WithClock(c clock.Clock) Option {
	return func(s *CoreService) {
		s.clock = c
	}
}

func NewCoreService(config *ServiceConfig, opts ...Option) (*CoreService, error) {
	service := &CoreService{
		config: config,
		clock:  &clock.Default{},
	}
	for _, opt := range opts {
		opt(service)
	}

	photos, err := unsplash.NewClient(config.Unsplash)
	if err != nil {
		return nil, fmt.Errorf("failed to create photo client: %w", err)
	}
	service.photos = photos

	if err := service.initPipelines(); err != nil {
		return nil, err
	}

	service.media, err = database.NewMediaStore(config.MediaStore.Type, config.MediaStore.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media store: %w", err)
	}
	slog.Info("media store initialized", "type", config.MediaStore.Type)

	service.batches, err = cache.NewBatchStore(config.BatchStore)
	if err != nil {
		_ = service.media.Close()
		return nil, fmt.Errorf("failed to initialize batch store: %w", err)
	}

	wallpaperStore, _ := service.media.(database.WallpaperStore)
	service.wallpaper, err = wallpaper.NewSetter(config.Wallpaper, wallpaperStore)
	if err != nil {
		_ = service.batches.Close()
		_ = service.media.Close()
		return nil, fmt.Errorf("failed to initialize wallpaper: %w", err)
	}

	service.browser = browser.New(photos, service.batches, browser.WithClock(service.clock))
	return service, nil
}

func (s *CoreService) initPipelines() error {
	var err error
	s.saveInvoker, err = commandstructure.NewCommandInvokerFromConfig(commandstructure.DefaultRegistry, []commandstructure.CommandConfig{
		{Name: commands.JpegConverterName, Params: map[string]any{"quality": saveQuality}},
	})
	if err != nil {
		return fmt.Errorf("failed to build save pipeline: %w", err)
	}

	wallpaperCommands := s.config.WallpaperCommands
	if len(wallpaperCommands) == 0 {
		wallpaperCommands = []commandstructure.CommandConfig{{Name: commands.PngConverterName}}
	}
	s.wallpaperInvoker, err = commandstructure.NewCommandInvokerFromConfig(commandstructure.DefaultRegistry, wallpaperCommands)
	if err != nil {
		return fmt.Errorf("failed to build wallpaper pipeline: %w", err)
	}

	s.thumbnailer, err = commandstructure.DefaultRegistry.Create(commands.ThumbnailName, map[string]any{"width": s.config.ThumbnailWidth})
	if err != nil {
		return fmt.Errorf("failed to build thumbnailer: %w", err)
	}
	return nil
}

// Start requests the storage write permission when the media store needs it
// and runs the initial fetch for query once storage is usable.
func (s *CoreService) Start(ctx context.Context, query string) error {
	if s.media.RequiresWritePermission() {
		granted := false
		if requester, ok := s.media.(database.PermissionRequester); ok {
			var err error
			granted, err = requester.RequestWritePermission(ctx)
			if err != nil {
				return fmt.Errorf("failed to request write permission: %w", err)
			}
		}
		if !granted {
			s.permissionDenied.Store(true)
			slog.Warn("storage write permission denied; skipping initial fetch")
			return nil
		}
		s.permissionDenied.Store(false)
	}

	if _, err := s.browser.Fetch(ctx, query); err != nil {
		slog.Warn("initial fetch failed", "query", query, "error", err)
	}
	return nil
}

// PermissionDenied reports whether Start was refused storage access.
func (s *CoreService) PermissionDenied() bool {
	return s.permissionDenied.Load()
}

func (s *CoreService) FetchPhotos(ctx context.Context, query string) (browser.Snapshot, error) {
	return s.browser.Fetch(ctx, query)
}

func (s *CoreService) RefreshPhotos(ctx context.Context) (browser.Snapshot, error) {
	return s.browser.Refresh(ctx)
}

func (s *CoreService) Snapshot() browser.Snapshot {
	return s.browser.Snapshot()
}

// SavePhoto downloads a displayed photo and stores it as JPEG. On stores with
// pending support the record stays hidden until its bytes are written.
func (s *CoreService) SavePhoto(ctx context.Context, photoID string) (*SaveResult, error) {
	photo, err := s.browser.Photo(ctx, photoID)
	if err != nil {
		return nil, err
	}
	source := photo.Urls.Full
	if source == "" {
		source = photo.Urls.Raw
	}
	if source == "" {
		return nil, fmt.Errorf("photo %s has no downloadable url", photoID)
	}

	original, err := s.photos.Download(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to download photo %s: %w", photoID, err)
	}
	encoded, err := s.saveInvoker.Execute(ctx, original)
	if err != nil {
		return nil, fmt.Errorf("failed to encode photo %s: %w", photoID, err)
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	pending := s.media.SupportsPending()
	media, err := s.media.Insert(ctx, database.MediaDetails{
		DisplayName:   fmt.Sprintf("%d.jpg", s.clock.Now().UnixMilli()),
		MimeType:      savedMimeType,
		IsPending:     pending,
		SourcePhotoID: photo.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create media record: %w", err)
	}

	if err := s.media.Write(ctx, media.ID, encoded); err != nil {
		s.discard(media.ID)
		return nil, fmt.Errorf("failed to write media %s: %w", media.ID, err)
	}
	if pending {
		if err := s.media.Update(ctx, media.ID, database.MediaUpdate{IsPending: false}); err != nil {
			s.discard(media.ID)
			return nil, fmt.Errorf("failed to publish media %s: %w", media.ID, err)
		}
	}

	saved, err := s.media.Get(ctx, media.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read back media %s: %w", media.ID, err)
	}
	slog.Info("photo saved", "photo_id", photoID, "media_id", saved.ID, "display_name", saved.DisplayName, "size_bytes", saved.Size)

	return &SaveResult{
		Media:            saved,
		WallpaperOffered: s.wallpaper.IsSupported() && s.wallpaper.IsSetAllowed(),
	}, nil
}

// discard removes a half-written record; the caller's context may already be done.
func (s *CoreService) discard(mediaID string) {
	if err := s.media.Delete(context.Background(), mediaID); err != nil && !errors.Is(err, database.ErrMediaNotFound) {
		slog.Error("failed to remove incomplete media", "media_id", mediaID, "error", err)
	}
}

// SetWallpaper runs the wallpaper pipeline over a saved image and hands the
// result to the wallpaper target.
func (s *CoreService) SetWallpaper(ctx context.Context, mediaID string) error {
	if !s.wallpaper.IsSupported() {
		return wallpaper.ErrUnsupported
	}
	if !s.wallpaper.IsSetAllowed() {
		return wallpaper.ErrNotAllowed
	}

	_, data, err := s.MediaData(ctx, mediaID)
	if err != nil {
		return err
	}
	processed, err := s.wallpaperInvoker.Execute(ctx, data)
	if err != nil {
		return fmt.Errorf("failed to process wallpaper: %w", err)
	}
	if err := s.wallpaper.SetImage(ctx, mediaID, processed); err != nil {
		return fmt.Errorf("failed to set wallpaper: %w", err)
	}
	return nil
}

func (s *CoreService) WallpaperOffered() bool {
	return s.wallpaper.IsSupported() && s.wallpaper.IsSetAllowed()
}

func (s *CoreService) Wallpaper(ctx context.Context) (*database.Wallpaper, error) {
	return s.wallpaper.Current(ctx)
}

func (s *CoreService) ListMedia(ctx context.Context) ([]*database.Media, error) {
	return s.media.List(ctx, false)
}

func (s *CoreService) GetMedia(ctx context.Context, id string) (*database.Media, error) {
	return s.media.Get(ctx, id)
}

// MediaData returns the record together with its bytes. Pending records are not served.
func (s *CoreService) MediaData(ctx context.Context, id string) (*database.Media, []byte, error) {
	media, err := s.media.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if media.IsPending {
		return nil, nil, database.ErrMediaNotFound
	}
	data, err := s.media.Data(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return media, data, nil
}

func (s *CoreService) MediaThumbnail(ctx context.Context, id string) ([]byte, error) {
	_, data, err := s.MediaData(ctx, id)
	if err != nil {
		return nil, err
	}
	thumbnail, err := s.thumbnailer.Execute(data)
	if err != nil {
		return nil, fmt.Errorf("failed to create thumbnail for %s: %w", id, err)
	}
	return thumbnail, nil
}

func (s *CoreService) DeleteMedia(ctx context.Context, id string) error {
	if err := s.media.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("media deleted", "media_id", id)
	return nil
}

// Close tears down the screen first so no fetch outlives the stores.
func (s *CoreService) Close() error {
	s.browser.Close()
	return errors.Join(s.batches.Close(), s.media.Close())
}
