package frontend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jo-hoe/photobrowser/internal/backend/commands"
	"github.com/jo-hoe/photobrowser/internal/backend/database"
	"github.com/jo-hoe/photobrowser/internal/browser"
	"github.com/jo-hoe/photobrowser/internal/core"
	"github.com/labstack/echo/v4"
)

const (
	MainPageName = "index.html"
	pageTitle    = "Photo Browser"
	mimeJPEG     = "image/jpeg"
	mimePNG      = "image/png"

	placeholderWidth  = 400
	placeholderHeight = 300
)

// CoreService is the part of core.CoreService the web screen drives.
type CoreService interface {
	Snapshot() browser.Snapshot
	FetchPhotos(ctx context.Context, query string) (browser.Snapshot, error)
	RefreshPhotos(ctx context.Context) (browser.Snapshot, error)
	SavePhoto(ctx context.Context, photoID string) (*core.SaveResult, error)
	SetWallpaper(ctx context.Context, mediaID string) error
	WallpaperOffered() bool
	PermissionDenied() bool
	ListMedia(ctx context.Context) ([]*database.Media, error)
	MediaThumbnail(ctx context.Context, id string) ([]byte, error)
	DeleteMedia(ctx context.Context, id string) error
}

type FrontendService struct {
	coreService CoreService
	now         func() time.Time

	placeholderOnce sync.Once
	placeholder     []byte
	placeholderErr  error
}

func NewFrontendService(coreService CoreService) *FrontendService {
	return &FrontendService{
		coreService: coreService,
		now:         time.Now,
	}
}

type indexData struct {
	Title string
	Query string
}

// rootRedirectHandler redirects root path to index.html
func (service *FrontendService) rootRedirectHandler(ctx echo.Context) error {
	return ctx.Redirect(http.StatusMovedPermanently, "/"+MainPageName)
}

func (service *FrontendService) SetRoutes(e *echo.Echo) {
	e.Renderer = newTemplate()

	e.GET("/", service.rootRedirectHandler)
	e.GET("/"+MainPageName, service.indexHandler)

	e.GET("/htmx/photos", service.htmxPhotosHandler)
	e.POST("/htmx/photos/search", service.htmxSearchHandler)
	e.POST("/htmx/photos/refresh", service.htmxRefreshHandler)
	e.POST("/htmx/photos/:id/save", service.htmxSavePhotoHandler)

	e.GET("/htmx/media", service.htmxListMediaHandler)
	e.GET("/htmx/media/:id/thumb", service.htmxMediaThumbnailHandler)
	e.POST("/htmx/media/:id/wallpaper", service.htmxSetWallpaperHandler)
	e.DELETE("/htmx/media/:id", service.htmxDeleteMediaHandler)

	e.GET("/placeholder.png", service.placeholderHandler)
	e.GET("/icon.svg", service.iconHandler)
}

func (service *FrontendService) indexHandler(ctx echo.Context) error {
	return ctx.Render(http.StatusOK, MainPageName, indexData{
		Title: pageTitle,
		Query: service.coreService.Snapshot().Query,
	})
}

func (service *FrontendService) htmxPhotosHandler(ctx echo.Context) error {
	service.setNoCache(ctx)
	return ctx.HTML(http.StatusOK, service.buildPhotosHTML(service.coreService.Snapshot()))
}

func (service *FrontendService) htmxSearchHandler(ctx echo.Context) error {
	query := ctx.FormValue("query")
	snapshot, err := service.coreService.FetchPhotos(ctx.Request().Context(), query)
	return service.renderFetch(ctx, "htmxSearchHandler", snapshot, err)
}

func (service *FrontendService) htmxRefreshHandler(ctx echo.Context) error {
	snapshot, err := service.coreService.RefreshPhotos(ctx.Request().Context())
	return service.renderFetch(ctx, "htmxRefreshHandler", snapshot, err)
}

// renderFetch renders the photo region after a fetch. Fetch failures are part
// of the snapshot and shown in the error view.
func (service *FrontendService) renderFetch(ctx echo.Context, handler string, snapshot browser.Snapshot, err error) error {
	switch {
	case err == nil:
	case errors.Is(err, browser.ErrSuperseded):
		// a newer request owns the screen now
		snapshot = service.coreService.Snapshot()
	case errors.Is(err, browser.ErrClosed):
		slog.Warn(handler+": screen closed", "status", http.StatusServiceUnavailable)
		return ctx.String(http.StatusServiceUnavailable, "Shutting down")
	default:
		slog.Warn(handler+": fetch failed", "status", http.StatusOK, "query", snapshot.Query, "error", err)
	}
	service.setNoCache(ctx)
	return ctx.HTML(http.StatusOK, service.buildPhotosHTML(snapshot))
}

func (service *FrontendService) htmxSavePhotoHandler(ctx echo.Context) error {
	id := ctx.Param("id")
	if id == "" {
		slog.Warn("htmxSavePhotoHandler: missing photo id", "status", http.StatusBadRequest)
		return ctx.String(http.StatusBadRequest, "Missing photo ID")
	}

	result, err := service.coreService.SavePhoto(ctx.Request().Context(), id)
	if err != nil {
		slog.Error("htmxSavePhotoHandler: failed to save photo", "photo_id", id, "error", err)
		return ctx.HTML(http.StatusOK, snackbarHTML("Download failed", ""))
	}

	action := ""
	if result.WallpaperOffered {
		action = wallpaperButtonHTML(result.Media.ID, "#snackbar")
	}
	html := snackbarHTML("Download complete", action)

	listHTML, err := service.buildMediaListHTML(ctx.Request().Context())
	if err != nil {
		slog.Error("htmxSavePhotoHandler: failed to list media for OOB update", "error", err)
		return ctx.HTML(http.StatusOK, html)
	}
	return ctx.HTML(http.StatusOK, html+fmt.Sprintf(`<div id="media-list" hx-swap-oob="true">%s</div>`, listHTML))
}

func (service *FrontendService) htmxSetWallpaperHandler(ctx echo.Context) error {
	id := ctx.Param("id")
	if id == "" {
		slog.Warn("htmxSetWallpaperHandler: missing media id", "status", http.StatusBadRequest)
		return ctx.String(http.StatusBadRequest, "Missing media ID")
	}
	if err := service.coreService.SetWallpaper(ctx.Request().Context(), id); err != nil {
		slog.Error("htmxSetWallpaperHandler: failed to set wallpaper", "media_id", id, "error", err)
		return ctx.HTML(http.StatusOK, snackbarHTML("Wallpaper set failed", ""))
	}
	return ctx.HTML(http.StatusOK, snackbarHTML("Wallpaper set", ""))
}

func (service *FrontendService) htmxListMediaHandler(ctx echo.Context) error {
	listHTML, err := service.buildMediaListHTML(ctx.Request().Context())
	if err != nil {
		slog.Error("htmxListMediaHandler: failed to list media",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to list media")
	}
	service.setNoCache(ctx)
	return ctx.HTML(http.StatusOK, listHTML)
}

func (service *FrontendService) htmxMediaThumbnailHandler(ctx echo.Context) error {
	id := ctx.Param("id")
	thumbnail, err := service.coreService.MediaThumbnail(ctx.Request().Context(), id)
	if err != nil || len(thumbnail) == 0 {
		slog.Warn("htmxMediaThumbnailHandler: thumbnail not available",
			"status", http.StatusNotFound, "media_id", id, "error", err)
		return ctx.String(http.StatusNotFound, "Thumbnail not available")
	}
	service.setNoCache(ctx)
	return ctx.Blob(http.StatusOK, mimeJPEG, thumbnail)
}

func (service *FrontendService) htmxDeleteMediaHandler(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := service.coreService.DeleteMedia(ctx.Request().Context(), id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, database.ErrMediaNotFound) {
			status = http.StatusNotFound
		}
		slog.Error("htmxDeleteMediaHandler: failed to delete media", "status", status, "media_id", id, "error", err)
		return ctx.String(status, "Failed to delete media")
	}

	listHTML, err := service.buildMediaListHTML(ctx.Request().Context())
	if err != nil {
		slog.Error("htmxDeleteMediaHandler: failed to list media after delete",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to list media")
	}
	service.setNoCache(ctx)
	return ctx.HTML(http.StatusOK, listHTML)
}

// placeholderHandler serves the loading placeholder, rasterized once from the embedded SVG.
func (service *FrontendService) placeholderHandler(ctx echo.Context) error {
	service.placeholderOnce.Do(func() {
		svg, err := assetsFS.ReadFile("views/placeholder.svg")
		if err != nil {
			service.placeholderErr = err
			return
		}
		converter, err := commands.NewPngConverterCommand(map[string]any{
			"svgFallbackWidth":  placeholderWidth,
			"svgFallbackHeight": placeholderHeight,
		})
		if err != nil {
			service.placeholderErr = err
			return
		}
		service.placeholder, service.placeholderErr = converter.Execute(svg)
	})
	if service.placeholderErr != nil {
		slog.Error("placeholderHandler: failed to render placeholder", "status", http.StatusInternalServerError, "error", service.placeholderErr)
		return ctx.String(http.StatusInternalServerError, "Failed to render placeholder")
	}
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
	return ctx.Blob(http.StatusOK, mimePNG, service.placeholder)
}

func (service *FrontendService) iconHandler(ctx echo.Context) error {
	data, err := assetsFS.ReadFile("views/icon.svg")
	if err != nil {
		slog.Error("iconHandler: failed to read icon.svg", "status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load icon")
	}
	// Cache for 7 days
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
	return ctx.Blob(http.StatusOK, "image/svg+xml", data)
}

func (service *FrontendService) setNoCache(ctx echo.Context) {
	ctx.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	ctx.Response().Header().Set("Pragma", "no-cache")
	ctx.Response().Header().Set("Expires", "0")
}

func (service *FrontendService) timestampNanoStr() string {
	return fmt.Sprintf("%d", service.now().UnixNano())
}

func (service *FrontendService) buildMediaListHTML(ctx context.Context) (string, error) {
	media, err := service.coreService.ListMedia(ctx)
	if err != nil {
		return "", err
	}
	return renderMediaList(media, service.coreService.WallpaperOffered(), service.timestampNanoStr()), nil
}

func (service *FrontendService) buildPhotosHTML(snapshot browser.Snapshot) string {
	var b strings.Builder
	if snapshot.Phase == browser.Idle && service.coreService.PermissionDenied() {
		b.WriteString(`<p id="permission-denied">Storage permission denied. Photos can't be saved.</p>`)
		return b.String()
	}
	renderPhotos(&b, snapshot)
	return b.String()
}
