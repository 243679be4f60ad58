package backend

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/jo-hoe/photobrowser/internal/backend/database"
	"github.com/jo-hoe/photobrowser/internal/backend/wallpaper"
	"github.com/jo-hoe/photobrowser/internal/browser"
	"github.com/jo-hoe/photobrowser/internal/core"
	"github.com/jo-hoe/photobrowser/internal/unsplash"
	"github.com/labstack/echo/v4"
)

// CoreService is the part of core.CoreService exposed over JSON.
type CoreService interface {
	Snapshot() browser.Snapshot
	FetchPhotos(ctx context.Context, query string) (browser.Snapshot, error)
	RefreshPhotos(ctx context.Context) (browser.Snapshot, error)
	SavePhoto(ctx context.Context, photoID string) (*core.SaveResult, error)
	SetWallpaper(ctx context.Context, mediaID string) error
	Wallpaper(ctx context.Context) (*database.Wallpaper, error)
	ListMedia(ctx context.Context) ([]*database.Media, error)
	GetMedia(ctx context.Context, id string) (*database.Media, error)
	MediaData(ctx context.Context, id string) (*database.Media, []byte, error)
}

type APIService struct {
	coreService CoreService
}

type PhotosResponse struct {
	Phase        string           `json:"phase"`
	Query        string           `json:"query"`
	Photos       []unsplash.Photo `json:"photos"`
	Error        string           `json:"error,omitempty"`
	ListVisible  bool             `json:"listVisible"`
	ErrorVisible bool             `json:"errorVisible"`
	Refreshing   bool             `json:"refreshing"`
	UpdatedAt    *time.Time       `json:"updatedAt,omitempty"`
}

type SavePhotoRequest struct {
	PhotoID string `json:"photoId" validate:"required"`
}

type SavePhotoResponse struct {
	Media            *database.Media `json:"media"`
	WallpaperOffered bool            `json:"wallpaperOffered"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewAPIService(coreService CoreService) *APIService {
	return &APIService{
		coreService: coreService,
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	e.GET("/probe", s.probeHandler)

	e.GET("/api/photos", s.photosHandler)
	e.POST("/api/photos/refresh", s.refreshHandler)
	e.POST("/api/photos/save", s.savePhotoHandler)

	e.GET("/api/media", s.listMediaHandler)
	e.GET("/api/media/:id", s.getMediaHandler)
	e.GET("/api/media/:id/data", s.mediaDataHandler)
	e.POST("/api/media/:id/wallpaper", s.setWallpaperHandler)

	e.GET("/api/wallpaper", s.wallpaperHandler)
}

func (s *APIService) probeHandler(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "ok")
}

// photosHandler returns the displayed list. A query parameter, even an empty
// one, triggers a new fetch first.
func (s *APIService) photosHandler(ctx echo.Context) error {
	if _, ok := ctx.QueryParams()["query"]; !ok {
		return ctx.JSON(http.StatusOK, toPhotosResponse(s.coreService.Snapshot()))
	}
	snapshot, err := s.coreService.FetchPhotos(ctx.Request().Context(), ctx.QueryParam("query"))
	return s.fetchResponse(ctx, "photosHandler", snapshot, err)
}

func (s *APIService) refreshHandler(ctx echo.Context) error {
	snapshot, err := s.coreService.RefreshPhotos(ctx.Request().Context())
	return s.fetchResponse(ctx, "refreshHandler", snapshot, err)
}

func (s *APIService) fetchResponse(ctx echo.Context, handler string, snapshot browser.Snapshot, err error) error {
	if err != nil {
		return s.errorResponse(ctx, handler, err)
	}
	return ctx.JSON(http.StatusOK, toPhotosResponse(snapshot))
}

func (s *APIService) savePhotoHandler(ctx echo.Context) error {
	var request SavePhotoRequest
	if err := ctx.Bind(&request); err != nil {
		slog.Warn("savePhotoHandler: invalid request body", "status", http.StatusBadRequest, "error", err)
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if err := ctx.Validate(&request); err != nil {
		slog.Warn("savePhotoHandler: request failed validation", "status", http.StatusBadRequest, "error", err)
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "photoId is required"})
	}

	result, err := s.coreService.SavePhoto(ctx.Request().Context(), request.PhotoID)
	if err != nil {
		return s.errorResponse(ctx, "savePhotoHandler", err)
	}
	return ctx.JSON(http.StatusCreated, SavePhotoResponse{Media: result.Media, WallpaperOffered: result.WallpaperOffered})
}

func (s *APIService) listMediaHandler(ctx echo.Context) error {
	media, err := s.coreService.ListMedia(ctx.Request().Context())
	if err != nil {
		return s.errorResponse(ctx, "listMediaHandler", err)
	}
	if media == nil {
		media = []*database.Media{}
	}
	return ctx.JSON(http.StatusOK, media)
}

func (s *APIService) getMediaHandler(ctx echo.Context) error {
	media, err := s.coreService.GetMedia(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return s.errorResponse(ctx, "getMediaHandler", err)
	}
	return ctx.JSON(http.StatusOK, media)
}

func (s *APIService) mediaDataHandler(ctx echo.Context) error {
	media, data, err := s.coreService.MediaData(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return s.errorResponse(ctx, "mediaDataHandler", err)
	}
	return ctx.Blob(http.StatusOK, media.MimeType, data)
}

func (s *APIService) setWallpaperHandler(ctx echo.Context) error {
	if err := s.coreService.SetWallpaper(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return s.errorResponse(ctx, "setWallpaperHandler", err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// wallpaperHandler serves the processed wallpaper, polled by frame displays.
func (s *APIService) wallpaperHandler(ctx echo.Context) error {
	current, err := s.coreService.Wallpaper(ctx.Request().Context())
	if err != nil {
		return s.errorResponse(ctx, "wallpaperHandler", err)
	}
	ctx.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	ctx.Response().Header().Set("Last-Modified", current.SetAt.UTC().Format(http.TimeFormat))
	return ctx.Blob(http.StatusOK, current.MimeType, current.Data)
}

func (s *APIService) errorResponse(ctx echo.Context, handler string, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error(handler+": request failed", "status", status, "error", err)
	} else {
		slog.Warn(handler+": request rejected", "status", status, "error", err)
	}
	return ctx.JSON(status, ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	var apiErr *unsplash.APIError
	var urlErr *url.Error
	switch {
	case errors.Is(err, browser.ErrPhotoNotFound),
		errors.Is(err, database.ErrMediaNotFound),
		errors.Is(err, database.ErrWallpaperNotFound):
		return http.StatusNotFound
	case errors.Is(err, browser.ErrSuperseded),
		errors.Is(err, wallpaper.ErrUnsupported),
		errors.Is(err, wallpaper.ErrNotAllowed),
		errors.Is(err, database.ErrPermissionDenied):
		return http.StatusConflict
	case errors.Is(err, browser.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr), errors.As(err, &urlErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func toPhotosResponse(snapshot browser.Snapshot) PhotosResponse {
	response := PhotosResponse{
		Phase:        snapshot.Phase.String(),
		Query:        snapshot.Query,
		Photos:       snapshot.Photos,
		Error:        snapshot.Err,
		ListVisible:  snapshot.ListVisible,
		ErrorVisible: snapshot.ErrorVisible,
		Refreshing:   snapshot.Refreshing,
	}
	if !snapshot.ListVisible || response.Photos == nil {
		response.Photos = []unsplash.Photo{}
	}
	if !snapshot.UpdatedAt.IsZero() {
		updatedAt := snapshot.UpdatedAt
		response.UpdatedAt = &updatedAt
	}
	return response
}
