package frontend

import (
	"context"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jo-hoe/photobrowser/internal/backend/database"
	"github.com/jo-hoe/photobrowser/internal/browser"
	"github.com/jo-hoe/photobrowser/internal/core"
	"github.com/jo-hoe/photobrowser/internal/unsplash"
	"github.com/labstack/echo/v4"
)

type fakeCore struct {
	snapshot         browser.Snapshot
	fetchErr         error
	lastQuery        string
	saveResult       *core.SaveResult
	saveErr          error
	wallpaperErr     error
	wallpaperOffered bool
	permissionDenied bool
	media            []*database.Media
	thumbnail        []byte
	deleteErr        error
	deleted          []string
}

func (f *fakeCore) Snapshot() browser.Snapshot { return f.snapshot }

func (f *fakeCore) FetchPhotos(_ context.Context, query string) (browser.Snapshot, error) {
	f.lastQuery = query
	return f.snapshot, f.fetchErr
}

func (f *fakeCore) RefreshPhotos(context.Context) (browser.Snapshot, error) {
	return f.snapshot, f.fetchErr
}

func (f *fakeCore) SavePhoto(context.Context, string) (*core.SaveResult, error) {
	return f.saveResult, f.saveErr
}

func (f *fakeCore) SetWallpaper(context.Context, string) error { return f.wallpaperErr }
func (f *fakeCore) WallpaperOffered() bool                     { return f.wallpaperOffered }
func (f *fakeCore) PermissionDenied() bool                     { return f.permissionDenied }

func (f *fakeCore) ListMedia(context.Context) ([]*database.Media, error) {
	return f.media, nil
}

func (f *fakeCore) MediaThumbnail(_ context.Context, id string) ([]byte, error) {
	if f.thumbnail == nil {
		return nil, database.ErrMediaNotFound
	}
	return f.thumbnail, nil
}

func (f *fakeCore) DeleteMedia(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func newTestServer(fake *fakeCore) *echo.Echo {
	e := echo.New()
	service := NewFrontendService(fake)
	service.now = func() time.Time { return time.Unix(0, 42) }
	service.SetRoutes(e)
	return e
}

func do(e *echo.Echo, method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func loadedSnapshot() browser.Snapshot {
	return browser.Snapshot{
		Phase:       browser.Loaded,
		Query:       "sea",
		ListVisible: true,
		Photos: []unsplash.Photo{
			{ID: "p1", Description: "Waves <at> dusk", Urls: unsplash.Urls{Small: "https://img.example/p1.jpg"}, User: &unsplash.User{Name: "Ann"}},
		},
	}
}

func TestRootRedirect(t *testing.T) {
	rec := do(newTestServer(&fakeCore{}), http.MethodGet, "/", nil)
	if rec.Code != http.StatusMovedPermanently || rec.Header().Get("Location") != "/index.html" {
		t.Errorf("unexpected redirect %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestIndex(t *testing.T) {
	rec := do(newTestServer(&fakeCore{snapshot: loadedSnapshot()}), http.MethodGet, "/index.html", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`id="photos"`, `hx-post="/htmx/photos/search"`, `value="sea"`, `id="snackbar"`} {
		if !strings.Contains(body, want) {
			t.Errorf("index misses %q", want)
		}
	}
}

func TestPhotos_Loaded(t *testing.T) {
	rec := do(newTestServer(&fakeCore{snapshot: loadedSnapshot()}), http.MethodGet, "/htmx/photos", nil)
	body := rec.Body.String()
	for _, want := range []string{`id="photo-list"`, `Waves &lt;at&gt; dusk`, `Photo by Ann`, `hx-post="/htmx/photos/p1/save"`, `hx-confirm="Download this photo?"`} {
		if !strings.Contains(body, want) {
			t.Errorf("photo region misses %q:\n%s", want, body)
		}
	}
	for _, unwanted := range []string{`id="error-view"`, `id="shimmer"`, `every 1s`} {
		if strings.Contains(body, unwanted) {
			t.Errorf("photo region must not contain %q", unwanted)
		}
	}
}

func TestPhotos_States(t *testing.T) {
	tests := []struct {
		name     string
		snapshot browser.Snapshot
		denied   bool
		want     []string
		dontWant []string
	}{
		{
			name:     "initial load shows shimmer and polls",
			snapshot: browser.Snapshot{Phase: browser.Loading, ShimmerVisible: true},
			want:     []string{`id="shimmer"`, `/placeholder.png`, `every 1s`},
			dontWant: []string{`id="photo-list"`, `id="error-view"`},
		},
		{
			name:     "failure shows error view only",
			snapshot: browser.Snapshot{Phase: browser.Failed, ErrorVisible: true, Photos: loadedSnapshot().Photos},
			want:     []string{`id="error-view"`, `Could not load photos`},
			dontWant: []string{`id="photo-list"`, `id="shimmer"`},
		},
		{
			name:     "empty result",
			snapshot: browser.Snapshot{Phase: browser.Empty, ListVisible: true},
			want:     []string{`id="empty-view"`},
		},
		{
			name:     "refreshing keeps list",
			snapshot: browser.Snapshot{Phase: browser.Refreshing, Refreshing: true, ListVisible: true, Photos: loadedSnapshot().Photos},
			want:     []string{`id="refreshing"`, `id="photo-list"`},
		},
		{
			name:     "permission denied",
			snapshot: browser.Snapshot{Phase: browser.Idle, ShimmerVisible: true},
			denied:   true,
			want:     []string{`id="permission-denied"`},
			dontWant: []string{`id="shimmer"`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(newTestServer(&fakeCore{snapshot: tt.snapshot, permissionDenied: tt.denied}), http.MethodGet, "/htmx/photos", nil)
			body := rec.Body.String()
			for _, want := range tt.want {
				if !strings.Contains(body, want) {
					t.Errorf("missing %q in:\n%s", want, body)
				}
			}
			for _, unwanted := range tt.dontWant {
				if strings.Contains(body, unwanted) {
					t.Errorf("unexpected %q in:\n%s", unwanted, body)
				}
			}
		})
	}
}

func TestSearch_PassesQueryAndRendersFailure(t *testing.T) {
	fake := &fakeCore{
		snapshot: browser.Snapshot{Phase: browser.Failed, ErrorVisible: true},
		fetchErr: errors.New("boom"),
	}
	rec := do(newTestServer(fake), http.MethodPost, "/htmx/photos/search", url.Values{"query": {"forest"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if fake.lastQuery != "forest" {
		t.Errorf("expected query forest, got %q", fake.lastQuery)
	}
	if !strings.Contains(rec.Body.String(), "Could not load photos") {
		t.Errorf("expected error view, got %s", rec.Body.String())
	}
}

func TestRefresh_Closed(t *testing.T) {
	rec := do(newTestServer(&fakeCore{fetchErr: browser.ErrClosed}), http.MethodPost, "/htmx/photos/refresh", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestSavePhoto(t *testing.T) {
	media := &database.Media{ID: "m1", DisplayName: "1700000000000.jpg"}
	fake := &fakeCore{
		saveResult:       &core.SaveResult{Media: media, WallpaperOffered: true},
		wallpaperOffered: true,
		media:            []*database.Media{media},
	}
	rec := do(newTestServer(fake), http.MethodPost, "/htmx/photos/p1/save", nil)
	body := rec.Body.String()
	for _, want := range []string{"Download complete", `hx-post="/htmx/media/m1/wallpaper"`, `id="media-list" hx-swap-oob="true"`, `/htmx/media/m1/thumb?ts=42`} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in:\n%s", want, body)
		}
	}

	fake.saveResult = &core.SaveResult{Media: media}
	fake.wallpaperOffered = false
	body = do(newTestServer(fake), http.MethodPost, "/htmx/photos/p1/save", nil).Body.String()
	if strings.Contains(body, "Set as wallpaper") {
		t.Errorf("wallpaper action must not be offered:\n%s", body)
	}

	fake.saveErr = errors.New("disk full")
	body = do(newTestServer(fake), http.MethodPost, "/htmx/photos/p1/save", nil).Body.String()
	if !strings.Contains(body, "Download failed") {
		t.Errorf("expected failure snackbar, got %s", body)
	}
}

func TestSetWallpaper(t *testing.T) {
	fake := &fakeCore{}
	if body := do(newTestServer(fake), http.MethodPost, "/htmx/media/m1/wallpaper", nil).Body.String(); !strings.Contains(body, "Wallpaper set") || strings.Contains(body, "failed") {
		t.Errorf("expected success snackbar, got %s", body)
	}
	fake.wallpaperErr = errors.New("nope")
	if body := do(newTestServer(fake), http.MethodPost, "/htmx/media/m1/wallpaper", nil).Body.String(); !strings.Contains(body, "Wallpaper set failed") {
		t.Errorf("expected failure snackbar, got %s", body)
	}
}

func TestMediaRoutes(t *testing.T) {
	fake := &fakeCore{thumbnail: []byte{0xFF, 0xD8, 0xFF}}
	e := newTestServer(fake)

	if body := do(e, http.MethodGet, "/htmx/media", nil).Body.String(); !strings.Contains(body, "No photos saved yet.") {
		t.Errorf("expected empty gallery, got %s", body)
	}

	rec := do(e, http.MethodGet, "/htmx/media/m1/thumb", nil)
	if rec.Code != http.StatusOK || rec.Header().Get(echo.HeaderContentType) != "image/jpeg" {
		t.Errorf("unexpected thumbnail response %d %q", rec.Code, rec.Header().Get(echo.HeaderContentType))
	}

	rec = do(e, http.MethodDelete, "/htmx/media/m1", nil)
	if rec.Code != http.StatusOK || len(fake.deleted) != 1 || fake.deleted[0] != "m1" {
		t.Errorf("unexpected delete result %d %v", rec.Code, fake.deleted)
	}

	fake.deleteErr = database.ErrMediaNotFound
	if rec := do(e, http.MethodDelete, "/htmx/media/m2", nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	fake.thumbnail = nil
	if rec := do(e, http.MethodGet, "/htmx/media/m1/thumb", nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	e := newTestServer(&fakeCore{})

	rec := do(e, http.MethodGet, "/placeholder.png", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("placeholder is not a PNG: %v", err)
	}
	if img.Bounds().Dx() != placeholderWidth || img.Bounds().Dy() != placeholderHeight {
		t.Errorf("unexpected placeholder size %v", img.Bounds())
	}

	rec = do(e, http.MethodGet, "/icon.svg", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<svg") {
		t.Errorf("unexpected icon response %d", rec.Code)
	}
}
