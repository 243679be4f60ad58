package frontend

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/jo-hoe/photobrowser/internal/backend/database"
	"github.com/jo-hoe/photobrowser/internal/browser"
	"github.com/jo-hoe/photobrowser/internal/unsplash"
)

const shimmerItems = 3

func renderPhotos(b *strings.Builder, snapshot browser.Snapshot) {
	// keep polling while the controller is busy so a background fetch shows up
	if snapshot.Phase == browser.Idle || snapshot.Phase.Busy() {
		b.WriteString(`<div hx-get="/htmx/photos" hx-trigger="every 1s" hx-target="#photos" hx-swap="innerHTML"></div>`)
	}
	if snapshot.Refreshing {
		b.WriteString(`<progress id="refreshing" aria-label="Refreshing"></progress>`)
	}
	if snapshot.ShimmerVisible {
		b.WriteString(`<div id="shimmer" class="shimmer photo-list" aria-busy="true">`)
		for i := 0; i < shimmerItems; i++ {
			b.WriteString(`<article><img src="/placeholder.png" alt="" width="400" height="300"></article>`)
		}
		b.WriteString(`</div>`)
	}
	if snapshot.ErrorVisible {
		b.WriteString(`<article id="error-view"><p>Could not load photos</p>`)
		b.WriteString(`<button hx-post="/htmx/photos/refresh" hx-target="#photos" hx-swap="innerHTML">Retry</button></article>`)
	}
	if !snapshot.ListVisible {
		return
	}
	if len(snapshot.Photos) == 0 {
		b.WriteString(`<p id="empty-view">No photos found.</p>`)
		return
	}

	b.WriteString(`<div id="photo-list" class="photo-list">`)
	for _, photo := range snapshot.Photos {
		renderPhoto(b, photo)
	}
	b.WriteString(`</div>`)
}

func renderPhoto(b *strings.Builder, photo unsplash.Photo) {
	id := url.PathEscape(photo.ID)
	src := photo.Urls.Small
	if src == "" {
		src = photo.Urls.Regular
	}
	title := html.EscapeString(photo.DisplayTitle())

	fmt.Fprintf(b, `<article class="photo" data-id="%s">`, html.EscapeString(photo.ID))
	if src != "" {
		fmt.Fprintf(b, `<img src="%s" alt="%s" loading="lazy">`, html.EscapeString(src), title)
	}
	b.WriteString(`<footer>`)
	fmt.Fprintf(b, `<strong>%s</strong>`, title)
	if attribution := photo.Attribution(); attribution != "" {
		fmt.Fprintf(b, `<br><small>%s</small>`, html.EscapeString(attribution))
	}
	var details []string
	if camera := photo.Camera(); camera != "" {
		details = append(details, camera)
	}
	if place := photo.Place(); place != "" {
		details = append(details, place)
	}
	if len(details) > 0 {
		fmt.Fprintf(b, `<br><small>%s</small>`, html.EscapeString(strings.Join(details, " · ")))
	}
	fmt.Fprintf(b, `<br><button hx-post="/htmx/photos/%s/save" hx-confirm="Download this photo?" hx-target="#snackbar" hx-swap="innerHTML">Download</button>`, id)
	b.WriteString(`</footer></article>`)
}

func renderMediaList(media []*database.Media, wallpaperOffered bool, ts string) string {
	var b strings.Builder
	if len(media) == 0 {
		b.WriteString(`<p>No photos saved yet.</p>`)
		return b.String()
	}

	b.WriteString(`<div class="media-list">`)
	for _, m := range media {
		id := url.PathEscape(m.ID)
		name := html.EscapeString(m.DisplayName)
		fmt.Fprintf(&b, `<article data-id="%s">`, html.EscapeString(m.ID))
		fmt.Fprintf(&b, `<img src="/htmx/media/%s/thumb?ts=%s" alt="%s">`, id, ts, name)
		fmt.Fprintf(&b, `<footer><small>%s</small>`, name)
		if wallpaperOffered {
			b.WriteString(wallpaperButtonHTML(m.ID, "#snackbar"))
		}
		fmt.Fprintf(&b, `<button hx-delete="/htmx/media/%s" hx-target="#media-list" hx-swap="innerHTML" class="secondary">Delete</button>`, id)
		b.WriteString(`</footer></article>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func wallpaperButtonHTML(mediaID, target string) string {
	return fmt.Sprintf(`<button hx-post="/htmx/media/%s/wallpaper" hx-target="%s" hx-swap="innerHTML">Set as wallpaper</button>`,
		url.PathEscape(mediaID), target)
}

// snackbarHTML renders a transient message that removes itself.
func snackbarHTML(message, action string) string {
	return fmt.Sprintf(`<article class="snackbar" hx-on::load="setTimeout(() => this.remove(), 8000)"><span>%s</span>%s</article>`,
		html.EscapeString(message), action)
}
