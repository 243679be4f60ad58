package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jo-hoe/photobrowser/internal/backend/database"
	"github.com/jo-hoe/photobrowser/internal/browser"
	"github.com/jo-hoe/photobrowser/internal/core"
	"github.com/jo-hoe/photobrowser/internal/unsplash"
)

type fakeCore struct {
	mu           sync.Mutex
	snapshot     browser.Snapshot
	denied       bool
	startQuery   string
	queries      []string
	refreshes    int
	saved        []string
	wallpapers   []string
	saveErr      error
	wallpaperErr error
	offered      bool
}

func (f *fakeCore) Start(_ context.Context, query string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startQuery = query
	return nil
}

func (f *fakeCore) PermissionDenied() bool { return f.denied }

func (f *fakeCore) Snapshot() browser.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot
}

func (f *fakeCore) setSnapshot(s browser.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot = s
}

func (f *fakeCore) FetchPhotos(_ context.Context, query string) (browser.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.snapshot, nil
}

func (f *fakeCore) RefreshPhotos(context.Context) (browser.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return f.snapshot, nil
}

func (f *fakeCore) SavePhoto(_ context.Context, photoID string) (*core.SaveResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, photoID)
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	return &core.SaveResult{
		Media:            &database.Media{ID: "media-" + photoID},
		WallpaperOffered: f.offered,
	}, nil
}

func (f *fakeCore) SetWallpaper(_ context.Context, mediaID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wallpapers = append(f.wallpapers, mediaID)
	return f.wallpaperErr
}

func loadedSnapshot(ids ...string) browser.Snapshot {
	photos := make([]unsplash.Photo, 0, len(ids))
	for _, id := range ids {
		photos = append(photos, unsplash.Photo{ID: id, Description: "photo " + id, Width: 40, Height: 20})
	}
	return browser.Snapshot{Phase: browser.Loaded, Photos: photos, ListVisible: true}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", next)
	}
	return model, cmd
}

func press(t *testing.T, m Model, key string) (Model, tea.Cmd) {
	t.Helper()
	switch key {
	case "enter":
		return update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		return update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	case "ctrl+c":
		return update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	}
	return update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
}

// collect runs cmd and returns the messages that arrive quickly. Timers such
// as the poll tick are left behind.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(50 * time.Millisecond):
		return nil
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, collect(c)...)
		}
		return msgs
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func startedModel(t *testing.T, fake *fakeCore) Model {
	t.Helper()
	m := New(context.Background(), fake, "")
	m, _ = update(t, m, m.startCmd()())
	return m
}

func TestModel_StartShowsPhotos(t *testing.T) {
	fake := &fakeCore{snapshot: loadedSnapshot("p1", "p2")}
	m := startedModel(t, fake)

	if got := len(m.list.Items()); got != 2 {
		t.Fatalf("expected 2 list items, got %d", got)
	}
	if view := m.View(); !strings.Contains(view, "photo p1") {
		t.Errorf("expected view to list photo p1, got:\n%s", view)
	}
	if m.busy() {
		t.Errorf("expected model to be idle after start")
	}
}

func TestModel_StartWithInitialQuery(t *testing.T) {
	fake := &fakeCore{snapshot: loadedSnapshot("p1")}
	m := New(context.Background(), fake, " cats ")
	m, cmd := update(t, m, m.startCmd()())

	for _, msg := range collect(cmd) {
		m, _ = update(t, m, msg)
	}
	if fake.startQuery != "cats" {
		t.Fatalf("expected start to carry the initial query, got %q", fake.startQuery)
	}
	if len(fake.queries) != 0 {
		t.Errorf("expected no second fetch after start, got %v", fake.queries)
	}
	if m.inFlight != 0 {
		t.Errorf("expected no fetch in flight, got %d", m.inFlight)
	}
}

func TestModel_SearchSubmitsQuery(t *testing.T) {
	fake := &fakeCore{snapshot: loadedSnapshot("p1")}
	m := startedModel(t, fake)

	m, _ = press(t, m, "/")
	if !m.search.Focused() {
		t.Fatalf("expected search box to be focused after /")
	}
	m, _ = press(t, m, "dogs")
	m, cmd := press(t, m, "enter")
	if m.search.Focused() {
		t.Errorf("expected search box to blur after submit")
	}
	for _, msg := range collect(cmd) {
		m, _ = update(t, m, msg)
	}

	if len(fake.queries) != 1 || fake.queries[0] != "dogs" {
		t.Fatalf("expected query dogs, got %v", fake.queries)
	}
}

func TestModel_SearchEscapeCancels(t *testing.T) {
	fake := &fakeCore{snapshot: loadedSnapshot("p1")}
	m := startedModel(t, fake)

	m, _ = press(t, m, "/")
	m, _ = press(t, m, "x")
	m, _ = press(t, m, "esc")
	if m.search.Focused() {
		t.Errorf("expected search box to blur on esc")
	}
	if len(fake.queries) != 0 {
		t.Errorf("expected no fetch, got %v", fake.queries)
	}
}

func TestModel_Refresh(t *testing.T) {
	fake := &fakeCore{snapshot: loadedSnapshot("p1")}
	m := startedModel(t, fake)

	m, cmd := press(t, m, "r")
	if m.inFlight != 1 {
		t.Fatalf("expected one fetch in flight, got %d", m.inFlight)
	}
	for _, msg := range collect(cmd) {
		m, _ = update(t, m, msg)
	}
	if fake.refreshes != 1 {
		t.Errorf("expected one refresh, got %d", fake.refreshes)
	}
	if m.inFlight != 0 {
		t.Errorf("expected no fetch in flight, got %d", m.inFlight)
	}
}

func TestModel_DownloadAsksForConfirmation(t *testing.T) {
	fake := &fakeCore{snapshot: loadedSnapshot("p1", "p2")}
	m := startedModel(t, fake)

	m, _ = press(t, m, "enter")
	if !strings.Contains(m.View(), "Download this photo?") {
		t.Fatalf("expected confirmation prompt")
	}
	m, _ = press(t, m, "n")
	if m.confirming != nil {
		t.Fatalf("expected confirmation to be dismissed")
	}
	if len(fake.saved) != 0 {
		t.Fatalf("expected no save after declining, got %v", fake.saved)
	}

	m, _ = press(t, m, "enter")
	m, cmd := press(t, m, "y")
	if cmd == nil {
		t.Fatalf("expected a save command")
	}
	m, _ = update(t, m, cmd())

	if len(fake.saved) != 1 || fake.saved[0] != "p1" {
		t.Fatalf("expected p1 to be saved, got %v", fake.saved)
	}
	if !strings.Contains(m.status, "Download complete") {
		t.Errorf("expected download complete status, got %q", m.status)
	}
	if strings.Contains(m.View(), "w wallpaper") {
		t.Errorf("expected no wallpaper action when not offered")
	}
}

func TestModel_DownloadFailed(t *testing.T) {
	fake := &fakeCore{snapshot: loadedSnapshot("p1"), saveErr: errors.New("boom")}
	m := startedModel(t, fake)

	m, _ = press(t, m, "enter")
	m, cmd := press(t, m, "y")
	m, _ = update(t, m, cmd())

	if m.status != "Download failed" {
		t.Errorf("expected download failed status, got %q", m.status)
	}
}

func TestModel_SetWallpaperAfterDownload(t *testing.T) {
	fake := &fakeCore{snapshot: loadedSnapshot("p1"), offered: true}
	m := startedModel(t, fake)

	// nothing saved yet
	if _, cmd := press(t, m, "w"); cmd != nil {
		t.Fatalf("expected w to be ignored before a download")
	}

	m, _ = press(t, m, "enter")
	m, cmd := press(t, m, "y")
	m, _ = update(t, m, cmd())
	if !strings.Contains(m.View(), "w wallpaper") {
		t.Fatalf("expected wallpaper action to be offered")
	}

	m, cmd = press(t, m, "w")
	if cmd == nil {
		t.Fatalf("expected a wallpaper command")
	}
	m, _ = update(t, m, cmd())
	if len(fake.wallpapers) != 1 || fake.wallpapers[0] != "media-p1" {
		t.Fatalf("expected media-p1 as wallpaper, got %v", fake.wallpapers)
	}
	if m.status != "Wallpaper set" {
		t.Errorf("expected wallpaper set status, got %q", m.status)
	}

	fake.wallpaperErr = errors.New("denied")
	m, cmd = press(t, m, "w")
	m, _ = update(t, m, cmd())
	if m.status != "Wallpaper set failed" {
		t.Errorf("expected wallpaper set failed status, got %q", m.status)
	}
}

func TestModel_StatusClears(t *testing.T) {
	fake := &fakeCore{snapshot: loadedSnapshot("p1")}
	m := startedModel(t, fake)

	m, _ = update(t, m, savedMsg{err: errors.New("boom")})
	stale := m.statusSeq
	m, _ = update(t, m, wallpaperMsg{})
	m, _ = update(t, m, clearStatusMsg{seq: stale})
	if m.status != "Wallpaper set" {
		t.Fatalf("expected stale clear to be ignored, got %q", m.status)
	}
	m, _ = update(t, m, clearStatusMsg{seq: m.statusSeq})
	if m.status != "" {
		t.Errorf("expected status to clear, got %q", m.status)
	}
}

func TestModel_Views(t *testing.T) {
	tests := []struct {
		name     string
		snapshot browser.Snapshot
		denied   bool
		want     string
	}{
		{
			name:     "loading",
			snapshot: browser.Snapshot{Phase: browser.Loading, ShimmerVisible: true},
			want:     "Loading photos",
		},
		{
			name:     "failed",
			snapshot: browser.Snapshot{Phase: browser.Failed, ErrorVisible: true, Err: "status 500"},
			want:     "Could not load photos",
		},
		{
			name:     "empty",
			snapshot: browser.Snapshot{Phase: browser.Empty},
			want:     "No photos found.",
		},
		{
			name: "refreshing",
			snapshot: func() browser.Snapshot {
				s := loadedSnapshot("p1")
				s.Phase = browser.Refreshing
				s.Refreshing = true
				return s
			}(),
			want: "Refreshing",
		},
		{
			name:   "permission denied",
			denied: true,
			want:   "Storage permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCore{snapshot: tt.snapshot, denied: tt.denied}
			m := startedModel(t, fake)
			if view := m.View(); !strings.Contains(view, tt.want) {
				t.Errorf("expected view to contain %q, got:\n%s", tt.want, view)
			}
		})
	}
}

func TestModel_EnterIgnoredWhileListHidden(t *testing.T) {
	fake := &fakeCore{snapshot: loadedSnapshot("p1")}
	m := startedModel(t, fake)

	failed := fake.Snapshot()
	failed.Phase = browser.Failed
	failed.ListVisible = false
	failed.ErrorVisible = true
	fake.setSnapshot(failed)
	m, _ = update(t, m, pollMsg{})

	m, _ = press(t, m, "enter")
	if m.confirming != nil {
		t.Errorf("expected no confirmation while the list is hidden")
	}
}

func TestModel_QuitCancelsContext(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c"} {
		t.Run(key, func(t *testing.T) {
			fake := &fakeCore{snapshot: loadedSnapshot("p1")}
			m := startedModel(t, fake)

			m, cmd := press(t, m, key)
			if cmd == nil {
				t.Fatalf("expected quit command")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Errorf("expected tea.QuitMsg")
			}
			if m.ctx.Err() == nil {
				t.Errorf("expected fetch context to be cancelled")
			}
			if m.View() != "" {
				t.Errorf("expected empty view after quit")
			}
		})
	}
}

func TestModel_WindowResize(t *testing.T) {
	fake := &fakeCore{snapshot: loadedSnapshot("p1")}
	m := startedModel(t, fake)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	if m.width != 120 || m.height != 40 {
		t.Errorf("expected size 120x40, got %dx%d", m.width, m.height)
	}
	if m.list.Height() != 40-chromeHeight {
		t.Errorf("expected list height %d, got %d", 40-chromeHeight, m.list.Height())
	}
}

func TestModel_SearchRendersDespiteDeniedPermission(t *testing.T) {
	fake := &fakeCore{denied: true}
	m := startedModel(t, fake)
	if !strings.Contains(m.View(), "Storage permission denied") {
		t.Fatalf("expected denial notice on the idle screen")
	}

	fake.setSnapshot(loadedSnapshot("p1"))
	m, _ = press(t, m, "/")
	m, _ = press(t, m, "x")
	m, cmd := press(t, m, "enter")
	for _, msg := range collect(cmd) {
		m, _ = update(t, m, msg)
	}

	if len(fake.queries) != 1 || fake.queries[0] != "x" {
		t.Fatalf("expected query x, got %v", fake.queries)
	}
	view := m.View()
	if strings.Contains(view, "Storage permission denied") {
		t.Errorf("expected search results to replace the denial notice, got:\n%s", view)
	}
	if !strings.Contains(view, "photo p1") {
		t.Errorf("expected photo p1 in view, got:\n%s", view)
	}
}
