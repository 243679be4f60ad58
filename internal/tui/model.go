// Package tui is the terminal rendition of the photo screen.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jo-hoe/photobrowser/internal/browser"
	"github.com/jo-hoe/photobrowser/internal/core"
	"github.com/jo-hoe/photobrowser/internal/unsplash"
)

const (
	pollInterval = 200 * time.Millisecond
	statusTTL    = 3 * time.Second

	defaultWidth  = 80
	defaultHeight = 24
	// title, search box and footer lines
	chromeHeight = 9
)

// CoreService is the part of core.CoreService the terminal screen drives.
type CoreService interface {
	Start(ctx context.Context, query string) error
	PermissionDenied() bool
	Snapshot() browser.Snapshot
	FetchPhotos(ctx context.Context, query string) (browser.Snapshot, error)
	RefreshPhotos(ctx context.Context) (browser.Snapshot, error)
	SavePhoto(ctx context.Context, photoID string) (*core.SaveResult, error)
	SetWallpaper(ctx context.Context, mediaID string) error
}

type (
	startedMsg struct {
		err error
	}
	fetchedMsg struct {
		err error
	}
	pollMsg  struct{}
	savedMsg struct {
		result *core.SaveResult
		err    error
	}
	wallpaperMsg struct {
		err error
	}
	clearStatusMsg struct {
		seq int
	}
)

// photoItem adapts unsplash.Photo to list.Item.
type photoItem struct {
	photo unsplash.Photo
}

func (i photoItem) Title() string { return i.photo.DisplayTitle() }
func (i photoItem) Description() string {
	by := "unknown"
	if i.photo.User != nil {
		by = i.photo.User.Username
		if i.photo.User.Name != "" {
			by = i.photo.User.Name
		}
	}
	return fmt.Sprintf("by %s · %dx%d · %d likes", by, i.photo.Width, i.photo.Height, i.photo.Likes)
}
func (i photoItem) FilterValue() string { return i.photo.DisplayTitle() }

type Model struct {
	core   CoreService
	ctx    context.Context
	cancel context.CancelFunc

	search  textinput.Model
	list    list.Model
	spinner spinner.Model
	styles  Styles

	width  int
	height int

	initialQuery string
	started      bool
	inFlight     int
	snapshot     browser.Snapshot

	confirming *unsplash.Photo
	lastSaved  string
	offerSet   bool

	status    string
	statusSeq int
	quitting  bool
}

// New builds the screen. Fetches run on a context derived from ctx that is
// cancelled when the user quits.
func New(ctx context.Context, coreService CoreService, initialQuery string) Model {
	ctx, cancel := context.WithCancel(ctx)
	styles := DefaultStyles()

	ti := textinput.New()
	ti.Placeholder = "Search photos (enter to submit, esc to cancel)"
	ti.Prompt = "/ "
	ti.CharLimit = 200
	ti.Width = defaultWidth - 8
	ti.SetValue(initialQuery)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	l := list.New(nil, list.NewDefaultDelegate(), defaultWidth, defaultHeight-chromeHeight)
	l.Title = "Photos"
	l.SetShowHelp(false)
	l.SetShowStatusBar(true)
	// "/" belongs to the search box
	l.SetFilteringEnabled(false)
	l.Styles.Title = styles.Title

	return Model{
		core:         coreService,
		ctx:          ctx,
		cancel:       cancel,
		search:       ti,
		list:         l,
		spinner:      sp,
		styles:       styles,
		width:        defaultWidth,
		height:       defaultHeight,
		initialQuery: strings.TrimSpace(initialQuery),
		snapshot:     coreService.Snapshot(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startCmd(), poll())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case startedMsg:
		m.started = true
		if msg.err != nil {
			slog.Error("tui: failed to start", "error", msg.err)
		}
		m.refreshSnapshot()
		return m, nil

	case fetchedMsg:
		if m.inFlight > 0 {
			m.inFlight--
		}
		switch {
		case msg.err == nil, errors.Is(msg.err, browser.ErrSuperseded), errors.Is(msg.err, browser.ErrClosed):
		default:
			slog.Warn("tui: fetch failed", "error", msg.err)
		}
		m.refreshSnapshot()
		return m, nil

	case pollMsg:
		m.refreshSnapshot()
		if m.busy() {
			return m, poll()
		}
		return m, nil

	case savedMsg:
		if msg.err != nil {
			slog.Error("tui: failed to save photo", "error", msg.err)
			return m, m.setStatus("Download failed")
		}
		m.lastSaved = msg.result.Media.ID
		m.offerSet = msg.result.WallpaperOffered
		status := "Download complete"
		if m.offerSet {
			status += " · press w to set as wallpaper"
		}
		return m, m.setStatus(status)

	case wallpaperMsg:
		if msg.err != nil {
			slog.Error("tui: failed to set wallpaper", "media_id", m.lastSaved, "error", msg.err)
			return m, m.setStatus("Wallpaper set failed")
		}
		return m, m.setStatus("Wallpaper set")

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m.quit()
	}

	if m.search.Focused() {
		switch msg.Type {
		case tea.KeyEnter:
			m.search.Blur()
			query := strings.TrimSpace(m.search.Value())
			m.inFlight++
			return m, tea.Batch(m.fetchCmd(query), poll())
		case tea.KeyEsc:
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}

	if m.confirming != nil {
		photo := *m.confirming
		switch msg.String() {
		case "y", "Y":
			m.confirming = nil
			return m, m.saveCmd(photo.ID)
		case "n", "N", "esc":
			m.confirming = nil
		}
		return m, nil
	}

	switch msg.String() {
	case "q":
		return m.quit()
	case "/":
		cmd := m.search.Focus()
		return m, cmd
	case "r":
		m.inFlight++
		return m, tea.Batch(m.refreshCmd(), poll())
	case "w":
		if m.offerSet && m.lastSaved != "" {
			return m, m.wallpaperCmd(m.lastSaved)
		}
		return m, nil
	case "enter":
		if !m.snapshot.ListVisible {
			return m, nil
		}
		if item, ok := m.list.SelectedItem().(photoItem); ok {
			photo := item.photo
			m.confirming = &photo
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.cancel()
	return m, tea.Quit
}

func (m *Model) setSize(width, height int) {
	m.width = width
	m.height = height
	m.search.Width = max(10, width-8)
	m.list.SetSize(width, max(1, height-chromeHeight))
}

func (m *Model) refreshSnapshot() {
	previous := m.snapshot
	m.snapshot = m.core.Snapshot()
	if samePhotos(previous.Photos, m.snapshot.Photos) && len(m.list.Items()) == len(m.snapshot.Photos) {
		return
	}
	items := make([]list.Item, 0, len(m.snapshot.Photos))
	for _, photo := range m.snapshot.Photos {
		items = append(items, photoItem{photo: photo})
	}
	m.list.SetItems(items)
	m.list.ResetSelected()
}

func samePhotos(a, b []unsplash.Photo) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

func (m Model) busy() bool {
	return !m.started || m.inFlight > 0 || m.snapshot.Phase.Busy()
}

func (m *Model) setStatus(text string) tea.Cmd {
	m.statusSeq++
	m.status = text
	seq := m.statusSeq
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

func poll() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		return pollMsg{}
	})
}

func (m Model) startCmd() tea.Cmd {
	ctx, coreService, query := m.ctx, m.core, m.initialQuery
	return func() tea.Msg {
		return startedMsg{err: coreService.Start(ctx, query)}
	}
}

func (m Model) fetchCmd(query string) tea.Cmd {
	ctx, coreService := m.ctx, m.core
	return func() tea.Msg {
		_, err := coreService.FetchPhotos(ctx, query)
		return fetchedMsg{err: err}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	ctx, coreService := m.ctx, m.core
	return func() tea.Msg {
		_, err := coreService.RefreshPhotos(ctx)
		return fetchedMsg{err: err}
	}
}

func (m Model) saveCmd(photoID string) tea.Cmd {
	ctx, coreService := m.ctx, m.core
	return func() tea.Msg {
		result, err := coreService.SavePhoto(ctx, photoID)
		return savedMsg{result: result, err: err}
	}
}

func (m Model) wallpaperCmd(mediaID string) tea.Cmd {
	ctx, coreService := m.ctx, m.core
	return func() tea.Msg {
		return wallpaperMsg{err: coreService.SetWallpaper(ctx, mediaID)}
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Photo Browser"))
	b.WriteString("\n")
	b.WriteString(m.styles.Search.Width(max(10, m.width-4)).Render(m.search.View()))
	b.WriteString("\n")
	b.WriteString(m.body())
	b.WriteString("\n")

	switch {
	case m.confirming != nil:
		b.WriteString(m.styles.Confirm.Render("Download this photo? (y/n)"))
	case m.status != "":
		b.WriteString(m.styles.Status.Render(m.status))
	}
	b.WriteString(m.styles.Help.Render(m.helpLine()))
	return b.String()
}

func (m Model) body() string {
	s := m.snapshot
	switch {
	case s.Phase == browser.Idle && m.core.PermissionDenied():
		return m.styles.Error.Render("Storage permission denied. Photos cannot be saved.")
	case s.ShimmerVisible:
		return fmt.Sprintf("%s Loading photos...", m.spinner.View())
	case s.ErrorVisible:
		return lipgloss.JoinVertical(lipgloss.Left,
			m.styles.Error.Render("Could not load photos"),
			m.styles.Muted.Render(s.Err),
			m.styles.Muted.Render("Press r to retry."),
		)
	case s.Phase == browser.Empty:
		return m.styles.Muted.Render("No photos found.")
	}

	var b strings.Builder
	if s.Refreshing {
		fmt.Fprintf(&b, "%s Refreshing...\n", m.spinner.View())
	}
	if s.ListVisible {
		b.WriteString(m.list.View())
	}
	return b.String()
}

func (m Model) helpLine() string {
	keys := []string{"/ search", "r refresh", "enter download"}
	if m.offerSet && m.lastSaved != "" {
		keys = append(keys, "w wallpaper")
	}
	keys = append(keys, "q quit")
	return "\n" + strings.Join(keys, " · ")
}
