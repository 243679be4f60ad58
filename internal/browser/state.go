package browser

import (
	"time"

	"github.com/jo-hoe/photobrowser/internal/unsplash"
)

// Phase is the state of the photo list on screen.
type Phase int

const (
	// Idle is the state before the first fetch.
	Idle Phase = iota
	Loading
	Refreshing
	Loaded
	// Empty means the last fetch succeeded with no photos.
	Empty
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Refreshing:
		return "refreshing"
	case Loaded:
		return "loaded"
	case Empty:
		return "empty"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Busy reports whether a fetch is in flight.
func (p Phase) Busy() bool {
	return p == Loading || p == Refreshing
}

// Snapshot is what the screen renders. Photos is retained while the list is
// hidden after a failed fetch.
type Snapshot struct {
	Phase     Phase
	Query     string
	Photos    []unsplash.Photo
	Err       string
	UpdatedAt time.Time

	ShimmerVisible bool
	ListVisible    bool
	ErrorVisible   bool
	Refreshing     bool
}

func initialSnapshot() Snapshot {
	return Snapshot{
		Phase:          Idle,
		ShimmerVisible: true,
	}
}

func (s Snapshot) clone() Snapshot {
	if s.Photos != nil {
		s.Photos = append([]unsplash.Photo(nil), s.Photos...)
	}
	return s
}
