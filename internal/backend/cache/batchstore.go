package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jo-hoe/photobrowser/internal/unsplash"
)

// ErrBatchNotFound is returned when no batch has been stored for the screen yet.
var ErrBatchNotFound = errors.New("batch not found")

// Batch is the list of photos currently shown on the screen.
type Batch struct {
	Query     string           `json:"query"`
	Photos    []unsplash.Photo `json:"photos"`
	FetchedAt time.Time        `json:"fetchedAt"`
}

// Find returns the photo with the given id.
func (b *Batch) Find(id string) (unsplash.Photo, bool) {
	for _, photo := range b.Photos {
		if photo.ID == id {
			return photo, true
		}
	}
	return unsplash.Photo{}, false
}

// BatchStore holds the single displayed batch. Every fetch overwrites it.
type BatchStore interface {
	SaveBatch(ctx context.Context, batch Batch) error
	LoadBatch(ctx context.Context) (*Batch, error)
	DeleteBatch(ctx context.Context) error
	Close() error
}

// Config selects and configures the batch store.
type Config struct {
	Type     string        `yaml:"type"`
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Screen   string        `yaml:"screen"`
	TTL      time.Duration `yaml:"ttl"`
}

func NewBatchStore(cfg Config) (BatchStore, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryBatchStore(), nil
	case "redis":
		return NewRedisBatchStore(cfg)
	default:
		return nil, fmt.Errorf("unsupported batch store type: %s", cfg.Type)
	}
}
