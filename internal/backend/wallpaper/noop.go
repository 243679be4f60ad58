package wallpaper

import (
	"context"

	"github.com/jo-hoe/photobrowser/internal/backend/database"
)

// NoopSetter is used where no wallpaper target exists. The set action is never offered.
type NoopSetter struct{}

func (NoopSetter) IsSupported() bool  { return false }
func (NoopSetter) IsSetAllowed() bool { return false }

func (NoopSetter) SetImage(context.Context, string, []byte) error {
	return ErrUnsupported
}

func (NoopSetter) Current(context.Context) (*database.Wallpaper, error) {
	return nil, ErrUnsupported
}
