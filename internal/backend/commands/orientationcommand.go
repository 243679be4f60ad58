package commands

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/jo-hoe/photobrowser/internal/backend/commandstructure"
)

const (
	OrientationName = "OrientationCommand"

	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// OrientationCommand rotates the image by 90 degrees when its aspect does not
// match the configured orientation. Square images are left alone.
type OrientationCommand struct {
	orientation string
	clockwise   bool
}

func NewOrientationCommand(params map[string]any) (commandstructure.Command, error) {
	orientation := commandstructure.GetStringParam(params, "orientation", OrientationPortrait)
	if orientation != OrientationPortrait && orientation != OrientationLandscape {
		return nil, fmt.Errorf("invalid orientation: %s (must be '%s' or '%s')", orientation, OrientationPortrait, OrientationLandscape)
	}
	return &OrientationCommand{
		orientation: orientation,
		clockwise:   commandstructure.GetBoolParam(params, "clockwise", true),
	}, nil
}

func (c *OrientationCommand) Name() string {
	return OrientationName
}

func (c *OrientationCommand) Execute(imageData []byte) ([]byte, error) {
	src, _, err := decodeImage(imageData)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	isPortrait := b.Dy() > b.Dx()
	isLandscape := b.Dx() > b.Dy()
	if (c.orientation == OrientationPortrait && !isLandscape) || (c.orientation == OrientationLandscape && !isPortrait) {
		slog.Debug("OrientationCommand: no rotation needed", "width", b.Dx(), "height", b.Dy(), "orientation", c.orientation)
		return encodePNG(src)
	}

	slog.Debug("OrientationCommand: rotating", "width", b.Dx(), "height", b.Dy(), "clockwise", c.clockwise)
	return encodePNG(rotate90(src, c.clockwise))
}

func rotate90(src image.Image, clockwise bool) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, h, w))

	parallelRows(h, func(y int) {
		for x := 0; x < w; x++ {
			c := src.At(b.Min.X+x, b.Min.Y+y)
			if clockwise {
				dst.Set(h-1-y, x, c)
			} else {
				dst.Set(y, w-1-x, c)
			}
		}
	})
	return dst
}

func init() {
	if err := commandstructure.DefaultRegistry.Register(OrientationName, NewOrientationCommand); err != nil {
		panic(fmt.Sprintf("failed to register %s: %v", OrientationName, err))
	}
}
