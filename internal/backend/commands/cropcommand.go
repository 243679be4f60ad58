package commands

import (
	"fmt"
	"image"
	"image/draw"
	"log/slog"

	"github.com/jo-hoe/photobrowser/internal/backend/commandstructure"
)

const CropName = "CropCommand"

// CropCommand cuts a centered width x height region out of the image.
// Dimensions larger than the image are clamped to the image size.
type CropCommand struct {
	width  int
	height int
}

func NewCropCommand(params map[string]any) (commandstructure.Command, error) {
	if err := commandstructure.ValidateRequiredParams(params, []string{"width", "height"}); err != nil {
		return nil, err
	}
	width := commandstructure.GetIntParam(params, "width", 0)
	height := commandstructure.GetIntParam(params, "height", 0)
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("width and height must be positive, got %dx%d", width, height)
	}
	return &CropCommand{width: width, height: height}, nil
}

func (c *CropCommand) Name() string {
	return CropName
}

func (c *CropCommand) Execute(imageData []byte) ([]byte, error) {
	src, _, err := decodeImage(imageData)
	if err != nil {
		return nil, err
	}
	region := centeredRegion(src.Bounds(), c.width, c.height)
	slog.Debug("CropCommand: cropping", "bounds", src.Bounds().String(), "region", region.String())

	dst := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
	draw.Draw(dst, dst.Bounds(), src, region.Min, draw.Src)
	return encodePNG(dst)
}

func centeredRegion(bounds image.Rectangle, width, height int) image.Rectangle {
	width = min(width, bounds.Dx())
	height = min(height, bounds.Dy())
	x := bounds.Min.X + (bounds.Dx()-width)/2
	y := bounds.Min.Y + (bounds.Dy()-height)/2
	return image.Rect(x, y, x+width, y+height)
}

func init() {
	if err := commandstructure.DefaultRegistry.Register(CropName, NewCropCommand); err != nil {
		panic(fmt.Sprintf("failed to register %s: %v", CropName, err))
	}
}
