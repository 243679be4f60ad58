package commands

import (
	"fmt"
	"image"

	"github.com/jo-hoe/photobrowser/internal/backend/commandstructure"
	xdraw "golang.org/x/image/draw"
)

const (
	ThumbnailName         = "ThumbnailCommand"
	defaultThumbnailWidth = 320
)

// ThumbnailCommand produces a small JPEG preview of the given width.
// Images narrower than the width are not enlarged.
type ThumbnailCommand struct {
	width   int
	quality int
}

func NewThumbnailCommand(params map[string]any) (commandstructure.Command, error) {
	width := commandstructure.GetIntParam(params, "width", defaultThumbnailWidth)
	if width <= 0 {
		return nil, fmt.Errorf("width must be positive, got %d", width)
	}
	quality := commandstructure.GetIntParam(params, "quality", 80)
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("quality must be between 1 and 100, got %d", quality)
	}
	return &ThumbnailCommand{width: width, quality: quality}, nil
}

func (c *ThumbnailCommand) Name() string {
	return ThumbnailName
}

func (c *ThumbnailCommand) Execute(imageData []byte) ([]byte, error) {
	src, _, err := decodeImage(imageData)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	if b.Dx() <= c.width {
		return encodeJPEG(flatten(src, whiteBackground), c.quality)
	}

	height := max(1, b.Dy()*c.width/b.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, c.width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return encodeJPEG(flatten(dst, whiteBackground), c.quality)
}

func init() {
	if err := commandstructure.DefaultRegistry.Register(ThumbnailName, NewThumbnailCommand); err != nil {
		panic(fmt.Sprintf("failed to register %s: %v", ThumbnailName, err))
	}
}
