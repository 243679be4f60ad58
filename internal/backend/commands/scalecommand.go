package commands

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/jo-hoe/photobrowser/internal/backend/commandstructure"
	xdraw "golang.org/x/image/draw"
)

const (
	ScaleName = "ScaleCommand"

	ScaleModeFit  = "fit"
	ScaleModeFill = "fill"
)

// ScaleCommand resizes an image onto a canvas of exactly width x height.
// In fit mode the whole image stays visible and the rest is padded with the
// background color, in fill mode the image covers the canvas and the overflow is cut.
type ScaleCommand struct {
	width      int
	height     int
	mode       string
	background color.RGBA
}

func NewScaleCommand(params map[string]any) (commandstructure.Command, error) {
	if err := commandstructure.ValidateRequiredParams(params, []string{"width", "height"}); err != nil {
		return nil, err
	}
	width := commandstructure.GetIntParam(params, "width", 0)
	height := commandstructure.GetIntParam(params, "height", 0)
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("width and height must be positive, got %dx%d", width, height)
	}

	mode := commandstructure.GetStringParam(params, "mode", ScaleModeFit)
	if mode != ScaleModeFit && mode != ScaleModeFill {
		return nil, fmt.Errorf("invalid mode: %s (must be '%s' or '%s')", mode, ScaleModeFit, ScaleModeFill)
	}
	background, err := parseHexColor(commandstructure.GetStringParam(params, "background", "#000000"))
	if err != nil {
		return nil, err
	}

	return &ScaleCommand{width: width, height: height, mode: mode, background: background}, nil
}

func (c *ScaleCommand) Name() string {
	return ScaleName
}

func (c *ScaleCommand) Execute(imageData []byte) ([]byte, error) {
	src, _, err := decodeImage(imageData)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	if b.Dx() == c.width && b.Dy() == c.height {
		return encodePNG(src)
	}

	target := scaledRect(b.Dx(), b.Dy(), c.width, c.height, c.mode)
	slog.Debug("ScaleCommand: scaling",
		"orig_width", b.Dx(), "orig_height", b.Dy(),
		"target_width", c.width, "target_height", c.height,
		"mode", c.mode, "placed", target.String())

	dst := newCanvas(c.width, c.height, c.background)
	xdraw.CatmullRom.Scale(dst, target, src, b, xdraw.Over, nil)
	return encodePNG(dst)
}

// scaledRect returns where a srcW x srcH image lands on a canvas of dstW x dstH,
// keeping the aspect ratio and centering it. In fill mode the rect may exceed the canvas.
func scaledRect(srcW, srcH, dstW, dstH int, mode string) image.Rectangle {
	scaleX := float64(dstW) / float64(srcW)
	scaleY := float64(dstH) / float64(srcH)
	scale := min(scaleX, scaleY)
	if mode == ScaleModeFill {
		scale = max(scaleX, scaleY)
	}

	w := max(1, int(float64(srcW)*scale+0.5))
	h := max(1, int(float64(srcH)*scale+0.5))
	x := (dstW - w) / 2
	y := (dstH - h) / 2
	return image.Rect(x, y, x+w, y+h)
}

func init() {
	if err := commandstructure.DefaultRegistry.Register(ScaleName, NewScaleCommand); err != nil {
		panic(fmt.Sprintf("failed to register %s: %v", ScaleName, err))
	}
}
