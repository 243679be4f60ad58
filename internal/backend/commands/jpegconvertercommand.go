package commands

import (
	"fmt"
	"image/color"
	"log/slog"

	"github.com/jo-hoe/photobrowser/internal/backend/commandstructure"
)

const (
	JpegConverterName  = "JpegConverterCommand"
	defaultJpegQuality = 100
)

// JpegConverterCommand re-encodes any supported image as JPEG.
// Transparent pixels are composed onto the background color.
type JpegConverterCommand struct {
	quality    int
	background color.RGBA
}

func NewJpegConverterCommand(params map[string]any) (commandstructure.Command, error) {
	quality := commandstructure.GetIntParam(params, "quality", defaultJpegQuality)
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("quality must be between 1 and 100, got %d", quality)
	}
	background, err := parseHexColor(commandstructure.GetStringParam(params, "background", "#FFFFFF"))
	if err != nil {
		return nil, err
	}
	return &JpegConverterCommand{quality: quality, background: background}, nil
}

func (c *JpegConverterCommand) Name() string {
	return JpegConverterName
}

func (c *JpegConverterCommand) Quality() int {
	return c.quality
}

func (c *JpegConverterCommand) Execute(imageData []byte) ([]byte, error) {
	img, format, err := decodeImage(imageData)
	if err != nil {
		return nil, err
	}
	slog.Debug("JpegConverterCommand: decoded image",
		"format", format,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy(),
		"quality", c.quality)

	out, err := encodeJPEG(flatten(img, c.background), c.quality)
	if err != nil {
		return nil, err
	}
	slog.Debug("JpegConverterCommand: done", "input_size_bytes", len(imageData), "output_size_bytes", len(out))
	return out, nil
}

func init() {
	if err := commandstructure.DefaultRegistry.Register(JpegConverterName, NewJpegConverterCommand); err != nil {
		panic(fmt.Sprintf("failed to register %s: %v", JpegConverterName, err))
	}
}
