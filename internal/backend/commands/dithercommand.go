package commands

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/jo-hoe/photobrowser/internal/backend/commandstructure"
)

const DitherName = "DitherCommand"

// DitherCommand reduces the image to a fixed palette with Floyd-Steinberg
// error diffusion, used for e-ink frames with few colors.
type DitherCommand struct {
	palette color.Palette
}

func NewDitherCommand(params map[string]any) (commandstructure.Command, error) {
	palette := color.Palette{color.Black, color.White}
	if raw, ok := params["palette"]; ok {
		parsed, err := parsePalette(raw)
		if err != nil {
			return nil, err
		}
		palette = parsed
	}
	return &DitherCommand{palette: palette}, nil
}

func (c *DitherCommand) Name() string {
	return DitherName
}

func (c *DitherCommand) Execute(imageData []byte) ([]byte, error) {
	src, _, err := decodeImage(imageData)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	dst := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), c.palette)
	draw.FloydSteinberg.Draw(dst, dst.Bounds(), flatten(src, whiteBackground), image.Point{})
	return encodePNG(dst)
}

// parsePalette accepts a list of "#RRGGBB" strings.
func parsePalette(raw any) (color.Palette, error) {
	var entries []string
	switch v := raw.(type) {
	case []string:
		entries = v
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("palette entries must be strings, got %T", item)
			}
			entries = append(entries, s)
		}
	default:
		return nil, fmt.Errorf("palette must be a list of colors, got %T", raw)
	}
	if len(entries) < 2 {
		return nil, fmt.Errorf("palette needs at least two colors, got %d", len(entries))
	}

	palette := make(color.Palette, 0, len(entries))
	for _, entry := range entries {
		c, err := parseHexColor(entry)
		if err != nil {
			return nil, err
		}
		palette = append(palette, c)
	}
	return palette, nil
}

func init() {
	if err := commandstructure.DefaultRegistry.Register(DitherName, NewDitherCommand); err != nil {
		panic(fmt.Sprintf("failed to register %s: %v", DitherName, err))
	}
}
