package commands

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jo-hoe/photobrowser/internal/backend/commandstructure"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

const PngConverterName = "PngConverterCommand"

// PngConverterCommand converts raster images and SVG documents to PNG.
// PNG input passes through untouched.
type PngConverterCommand struct {
	svgFallbackWidth  int
	svgFallbackHeight int
}

func NewPngConverterCommand(params map[string]any) (commandstructure.Command, error) {
	w := commandstructure.GetIntParam(params, "svgFallbackWidth", 0)
	h := commandstructure.GetIntParam(params, "svgFallbackHeight", 0)
	if w < 0 || h < 0 {
		return nil, fmt.Errorf("svg fallback size must not be negative, got %dx%d", w, h)
	}
	return &PngConverterCommand{svgFallbackWidth: w, svgFallbackHeight: h}, nil
}

func (c *PngConverterCommand) Name() string {
	return PngConverterName
}

func (c *PngConverterCommand) Execute(imageData []byte) ([]byte, error) {
	if hasPNGSignature(imageData) {
		return imageData, nil
	}
	if looksLikeSVG(imageData) {
		return c.renderSVG(imageData)
	}

	img, format, err := decodeImage(imageData)
	if err != nil {
		slog.Error("PngConverterCommand: failed to decode image", "error", err)
		return nil, err
	}
	slog.Debug("PngConverterCommand: converting raster image", "format", format)
	return encodePNG(img)
}

func (c *PngConverterCommand) renderSVG(data []byte) ([]byte, error) {
	w, h, err := svgSize(data)
	if err != nil {
		return nil, err
	}
	if w <= 0 || h <= 0 {
		w, h = c.svgFallbackWidth, c.svgFallbackHeight
		if w <= 0 || h <= 0 {
			return nil, errors.New("svg has no explicit size and no fallback size is configured")
		}
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	dst := newCanvas(w, h, whiteBackground)
	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)

	slog.Debug("PngConverterCommand: rendered SVG", "width", w, "height", h)
	return encodePNG(dst)
}

func looksLikeSVG(data []byte) bool {
	head := data
	if len(head) > 4096 {
		head = head[:4096]
	}
	return bytes.Contains(bytes.ToLower(head), []byte("<svg"))
}

// svgSize reads the width and height attributes of the root svg element.
// Missing or relative sizes yield zero.
func svgSize(data []byte) (int, int, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return 0, 0, errors.New("document has no svg element")
		}
		if err != nil {
			return 0, 0, fmt.Errorf("failed to parse SVG: %w", err)
		}
		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "svg" {
			continue
		}
		var w, h int
		for _, attr := range start.Attr {
			switch attr.Name.Local {
			case "width":
				w = pixelLength(attr.Value)
			case "height":
				h = pixelLength(attr.Value)
			}
		}
		return w, h, nil
	}
}

func pixelLength(value string) int {
	value = strings.TrimSuffix(strings.TrimSpace(value), "px")
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 {
		return 0
	}
	return int(f + 0.5)
}

func init() {
	if err := commandstructure.DefaultRegistry.Register(PngConverterName, NewPngConverterCommand); err != nil {
		panic(fmt.Sprintf("failed to register %s: %v", PngConverterName, err))
	}
}
