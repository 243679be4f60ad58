package commands

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jo-hoe/photobrowser/internal/backend/commandstructure"
)

func TestDefaultRegistry_ContainsCommands(t *testing.T) {
	want := []string{CropName, DitherName, JpegConverterName, OrientationName, PngConverterName, ScaleName, ThumbnailName}
	if diff := cmp.Diff(want, commandstructure.DefaultRegistry.GetRegisteredNames()); diff != "" {
		t.Errorf("registered names mismatch (-want +got):\n%s", diff)
	}
}

func TestJpegConverterCommand(t *testing.T) {
	transparent := image.NewRGBA(image.Rect(0, 0, 4, 4))
	command, err := NewJpegConverterCommand(map[string]any{})
	if err != nil {
		t.Fatalf("NewJpegConverterCommand error: %v", err)
	}
	if command.(*JpegConverterCommand).Quality() != 100 {
		t.Errorf("expected default quality 100")
	}

	out, err := command.Execute(pngBytes(t, transparent))
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if DetectMimeType(out) != "image/jpeg" {
		t.Fatalf("expected JPEG output, got %q", DetectMimeType(out))
	}
	img, _ := decodeForTest(t, out)
	r, g, b, _ := img.At(1, 1).RGBA()
	if r>>8 < 240 || g>>8 < 240 || b>>8 < 240 {
		t.Errorf("expected transparent pixels to become white, got %d %d %d", r>>8, g>>8, b>>8)
	}
}

func TestJpegConverterCommand_InvalidParams(t *testing.T) {
	for _, params := range []map[string]any{
		{"quality": 0},
		{"quality": 101},
		{"background": "red"},
	} {
		if _, err := NewJpegConverterCommand(params); err == nil {
			t.Errorf("expected error for params %v", params)
		}
	}
}

func TestPngConverterCommand(t *testing.T) {
	command, err := NewPngConverterCommand(map[string]any{"svgFallbackWidth": 40, "svgFallbackHeight": 20})
	if err != nil {
		t.Fatalf("NewPngConverterCommand error: %v", err)
	}

	t.Run("png passes through", func(t *testing.T) {
		in := pngBytes(t, solidImage(2, 2, color.Black))
		out, err := command.Execute(in)
		if err != nil {
			t.Fatalf("Execute error: %v", err)
		}
		if string(out) != string(in) {
			t.Errorf("expected PNG input to be returned unchanged")
		}
	})

	t.Run("jpeg is converted", func(t *testing.T) {
		out, err := command.Execute(jpegBytes(t, solidImage(8, 6, color.White)))
		if err != nil {
			t.Fatalf("Execute error: %v", err)
		}
		img, format := decodeForTest(t, out)
		if format != "png" || img.Bounds().Dx() != 8 || img.Bounds().Dy() != 6 {
			t.Errorf("unexpected output %s %v", format, img.Bounds())
		}
	})

	t.Run("svg with explicit size", func(t *testing.T) {
		svg := `<svg xmlns="http://www.w3.org/2000/svg" width="30" height="10"><rect width="30" height="10" fill="#ff0000"/></svg>`
		out, err := command.Execute([]byte(svg))
		if err != nil {
			t.Fatalf("Execute error: %v", err)
		}
		img, _ := decodeForTest(t, out)
		if img.Bounds().Dx() != 30 || img.Bounds().Dy() != 10 {
			t.Fatalf("expected 30x10, got %v", img.Bounds())
		}
		r, g, b, _ := img.At(15, 5).RGBA()
		if r>>8 < 200 || g>>8 > 50 || b>>8 > 50 {
			t.Errorf("expected red center pixel, got %d %d %d", r>>8, g>>8, b>>8)
		}
	})

	t.Run("svg falls back to configured size", func(t *testing.T) {
		svg := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 4 2"><rect width="4" height="2"/></svg>`
		out, err := command.Execute([]byte(svg))
		if err != nil {
			t.Fatalf("Execute error: %v", err)
		}
		img, _ := decodeForTest(t, out)
		if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 20 {
			t.Errorf("expected fallback 40x20, got %v", img.Bounds())
		}
	})

	t.Run("invalid data", func(t *testing.T) {
		if _, err := command.Execute([]byte("not an image")); err == nil {
			t.Errorf("expected error for invalid data")
		}
	})
}

func TestPngConverterCommand_SVGWithoutSize(t *testing.T) {
	command, err := NewPngConverterCommand(map[string]any{})
	if err != nil {
		t.Fatalf("NewPngConverterCommand error: %v", err)
	}
	if _, err := command.Execute([]byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`)); err == nil {
		t.Errorf("expected error without explicit or fallback size")
	}
}

func TestScaleCommand(t *testing.T) {
	tests := []struct {
		name       string
		mode       string
		srcW, srcH int
		sample     image.Point
		wantBlack  bool
	}{
		{name: "fit pads wide image", mode: ScaleModeFit, srcW: 200, srcH: 100, sample: image.Pt(50, 5), wantBlack: true},
		{name: "fill covers canvas", mode: ScaleModeFill, srcW: 200, srcH: 100, sample: image.Pt(50, 5), wantBlack: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			command, err := NewScaleCommand(map[string]any{"width": 100, "height": 100, "mode": tt.mode})
			if err != nil {
				t.Fatalf("NewScaleCommand error: %v", err)
			}
			out, err := command.Execute(pngBytes(t, solidImage(tt.srcW, tt.srcH, color.White)))
			if err != nil {
				t.Fatalf("Execute error: %v", err)
			}
			img, _ := decodeForTest(t, out)
			if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 100 {
				t.Fatalf("expected 100x100, got %v", img.Bounds())
			}
			r, _, _, _ := img.At(tt.sample.X, tt.sample.Y).RGBA()
			if gotBlack := r>>8 < 20; gotBlack != tt.wantBlack {
				t.Errorf("pixel %v: black=%v, want %v", tt.sample, gotBlack, tt.wantBlack)
			}
		})
	}
}

func TestScaleCommand_InvalidParams(t *testing.T) {
	for _, params := range []map[string]any{
		{},
		{"width": 10},
		{"width": 0, "height": 10},
		{"width": 10, "height": 10, "mode": "stretch"},
	} {
		if _, err := NewScaleCommand(params); err == nil {
			t.Errorf("expected error for params %v", params)
		}
	}
}

func TestScaledRect(t *testing.T) {
	if diff := cmp.Diff(image.Rect(0, 25, 100, 75), scaledRect(200, 100, 100, 100, ScaleModeFit)); diff != "" {
		t.Errorf("fit mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(image.Rect(-50, 0, 150, 100), scaledRect(200, 100, 100, 100, ScaleModeFill)); diff != "" {
		t.Errorf("fill mismatch (-want +got):\n%s", diff)
	}
}

func TestCropCommand(t *testing.T) {
	src := solidImage(10, 10, color.White)
	src.Set(5, 5, color.Black)

	command, err := NewCropCommand(map[string]any{"width": 4, "height": 20})
	if err != nil {
		t.Fatalf("NewCropCommand error: %v", err)
	}
	out, err := command.Execute(pngBytes(t, src))
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	img, _ := decodeForTest(t, out)
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 10 {
		t.Fatalf("expected 4x10 after clamping, got %v", img.Bounds())
	}
	if r, _, _, _ := img.At(2, 5).RGBA(); r != 0 {
		t.Errorf("expected the marked center pixel at (2,5)")
	}
}

func TestOrientationCommand(t *testing.T) {
	src := solidImage(4, 2, color.White)
	src.Set(0, 0, color.Black)

	tests := []struct {
		name      string
		params    map[string]any
		wantW     int
		wantBlack image.Point
	}{
		{name: "landscape kept", params: map[string]any{"orientation": "landscape"}, wantW: 4, wantBlack: image.Pt(0, 0)},
		{name: "clockwise", params: map[string]any{"orientation": "portrait"}, wantW: 2, wantBlack: image.Pt(1, 0)},
		{name: "counter clockwise", params: map[string]any{"orientation": "portrait", "clockwise": false}, wantW: 2, wantBlack: image.Pt(0, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			command, err := NewOrientationCommand(tt.params)
			if err != nil {
				t.Fatalf("NewOrientationCommand error: %v", err)
			}
			out, err := command.Execute(pngBytes(t, src))
			if err != nil {
				t.Fatalf("Execute error: %v", err)
			}
			img, _ := decodeForTest(t, out)
			if img.Bounds().Dx() != tt.wantW {
				t.Fatalf("expected width %d, got %v", tt.wantW, img.Bounds())
			}
			if r, _, _, _ := img.At(tt.wantBlack.X, tt.wantBlack.Y).RGBA(); r != 0 {
				t.Errorf("expected black pixel at %v", tt.wantBlack)
			}
		})
	}

	if _, err := NewOrientationCommand(map[string]any{"orientation": "diagonal"}); err == nil {
		t.Errorf("expected error for invalid orientation")
	}
}

func TestThumbnailCommand(t *testing.T) {
	command, err := NewThumbnailCommand(map[string]any{"width": 50})
	if err != nil {
		t.Fatalf("NewThumbnailCommand error: %v", err)
	}

	out, err := command.Execute(pngBytes(t, solidImage(200, 100, color.White)))
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	img, format := decodeForTest(t, out)
	if format != "jpeg" || img.Bounds().Dx() != 50 || img.Bounds().Dy() != 25 {
		t.Errorf("unexpected thumbnail %s %v", format, img.Bounds())
	}

	small, err := command.Execute(pngBytes(t, solidImage(20, 10, color.White)))
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if img, _ := decodeForTest(t, small); img.Bounds().Dx() != 20 {
		t.Errorf("expected small image not to be enlarged, got %v", img.Bounds())
	}
}

func TestDitherCommand(t *testing.T) {
	command, err := NewDitherCommand(map[string]any{"palette": []any{"#000000", "#FFFFFF", "#FF0000"}})
	if err != nil {
		t.Fatalf("NewDitherCommand error: %v", err)
	}
	out, err := command.Execute(pngBytes(t, solidImage(8, 8, color.RGBA{R: 250, A: 255})))
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	img, _ := decodeForTest(t, out)
	paletted, ok := img.(*image.Paletted)
	if !ok {
		t.Fatalf("expected paletted output, got %T", img)
	}
	if len(paletted.Palette) != 3 {
		t.Errorf("expected 3 palette entries, got %d", len(paletted.Palette))
	}

	for _, palette := range []any{"#000000", []any{"#000000"}, []any{1, 2}} {
		if _, err := NewDitherCommand(map[string]any{"palette": palette}); err == nil {
			t.Errorf("expected error for palette %v", palette)
		}
	}
}

func TestCommandsInPipeline(t *testing.T) {
	invoker, err := commandstructure.NewCommandInvokerFromConfig(commandstructure.DefaultRegistry, []commandstructure.CommandConfig{
		{Name: OrientationName, Params: map[string]any{"orientation": "portrait"}},
		{Name: ScaleName, Params: map[string]any{"width": 30, "height": 40, "mode": "fill"}},
		{Name: JpegConverterName, Params: map[string]any{"quality": 90}},
	})
	if err != nil {
		t.Fatalf("NewCommandInvokerFromConfig error: %v", err)
	}
	out, err := invoker.Execute(context.Background(), jpegBytes(t, solidImage(80, 60, color.White)))
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	img, format := decodeForTest(t, out)
	if format != "jpeg" || img.Bounds().Dx() != 30 || img.Bounds().Dy() != 40 {
		t.Errorf("unexpected pipeline output %s %v", format, img.Bounds())
	}
}

func TestParseHexColor(t *testing.T) {
	got, err := parseHexColor("#1a2B3c")
	if err != nil {
		t.Fatalf("parseHexColor error: %v", err)
	}
	if diff := cmp.Diff(color.RGBA{R: 0x1a, G: 0x2b, B: 0x3c, A: 255}, got); diff != "" {
		t.Errorf("color mismatch (-want +got):\n%s", diff)
	}
	for _, bad := range []string{"", "#123", "zzzzzz"} {
		if _, err := parseHexColor(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestDetectMimeType(t *testing.T) {
	if got := DetectMimeType(pngBytes(t, solidImage(1, 1, color.Black))); got != "image/png" {
		t.Errorf("expected image/png, got %q", got)
	}
	if got := DetectMimeType(jpegBytes(t, solidImage(1, 1, color.Black))); got != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %q", got)
	}
	if got := DetectMimeType([]byte("text")); got != "" {
		t.Errorf("expected empty type for text, got %q", got)
	}
}
