package main

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"testing/fstest"
)

// bandedImage paints each of n bands a distinct grey so a frame can be
// traced back to the band it was cut from.
func bandedImage(w, h, n int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	bh := h / n
	for y := 0; y < h; y++ {
		g := uint8(10 + 40*(y/bh))
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{g, g, g, 255})
		}
	}
	return img
}

func TestFrameBandsLogicalSize(t *testing.T) {
	sheet := SpriteSheet{Image: bandedImage(100, 500, 5), Logical: Size{100, 500}}
	bands := frameBands(sheet, 5)
	want := []image.Rectangle{
		image.Rect(0, 0, 100, 100),
		image.Rect(0, 100, 100, 200),
		image.Rect(0, 200, 100, 300),
		image.Rect(0, 300, 100, 400),
		image.Rect(0, 400, 100, 500),
	}
	if len(bands) != len(want) {
		t.Fatalf("bands = %d; want %d", len(bands), len(want))
	}
	for i := range want {
		if bands[i] != want[i] {
			t.Errorf("band %d = %v; want %v", i, bands[i], want[i])
		}
	}
}

func TestFrameBandsHighDensity(t *testing.T) {
	// 2x asset: 200x1000 pixels describing a 100x500 point image.
	sheet := SpriteSheet{Image: bandedImage(200, 1000, 5), Logical: Size{100, 500}}
	bands := frameBands(sheet, 5)
	for i, b := range bands {
		want := image.Rect(0, i*200, 200, (i+1)*200)
		if b != want {
			t.Errorf("band %d = %v; want %v", i, b, want)
		}
	}
}

func TestExtractFramesSlicesInOrder(t *testing.T) {
	src := bandedImage(100, 500, 5)
	frames := ExtractFrames(SpriteSheet{Image: src, Logical: Size{100, 500}}, 5)
	if len(frames) != 5 {
		t.Fatalf("frames = %d; want 5", len(frames))
	}
	for i, f := range frames {
		b := f.Bounds()
		if b.Dx() != 100 || b.Dy() != 100 {
			t.Errorf("frame %d size = %dx%d; want 100x100", i, b.Dx(), b.Dy())
		}
		r, _, _, _ := f.At(b.Min.X, b.Min.Y).RGBA()
		if want := uint32(10+40*i) * 0x101; r != want {
			t.Errorf("frame %d came from the wrong band (red %d, want %d)", i, r, want)
		}
	}
}

// flakyImage refuses to crop one band, as a corrupt region would.
type flakyImage struct {
	*image.RGBA
	badBand image.Rectangle
}

func (f flakyImage) SubImage(r image.Rectangle) image.Image {
	if r == f.badBand {
		return nil
	}
	return f.RGBA.SubImage(r)
}

func TestExtractFramesSkipsBadBand(t *testing.T) {
	img := flakyImage{RGBA: bandedImage(100, 500, 5), badBand: image.Rect(0, 200, 100, 300)}
	frames := ExtractFrames(SpriteSheet{Image: img, Logical: Size{100, 500}}, 5)
	if len(frames) != 4 {
		t.Fatalf("frames = %d; want 4", len(frames))
	}
	for _, f := range frames {
		if f.Bounds().Min.Y == 200 {
			t.Error("bad band was not dropped")
		}
	}
}

// opaqueImage cannot be cropped at all.
type opaqueImage struct{ image.Image }

func TestExtractFramesZeroFrames(t *testing.T) {
	frames := ExtractFrames(SpriteSheet{Image: opaqueImage{bandedImage(100, 500, 5)}}, 5)
	if len(frames) != 0 {
		t.Errorf("frames = %d; want 0", len(frames))
	}
	if got := ExtractFrames(SpriteSheet{}, 5); len(got) != 0 {
		t.Errorf("nil image yielded %d frames", len(got))
	}
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestEmbeddedAssetsPrefersRetina(t *testing.T) {
	fsys := fstest.MapFS{
		"assets/poof.png":    {Data: encodePNG(t, bandedImage(20, 100, 5))},
		"assets/poof@2x.png": {Data: encodePNG(t, bandedImage(40, 200, 5))},
	}
	sheet, err := newEmbeddedAssets(fsys, "assets").SpriteSheet("poof")
	if err != nil {
		t.Fatalf("SpriteSheet() error: %v", err)
	}
	if sheet.Logical != (Size{20, 100}) {
		t.Errorf("Logical = %+v; want 20x100", sheet.Logical)
	}
	if b := sheet.Image.Bounds(); b.Dx() != 40 {
		t.Errorf("decoded width = %d; want the 2x variant (40)", b.Dx())
	}
	frames := ExtractFrames(sheet, 5)
	if len(frames) != 5 {
		t.Fatalf("2x frames = %d; want 5", len(frames))
	}
	if h := frames[0].Bounds().Dy(); h != 40 {
		t.Errorf("2x frame height = %d px; want 40", h)
	}
}

func TestEmbeddedAssetsMissingAndCorrupt(t *testing.T) {
	fsys := fstest.MapFS{
		"assets/broken.png": {Data: []byte("not a png")},
	}
	a := newEmbeddedAssets(fsys, "assets")
	if _, err := a.SpriteSheet("poof"); !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("missing asset error = %v; want ErrAssetNotFound", err)
	}
	if _, err := a.SpriteSheet("broken"); err == nil {
		t.Error("corrupt asset decoded without error")
	}
	if frames := loadPoofFrames(a); len(frames) != 0 {
		t.Errorf("loadPoofFrames() = %d frames; want 0", len(frames))
	}
}

func TestBundledPoofAsset(t *testing.T) {
	frames := loadPoofFrames(newEmbeddedAssets(assetFiles, "assets"))
	if len(frames) != poofFrameCount {
		t.Fatalf("bundled poof yields %d frames; want %d", len(frames), poofFrameCount)
	}
}
