package main

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"log"
	"math"
	"path"

	_ "image/png"
)

// poofFrameCount is the number of frames stacked in the poof sheet.
const poofFrameCount = 5

// ErrAssetNotFound is returned when no variant of a sprite sheet exists.
var ErrAssetNotFound = errors.New("asset: not found")

// SpriteSheet is a decoded image plus its logical size in points. High
// density variants decode to more pixels than their logical size.
type SpriteSheet struct {
	Image   image.Image
	Logical Size
}

// assetSource loads named sprite sheets.
type assetSource interface {
	SpriteSheet(name string) (SpriteSheet, error)
}

// embeddedAssets serves PNGs from an fs.FS, preferring the @2x variant.
type embeddedAssets struct {
	fsys fs.FS
	dir  string
}

func newEmbeddedAssets(fsys fs.FS, dir string) *embeddedAssets {
	return &embeddedAssets{fsys: fsys, dir: dir}
}

func (a *embeddedAssets) SpriteSheet(name string) (SpriteSheet, error) {
	variants := []struct {
		file  string
		scale float64
	}{
		{name + "@2x.png", 2},
		{name + ".png", 1},
	}
	for _, v := range variants {
		f, err := a.fsys.Open(path.Join(a.dir, v.file))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return SpriteSheet{}, fmt.Errorf("asset: open %s: %w", v.file, err)
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			return SpriteSheet{}, fmt.Errorf("asset: decode %s: %w", v.file, err)
		}
		b := img.Bounds()
		return SpriteSheet{
			Image:   img,
			Logical: Size{Width: float64(b.Dx()) / v.scale, Height: float64(b.Dy()) / v.scale},
		}, nil
	}
	return SpriteSheet{}, fmt.Errorf("%w: %s", ErrAssetNotFound, name)
}

// subImager is implemented by every concrete type in package image.
type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// frameBands returns the pixel rectangle of each of n vertically stacked
// frames. Frame i covers logical rows [i*h, (i+1)*h) with h = height/n;
// the band is scaled by pixelWidth/logicalWidth to address the decoded
// buffer.
func frameBands(sheet SpriteSheet, n int) []image.Rectangle {
	if n <= 0 || sheet.Image == nil {
		return nil
	}
	px := sheet.Image.Bounds()
	logical := sheet.Logical
	if logical.Width <= 0 || logical.Height <= 0 {
		logical = Size{Width: float64(px.Dx()), Height: float64(px.Dy())}
	}
	if logical.Width <= 0 {
		return nil
	}
	scale := float64(px.Dx()) / logical.Width
	frameHeight := logical.Height / float64(n)

	bands := make([]image.Rectangle, n)
	for i := range bands {
		y0 := int(math.Round(float64(i) * frameHeight * scale))
		y1 := int(math.Round(float64(i+1) * frameHeight * scale))
		w := int(math.Round(logical.Width * scale))
		bands[i] = image.Rect(0, y0, w, y1).Add(px.Min)
	}
	return bands
}

// ExtractFrames slices sheet into n frames. A band that cannot be cropped
// is dropped, so the result may hold fewer than n frames, or none.
func ExtractFrames(sheet SpriteSheet, n int) []image.Image {
	var frames []image.Image
	for i, band := range frameBands(sheet, n) {
		frame, err := cropFrame(sheet.Image, band)
		if err != nil {
			log.Printf("overlay: frame %d/%d skipped: %v", i+1, n, err)
			continue
		}
		frames = append(frames, frame)
	}
	return frames
}

func cropFrame(img image.Image, band image.Rectangle) (image.Image, error) {
	if band.Empty() || !band.In(img.Bounds()) {
		return nil, fmt.Errorf("band %v outside image %v", band, img.Bounds())
	}
	s, ok := img.(subImager)
	if !ok {
		return nil, fmt.Errorf("image type %T cannot be cropped", img)
	}
	sub := s.SubImage(band)
	if sub == nil || sub.Bounds().Empty() {
		return nil, fmt.Errorf("empty crop for band %v", band)
	}
	return sub, nil
}

// loadPoofFrames returns the poof animation frames, or none if the asset
// is missing or unreadable.
func loadPoofFrames(assets assetSource) []image.Image {
	sheet, err := assets.SpriteSheet("poof")
	if err != nil {
		log.Printf("overlay: %v — playing without frames", err)
		return nil
	}
	return ExtractFrames(sheet, poofFrameCount)
}
