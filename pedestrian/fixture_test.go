package pedestrian

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

// instanceRect paints id over r in a mask.
type instanceRect struct {
	id uint8
	r  image.Rectangle
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	ok(t, err)
	defer f.Close()
	ok(t, png.Encode(f, img))
}

func pedMask(w, h int, rects ...instanceRect) *image.Paletted {
	palette := make(color.Palette, 256)
	for i := range palette {
		palette[i] = color.Gray{Y: uint8(i)}
	}
	m := image.NewPaletted(image.Rect(0, 0, w, h), palette)
	for _, ir := range rects {
		for y := ir.r.Min.Y; y < ir.r.Max.Y; y++ {
			for x := ir.r.Min.X; x < ir.r.Max.X; x++ {
				m.SetColorIndex(x, y, ir.id)
			}
		}
	}
	return m
}

// newFixture writes a PennFudan style root with one image per mask.
func newFixture(t *testing.T, w, h int, masks ...*image.Paletted) string {
	t.Helper()
	root, err := ioutil.TempDir("", "pennfudan")
	ok(t, err)
	t.Cleanup(func() { os.RemoveAll(root) })

	ok(t, os.MkdirAll(filepath.Join(root, ImagesDir), 0755))
	ok(t, os.MkdirAll(filepath.Join(root, MasksDir), 0755))
	for i, m := range masks {
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 128, A: 255})
			}
		}
		writePNG(t, filepath.Join(root, ImagesDir, fmt.Sprintf("FudanPed%05d.png", i+1)), img)
		writePNG(t, filepath.Join(root, MasksDir, fmt.Sprintf("FudanPed%05d_mask.png", i+1)), m)
	}
	return root
}
