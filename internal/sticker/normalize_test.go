package sticker

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func opaqueAt(f *CanvasFrame, x, y int) bool {
	return f.Image().NRGBAAt(x, y).A > 0
}

func TestNormalize_AlwaysTargetSize(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"single pixel", 1, 1},
		{"small square", 64, 64},
		{"exact", 512, 512},
		{"large square", 2000, 2000},
		{"very wide", 10000, 1},
		{"very tall", 1, 10000},
		{"landscape", 800, 600},
		{"portrait", 300, 900},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Normalize(solidImage(tt.w, tt.h, color.NRGBA{R: 200, A: 255}), 512)
			require.NotNil(t, out)
			assert.Equal(t, image.Rect(0, 0, 512, 512), out.Image().Bounds())
			assert.Equal(t, 512, out.Size())
		})
	}
}

func TestNormalize_UpscalesSinglePixel(t *testing.T) {
	out := Normalize(solidImage(1, 1, color.NRGBA{R: 255, A: 255}), 512)

	assert.True(t, opaqueAt(out, 0, 0))
	assert.True(t, opaqueAt(out, 256, 256))
	assert.True(t, opaqueAt(out, 511, 511))
}

func TestNormalize_CentersWideImage(t *testing.T) {
	// 1000x10 scales to 512x5 and sits on rows 253..257.
	out := Normalize(solidImage(1000, 10, color.NRGBA{B: 255, A: 255}), 512)

	assert.False(t, opaqueAt(out, 256, 252))
	for y := 253; y <= 257; y++ {
		assert.True(t, opaqueAt(out, 256, y), "row %d", y)
	}
	assert.False(t, opaqueAt(out, 256, 258))

	assert.True(t, opaqueAt(out, 0, 255))
	assert.True(t, opaqueAt(out, 511, 255))
	assert.False(t, opaqueAt(out, 0, 0))
	assert.Equal(t, color.NRGBA{}, out.Image().NRGBAAt(511, 511))
}

func TestNormalize_CentersTallImage(t *testing.T) {
	// 100x200 scales to 256x512, leaving 128 transparent columns per side.
	out := Normalize(solidImage(100, 200, color.NRGBA{G: 255, A: 255}), 512)

	assert.False(t, opaqueAt(out, 127, 256))
	assert.True(t, opaqueAt(out, 128, 256))
	assert.True(t, opaqueAt(out, 383, 256))
	assert.False(t, opaqueAt(out, 384, 256))
	assert.True(t, opaqueAt(out, 256, 0))
	assert.True(t, opaqueAt(out, 256, 511))
}

func TestNormalize_ExtremeAspectKeepsOnePixel(t *testing.T) {
	out := Normalize(solidImage(1, 10000, color.NRGBA{R: 255, A: 255}), 512)

	visible := 0
	for x := 0; x < 512; x++ {
		if opaqueAt(out, x, 256) {
			visible++
		}
	}
	assert.GreaterOrEqual(t, visible, 1)
	assert.LessOrEqual(t, visible, 2)
}

func TestNormalize_ExactSizeIsUnchanged(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 512, 512))
	for y := 0; y < 512; y++ {
		for x := 0; x < 512; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 255})
		}
	}

	out := Normalize(src, 512)

	assert.Equal(t, src.Pix, out.Image().Pix)
}

func TestNormalize_NonZeroOrigin(t *testing.T) {
	src := solidImage(40, 40, color.NRGBA{R: 255, A: 255}).SubImage(image.Rect(10, 10, 30, 20))

	out := Normalize(src, 64)

	assert.Equal(t, image.Rect(0, 0, 64, 64), out.Image().Bounds())
	// 20x10 scales to 64x32, centered vertically at rows 16..47.
	assert.False(t, opaqueAt(out, 32, 15))
	assert.True(t, opaqueAt(out, 32, 16))
	assert.True(t, opaqueAt(out, 32, 47))
	assert.False(t, opaqueAt(out, 32, 48))
}

func TestNormalize_KeepsSourceTransparency(t *testing.T) {
	src := solidImage(64, 64, color.NRGBA{})
	src.SetNRGBA(32, 32, color.NRGBA{R: 255, A: 255})

	out := Normalize(src, 64)

	assert.Equal(t, color.NRGBA{}, out.Image().NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, out.Image().NRGBAAt(32, 32))
}

func TestNormalize_EmptyImage(t *testing.T) {
	out := Normalize(image.NewNRGBA(image.Rect(0, 0, 0, 0)), 512)

	assert.Equal(t, 512, out.Size())
	assert.Equal(t, color.NRGBA{}, out.Image().NRGBAAt(256, 256))
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		w, h, target int
		wantW, wantH int
	}{
		{1, 1, 512, 512, 512},
		{1000, 10, 512, 512, 5},
		{10, 1000, 512, 5, 512},
		{800, 600, 512, 512, 384},
		{10000, 1, 512, 512, 1},
		{3, 2, 512, 512, 341},
	}

	for _, tt := range tests {
		w, h := fitWithin(tt.w, tt.h, tt.target)
		assert.Equal(t, tt.wantW, w, "width for %dx%d", tt.w, tt.h)
		assert.Equal(t, tt.wantH, h, "height for %dx%d", tt.w, tt.h)
	}
}
