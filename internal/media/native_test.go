package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/gen2brain/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/stickerconv/internal/sticker"
)

func TestNativeCodec_Static(t *testing.T) {
	c := NewNativeCodec()
	assert.Equal(t, ".webp", c.Extension())

	enc, err := c.Static(context.Background(), testCanvas(64, color.NRGBA{R: 200, A: 255}))
	require.NoError(t, err)
	defer enc.Close()

	high, err := enc.Encode(context.Background(), 95)
	require.NoError(t, err)
	low, err := enc.Encode(context.Background(), 5)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(low), len(high))

	img, err := webp.Decode(bytes.NewReader(high))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds())
}

func TestNativeCodec_Animated(t *testing.T) {
	frames := []sticker.TimedFrame{
		{Frame: testCanvas(32, color.NRGBA{R: 255, A: 255}), DurationMs: 80},
		{Frame: testCanvas(32, color.NRGBA{B: 255, A: 255}), DurationMs: 250},
	}

	enc, err := NewNativeCodec().Animated(context.Background(), frames)
	require.NoError(t, err)
	defer enc.Close()

	data, err := enc.Encode(context.Background(), 75)
	require.NoError(t, err)

	anim, err := webp.DecodeAll(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, anim.Image, 2)
	assert.Equal(t, []int{80, 250}, anim.Delay)
}

func TestNativeCodec_Errors(t *testing.T) {
	_, err := NewNativeCodec().Animated(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoFrames)

	enc, err := NewNativeCodec().Static(context.Background(), testCanvas(16, color.Black))
	require.NoError(t, err)
	_, err = enc.Encode(context.Background(), 101)
	assert.ErrorIs(t, err, ErrInvalidQuality)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = enc.Encode(ctx, 50)
	assert.ErrorIs(t, err, context.Canceled)
}
