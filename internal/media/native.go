package media

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/gen2brain/webp"

	"github.com/maauso/stickerconv/internal/sticker"
)

// NativeCodec implements sticker.Codec in-process with the libwebp build
// embedded in github.com/gen2brain/webp. It needs no external tools and no
// scratch storage.
type NativeCodec struct{}

// NewNativeCodec creates a NativeCodec.
func NewNativeCodec() *NativeCodec {
	return &NativeCodec{}
}

// Extension returns ".webp".
func (c *NativeCodec) Extension() string {
	return ".webp"
}

// Static returns an encoder for a single canvas.
func (c *NativeCodec) Static(_ context.Context, frame *sticker.CanvasFrame) (sticker.Encoder, error) {
	return &nativeEncoder{images: []image.Image{frame.Image()}}, nil
}

// Animated returns an encoder for a looping animation that keeps each frame's
// duration.
func (c *NativeCodec) Animated(_ context.Context, frames []sticker.TimedFrame) (sticker.Encoder, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}

	enc := &nativeEncoder{
		images:    make([]image.Image, len(frames)),
		durations: make([]int, len(frames)),
		animated:  true,
	}
	for i, f := range frames {
		enc.images[i] = f.Frame.Image()
		enc.durations[i] = f.DurationMs
	}
	return enc, nil
}

type nativeEncoder struct {
	images    []image.Image
	durations []int
	animated  bool
}

// Encode runs libwebp at quality and returns the produced bytes.
func (e *nativeEncoder) Encode(ctx context.Context, quality int) ([]byte, error) {
	if quality < 0 || quality > 100 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuality, quality)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := webp.Options{Quality: quality, Method: 6}
	var buf bytes.Buffer
	if e.animated {
		err := webp.EncodeAll(&buf, &webp.WEBP{Image: e.images, Delay: e.durations}, opts)
		if err != nil {
			return nil, fmt.Errorf("encode animation: %w", err)
		}
	} else {
		if err := webp.Encode(&buf, e.images[0], opts); err != nil {
			return nil, fmt.Errorf("encode still: %w", err)
		}
	}
	return buf.Bytes(), nil
}

func (e *nativeEncoder) Close() error {
	return nil
}
