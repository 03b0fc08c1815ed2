package sticker

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var errCodecFailure = errors.New("codec exploded")

// fakeCodec returns deterministic payloads whose size is a function of the
// requested quality.
type fakeCodec struct {
	mu         sync.Mutex
	sizeFor    func(quality int) int
	failAt     int
	prepareErr error

	staticCalls   int
	animatedCalls int
	frames        []TimedFrame
	encoded       []int
	closed        int
}

func (c *fakeCodec) Extension() string { return ".webp" }

func (c *fakeCodec) Static(_ context.Context, frame *CanvasFrame) (Encoder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.staticCalls++
	if c.prepareErr != nil {
		return nil, c.prepareErr
	}
	c.frames = []TimedFrame{{Frame: frame}}
	return &fakeEncoder{codec: c}, nil
}

func (c *fakeCodec) Animated(_ context.Context, frames []TimedFrame) (Encoder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.animatedCalls++
	if c.prepareErr != nil {
		return nil, c.prepareErr
	}
	c.frames = frames
	return &fakeEncoder{codec: c}, nil
}

type fakeEncoder struct {
	codec *fakeCodec
}

func (e *fakeEncoder) Encode(ctx context.Context, quality int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := e.codec
	c.mu.Lock()
	defer c.mu.Unlock()
	c.encoded = append(c.encoded, quality)
	if c.failAt != 0 && c.failAt == quality {
		return nil, errCodecFailure
	}
	size := 16
	if c.sizeFor != nil {
		size = c.sizeFor(quality)
	}
	return bytes.Repeat([]byte{byte(quality)}, size), nil
}

func (e *fakeEncoder) Close() error {
	e.codec.mu.Lock()
	defer e.codec.mu.Unlock()
	e.codec.closed++
	return nil
}

// memorySink keeps written artifacts in memory.
type memorySink struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func newMemorySink() *memorySink {
	return &memorySink{files: make(map[string][]byte)}
}

func (s *memorySink) Write(_ context.Context, name string, data io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = b
	return "mem://" + name, nil
}

func solidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// encodeGIF builds an n-frame GIF whose frames alternate red and blue and all
// declare delayCs hundredths of a second.
func encodeGIF(t *testing.T, n, size, delayCs int) []byte {
	t.Helper()
	palette := color.Palette{color.RGBA{R: 255, A: 255}, color.RGBA{B: 255, A: 255}}
	g := &gif.GIF{}
	for i := 0; i < n; i++ {
		p := image.NewPaletted(image.Rect(0, 0, size, size), palette)
		idx := uint8(i % 2)
		for j := range p.Pix {
			p.Pix[j] = idx
		}
		g.Image = append(g.Image, p)
		g.Delay = append(g.Delay, delayCs)
	}
	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, g))
	return buf.Bytes()
}

func canvasOf(t *testing.T, size int) *CanvasFrame {
	t.Helper()
	return Normalize(solidImage(size, size, color.NRGBA{G: 255, A: 255}), size)
}
