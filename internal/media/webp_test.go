package media

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/webp"

	"github.com/maauso/stickerconv/internal/sticker"
	"github.com/maauso/stickerconv/internal/storage"
)

// skipIfNoWebPTools skips the test if cwebp or img2webp is not available.
func skipIfNoWebPTools(t *testing.T) {
	t.Helper()
	for _, tool := range []string{"cwebp", "img2webp"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not found in PATH, skipping test", tool)
		}
	}
}

func newScratch(t *testing.T) *storage.LocalStorage {
	t.Helper()
	dir := t.TempDir()
	s, err := storage.NewLocalStorage(filepath.Join(dir, "tmp"), filepath.Join(dir, "out"))
	require.NoError(t, err)
	return s
}

func testCanvas(size int, c color.Color) *sticker.CanvasFrame {
	return sticker.Normalize(imaging.New(size/2, size, c), size)
}

func scratchEntries(t *testing.T, s *storage.LocalStorage) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(s.TempDir())
	require.NoError(t, err)
	return entries
}

func TestNewWebPCodec(t *testing.T) {
	t.Run("default paths", func(t *testing.T) {
		c := NewWebPCodec("", "", nil)
		assert.Equal(t, "cwebp", c.cwebpPath)
		assert.Equal(t, "img2webp", c.img2webpPath)
		assert.Equal(t, ".webp", c.Extension())
	})

	t.Run("custom paths", func(t *testing.T) {
		c := NewWebPCodec("/opt/webp/cwebp", "/opt/webp/img2webp", nil)
		assert.Equal(t, "/opt/webp/cwebp", c.cwebpPath)
		assert.Equal(t, "/opt/webp/img2webp", c.img2webpPath)
	})
}

func TestWebPCodec_Available_MissingTool(t *testing.T) {
	c := NewWebPCodec("/nonexistent/cwebp", "/nonexistent/img2webp", nil)

	err := c.Available()

	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestWebPCodec_AnimatedArguments(t *testing.T) {
	scratch := newScratch(t)
	c := NewWebPCodec("", "", scratch)
	frames := []sticker.TimedFrame{
		{Frame: testCanvas(16, color.NRGBA{R: 255, A: 255}), DurationMs: 40},
		{Frame: testCanvas(16, color.NRGBA{B: 255, A: 255}), DurationMs: 120},
	}

	enc, err := c.Animated(context.Background(), frames)
	require.NoError(t, err)
	defer func() { _ = enc.Close() }()

	we := enc.(*webpEncoder)
	require.Len(t, we.staged, 2)

	args := we.args(70, "out.webp")
	assert.Equal(t, []string{
		"-loop", "0",
		"-lossy",
		"-q", "70",
		"-m", "6",
		"-d", "40", we.staged[0],
		"-d", "120", we.staged[1],
		"-o", "out.webp",
	}, args)
}

func TestWebPCodec_StagesPNGAndCleansUp(t *testing.T) {
	scratch := newScratch(t)
	c := NewWebPCodec("", "", scratch)

	enc, err := c.Static(context.Background(), testCanvas(16, color.NRGBA{G: 255, A: 255}))
	require.NoError(t, err)

	staged := enc.(*webpEncoder).staged
	require.Len(t, staged, 1)
	img, err := imaging.Open(staged[0])
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())

	require.NoError(t, enc.Close())
	assert.Empty(t, scratchEntries(t, scratch))
}

func TestWebPCodec_AnimatedNoFrames(t *testing.T) {
	c := NewWebPCodec("", "", newScratch(t))

	_, err := c.Animated(context.Background(), nil)

	assert.ErrorIs(t, err, ErrNoFrames)
}

func TestWebPEncoder_ToolFailure(t *testing.T) {
	scratch := newScratch(t)
	c := NewWebPCodec("/nonexistent/cwebp", "", scratch)

	enc, err := c.Static(context.Background(), testCanvas(16, color.NRGBA{A: 255}))
	require.NoError(t, err)
	defer func() { _ = enc.Close() }()

	_, err = enc.Encode(context.Background(), 80)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "/nonexistent/cwebp", toolErr.Tool)
	assert.Contains(t, toolErr.Args, "80")
}

func TestWebPEncoder_InvalidQuality(t *testing.T) {
	scratch := newScratch(t)
	c := NewWebPCodec("", "", scratch)

	enc, err := c.Static(context.Background(), testCanvas(16, color.NRGBA{A: 255}))
	require.NoError(t, err)
	defer func() { _ = enc.Close() }()

	_, err = enc.Encode(context.Background(), 101)

	assert.True(t, errors.Is(err, ErrInvalidQuality))
}

func TestWebPEncoder_StaticRoundTrip(t *testing.T) {
	skipIfNoWebPTools(t)

	scratch := newScratch(t)
	c := NewWebPCodec("", "", scratch)

	enc, err := c.Static(context.Background(), testCanvas(512, color.NRGBA{R: 200, G: 40, A: 255}))
	require.NoError(t, err)

	high, err := enc.Encode(context.Background(), 95)
	require.NoError(t, err)
	low, err := enc.Encode(context.Background(), 10)
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	cfg, err := webp.DecodeConfig(bytes.NewReader(high))
	require.NoError(t, err)
	assert.Equal(t, 512, cfg.Width)
	assert.Equal(t, 512, cfg.Height)
	assert.LessOrEqual(t, len(low), len(high))
	assert.Empty(t, scratchEntries(t, scratch))
}

func TestWebPEncoder_AnimatedRoundTrip(t *testing.T) {
	skipIfNoWebPTools(t)

	scratch := newScratch(t)
	c := NewWebPCodec("", "", scratch)
	frames := []sticker.TimedFrame{
		{Frame: testCanvas(64, color.NRGBA{R: 255, A: 255}), DurationMs: 100},
		{Frame: testCanvas(64, color.NRGBA{B: 255, A: 255}), DurationMs: 100},
	}

	out, err := sticker.EncodeAnimated(context.Background(), c, frames, 500*1024, sticker.DefaultAnimatedLadder())
	require.NoError(t, err)

	assert.Equal(t, "RIFF", string(out.Data[:4]))
	assert.Equal(t, "WEBP", string(out.Data[8:12]))
	assert.True(t, bytes.Contains(out.Data, []byte("ANIM")))
	assert.Equal(t, 90, out.Quality)
	assert.Empty(t, scratchEntries(t, scratch))
}

func TestRunTool_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runTool(ctx, "sleep", []string{"1"})

	assert.ErrorIs(t, err, context.Canceled)
}
