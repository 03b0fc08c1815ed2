// Package media encodes sticker canvases into WebP. WebPCodec drives the
// libwebp command line tools: cwebp handles still images and img2webp handles
// animations. Frames are staged as PNG files in scratch storage once per
// conversion, so the quality search only pays for the encoder run at each
// level. NativeCodec runs libwebp in-process instead.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"

	"github.com/disintegration/imaging"

	"github.com/maauso/stickerconv/internal/sticker"
	"github.com/maauso/stickerconv/internal/storage"
)

// Static errors for media operations.
var (
	// ErrToolNotFound is returned when an encoder binary cannot be located.
	ErrToolNotFound = errors.New("webp tool not found")
	// ErrNoFrames is returned when an animation is requested without frames.
	ErrNoFrames = errors.New("no frames provided")
	// ErrInvalidQuality is returned when quality is outside 0-100.
	ErrInvalidQuality = errors.New("invalid quality: must be between 0 and 100")
)

// compressionMethod is the libwebp effort level (0 fast, 6 smallest output).
const compressionMethod = "6"

// WebPCodec implements sticker.Codec with cwebp and img2webp.
type WebPCodec struct {
	cwebpPath    string
	img2webpPath string
	scratch      storage.Scratch
}

// NewWebPCodec creates a new WebPCodec staging frames in scratch.
// Empty tool paths default to "cwebp" and "img2webp" (found via PATH).
func NewWebPCodec(cwebpPath, img2webpPath string, scratch storage.Scratch) *WebPCodec {
	if cwebpPath == "" {
		cwebpPath = "cwebp"
	}
	if img2webpPath == "" {
		img2webpPath = "img2webp"
	}
	return &WebPCodec{
		cwebpPath:    cwebpPath,
		img2webpPath: img2webpPath,
		scratch:      scratch,
	}
}

// Available reports whether both encoder binaries can be executed.
func (c *WebPCodec) Available() error {
	for _, tool := range []string{c.cwebpPath, c.img2webpPath} {
		if _, err := exec.LookPath(tool); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrToolNotFound, tool, err)
		}
	}
	return nil
}

// Extension returns ".webp".
func (c *WebPCodec) Extension() string {
	return ".webp"
}

// Static stages frame and returns an encoder running cwebp.
func (c *WebPCodec) Static(ctx context.Context, frame *sticker.CanvasFrame) (sticker.Encoder, error) {
	path, err := c.stage(ctx, "still", frame)
	if err != nil {
		return nil, err
	}

	return &webpEncoder{
		codec:  c,
		tool:   c.cwebpPath,
		staged: []string{path},
		args: func(quality int, out string) []string {
			return []string{
				"-quiet",
				"-q", strconv.Itoa(quality),
				"-m", compressionMethod,
				"-alpha_q", "100",
				path,
				"-o", out,
			}
		},
	}, nil
}

// Animated stages every frame and returns an encoder running img2webp.
// The animation loops forever and each frame keeps its own duration.
func (c *WebPCodec) Animated(ctx context.Context, frames []sticker.TimedFrame) (sticker.Encoder, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}

	staged := make([]string, 0, len(frames))
	for i, f := range frames {
		path, err := c.stage(ctx, fmt.Sprintf("frame%04d", i), f.Frame)
		if err != nil {
			_ = c.scratch.CleanupTemp(context.WithoutCancel(ctx), staged)
			return nil, err
		}
		staged = append(staged, path)
	}

	durations := make([]int, len(frames))
	for i, f := range frames {
		durations[i] = f.DurationMs
	}

	return &webpEncoder{
		codec:  c,
		tool:   c.img2webpPath,
		staged: staged,
		args: func(quality int, out string) []string {
			args := []string{
				"-loop", "0",
				"-lossy",
				"-q", strconv.Itoa(quality),
				"-m", compressionMethod,
			}
			for i, path := range staged {
				args = append(args, "-d", strconv.Itoa(durations[i]), path)
			}
			return append(args, "-o", out)
		},
	}, nil
}

// stage writes frame as a PNG file in scratch storage.
func (c *WebPCodec) stage(ctx context.Context, name string, frame *sticker.CanvasFrame) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, frame.Image(), imaging.PNG); err != nil {
		return "", fmt.Errorf("encode %s png: %w", name, err)
	}
	path, err := c.scratch.SaveTemp(ctx, name, &buf)
	if err != nil {
		return "", fmt.Errorf("stage %s: %w", name, err)
	}
	return path, nil
}

// webpEncoder re-runs one tool over staged frames at different qualities.
type webpEncoder struct {
	codec  *WebPCodec
	tool   string
	staged []string
	args   func(quality int, out string) []string
}

// Encode runs the tool at quality and returns the produced bytes.
func (e *webpEncoder) Encode(ctx context.Context, quality int) ([]byte, error) {
	if quality < 0 || quality > 100 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuality, quality)
	}

	out, err := e.codec.scratch.SaveTemp(ctx, "out", bytes.NewReader(nil))
	if err != nil {
		return nil, fmt.Errorf("reserve output file: %w", err)
	}
	defer func() { _ = e.codec.scratch.CleanupTemp(context.WithoutCancel(ctx), []string{out}) }()

	if err := runTool(ctx, e.tool, e.args(quality, out)); err != nil {
		return nil, err
	}

	r, err := e.codec.scratch.LoadTemp(ctx, out)
	if err != nil {
		return nil, fmt.Errorf("open encoded file: %w", err)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read encoded file: %w", err)
	}
	if len(data) == 0 {
		return nil, &ToolError{Tool: e.tool, Args: e.args(quality, out), Err: errors.New("empty output")}
	}
	return data, nil
}

// Close removes the staged frames.
func (e *webpEncoder) Close() error {
	return e.codec.scratch.CleanupTemp(context.Background(), e.staged)
}

// runTool executes tool with the given arguments and returns an error
// containing stderr output if the command fails.
func runTool(ctx context.Context, tool string, args []string) error {
	// #nosec G204 - tool paths are set by the application, not user input
	cmd := exec.CommandContext(ctx, tool, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// Check if context was cancelled
		if ctx.Err() != nil {
			return fmt.Errorf("%s cancelled: %w", tool, ctx.Err())
		}
		return &ToolError{
			Tool:   tool,
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

// ToolError represents an error from running an encoder binary, including
// the stderr output.
type ToolError struct {
	Tool   string
	Args   []string
	Stderr string
	Err    error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s error: %v\nargs: %v\nstderr: %s", e.Tool, e.Err, e.Args, e.Stderr)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}
