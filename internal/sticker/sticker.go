// Package sticker converts decoded images into size-constrained stickers.
// It owns the canvas normalization, temporal trimming and quality search
// steps of the pipeline. Fetching source bytes and persisting the result are
// delegated to collaborators through the Codec and Sink interfaces.
package sticker

import (
	"context"
	"image"
	"io"
)

// Defaults for the WhatsApp sticker format.
const (
	DefaultTargetSize              = 512
	DefaultStaticCeilingBytes      = 100 * 1024
	DefaultAnimatedCeilingBytes    = 500 * 1024
	DefaultMinFrameDurationMs      = 8
	DefaultMaxTotalDurationMs      = 10000
	DefaultFallbackFrameDurationMs = 100
)

// DefaultStaticLadder returns the quality levels tried for static stickers.
func DefaultStaticLadder() []int {
	return []int{95, 90, 85, 80, 75, 70, 65, 60, 55}
}

// DefaultAnimatedLadder returns the quality levels tried for animated stickers.
func DefaultAnimatedLadder() []int {
	return []int{90, 80, 70, 60, 50}
}

// Settings holds the constraints a conversion must satisfy.
type Settings struct {
	// TargetSize is the edge of the square output canvas in pixels.
	TargetSize int
	// StaticCeilingBytes is the maximum encoded size for static stickers.
	StaticCeilingBytes int
	// AnimatedCeilingBytes is the maximum encoded size for animated stickers.
	AnimatedCeilingBytes int
	// MinFrameDurationMs is the floor applied to every frame duration.
	MinFrameDurationMs int
	// MaxTotalDurationMs caps the cumulative animation length.
	MaxTotalDurationMs int
	// FallbackFrameDurationMs is used when a frame declares no duration.
	FallbackFrameDurationMs int
	// StaticLadder is the descending list of qualities tried for static input.
	StaticLadder []int
	// AnimatedLadder is the descending list of qualities tried for animated input.
	AnimatedLadder []int
}

// DefaultSettings returns the WhatsApp sticker constraints.
func DefaultSettings() Settings {
	return Settings{
		TargetSize:              DefaultTargetSize,
		StaticCeilingBytes:      DefaultStaticCeilingBytes,
		AnimatedCeilingBytes:    DefaultAnimatedCeilingBytes,
		MinFrameDurationMs:      DefaultMinFrameDurationMs,
		MaxTotalDurationMs:      DefaultMaxTotalDurationMs,
		FallbackFrameDurationMs: DefaultFallbackFrameDurationMs,
		StaticLadder:            DefaultStaticLadder(),
		AnimatedLadder:          DefaultAnimatedLadder(),
	}
}

// Hint is an advisory classification supplied by the caller, typically from
// catalog metadata or content-type sniffing. The decoded frame count always
// takes precedence.
type Hint int

const (
	// HintUnknown means the caller has no opinion.
	HintUnknown Hint = iota
	// HintStatic means the source is expected to have a single frame.
	HintStatic
	// HintAnimated means the source is expected to have several frames.
	HintAnimated
)

// String returns the hint name used in logs.
func (h Hint) String() string {
	switch h {
	case HintStatic:
		return "static"
	case HintAnimated:
		return "animated"
	default:
		return "unknown"
	}
}

// HintFromBool maps a provider's animated flag to a Hint.
func HintFromBool(animated bool) Hint {
	if animated {
		return HintAnimated
	}
	return HintStatic
}

// CanvasFrame is a frame resized and centered onto a transparent square canvas.
// Its bounds always start at (0,0) and measure exactly the target size.
type CanvasFrame struct {
	img *image.NRGBA
}

// Image returns the canvas pixels. Callers must not modify them.
func (f *CanvasFrame) Image() *image.NRGBA {
	return f.img
}

// Size returns the canvas edge in pixels.
func (f *CanvasFrame) Size() int {
	return f.img.Bounds().Dx()
}

// TimedFrame pairs a canvas with its display duration.
type TimedFrame struct {
	Frame      *CanvasFrame
	DurationMs int
}

// TotalDurationMs sums the durations of frames.
func TotalDurationMs(frames []TimedFrame) int {
	total := 0
	for _, f := range frames {
		total += f.DurationMs
	}
	return total
}

// Result describes a persisted sticker.
type Result struct {
	// Name is the artifact name handed to the sink, extension included.
	Name string
	// Path is where the sink stored the artifact (file path or URL).
	Path string
	// SizeBytes is the encoded size of the artifact.
	SizeBytes int
	// Quality is the ladder level that produced the artifact.
	Quality int
	// Degraded is true when no ladder level met the size ceiling.
	Degraded bool
	// Animated reports which pipeline produced the artifact.
	Animated bool
	// Frames is the number of frames encoded.
	Frames int
	// DurationMs is the total animation length, zero for static stickers.
	DurationMs int
	// Cover is the first canvas frame, used for previews and tray icons.
	Cover *CanvasFrame
}

// Sink persists encoded artifacts.
type Sink interface {
	// Write creates or overwrites the named artifact and returns where it was stored.
	Write(ctx context.Context, name string, data io.Reader) (string, error)
}
