package sticker

import (
	"bytes"
	"context"
	"log/slog"
)

// Converter runs the decode, normalize, trim and encode pipeline for one
// source at a time. It holds no per-conversion state, so a single Converter
// may serve concurrent conversions.
type Converter struct {
	settings Settings
	codec    Codec
	sink     Sink
	logger   *slog.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithSettings overrides the default sticker constraints.
func WithSettings(s Settings) Option {
	return func(c *Converter) {
		c.settings = s
	}
}

// NewConverter creates a Converter that encodes with codec and persists
// through sink.
func NewConverter(codec Codec, sink Sink, logger *slog.Logger, opts ...Option) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Converter{
		settings: DefaultSettings(),
		codec:    codec,
		sink:     sink,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Settings returns the constraints the converter enforces.
func (c *Converter) Settings() Settings {
	return c.settings
}

// Convert decodes src, encodes it as a sticker and writes it to the sink
// under a name derived from name. The returned error is a *DecodeError,
// *EncodeError or *WriteError. A result whose size ceiling could not be met
// is still a success, with Degraded set.
//
// Cancelling ctx does not interrupt the quality search; it only affects the
// sink write.
func (c *Converter) Convert(ctx context.Context, src []byte, name string, hint Hint) (*Result, error) {
	asset, err := Decode(src)
	if err != nil {
		return nil, err
	}

	artifact := SanitizeName(name) + c.codec.Extension()
	animated := asset.Animated()
	if hint == HintAnimated && !animated {
		c.logger.Info("source declared animated has a single frame, using static pipeline",
			slog.String("name", artifact),
		)
	}

	encodeCtx := context.WithoutCancel(ctx)
	res := &Result{Name: artifact, Animated: animated}

	var out Outcome
	if animated {
		frames := c.timedFrames(asset)
		trimmed := Trim(frames, c.settings.MinFrameDurationMs, c.settings.MaxTotalDurationMs)
		if len(trimmed) < len(frames) {
			c.logger.Warn("animation too long, trimming",
				slog.String("name", artifact),
				slog.Int("total_ms", flooredTotalMs(frames, c.settings.MinFrameDurationMs)),
				slog.Int("max_total_ms", c.settings.MaxTotalDurationMs),
				slog.Int("frames_kept", len(trimmed)),
				slog.Int("frames_dropped", len(frames)-len(trimmed)),
			)
		}

		out, err = EncodeAnimated(encodeCtx, c.codec, trimmed, c.settings.AnimatedCeilingBytes, c.settings.AnimatedLadder)
		if err != nil {
			return nil, err
		}
		res.Frames = len(trimmed)
		res.DurationMs = TotalDurationMs(trimmed)
		res.Cover = trimmed[0].Frame
	} else {
		canvas := Normalize(asset.Frames[0].Image, c.settings.TargetSize)
		out, err = EncodeStatic(encodeCtx, c.codec, canvas, c.settings.StaticCeilingBytes, c.settings.StaticLadder)
		if err != nil {
			return nil, err
		}
		res.Frames = 1
		res.Cover = canvas
	}

	path, err := c.sink.Write(ctx, artifact, bytes.NewReader(out.Data))
	if err != nil {
		return nil, &WriteError{Name: artifact, Err: err}
	}

	res.Path = path
	res.SizeBytes = out.SizeBytes
	res.Quality = out.Quality
	res.Degraded = out.Degraded

	attrs := []any{
		slog.String("name", artifact),
		slog.String("path", path),
		slog.Bool("animated", animated),
		slog.Int("size_bytes", out.SizeBytes),
		slog.Int("quality", out.Quality),
		slog.Int("frames", res.Frames),
	}
	if out.Degraded {
		c.logger.Warn("sticker exceeds size ceiling at lowest quality", attrs...)
	} else {
		c.logger.Info("sticker created", attrs...)
	}

	return res, nil
}

// timedFrames normalizes every native frame and attaches its declared
// duration, or the fallback when the source declares none.
func (c *Converter) timedFrames(asset *Asset) []TimedFrame {
	frames := make([]TimedFrame, len(asset.Frames))
	for i, f := range asset.Frames {
		d := c.settings.FallbackFrameDurationMs
		if f.HasDelay {
			d = f.DelayMs
		}
		frames[i] = TimedFrame{
			Frame:      Normalize(f.Image, c.settings.TargetSize),
			DurationMs: d,
		}
	}
	return frames
}
