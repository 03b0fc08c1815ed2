package sticker

import (
	"context"
	"fmt"
)

// Codec produces the target image format. Preparing an Encoder once per
// conversion lets implementations stage frames before the quality search
// re-encodes them at several levels.
type Codec interface {
	// Extension returns the canonical file extension including the dot.
	Extension() string
	// Static prepares an encoder for a single canvas frame.
	Static(ctx context.Context, frame *CanvasFrame) (Encoder, error)
	// Animated prepares an encoder for an ordered, looping frame sequence.
	Animated(ctx context.Context, frames []TimedFrame) (Encoder, error)
}

// Encoder encodes prepared content at a given quality (0-100).
type Encoder interface {
	Encode(ctx context.Context, quality int) ([]byte, error)
	// Close releases anything staged by the codec.
	Close() error
}

// Attempt is one trial encode of the quality search.
type Attempt struct {
	Quality   int
	SizeBytes int
	Data      []byte
}

// Outcome is the accepted attempt of a quality search.
type Outcome struct {
	Data      []byte
	Quality   int
	SizeBytes int
	// Degraded is true when no ladder level fit the ceiling and the lowest
	// level was accepted anyway.
	Degraded bool
}

// ValidateLadder checks that ladder is non-empty, strictly descending and
// within 0-100.
func ValidateLadder(ladder []int) error {
	if len(ladder) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidLadder)
	}
	for i, q := range ladder {
		if q < 0 || q > 100 {
			return fmt.Errorf("%w: level %d out of range", ErrInvalidLadder, q)
		}
		if i > 0 && q >= ladder[i-1] {
			return fmt.Errorf("%w: %d does not follow %d", ErrInvalidLadder, q, ladder[i-1])
		}
	}
	return nil
}

// SearchQuality walks ladder from its highest level and returns the first
// attempt whose size is at most ceilingBytes. When no level fits, the attempt
// at the lowest level is returned with Degraded set. A codec failure at any
// level aborts the search with an *EncodeError, as does an invalid ladder.
func SearchQuality(ctx context.Context, enc Encoder, ceilingBytes int, ladder []int) (Outcome, error) {
	if err := ValidateLadder(ladder); err != nil {
		return Outcome{}, &EncodeError{Quality: NoQuality, Err: err}
	}

	var last Attempt
	for _, q := range ladder {
		data, err := enc.Encode(ctx, q)
		if err != nil {
			return Outcome{}, &EncodeError{Quality: q, Err: err}
		}
		last = Attempt{Quality: q, SizeBytes: len(data), Data: data}
		if last.SizeBytes <= ceilingBytes {
			return Outcome{Data: last.Data, Quality: last.Quality, SizeBytes: last.SizeBytes}, nil
		}
	}

	// The ladder is strictly descending, so the last attempt is the lowest
	// level. Encoding is deterministic; re-running it would yield the same bytes.
	return Outcome{Data: last.Data, Quality: last.Quality, SizeBytes: last.SizeBytes, Degraded: true}, nil
}

// EncodeStatic encodes a single canvas under ceilingBytes using ladder.
func EncodeStatic(ctx context.Context, codec Codec, frame *CanvasFrame, ceilingBytes int, ladder []int) (Outcome, error) {
	if err := ValidateLadder(ladder); err != nil {
		return Outcome{}, &EncodeError{Quality: NoQuality, Err: err}
	}
	enc, err := codec.Static(ctx, frame)
	if err != nil {
		return Outcome{}, &EncodeError{Quality: ladder[0], Err: err}
	}
	return searchAndClose(ctx, enc, ceilingBytes, ladder)
}

// EncodeAnimated encodes a looping animation under ceilingBytes using ladder.
// Frame order and durations are passed to the codec unchanged.
func EncodeAnimated(ctx context.Context, codec Codec, frames []TimedFrame, ceilingBytes int, ladder []int) (Outcome, error) {
	if len(frames) == 0 {
		return Outcome{}, &EncodeError{Quality: NoQuality, Err: ErrNoFrames}
	}
	if err := ValidateLadder(ladder); err != nil {
		return Outcome{}, &EncodeError{Quality: NoQuality, Err: err}
	}
	enc, err := codec.Animated(ctx, frames)
	if err != nil {
		return Outcome{}, &EncodeError{Quality: ladder[0], Err: err}
	}
	return searchAndClose(ctx, enc, ceilingBytes, ladder)
}

func searchAndClose(ctx context.Context, enc Encoder, ceilingBytes int, ladder []int) (Outcome, error) {
	defer func() { _ = enc.Close() }()
	return SearchQuality(ctx, enc, ceilingBytes, ladder)
}
