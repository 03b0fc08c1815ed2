package sticker

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Typed errors below match them through errors.Is.
var (
	// ErrDecode is the kind of every DecodeError.
	ErrDecode = errors.New("sticker: decode failed")
	// ErrEncode is the kind of every EncodeError.
	ErrEncode = errors.New("sticker: encode failed")
	// ErrWrite is the kind of every WriteError.
	ErrWrite = errors.New("sticker: write failed")
	// ErrInvalidLadder is returned by ValidateLadder when a quality ladder is
	// empty, out of range or not strictly descending. The encode functions
	// wrap it in an EncodeError.
	ErrInvalidLadder = errors.New("sticker: invalid quality ladder")
	// ErrNoFrames is wrapped in an EncodeError when an animated encode is
	// requested without frames.
	ErrNoFrames = errors.New("sticker: no frames to encode")
)

// DecodeError reports source bytes that could not be decoded into frames.
type DecodeError struct {
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("sticker: decode %s: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("sticker: decode: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrDecode.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// NoQuality marks an EncodeError raised before any quality level was tried.
const NoQuality = -1

// EncodeError reports a codec failure at a given quality level, or an encode
// request that could not start (Quality is NoQuality). It is never used to
// signal that the output was too large.
type EncodeError struct {
	Quality int
	Err     error
}

func (e *EncodeError) Error() string {
	if e.Quality == NoQuality {
		return fmt.Sprintf("sticker: encode: %v", e.Err)
	}
	return fmt.Sprintf("sticker: encode at quality %d: %v", e.Quality, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrEncode.
func (e *EncodeError) Is(target error) bool {
	return target == ErrEncode
}

// WriteError reports a sink failure while persisting an artifact.
type WriteError struct {
	Name string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("sticker: write %s: %v", e.Name, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrWrite.
func (e *WriteError) Is(target error) bool {
	return target == ErrWrite
}
