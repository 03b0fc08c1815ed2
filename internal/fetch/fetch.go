// Package fetch retrieves source image bytes for conversion. Sources are
// identified by a 7TV emote ID, an http(s) URL or a local file path; the
// Resolver routes each identifier to the matching Fetcher.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/maauso/stickerconv/internal/sticker"
)

// Static errors for fetch operations.
var (
	// ErrFetch is the kind of every FetchError.
	ErrFetch = errors.New("fetch: failed")
	// ErrEmptyIdentifier is returned when the identifier is blank.
	ErrEmptyIdentifier = errors.New("fetch: identifier is required")
	// ErrNotFound is returned when the source does not exist.
	ErrNotFound = errors.New("fetch: not found")
	// ErrTooLarge is returned when the source exceeds the configured size limit.
	ErrTooLarge = errors.New("fetch: source too large")
	// ErrEmptyBody is returned when the source has no content.
	ErrEmptyBody = errors.New("fetch: empty source")
	// ErrNoUsableFile is returned when a catalog entry lists no downloadable image.
	ErrNoUsableFile = errors.New("fetch: no usable file")
	// ErrNoFetcher is returned when no fetcher is configured for an identifier.
	ErrNoFetcher = errors.New("fetch: no fetcher configured for identifier")
	// ErrServerError is returned when the server returns a 5xx status code.
	ErrServerError = errors.New("fetch: server error")
	// ErrRateLimited is returned when the server returns a 429 status code.
	ErrRateLimited = errors.New("fetch: rate limited")
	// ErrRequestFailed is returned when the request fails with a non-2xx status code.
	ErrRequestFailed = errors.New("fetch: request failed")
)

// DefaultMaxBytes bounds the size of a downloaded or read source.
const DefaultMaxBytes = 50 << 20

// Source is a fetched image ready for conversion.
type Source struct {
	// Identifier is the value the source was requested with.
	Identifier string
	Data       []byte
	// Name is the display name resolved by the fetcher, not yet sanitized.
	Name string
	// Hint is the fetcher's advisory guess at whether the source is animated.
	Hint        sticker.Hint
	ContentType string
}

// Fetcher retrieves a source by identifier. Every error it returns is a
// *FetchError.
type Fetcher interface {
	Fetch(ctx context.Context, identifier string) (*Source, error)
}

// FetchError reports a source that could not be retrieved.
type FetchError struct {
	Identifier string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Identifier, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrFetch.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// wrapErr returns err as a *FetchError for identifier, leaving existing
// FetchErrors untouched.
func wrapErr(identifier string, err error) error {
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &FetchError{Identifier: identifier, Err: err}
}

// hintFor maps a MIME type to an animated hint. GIF and WebP containers may
// carry several frames; the decoder has the final word.
func hintFor(contentType string) sticker.Hint {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "gif") || strings.Contains(ct, "webp") {
		return sticker.HintAnimated
	}
	return sticker.HintStatic
}
