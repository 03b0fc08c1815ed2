package fetch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// LocalFetcher reads sources from the local filesystem.
type LocalFetcher struct {
	maxBytes int64
}

// NewLocalFetcher creates a LocalFetcher. A non-positive maxBytes uses
// DefaultMaxBytes.
func NewLocalFetcher(maxBytes int64) *LocalFetcher {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &LocalFetcher{maxBytes: maxBytes}
}

// Fetch reads the file at path. The name is the file stem and the hint is
// derived from the sniffed content type.
func (f *LocalFetcher) Fetch(ctx context.Context, path string) (*Source, error) {
	select {
	case <-ctx.Done():
		return nil, &FetchError{Identifier: path, Err: fmt.Errorf("context cancelled: %w", ctx.Err())}
	default:
	}

	if strings.TrimSpace(path) == "" {
		return nil, &FetchError{Identifier: path, Err: ErrEmptyIdentifier}
	}

	file, err := os.Open(path) // #nosec G304 - only the CLI wires a LocalFetcher; paths come from its operator
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &FetchError{Identifier: path, Err: fmt.Errorf("%w: %s", ErrNotFound, path)}
		}
		return nil, &FetchError{Identifier: path, Err: err}
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return nil, &FetchError{Identifier: path, Err: err}
	}
	if info.IsDir() {
		return nil, &FetchError{Identifier: path, Err: fmt.Errorf("fetch: %s is a directory", path)}
	}
	if info.Size() > f.maxBytes {
		return nil, &FetchError{Identifier: path, Err: fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, info.Size(), f.maxBytes)}
	}

	data, err := readLimited(file, f.maxBytes)
	if err != nil {
		return nil, &FetchError{Identifier: path, Err: err}
	}
	if len(data) == 0 {
		return nil, &FetchError{Identifier: path, Err: ErrEmptyBody}
	}

	contentType := mimetype.Detect(data).String()
	base := filepath.Base(path)

	return &Source{
		Identifier:  path,
		Data:        data,
		Name:        strings.TrimSuffix(base, filepath.Ext(base)),
		Hint:        hintFor(contentType),
		ContentType: contentType,
	}, nil
}
