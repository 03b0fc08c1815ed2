// Package storage provides scratch space for intermediate files and the
// persistent destinations for finished sticker artifacts. LocalStorage writes
// artifacts to a directory on disk; S3Storage keeps scratch files local and
// uploads artifacts to a bucket.
package storage

import (
	"context"
	"io"
)

// Scratch holds short-lived intermediate files, such as frames staged for an
// external encoder.
type Scratch interface {
	// SaveTemp saves data to a temporary file and returns the file path.
	// The name parameter is used as a hint for the filename.
	SaveTemp(ctx context.Context, name string, data io.Reader) (path string, err error)

	// LoadTemp reads a temporary file and returns a reader.
	// The caller is responsible for closing the returned ReadCloser.
	LoadTemp(ctx context.Context, path string) (io.ReadCloser, error)

	// CleanupTemp removes the specified temporary files.
	// It continues cleanup even if some files fail to delete.
	CleanupTemp(ctx context.Context, paths []string) error
}

// Storage combines scratch space with an artifact destination.
type Storage interface {
	Scratch

	// Write persists a finished artifact under name, replacing any previous
	// artifact with the same name, and returns where it was stored.
	// A partially written artifact is never visible under name.
	Write(ctx context.Context, name string, data io.Reader) (location string, err error)
}
