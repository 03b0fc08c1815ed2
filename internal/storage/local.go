package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultOutputDir is where artifacts are written when no directory is configured.
const DefaultOutputDir = "stickers_output"

// ErrInvalidName is returned when an artifact name is empty or would escape
// the output directory.
var ErrInvalidName = errors.New("invalid artifact name")

// LocalStorage implements the Storage interface using local disk.
// Temporary files live in tempDir and artifacts in outputDir.
type LocalStorage struct {
	tempDir   string
	outputDir string
}

// NewLocalStorage creates a new LocalStorage instance.
// If tempDir is empty, a "stickerconv" directory under os.TempDir() is used.
// If outputDir is empty, DefaultOutputDir is used.
// Both directories are created if they don't exist.
func NewLocalStorage(tempDir, outputDir string) (*LocalStorage, error) {
	if tempDir == "" {
		tempDir = defaultTempDir()
	}
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}

	if err := os.MkdirAll(tempDir, 0750); err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	return &LocalStorage{tempDir: tempDir, outputDir: outputDir}, nil
}

// TempDir returns the temporary directory path.
func (s *LocalStorage) TempDir() string {
	return s.tempDir
}

// OutputDir returns the artifact directory path.
func (s *LocalStorage) OutputDir() string {
	return s.outputDir
}

// SaveTemp saves data to a temporary file and returns the file path.
// The name is used as a base for the filename with a unique suffix.
func (s *LocalStorage) SaveTemp(ctx context.Context, name string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	f, err := os.CreateTemp(s.tempDir, name+"_*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	fileName := f.Name()
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(fileName)
		return "", fmt.Errorf("write temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(fileName)
		return "", fmt.Errorf("close temp file: %w", err)
	}

	return fileName, nil
}

// LoadTemp reads a temporary file and returns a reader.
// The caller is responsible for closing the returned ReadCloser.
func (s *LocalStorage) LoadTemp(ctx context.Context, path string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	f, err := os.Open(path) // #nosec G304 - path is provided by trusted caller
	if err != nil {
		return nil, fmt.Errorf("open temp file: %w", err)
	}

	return f, nil
}

// CleanupTemp removes the specified temporary files.
// It continues cleanup even if some files fail to delete,
// returning the first error encountered.
func (s *LocalStorage) CleanupTemp(ctx context.Context, paths []string) error {
	var firstErr error
	for _, p := range paths {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = fmt.Errorf("remove temp file %s: %w", p, err)
			}
		}
	}
	return firstErr
}

// Write stores data as outputDir/name. The content is first written to a
// hidden temporary file in the same directory and then renamed into place,
// so readers see either the previous artifact or the complete new one.
func (s *LocalStorage) Write(ctx context.Context, name string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	if err := validateName(name); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.outputDir, 0750); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	f, err := os.CreateTemp(s.outputDir, "."+name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create artifact file: %w", err)
	}

	tmpName := f.Name()
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write artifact file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close artifact file: %w", err)
	}

	// #nosec G302 - artifacts are meant to be shared with other tools
	if err := os.Chmod(tmpName, 0644); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("chmod artifact file: %w", err)
	}

	final := filepath.Join(s.outputDir, name)
	if err := os.Rename(tmpName, final); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("rename artifact file: %w", err)
	}

	return final, nil
}

func defaultTempDir() string {
	return filepath.Join(os.TempDir(), "stickerconv")
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
