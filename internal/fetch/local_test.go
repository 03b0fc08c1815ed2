package fetch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/stickerconv/internal/sticker"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestLocalFetcher_Fetch(t *testing.T) {
	f := NewLocalFetcher(0)

	t.Run("gif file", func(t *testing.T) {
		path := writeFile(t, "party parrot.gif", gifBytes)

		src, err := f.Fetch(context.Background(), path)

		require.NoError(t, err)
		assert.Equal(t, "party parrot", src.Name)
		assert.Equal(t, "image/gif", src.ContentType)
		assert.Equal(t, sticker.HintAnimated, src.Hint)
		assert.Equal(t, path, src.Identifier)
	})

	t.Run("png file", func(t *testing.T) {
		src, err := f.Fetch(context.Background(), writeFile(t, "cat.png", pngBytes))

		require.NoError(t, err)
		assert.Equal(t, "cat", src.Name)
		assert.Equal(t, sticker.HintStatic, src.Hint)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), filepath.Join(t.TempDir(), "nope.png"))

		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, err, ErrFetch)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), t.TempDir())

		assert.ErrorIs(t, err, ErrFetch)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), writeFile(t, "empty.png", nil))

		assert.ErrorIs(t, err, ErrEmptyBody)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := f.Fetch(ctx, writeFile(t, "cat.png", pngBytes))

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLocalFetcher_SizeLimit(t *testing.T) {
	f := NewLocalFetcher(4)

	_, err := f.Fetch(context.Background(), writeFile(t, "big.png", pngBytes))

	assert.ErrorIs(t, err, ErrTooLarge)
}
