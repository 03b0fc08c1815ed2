package bootstrap

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/stickerconv/internal/config"
	"github.com/maauso/stickerconv/internal/fetch"
	"github.com/maauso/stickerconv/internal/media"
	"github.com/maauso/stickerconv/internal/storage"
)

func testConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	base := map[string]string{
		"OUTPUT_DIR": filepath.Join(dir, "out"),
		"TEMP_DIR":   filepath.Join(dir, "tmp"),
	}
	for k, v := range env {
		base[k] = v
	}
	cfg, err := config.LoadFrom(context.Background(), envconfig.MapLookuper(base))
	require.NoError(t, err)
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestInitStorage_Local(t *testing.T) {
	cfg := testConfig(t, nil)

	store, err := initStorage(cfg, quietLogger())

	require.NoError(t, err)
	local, ok := store.(*storage.LocalStorage)
	require.True(t, ok)
	assert.Equal(t, cfg.OutputDir, local.OutputDir())
	assert.DirExists(t, cfg.OutputDir)
	assert.DirExists(t, cfg.TempDir)
}

func TestNewDependencies_MissingEncoder(t *testing.T) {
	cfg := testConfig(t, map[string]string{"CWEBP_PATH": "/nonexistent/cwebp"})

	_, err := NewDependencies(cfg, quietLogger())

	assert.ErrorIs(t, err, media.ErrToolNotFound)
}

func TestNewDependencies_NativeEncoder(t *testing.T) {
	cfg := testConfig(t, map[string]string{"WEBP_ENCODER": "native", "CWEBP_PATH": "/nonexistent/cwebp"})

	deps, err := NewDependencies(cfg, quietLogger())
	require.NoError(t, err)
	defer deps.Close()

	assert.Equal(t, cfg.Settings(), deps.Converter.Settings())
	assert.NotNil(t, deps.Service)
}

func TestNewDependencies_LocalFiles(t *testing.T) {
	cfg := testConfig(t, map[string]string{"WEBP_ENCODER": "native"})

	server, err := NewDependencies(cfg, quietLogger())
	require.NoError(t, err)
	defer server.Close()
	resolver, ok := server.Fetcher.(*fetch.Resolver)
	require.True(t, ok)
	assert.Nil(t, resolver.Local)

	cli, err := NewDependencies(cfg, quietLogger(), WithLocalFiles())
	require.NoError(t, err)
	defer cli.Close()
	resolver, ok = cli.Fetcher.(*fetch.Resolver)
	require.True(t, ok)
	assert.NotNil(t, resolver.Local)
}

func TestNewDependencies_Wiring(t *testing.T) {
	for _, tool := range []string{"cwebp", "img2webp"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not installed", tool)
		}
	}
	// An unreachable Redis falls back to the in-memory cache.
	cfg := testConfig(t, map[string]string{"REDIS_URL": "redis://127.0.0.1:1/0", "BATCH_WORKERS": "2"})

	deps, err := NewDependencies(cfg, quietLogger())
	require.NoError(t, err)
	defer deps.Close()

	assert.NotNil(t, deps.Service)
	assert.IsType(t, &fetch.Resolver{}, deps.Fetcher)
	assert.Equal(t, cfg.Settings(), deps.Converter.Settings())
	assert.NotNil(t, deps.NewRunner())
	assert.NotNil(t, deps.NewPackBuilder())
	assert.NoError(t, deps.Close())
}
