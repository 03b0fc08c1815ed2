// Package bootstrap provides dependency initialization for the server and CLI.
package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/maauso/stickerconv/internal/batch"
	"github.com/maauso/stickerconv/internal/config"
	"github.com/maauso/stickerconv/internal/fetch"
	"github.com/maauso/stickerconv/internal/job"
	"github.com/maauso/stickerconv/internal/media"
	"github.com/maauso/stickerconv/internal/pack"
	"github.com/maauso/stickerconv/internal/sticker"
	"github.com/maauso/stickerconv/internal/storage"
)

// Dependencies holds every initialized component.
type Dependencies struct {
	Storage   storage.Storage
	Converter *sticker.Converter
	Fetcher   fetch.Fetcher
	Service   *job.ConvertService

	cfg        *config.Config
	logger     *slog.Logger
	localFiles bool
	closers    []io.Closer
}

// Option configures NewDependencies.
type Option func(*Dependencies)

// WithLocalFiles lets identifiers that name files on this machine be read
// from disk. Only the CLI enables it; the HTTP server never reads local paths.
func WithLocalFiles() Option {
	return func(d *Dependencies) {
		d.localFiles = true
	}
}

// NewDependencies creates and initializes all dependencies for the application.
// With the cli encoder it fails when the WebP binaries are not installed.
func NewDependencies(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Dependencies, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dependencies{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(d)
	}

	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}
	d.Storage = store

	codec, err := initCodec(cfg, store)
	if err != nil {
		return nil, err
	}

	d.Converter = sticker.NewConverter(codec, store, logger, sticker.WithSettings(cfg.Settings()))
	d.Fetcher = d.initFetcher()
	d.Service = job.NewConvertService(job.NewMemoryRepository(), d.Fetcher, d.Converter, logger)

	return d, nil
}

// NewRunner returns a batch runner over the configured fetcher and converter.
func (d *Dependencies) NewRunner(opts ...batch.Option) *batch.Runner {
	base := []batch.Option{
		batch.WithWorkers(d.cfg.BatchWorkers),
		batch.WithLogger(d.logger),
	}
	return batch.NewRunner(d.Fetcher, d.Converter, append(base, opts...)...)
}

// NewPackBuilder returns a pack builder writing next to the stickers.
func (d *Dependencies) NewPackBuilder() *pack.Builder {
	return pack.NewBuilder(d.Storage, d.logger)
}

// Close releases external connections.
func (d *Dependencies) Close() error {
	var errs []error
	for _, c := range d.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func (d *Dependencies) initFetcher() fetch.Fetcher {
	cfg := d.cfg
	transport := []fetch.Option{
		fetch.WithTimeout(cfg.FetchTimeout()),
		fetch.WithMaxRetries(cfg.FetchRetries),
		fetch.WithMaxBytes(cfg.MaxSourceBytes),
	}

	var cache fetch.EmoteCache = fetch.NewMemoryCache(fetch.EmoteCacheTTL)
	if cfg.RedisEnabled() {
		redisCache, err := fetch.NewRedisCache(cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			d.logger.Warn("redis unavailable, using in-memory emote cache",
				slog.String("error", err.Error()),
			)
		} else {
			d.logger.Info("redis emote cache configured", slog.String("prefix", cfg.RedisPrefix))
			cache = redisCache
			d.closers = append(d.closers, redisCache)
		}
	}

	catalog := fetch.NewSevenTVClient(
		fetch.WithBaseURL(cfg.SevenTVBaseURL),
		fetch.WithCache(cache),
		fetch.WithLogger(d.logger),
		fetch.WithTransport(transport...),
	)

	var local fetch.Fetcher
	if d.localFiles {
		local = fetch.NewLocalFetcher(cfg.MaxSourceBytes)
	}

	return fetch.NewResolver(fetch.NewHTTPFetcher(transport...), local, catalog)
}

// initCodec selects the WebP encoder named by the configuration.
func initCodec(cfg *config.Config, scratch storage.Scratch) (sticker.Codec, error) {
	if cfg.WebPEncoder == "native" {
		return media.NewNativeCodec(), nil
	}
	codec := media.NewWebPCodec(cfg.CWebPPath, cfg.Img2WebPPath, scratch)
	if err := codec.Available(); err != nil {
		return nil, fmt.Errorf("webp encoder: %w", err)
	}
	return codec, nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Prefix:          cfg.S3Prefix,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(cfg.TempDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
			slog.String("prefix", cfg.S3Prefix),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.TempDir, cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("temp_dir", localStore.TempDir()),
		slog.String("output_dir", localStore.OutputDir()),
	)
	return localStore, nil
}
