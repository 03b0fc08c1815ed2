// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"

	"github.com/maauso/stickerconv/internal/sticker"
)

// ErrInvalidConfig is returned when a loaded value fails validation.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port           int      `env:"PORT, default=8080" json:"port" validate:"min=1,max=65535"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS, default=*" json:"allowed_origins"`

	// Storage settings
	OutputDir string `env:"OUTPUT_DIR, default=stickers_output" json:"output_dir" validate:"required"`
	TempDir   string `env:"TEMP_DIR" json:"temp_dir"` // empty means $TMPDIR/stickerconv

	// Sticker constraints
	StickerSize            int   `env:"STICKER_SIZE, default=512" json:"sticker_size" validate:"min=16,max=4096"`
	StaticMaxBytes         int   `env:"STATIC_MAX_BYTES, default=102400" json:"static_max_bytes" validate:"gt=0"`
	AnimatedMaxBytes       int   `env:"ANIMATED_MAX_BYTES, default=512000" json:"animated_max_bytes" validate:"gt=0"`
	MinFrameDurationMs     int   `env:"MIN_FRAME_DURATION_MS, default=8" json:"min_frame_duration_ms" validate:"gt=0"`
	MaxTotalDurationMs     int   `env:"MAX_TOTAL_DURATION_MS, default=10000" json:"max_total_duration_ms" validate:"gtefield=MinFrameDurationMs"`
	DefaultFrameDurationMs int   `env:"DEFAULT_FRAME_DURATION_MS, default=100" json:"default_frame_duration_ms" validate:"gt=0"`
	StaticQualityLadder    []int `env:"STATIC_QUALITY_LADDER" json:"static_quality_ladder"`
	AnimatedQualityLadder  []int `env:"ANIMATED_QUALITY_LADDER" json:"animated_quality_ladder"`

	// Encoder: "cli" runs the libwebp binaries, "native" encodes in-process
	WebPEncoder  string `env:"WEBP_ENCODER, default=cli" json:"webp_encoder" validate:"oneof=cli native"`
	CWebPPath    string `env:"CWEBP_PATH, default=cwebp" json:"cwebp_path" validate:"required"`
	Img2WebPPath string `env:"IMG2WEBP_PATH, default=img2webp" json:"img2webp_path" validate:"required"`

	// Fetch settings
	SevenTVBaseURL  string `env:"SEVENTV_BASE_URL, default=https://7tv.io/v3" json:"seventv_base_url" validate:"required,url"`
	FetchTimeoutSec int    `env:"FETCH_TIMEOUT_SEC, default=30" json:"fetch_timeout_sec" validate:"gt=0"`
	FetchRetries    int    `env:"FETCH_RETRIES, default=3" json:"fetch_retries" validate:"min=0,max=10"`
	MaxSourceBytes  int64  `env:"MAX_SOURCE_BYTES, default=52428800" json:"max_source_bytes" validate:"gt=0"`

	// Optional Redis cache for catalog lookups
	RedisURL    string `env:"REDIS_URL" json:"-" validate:"omitempty,url"` // may embed a password
	RedisPrefix string `env:"REDIS_PREFIX, default=stickerconv" json:"redis_prefix"`

	// Optional S3 settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Prefix           string `env:"S3_PREFIX" json:"s3_prefix,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty" validate:"omitempty,url"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Batch settings
	BatchWorkers int `env:"BATCH_WORKERS, default=4" json:"batch_workers" validate:"min=1,max=64"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format" validate:"oneof=text json TEXT JSON"`
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"` // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// RedisEnabled returns true if a Redis URL is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != ""
}

// FetchTimeout returns the per-request fetch timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSec) * time.Second
}

// Load reads configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(context.Background(), envconfig.OsLookuper())
}

// LoadFrom reads configuration from lookuper, fills unset ladders with the
// WhatsApp defaults and validates the result.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if len(cfg.StaticQualityLadder) == 0 {
		cfg.StaticQualityLadder = sticker.DefaultStaticLadder()
	}
	if len(cfg.AnimatedQualityLadder) == 0 {
		cfg.AnimatedQualityLadder = sticker.DefaultAnimatedLadder()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and the quality ladders.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := sticker.ValidateLadder(c.StaticQualityLadder); err != nil {
		return fmt.Errorf("%w: STATIC_QUALITY_LADDER: %w", ErrInvalidConfig, err)
	}
	if err := sticker.ValidateLadder(c.AnimatedQualityLadder); err != nil {
		return fmt.Errorf("%w: ANIMATED_QUALITY_LADDER: %w", ErrInvalidConfig, err)
	}
	if (c.S3Bucket == "") != (c.S3Region == "") {
		return fmt.Errorf("%w: S3_BUCKET and S3_REGION must be set together", ErrInvalidConfig)
	}
	return nil
}

// Settings returns the conversion settings described by the configuration.
func (c *Config) Settings() sticker.Settings {
	return sticker.Settings{
		TargetSize:              c.StickerSize,
		StaticCeilingBytes:      c.StaticMaxBytes,
		AnimatedCeilingBytes:    c.AnimatedMaxBytes,
		MinFrameDurationMs:      c.MinFrameDurationMs,
		MaxTotalDurationMs:      c.MaxTotalDurationMs,
		FallbackFrameDurationMs: c.DefaultFrameDurationMs,
		StaticLadder:            append([]int(nil), c.StaticQualityLadder...),
		AnimatedLadder:          append([]int(nil), c.AnimatedQualityLadder...),
	}
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(c.LogLevel)}

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, OutputDir: %s, TempDir: %s, StickerSize: %d, StaticMaxBytes: %d, AnimatedMaxBytes: %d, SevenTVBaseURL: %s, Redis: %t, S3Bucket: %s, S3Region: %s, BatchWorkers: %d, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.OutputDir,
		c.TempDir,
		c.StickerSize,
		c.StaticMaxBytes,
		c.AnimatedMaxBytes,
		c.SevenTVBaseURL,
		c.RedisEnabled(),
		c.S3Bucket,
		c.S3Region,
		c.BatchWorkers,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
