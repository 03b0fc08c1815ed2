// Package pack groups converted stickers into WhatsApp sticker packs and
// writes their tray icons and contents.json manifest.
package pack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/maauso/stickerconv/internal/sticker"
)

const (
	// MinStickers is the smallest pack WhatsApp accepts.
	MinStickers = 3
	// MaxStickers is the largest pack WhatsApp accepts.
	MaxStickers = 30
	// TrayIconSize is the edge of the tray icon in pixels.
	TrayIconSize = 96
	// ManifestName is the file name of the pack manifest.
	ManifestName = "contents.json"
	// DefaultEmoji is assigned to stickers without an explicit emoji.
	DefaultEmoji = "🙂"
)

var (
	// ErrNotEnoughStickers is returned when no group reaches MinStickers.
	ErrNotEnoughStickers = errors.New("pack: not enough stickers for a pack")
	// ErrNameRequired is returned when Options.Name is empty.
	ErrNameRequired = errors.New("pack: name is required")
	// ErrMissingCover is returned when a pack's first sticker has no cover frame.
	ErrMissingCover = errors.New("pack: sticker has no cover frame")
)

// Options describes the packs to build.
type Options struct {
	// Name is the display name; numbered when a group spans several packs.
	Name string
	// Publisher is shown under the pack name.
	Publisher string
	// Emojis are attached to every sticker. Defaults to DefaultEmoji.
	Emojis []string
}

// StickerEntry is one sticker in a pack manifest.
type StickerEntry struct {
	ImageFile string   `json:"image_file"`
	Emojis    []string `json:"emojis"`
}

// StickerPack is a pack as described in contents.json.
type StickerPack struct {
	Identifier              string         `json:"identifier"`
	Name                    string         `json:"name"`
	Publisher               string         `json:"publisher"`
	TrayImageFile           string         `json:"tray_image_file"`
	ImageDataVersion        string         `json:"image_data_version"`
	AvoidCache              bool           `json:"avoid_cache"`
	PublisherEmail          string         `json:"publisher_email"`
	PublisherWebsite        string         `json:"publisher_website"`
	PrivacyPolicyWebsite    string         `json:"privacy_policy_website"`
	LicenseAgreementWebsite string         `json:"license_agreement_website"`
	AnimatedStickerPack     bool           `json:"animated_sticker_pack"`
	Stickers                []StickerEntry `json:"stickers"`
}

// Manifest is the contents.json document.
type Manifest struct {
	AndroidPlayStoreLink string        `json:"android_play_store_link"`
	IOSAppStoreLink      string        `json:"ios_app_store_link"`
	StickerPacks         []StickerPack `json:"sticker_packs"`
}

// Outcome describes what Build wrote.
type Outcome struct {
	Manifest         Manifest
	ManifestLocation string
	// TrayLocations maps pack identifiers to where their tray icon was stored.
	TrayLocations map[string]string
	// Skipped lists stickers left out because their group was too small.
	Skipped []string
}

// Builder writes packs through a sticker sink.
type Builder struct {
	sink   sticker.Sink
	logger *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(sink sticker.Sink, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{sink: sink, logger: logger}
}

// Build splits results into static and animated groups, chunks each group
// into packs (see Chunk) and writes one tray icon per pack plus a single
// manifest. A group with fewer than MinStickers stickers is skipped.
func (b *Builder) Build(ctx context.Context, results []*sticker.Result, opts Options) (*Outcome, error) {
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	emojis := opts.Emojis
	if len(emojis) == 0 {
		emojis = []string{DefaultEmoji}
	}
	slug := sticker.SanitizeName(name)

	var static, animated []*sticker.Result
	for _, r := range results {
		if r == nil {
			continue
		}
		if r.Animated {
			animated = append(animated, r)
		} else {
			static = append(static, r)
		}
	}

	out := &Outcome{
		Manifest:      Manifest{StickerPacks: []StickerPack{}},
		TrayLocations: map[string]string{},
	}

	groups := []struct {
		kind     string
		animated bool
		items    []*sticker.Result
	}{
		{"static", false, static},
		{"animated", true, animated},
	}
	for _, g := range groups {
		chunks, skipped := Chunk(g.items)
		for _, r := range skipped {
			out.Skipped = append(out.Skipped, r.Name)
		}
		if len(skipped) > 0 {
			b.logger.Warn("stickers left out of packs",
				slog.String("kind", g.kind),
				slog.Int("count", len(skipped)),
			)
		}

		for i, chunk := range chunks {
			id := slug + "_" + g.kind
			display := name
			if g.animated {
				display += " (animated)"
			}
			if len(chunks) > 1 {
				id += "_" + strconv.Itoa(i+1)
				display += " " + strconv.Itoa(i+1)
			}

			tray := "tray_" + id + ".png"
			location, err := b.writeTray(ctx, tray, chunk[0])
			if err != nil {
				return nil, err
			}
			out.TrayLocations[id] = location

			p := StickerPack{
				Identifier:          id,
				Name:                display,
				Publisher:           opts.Publisher,
				TrayImageFile:       tray,
				ImageDataVersion:    "1",
				AnimatedStickerPack: g.animated,
				Stickers:            make([]StickerEntry, 0, len(chunk)),
			}
			for _, r := range chunk {
				p.Stickers = append(p.Stickers, StickerEntry{ImageFile: r.Name, Emojis: emojis})
			}
			out.Manifest.StickerPacks = append(out.Manifest.StickerPacks, p)
		}
	}

	if len(out.Manifest.StickerPacks) == 0 {
		return nil, fmt.Errorf("%w: need %d of the same kind, got %d static and %d animated",
			ErrNotEnoughStickers, MinStickers, len(static), len(animated))
	}

	data, err := json.MarshalIndent(out.Manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	out.ManifestLocation, err = b.sink.Write(ctx, ManifestName, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	b.logger.Info("sticker packs written",
		slog.Int("packs", len(out.Manifest.StickerPacks)),
		slog.String("manifest", out.ManifestLocation),
	)
	return out, nil
}

// Chunk splits results into packs of at most MaxStickers, keeping input
// order. When the tail would hold fewer than MinStickers the preceding pack
// gives up stickers to it. Fewer than MinStickers results in total cannot
// form a pack and are returned as skipped.
func Chunk(results []*sticker.Result) (chunks [][]*sticker.Result, skipped []*sticker.Result) {
	if len(results) < MinStickers {
		return nil, results
	}
	for start := 0; start < len(results); {
		size := min(MaxStickers, len(results)-start)
		if rest := len(results) - start - size; rest > 0 && rest < MinStickers {
			size -= MinStickers - rest
		}
		chunks = append(chunks, results[start:start+size])
		start += size
	}
	return chunks, nil
}

func (b *Builder) writeTray(ctx context.Context, name string, cover *sticker.Result) (string, error) {
	if cover.Cover == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingCover, cover.Name)
	}

	icon := imaging.Resize(cover.Cover.Image(), TrayIconSize, TrayIconSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, icon, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode tray icon: %w", err)
	}
	location, err := b.sink.Write(ctx, name, &buf)
	if err != nil {
		return "", fmt.Errorf("write tray icon: %w", err)
	}
	return location, nil
}
