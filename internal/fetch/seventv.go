package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/maauso/stickerconv/internal/sticker"
)

// DefaultSevenTVBaseURL is the 7TV v3 REST API root.
const DefaultSevenTVBaseURL = "https://7tv.io/v3"

// Emote is the catalog metadata of a 7TV emote.
type Emote struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Animated bool      `json:"animated"`
	Host     EmoteHost `json:"host"`
}

// EmoteHost lists the CDN location and the available renditions of an emote.
type EmoteHost struct {
	URL   string      `json:"url"`
	Files []EmoteFile `json:"files"`
}

// EmoteFile is one rendition of an emote.
type EmoteFile struct {
	Name       string `json:"name"`
	StaticName string `json:"static_name,omitempty"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	FrameCount int    `json:"frame_count,omitempty"`
	Size       int    `json:"size,omitempty"`
	Format     string `json:"format"`
}

// SevenTVClient fetches emotes from the 7TV catalog.
type SevenTVClient struct {
	transport
	baseURL string
	cache   EmoteCache
	logger  *slog.Logger
}

// SevenTVOption configures a SevenTVClient.
type SevenTVOption func(*SevenTVClient)

// WithBaseURL sets a custom base URL for the 7TV API.
func WithBaseURL(u string) SevenTVOption {
	return func(c *SevenTVClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithCache enables metadata caching.
func WithCache(cache EmoteCache) SevenTVOption {
	return func(c *SevenTVClient) {
		c.cache = cache
	}
}

// WithLogger sets the logger used for cache failures.
func WithLogger(l *slog.Logger) SevenTVOption {
	return func(c *SevenTVClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTransport applies HTTP options to the client.
func WithTransport(opts ...Option) SevenTVOption {
	return func(c *SevenTVClient) {
		for _, opt := range opts {
			opt(&c.transport)
		}
	}
}

// NewSevenTVClient creates a new 7TV catalog client.
func NewSevenTVClient(opts ...SevenTVOption) *SevenTVClient {
	c := &SevenTVClient{
		transport: defaultTransport(),
		baseURL:   DefaultSevenTVBaseURL,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch downloads the best rendition of emote id.
func (c *SevenTVClient) Fetch(ctx context.Context, id string) (*Source, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &FetchError{Identifier: id, Err: ErrEmptyIdentifier}
	}

	emote, err := c.Emote(ctx, id)
	if err != nil {
		return nil, wrapErr(id, err)
	}

	file, err := chooseFile(emote)
	if err != nil {
		return nil, &FetchError{Identifier: id, Err: err}
	}

	resp, err := c.getWithRetry(ctx, fileURL(emote.Host.URL, file.Name))
	if err != nil {
		return nil, &FetchError{Identifier: id, Err: err}
	}
	if len(resp.Body) == 0 {
		return nil, &FetchError{Identifier: id, Err: ErrEmptyBody}
	}

	return &Source{
		Identifier:  id,
		Data:        resp.Body,
		Name:        emote.Name,
		Hint:        sticker.HintFromBool(emote.Animated),
		ContentType: "image/" + strings.ToLower(file.Format),
	}, nil
}

// Emote returns the catalog metadata of emote id, consulting the cache first
// when one is configured.
func (c *SevenTVClient) Emote(ctx context.Context, id string) (*Emote, error) {
	if c.cache != nil {
		emote, err := c.cache.Get(ctx, id)
		switch {
		case err == nil:
			return emote, nil
		case !errors.Is(err, ErrCacheMiss):
			c.logger.Warn("emote cache read failed", slog.String("id", id), slog.String("error", err.Error()))
		}
	}

	resp, err := c.getWithRetry(ctx, fmt.Sprintf("%s/emotes/%s", c.baseURL, url.PathEscape(id)))
	if err != nil {
		return nil, err
	}

	var emote Emote
	if err := json.Unmarshal(resp.Body, &emote); err != nil {
		return nil, fmt.Errorf("fetch: unmarshal emote: %w", err)
	}
	if emote.ID == "" {
		emote.ID = id
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, &emote); err != nil {
			c.logger.Warn("emote cache write failed", slog.String("id", id), slog.String("error", err.Error()))
		}
	}

	return &emote, nil
}

// chooseFile picks the largest rendition in the format the decoder handles
// best: GIF for animated emotes, PNG for static ones. WEBP and then any
// other format are used when the preferred one is missing.
func chooseFile(e *Emote) (EmoteFile, error) {
	preferred := "PNG"
	if e.Animated {
		preferred = "GIF"
	}

	for _, format := range []string{preferred, "WEBP", ""} {
		if f, ok := largest(e.Host.Files, format); ok {
			return f, nil
		}
	}
	return EmoteFile{}, ErrNoUsableFile
}

// largest returns the widest file of the given format, or of any format when
// format is empty.
func largest(files []EmoteFile, format string) (EmoteFile, bool) {
	var best EmoteFile
	found := false
	for _, f := range files {
		if f.Name == "" {
			continue
		}
		if format != "" && !strings.EqualFold(f.Format, format) {
			continue
		}
		if !found || f.Width > best.Width {
			best = f
			found = true
		}
	}
	return best, found
}

// fileURL joins the CDN host and a file name. 7TV returns protocol-relative
// hosts such as "//cdn.7tv.app/emote/ID".
func fileURL(host, name string) string {
	if strings.HasPrefix(host, "//") {
		host = "https:" + host
	}
	return strings.TrimRight(host, "/") + "/" + name
}
