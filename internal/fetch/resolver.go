package fetch

import (
	"context"
	"net/url"
	"os"
	"strings"
)

// catalogHosts are web hosts whose emote page URLs map to catalog IDs.
var catalogHosts = map[string]bool{
	"7tv.app":     true,
	"www.7tv.app": true,
}

// Resolver routes an identifier to the fetcher that understands it:
// http(s) URLs go to URL, existing file paths to Local and everything else is
// treated as a catalog emote ID. Without a Local fetcher the filesystem is
// never consulted and path-like identifiers fail with ErrNoFetcher.
type Resolver struct {
	URL     Fetcher
	Local   Fetcher
	Catalog Fetcher
}

// NewResolver creates a Resolver. Any fetcher may be nil, in which case
// identifiers routed to it fail.
func NewResolver(urlFetcher, local, catalog Fetcher) *Resolver {
	return &Resolver{URL: urlFetcher, Local: local, Catalog: catalog}
}

// Fetch retrieves identifier with the matching fetcher.
func (r *Resolver) Fetch(ctx context.Context, identifier string) (*Source, error) {
	id := strings.TrimSpace(identifier)
	if id == "" {
		return nil, &FetchError{Identifier: identifier, Err: ErrEmptyIdentifier}
	}

	f, arg := r.route(id)
	if f == nil {
		return nil, &FetchError{Identifier: id, Err: ErrNoFetcher}
	}

	src, err := f.Fetch(ctx, arg)
	if err != nil {
		return nil, wrapErr(id, err)
	}
	return src, nil
}

// route picks the fetcher for id and the argument to pass to it.
func (r *Resolver) route(id string) (Fetcher, string) {
	lower := strings.ToLower(id)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		if emoteID, ok := catalogEmoteID(id); ok && r.Catalog != nil {
			return r.Catalog, emoteID
		}
		return r.URL, id
	}

	if r.Local == nil {
		if looksLikePath(id) {
			return nil, id
		}
		return r.Catalog, id
	}
	if info, err := os.Stat(id); err == nil && !info.IsDir() {
		return r.Local, id
	}

	return r.Catalog, id
}

// looksLikePath reports whether id can only be a file path. Catalog emote
// IDs are plain alphanumeric strings.
func looksLikePath(id string) bool {
	return strings.ContainsAny(id, `/\.~:`)
}

// catalogEmoteID extracts the emote ID from a catalog page URL such as
// https://7tv.app/emotes/01F6MQ33FG000FFJ97ZB8MWV52.
func catalogEmoteID(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || !catalogHosts[strings.ToLower(u.Host)] {
		return "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 || parts[0] != "emotes" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
