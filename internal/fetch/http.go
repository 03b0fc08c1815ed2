package fetch

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// HTTPFetcher downloads sources from arbitrary http(s) URLs.
type HTTPFetcher struct {
	transport
}

// NewHTTPFetcher creates a new HTTPFetcher.
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{transport: defaultTransport()}
	for _, opt := range opts {
		opt(&f.transport)
	}
	return f
}

// Fetch downloads rawURL. The name is the last path segment without its
// extension. The animated hint comes from the Content-Type header, or from
// the sniffed body when the header says nothing about the image type.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Source, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, &FetchError{Identifier: rawURL, Err: ErrEmptyIdentifier}
	}

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &FetchError{Identifier: rawURL, Err: fmt.Errorf("fetch: invalid URL %q", rawURL)}
	}

	resp, err := f.getWithRetry(ctx, u.String())
	if err != nil {
		return nil, &FetchError{Identifier: rawURL, Err: err}
	}
	if len(resp.Body) == 0 {
		return nil, &FetchError{Identifier: rawURL, Err: ErrEmptyBody}
	}

	contentType := resp.ContentType
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		contentType = mimetype.Detect(resp.Body).String()
	}

	return &Source{
		Identifier:  rawURL,
		Data:        resp.Body,
		Name:        nameFromURL(u),
		Hint:        hintFor(contentType),
		ContentType: contentType,
	}, nil
}

func nameFromURL(u *url.URL) string {
	base := path.Base(strings.TrimRight(u.Path, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}
