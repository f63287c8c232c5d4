package avatar

import (
	"context"
	"encoding/base64"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/matzehuels/familytree/pkg/cache"
	ferrors "github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/httputil"
	"github.com/matzehuels/familytree/pkg/observability"
)

// Fetcher resolves an avatar reference to raw image bytes.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// FetcherFunc adapts a function to [Fetcher].
type FetcherFunc func(ctx context.Context, ref string) ([]byte, error)

// Fetch implements [Fetcher].
func (f FetcherFunc) Fetch(ctx context.Context, ref string) ([]byte, error) { return f(ctx, ref) }

// HTTPFetcher fetches data: URLs, http(s) URLs and relative files.
type HTTPFetcher struct {
	getter  *httputil.Getter
	cache   cache.Cache
	keyer   cache.Keyer
	baseDir string
	remote  bool
}

// FetcherOption configures an [HTTPFetcher].
type FetcherOption func(*HTTPFetcher)

// WithGetter sets the HTTP getter used for remote avatars.
func WithGetter(g *httputil.Getter) FetcherOption { return func(f *HTTPFetcher) { f.getter = g } }

// WithCache caches remote avatar bytes in c under keys built by k.
func WithCache(c cache.Cache, k cache.Keyer) FetcherOption {
	return func(f *HTTPFetcher) { f.cache, f.keyer = c, k }
}

// WithBaseDir resolves relative file references against dir. Without it,
// file references are rejected.
func WithBaseDir(dir string) FetcherOption { return func(f *HTTPFetcher) { f.baseDir = dir } }

// WithoutRemote rejects http and https references.
func WithoutRemote() FetcherOption { return func(f *HTTPFetcher) { f.remote = false } }

// NewHTTPFetcher creates a fetcher with a default getter and no cache.
func NewHTTPFetcher(opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		cache:  cache.NewNullCache(),
		keyer:  cache.NewDefaultKeyer(),
		remote: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.getter == nil {
		f.getter = httputil.NewGetter(httputil.WithAccept("image/"))
	}
	return f
}

// Fetch implements [Fetcher].
func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if err := ferrors.ValidateAvatarURL(ref); err != nil {
		return nil, err
	}
	switch scheme(ref) {
	case "data":
		return decodeDataURL(ref)
	case "http", "https":
		if !f.remote {
			return nil, ferrors.New(ferrors.ErrCodeUnsupported, "remote avatars are disabled")
		}
		return f.fetchRemote(ctx, ref)
	}
	return f.fetchFile(ref)
}

func (f *HTTPFetcher) fetchRemote(ctx context.Context, ref string) ([]byte, error) {
	key := f.keyer.HTTPKey("avatar", ref)
	if data, ok, err := f.cache.Get(ctx, key); err == nil && ok {
		return data, nil
	}

	u, _ := url.Parse(ref)
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, "GET", u.Host, u.Path)
	start := time.Now()
	data, _, err := f.getter.Get(ctx, ref)
	if err != nil {
		hooks.OnError(ctx, "GET", u.Host, u.Path, err)
		return nil, err
	}
	hooks.OnResponse(ctx, "GET", u.Host, u.Path, 200, time.Since(start))

	_ = f.cache.Set(ctx, key, data, cache.TTLAvatar)
	return data, nil
}

func (f *HTTPFetcher) fetchFile(ref string) ([]byte, error) {
	if f.baseDir == "" {
		return nil, ferrors.New(ferrors.ErrCodeUnsupported, "file avatars need a base directory")
	}
	data, err := os.ReadFile(filepath.Join(f.baseDir, filepath.FromSlash(ref)))
	if os.IsNotExist(err) {
		return nil, ferrors.Wrap(ferrors.ErrCodeFileNotFound, err, "avatar %s", ref)
	}
	return data, err
}

func decodeDataURL(ref string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, ferrors.New(ferrors.ErrCodeInvalidFormat, "malformed data URL")
	}
	if !strings.HasSuffix(meta, ";base64") {
		decoded, err := url.PathUnescape(payload)
		if err != nil {
			return nil, ferrors.Wrap(ferrors.ErrCodeInvalidFormat, err, "malformed data URL")
		}
		return []byte(decoded), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidFormat, err, "malformed data URL")
	}
	return data, nil
}

// scheme returns the lowercased URL scheme of ref, or "file" for paths.
func scheme(ref string) string {
	if i := strings.Index(ref, ":"); i > 0 {
		return strings.ToLower(ref[:i])
	}
	return "file"
}
