package avatar

import (
	"context"
	"image"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	ferrors "github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/family"
	"github.com/matzehuels/familytree/pkg/observability"
)

// Default settings for [Loader].
const (
	DefaultSize        = 44
	DefaultConcurrency = 8
)

// Avatar is the loaded portrait of one person.
type Avatar struct {
	PersonID string
	// Image is the circular portrait, or the gender placeholder.
	Image image.Image
	// Placeholder reports whether Image is the gender stand-in.
	Placeholder bool
	// Err is why the placeholder was used. It is nil when the person has no
	// avatar reference.
	Err error
}

// Set maps person IDs to loaded avatars.
type Set map[string]*Avatar

// Image returns the image for a person, falling back to a placeholder when
// the person is missing from the set.
func (s Set) Image(p *family.Person, size int) image.Image {
	if a, ok := s[p.ID]; ok && a.Image != nil {
		return a.Image
	}
	return Placeholder(p.Gender, size)
}

// Loader fetches and shapes avatars for a whole tree.
type Loader struct {
	fetcher     Fetcher
	size        int
	concurrency int
	logger      *log.Logger
}

// LoaderOption configures a [Loader].
type LoaderOption func(*Loader)

// WithFetcher sets where avatar bytes come from. Without a fetcher every
// person gets a placeholder.
func WithFetcher(f Fetcher) LoaderOption { return func(l *Loader) { l.fetcher = f } }

// WithSize sets the avatar diameter in pixels.
func WithSize(px int) LoaderOption { return func(l *Loader) { l.size = px } }

// WithConcurrency bounds the number of avatars fetched at once.
func WithConcurrency(n int) LoaderOption { return func(l *Loader) { l.concurrency = n } }

// WithLogger sets the logger for fallback diagnostics.
func WithLogger(lg *log.Logger) LoaderOption { return func(l *Loader) { l.logger = lg } }

// NewLoader creates a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{size: DefaultSize, concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = log.New(io.Discard)
	}
	l.size = max(l.size, 1)
	l.concurrency = max(l.concurrency, 1)
	return l
}

// Size returns the avatar diameter in pixels.
func (l *Loader) Size() int { return l.size }

// LoadAll loads the avatars of persons concurrently and returns once all of
// them have settled. It never fails: each person either gets their image
// or a placeholder with the reason recorded in [Avatar.Err].
func (l *Loader) LoadAll(ctx context.Context, persons []*family.Person) Set {
	results := make([]*Avatar, len(persons))
	var g errgroup.Group
	g.SetLimit(l.concurrency)
	for i, p := range persons {
		g.Go(func() error {
			results[i] = l.Load(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	set := make(Set, len(persons))
	for _, a := range results {
		set[a.PersonID] = a
	}
	return set
}

// Load loads one avatar, falling back to the placeholder on any failure.
func (l *Loader) Load(ctx context.Context, p *family.Person) *Avatar {
	if p.AvatarURL == "" || l.fetcher == nil {
		return l.fallback(ctx, p, nil)
	}
	start := time.Now()
	data, err := l.fetcher.Fetch(ctx, p.AvatarURL)
	if err != nil {
		return l.fallback(ctx, p, err)
	}
	img, _, err := Decode(data)
	if err != nil {
		return l.fallback(ctx, p, ferrors.Wrap(ferrors.ErrCodeAssetLoad, err, "decode avatar"))
	}
	observability.Asset().OnAssetLoaded(ctx, scheme(p.AvatarURL), time.Since(start))
	return &Avatar{PersonID: p.ID, Image: Circle(img, l.size)}
}

func (l *Loader) fallback(ctx context.Context, p *family.Person, err error) *Avatar {
	if err != nil {
		if !ferrors.Is(err, ferrors.ErrCodeAssetLoad) {
			err = ferrors.Wrap(ferrors.ErrCodeAssetLoad, err, "fetch avatar")
		}
		l.logger.Debug("avatar fallback", "person", p.ID, "error", err)
		observability.Asset().OnAssetFallback(ctx, scheme(p.AvatarURL), err)
	}
	return &Avatar{
		PersonID:    p.ID,
		Image:       Placeholder(p.Gender, l.size),
		Placeholder: true,
		Err:         err,
	}
}
