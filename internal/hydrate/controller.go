package hydrate

import (
	"context"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"tributo.band/site/internal/cms"
	"tributo.band/site/internal/render"
)

// PageID identifies a hydrated page.
type PageID string

const (
	PageHome           PageID = "home"
	PageContrataciones PageID = "contrataciones"
	PageAbout          PageID = "about"
	PageUnknown        PageID = ""
)

// PageFromPath maps a request path to a page: the last segment without its
// extension, with the site root meaning home.
func PageFromPath(p string) PageID {
	p = strings.TrimSpace(p)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimRight(p, "/")
	base := path.Base("/" + p)
	if dot := strings.IndexByte(base, '.'); dot >= 0 {
		base = base[:dot]
	}
	switch strings.ToLower(base) {
	case "", "/", "index", "home":
		return PageHome
	case string(PageContrataciones):
		return PageContrataciones
	case string(PageAbout):
		return PageAbout
	default:
		return PageUnknown
	}
}

// Source is the content API as seen by the page routines.
type Source interface {
	BandInfo(ctx context.Context) (cms.BandInfo, bool, error)
	Services(ctx context.Context) ([]cms.Service, bool, error)
	SocialMedia(ctx context.Context) ([]cms.SocialMedia, bool, error)
	GalleryItems(ctx context.Context) ([]cms.GalleryItem, bool, error)
	ContactInfo(ctx context.Context) (cms.ContactInfo, bool, error)
	TimelineEvents(ctx context.Context) ([]cms.TimelineEvent, bool, error)
	BandMembers(ctx context.Context) ([]cms.BandMember, bool, error)
	SiteSetting(ctx context.Context) (cms.SiteSetting, bool, error)
}

// Result reports what a hydration run did.
type Result struct {
	Page           PageID
	Hydrated       bool
	Fallback       bool
	Err            error
	LayoutFallback bool
	LayoutErr      error
}

// Controller runs the page routines.
type Controller struct {
	source Source
	opts   render.Options
	logger *zap.Logger
}

// NewController builds a controller reading from source.
func NewController(source Source, opts render.Options, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{source: source, opts: opts, logger: logger.Named("hydrate")}
}

type step struct {
	endpoint string
	run      func(ctx context.Context) error
}

// fetchThen renders the fetched value only when the API returned data.
func fetchThen[T any](endpoint string, fetch func(context.Context) (T, bool, error), apply func(T)) step {
	return step{endpoint: endpoint, run: func(ctx context.Context) error {
		value, ok, err := fetch(ctx)
		if err != nil {
			return err
		}
		if ok {
			apply(value)
		}
		return nil
	}}
}

// Run hydrates regions for page. The shared layout runs first, then the page
// routine. Each routine fetches sequentially; the first failure abandons the
// rest of that routine and its fallback renders defaults instead. Failures
// are logged and never surfaced to the visitor.
func (c *Controller) Run(ctx context.Context, page PageID, regions *render.Regions) Result {
	res := Result{Page: page}
	if page == PageUnknown || regions == nil {
		return res
	}
	r := render.NewRenderer(regions, c.opts)

	layout := []step{fetchThen(cms.EndpointSiteSetting, c.source.SiteSetting, r.SiteSetting)}
	if err := c.runSteps(ctx, "layout", layout); err != nil {
		render.LayoutDefaults(regions)
		res.LayoutFallback = true
		res.LayoutErr = err
	}

	steps, fallback := c.routine(page, r)
	if err := c.runSteps(ctx, string(page), steps); err != nil {
		fallback(regions)
		res.Fallback = true
		res.Err = err
		return res
	}
	res.Hydrated = true
	return res
}

func (c *Controller) routine(page PageID, r *render.Renderer) ([]step, func(*render.Regions)) {
	switch page {
	case PageHome:
		return []step{
			fetchThen(cms.EndpointBandInfo, c.source.BandInfo, r.Hero),
			fetchThen(cms.EndpointServices, c.source.Services, r.Services),
			fetchThen(cms.EndpointSocialMedia, c.source.SocialMedia, r.SocialIcons),
		}, render.HomeDefaults
	case PageContrataciones:
		return []step{
			fetchThen(cms.EndpointServices, c.source.Services, r.ServicesDetailed),
			fetchThen(cms.EndpointContactInfo, c.source.ContactInfo, r.ContactInfo),
		}, render.ContractsDefaults
	case PageAbout:
		return []step{
			fetchThen(cms.EndpointBandInfo, c.source.BandInfo, r.About),
			fetchThen(cms.EndpointGalleryItems, c.source.GalleryItems, r.Gallery),
			fetchThen(cms.EndpointTimelineEvents, c.source.TimelineEvents, r.Timeline),
			fetchThen(cms.EndpointBandMembers, c.source.BandMembers, r.Members),
		}, render.AboutDefaults
	default:
		return nil, func(*render.Regions) {}
	}
}

func (c *Controller) runSteps(ctx context.Context, routine string, steps []step) error {
	start := time.Now()
	for _, s := range steps {
		if err := s.run(ctx); err != nil {
			c.logger.Warn("content load failed, rendering defaults",
				zap.String("routine", routine),
				zap.String("endpoint", s.endpoint),
				zap.Error(err),
				zap.Duration("elapsed", time.Since(start)),
			)
			return err
		}
	}
	c.logger.Debug("content loaded",
		zap.String("routine", routine),
		zap.Int("fetches", len(steps)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
