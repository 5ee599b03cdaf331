package main

import (
	"errors"
	"io"
	"io/fs"
	"net/http"
	"path/filepath"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"tributo.band/site/internal/config"
	"tributo.band/site/internal/hydrate"
	"tributo.band/site/internal/i18n"
	mw "tributo.band/site/internal/middleware"
	"tributo.band/site/internal/nav"
	"tributo.band/site/internal/observability"
	"tributo.band/site/internal/render"
)

// site wires the page controller and contact form to HTTP.
type site struct {
	cfg        config.Config
	logger     *zap.Logger
	bundle     *i18n.Bundle
	poster     contactPoster
	controller *hydrate.Controller
	sessions   *mw.Sessions
	limiter    *mw.RateLimiter
	pages      *pageCache
}

// contentSource is everything the site needs from the content API.
type contentSource interface {
	hydrate.Source
	contactPoster
}

func newSite(cfg config.Config, logger *zap.Logger, bundle *i18n.Bundle, source contentSource) *site {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := render.Options{
		MediaOrigin: cfg.CMS.MediaOrigin,
		PhoneRegion: cfg.Contact.PhoneRegion,
		RichText:    render.NewRichText(render.RichTextFormat(cfg.Site.RichTextFormat), cfg.Site.SanitizeRichText),
	}
	return &site{
		cfg:        cfg,
		logger:     logger,
		bundle:     bundle,
		poster:     source,
		controller: hydrate.NewController(source, opts, logger),
		sessions:   mw.NewSessions(cfg.Session.SigningKey, cfg.Session.Secure, logger),
		limiter:    mw.NewRateLimiter(cfg.Contact.PerMinute),
		pages:      newPageCache(cfg.Site.PagesDir, cfg.Site.DevMode),
	}
}

func (s *site) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	// RealIP trusts X-Forwarded-For; only deploy behind a proxy that sets it.
	r.Use(middleware.RealIP)
	r.Use(observability.InjectLoggerMiddleware(s.logger))
	r.Use(observability.RequestLoggerMiddleware)
	r.Use(observability.RecoveryMiddleware(s.logger))
	r.Use(mw.HTMX)
	r.Use(s.sessions.Middleware)
	r.Use(mw.Locale(s.bundle))
	r.Use(mw.CSRF(s.sessions.Secure()))
	r.Use(mw.VaryLocale)
	r.Use(middleware.Compress(5))
	if s.cfg.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})

	assets := http.StripPrefix("/assets", mw.AssetsWithCache(filepath.Join(s.cfg.Site.PublicDir, "assets"), "/assets"))
	r.Handle("/assets/*", assets)

	r.Get("/", s.handlePage)
	r.Get("/{page}", s.handlePage)
	r.Post("/contact", s.handleContact)
	return r
}

// handlePage serves a page with its content regions hydrated. Content API
// failures never reach the visitor: the affected page renders its defaults.
func (s *site) handlePage(w http.ResponseWriter, r *http.Request) {
	name := pageFile(chi.URLParam(r, "page"))
	markup, err := s.pages.load(name)
	if errors.Is(err, fs.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		observability.FromContext(r.Context()).Error("page load failed", zap.String("page", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	regions, err := render.ParseRegions(markup)
	if err != nil {
		observability.FromContext(r.Context()).Error("page parse failed", zap.String("page", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	res := s.controller.Run(r.Context(), hydrate.PageFromPath(name), regions)
	if res.Fallback || res.LayoutFallback {
		w.Header().Set("X-Content-Fallback", "1")
	}

	lang := mw.Lang(r)
	s.decorate(r, regions, name, lang)
	if flash, ok := mw.GetSession(r).PopFlash(); ok && regions.Form.Present() {
		regions.Form.Fill(flash.Values)
		if flash.Kind == "success" {
			regions.Form.Success(flash.Message)
		} else {
			regions.Form.Error(flash.Message)
		}
	}
	if src := r.URL.Query().Get("lightbox"); src != "" {
		regions.Lightbox.Open(src)
	}

	out, err := regions.HTML()
	if err != nil {
		observability.FromContext(r.Context()).Error("page render failed", zap.String("page", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, out)
}

// decorate applies the per-request parts of a page: language, active menu
// entry and the contact form's CSRF token and HTMX wiring.
func (s *site) decorate(r *http.Request, regions *render.Regions, name, lang string) {
	doc := regions.Document()
	doc.Find("html").SetAttr("lang", lang)

	active := map[string]bool{}
	for _, it := range nav.Build(pagePath(name)) {
		active[it.Href] = it.Active
	}
	doc.Find(".nav-menu a").Each(func(_ int, a *goquery.Selection) {
		item, ok := nav.Lookup(a.AttrOr("href", ""))
		if !ok {
			return
		}
		a.SetText(s.bundle.T(lang, item.LabelKey))
		if active[item.Path] {
			a.AddClass("active")
			a.SetAttr("aria-current", "page")
		}
	})

	s.wireForm(r, regions.Form, name)
}

func (s *site) wireForm(r *http.Request, form *render.Form, name string) {
	if !form.Present() {
		return
	}
	form.SetHidden(mw.CSRFFieldName, mw.CSRFToken(r))
	form.SetHidden(pageFieldName, name)
	form.SetAction("/contact", "this")
}
