package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"tributo.band/site/internal/cms"
	"tributo.band/site/internal/contact"
	mw "tributo.band/site/internal/middleware"
	"tributo.band/site/internal/observability"
	"tributo.band/site/internal/render"
)

const (
	pageFieldName   = "page"
	defaultFormPage = "contrataciones.html"
	msgRateLimited  = "contact.rate_limited"
)

type contactPoster interface {
	SubmitContact(ctx context.Context, sub cms.ContactSubmission) (cms.Record, error)
}

// navigation records where the submitter sent the visitor. The browser
// follows it via HX-Redirect or a 303.
type navigation struct{ url string }

func (n *navigation) Navigate(url string) { n.url = url }

// handleContact runs the form submitter against the form of the posting
// page. htmx swaps get the re-rendered form back; plain and boosted posts are
// answered with a redirect and the notification travels in the session flash.
func (s *site) handleContact(w http.ResponseWriter, r *http.Request) {
	logger := observability.FromContext(r.Context()).Named("contact")
	lang := mw.Lang(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	regions, name, err := s.formPage(pageFile(r.PostForm.Get(pageFieldName)))
	if err != nil {
		logger.Error("contact form page unavailable", zap.String("page", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	form := regions.Form
	s.wireForm(r, form, name)

	input := contact.FormFromValues(r.PostForm)
	form.Fill(input.Values())

	var target navigation
	if !s.limiter.Allow(mw.ClientKey(r)) {
		logger.Warn("contact submission rate limited", zap.String("client", mw.ClientKey(r)))
		form.Error(s.bundle.T(lang, msgRateLimited))
		s.respondContact(w, r, form, name, input, &target, false)
		return
	}

	submitter := contact.New(contact.Config{
		Variant:         contact.ParseVariant(s.cfg.Contact.Variant),
		MailtoRecipient: s.cfg.Contact.MailtoRecipient,
		PhoneRegion:     s.cfg.Contact.PhoneRegion,
		Lang:            lang,
	}, contact.Deps{
		Poster:    s.poster,
		Control:   form,
		Notifier:  form,
		Navigator: &target,
		Form:      form,
		Messages:  s.bundle,
		Logger:    logger,
	})

	out, err := submitter.Submit(r.Context(), input)
	var verr *contact.ValidationError
	switch {
	case errors.As(err, &verr):
		logger.Debug("contact submission rejected", zap.String("field", verr.Field))
	case err != nil:
		logger.Warn("contact submission not delivered",
			zap.Stringer("state", out.State),
			zap.Bool("mailto_fallback", out.MailtoURL != ""),
			zap.Error(err),
		)
	}
	s.respondContact(w, r, form, name, input, &target, out.State == contact.StateSucceeded)
}

// formPage loads the page the form was posted from, or the booking page when
// that page has no contact form.
func (s *site) formPage(name string) (*render.Regions, string, error) {
	var errs []error
	for _, candidate := range []string{name, defaultFormPage} {
		markup, err := s.pages.load(candidate)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		regions, err := render.ParseRegions(markup)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if regions.Form.Present() {
			return regions, candidate, nil
		}
		errs = append(errs, fmt.Errorf("page %q has no contact form", candidate))
	}
	return nil, name, errors.Join(errs...)
}

func (s *site) respondContact(w http.ResponseWriter, r *http.Request, form *render.Form, name string, input contact.Form, target *navigation, succeeded bool) {
	if mw.HTMXFrom(r.Context()).WantsFragment() {
		fragment, err := form.OuterHTML()
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if target.url != "" {
			w.Header().Set("HX-Redirect", target.url)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, fragment)
		return
	}

	kind, message := form.Notification()
	flash := mw.Flash{Kind: kind, Message: message}
	if !succeeded {
		flash.Values = input.Values()
	}
	mw.GetSession(r).SetFlash(flash)

	location := pagePath(name)
	if target.url != "" {
		location = target.url
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
