package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tributo.band/site/internal/i18n"
)

func testBundle(t *testing.T) *i18n.Bundle {
	t.Helper()
	bundle, err := i18n.New("es", []string{"es", "en"}, map[string]map[string]string{
		"es": {"nav.home": "Inicio"},
		"en": {"nav.home": "Home"},
	})
	require.NoError(t, err)
	return bundle
}

func stack(t *testing.T, final http.HandlerFunc) http.Handler {
	t.Helper()
	sessions := NewSessions("test-key", false, nil)
	var h http.Handler = final
	h = CSRF(false)(h)
	h = Locale(testBundle(t))(h)
	h = sessions.Middleware(h)
	h = HTMX(h)
	return h
}

func cookiesFrom(rec *httptest.ResponseRecorder) []*http.Cookie {
	return rec.Result().Cookies()
}

func TestSessionPersistsFlashAcrossRequests(t *testing.T) {
	t.Parallel()

	h := stack(t, func(w http.ResponseWriter, r *http.Request) {
		s := GetSession(r)
		if r.URL.Path == "/set" {
			s.SetFlash(Flash{Kind: "success", Message: "listo"})
			w.WriteHeader(http.StatusNoContent)
			return
		}
		f, ok := s.PopFlash()
		if !ok {
			_, _ = io.WriteString(w, "none")
			return
		}
		_, _ = io.WriteString(w, f.Kind+":"+f.Message)
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/set", nil))
	cookies := cookiesFrom(rec)

	get := func(cookies []*http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := get(cookies)
	require.Equal(t, "success:listo", first.Body.String())

	var session *http.Cookie
	for _, c := range cookiesFrom(first) {
		if c.Name == sessionCookieName {
			session = c
		}
	}
	require.NotNil(t, session, "popping the flash rewrites the cookie")
	second := get([]*http.Cookie{session})
	require.Equal(t, "none", second.Body.String())
}

func TestSessionRejectsTamperedCookie(t *testing.T) {
	t.Parallel()

	sessions := NewSessions("k1", false, nil)
	other := NewSessions("k2", false, nil)

	rec := httptest.NewRecorder()
	other.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		GetSession(r).Locale = "en"
		GetSession(r).MarkDirty()
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookiesFrom(rec) {
		req.AddCookie(c)
	}
	var locale string
	sessions.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale = GetSession(r).Locale
	})).ServeHTTP(httptest.NewRecorder(), req)
	require.Empty(t, locale, "a cookie signed with another key is ignored")
}

func TestCSRFAcceptsFormFieldAndHeader(t *testing.T) {
	t.Parallel()

	var token string
	h := stack(t, func(w http.ResponseWriter, r *http.Request) {
		token = CSRFToken(r)
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, token)
	cookies := cookiesFrom(rec)

	post := func(body url.Values, header string) int {
		req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if header != "" {
			req.Header.Set(csrfHeaderName, header)
		}
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusForbidden, post(url.Values{"name": {"Ana"}}, ""))
	require.Equal(t, http.StatusForbidden, post(url.Values{CSRFFieldName: {"nope"}}, ""))
	require.Equal(t, http.StatusOK, post(url.Values{CSRFFieldName: {token}}, ""))
	require.Equal(t, http.StatusOK, post(url.Values{}, token))
}

func TestCSRFRejectsHTMXWithJSON(t *testing.T) {
	t.Parallel()

	h := stack(t, func(w http.ResponseWriter, r *http.Request) {})
	req := httptest.NewRequest(http.MethodPost, "/contact", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	require.Contains(t, rec.Body.String(), `"name":"ForbiddenError"`)
}

func TestLocaleResolution(t *testing.T) {
	t.Parallel()

	var lang string
	h := stack(t, func(w http.ResponseWriter, r *http.Request) { lang = Lang(r) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "en", lang)
	require.Equal(t, "en", rec.Header().Get("Content-Language"))

	req = httptest.NewRequest(http.MethodGet, "/?hl=es", nil)
	req.Header.Set("Accept-Language", "en")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "es", lang, "query overrides the header")

	req = httptest.NewRequest(http.MethodGet, "/?hl=fr", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "es", lang, "unsupported query value falls back")
}

func TestRateLimiterPerClient(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(2)
	l.now = func() time.Time { return now }

	require.True(t, l.Allow("10.0.0.1"))
	require.True(t, l.Allow("10.0.0.1"))
	require.False(t, l.Allow("10.0.0.1"))
	require.True(t, l.Allow("10.0.0.2"), "buckets are per client")

	now = now.Add(30 * time.Second)
	require.True(t, l.Allow("10.0.0.1"), "tokens refill over time")

	var disabled *RateLimiter
	require.True(t, disabled.Allow("any"))
	require.Nil(t, NewRateLimiter(0))
}

func TestAssetsWithCacheETag(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "css", "styles.css"), []byte("body{}"), 0o644))

	h := http.StripPrefix("/assets", AssetsWithCache(dir, "/assets"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/css/styles.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.True(t, strings.HasPrefix(etag, `W/"`))
	require.Contains(t, rec.Header().Get("Cache-Control"), "max-age=604800")

	req := httptest.NewRequest(http.MethodGet, "/assets/css/styles.css", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotModified, rec.Code)
}

func TestHTMXHeadersAreParsed(t *testing.T) {
	t.Parallel()

	var got HTMXRequest
	h := HTMX(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = HTMXFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, HTMXRequest{}, got)
	require.False(t, got.WantsFragment())
	require.Equal(t, "HX-Request", rec.Header().Get("Vary"))

	req := httptest.NewRequest(http.MethodPost, "/contact", nil)
	req.Header.Set("HX-Request", "true")
	req.Header.Set("HX-Target", " contact-form ")
	req.Header.Set("HX-Trigger", "contactForm")
	req.Header.Set("HX-Current-URL", "https://tributo.band/contrataciones.html")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, HTMXRequest{
		Active:     true,
		Target:     "contact-form",
		Trigger:    "contactForm",
		CurrentURL: "https://tributo.band/contrataciones.html",
	}, got)
	require.True(t, got.WantsFragment())

	req.Header.Set("HX-Boosted", "true")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, got.Boosted)
	require.False(t, got.WantsFragment(), "boosted posts navigate like full pages")

	// stray htmx headers without HX-Request are ignored
	req = httptest.NewRequest(http.MethodPost, "/contact", nil)
	req.Header.Set("HX-Target", "contact-form")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, HTMXRequest{}, got)
}
