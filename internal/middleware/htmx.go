package middleware

import (
	"net/http"
	"strings"
)

// HTMXRequest carries the htmx request headers the contact flow cares about.
type HTMXRequest struct {
	Active     bool
	Boosted    bool
	Target     string
	Trigger    string
	CurrentURL string
}

// WantsFragment reports whether the response should be a swap fragment.
// Boosted requests replace the whole body and are answered like full page
// navigations.
func (h HTMXRequest) WantsFragment() bool {
	return h.Active && !h.Boosted
}

func parseHTMX(r *http.Request) HTMXRequest {
	if r.Header.Get("HX-Request") != "true" {
		return HTMXRequest{}
	}
	return HTMXRequest{
		Active:     true,
		Boosted:    r.Header.Get("HX-Boosted") == "true",
		Target:     strings.TrimSpace(r.Header.Get("HX-Target")),
		Trigger:    strings.TrimSpace(r.Header.Get("HX-Trigger")),
		CurrentURL: r.Header.Get("HX-Current-URL"),
	}
}

// HTMX parses htmx headers into the request context. Responses vary on
// HX-Request since the same URL may answer with a page or a fragment.
func HTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "HX-Request")
		next.ServeHTTP(w, r.WithContext(WithHTMX(r.Context(), parseHTMX(r))))
	})
}
