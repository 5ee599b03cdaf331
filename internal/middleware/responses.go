package middleware

import (
	"net/http"

	"tributo.band/site/internal/httpx"
)

// writeError answers htmx requests with the JSON error envelope so the
// client script can show the message; full page requests get plain text.
func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	if HTMXFrom(r.Context()).Active {
		httpx.Write(r.Context(), w, httpx.FromStatus(code, msg))
		return
	}
	http.Error(w, msg, code)
}
