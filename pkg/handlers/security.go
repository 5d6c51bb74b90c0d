// This file defines the middleware that attaches security headers to every
// response served by Routes: the HTML page, the JSON API and /metrics alike.
package handlers

import "net/http"

// contentSecurityPolicy keeps every resource same-origin except result
// thumbnails, which the search API returns as absolute i.ytimg.com URLs. The
// page embeds no scripts or frames of its own; playback runs behind the
// bridge, not in the document.
const contentSecurityPolicy = "default-src 'self'; img-src 'self' https://i.ytimg.com"

// SecurityHeaders sets the content security policy together with the
// nosniff, frame denial and referrer headers before delegating to next.
// Strict Transport Security is only sent on TLS connections so plain local
// development keeps working.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy", contentSecurityPolicy)
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "same-origin")
		if r.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}
