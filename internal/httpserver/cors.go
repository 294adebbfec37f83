package httpserver

import (
	"net/http"
	"strings"

	"github.com/nutriexpert/api/internal/config"
)

// originSet is the allow-list of browser origins, pre-trimmed at startup.
type originSet map[string]bool

func newOriginSet(origins []string) originSet {
	set := make(originSet, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			set[o] = true
		}
	}
	return set
}

// CORSMiddleware adds CORS headers for browser clients. Report downloads
// set Content-Disposition, so it is exposed to scripts explicitly.
func CORSMiddleware(cfg *config.Config, next http.Handler) http.Handler {
	allowed := newOriginSet(cfg.CORSAllowedOrigins)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if allowed[origin] {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Vary", "Origin")
			h.Set("Access-Control-Expose-Headers", "Content-Disposition")
			if cfg.CORSAllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
				h.Set("Access-Control-Max-Age", "600")
			}
		}

		// Preflights stop here either way; without the allow headers the
		// browser blocks a disallowed origin on its own.
		if r.Method == http.MethodOptions && origin != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
