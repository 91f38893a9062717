package middleware

import (
	"net/http"
)

type originSet struct {
	any     bool
	origins map[string]struct{}
}

func newOriginSet(allowed []string) originSet {
	set := originSet{any: len(allowed) == 0, origins: make(map[string]struct{}, len(allowed))}
	for _, o := range allowed {
		if o == "*" {
			set.any = true
		}
		set.origins[o] = struct{}{}
	}
	return set
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin, or ""
// when it may not read responses.
func (s originSet) allowOrigin(origin string) string {
	if origin == "" {
		return ""
	}
	if s.any {
		return "*"
	}
	if _, ok := s.origins[origin]; ok {
		return origin
	}
	return ""
}

// CORSMiddleware lets the map front end call the API from the listed origins.
// An empty list or "*" allows every origin.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	origins := newOriginSet(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if !origins.any {
				h.Add("Vary", "Origin")
			}
			if allow := origins.allowOrigin(r.Header.Get("Origin")); allow != "" {
				h.Set("Access-Control-Allow-Origin", allow)
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
