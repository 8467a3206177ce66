package middleware

import (
	"net/http"
	"strings"
)

// defaultAllowedOrigins are the site origins served without any
// ALLOWED_ORIGINS configuration: production, the Pages preview host and
// local development servers.
var defaultAllowedOrigins = []string{
	"https://freegolffitting.com",
	"https://www.freegolffitting.com",
	"https://freegolffitting.pages.dev",
	"https://www.freegolffitting.pages.dev",
	"http://localhost:8000",
	"http://localhost:8080",
	"http://127.0.0.1:8000",
	"http://127.0.0.1:8080",
}

// preflightMaxAge lets browsers reuse a preflight verdict for a day.
const preflightMaxAge = "86400"

// OriginPolicy decides which request origins receive CORS headers.
// Matching is case-insensitive but the response echoes the origin
// exactly as the browser sent it.
type OriginPolicy struct {
	wildcard bool
	allowed  map[string]struct{}
}

// NewOriginPolicy builds a policy from the default origin list plus
// extras, a comma-separated list from configuration. A "*" entry makes
// the policy allow every origin.
func NewOriginPolicy(extras string) *OriginPolicy {
	p := &OriginPolicy{allowed: make(map[string]struct{})}
	for _, origin := range defaultAllowedOrigins {
		p.allowed[strings.ToLower(origin)] = struct{}{}
	}
	for _, origin := range strings.Split(extras, ",") {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			p.wildcard = true
			p.allowed = nil
			return p
		}
		p.allowed[strings.ToLower(origin)] = struct{}{}
	}
	return p
}

// Resolve returns the allow-origin header value for a request origin:
// "*" in wildcard mode, the origin itself when allowed, "" otherwise.
func (p *OriginPolicy) Resolve(origin string) string {
	if p.wildcard {
		return "*"
	}
	if origin == "" {
		return ""
	}
	if _, ok := p.allowed[strings.ToLower(origin)]; ok {
		return origin
	}
	return ""
}

// CORS applies the origin policy to a route. allowMethods is the
// literal access-control-allow-methods value for the route, e.g.
// "GET, OPTIONS". Preflights are answered here and never reach the
// handler.
func CORS(policy *OriginPolicy, allowMethods string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Caches must key on Origin even for disallowed requests,
			// otherwise a header-less response gets served to the site.
			w.Header().Add("Vary", "Origin")

			if allowOrigin := policy.Resolve(r.Header.Get("Origin")); allowOrigin != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
				w.Header().Set("Access-Control-Allow-Methods", allowMethods)
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Max-Age", preflightMaxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
