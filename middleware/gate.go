package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/kmezhov/authgate"
	"github.com/kmezhov/authgate/jwt"
	"github.com/kmezhov/authgate/session"
)

type contextKey string

const identityContextKey contextKey = "authgate.identity"

// IdentityFromContext returns the identity the gate attached to the request
// context, or nil when the request never passed the gate.
func IdentityFromContext(ctx context.Context) *authgate.Identity {
	id, _ := ctx.Value(identityContextKey).(*authgate.Identity)
	return id
}

// Config defines a public type used by authgate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// LoginRoute receives redirects for missing or invalid tokens. It is
	// always public; authenticated callers are bounced to HomeRoute instead.
	LoginRoute string

	// RefreshRoute receives redirects for expired access tokens, carrying
	// the original path in a redirect_url query parameter.
	RefreshRoute string

	// HomeRoute is where already-authenticated callers of LoginRoute land.
	HomeRoute string

	// PublicRoutes pass the gate without a token (exact match).
	PublicRoutes []string

	// PublicPrefixes pass the gate without a token (prefix match).
	PublicPrefixes []string

	// AdminPrefix marks the superuser-only subtree. Empty disables the check.
	AdminPrefix string

	// Secure controls the Secure attribute on cleared cookies.
	Secure bool
}

// DefaultGateConfig describes the defaultgateconfig operation and its observable behavior.
//
// DefaultGateConfig may return an error when input validation, dependency calls, or security checks fail.
// DefaultGateConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func DefaultGateConfig() Config {
	return Config{
		LoginRoute:   "/login",
		RefreshRoute: "/auth/refresh",
		HomeRoute:    "/",
		AdminPrefix:  "/admin",
	}
}

// Gate returns middleware that resolves the caller's identity before every
// request. Public routes pass untouched. An authenticated caller hitting the
// login route is redirected home. Missing or invalid tokens redirect to the
// login route with cookies cleared; expired tokens redirect to the refresh
// route carrying the original path; backend outages answer 503 so clients
// can retry instead of being logged out. The admin subtree additionally
// requires a superuser identity and answers 403 without touching cookies.
func Gate(m *authgate.Manager, cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			if path == cfg.LoginRoute {
				if token := extractToken(r); token != "" {
					if _, err := m.ResolveIdentity(r.Context(), token); err == nil {
						http.Redirect(w, r, cfg.HomeRoute, http.StatusSeeOther)
						return
					}
				}
				next.ServeHTTP(w, r)
				return
			}

			if isPublic(path, cfg) {
				next.ServeHTTP(w, r)
				return
			}

			token := extractToken(r)
			if token == "" {
				redirectLogin(w, r, cfg)
				return
			}

			identity, err := m.ResolveIdentity(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, jwt.ErrExpiredSignature):
					target := cfg.RefreshRoute + "?redirect_url=" + url.QueryEscape(r.URL.RequestURI())
					http.Redirect(w, r, target, http.StatusSeeOther)
				case errors.Is(err, session.ErrRedisUnavailable),
					errors.Is(err, authgate.ErrStoreUnavailable):
					writeJSONError(w, http.StatusServiceUnavailable, "Authentication backend unavailable")
				default:
					redirectLogin(w, r, cfg)
				}
				return
			}

			if cfg.AdminPrefix != "" && strings.HasPrefix(path, cfg.AdminPrefix) && !identity.IsSuperuser {
				writeJSONError(w, http.StatusForbidden, "Admin privileges required")
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIP returns middleware that records the caller's IP on the request
// context so downstream throttling and audit events can attribute it.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.Header.Get("X-Forwarded-For")
		if idx := strings.IndexByte(ip, ','); idx >= 0 {
			ip = ip[:idx]
		}
		ip = strings.TrimSpace(ip)
		if ip == "" {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err == nil {
				ip = host
			} else {
				ip = r.RemoteAddr
			}
		}
		next.ServeHTTP(w, r.WithContext(authgate.WithClientIP(r.Context(), ip)))
	})
}

func isPublic(path string, cfg Config) bool {
	for _, route := range cfg.PublicRoutes {
		if path == route {
			return true
		}
	}
	for _, prefix := range cfg.PublicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// extractToken prefers the access cookie and falls back to a bearer token
// in the Authorization header.
func extractToken(r *http.Request) string {
	if c, err := r.Cookie(AccessCookie); err == nil && c.Value != "" {
		return c.Value
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func redirectLogin(w http.ResponseWriter, r *http.Request, cfg Config) {
	ClearTokenCookies(w, cfg.Secure)
	http.Redirect(w, r, cfg.LoginRoute, http.StatusSeeOther)
}

func writeJSONError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
