package middleware

import (
	"net/http"
	"time"

	"github.com/kmezhov/authgate"
)

// AccessCookie is an exported constant or variable used by the authentication core.
const AccessCookie = "access_token"

// RefreshCookie is an exported constant or variable used by the authentication core.
const RefreshCookie = "refresh_token"

// SetTokenCookies writes both tokens as HttpOnly cookies with lifetimes
// matching the token TTLs.
func SetTokenCookies(w http.ResponseWriter, pair authgate.TokenPair, accessTTL, refreshTTL time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(accessTTL / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   int(refreshTTL / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearTokenCookies expires both token cookies.
func ClearTokenCookies(w http.ResponseWriter, secure bool) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
