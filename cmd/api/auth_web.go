package main

import (
	"net/http"
	"time"

	"portal/internal/auth"
)

const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"

	defaultAccessTokenExp = time.Hour
	refreshTokenExp       = 30 * 24 * time.Hour
)

// setAuthCookies stores the session issued by the auth service as HttpOnly
// cookies. The refresh cookie is sent on every path because any page may
// need to renew an expired access token.
func (app *application) setAuthCookies(w http.ResponseWriter, session *auth.TokenResponse) {
	accessExp := defaultAccessTokenExp
	if session.ExpiresIn > 0 {
		accessExp = time.Duration(session.ExpiresIn) * time.Second
	}

	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    session.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   app.config.production(),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(accessExp.Seconds()),
	})

	if session.RefreshToken == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    session.RefreshToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   app.config.production(),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(refreshTokenExp.Seconds()),
	})
}

func (app *application) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Secure:   app.config.production(),
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
		})
	}
}
