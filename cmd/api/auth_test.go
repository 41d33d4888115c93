package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portal/internal/auth"
	"portal/internal/ratelimiter"
)

func session(access, refresh string) *auth.TokenResponse {
	return &auth.TokenResponse{AccessToken: access, RefreshToken: refresh, ExpiresIn: 600, User: auth.User{ID: nurseID}}
}

func TestLogin(t *testing.T) {
	t.Run("success sets session cookies", func(t *testing.T) {
		env := newTestEnv(t)
		env.auth.signIn = func(email, password string) (*auth.TokenResponse, error) {
			assert.Equal(t, "nurse@portal.test", email)
			assert.Equal(t, "correct horse", password)
			return session("nurse", "refresh-1"), nil
		}

		rr := env.do(t, http.MethodPost, "/auth/login", "", url.Values{
			"email":    {" nurse@portal.test "},
			"password": {"correct horse"},
		})

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/", rr.Header().Get("Location"))

		access := cookieNamed(rr, accessTokenCookie)
		require.NotNil(t, access)
		assert.Equal(t, "nurse", access.Value)
		assert.True(t, access.HttpOnly)
		assert.Equal(t, "/", access.Path)
		assert.Equal(t, 600, access.MaxAge)

		refresh := cookieNamed(rr, refreshTokenCookie)
		require.NotNil(t, refresh)
		assert.Equal(t, "refresh-1", refresh.Value)
		assert.True(t, refresh.HttpOnly)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		env := newTestEnv(t)
		env.auth.signIn = func(_, _ string) (*auth.TokenResponse, error) {
			return nil, &auth.APIError{Status: http.StatusBadRequest, Code: "invalid_credentials", Message: "Invalid login credentials"}
		}

		rr := env.do(t, http.MethodPost, "/auth/login", "", url.Values{
			"email":    {"nurse@portal.test"},
			"password": {"wrong"},
		})

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Contains(t, rr.Body.String(), "Invalid email or password.")
		assert.Contains(t, rr.Body.String(), `value="nurse@portal.test"`)
		assert.Nil(t, cookieNamed(rr, accessTokenCookie))
	})

	t.Run("auth service outage", func(t *testing.T) {
		env := newTestEnv(t)
		env.auth.signIn = func(_, _ string) (*auth.TokenResponse, error) {
			return nil, errors.New("dial tcp: connection refused")
		}

		rr := env.do(t, http.MethodPost, "/auth/login", "", url.Values{
			"email":    {"nurse@portal.test"},
			"password": {"pw"},
		})

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})

	t.Run("invalid form never reaches the auth service", func(t *testing.T) {
		env := newTestEnv(t)

		rr := env.do(t, http.MethodPost, "/auth/login", "", url.Values{
			"email": {"not-an-email"},
		})

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Equal(t, 0, env.auth.signInCalls)
	})

	t.Run("signed in users skip the login page", func(t *testing.T) {
		env := newTestEnv(t)

		rr := env.do(t, http.MethodGet, "/auth/login", "nurse", nil)

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/", rr.Header().Get("Location"))
	})
}

func TestLoginRateLimit(t *testing.T) {
	env := newTestEnv(t)
	env.auth.signIn = func(_, _ string) (*auth.TokenResponse, error) {
		return nil, &auth.APIError{Status: http.StatusBadRequest, Message: "Invalid login credentials"}
	}
	env.app.config.rateLimiter.Enabled = true
	env.app.limiter = ratelimiter.NewFixedWindowLimiter(1, env.app.config.rateLimiter.TimeFrame)
	env.handler = env.app.mount()

	form := url.Values{"email": {"nurse@portal.test"}, "password": {"pw"}}

	rr := env.do(t, http.MethodPost, "/auth/login", "", form)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = env.do(t, http.MethodPost, "/auth/login", "", form)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Equal(t, 1, env.auth.signInCalls)

	rr = env.do(t, http.MethodGet, "/auth/login", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/auth/logout", "nurse", url.Values{})

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/auth/login", rr.Header().Get("Location"))
	assert.Equal(t, "nurse", env.auth.loggedOut)

	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		c := cookieNamed(rr, name)
		require.NotNil(t, c, name)
		assert.Empty(t, c.Value)
		assert.Less(t, c.MaxAge, 0)
	}
}

func TestExpiredSessionIsRefreshed(t *testing.T) {
	t.Run("refresh token renews the session", func(t *testing.T) {
		env := newTestEnv(t)
		env.auth.refresh = func(token string) (*auth.TokenResponse, error) {
			assert.Equal(t, "refresh-1", token)
			return session("nurse", "refresh-2"), nil
		}

		req := httptest.NewRequest(http.MethodGet, "/dashboard/inventory", nil)
		req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: "expired"})
		req.AddCookie(&http.Cookie{Name: refreshTokenCookie, Value: "refresh-1"})
		rr := httptest.NewRecorder()
		env.handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		require.NotNil(t, cookieNamed(rr, accessTokenCookie))
		assert.Equal(t, "nurse", cookieNamed(rr, accessTokenCookie).Value)
		assert.Equal(t, "refresh-2", cookieNamed(rr, refreshTokenCookie).Value)
	})

	t.Run("rejected refresh clears cookies", func(t *testing.T) {
		env := newTestEnv(t)

		req := httptest.NewRequest(http.MethodGet, "/dashboard/inventory", nil)
		req.AddCookie(&http.Cookie{Name: refreshTokenCookie, Value: "revoked"})
		rr := httptest.NewRecorder()
		env.handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/auth/login", rr.Header().Get("Location"))
		c := cookieNamed(rr, refreshTokenCookie)
		require.NotNil(t, c)
		assert.Less(t, c.MaxAge, 0)
	})
}

func TestBearerTokenIsAccepted(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/inventory", nil)
	req.Header.Set("Authorization", "Bearer nurse")
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSignUp(t *testing.T) {
	t.Run("mismatched passwords", func(t *testing.T) {
		env := newTestEnv(t)

		rr := env.do(t, http.MethodPost, "/auth/sign-up", "", url.Values{
			"email":           {"new@portal.test"},
			"password":        {"long enough"},
			"repeat_password": {"different!"},
		})

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("confirmation email", func(t *testing.T) {
		env := newTestEnv(t)

		rr := env.do(t, http.MethodPost, "/auth/sign-up", "", url.Values{
			"email":           {"new@portal.test"},
			"password":        {"long enough"},
			"repeat_password": {"long enough"},
		})

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "confirmation link")
	})

	t.Run("already registered", func(t *testing.T) {
		env := newTestEnv(t)
		env.auth.signUpErr = &auth.APIError{Status: http.StatusUnprocessableEntity, Message: "User already registered"}

		rr := env.do(t, http.MethodPost, "/auth/sign-up", "", url.Values{
			"email":           {"nurse@portal.test"},
			"password":        {"long enough"},
			"repeat_password": {"long enough"},
		})

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Contains(t, rr.Body.String(), "User already registered")
	})
}

func TestResetPasswordDoesNotRevealAccounts(t *testing.T) {
	env := newTestEnv(t)
	env.auth.recoverErr = &auth.APIError{Status: http.StatusNotFound, Message: "User not found"}

	rr := env.do(t, http.MethodPost, "/auth/reset-password", "", url.Values{"email": {"ghost@portal.test"}})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "If an account exists")
	assert.Equal(t, "ghost@portal.test", env.auth.recoveredFor)
}

func TestUpdatePasswordRecoveryLink(t *testing.T) {
	t.Run("recovery link starts a session", func(t *testing.T) {
		env := newTestEnv(t)
		env.auth.verify = func(tokenHash, otpType string) (*auth.TokenResponse, error) {
			assert.Equal(t, "hash-1", tokenHash)
			assert.Equal(t, "recovery", otpType)
			return session("nurse", "refresh-1"), nil
		}

		rr := env.do(t, http.MethodGet, "/auth/update-password?token_hash=hash-1&type=recovery", "", nil)

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/auth/update-password", rr.Header().Get("Location"))
		require.NotNil(t, cookieNamed(rr, accessTokenCookie))
		assert.Equal(t, "nurse", cookieNamed(rr, accessTokenCookie).Value)
	})

	t.Run("wrong link type", func(t *testing.T) {
		env := newTestEnv(t)

		rr := env.do(t, http.MethodGet, "/auth/update-password?token_hash=hash-1&type=invite", "", nil)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "not valid for this page")
	})

	t.Run("expired link", func(t *testing.T) {
		env := newTestEnv(t)
		env.auth.verify = func(_, _ string) (*auth.TokenResponse, error) {
			return nil, &auth.APIError{Status: http.StatusUnauthorized, Message: "Token has expired"}
		}

		rr := env.do(t, http.MethodGet, "/auth/update-password?token_hash=old&type=recovery", "", nil)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "invalid or has expired")
	})

	t.Run("anonymous without a link", func(t *testing.T) {
		env := newTestEnv(t)

		rr := env.do(t, http.MethodGet, "/auth/update-password", "", nil)

		assert.Equal(t, "/auth/login", rr.Header().Get("Location"))
	})

	t.Run("save new password", func(t *testing.T) {
		env := newTestEnv(t)

		rr := env.do(t, http.MethodPost, "/auth/update-password", "nurse", url.Values{
			"password":        {"a new password"},
			"repeat_password": {"a new password"},
		})

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/?notice=password_saved", rr.Header().Get("Location"))
		assert.Equal(t, "nurse", env.auth.passwordToken)
		assert.Equal(t, "a new password", env.auth.newPassword)
	})
}

func TestSetupAccount(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/auth/setup-account", "nurse", url.Values{
		"first_name":      {"Nia"},
		"last_name":       {"Okafor-Reyes"},
		"phone":           {"+1 555 0100"},
		"password":        {"first password"},
		"repeat_password": {"first password"},
	})

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	assert.Equal(t, "first password", env.auth.newPassword)

	p := env.users.profiles[nurseID]
	assert.Equal(t, "Okafor-Reyes", p.LastName)
	require.NotNil(t, p.Phone)
	assert.Equal(t, "+1 555 0100", *p.Phone)

	rr = env.do(t, http.MethodGet, "/auth/setup-account", "nurse", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), `value="Okafor-Reyes"`))
}
