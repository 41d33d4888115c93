package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrServiceKeyMissing = errors.New("auth admin call requires the service role key")

// APIError is a non-2xx answer from the auth service.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("auth service: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("auth service: %d: %s", e.Status, e.Message)
}

// IsInvalidCredentials is true for rejected password or OTP exchanges.
func IsInvalidCredentials(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusBadRequest || apiErr.Status == http.StatusUnauthorized
}

type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// TokenResponse is the session material returned by grant and verify calls.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// GeneratedLink is the admin generate_link answer. HashedToken is what the
// setup-account page exchanges through VerifyOTP.
type GeneratedLink struct {
	User
	ActionLink       string `json:"action_link"`
	HashedToken      string `json:"hashed_token"`
	VerificationType string `json:"verification_type"`
	RedirectTo       string `json:"redirect_to"`
}

// GoTrue talks to the hosted auth service over its REST API.
type GoTrue struct {
	baseURL    string
	anonKey    string
	serviceKey string
	httpClient *http.Client
}

func NewGoTrue(projectURL, anonKey, serviceKey string) *GoTrue {
	return &GoTrue{
		baseURL:    strings.TrimRight(projectURL, "/") + "/auth/v1",
		anonKey:    anonKey,
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *GoTrue) SignInWithPassword(ctx context.Context, email, password string) (*TokenResponse, error) {
	var out TokenResponse
	body := map[string]string{"email": email, "password": password}
	if err := g.do(ctx, http.MethodPost, "/token?grant_type=password", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *GoTrue) RefreshSession(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	var out TokenResponse
	body := map[string]string{"refresh_token": refreshToken}
	if err := g.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *GoTrue) SignUp(ctx context.Context, email, password, redirectTo string) error {
	body := map[string]string{"email": email, "password": password}
	return g.do(ctx, http.MethodPost, withRedirect("/signup", redirectTo), "", body, nil)
}

// Recover sends the password recovery email.
func (g *GoTrue) Recover(ctx context.Context, email, redirectTo string) error {
	body := map[string]string{"email": email}
	return g.do(ctx, http.MethodPost, withRedirect("/recover", redirectTo), "", body, nil)
}

// VerifyOTP exchanges an emailed token hash (invite or recovery) for a session.
func (g *GoTrue) VerifyOTP(ctx context.Context, tokenHash, otpType string) (*TokenResponse, error) {
	var out TokenResponse
	body := map[string]string{"token_hash": tokenHash, "type": otpType}
	if err := g.do(ctx, http.MethodPost, "/verify", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *GoTrue) UpdatePassword(ctx context.Context, accessToken, password string) error {
	body := map[string]string{"password": password}
	return g.do(ctx, http.MethodPut, "/user", accessToken, body, nil)
}

func (g *GoTrue) Logout(ctx context.Context, accessToken string) error {
	return g.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil)
}

// GenerateInviteLink creates the user (if needed) and returns an invite link
// without the auth service sending its own email.
func (g *GoTrue) GenerateInviteLink(ctx context.Context, email, redirectTo string) (*GeneratedLink, error) {
	if g.serviceKey == "" {
		return nil, ErrServiceKeyMissing
	}
	var out GeneratedLink
	body := map[string]string{"type": "invite", "email": email, "redirect_to": redirectTo}
	if err := g.do(ctx, http.MethodPost, "/admin/generate_link", g.serviceKey, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func withRedirect(path, redirectTo string) string {
	if redirectTo == "" {
		return path
	}
	return path + "?redirect_to=" + url.QueryEscape(redirectTo)
}

func (g *GoTrue) do(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", g.anonKey)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
		if bearer == g.serviceKey {
			req.Header.Set("apikey", g.serviceKey)
		}
	}

	res, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth service %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return decodeAPIError(res)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func decodeAPIError(res *http.Response) error {
	var payload struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorCode        string `json:"error_code"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	_ = json.Unmarshal(raw, &payload)

	apiErr := &APIError{Status: res.StatusCode, Code: payload.ErrorCode}
	if apiErr.Code == "" {
		apiErr.Code = payload.Error
	}
	for _, m := range []string{payload.Msg, payload.Message, payload.ErrorDescription} {
		if m != "" {
			apiErr.Message = m
			break
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(res.StatusCode)
	}
	return apiErr
}
