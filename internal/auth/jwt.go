package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrNoSession      = errors.New("no session token")
	ErrInvalidSubject = errors.New("session token has no user subject")
)

// Session is the caller identity carried by a verified access token.
type Session struct {
	UserID uuid.UUID
	Email  string
}

// Claims mirrors the access tokens issued by the auth service.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// SessionVerifier checks access tokens signed with the project's JWT secret.
type SessionVerifier struct {
	secret   []byte
	audience string
}

func NewSessionVerifier(secret, audience string) *SessionVerifier {
	return &SessionVerifier{secret: []byte(secret), audience: audience}
}

// Verify validates signature, expiry and audience, and returns the session.
func (v *SessionVerifier) Verify(token string) (Session, error) {
	if token == "" {
		return Session{}, ErrNoSession
	}

	opts := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Session{}, fmt.Errorf("verify session token: %w", err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Session{}, ErrInvalidSubject
	}

	return Session{UserID: userID, Email: claims.Email}, nil
}
