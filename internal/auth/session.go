package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

// SessionCookieName is the HttpOnly cookie carrying the admin session token.
const SessionCookieName = "admin_session"

// sessionDuration is how long an admin login stays valid before the
// operator has to sign in again.
const sessionDuration = 12 * time.Hour

const issuer = "flinger-site"

// SessionService issues and validates the signed admin session tokens.
//
// Tokens are stateless JWTs (HS256): everything needed to validate one —
// username, expiry, a unique session id — lives inside the signed token,
// so there is no session table. Logout is cookie deletion; a stolen token
// stays valid until expiry, which is acceptable for a single-operator
// admin surface.
type SessionService struct {
	secret []byte
}

// NewSessionService creates a SessionService signing with the given secret.
// The secret should be at least 32 bytes of random data in production.
func NewSessionService(secret string) (*SessionService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	return &SessionService{secret: []byte(secret)}, nil
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

// Issue creates a signed session token for the given admin username.
// Each token carries a fresh xid as its ID, so individual sessions are
// distinguishable in logs.
func (s *SessionService) Issue(username string) (string, error) {
	now := time.Now()

	c := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        xid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionDuration)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing session token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a session token, returning the admin
// username it was issued to.
//
// jwt.WithValidMethods pins the algorithm to HS256 so a token claiming
// alg "none" is rejected outright.
func (s *SessionService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&sessionClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: session expired")
		}
		return "", fmt.Errorf("auth: invalid session token: %w", err)
	}

	c, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid session claims")
	}
	if c.Subject == "" {
		return "", fmt.Errorf("auth: session token has no subject")
	}
	return c.Subject, nil
}

// AdminCredentials is the single admin login checked at /api/admin/login.
//
// Password may be either a bcrypt hash (recognized by its "$2" prefix) or,
// for local development, a plaintext value compared in constant time.
type AdminCredentials struct {
	Username string
	Password string

	passwords *PasswordService
}

func NewAdminCredentials(username, password string, passwords *PasswordService) *AdminCredentials {
	return &AdminCredentials{Username: username, Password: password, passwords: passwords}
}

// Verify checks a login attempt. Both the username and password checks use
// constant-time comparison so a failed attempt leaks nothing about which
// field was wrong.
func (c *AdminCredentials) Verify(username, password string) error {
	if c.Username == "" || c.Password == "" {
		return errors.New("auth: admin credentials not configured")
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1

	var passOK bool
	if strings.HasPrefix(c.Password, "$2") {
		passOK = c.passwords.Verify(c.Password, password) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	}

	if !userOK || !passOK {
		return errors.New("auth: invalid username or password")
	}
	return nil
}
