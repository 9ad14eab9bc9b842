package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token kind discriminators embedded in every issued token.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Claims is the verified claim set carried by Vitalia tokens.
type Claims struct {
	TokenKind string `json:"token_type"`
	jwt.RegisteredClaims
}

// Codec signs and verifies HS256 tokens with a single process-wide secret.
// The secret is injected at construction so it can be rotated by restarting
// with new configuration.
type Codec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewCodec builds a Codec. The secret must not be empty.
func NewCodec(secret []byte, issuer string) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: signing secret is required")
	}
	return &Codec{secret: secret, issuer: issuer, now: time.Now}, nil
}

// IssueAccess mints a short-lived access token for the subject.
func (c *Codec) IssueAccess(subject string, ttl time.Duration) (string, time.Time, error) {
	token, _, expiresAt, err := c.issue(subject, KindAccess, ttl)
	return token, expiresAt, err
}

// IssueRefresh mints a refresh token with a fresh jti identifying this
// issuance for ledger lookup.
func (c *Codec) IssueRefresh(subject string, ttl time.Duration) (token, jti string, expiresAt time.Time, err error) {
	return c.issue(subject, KindRefresh, ttl)
}

func (c *Codec) issue(subject, kind string, ttl time.Duration) (string, string, time.Time, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", "", time.Time{}, errors.New("auth: subject is required")
	}
	if ttl <= 0 {
		return "", "", time.Time{}, errors.New("auth: ttl must be greater than zero")
	}

	now := c.now().UTC()
	expiresAt := now.Add(ttl)
	jti := uuid.NewString()
	claims := Claims{
		TokenKind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        jti,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, jti, expiresAt, nil
}

// Decode verifies signature and expiry and returns the claim set. Failures
// are reported as ErrTokenExpired, ErrTokenSignature or ErrTokenMalformed so
// callers can log the cause while answering the client uniformly.
func (c *Codec) Decode(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenMalformed
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrTokenSignature
		}
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignature
		default:
			return nil, ErrTokenMalformed
		}
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenMalformed
	}
	if err := c.validateClaims(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (c *Codec) validateClaims(claims *Claims) error {
	if c.issuer != "" && claims.Issuer != c.issuer {
		return ErrTokenMalformed
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return ErrTokenMalformed
	}
	if claims.TokenKind != KindAccess && claims.TokenKind != KindRefresh {
		return ErrTokenMalformed
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return ErrTokenMalformed
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return ErrTokenMalformed
	}
	if c.now().UTC().After(claims.ExpiresAt.Time) {
		return ErrTokenExpired
	}
	return nil
}
