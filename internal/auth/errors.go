package auth

import "errors"

var (
	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("auth: not found")
	// ErrEmailTaken is returned on registration with an already-used email.
	ErrEmailTaken = errors.New("auth: email already registered")
	// ErrInvalidInput covers caller-supplied values that fail validation.
	ErrInvalidInput = errors.New("auth: invalid input")

	// ErrInvalidCredentials is the uniform login failure. It deliberately does
	// not distinguish unknown email from wrong password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrMalformedCredential means the bearer header was present but unusable.
	ErrMalformedCredential = errors.New("auth: malformed credential")
	// ErrInvalidCredential is the uniform access-token rejection surfaced to
	// callers; the underlying codec error carries the specific cause.
	ErrInvalidCredential = errors.New("auth: invalid or expired credential")

	// ErrInvalidToken is the uniform refresh-token rejection.
	ErrInvalidToken = errors.New("auth: invalid or expired token")
	// ErrRevokedOrExpired means the ledger refused the presented refresh token.
	ErrRevokedOrExpired = errors.New("auth: refresh token revoked or expired")

	// Codec failure kinds. Kept distinct for logging; handlers collapse them
	// into the uniform errors above before answering the client.
	ErrTokenMalformed = errors.New("auth: token malformed")
	ErrTokenExpired   = errors.New("auth: token expired")
	ErrTokenSignature = errors.New("auth: token signature invalid")
)
