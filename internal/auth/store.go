package auth

import (
	"context"
	"time"
)

// Store describes persistence operations required by the auth subsystem.
type Store interface {
	Users() UserStore
	RefreshTokens() RefreshTokenStore
	Audit() AuditStore
}

// UserStore manages identity records.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// SetProfileFields applies a partial update to the user's profile map.
	SetProfileFields(ctx context.Context, id string, fields map[string]string) error
	// UnsetProfileField removes a single profile key if present.
	UnsetProfileField(ctx context.Context, id, key string) error
	// ListPatientsByProvider returns patients whose profile assigns them to
	// the given provider.
	ListPatientsByProvider(ctx context.Context, providerID string) ([]*User, error)
	UpdateRole(ctx context.Context, id string, role Role) error
}

// RefreshTokenStore is the ledger of refresh-token issuances. Entries are
// inserted on login/rotation and only ever mutated by flipping the revoked
// flag; nothing is deleted.
type RefreshTokenStore interface {
	Create(ctx context.Context, rt *RefreshToken) error
	FindByJTI(ctx context.Context, jti string) (*RefreshToken, error)
	// Revoke marks the entry revoked with the given timestamp and reports
	// whether this call flipped the flag. An already-revoked or unknown jti
	// is not an error, but reports false: rotation uses the result as the
	// tie-breaker when two calls race over the same token.
	Revoke(ctx context.Context, jti string, at time.Time) (bool, error)
}

// AuditStore appends immutable entries.
type AuditStore interface {
	Append(ctx context.Context, entry *AuditEntry) error
}
