package auth

import "time"

// Role is the closed set of account roles.
type Role string

const (
	RolePatient  Role = "patient"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleProvider, RoleAdmin:
		return true
	}
	return false
}

// User is the persisted identity record. Password hashes never leave the
// store layer except through this struct, and are never serialized.
type User struct {
	ID           string            `bson:"_id" json:"id"`
	Email        string            `bson:"email" json:"email"`
	PasswordHash string            `bson:"password_hash" json:"-"`
	Role         Role              `bson:"role" json:"role"`
	Profile      map[string]string `bson:"profile" json:"profile"`
	CreatedAt    time.Time         `bson:"created_at" json:"created_at"`
}

// Identity is the fixed-shape read-only view of an authenticated user,
// produced by the authentication gate and consumed by authorization checks.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Identity returns the view handed to request handling.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Role: u.Role}
}

// RefreshToken is one persisted refresh-token issuance. Entries are never
// deleted; revocation flips the flag and the record stays as audit trail.
type RefreshToken struct {
	ID        string     `bson:"_id" json:"id"`
	UserID    string     `bson:"user_id" json:"user_id"`
	JTI       string     `bson:"jti" json:"jti"`
	Token     string     `bson:"token" json:"-"`
	Revoked   bool       `bson:"revoked" json:"revoked"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	ExpiresAt time.Time  `bson:"expires_at" json:"expires_at"`
	RevokedAt *time.Time `bson:"revoked_at,omitempty" json:"revoked_at,omitempty"`
}

// IsUsable reports whether the entry can still mint new access tokens.
func (rt *RefreshToken) IsUsable(now time.Time) bool {
	if rt == nil {
		return false
	}
	return !rt.Revoked && now.Before(rt.ExpiresAt)
}

// AuditEntry is an append-only record of a security-relevant action.
type AuditEntry struct {
	ID        string    `bson:"_id" json:"id"`
	ActorID   string    `bson:"actor_id" json:"actor_id"`
	Action    string    `bson:"action" json:"action"`
	Target    string    `bson:"target" json:"target"`
	IP        string    `bson:"ip" json:"ip"`
	Timestamp time.Time `bson:"ts" json:"ts"`
}

// Session is the result of a successful login or refresh.
type Session struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	User             Identity
}
