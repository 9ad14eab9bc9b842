package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vitalia.org/internal/ids"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 24 * time.Hour * 14
)

// Service orchestrates registration, login, refresh rotation and logout.
// It holds no session state of its own: all session truth lives in the
// refresh-token ledger, so the service is safe to replicate.
type Service struct {
	store Store
	codec *Codec
	now   func() time.Time

	accessTTL  time.Duration
	refreshTTL time.Duration
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.accessTTL = ttl
		}
	}
}

// WithRefreshTTL configures refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
			s.codec.now = fn
		}
	}
}

// NewService constructs the session controller.
func NewService(store Store, codec *Codec, opts ...ServiceOption) *Service {
	svc := &Service{
		store:      store,
		codec:      codec,
		now:        time.Now,
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// AccessTTL reports the configured access token lifetime.
func (s *Service) AccessTTL() time.Duration { return s.accessTTL }

// Register creates a new identity record with a hashed password.
func (s *Service) Register(ctx context.Context, email, password string, role Role, ip string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidInput
	}
	if role == "" {
		role = RolePatient
	}
	if !role.Valid() || role == RoleAdmin {
		return nil, fmt.Errorf("%w: role %q", ErrInvalidInput, role)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &User{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Profile:      map[string]string{},
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	s.audit(ctx, user.ID, "register", email, ip)
	return user, nil
}

// Login verifies credentials and opens a new session. The failure mode is
// uniform: callers cannot tell an unknown email from a wrong password.
func (s *Service) Login(ctx context.Context, email, password, ip string) (Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	session, err := s.mintSession(ctx, user)
	if err != nil {
		return Session{}, err
	}
	s.audit(ctx, user.ID, "login", user.Email, ip)
	return session, nil
}

// Refresh rotates the presented refresh token: the old ledger entry is
// revoked and a fresh pair is issued. A replayed token fails hard with
// ErrRevokedOrExpired.
func (s *Service) Refresh(ctx context.Context, refreshToken, ip string) (Session, error) {
	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		return Session{}, fmt.Errorf("%w (%v)", ErrInvalidToken, err)
	}
	if claims.TokenKind != KindRefresh || claims.ID == "" {
		return Session{}, ErrInvalidToken
	}

	ledger := s.store.RefreshTokens()
	record, err := ledger.FindByJTI(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrRevokedOrExpired
		}
		return Session{}, err
	}
	if !record.IsUsable(s.now()) {
		return Session{}, ErrRevokedOrExpired
	}

	user, err := s.store.Users().Find(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrInvalidToken
		}
		return Session{}, err
	}

	// Rotation is revoke+create, two separate writes. A crash in between
	// leaves the old token revoked and no replacement; the client re-logs-in.
	// The revoke result arbitrates concurrent rotations of the same token:
	// only the call that actually flipped the flag may mint a session.
	revoked, err := ledger.Revoke(ctx, record.JTI, s.now().UTC())
	if err != nil {
		return Session{}, err
	}
	if !revoked {
		return Session{}, ErrRevokedOrExpired
	}
	session, err := s.mintSession(ctx, user)
	if err != nil {
		return Session{}, err
	}
	s.audit(ctx, user.ID, "refresh", record.JTI, ip)
	return session, nil
}

// Logout revokes the presented refresh token. It is best-effort: a token that
// cannot be decoded or is already revoked is left alone, since its unusability
// is already guaranteed. Logout never fails from the caller's perspective.
func (s *Service) Logout(ctx context.Context, refreshToken, ip string) {
	claims, err := s.codec.Decode(refreshToken)
	if err != nil || claims.TokenKind != KindRefresh || claims.ID == "" {
		return
	}
	revoked, err := s.store.RefreshTokens().Revoke(ctx, claims.ID, s.now().UTC())
	if err != nil || !revoked {
		return
	}
	s.audit(ctx, claims.Subject, "logout", claims.ID, ip)
}

// Authenticate resolves an access token to an identity view. It never touches
// the ledger: access token validity is purely cryptographic and time-based.
func (s *Service) Authenticate(ctx context.Context, token string) (Identity, error) {
	claims, err := s.codec.Decode(token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w (%v)", ErrInvalidCredential, err)
	}
	if claims.TokenKind != KindAccess {
		return Identity{}, ErrInvalidCredential
	}
	// The codec already rejects empty subjects, so claims.Subject is usable
	// as-is; an unknown subject still collapses into the uniform rejection.
	user, err := s.store.Users().Find(ctx, strings.TrimSpace(claims.Subject))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Identity{}, ErrInvalidCredential
		}
		return Identity{}, err
	}
	return user.Identity(), nil
}

// Profile returns the stored user record for the given id.
func (s *Service) Profile(ctx context.Context, userID string) (*User, error) {
	return s.store.Users().Find(ctx, userID)
}

// UpdateProfile applies a partial update to the user's profile map.
func (s *Service) UpdateProfile(ctx context.Context, userID string, fields map[string]string, ip string) error {
	if len(fields) == 0 {
		return ErrInvalidInput
	}
	if err := s.store.Users().SetProfileFields(ctx, userID, fields); err != nil {
		return err
	}
	s.audit(ctx, userID, "profile_update", userID, ip)
	return nil
}

// UpdateRole changes a user's role. Authorization (admin-only) is enforced at
// the boundary; the service validates the role value itself.
func (s *Service) UpdateRole(ctx context.Context, actorID, userID string, role Role, ip string) error {
	if !role.Valid() {
		return fmt.Errorf("%w: role %q", ErrInvalidInput, role)
	}
	if err := s.store.Users().UpdateRole(ctx, userID, role); err != nil {
		return err
	}
	s.audit(ctx, actorID, "role_update", userID, ip)
	return nil
}

const assignedProviderKey = "assigned_provider_id"

// AssignPatient links a patient to the acting provider via the patient's
// profile. The patient must exist and hold the patient role.
func (s *Service) AssignPatient(ctx context.Context, providerID, patientID, ip string) error {
	patient, err := s.store.Users().Find(ctx, patientID)
	if err != nil {
		return err
	}
	if patient.Role != RolePatient {
		return fmt.Errorf("%w: %s is not a patient", ErrInvalidInput, patientID)
	}
	fields := map[string]string{assignedProviderKey: providerID}
	if err := s.store.Users().SetProfileFields(ctx, patientID, fields); err != nil {
		return err
	}
	s.audit(ctx, providerID, "assign_patient", patientID, ip)
	return nil
}

// ErrNotAssigned is returned when a provider unassigns a patient that is not
// currently theirs.
var ErrNotAssigned = errors.New("auth: patient not assigned to this provider")

// UnassignPatient removes the link, but only for the currently assigned
// provider.
func (s *Service) UnassignPatient(ctx context.Context, providerID, patientID, ip string) error {
	patient, err := s.store.Users().Find(ctx, patientID)
	if err != nil {
		return err
	}
	if patient.Role != RolePatient {
		return fmt.Errorf("%w: %s is not a patient", ErrInvalidInput, patientID)
	}
	if patient.Profile[assignedProviderKey] != providerID {
		return ErrNotAssigned
	}
	if err := s.store.Users().UnsetProfileField(ctx, patientID, assignedProviderKey); err != nil {
		return err
	}
	s.audit(ctx, providerID, "unassign_patient", patientID, ip)
	return nil
}

// PatientsOf lists the patients assigned to a provider.
func (s *Service) PatientsOf(ctx context.Context, providerID string) ([]*User, error) {
	return s.store.Users().ListPatientsByProvider(ctx, providerID)
}

func (s *Service) mintSession(ctx context.Context, user *User) (Session, error) {
	accessToken, accessExp, err := s.codec.IssueAccess(user.ID, s.accessTTL)
	if err != nil {
		return Session{}, err
	}
	refreshToken, jti, refreshExp, err := s.codec.IssueRefresh(user.ID, s.refreshTTL)
	if err != nil {
		return Session{}, err
	}
	record := &RefreshToken{
		ID:        ids.New(),
		UserID:    user.ID,
		JTI:       jti,
		Token:     refreshToken,
		CreatedAt: s.now().UTC(),
		ExpiresAt: refreshExp,
	}
	if err := s.store.RefreshTokens().Create(ctx, record); err != nil {
		return Session{}, err
	}
	return Session{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExp,
		User:             user.Identity(),
	}, nil
}

// audit appends an entry best-effort; a failed audit write never fails the
// operation that triggered it.
func (s *Service) audit(ctx context.Context, actorID, action, target, ip string) {
	_ = s.store.Audit().Append(ctx, &AuditEntry{
		ID:        ids.New(),
		ActorID:   actorID,
		Action:    action,
		Target:    target,
		IP:        ip,
		Timestamp: s.now().UTC(),
	})
}
