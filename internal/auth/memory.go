package auth

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore implements Store with in-process concurrency safety. It backs
// local development and tests; production uses the document store.
type InMemoryStore struct {
	mu      sync.RWMutex
	users   map[string]*User
	byEmail map[string]string
	tokens  map[string]*RefreshToken
	entries []AuditEntry
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:   make(map[string]*User),
		byEmail: make(map[string]string),
		tokens:  make(map[string]*RefreshToken),
	}
}

func (s *InMemoryStore) Users() UserStore                 { return (*memUsers)(s) }
func (s *InMemoryStore) RefreshTokens() RefreshTokenStore { return (*memTokens)(s) }
func (s *InMemoryStore) Audit() AuditStore                { return (*memAudit)(s) }

// AuditEntries returns a copy of all appended entries, oldest first.
func (s *InMemoryStore) AuditEntries() []AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]AuditEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

type memUsers InMemoryStore

func (m *memUsers) Create(ctx context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[u.Email]; ok {
		return ErrEmailTaken
	}
	cp := *u
	if cp.Profile == nil {
		cp.Profile = map[string]string{}
	}
	m.users[cp.ID] = &cp
	m.byEmail[cp.Email] = cp.ID
	return nil
}

func (m *memUsers) Find(ctx context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(m.users[id]), nil
}

func (m *memUsers) SetProfileFields(ctx context.Context, id string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range fields {
		u.Profile[k] = v
	}
	return nil
}

func (m *memUsers) UnsetProfileField(ctx context.Context, id, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	delete(u.Profile, key)
	return nil
}

func (m *memUsers) ListPatientsByProvider(ctx context.Context, providerID string) ([]*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*User
	for _, u := range m.users {
		if u.Role == RolePatient && u.Profile[assignedProviderKey] == providerID {
			out = append(out, copyUser(u))
		}
	}
	return out, nil
}

func (m *memUsers) UpdateRole(ctx context.Context, id string, role Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Role = role
	return nil
}

type memTokens InMemoryStore

func (m *memTokens) Create(ctx context.Context, rt *RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rt
	m.tokens[cp.JTI] = &cp
	return nil
}

func (m *memTokens) FindByJTI(ctx context.Context, jti string) (*RefreshToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rt, ok := m.tokens[jti]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rt
	return &cp, nil
}

func (m *memTokens) Revoke(ctx context.Context, jti string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt, ok := m.tokens[jti]
	if !ok || rt.Revoked {
		return false, nil
	}
	rt.Revoked = true
	rt.RevokedAt = &at
	return true, nil
}

type memAudit InMemoryStore

func (m *memAudit) Append(ctx context.Context, entry *AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

func copyUser(u *User) *User {
	cp := *u
	cp.Profile = make(map[string]string, len(u.Profile))
	for k, v := range u.Profile {
		cp.Profile[k] = v
	}
	return &cp
}
