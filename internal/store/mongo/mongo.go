// Package mongo implements the persistence layer against a MongoDB
// deployment. Atomic single-document updates are the only consistency
// primitive relied on.
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"vitalia.org/internal/auth"
)

// Collection names owned or consumed by this service.
const (
	colUsers         = "users"
	colRefreshTokens = "refresh_tokens"
	colAuditLogs     = "audit_logs"
	colGoals         = "goals"
	colReminders     = "reminders"
)

// Store wraps a Mongo database handle. It is constructed once in main and
// injected into the services that need it; there is no package-level client.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ auth.Store = (*Store)(nil)

// Open connects, pings, and ensures the indexes this service depends on.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	s := &Store{client: client, db: client.Database(database)}
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo indexes: %w", err)
	}
	return s, nil
}

// Ping verifies connectivity; used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close releases the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Users() auth.UserStore                 { return &userStore{col: s.db.Collection(colUsers)} }
func (s *Store) RefreshTokens() auth.RefreshTokenStore { return &tokenStore{col: s.db.Collection(colRefreshTokens)} }
func (s *Store) Audit() auth.AuditStore                { return &auditStore{col: s.db.Collection(colAuditLogs)} }

// Care returns the goals/reminders service backed by this database.
func (s *Store) Care() *CareStore {
	return &CareStore{
		goals:     s.db.Collection(colGoals),
		reminders: s.db.Collection(colReminders),
	}
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	users := s.db.Collection(colUsers)
	if _, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "profile.assigned_provider_id", Value: 1}}},
	}); err != nil {
		return err
	}

	tokens := s.db.Collection(colRefreshTokens)
	if _, err := tokens.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "jti", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	}); err != nil {
		return err
	}

	for _, name := range []string{colGoals, colReminders} {
		col := s.db.Collection(name)
		if _, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		}); err != nil {
			return err
		}
	}
	return nil
}
