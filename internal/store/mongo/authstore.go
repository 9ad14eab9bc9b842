package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"vitalia.org/internal/auth"
)

type userStore struct {
	col *mongo.Collection
}

func (s *userStore) Create(ctx context.Context, u *auth.User) error {
	_, err := s.col.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return auth.ErrEmailTaken
	}
	return err
}

func (s *userStore) Find(ctx context.Context, id string) (*auth.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *userStore) findOne(ctx context.Context, filter bson.M) (*auth.User, error) {
	var u auth.User
	err := s.col.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if u.Profile == nil {
		u.Profile = map[string]string{}
	}
	return &u, nil
}

func (s *userStore) SetProfileFields(ctx context.Context, id string, fields map[string]string) error {
	set := bson.M{}
	for k, v := range fields {
		set["profile."+k] = v
	}
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *userStore) UnsetProfileField(ctx context.Context, id, key string) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$unset": bson.M{"profile." + key: ""}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *userStore) ListPatientsByProvider(ctx context.Context, providerID string) ([]*auth.User, error) {
	filter := bson.M{
		"role":                         auth.RolePatient,
		"profile.assigned_provider_id": providerID,
	}
	cursor, err := s.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*auth.User
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *userStore) UpdateRole(ctx context.Context, id string, role auth.Role) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"role": role}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return auth.ErrNotFound
	}
	return nil
}

type tokenStore struct {
	col *mongo.Collection
}

func (s *tokenStore) Create(ctx context.Context, rt *auth.RefreshToken) error {
	_, err := s.col.InsertOne(ctx, rt)
	return err
}

func (s *tokenStore) FindByJTI(ctx context.Context, jti string) (*auth.RefreshToken, error) {
	var rt auth.RefreshToken
	err := s.col.FindOne(ctx, bson.M{"jti": jti}).Decode(&rt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// Revoke flips the revoked flag. The filter excludes already-revoked entries,
// making the update a compare-and-swap: exactly one of two racing calls sees
// ModifiedCount 1, and the original revoked_at is never overwritten.
func (s *tokenStore) Revoke(ctx context.Context, jti string, at time.Time) (bool, error) {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"jti": jti, "revoked": false},
		bson.M{"$set": bson.M{"revoked": true, "revoked_at": at}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

type auditStore struct {
	col *mongo.Collection
}

func (s *auditStore) Append(ctx context.Context, entry *auth.AuditEntry) error {
	_, err := s.col.InsertOne(ctx, entry)
	return err
}
