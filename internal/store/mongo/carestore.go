package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"vitalia.org/internal/care"
	"vitalia.org/internal/ids"
)

// CareStore implements care.Service against the goals and reminders
// collections. Ownership is checked by reading the document first; the store
// guarantees atomicity only per document, which is all these operations need.
type CareStore struct {
	goals     *mongo.Collection
	reminders *mongo.Collection
}

var _ care.Service = (*CareStore)(nil)

func (s *CareStore) CreateGoal(ctx context.Context, userID string, in care.NewGoal) (care.Goal, error) {
	if err := in.Validate(); err != nil {
		return care.Goal{}, err
	}
	g := care.Goal{
		ID:          ids.New(),
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		TargetDate:  in.TargetDate,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.goals.InsertOne(ctx, g); err != nil {
		return care.Goal{}, err
	}
	return g, nil
}

func (s *CareStore) ListGoals(ctx context.Context, userID string) ([]care.Goal, error) {
	cursor, err := s.goals.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []care.Goal{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CareStore) GetGoal(ctx context.Context, userID, id string) (care.Goal, error) {
	var g care.Goal
	if err := s.findOwned(ctx, s.goals, userID, id, &g); err != nil {
		return care.Goal{}, err
	}
	return g, nil
}

func (s *CareStore) UpdateGoal(ctx context.Context, userID, id string, upd care.GoalUpdate) error {
	var g care.Goal
	if err := s.findOwned(ctx, s.goals, userID, id, &g); err != nil {
		return err
	}
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Title != nil {
		if *upd.Title == "" {
			return care.ErrInvalidInput
		}
		set["title"] = *upd.Title
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.TargetDate != nil {
		set["target_date"] = *upd.TargetDate
	}
	if upd.Completed != nil {
		set["completed"] = *upd.Completed
	}
	_, err := s.goals.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}

func (s *CareStore) DeleteGoal(ctx context.Context, userID, id string) error {
	var g care.Goal
	if err := s.findOwned(ctx, s.goals, userID, id, &g); err != nil {
		return err
	}
	_, err := s.goals.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *CareStore) CountGoals(ctx context.Context, userID string) (int64, error) {
	return s.goals.CountDocuments(ctx, bson.M{"user_id": userID})
}

func (s *CareStore) CreateReminder(ctx context.Context, userID string, in care.NewReminder) (care.Reminder, error) {
	if err := in.Validate(); err != nil {
		return care.Reminder{}, err
	}
	r := care.Reminder{
		ID:        ids.New(),
		UserID:    userID,
		Title:     in.Title,
		Message:   in.Message,
		RemindAt:  in.RemindAt,
		Repeat:    in.Repeat,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.reminders.InsertOne(ctx, r); err != nil {
		return care.Reminder{}, err
	}
	return r, nil
}

func (s *CareStore) ListReminders(ctx context.Context, userID string) ([]care.Reminder, error) {
	cursor, err := s.reminders.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "remind_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []care.Reminder{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CareStore) GetReminder(ctx context.Context, userID, id string) (care.Reminder, error) {
	var r care.Reminder
	if err := s.findOwned(ctx, s.reminders, userID, id, &r); err != nil {
		return care.Reminder{}, err
	}
	return r, nil
}

func (s *CareStore) UpdateReminder(ctx context.Context, userID, id string, upd care.ReminderUpdate) error {
	var r care.Reminder
	if err := s.findOwned(ctx, s.reminders, userID, id, &r); err != nil {
		return err
	}
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Title != nil {
		if *upd.Title == "" {
			return care.ErrInvalidInput
		}
		set["title"] = *upd.Title
	}
	if upd.Message != nil {
		set["message"] = *upd.Message
	}
	if upd.RemindAt != nil {
		set["remind_at"] = *upd.RemindAt
	}
	if upd.Repeat != nil {
		if !upd.Repeat.Valid() {
			return care.ErrInvalidInput
		}
		set["repeat"] = *upd.Repeat
	}
	_, err := s.reminders.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}

func (s *CareStore) DeleteReminder(ctx context.Context, userID, id string) error {
	var r care.Reminder
	if err := s.findOwned(ctx, s.reminders, userID, id, &r); err != nil {
		return err
	}
	_, err := s.reminders.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *CareStore) MarkReminderDone(ctx context.Context, userID, id string) error {
	var r care.Reminder
	if err := s.findOwned(ctx, s.reminders, userID, id, &r); err != nil {
		return err
	}
	_, err := s.reminders.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"done": true, "done_at": time.Now().UTC()}})
	return err
}

func (s *CareStore) CountOpenReminders(ctx context.Context, userID string) (int64, error) {
	return s.reminders.CountDocuments(ctx, bson.M{"user_id": userID, "done": false})
}

// findOwned decodes the document into dst and enforces ownership. The dst
// value must expose a user_id field via bson tags.
func (s *CareStore) findOwned(ctx context.Context, col *mongo.Collection, userID, id string, dst any) error {
	err := col.FindOne(ctx, bson.M{"_id": id}).Decode(dst)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return care.ErrNotFound
	}
	if err != nil {
		return err
	}
	var owner string
	switch v := dst.(type) {
	case *care.Goal:
		owner = v.UserID
	case *care.Reminder:
		owner = v.UserID
	}
	if owner != userID {
		return care.ErrForbidden
	}
	return nil
}
