package care

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"vitalia.org/internal/ids"
)

// Service defines goal and reminder operations. Every call is scoped to the
// acting user: reads and writes against somebody else's document fail with
// ErrForbidden.
type Service interface {
	CreateGoal(ctx context.Context, userID string, in NewGoal) (Goal, error)
	ListGoals(ctx context.Context, userID string) ([]Goal, error)
	GetGoal(ctx context.Context, userID, id string) (Goal, error)
	UpdateGoal(ctx context.Context, userID, id string, upd GoalUpdate) error
	DeleteGoal(ctx context.Context, userID, id string) error
	CountGoals(ctx context.Context, userID string) (int64, error)

	CreateReminder(ctx context.Context, userID string, in NewReminder) (Reminder, error)
	ListReminders(ctx context.Context, userID string) ([]Reminder, error)
	GetReminder(ctx context.Context, userID, id string) (Reminder, error)
	UpdateReminder(ctx context.Context, userID, id string, upd ReminderUpdate) error
	DeleteReminder(ctx context.Context, userID, id string) error
	MarkReminderDone(ctx context.Context, userID, id string) error
	CountOpenReminders(ctx context.Context, userID string) (int64, error)
}

// Validate checks the creation payload.
func (in NewGoal) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	return nil
}

// Validate checks the creation payload and defaults the cadence to none.
func (in *NewReminder) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.RemindAt.IsZero() {
		return fmt.Errorf("%w: remind_at is required", ErrInvalidInput)
	}
	if in.Repeat == "" {
		in.Repeat = RepeatNone
	}
	if !in.Repeat.Valid() {
		return fmt.Errorf("%w: repeat %q", ErrInvalidInput, in.Repeat)
	}
	return nil
}

// InMemory implements Service with in-process concurrency safety. It backs
// local development and tests; production uses the document store.
type InMemory struct {
	mu        sync.RWMutex
	goals     map[string]*Goal
	reminders map[string]*Reminder
	now       func() time.Time
}

// NewInMemory creates an empty care service.
func NewInMemory() *InMemory {
	return &InMemory{
		goals:     make(map[string]*Goal),
		reminders: make(map[string]*Reminder),
		now:       time.Now,
	}
}

var _ Service = (*InMemory)(nil)

func (s *InMemory) CreateGoal(ctx context.Context, userID string, in NewGoal) (Goal, error) {
	if err := in.Validate(); err != nil {
		return Goal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g := &Goal{
		ID:          ids.New(),
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		TargetDate:  in.TargetDate,
		CreatedAt:   s.now().UTC(),
	}
	s.goals[g.ID] = g
	return *g, nil
}

func (s *InMemory) ListGoals(ctx context.Context, userID string) ([]Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Goal{}
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, *g)
		}
	}
	// Newest first.
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) GetGoal(ctx context.Context, userID, id string) (Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, err := s.ownedGoal(userID, id)
	if err != nil {
		return Goal{}, err
	}
	return *g, nil
}

func (s *InMemory) UpdateGoal(ctx context.Context, userID, id string, upd GoalUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.ownedGoal(userID, id)
	if err != nil {
		return err
	}
	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
		}
		g.Title = *upd.Title
	}
	if upd.Description != nil {
		g.Description = *upd.Description
	}
	if upd.TargetDate != nil {
		g.TargetDate = upd.TargetDate
	}
	if upd.Completed != nil {
		g.Completed = *upd.Completed
	}
	now := s.now().UTC()
	g.UpdatedAt = &now
	return nil
}

func (s *InMemory) DeleteGoal(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.ownedGoal(userID, id); err != nil {
		return err
	}
	delete(s.goals, id)
	return nil
}

func (s *InMemory) CountGoals(ctx context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, g := range s.goals {
		if g.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *InMemory) CreateReminder(ctx context.Context, userID string, in NewReminder) (Reminder, error) {
	if err := in.Validate(); err != nil {
		return Reminder{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &Reminder{
		ID:        ids.New(),
		UserID:    userID,
		Title:     in.Title,
		Message:   in.Message,
		RemindAt:  in.RemindAt,
		Repeat:    in.Repeat,
		CreatedAt: s.now().UTC(),
	}
	s.reminders[r.ID] = r
	return *r, nil
}

func (s *InMemory) ListReminders(ctx context.Context, userID string) ([]Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Reminder{}
	for _, r := range s.reminders {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	// Soonest first.
	sort.Slice(out, func(i, j int) bool { return out[i].RemindAt.Before(out[j].RemindAt) })
	return out, nil
}

func (s *InMemory) GetReminder(ctx context.Context, userID, id string) (Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, err := s.ownedReminder(userID, id)
	if err != nil {
		return Reminder{}, err
	}
	return *r, nil
}

func (s *InMemory) UpdateReminder(ctx context.Context, userID, id string, upd ReminderUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.ownedReminder(userID, id)
	if err != nil {
		return err
	}
	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
		}
		r.Title = *upd.Title
	}
	if upd.Message != nil {
		r.Message = *upd.Message
	}
	if upd.RemindAt != nil {
		r.RemindAt = *upd.RemindAt
	}
	if upd.Repeat != nil {
		if !upd.Repeat.Valid() {
			return fmt.Errorf("%w: repeat %q", ErrInvalidInput, *upd.Repeat)
		}
		r.Repeat = *upd.Repeat
	}
	now := s.now().UTC()
	r.UpdatedAt = &now
	return nil
}

func (s *InMemory) DeleteReminder(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.ownedReminder(userID, id); err != nil {
		return err
	}
	delete(s.reminders, id)
	return nil
}

func (s *InMemory) MarkReminderDone(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.ownedReminder(userID, id)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	r.Done = true
	r.DoneAt = &now
	return nil
}

func (s *InMemory) CountOpenReminders(ctx context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, r := range s.reminders {
		if r.UserID == userID && !r.Done {
			n++
		}
	}
	return n, nil
}

func (s *InMemory) ownedGoal(userID, id string) (*Goal, error) {
	g, ok := s.goals[id]
	if !ok {
		return nil, ErrNotFound
	}
	if g.UserID != userID {
		return nil, ErrForbidden
	}
	return g, nil
}

func (s *InMemory) ownedReminder(userID, id string) (*Reminder, error) {
	r, ok := s.reminders[id]
	if !ok {
		return nil, ErrNotFound
	}
	if r.UserID != userID {
		return nil, ErrForbidden
	}
	return r, nil
}
