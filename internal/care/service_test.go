package care

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGoalLifecycle(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	g, err := s.CreateGoal(ctx, "u1", NewGoal{Title: "walk 10k steps", Description: "daily walk"})
	if err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}
	if g.Completed {
		t.Fatal("new goal should not be completed")
	}

	got, err := s.GetGoal(ctx, "u1", g.ID)
	if err != nil {
		t.Fatalf("GetGoal: %v", err)
	}
	if got.Title != "walk 10k steps" {
		t.Fatalf("unexpected title: %s", got.Title)
	}

	done := true
	if err := s.UpdateGoal(ctx, "u1", g.ID, GoalUpdate{Completed: &done}); err != nil {
		t.Fatalf("UpdateGoal: %v", err)
	}
	got, _ = s.GetGoal(ctx, "u1", g.ID)
	if !got.Completed || got.UpdatedAt == nil {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := s.DeleteGoal(ctx, "u1", g.ID); err != nil {
		t.Fatalf("DeleteGoal: %v", err)
	}
	if _, err := s.GetGoal(ctx, "u1", g.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestGoalOwnership(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	g, err := s.CreateGoal(ctx, "u1", NewGoal{Title: "sleep 8h"})
	if err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}

	if _, err := s.GetGoal(ctx, "u2", g.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := s.DeleteGoal(ctx, "u2", g.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := s.GetGoal(ctx, "u2", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListGoalsNewestFirst(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 3; i++ {
		offset := time.Duration(i) * time.Hour
		s.now = func() time.Time { return base.Add(offset) }
		if _, err := s.CreateGoal(ctx, "u1", NewGoal{Title: "goal"}); err != nil {
			t.Fatalf("CreateGoal: %v", err)
		}
	}
	s.now = time.Now

	list, err := s.ListGoals(ctx, "u1")
	if err != nil {
		t.Fatalf("ListGoals: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 goals, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].CreatedAt.After(list[i-1].CreatedAt) {
			t.Fatal("goals not sorted newest first")
		}
	}
}

func TestCreateGoalValidation(t *testing.T) {
	s := NewInMemory()
	if _, err := s.CreateGoal(context.Background(), "u1", NewGoal{Title: "   "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestReminderLifecycle(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	r, err := s.CreateReminder(ctx, "u1", NewReminder{
		Title:    "take medication",
		Message:  "with breakfast",
		RemindAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}
	if r.Repeat != RepeatNone {
		t.Fatalf("expected repeat default none, got %s", r.Repeat)
	}

	if err := s.MarkReminderDone(ctx, "u1", r.ID); err != nil {
		t.Fatalf("MarkReminderDone: %v", err)
	}
	got, err := s.GetReminder(ctx, "u1", r.ID)
	if err != nil {
		t.Fatalf("GetReminder: %v", err)
	}
	if !got.Done || got.DoneAt == nil {
		t.Fatalf("done not recorded: %+v", got)
	}

	n, err := s.CountOpenReminders(ctx, "u1")
	if err != nil {
		t.Fatalf("CountOpenReminders: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 open reminders, got %d", n)
	}
}

func TestReminderValidation(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	if _, err := s.CreateReminder(ctx, "u1", NewReminder{Title: "x"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("missing remind_at: expected ErrInvalidInput, got %v", err)
	}
	if _, err := s.CreateReminder(ctx, "u1", NewReminder{
		Title:    "x",
		RemindAt: time.Now(),
		Repeat:   Repeat("fortnightly"),
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("bad repeat: expected ErrInvalidInput, got %v", err)
	}
}

func TestListRemindersSoonestFirst(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	base := time.Now()
	for _, offset := range []time.Duration{3 * time.Hour, time.Hour, 2 * time.Hour} {
		if _, err := s.CreateReminder(ctx, "u1", NewReminder{
			Title:    "r",
			RemindAt: base.Add(offset),
		}); err != nil {
			t.Fatalf("CreateReminder: %v", err)
		}
	}

	list, err := s.ListReminders(ctx, "u1")
	if err != nil {
		t.Fatalf("ListReminders: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 reminders, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].RemindAt.Before(list[i-1].RemindAt) {
			t.Fatal("reminders not sorted by remind_at ascending")
		}
	}
}

func TestCountsAreScopedToUser(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	if _, err := s.CreateGoal(ctx, "u1", NewGoal{Title: "a"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateGoal(ctx, "u2", NewGoal{Title: "b"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateReminder(ctx, "u2", NewReminder{Title: "r", RemindAt: time.Now()}); err != nil {
		t.Fatal(err)
	}

	if n, _ := s.CountGoals(ctx, "u1"); n != 1 {
		t.Fatalf("expected 1 goal for u1, got %d", n)
	}
	if n, _ := s.CountOpenReminders(ctx, "u1"); n != 0 {
		t.Fatalf("expected 0 reminders for u1, got %d", n)
	}
	if n, _ := s.CountOpenReminders(ctx, "u2"); n != 1 {
		t.Fatalf("expected 1 reminder for u2, got %d", n)
	}
}
