package care

import (
	"errors"
	"time"
)

// Repeat is the recurrence cadence of a reminder.
type Repeat string

const (
	RepeatNone    Repeat = "none"
	RepeatDaily   Repeat = "daily"
	RepeatWeekly  Repeat = "weekly"
	RepeatMonthly Repeat = "monthly"
)

// Valid reports whether the cadence is a known value.
func (r Repeat) Valid() bool {
	switch r {
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly:
		return true
	}
	return false
}

// Goal is a patient health goal.
type Goal struct {
	ID          string     `bson:"_id" json:"id"`
	UserID      string     `bson:"user_id" json:"user_id"`
	Title       string     `bson:"title" json:"title"`
	Description string     `bson:"description" json:"description"`
	TargetDate  *time.Time `bson:"target_date,omitempty" json:"target_date,omitempty"`
	Completed   bool       `bson:"completed" json:"completed"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// Reminder is a preventive-care reminder.
type Reminder struct {
	ID        string     `bson:"_id" json:"id"`
	UserID    string     `bson:"user_id" json:"user_id"`
	Title     string     `bson:"title" json:"title"`
	Message   string     `bson:"message" json:"message"`
	RemindAt  time.Time  `bson:"remind_at" json:"remind_at"`
	Repeat    Repeat     `bson:"repeat" json:"repeat"`
	Done      bool       `bson:"done" json:"done"`
	DoneAt    *time.Time `bson:"done_at,omitempty" json:"done_at,omitempty"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// NewGoal carries the fields accepted on goal creation.
type NewGoal struct {
	Title       string
	Description string
	TargetDate  *time.Time
}

// GoalUpdate is a partial goal update; nil fields are left untouched.
type GoalUpdate struct {
	Title       *string
	Description *string
	TargetDate  *time.Time
	Completed   *bool
}

// NewReminder carries the fields accepted on reminder creation.
type NewReminder struct {
	Title    string
	Message  string
	RemindAt time.Time
	Repeat   Repeat
}

// ReminderUpdate is a partial reminder update; nil fields are left untouched.
type ReminderUpdate struct {
	Title    *string
	Message  *string
	RemindAt *time.Time
	Repeat   *Repeat
}

var (
	ErrNotFound     = errors.New("care: not found")
	ErrForbidden    = errors.New("care: not the owner")
	ErrInvalidInput = errors.New("care: invalid input")
)
