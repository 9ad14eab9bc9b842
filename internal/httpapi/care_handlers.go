package httpapi

import (
	"net/http"
	"strings"
	"time"

	"vitalia.org/internal/audit"
	"vitalia.org/internal/auth"
	"vitalia.org/internal/care"
)

type createGoalRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	TargetDate  *time.Time `json:"target_date"`
}

type updateGoalRequest struct {
	Title       *string    `json:"title" validate:"omitempty,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	TargetDate  *time.Time `json:"target_date"`
	Completed   *bool      `json:"completed"`
}

type createReminderRequest struct {
	Title    string    `json:"title" validate:"required,max=200"`
	Message  string    `json:"message" validate:"max=2000"`
	RemindAt time.Time `json:"remind_at" validate:"required"`
	Repeat   string    `json:"repeat" validate:"omitempty,oneof=none daily weekly monthly"`
}

type updateReminderRequest struct {
	Title    *string    `json:"title" validate:"omitempty,max=200"`
	Message  *string    `json:"message" validate:"omitempty,max=2000"`
	RemindAt *time.Time `json:"remind_at"`
	Repeat   *string    `json:"repeat" validate:"omitempty,oneof=none daily weekly monthly"`
}

type listGoalsResponse struct {
	Items []care.Goal `json:"items"`
}

type listRemindersResponse struct {
	Items []care.Reminder `json:"items"`
}

func (a *API) handleGoalsCollection(w http.ResponseWriter, r *http.Request) {
	ident, ok := a.authorize(w, r, auth.RoleIs(auth.RolePatient))
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		items, err := a.care.ListGoals(r.Context(), ident.ID)
		if err != nil {
			handleCareError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, listGoalsResponse{Items: items})
	case http.MethodPost:
		var req createGoalRequest
		if err := decodeValid(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		goal, err := a.care.CreateGoal(r.Context(), ident.ID, care.NewGoal{
			Title:       req.Title,
			Description: req.Description,
			TargetDate:  req.TargetDate,
		})
		if err != nil {
			handleCareError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "goal.create", map[string]any{"goal_id": goal.ID})
		w.Header().Set("Location", "/v1/goals/"+goal.ID)
		writeJSON(w, http.StatusCreated, goal)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleGoalResource(w http.ResponseWriter, r *http.Request) {
	ident, ok := a.authorize(w, r, auth.RoleIs(auth.RolePatient))
	if !ok {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/goals/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		goal, err := a.care.GetGoal(r.Context(), ident.ID, id)
		if err != nil {
			handleCareError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, goal)
	case http.MethodPatch:
		var req updateGoalRequest
		if err := decodeValid(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		upd := care.GoalUpdate{
			Title:       req.Title,
			Description: req.Description,
			TargetDate:  req.TargetDate,
			Completed:   req.Completed,
		}
		if err := a.care.UpdateGoal(r.Context(), ident.ID, id, upd); err != nil {
			handleCareError(w, r, err)
			return
		}
		goal, err := a.care.GetGoal(r.Context(), ident.ID, id)
		if err != nil {
			handleCareError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, goal)
	case http.MethodDelete:
		if err := a.care.DeleteGoal(r.Context(), ident.ID, id); err != nil {
			handleCareError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "goal.delete", map[string]any{"goal_id": id})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) handleRemindersCollection(w http.ResponseWriter, r *http.Request) {
	ident, ok := a.authorize(w, r, auth.RoleIs(auth.RolePatient))
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		items, err := a.care.ListReminders(r.Context(), ident.ID)
		if err != nil {
			handleCareError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, listRemindersResponse{Items: items})
	case http.MethodPost:
		var req createReminderRequest
		if err := decodeValid(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		rem, err := a.care.CreateReminder(r.Context(), ident.ID, care.NewReminder{
			Title:    req.Title,
			Message:  req.Message,
			RemindAt: req.RemindAt,
			Repeat:   care.Repeat(req.Repeat),
		})
		if err != nil {
			handleCareError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "reminder.create", map[string]any{"reminder_id": rem.ID})
		w.Header().Set("Location", "/v1/reminders/"+rem.ID)
		writeJSON(w, http.StatusCreated, rem)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleReminderResource(w http.ResponseWriter, r *http.Request) {
	ident, ok := a.authorize(w, r, auth.RoleIs(auth.RolePatient))
	if !ok {
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/v1/reminders/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if strings.HasSuffix(path, "/done") {
		id := strings.TrimSuffix(strings.TrimSuffix(path, "/done"), "/")
		if id == "" || strings.Contains(id, "/") {
			writeError(w, r, http.StatusNotFound, "resource not found")
			return
		}
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		if err := a.care.MarkReminderDone(r.Context(), ident.ID, id); err != nil {
			handleCareError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "reminder.done", map[string]any{"reminder_id": id})
		rem, err := a.care.GetReminder(r.Context(), ident.ID, id)
		if err != nil {
			handleCareError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rem)
		return
	}

	if strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		rem, err := a.care.GetReminder(r.Context(), ident.ID, path)
		if err != nil {
			handleCareError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rem)
	case http.MethodPatch:
		var req updateReminderRequest
		if err := decodeValid(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		upd := care.ReminderUpdate{
			Title:    req.Title,
			Message:  req.Message,
			RemindAt: req.RemindAt,
		}
		if req.Repeat != nil {
			rep := care.Repeat(*req.Repeat)
			upd.Repeat = &rep
		}
		if err := a.care.UpdateReminder(r.Context(), ident.ID, path, upd); err != nil {
			handleCareError(w, r, err)
			return
		}
		rem, err := a.care.GetReminder(r.Context(), ident.ID, path)
		if err != nil {
			handleCareError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rem)
	case http.MethodDelete:
		if err := a.care.DeleteReminder(r.Context(), ident.ID, path); err != nil {
			handleCareError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "reminder.delete", map[string]any{"reminder_id": path})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}
