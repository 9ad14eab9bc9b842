package httpapi

import (
	"net/http"
	"strings"

	"vitalia.org/internal/audit"
	"vitalia.org/internal/auth"
)

type assignPatientRequest struct {
	PatientID string `json:"patient_id" validate:"required"`
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=patient provider admin"`
}

type patientSummary struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Goals         int64  `json:"goals"`
	OpenReminders int64  `json:"open_reminders"`
}

type dashboardResponse struct {
	Patients []patientSummary `json:"patients"`
}

// handleProviderDashboard aggregates per-patient counts for the acting
// provider. Counts come straight from the store; nothing is cached.
func (a *API) handleProviderDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	ident, ok := a.authorize(w, r, auth.RoleIs(auth.RoleProvider))
	if !ok {
		return
	}

	patients, err := a.auth.PatientsOf(r.Context(), ident.ID)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	resp := dashboardResponse{Patients: make([]patientSummary, 0, len(patients))}
	for _, p := range patients {
		goals, err := a.care.CountGoals(r.Context(), p.ID)
		if err != nil {
			handleCareError(w, r, err)
			return
		}
		open, err := a.care.CountOpenReminders(r.Context(), p.ID)
		if err != nil {
			handleCareError(w, r, err)
			return
		}
		resp.Patients = append(resp.Patients, patientSummary{
			ID:            p.ID,
			Email:         p.Email,
			Goals:         goals,
			OpenReminders: open,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleProviderAssign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	ident, ok := a.authorize(w, r, auth.RoleIs(auth.RoleProvider))
	if !ok {
		return
	}
	var req assignPatientRequest
	if err := decodeValid(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.auth.AssignPatient(r.Context(), ident.ID, req.PatientID, clientIP(r)); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "provider.assign", map[string]any{
		"patient_id": req.PatientID,
	})
	writeJSON(w, http.StatusOK, map[string]any{"status": "assigned"})
}

func (a *API) handleProviderUnassign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	ident, ok := a.authorize(w, r, auth.RoleIs(auth.RoleProvider))
	if !ok {
		return
	}
	var req assignPatientRequest
	if err := decodeValid(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.auth.UnassignPatient(r.Context(), ident.ID, req.PatientID, clientIP(r)); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "provider.unassign", map[string]any{
		"patient_id": req.PatientID,
	})
	writeJSON(w, http.StatusOK, map[string]any{"status": "unassigned"})
}

// handleUserResource routes /v1/users/{id}/role, the admin-only role change.
func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/users/")
	if !strings.HasSuffix(path, "/role") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	userID := strings.TrimSuffix(strings.TrimSuffix(path, "/role"), "/")
	if userID == "" || strings.Contains(userID, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}

	ident, ok := a.authorize(w, r, auth.RoleIs(auth.RoleAdmin))
	if !ok {
		return
	}
	var req updateRoleRequest
	if err := decodeValid(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.auth.UpdateRole(r.Context(), ident.ID, userID, auth.Role(req.Role), clientIP(r)); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "admin.role_update", map[string]any{
		"user_id": userID,
		"role":    req.Role,
	})
	writeJSON(w, http.StatusOK, map[string]any{"status": "updated", "role": req.Role})
}
