package httpapi

import (
	"errors"
	"net/http"
	"time"

	"vitalia.org/internal/audit"
	"vitalia.org/internal/auth"
	"vitalia.org/internal/obs"
)

type profileResponse struct {
	ID        string            `json:"id"`
	Email     string            `json:"email"`
	Role      auth.Role         `json:"role"`
	Profile   map[string]string `json:"profile"`
	CreatedAt time.Time         `json:"created_at"`
}

type profileUpdateRequest struct {
	Fields map[string]string `json:"fields" validate:"required,min=1"`
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.getProfile(w, r)
	case http.MethodPatch:
		a.updateProfile(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch)
	}
}

func (a *API) getProfile(w http.ResponseWriter, r *http.Request) {
	ident, ok := a.requireIdentity(w, r)
	if !ok {
		return
	}
	user, err := a.auth.Profile(r.Context(), ident.ID)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		Profile:   user.Profile,
		CreatedAt: user.CreatedAt,
	})
}

func (a *API) updateProfile(w http.ResponseWriter, r *http.Request) {
	ident, ok := a.requireIdentity(w, r)
	if !ok {
		return
	}
	var req profileUpdateRequest
	if err := decodeValid(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.auth.UpdateProfile(r.Context(), ident.ID, req.Fields, clientIP(r)); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "profile.update", map[string]any{
		"fields": len(req.Fields),
	})
	user, err := a.auth.Profile(r.Context(), ident.ID)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		Profile:   user.Profile,
		CreatedAt: user.CreatedAt,
	})
}

// handleAuthError maps identity service errors to status codes.
func handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "user not found")
	case errors.Is(err, auth.ErrNotAssigned):
		writeError(w, r, http.StatusConflict, err.Error())
	default:
		obs.LogError("identity store failure", err, map[string]any{
			"path": r.URL.Path,
		})
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
