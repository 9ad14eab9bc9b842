package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"vitalia.org/internal/audit"
	"vitalia.org/internal/auth"
	"vitalia.org/internal/obs"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=patient provider"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// sessionResponse is the login/refresh body. The refresh token travels only
// in the http-only cookie, never in JSON, so page scripts cannot read it.
type sessionResponse struct {
	Access          string        `json:"access"`
	AccessExpiresAt time.Time     `json:"access_expires_at"`
	User            auth.Identity `json:"user"`
}

func newSessionResponse(s auth.Session) sessionResponse {
	return sessionResponse{
		Access:          s.AccessToken,
		AccessExpiresAt: s.AccessExpiresAt,
		User:            s.User,
	}
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeValid(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.auth.Register(r.Context(), req.Email, req.Password, auth.Role(req.Role), clientIP(r))
	if err != nil {
		obs.ObserveAuthAttempt("register", false)
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			writeError(w, r, http.StatusBadRequest, "email already registered")
		case errors.Is(err, auth.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, err.Error())
		default:
			writeError(w, r, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	obs.ObserveAuthAttempt("register", true)
	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"user_id": user.ID,
		"role":    string(user.Role),
	})
	writeJSON(w, http.StatusCreated, user.Identity())
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeValid(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	session, err := a.auth.Login(r.Context(), req.Email, req.Password, clientIP(r))
	if err != nil {
		obs.ObserveAuthAttempt("login", false)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, r, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "login failed")
		return
	}

	obs.ObserveAuthAttempt("login", true)
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"user_id": session.User.ID,
	})
	a.setRefreshCookie(w, session.RefreshToken, session.RefreshExpiresAt)
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	token := a.refreshTokenFromRequest(r)
	if token == "" {
		obs.ObserveAuthAttempt("refresh", false)
		writeError(w, r, http.StatusUnauthorized, "refresh token is required")
		return
	}

	session, err := a.auth.Refresh(r.Context(), token, clientIP(r))
	if err != nil {
		obs.ObserveAuthAttempt("refresh", false)
		switch {
		case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrRevokedOrExpired):
			a.clearRefreshCookie(w)
			writeError(w, r, http.StatusUnauthorized, "invalid or expired refresh token")
		default:
			writeError(w, r, http.StatusInternalServerError, "refresh failed")
		}
		return
	}

	obs.ObserveAuthAttempt("refresh", true)
	_ = audit.LogEvent(r.Context(), "auth.refresh", map[string]any{
		"user_id": session.User.ID,
	})
	a.setRefreshCookie(w, session.RefreshToken, session.RefreshExpiresAt)
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}

// handleLogout always answers 200: from the caller's perspective the session
// is gone whether or not the presented token was still live.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	if token := a.refreshTokenFromRequest(r); token != "" {
		a.auth.Logout(r.Context(), token, clientIP(r))
	}
	a.clearRefreshCookie(w)
	_ = audit.LogEvent(r.Context(), "auth.logout", nil)
	writeJSON(w, http.StatusOK, map[string]any{"status": "logged_out"})
}

// refreshTokenFromRequest reads the http-only refresh cookie. Request bodies
// are never consulted: a refresh token that round-trips through JSON would be
// readable by page scripts, which the cookie exists to prevent.
func (a *API) refreshTokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(a.cookie.Name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

func (a *API) setRefreshCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookie.Name,
		Value:    token,
		Path:     "/v1/auth",
		Expires:  expires,
		HttpOnly: true,
		Secure:   a.cookie.Secure,
		SameSite: a.cookie.SameSite,
	})
}

func (a *API) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookie.Name,
		Value:    "",
		Path:     "/v1/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cookie.Secure,
		SameSite: a.cookie.SameSite,
	})
}
