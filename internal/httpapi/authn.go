package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"vitalia.org/internal/auth"
	"vitalia.org/internal/obs"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// withAuth resolves the bearer token, if any, and attaches the identity to
// the request context. Requests without an Authorization header pass through
// anonymous; a header that is present but unusable is rejected here so that
// handlers never see a half-authenticated request.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		header := strings.TrimSpace(r.Header.Get(authHeader))
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(header)
		if err != nil {
			obs.ObserveAuthAttempt("authenticate", false)
			writeError(w, r, http.StatusUnauthorized, "malformed credential")
			return
		}

		ident, err := a.auth.Authenticate(r.Context(), token)
		if err != nil {
			obs.ObserveAuthAttempt("authenticate", false)
			if errors.Is(err, auth.ErrInvalidCredential) {
				writeError(w, r, http.StatusUnauthorized, "invalid or expired credential")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "authentication error")
			return
		}

		obs.ObserveAuthAttempt("authenticate", true)
		ctx := auth.ContextWithIdentity(r.Context(), ident)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireIdentity answers 401 for anonymous requests and returns the caller's
// identity otherwise.
func (a *API) requireIdentity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return auth.Identity{}, false
	}
	return ident, true
}

// authorize enforces a requirement on the caller. Anonymous callers get 401;
// authenticated callers that fail the requirement get 403.
func (a *API) authorize(w http.ResponseWriter, r *http.Request, req auth.Requirement) (auth.Identity, bool) {
	ident, ok := a.requireIdentity(w, r)
	if !ok {
		return auth.Identity{}, false
	}
	if !req(ident) {
		writeError(w, r, http.StatusForbidden, "forbidden")
		return auth.Identity{}, false
	}
	return ident, true
}

// extractBearerToken pulls the token out of an Authorization header value.
// Every failure mode here is a malformed credential: wrong scheme, missing
// token, or a token split by interior whitespace.
func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", fmt.Errorf("%w: missing bearer token", auth.ErrMalformedCredential)
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", fmt.Errorf("%w: invalid authorization scheme", auth.ErrMalformedCredential)
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", fmt.Errorf("%w: missing bearer token", auth.ErrMalformedCredential)
	}
	if strings.ContainsAny(token, " \t") {
		return "", fmt.Errorf("%w: token contains whitespace", auth.ErrMalformedCredential)
	}
	return token, nil
}
