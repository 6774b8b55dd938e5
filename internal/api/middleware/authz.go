package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackarena/portal/internal/api/response"
)

// RequireRole returns middleware that rejects identities whose role is not
// in the allowed list with 403.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			identity := GetIdentity(r.Context())
			if identity == nil {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Bearer token is required", requestID)
				return
			}

			if !allowed[identity.Role] {
				response.Err(w, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions", requestID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireTeamAccess returns middleware for routes carrying a team {id} URL
// parameter. Admins pass; team leads pass only for their own team.
func RequireTeamAccess() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			identity := GetIdentity(r.Context())
			if identity == nil {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Bearer token is required", requestID)
				return
			}

			if identity.IsAdmin() {
				next.ServeHTTP(w, r)
				return
			}

			teamID, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
				return
			}

			if !identity.LeadsTeam(teamID) {
				response.Err(w, http.StatusForbidden, "FORBIDDEN", "You can only manage your own team", requestID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
