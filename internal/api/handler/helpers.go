package handler

import (
	"errors"
	"net/http"

	"github.com/edvin/dbvault/internal/api/middleware"
	"github.com/edvin/dbvault/internal/api/response"
	"github.com/edvin/dbvault/internal/core"
)

// authedUserID extracts the authenticated user from the request context. The
// auth middleware guarantees it is present on /api/v1 routes; the false path
// only triggers when a handler is mounted without it.
func authedUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.WriteError(w, http.StatusUnauthorized, "missing identity")
		return "", false
	}
	return identity.UserID, true
}

// writeServiceError maps core service errors onto the failure envelope.
// Ownership failures are reported identically to missing rows.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		response.WriteError(w, http.StatusBadRequest, core.ErrNotFound.Error())
	case errors.Is(err, core.ErrNoArtifact):
		response.WriteError(w, http.StatusBadRequest, core.ErrNoArtifact.Error())
	default:
		response.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
