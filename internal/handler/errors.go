// Package handler exposes the HTTP surface: folders, files, sharing and the
// document-editor integration.
package handler

import (
	"errors"
	"net/http"

	"taskdrive/internal/domain"
	"taskdrive/internal/httputil"
)

// handleError maps a domain error onto the wire. Typed errors carry their
// own status; sentinels cover wrapped cases; anything else is a 500 with the
// detail kept server-side.
func handleError(w http.ResponseWriter, err error) {
	var conflictErr *domain.ConflictError
	if errors.As(err, &conflictErr) {
		extras := map[string]interface{}{
			"resource_type": conflictErr.ResourceType,
			"existing_id":   conflictErr.ResourceID,
		}
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Message, extras)
		return
	}

	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		httputil.RespondError(w, httpErr.StatusCode(), httpErr.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrInvalidMove),
		errors.Is(err, domain.ErrCyclicMove):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrConversionFailed):
		httputil.RespondError(w, http.StatusInternalServerError, "document conversion failed")
	case errors.Is(err, domain.ErrUpstream):
		httputil.RespondError(w, http.StatusInternalServerError, "storage backend unavailable")
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// requireUserID extracts the authenticated user from the request context.
// A missing user means the auth middleware was bypassed; respond 401.
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := httputil.GetUserID(r)
	if userID == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
		return "", false
	}
	return userID, true
}
