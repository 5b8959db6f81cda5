package handler

import (
	"log/slog"
	"net/http"

	"taskdrive/internal/domain/models"
	"taskdrive/internal/httputil"
	"taskdrive/internal/service"
)

// ShareHandler handles sharing HTTP requests for both folders and files.
type ShareHandler struct {
	shares *service.ShareService
	logger *slog.Logger
}

// NewShareHandler creates a new share handler
func NewShareHandler(shares *service.ShareService, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{shares: shares, logger: logger}
}

// ShareFolder grants folder access to a set of users
// POST /api/folders/{id}/shares
func (h *ShareHandler) ShareFolder(w http.ResponseWriter, r *http.Request) {
	h.share(w, r, models.SubjectFolder)
}

// ShareFile grants file access to a set of users
// POST /api/files/{id}/shares
func (h *ShareHandler) ShareFile(w http.ResponseWriter, r *http.Request) {
	h.share(w, r, models.SubjectFile)
}

// ListFolderShares lists grants on a folder
// GET /api/folders/{id}/shares
func (h *ShareHandler) ListFolderShares(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.SubjectFolder)
}

// ListFileShares lists grants on a file
// GET /api/files/{id}/shares
func (h *ShareHandler) ListFileShares(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.SubjectFile)
}

// UnshareFolder revokes a user's folder grant
// DELETE /api/folders/{id}/shares/{userId}
func (h *ShareHandler) UnshareFolder(w http.ResponseWriter, r *http.Request) {
	h.unshare(w, r, models.SubjectFolder)
}

// UnshareFile revokes a user's file grant
// DELETE /api/files/{id}/shares/{userId}
func (h *ShareHandler) UnshareFile(w http.ResponseWriter, r *http.Request) {
	h.unshare(w, r, models.SubjectFile)
}

func (h *ShareHandler) share(w http.ResponseWriter, r *http.Request, subjectType models.SubjectType) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req models.ShareRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	shares, err := h.shares.Share(r.Context(), userID, subjectType, r.PathValue("id"), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, shares)
}

func (h *ShareHandler) list(w http.ResponseWriter, r *http.Request, subjectType models.SubjectType) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	shares, err := h.shares.ListShares(r.Context(), userID, subjectType, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, shares)
}

func (h *ShareHandler) unshare(w http.ResponseWriter, r *http.Request, subjectType models.SubjectType) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	err := h.shares.Unshare(r.Context(), userID, subjectType, r.PathValue("id"), r.PathValue("userId"))
	if err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
