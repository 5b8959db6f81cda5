package handler

import (
	"log/slog"
	"net/http"

	"taskdrive/internal/httputil"
	"taskdrive/internal/office"
)

// OfficeHandler exposes the document-editor session endpoints.
type OfficeHandler struct {
	sessions *office.SessionManager
	logger   *slog.Logger
}

// NewOfficeHandler creates a new office handler
func NewOfficeHandler(sessions *office.SessionManager, logger *slog.Logger) *OfficeHandler {
	return &OfficeHandler{sessions: sessions, logger: logger}
}

// GetConfig builds the signed session descriptor for opening a file in the
// editor
// GET /api/onlyoffice/config/{fileId}
func (h *OfficeHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	cfg, err := h.sessions.BuildConfig(r.Context(), r.PathValue("fileId"), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, cfg)
}

// Callback receives editing-session notifications from the document server.
// The response is always HTTP 200; the editor reads only the error field,
// where 0 acknowledges and 1 requests a redelivery.
// POST /api/onlyoffice/callback/{fileId}
func (h *OfficeHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req office.CallbackRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		h.logger.Error("undecodable editor callback", "error", err)
		httputil.RespondJSON(w, http.StatusOK, office.CallbackResponse{Error: 1})
		return
	}

	result := h.sessions.HandleCallback(r.Context(), r.PathValue("fileId"), &req)
	httputil.RespondJSON(w, http.StatusOK, result)
}
