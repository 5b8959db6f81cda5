package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"taskdrive/internal/domain/models"
	"taskdrive/internal/httputil"
	"taskdrive/internal/service"
)

// Uploads cap at 512MB; the multipart parser spills anything over 32MB to
// disk.
const (
	maxUploadBytes  = 512 << 20
	multipartMemory = 32 << 20
)

// FileHandler handles file HTTP requests
type FileHandler struct {
	files      *service.FileService
	presignTTL time.Duration
	logger     *slog.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(files *service.FileService, presignTTL time.Duration, logger *slog.Logger) *FileHandler {
	return &FileHandler{files: files, presignTTL: presignTTL, logger: logger}
}

// Upload stores a file from a multipart form. The "file" part carries the
// content; an optional "folder_id" field places it in a folder.
// POST /api/files
// Returns 201 for a new file, 200 when a same-named file was overwritten.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "missing file part")
		return
	}
	defer part.Close()

	var folderID *string
	if v := r.FormValue("folder_id"); v != "" {
		folderID = &v
	}

	before := time.Now()
	file, err := h.files.Upload(
		r.Context(),
		userID,
		folderID,
		header.Filename,
		part,
		header.Size,
		header.Header.Get("Content-Type"),
	)
	if err != nil {
		handleError(w, err)
		return
	}

	status := http.StatusCreated
	if file.CreatedAt.Before(before) {
		status = http.StatusOK // existing file overwritten
	}
	httputil.RespondJSON(w, status, file)
}

// GetFile retrieves file metadata
// GET /api/files/{id}
func (h *FileHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	file, err := h.files.GetFile(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, file)
}

// UpdateFile renames or moves a file
// PATCH /api/files/{id}
func (h *FileHandler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req models.UpdateFileRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, err := h.files.UpdateFile(r.Context(), userID, r.PathValue("id"), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, file)
}

// DeleteFile deletes a file
// DELETE /api/files/{id}
func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.files.DeleteFile(r.Context(), userID, r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Download serves the whole file as an attachment
// GET /api/files/{id}/download
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	file, body, err := h.files.Open(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(file.ByteSize, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("download interrupted", "file_id", file.ID, "error", err)
	}
}

// Stream serves file content inline with single-range support for media
// playback and partial reads.
// GET /api/files/{id}/stream
func (h *FileHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	file, err := h.files.GetFile(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", file.ContentType)

	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" {
		_, body, err := h.files.Open(r.Context(), userID, file.ID)
		if err != nil {
			handleError(w, err)
			return
		}
		defer body.Close()

		w.Header().Set("Content-Length", strconv.FormatInt(file.ByteSize, 10))
		if _, err := io.Copy(w, body); err != nil {
			h.logger.Warn("stream interrupted", "file_id", file.ID, "error", err)
		}
		return
	}

	start, end, err := parseRange(rangeHeader, file.ByteSize)
	if err != nil {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", file.ByteSize))
		httputil.RespondError(w, http.StatusRequestedRangeNotSatisfiable, err.Error())
		return
	}

	_, body, err := h.files.OpenRange(r.Context(), userID, file.ID, start, end)
	if err != nil {
		handleError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Length", strconv.FormatInt(end-start+1, 10))
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, file.ByteSize))
	w.WriteHeader(http.StatusPartialContent)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("stream interrupted", "file_id", file.ID, "error", err)
	}
}

// PresignDownload issues a short-lived direct download URL
// GET /api/files/{id}/presign
func (h *FileHandler) PresignDownload(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	url, err := h.files.PresignDownload(r.Context(), userID, r.PathValue("id"), h.presignTTL)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"url":        url,
		"expires_in": int(h.presignTTL.Seconds()),
	})
}

// EditorDownload serves current file bytes to the document server. The URL
// is handed out only inside signed session descriptors, which is what makes
// it a capability; no bearer token is expected here.
// GET /api/files/{id}/onlyoffice-download
func (h *FileHandler) EditorDownload(w http.ResponseWriter, r *http.Request) {
	file, body, err := h.files.OpenForEditor(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(file.ByteSize, 10))
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("editor download interrupted", "file_id", file.ID, "error", err)
	}
}

// SaveAs copies the file under a new name, converting formats when the
// extension differs
// POST /api/files/{id}/save-as
func (h *FileHandler) SaveAs(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req models.SaveAsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, err := h.files.SaveAs(r.Context(), userID, r.PathValue("id"), req.Name)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, file)
}

// parseRange parses a single-range "bytes=" header against the resource
// size. Multi-range requests are not supported. Returns inclusive bounds.
func parseRange(header string, size int64) (int64, int64, error) {
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return 0, 0, fmt.Errorf("unsupported range unit")
	}
	if strings.Contains(spec, ",") {
		return 0, 0, fmt.Errorf("multiple ranges not supported")
	}

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return 0, 0, fmt.Errorf("malformed range")
	}

	// Suffix form: bytes=-N means the last N bytes
	if startStr == "" {
		n, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || n <= 0 {
			return 0, 0, fmt.Errorf("malformed range")
		}
		if n > size {
			n = size
		}
		if size == 0 {
			return 0, 0, fmt.Errorf("empty resource")
		}
		return size - n, size - 1, nil
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return 0, 0, fmt.Errorf("malformed range")
	}
	if start >= size {
		return 0, 0, fmt.Errorf("range start beyond resource size")
	}

	end := size - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil || end < start {
			return 0, 0, fmt.Errorf("malformed range")
		}
		if end >= size {
			end = size - 1
		}
	}

	return start, end, nil
}
