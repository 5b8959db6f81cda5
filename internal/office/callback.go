package office

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"taskdrive/internal/domain"
	"taskdrive/internal/domain/models"
)

// Editor callback statuses. Only two of them trigger a write-back; the rest
// are acknowledged with no side effect.
const (
	StatusEditing         = 1
	StatusFinishedEditing = 2 // last editor closed, document must be saved
	StatusSaveError       = 3
	StatusClosedNoChanges = 4
	StatusForcedSave      = 6 // intermediate autosave requested while editing
	StatusForceSaveError  = 7
)

// CallbackRequest is the body the external editor posts after editing
// activity.
type CallbackRequest struct {
	Key    string `json:"key"`
	Status int    `json:"status"`
	URL    string `json:"url"`
}

// CallbackResponse drives the editor's retry behavior: error 0 means done
// (or permanently unprocessable, don't retry), error 1 means try again.
// The HTTP status is always 200; only this field matters to the editor.
type CallbackResponse struct {
	Error int `json:"error"`
}

var (
	respondDone  = CallbackResponse{Error: 0}
	respondRetry = CallbackResponse{Error: 1}
)

// triggersSave reports whether a callback status requires writing the
// edited document back to storage.
func triggersSave(status int) bool {
	return status == StatusFinishedEditing || status == StatusForcedSave
}

// HandleCallback consumes one editor callback for the file.
//
// On a save trigger it downloads the edited bytes, overwrites the blob at
// the file's existing storage key and refreshes byte_size/updated_at - the
// updated_at bump is what retires the current document key, so the next
// session starts fresh instead of reusing a stale collaborative key.
//
// Delivery is at-least-once: a redelivered save carries the same bytes, and
// writing them again would advance updated_at and retire the document key
// with no content change. Redeliveries are detected by comparing the
// downloaded bytes against current content and acknowledged without a
// write. A callback for a deleted file is answered with error 0 on purpose
// - returning an error would make the editor retry forever against a file
// that is never coming back.
func (m *SessionManager) HandleCallback(ctx context.Context, fileID string, req *CallbackRequest) CallbackResponse {
	if !triggersSave(req.Status) {
		m.logger.Debug("callback acknowledged without action",
			"file_id", fileID,
			"status", req.Status,
		)
		return respondDone
	}

	file, err := m.files.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			m.logger.Info("callback for deleted file dropped", "file_id", fileID)
			return respondDone
		}
		m.logger.Error("callback file lookup failed", "file_id", fileID, "error", err)
		return respondRetry
	}

	if req.URL == "" {
		m.logger.Error("callback missing document url", "file_id", fileID, "status", req.Status)
		return respondRetry
	}

	data, err := m.fetchDocument(ctx, req.URL)
	if err != nil {
		m.logger.Error("edited document download failed",
			"file_id", fileID,
			"url", req.URL,
			"error", err,
		)
		return respondRetry
	}

	if m.contentUnchanged(ctx, file, data) {
		m.logger.Info("callback with identical content acknowledged",
			"file_id", fileID,
			"document_key", DocumentKey(file),
		)
		return respondDone
	}

	if err := m.blobs.Put(ctx, file.StorageKey, bytes.NewReader(data), int64(len(data)), file.ContentType); err != nil {
		m.logger.Error("edited document write failed",
			"file_id", fileID,
			"key", file.StorageKey,
			"error", err,
		)
		return respondRetry
	}

	file.ByteSize = int64(len(data))
	file.UpdatedAt = m.now()
	if err := m.files.Update(ctx, file); err != nil {
		m.logger.Error("callback metadata update failed", "file_id", fileID, "error", err)
		return respondRetry
	}

	m.logger.Info("edited document saved",
		"file_id", fileID,
		"status", req.Status,
		"byte_size", file.ByteSize,
		"document_key", DocumentKey(file),
	)

	return respondDone
}

// contentUnchanged reports whether the downloaded bytes match what is
// already stored for the file. A read failure counts as changed; the write
// path then decides.
func (m *SessionManager) contentUnchanged(ctx context.Context, file *models.File, data []byte) bool {
	if file.ByteSize != int64(len(data)) {
		return false
	}
	rc, err := m.blobs.Get(ctx, file.StorageKey)
	if err != nil {
		return false
	}
	defer rc.Close()

	current, err := io.ReadAll(rc)
	if err != nil {
		return false
	}
	return bytes.Equal(current, data)
}

func (m *SessionManager) fetchDocument(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return io.ReadAll(resp.Body)
}
