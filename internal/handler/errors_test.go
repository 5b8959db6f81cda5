package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskdrive/internal/domain"
)

func TestHandleErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("folder x: %w", domain.ErrNotFound), http.StatusNotFound},
		{"validation", &domain.ValidationError{Message: "bad name"}, http.StatusBadRequest},
		{"conflict", fmt.Errorf("taken: %w", domain.ErrConflict), http.StatusConflict},
		{"invalid move", fmt.Errorf("self parent: %w", domain.ErrInvalidMove), http.StatusConflict},
		{"cyclic move", fmt.Errorf("own subtree: %w", domain.ErrCyclicMove), http.StatusConflict},
		{"forbidden", &domain.ForbiddenError{Message: "no"}, http.StatusForbidden},
		{"unauthorized", &domain.UnauthorizedError{Message: "who"}, http.StatusUnauthorized},
		{"conversion failed", fmt.Errorf("gateway: %w", domain.ErrConversionFailed), http.StatusInternalServerError},
		{"upstream", fmt.Errorf("s3: %w", domain.ErrUpstream), http.StatusInternalServerError},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleError(rec, tt.err)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Errorf("content type = %q", ct)
			}
		})
	}
}

// A duplicate-name conflict carries the existing resource's id so the
// client can offer an overwrite or open-existing flow.
func TestHandleErrorConflictExtras(t *testing.T) {
	rec := httptest.NewRecorder()
	handleError(rec, &domain.ConflictError{
		Message:      "file 'a.txt' already exists",
		ResourceType: "file",
		ResourceID:   "f-123",
	})

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["existing_id"] != "f-123" {
		t.Errorf("existing_id = %v, want f-123", body["existing_id"])
	}
	if body["resource_type"] != "file" {
		t.Errorf("resource_type = %v, want file", body["resource_type"])
	}
}
