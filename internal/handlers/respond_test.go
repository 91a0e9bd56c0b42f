package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"casepress/internal/apperr"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantInBody string
	}{
		{"validation maps to 400", apperr.Validation("Bad input"), http.StatusBadRequest, "Bad input"},
		{"conflict maps to 400", apperr.Conflict("Only pending posts can be approved"), http.StatusBadRequest, "Only pending posts"},
		{"unauthorized maps to 401", apperr.Unauthorized("Invalid username or password"), http.StatusUnauthorized, "Invalid username or password"},
		{"forbidden maps to 403", apperr.Forbidden("Admin access required"), http.StatusForbidden, "Admin access required"},
		{"not found maps to 404", apperr.NotFound("Post not found"), http.StatusNotFound, "Post not found"},
		{"internal maps to 500", apperr.Internal(errors.New("db exploded")), http.StatusInternalServerError, "Internal server error"},
		{"unclassified maps to 500", errors.New("raw error"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeError(rr, tt.err)

			if rr.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content type: got %q", ct)
			}
			if !strings.Contains(rr.Body.String(), tt.wantInBody) {
				t.Errorf("body: got %q, want it to contain %q", rr.Body.String(), tt.wantInBody)
			}
		})
	}
}

func TestWriteErrorDoesNotLeakInternals(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, apperr.Internal(errors.New("password=hunter2 connection refused")))

	if strings.Contains(rr.Body.String(), "hunter2") {
		t.Error("internal error detail leaked into response body")
	}
}

func TestWriteErrorIncludesFieldErrors(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, apperr.ValidationFields("Validation failed", map[string]string{
		"title": "Title must be between 5 and 200 characters",
	}))

	body := rr.Body.String()
	if !strings.Contains(body, `"title"`) {
		t.Errorf("expected field detail in body, got %q", body)
	}
}
