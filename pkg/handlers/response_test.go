package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ekaya-inc/ekaya-oracle/pkg/apperrors"
)

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		errorCode  string
		message    string
	}{
		{"bad request", http.StatusBadRequest, "bad_request", "unknown granularity: fortnight"},
		{"not ready", http.StatusServiceUnavailable, "connection_error", "pool unavailable"},
		{"internal error", http.StatusInternalServerError, "internal_error", "something went wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			err := ErrorResponse(w, tt.statusCode, tt.errorCode, tt.message)
			if err != nil {
				t.Fatalf("ErrorResponse returned error: %v", err)
			}

			resp := w.Result()
			defer resp.Body.Close()

			if resp.StatusCode != tt.statusCode {
				t.Errorf("status code = %d, want %d", resp.StatusCode, tt.statusCode)
			}

			ct := resp.Header.Get("Content-Type")
			if ct != "application/json" {
				t.Errorf("Content-Type = %q, want %q", ct, "application/json")
			}

			var body map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response body: %v", err)
			}

			if body["error"] != tt.errorCode {
				t.Errorf("body[error] = %q, want %q", body["error"], tt.errorCode)
			}
			if body["message"] != tt.message {
				t.Errorf("body[message] = %q, want %q", body["message"], tt.message)
			}
		})
	}
}

func TestWriteJSON_Status200(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"status": "ready"}

	err := WriteJSON(w, http.StatusOK, data)
	if err != nil {
		t.Fatalf("WriteJSON returned error: %v", err)
	}

	resp := w.Result()
	defer resp.Body.Close()

	// Status 200 is the default for ResponseRecorder, WriteJSON should not call WriteHeader
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status code = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if body["status"] != "ready" {
		t.Errorf("body[status] = %q, want %q", body["status"], "ready")
	}
}

func TestWriteJSON_NonOKStatus(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]int{"open": 5}

	err := WriteJSON(w, http.StatusAccepted, data)
	if err != nil {
		t.Fatalf("WriteJSON returned error: %v", err)
	}

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("status code = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}
}

func TestWriteJSON_UnencodableData(t *testing.T) {
	w := httptest.NewRecorder()
	data := make(chan int) // channels cannot be JSON-encoded

	err := WriteJSON(w, http.StatusOK, data)
	if err == nil {
		t.Error("expected error for unencodable data, got nil")
	}
}

func TestStatusFor(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"connection", &apperrors.ConnectionError{Target: "db:1521/X", Cause: cause}, http.StatusServiceUnavailable, "connection_error"},
		{"wrapped connection", fmt.Errorf("test query failed: %w", &apperrors.ConnectionError{Cause: cause}), http.StatusServiceUnavailable, "connection_error"},
		{"pool closed", apperrors.ErrPoolClosed, http.StatusServiceUnavailable, "connection_error"},
		{"timeout", &apperrors.TimeoutError{Timeout: time.Second, Cause: cause}, http.StatusGatewayTimeout, "timeout"},
		{"user", &apperrors.UserError{Message: "bad granularity"}, http.StatusBadRequest, "bad_request"},
		{"execution", &apperrors.ExecutionError{Code: "ORA-00942", Cause: cause}, http.StatusUnprocessableEntity, "execution_error"},
		{"unknown", cause, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := StatusFor(tt.err)
			if status != tt.wantStatus || code != tt.wantCode {
				t.Errorf("StatusFor() = (%d, %q), want (%d, %q)", status, code, tt.wantStatus, tt.wantCode)
			}
		})
	}
}

func TestWriteAppError_MasksCredentials(t *testing.T) {
	w := httptest.NewRecorder()
	err := &apperrors.ConnectionError{
		Target: "db:1521/FREEPDB1",
		Cause:  errors.New("dial oracle://cube:s3cret@db:1521/FREEPDB1 refused"),
	}

	if encErr := WriteAppError(w, err); encErr != nil {
		t.Fatalf("WriteAppError returned error: %v", encErr)
	}
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
	if strings.Contains(w.Body.String(), "s3cret") {
		t.Errorf("response leaks password: %s", w.Body.String())
	}
}
