package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// =============================================================================
// JSON Writer Tests
// =============================================================================

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{name: "Simple map", input: map[string]string{"status": "ok"}, expected: `{"status":"ok"}`},
		{name: "String slice", input: []string{"a", "b"}, expected: `["a","b"]`},
		{name: "Null", input: nil, expected: `null`},
		{name: "Empty slice", input: []string{}, expected: `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeJSON(w, tt.input)

			if body := strings.TrimSuffix(w.Body.String(), "\n"); body != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, body)
			}
		})
	}
}

func TestWriteJSONUnencodable(t *testing.T) {
	t.Parallel()

	// Channels cannot be encoded; the error is logged, not raised.
	w := httptest.NewRecorder()
	writeJSON(w, make(chan int))

	if w.Body.Len() != 0 {
		t.Errorf("Expected empty body, got %q", w.Body.String())
	}
}

func TestWriteJSONCodeHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		write     func(w http.ResponseWriter)
		wantCode  int
		wantKey   string
		wantValue string
	}{
		{
			name:      "error",
			write:     func(w http.ResponseWriter) { writeJSONError(w, "boom", http.StatusBadRequest) },
			wantCode:  http.StatusBadRequest,
			wantKey:   "error",
			wantValue: "boom",
		},
		{
			name:      "status",
			write:     func(w http.ResponseWriter) { writeJSONStatus(w, "started", http.StatusAccepted) },
			wantCode:  http.StatusAccepted,
			wantKey:   "status",
			wantValue: "started",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			if w.Code != tt.wantCode {
				t.Errorf("Expected status %d, got %d", tt.wantCode, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type application/json, got %q", ct)
			}

			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if body[tt.wantKey] != tt.wantValue {
				t.Errorf("Expected %s=%q, got %q", tt.wantKey, tt.wantValue, body[tt.wantKey])
			}
		})
	}
}
