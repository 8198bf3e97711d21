package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "slotkeeper/pkg/errors"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		OwnerToken string `json:"owner_token"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"owner_token":"abc"}`, false},
		{"empty", ``, true},
		{"malformed", `{"owner_token":`, true},
		{"unknown field", `{"owner_token":"abc","admin":true}`, true},
		{"trailing object", `{"owner_token":"abc"}{"owner_token":"def"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := DecodeJSON(req, &p)
			if tt.wantErr {
				if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
					t.Fatalf("expected INVALID_INPUT, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.OwnerToken != "abc" {
				t.Errorf("expected owner_token abc, got %q", p.OwnerToken)
			}
		})
	}
}

func TestRequiredQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?doctor_id=d1&date=%202025-03-10%20", nil)
	values, err := RequiredQuery(req, "doctor_id", "date")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if values["date"] != "2025-03-10" {
		t.Errorf("expected trimmed date, got %q", values["date"])
	}

	req = httptest.NewRequest(http.MethodGet, "/?doctor_id=d1", nil)
	_, err = RequiredQuery(req, "doctor_id", "date")
	if err == nil || !strings.Contains(err.Error(), "date") {
		t.Fatalf("expected missing date error, got %v", err)
	}
}

func TestWriteCreated(t *testing.T) {
	w := httptest.NewRecorder()
	if err := WriteCreated(w, map[string]string{"hold_id": "h1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"data":{"hold_id":"h1"}`) {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}
