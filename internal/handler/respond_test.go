package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/aswell/training-system/internal/security/auth"
	"github.com/aswell/training-system/internal/security/middleware"
	"github.com/aswell/training-system/internal/service"
)

func TestWriteServiceErrorStatuses(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"no roles", service.ErrNoRoles, http.StatusForbidden},
		{"forbidden", service.ErrForbidden, http.StatusForbidden},
		{"unknown company", service.ErrCompanyNotFound, http.StatusBadRequest},
		{"inactive company", service.ErrCompanyInactive, http.StatusForbidden},
		{"duplicate login", service.ErrDuplicateLogin, http.StatusConflict},
		{"unknown role", service.ErrRoleUnknown, http.StatusBadRequest},
		{"validation", fmt.Errorf("%w: trainer is required", service.ErrValidation), http.StatusBadRequest},
		{"not found", service.ErrNotFound, http.StatusNotFound},
		{"conflict", service.ErrConflict, http.StatusConflict},
		{"unexpected", fmt.Errorf("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, nil, tc.err)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("content type = %q", ct)
			}
		})
	}
}

func TestErrorBodyShape(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusBadRequest, "companyName, loginId and password are required")

	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"status", "error", "message"} {
		if _, ok := body[key]; !ok {
			t.Errorf("body missing %q: %s", key, rec.Body.String())
		}
	}
	if _, ok := body["timestamp"]; ok {
		t.Errorf("plain errors must not carry a timestamp")
	}
}

func TestForbiddenBodyCarriesTimestamp(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, nil, service.ErrForbidden)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	var body struct {
		Timestamp string `json:"timestamp"`
		Status    int    `json:"status"`
		Error     string `json:"error"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Timestamp == "" {
		t.Errorf("403 body must carry a timestamp")
	}
	if body.Status != http.StatusForbidden || body.Error != "Forbidden" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestLoginRejectsMalformedAndIncompleteBodies(t *testing.T) {
	h := NewAuthHandler(nil, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{not json"))
	h.Login(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"companyName":"demo"}`))
	h.Login(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing fields: status = %d, want 400", rec.Code)
	}
}

func TestLogoutAlwaysSucceeds(t *testing.T) {
	h := NewAuthHandler(nil, nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}

func TestMeReflectsPrincipal(t *testing.T) {
	h := NewAuthHandler(nil, nil)

	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated: status = %d, want 401", rec.Code)
	}

	principal := &auth.Principal{
		UserID:      uuid.New(),
		CompanyID:   uuid.New(),
		CompanyName: "demo",
		LoginID:     "alice",
		Roles:       []string{"TRAINEE"},
	}
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(middleware.WithPrincipal(req.Context(), principal))
	rec = httptest.NewRecorder()
	h.Me(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var profile service.UserProfile
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if profile.LoginID != "alice" || profile.CompanyName != "demo" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}
