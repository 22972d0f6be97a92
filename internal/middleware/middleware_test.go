package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func okHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
}

func TestLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		method        string
		path          string
		requestID     string
		handlerStatus int
	}{
		{"GET request", "GET", "/", "", http.StatusOK},
		{"redirect", "GET", "/dashboard", "", http.StatusFound},
		{"caller request id kept", "GET", "/api/auth/session", "0b6c0f8e-0d2e-4c1a-9f57-0a6f6c1e2b3d", http.StatusOK},
		{"invalid request id replaced", "POST", "/api/auth/signout", "not-a-uuid\nforged", http.StatusSeeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.InfoLevel)
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.requestID != "" {
				req.Header.Set(RequestIDHeader, tt.requestID)
			}
			w := httptest.NewRecorder()

			Logging(zap.New(core))(okHandler(tt.handlerStatus)).ServeHTTP(w, req)

			if w.Code != tt.handlerStatus {
				t.Errorf("Expected status %d, got %d", tt.handlerStatus, w.Code)
			}
			entries := logs.FilterMessage("http_request").All()
			if len(entries) != 1 {
				t.Fatalf("Expected 1 http_request log entry, got %d", len(entries))
			}
			fields := entries[0].ContextMap()
			if fields["status_code"] != int64(tt.handlerStatus) {
				t.Errorf("Expected logged status %d, got %v", tt.handlerStatus, fields["status_code"])
			}

			gotID := w.Header().Get(RequestIDHeader)
			if tt.requestID != "" && !strings.Contains(tt.requestID, "\n") && gotID != tt.requestID {
				t.Errorf("Expected request ID %q to be echoed, got %q", tt.requestID, gotID)
			}
			if gotID == "" || strings.Contains(gotID, "\n") {
				t.Errorf("Expected a clean request ID, got %q", gotID)
			}
		})
	}
}

func TestAudit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status    int
		expectMsg string
	}{
		{http.StatusUnauthorized, "security_event"},
		{http.StatusForbidden, "security_event"},
		{http.StatusTooManyRequests, "rate_limit_violation"},
		{http.StatusOK, ""},
	}

	for _, tt := range tests {
		core, logs := observer.New(zap.InfoLevel)
		req := httptest.NewRequest("GET", "/api/auth/callback/google", nil)
		Audit(zap.New(core))(okHandler(tt.status)).ServeHTTP(httptest.NewRecorder(), req)

		if tt.expectMsg == "" {
			if logs.Len() != 0 {
				t.Errorf("status %d: expected no audit log, got %d entries", tt.status, logs.Len())
			}
			continue
		}
		if logs.FilterMessage(tt.expectMsg).Len() != 1 {
			t.Errorf("status %d: expected %q audit log", tt.status, tt.expectMsg)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	SecurityHeaders(true)(okHandler(http.StatusOK)).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy", "Referrer-Policy"} {
		if w.Header().Get(h) == "" {
			t.Errorf("Expected header %s to be set", h)
		}
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be set on plain HTTP requests")
	}
	if !strings.Contains(w.Header().Get("Content-Security-Policy"), "https://accounts.google.com") {
		t.Error("Expected CSP to allow the Google consent redirect")
	}
}

func TestContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		method      string
		contentType string
		want        int
	}{
		{"GET ignored", "GET", "", http.StatusOK},
		{"form post allowed", "POST", "application/x-www-form-urlencoded", http.StatusOK},
		{"json with charset allowed", "POST", "application/json; charset=utf-8", http.StatusOK},
		{"missing header", "POST", "", http.StatusBadRequest},
		{"unsupported", "POST", "text/xml", http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, "/api/auth/signout", nil)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			ContentType("application/x-www-form-urlencoded", "application/json")(okHandler(http.StatusOK)).ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestMaxRequestSize(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("POST", "/api/auth/signout", strings.NewReader(strings.Repeat("a", 100)))
	w := httptest.NewRecorder()
	MaxRequestSize(10)(okHandler(http.StatusOK)).ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected status 413, got %d", w.Code)
	}
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	w := httptest.NewRecorder()
	Timeout(20*time.Millisecond)(slow).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503 on timeout, got %d", w.Code)
	}
}

func TestRateLimit_MemoryStore(t *testing.T) {
	t.Parallel()

	store, err := NewLimiterStore(nil)
	if err != nil {
		t.Fatalf("NewLimiterStore() error: %v", err)
	}
	mw, err := RateLimit(store, "2-M")
	if err != nil {
		t.Fatalf("RateLimit() error: %v", err)
	}
	handler := mw(okHandler(http.StatusOK))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/api/auth/signin/google", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("Expected [200 200 429], got %v", codes)
	}

	// A different client has its own budget
	req := httptest.NewRequest("GET", "/api/auth/signin/google", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected other client to pass, got %d", w.Code)
	}
}

func TestRateLimit_InvalidRate(t *testing.T) {
	t.Parallel()

	store, _ := NewLimiterStore(nil)
	if _, err := RateLimit(store, "often"); err == nil {
		t.Error("Expected error for invalid rate")
	}
}
