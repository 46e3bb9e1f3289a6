package security

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDetectSuspiciousRequest(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name     string
		method   string
		target   string
		expected bool
	}{
		{
			name:     "normal api request",
			method:   http.MethodGet,
			target:   "/api/v1/overview",
			expected: false,
		},
		{
			name:     "path traversal",
			method:   http.MethodGet,
			target:   "/api/../../etc/passwd",
			expected: true,
		},
		{
			name:     "env probe",
			method:   http.MethodGet,
			target:   "/.env",
			expected: true,
		},
		{
			name:     "wordpress probe",
			method:   http.MethodGet,
			target:   "/wp-admin/setup.php",
			expected: true,
		},
		{
			name:     "sql injection in query",
			method:   http.MethodGet,
			target:   "/api/v1/transactions?q=1+union+select+password",
			expected: true,
		},
		{
			name:     "trace method",
			method:   "TRACE",
			target:   "/api/v1/overview",
			expected: true,
		},
		{
			name:     "overlong url",
			method:   http.MethodGet,
			target:   "/api/v1/overview?pad=" + strings.Repeat("x", 3000),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, nil)
			if got := d.DetectSuspiciousRequest(r); got != tt.expected {
				t.Errorf("DetectSuspiciousRequest() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDetectionCountsMetrics(t *testing.T) {
	d := NewDetector()

	d.DetectSuspiciousRequest(httptest.NewRequest(http.MethodGet, "/.git/config", nil))
	d.DetectSuspiciousRequest(httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil))

	if got := d.GetMetrics().SuspiciousRequests; got != 1 {
		t.Errorf("SuspiciousRequests = %d, want 1", got)
	}
}

func TestExtractClientIP(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		expected   string
	}{
		{
			name:       "direct connection",
			remoteAddr: "203.0.113.7:4312",
			expected:   "203.0.113.7",
		},
		{
			name:       "forwarded via trusted proxy",
			remoteAddr: "10.0.0.1:4312",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"},
			expected:   "203.0.113.7",
		},
		{
			name:       "x-real-ip via trusted proxy",
			remoteAddr: "127.0.0.1:4312",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			expected:   "203.0.113.9",
		},
		{
			name:       "forwarded header from untrusted peer is ignored",
			remoteAddr: "203.0.113.7:4312",
			headers:    map[string]string{"X-Forwarded-For": "1.2.3.4"},
			expected:   "203.0.113.7",
		},
		{
			name:       "garbage forwarded value falls back to peer",
			remoteAddr: "10.0.0.1:4312",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip"},
			expected:   "10.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := d.ExtractClientIP(r); got != tt.expected {
				t.Errorf("ExtractClientIP() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig())

	handler := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/overview", nil))

	wantHeaders := map[string]string{
		"X-Content-Type-Options":       "nosniff",
		"X-Frame-Options":              "DENY",
		"Content-Security-Policy":      "default-src 'none'; frame-ancestors 'none'",
		"Referrer-Policy":              "strict-origin-when-cross-origin",
		"Cross-Origin-Opener-Policy":   "same-origin",
		"Cross-Origin-Resource-Policy": "same-origin",
	}
	for k, want := range wantHeaders {
		if got := rec.Header().Get(k); got != want {
			t.Errorf("header %s = %q, want %q", k, got, want)
		}
	}

	// Plain HTTP requests never get HSTS.
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS should not be set without TLS")
	}
}
