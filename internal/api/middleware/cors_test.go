package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func corsTestHandler(policy *OriginPolicy, allowMethods string) http.Handler {
	return CORS(policy, allowMethods)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("handled"))
	}))
}

func TestOriginPolicy_Resolve(t *testing.T) {
	tests := []struct {
		name   string
		extras string
		origin string
		want   string
	}{
		{"default production origin", "", "https://freegolffitting.com", "https://freegolffitting.com"},
		{"default www origin", "", "https://www.freegolffitting.com", "https://www.freegolffitting.com"},
		{"default pages preview origin", "", "https://freegolffitting.pages.dev", "https://freegolffitting.pages.dev"},
		{"default www pages preview origin", "", "https://www.freegolffitting.pages.dev", "https://www.freegolffitting.pages.dev"},
		{"default local origin", "", "http://localhost:8000", "http://localhost:8000"},
		{"unknown origin", "", "https://evil.example.com", ""},
		{"no origin header", "", "", ""},
		{"match is case-insensitive, echo is exact", "", "https://FreeGolfFitting.com", "https://FreeGolfFitting.com"},
		{"configured extra origin", "https://staging.freegolffitting.com", "https://staging.freegolffitting.com", "https://staging.freegolffitting.com"},
		{"extras are matched case-insensitively", "https://Staging.Example.com", "https://staging.example.com", "https://staging.example.com"},
		{"wildcard allows everything", "https://a.example.com,*", "https://anywhere.example.com", "*"},
		{"wildcard allows absent origin", "*", "", "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := NewOriginPolicy(tt.extras)
			if got := policy.Resolve(tt.origin); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.origin, got, tt.want)
			}
		})
	}
}

func TestCORS_AllowedRequest(t *testing.T) {
	h := corsTestHandler(NewOriginPolicy(""), "GET, OPTIONS")

	req := httptest.NewRequest(http.MethodGet, "/api/reviews", nil)
	req.Header.Set("Origin", "https://freegolffitting.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://freegolffitting.com" {
		t.Errorf("allow-origin = %q, want the request origin", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, OPTIONS" {
		t.Errorf("allow-methods = %q, want GET, OPTIONS", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type" {
		t.Errorf("allow-headers = %q, want Content-Type", got)
	}
	if got := rec.Header().Get("Vary"); got != "Origin" {
		t.Errorf("vary = %q, want Origin", got)
	}
}

func TestCORS_DisallowedRequestStillVaries(t *testing.T) {
	h := corsTestHandler(NewOriginPolicy(""), "GET, OPTIONS")

	req := httptest.NewRequest(http.MethodGet, "/api/reviews", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	// The request is still served; the browser enforces the missing header.
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("allow-origin = %q, want absent", got)
	}
	if got := rec.Header().Get("Vary"); got != "Origin" {
		t.Errorf("vary = %q, want Origin even without a match", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := corsTestHandler(NewOriginPolicy(""), "GET, POST, OPTIONS")

	req := httptest.NewRequest(http.MethodOptions, "/api/upload", nil)
	req.Header.Set("Origin", "https://freegolffitting.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("preflight body = %q, want empty", rec.Body)
	}
	if got := rec.Header().Get("Access-Control-Max-Age"); got != "86400" {
		t.Errorf("max-age = %q, want 86400", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, OPTIONS" {
		t.Errorf("allow-methods = %q, want the route methods", got)
	}
}
