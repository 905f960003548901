package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.GlobalEnabled {
		t.Error("Expected global rate limiting to be enabled by default")
	}
	if cfg.GlobalLimit != 1000 {
		t.Errorf("Expected global limit 1000, got %d", cfg.GlobalLimit)
	}
	if !cfg.PerIPEnabled {
		t.Error("Expected per-IP rate limiting to be enabled by default")
	}
	if cfg.PerIPLimit != 120 {
		t.Errorf("Expected per-IP limit 120, got %d", cfg.PerIPLimit)
	}
}

func TestGlobalLimiter_Disabled(t *testing.T) {
	cfg := Config{GlobalEnabled: false}
	limiter := GlobalLimiter(cfg)

	handler := limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 100; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Request %d: expected 200, got %d", i, w.Code)
		}
	}
}

func TestGlobalLimiter_EnforcesLimit(t *testing.T) {
	cfg := Config{
		GlobalEnabled: true,
		GlobalLimit:   5,
		GlobalWindow:  1 * time.Second,
		GlobalBurst:   2,
	}
	limiter := GlobalLimiter(cfg)

	handler := limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Request %d: expected 200, got %d", i, w.Code)
		}
	}

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 after limit exceeded, got %d", w.Code)
	}

	if w.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header to be set")
	}
}

func TestIPLimiter_Disabled(t *testing.T) {
	cfg := Config{PerIPEnabled: false}
	limiter := IPLimiter(cfg)

	handler := limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 100; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = "10.0.0.1:9999"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Request %d: expected 200, got %d", i, w.Code)
		}
	}
}

func TestIPLimiter_EnforcesLimit(t *testing.T) {
	cfg := Config{
		PerIPEnabled: true,
		PerIPLimit:   3,
		PerIPWindow:  1 * time.Second,
		PerIPBurst:   1,
	}
	limiter := IPLimiter(cfg)

	handler := limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	ip := "192.168.1.100:54321"

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = ip
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Request %d: expected 200, got %d", i, w.Code)
		}
	}

	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = ip
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 after IP limit, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "192.168.1.101:54321"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Different IP: Expected 200, got %d", w.Code)
	}
}
