package security

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterBurstPerClient(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, time.Hour)

	for i := 0; i < 2; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("third request should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other clients have their own bucket")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(1, 1, time.Minute)
	rl.Allow("old")
	rl.Allow("new")
	rl.visitors["old"].lastSeen = time.Now().Add(-2 * time.Minute)

	if removed := rl.Cleanup(); removed != 1 {
		t.Fatalf("expected 1 visitor removed, got %d", removed)
	}
	if _, ok := rl.visitors["new"]; !ok {
		t.Error("recent visitor should be kept")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "10.0.0.1:5555", nil, "10.0.0.1"},
		{"forwarded chain", "10.0.0.1:5555", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.2"}, "203.0.113.9"},
		{"real ip", "10.0.0.1:5555", map[string]string{"X-Real-IP": "198.51.100.7"}, "198.51.100.7"},
		{"no port", "10.0.0.1", nil, "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := GetClientIP(r); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
