package ratelimit_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/printhub/internal/app/system/ratelimit"
)

func TestLimiter_AllowsUpToLimit(t *testing.T) {
	l := ratelimit.New(3, time.Minute)

	for i := 0; i < 3; i++ {
		if ok, _ := l.Allow("k"); !ok {
			t.Fatalf("hit %d refused, want allowed", i+1)
		}
	}
	ok, wait := l.Allow("k")
	if ok {
		t.Fatal("fourth hit allowed, want refused")
	}
	if wait <= 0 || wait > time.Minute {
		t.Errorf("wait = %v, want within (0, 1m]", wait)
	}

	if ok, _ := l.Allow("other"); !ok {
		t.Error("keys must be limited independently")
	}
}

func TestLimiter_Reset(t *testing.T) {
	l := ratelimit.New(1, time.Minute)
	l.Allow("k")
	if ok, _ := l.Allow("k"); ok {
		t.Fatal("second hit allowed, want refused")
	}
	l.Reset("k")
	if ok, _ := l.Allow("k"); !ok {
		t.Error("hit after Reset refused, want allowed")
	}
}

func TestLimiter_WindowExpires(t *testing.T) {
	l := ratelimit.New(1, 20*time.Millisecond)
	l.Allow("k")
	if ok, _ := l.Allow("k"); ok {
		t.Fatal("second hit allowed, want refused")
	}
	time.Sleep(40 * time.Millisecond)
	if ok, _ := l.Allow("k"); !ok {
		t.Error("hit after window refused, want allowed")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "10.0.0.1:5555", "10.0.0.1"},
		{"remote without port", nil, "10.0.0.1", "10.0.0.1"},
		{"forwarded for", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.2"}, "10.0.0.1:5555", "203.0.113.9"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.4 "}, "10.0.0.1:5555", "198.51.100.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/login", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ratelimit.ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginLimiter_PerEmail(t *testing.T) {
	ll := ratelimit.NewLoginLimiter()
	r := httptest.NewRequest("POST", "/login", nil)

	for i := 0; i < 5; i++ {
		if ok, _ := ll.Check(r, "ada@example.com"); !ok {
			t.Fatalf("attempt %d refused, want allowed", i+1)
		}
	}
	if ok, _ := ll.Check(r, "ada@example.com"); ok {
		t.Fatal("sixth attempt for the same email allowed, want refused")
	}

	ll.Succeeded("ada@example.com")
	if ok, _ := ll.Check(r, "ADA@example.com"); !ok {
		t.Error("attempt after success refused, want allowed")
	}
}
