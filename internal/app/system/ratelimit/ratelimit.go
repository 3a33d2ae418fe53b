// internal/app/system/ratelimit/ratelimit.go
//
// Package ratelimit throttles repeated requests per key using fixed windows.
// The login endpoint uses it to slow password guessing by client IP and by
// account email.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter allows at most limit hits per key inside each window.
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]window
	limit   int
	period  time.Duration
	now     func() time.Time
	sweepAt time.Time
}

type window struct {
	hits    int
	resetAt time.Time
}

// New returns a limiter admitting limit hits per key every period.
func New(limit int, period time.Duration) *Limiter {
	return &Limiter{
		windows: make(map[string]window),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
}

// Allow records a hit for key. When the key is over its limit it returns
// false and how long until the window resets.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		l.windows[key] = window{hits: 1, resetAt: now.Add(l.period)}
		return true, 0
	}
	if w.hits >= l.limit {
		return false, w.resetAt.Sub(now)
	}
	w.hits++
	l.windows[key] = w
	return true, 0
}

// Reset forgets key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// sweep drops expired windows at most once per period. Callers hold mu.
func (l *Limiter) sweep(now time.Time) {
	if now.Before(l.sweepAt) {
		return
	}
	for k, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, k)
		}
	}
	l.sweepAt = now.Add(l.period)
}

// ClientIP returns the caller's address, preferring the first
// X-Forwarded-For hop, then X-Real-IP, then RemoteAddr without its port.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// LoginLimiter pairs a per-IP limiter with a per-email limiter.
type LoginLimiter struct {
	byIP    *Limiter
	byEmail *Limiter
}

// NewLoginLimiter allows 10 attempts per IP per minute and 5 attempts per
// email every 5 minutes.
func NewLoginLimiter() *LoginLimiter {
	return &LoginLimiter{
		byIP:    New(10, time.Minute),
		byEmail: New(5, 5*time.Minute),
	}
}

// Check records a login attempt for the request's IP and email. A refused
// attempt reports how long the caller should wait.
func (ll *LoginLimiter) Check(r *http.Request, email string) (bool, time.Duration) {
	if ok, wait := ll.byIP.Allow(ClientIP(r)); !ok {
		return false, wait
	}
	if email == "" {
		return true, 0
	}
	return ll.byEmail.Allow(strings.ToLower(email))
}

// Succeeded clears the email's failure window after a good sign-in.
func (ll *LoginLimiter) Succeeded(email string) {
	if email != "" {
		ll.byEmail.Reset(strings.ToLower(email))
	}
}
