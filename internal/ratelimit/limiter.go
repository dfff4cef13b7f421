// Package ratelimit implements C9: two independent fixed-window counters
// per identity (general and completion scopes), backed by an in-process map
// by default or Redis when configured for horizontally-scaled deployments.
package ratelimit

import (
	"context"
	"time"
)

const (
	ScopeGeneral    = "global"
	ScopeCompletion = "completion"
)

// Backend is the storage interface both implementations satisfy: increment
// the bucket for (scope, identity) and report the new count and the time
// left in the window, which the caller uses as the retry-after hint.
type Backend interface {
	// Increment bumps the bucket's counter, creating it with the given
	// window if absent, and returns the new count plus the bucket's
	// remaining time-to-live.
	Increment(ctx context.Context, scope, identity string, window time.Duration) (count int64, ttl time.Duration, err error)
}

// Limiter admits a request only if both scopes' windows have room.
type Limiter struct {
	backend Backend

	generalLimit  int
	generalWindow time.Duration

	completionLimit  int
	completionWindow time.Duration

	bypassCIDRs []string
}

func New(backend Backend, generalLimit int, generalWindow time.Duration, completionLimit int, completionWindow time.Duration) *Limiter {
	return &Limiter{
		backend:          backend,
		generalLimit:     generalLimit,
		generalWindow:    generalWindow,
		completionLimit:  completionLimit,
		completionWindow: completionWindow,
		bypassCIDRs:      []string{"127.0.0.1", "::1"},
	}
}

// Decision is the outcome of an admission check.
type Decision struct {
	Admitted   bool
	RetryAfter time.Duration
	Scope      string
}

// AdmitGeneral checks the general scope only (every authenticated/anonymous
// request).
func (l *Limiter) AdmitGeneral(ctx context.Context, identity string) (Decision, error) {
	return l.admit(ctx, ScopeGeneral, identity, l.generalLimit, l.generalWindow)
}

// AdmitCompletion checks both scopes, since a completion request must pass
// the general window too, per spec.md §4.9's "both must admit."
func (l *Limiter) AdmitCompletion(ctx context.Context, identity string) (Decision, error) {
	d, err := l.AdmitGeneral(ctx, identity)
	if err != nil || !d.Admitted {
		return d, err
	}
	return l.admit(ctx, ScopeCompletion, identity, l.completionLimit, l.completionWindow)
}

// BypassLocalDev reports whether clientIP should skip rate limiting
// entirely, per spec.md §4.9.
func (l *Limiter) BypassLocalDev(clientIP string) bool {
	for _, ip := range l.bypassCIDRs {
		if ip == clientIP {
			return true
		}
	}
	return false
}

func (l *Limiter) admit(ctx context.Context, scope, identity string, limit int, window time.Duration) (Decision, error) {
	if limit <= 0 {
		return Decision{Admitted: true, Scope: scope}, nil
	}
	count, ttl, err := l.backend.Increment(ctx, scope, identity, window)
	if err != nil {
		return Decision{}, err
	}
	if count > int64(limit) {
		return Decision{Admitted: false, RetryAfter: ttl, Scope: scope}, nil
	}
	return Decision{Admitted: true, Scope: scope}, nil
}
