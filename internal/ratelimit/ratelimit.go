package ratelimit

import (
	"sync"
	"time"
)

// VisitorLimiter enforces per-visitor request limits on the public chat and
// contact endpoints, keyed by client IP. Each key keeps sliding minute and
// hour windows.
type VisitorLimiter struct {
	requestsPerMinute int
	requestsPerHour   int
	enabled           bool

	visitors map[string]*visitorWindows
	mu       sync.Mutex
}

type visitorWindows struct {
	minuteWindow []time.Time
	hourWindow   []time.Time
	lastSeen     time.Time
}

// NewVisitorLimiter creates a limiter with the given per-visitor limits. A
// zero hour limit disables the hourly check.
func NewVisitorLimiter(requestsPerMinute, requestsPerHour int, enabled bool) *VisitorLimiter {
	return &VisitorLimiter{
		requestsPerMinute: requestsPerMinute,
		requestsPerHour:   requestsPerHour,
		enabled:           enabled,
		visitors:          make(map[string]*visitorWindows),
	}
}

// Allow checks whether the visitor may make another request, recording it
// when allowed.
func (vl *VisitorLimiter) Allow(key string) bool {
	if !vl.enabled {
		return true
	}

	vl.mu.Lock()
	defer vl.mu.Unlock()

	now := time.Now()

	windows, ok := vl.visitors[key]
	if !ok {
		windows = &visitorWindows{}
		vl.visitors[key] = windows
	}
	windows.cleanup(now)
	windows.lastSeen = now

	if len(windows.minuteWindow) >= vl.requestsPerMinute {
		return false
	}
	if vl.requestsPerHour > 0 && len(windows.hourWindow) >= vl.requestsPerHour {
		return false
	}

	windows.minuteWindow = append(windows.minuteWindow, now)
	windows.hourWindow = append(windows.hourWindow, now)
	return true
}

// cleanup removes expired entries from the time windows
func (w *visitorWindows) cleanup(now time.Time) {
	w.minuteWindow = filterTimes(w.minuteWindow, now.Add(-1*time.Minute))
	w.hourWindow = filterTimes(w.hourWindow, now.Add(-1*time.Hour))
}

// filterTimes keeps only times after the cutoff
func filterTimes(times []time.Time, cutoff time.Time) []time.Time {
	result := make([]time.Time, 0, len(times))
	for _, t := range times {
		if t.After(cutoff) {
			result = append(result, t)
		}
	}
	return result
}

// Prune drops visitors idle for longer than an hour so the key map doesn't
// grow without bound. Called periodically by the scheduler.
func (vl *VisitorLimiter) Prune() int {
	vl.mu.Lock()
	defer vl.mu.Unlock()

	cutoff := time.Now().Add(-1 * time.Hour)
	pruned := 0
	for key, windows := range vl.visitors {
		if windows.lastSeen.Before(cutoff) {
			delete(vl.visitors, key)
			pruned++
		}
	}
	return pruned
}

// Stats contains limiter statistics for one visitor
type Stats struct {
	Enabled             bool `json:"enabled"`
	RequestsLastMinute  int  `json:"requests_last_minute"`
	RequestsLastHour    int  `json:"requests_last_hour"`
	LimitPerMinute      int  `json:"limit_per_minute"`
	LimitPerHour        int  `json:"limit_per_hour"`
	RemainingThisMinute int  `json:"remaining_this_minute"`
	RemainingThisHour   int  `json:"remaining_this_hour"`
}

// GetStats returns the current windows for one visitor key
func (vl *VisitorLimiter) GetStats(key string) Stats {
	if !vl.enabled {
		return Stats{Enabled: false}
	}

	vl.mu.Lock()
	defer vl.mu.Unlock()

	windows, ok := vl.visitors[key]
	if !ok {
		return Stats{
			Enabled:             true,
			LimitPerMinute:      vl.requestsPerMinute,
			LimitPerHour:        vl.requestsPerHour,
			RemainingThisMinute: vl.requestsPerMinute,
			RemainingThisHour:   vl.requestsPerHour,
		}
	}
	windows.cleanup(time.Now())

	return Stats{
		Enabled:             true,
		RequestsLastMinute:  len(windows.minuteWindow),
		RequestsLastHour:    len(windows.hourWindow),
		LimitPerMinute:      vl.requestsPerMinute,
		LimitPerHour:        vl.requestsPerHour,
		RemainingThisMinute: max(0, vl.requestsPerMinute-len(windows.minuteWindow)),
		RemainingThisHour:   max(0, vl.requestsPerHour-len(windows.hourWindow)),
	}
}

// Reset clears all tracked visitors (useful for testing)
func (vl *VisitorLimiter) Reset() {
	vl.mu.Lock()
	defer vl.mu.Unlock()
	vl.visitors = make(map[string]*visitorWindows)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
