package emblematic

import (
	"log"
	"sync"
	"time"
)

// circuitBreaker halts upstream calls after sustained failures so a broken or
// throttling feed does not get hammered by every page view.
type circuitBreaker struct {
	failureThreshold int
	resetTimeout     time.Duration

	failures            int
	totalRequests       int
	consecutiveFailures int
	isOpen              bool
	lastFailureTime     time.Time

	mu sync.Mutex
}

func newCircuitBreaker(failureThreshold int, resetTimeout time.Duration) *circuitBreaker {
	return &circuitBreaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
	}
}

func (cb *circuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalRequests++
	cb.consecutiveFailures = 0
}

// recordFailure counts a failed upstream call. Repeated auth or throttling
// responses open the breaker immediately; otherwise it opens once the
// failure count passes the threshold.
func (cb *circuitBreaker) recordFailure(statusCode int) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.consecutiveFailures++
	cb.totalRequests++
	cb.lastFailureTime = time.Now()

	if cb.consecutiveFailures >= 2 && (statusCode == 401 || statusCode == 429 || statusCode >= 500) {
		cb.isOpen = true
		log.Printf("[Emblematic] circuit open: %d consecutive %d responses, pausing upstream calls for %v",
			cb.consecutiveFailures, statusCode, cb.resetTimeout)
		return
	}

	if cb.failures >= cb.failureThreshold {
		cb.isOpen = true
		log.Printf("[Emblematic] circuit open: %d/%d upstream failures, pausing upstream calls for %v",
			cb.failures, cb.totalRequests, cb.resetTimeout)
	}
}

func (cb *circuitBreaker) canProceed() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if !cb.isOpen {
		return true
	}

	if time.Since(cb.lastFailureTime) > cb.resetTimeout {
		log.Printf("[Emblematic] circuit half-open after %v, retrying upstream", cb.resetTimeout)
		cb.isOpen = false
		cb.failures = 0
		cb.totalRequests = 0
		cb.consecutiveFailures = 0
		return true
	}

	return false
}
