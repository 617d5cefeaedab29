package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/oab/config"
	"github.com/use-agent/oab/models"
	"golang.org/x/time/rate"
)

const (
	// idleLimiterTTL is how long a caller's bucket survives without traffic.
	idleLimiterTTL = time.Hour
	evictInterval  = 5 * time.Minute

	// busyRetryAfter is advertised when every lookup slot is taken. A
	// lookup usually finishes within this window.
	busyRetryAfter = 10 * time.Second
)

type callerBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// lookupLimiter holds one token bucket per caller.
type lookupLimiter struct {
	mu      sync.Mutex
	buckets map[string]*callerBucket
	limit   rate.Limit
	burst   int
}

func (l *lookupLimiter) bucket(caller string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[caller]
	if !ok {
		b = &callerBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[caller] = b
	}
	b.lastSeen = now
	return b.limiter
}

// evictIdle drops buckets unused since cutoff and reports how many remain.
func (l *lookupLimiter) evictIdle(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for caller, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, caller)
		}
	}
	return len(l.buckets)
}

// admit takes a token for caller, or returns how long until one is free.
func (l *lookupLimiter) admit(caller string, now time.Time) (time.Duration, bool) {
	lim := l.bucket(caller, now)
	r := lim.ReserveN(now, 1)
	if !r.OK() {
		// burst of zero: the caller can never be served
		return busyRetryAfter, false
	}
	delay := r.DelayFrom(now)
	if delay == 0 {
		return 0, true
	}
	r.CancelAt(now)
	return delay, false
}

// RateLimit limits how often each caller may start a registry lookup. The
// caller is the API key set by Auth, or the client IP when auth is off.
// Rejections carry a Retry-After header with the wait until the next token.
//
// Buckets idle for an hour are evicted every 5 minutes until ctx is done.
func RateLimit(ctx context.Context, cfg config.RateLimitConfig) gin.HandlerFunc {
	l := &lookupLimiter{
		buckets: make(map[string]*callerBucket),
		limit:   rate.Limit(cfg.RequestsPerSecond),
		burst:   cfg.Burst,
	}

	go func() {
		ticker := time.NewTicker(evictInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				l.evictIdle(now.Add(-idleLimiterTTL))
			}
		}
	}()

	return func(c *gin.Context) {
		caller := c.GetString(apiKeyContextKey)
		if caller == "" {
			caller = c.ClientIP()
		}

		if wait, ok := l.admit(caller, time.Now()); !ok {
			secs := retryAfterSeconds(wait)
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error:  "too many lookups, please slow down",
				Code:   models.ErrCodeRateLimited,
				Detail: fmt.Sprintf("retry after %ds", secs),
			})
			return
		}

		c.Next()
	}
}

// LookupSlots caps the number of lookups (one Chromium each) running at
// once. Excess requests get 503 without queueing. n <= 0 disables the cap.
func LookupSlots(n int) gin.HandlerFunc {
	if n <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	slots := make(chan struct{}, n)

	return func(c *gin.Context) {
		select {
		case slots <- struct{}{}:
		default:
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(busyRetryAfter)))
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, models.ErrorResponse{
				Error:  "all browser slots are busy",
				Code:   models.ErrCodeBusy,
				Detail: fmt.Sprintf("%d lookups already running", n),
			})
			return
		}
		defer func() { <-slots }()

		c.Next()
	}
}

// retryAfterSeconds rounds d up to whole seconds, at least one.
func retryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}
