// internal/middleware/rate_limit.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/javajoker/keygen-bridge/internal/i18n"
	"github.com/javajoker/keygen-bridge/internal/utils"
)

const visitorTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key. Idle keys are dropped during
// lookups once a minute has passed since the last sweep.
type RateLimiter struct {
	visitors  map[string]*visitor
	mtx       sync.Mutex
	rate      rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
	keyFunc   func(c *gin.Context) string
}

func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    b,
		now:      time.Now,
		keyFunc:  func(c *gin.Context) string { return c.ClientIP() },
	}
}

// PerCustomer keys buckets by the authenticated customer, falling back to
// the client IP.
func (rl *RateLimiter) PerCustomer() *RateLimiter {
	rl.keyFunc = func(c *gin.Context) string {
		if id, ok := utils.GetCustomerIDFromContext(c); ok {
			return "customer:" + id
		}
		return c.ClientIP()
	}
	return rl
}

func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > time.Minute {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(rl.visitors, k)
			}
		}
		rl.lastSweep = now
	}

	v, exists := rl.visitors[key]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.visitors[key] = &visitor{limiter, now}
		return limiter
	}

	v.lastSeen = now
	return v.limiter
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.getVisitor(rl.keyFunc(c)).Allow() {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED",
				i18n.T(utils.GetLangFromContext(c), i18n.KeyRateLimited), nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// Default rate limiters
var (
	generalLimiter    = NewRateLimiter(rate.Every(100*time.Millisecond), 20)
	activationLimiter = NewRateLimiter(rate.Every(6*time.Second), 10).PerCustomer()
	webhookLimiter    = NewRateLimiter(rate.Every(10*time.Millisecond), 100)
)

func GeneralRateLimit() gin.HandlerFunc {
	return generalLimiter.Middleware()
}

// ActivationRateLimit throttles device activations and download link issuance
// per customer, since each one costs several upstream calls.
func ActivationRateLimit() gin.HandlerFunc {
	return activationLimiter.Middleware()
}

func WebhookRateLimit() gin.HandlerFunc {
	return webhookLimiter.Middleware()
}
