package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type clientInfo struct {
	start time.Time
	count int
}

// SimpleRateLimit is the in-process fixed-window limiter used when Redis is
// not configured. State is per limiter instance.
func SimpleRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	var mu sync.Mutex
	clients := make(map[string]*clientInfo)
	lastSweep := time.Now()

	return func(c *gin.Context) {
		ident := rateIdentity(c)
		now := time.Now()

		mu.Lock()
		if now.Sub(lastSweep) > window {
			for k, ci := range clients {
				if now.Sub(ci.start) > window {
					delete(clients, k)
				}
			}
			lastSweep = now
		}
		ci, ok := clients[ident]
		if !ok || now.Sub(ci.start) > window {
			ci = &clientInfo{start: now}
			clients[ident] = ci
		}
		ci.count++
		count := ci.count
		mu.Unlock()

		limited(c, maxRequests, int64(count), window)
	}
}
