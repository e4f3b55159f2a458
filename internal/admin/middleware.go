package admin

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// rateLimiter un limitador por IP
type rateLimiter struct {
	mu       sync.Mutex
	perMin   int
	limiters map[string]*rate.Limiter
}

func newRateLimiter(perMin int) *rateLimiter {
	return &rateLimiter{perMin: perMin, limiters: make(map[string]*rate.Limiter)}
}

func (r *rateLimiter) get(ip string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	limiter, ok := r.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(r.perMin)), r.perMin)
		r.limiters[ip] = limiter
	}
	return limiter
}

func (r *rateLimiter) middleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !r.get(ip).Allow() {
			logger.Warn("⛔ Límite de requests excedido", zap.String("ip", ip))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "demasiadas solicitudes, probá más tarde"})
			return
		}
		c.Next()
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("🌐 Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
