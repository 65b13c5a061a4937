package http

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamgarian/do-real-shit/internal/domain"
	"github.com/hamgarian/do-real-shit/internal/log"
	"github.com/hamgarian/do-real-shit/internal/metrics"
)

const identityKey = "identity"

// TokenVerifier — внешний identity provider: по строке токена возвращает
// {uid, email} или ошибку.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*domain.Identity, error)
}

// Identify снимает bearer-токен и верифицирует его. На успех кладёт
// Identity в контекст; на любую ошибку (или без токена) — идёт дальше без
// identity. Запрос здесь НЕ отклоняется: 401 — ответственность хендлера.
func Identify(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		if tok != "" {
			id, err := v.Verify(c.Request.Context(), tok)
			if err != nil {
				log.L().Warn("token verification failed", zap.Error(err))
			} else {
				c.Set(identityKey, id)
			}
		}
		c.Next()
	}
}

func identityFrom(c *gin.Context) (*domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*domain.Identity)
	return id, ok && id != nil
}

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set("X-Request-ID", rid)
		c.Writer.Header().Set("X-Request-ID", rid)
		c.Next()
	}
}

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		start := time.Now()
		metrics.InFlight.Inc()
		c.Next()
		metrics.InFlight.Dec()
		metrics.ReqDuration.WithLabelValues(route, c.Request.Method).
			Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(route, c.Request.Method,
			strconv.Itoa(c.Writer.Status())).Inc()
	}
}

type bucket struct {
	tokens  int
	updated time.Time
}

type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    int           // максимальное кол-во за окно
	window  time.Duration // окно
}

func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	return &RateLimiter{buckets: make(map[string]*bucket), rate: rate, window: window}
}

func (rl *RateLimiter) Allow(ip string) bool {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.buckets[ip]
	if !ok || now.Sub(b.updated) > rl.window {
		rl.buckets[ip] = &bucket{tokens: 1, updated: now}
		return true
	}
	if b.tokens < rl.rate {
		b.tokens++
		b.updated = now
		return true
	}
	return false
}

func ClientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	host, _, err := net.SplitHostPort(ip)
	if err == nil && host != "" {
		return host
	}
	return ip
}

// RateLimitGenerate прикрывает единственный публичный и при этом дорогой
// маршрут — вызов генеративной модели.
func RateLimitGenerate(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(ClientIP(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
