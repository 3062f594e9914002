package middleware

import (
	"context"
	"coursehub/logger"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed    bool
	Count      int64
	Limit      int64
	RetryAfter time.Duration
}

// Limiter counts hits per key in fixed windows.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// fixedWindowScript increments the key, starts its window on the first hit and
// returns {allowed, count, ttl_ms}.
const fixedWindowScript = `
local current = redis.call('INCR', KEYS[1])
if current == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
local ttl = redis.call('PTTL', KEYS[1])
if current > tonumber(ARGV[1]) then
  return {0, current, ttl}
end
return {1, current, ttl}
`

type RedisLimiter struct {
	client *redis.Client
	script *redis.Script
	prefix string
	limit  int64
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		script: redis.NewScript(fixedWindowScript),
		prefix: prefix,
		limit:  int64(limit),
		window: window,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	raw, err := l.script.Run(ctx, l.client, []string{l.prefix + key}, l.limit, l.window.Milliseconds()).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit check failed: %w", err)
	}
	vals, ok := raw.([]interface{})
	if !ok || len(vals) != 3 {
		return Decision{}, fmt.Errorf("unexpected rate limit script result %v", raw)
	}
	allowed, _ := vals[0].(int64)
	count, _ := vals[1].(int64)
	ttl, _ := vals[2].(int64)

	d := Decision{Allowed: allowed == 1, Count: count, Limit: l.limit}
	if !d.Allowed && ttl > 0 {
		d.RetryAfter = time.Duration(ttl) * time.Millisecond
	}
	return d, nil
}

// MemoryLimiter is an in-process Limiter for single-instance deployments and
// tests.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int64
	window  time.Duration
	windows map[string]*memoryWindow
	now     func() time.Time
}

type memoryWindow struct {
	start time.Time
	count int64
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   int64(limit),
		window:  window,
		windows: make(map[string]*memoryWindow),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.window {
		w = &memoryWindow{start: now}
		l.windows[key] = w
	}
	w.count++

	d := Decision{Allowed: w.count <= l.limit, Count: w.count, Limit: l.limit}
	if !d.Allowed {
		d.RetryAfter = w.start.Add(l.window).Sub(now)
	}
	return d, nil
}

// RateLimit rejects requests over the limiter's budget with 429. Signed-in
// users are counted by id, others by IP. Limiter failures let the request
// through.
func RateLimit(limiter Limiter, scope string, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := scope + ":ip:" + c.IP()
		if userID, ok := c.Locals("userId").(uint); ok {
			key = scope + ":user:" + strconv.FormatUint(uint64(userID), 10)
		}

		d, err := limiter.Allow(c.UserContext(), key)
		if err != nil {
			log.Warn("rate limiter unavailable", "key", key, "error", err)
			return c.Next()
		}

		remaining := d.Limit - d.Count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.FormatInt(d.Limit, 10))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if !d.Allowed {
			secs := int64(d.RetryAfter.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.FormatInt(secs, 10))
			log.Info("rate limit exceeded", "key", key, "count", d.Count, "limit", d.Limit)
			return JsonResponse(c, fiber.StatusTooManyRequests, false, "Too many requests, please try again later!", nil)
		}
		return c.Next()
	}
}

var botMarkers = []string{"bot", "crawler", "spider", "scrapy", "curl/", "wget/", "python-requests", "headless"}

// BotFilter rejects requests without a User-Agent or with one that names an
// automated client.
func BotFilter() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ua := strings.ToLower(strings.TrimSpace(c.Get(fiber.HeaderUserAgent)))
		if ua == "" {
			return JsonResponse(c, fiber.StatusForbidden, false, "Automated requests are not allowed!", nil)
		}
		for _, marker := range botMarkers {
			if strings.Contains(ua, marker) {
				return JsonResponse(c, fiber.StatusForbidden, false, "Automated requests are not allowed!", nil)
			}
		}
		return c.Next()
	}
}
