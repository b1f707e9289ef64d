package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/alphinepj/Clam-Companion/internal/logging"
)

// Token bucket kept in a redis hash per client IP. The script refills by
// elapsed time, takes one token when available and reports the wait
// otherwise, all in one atomic round trip.
const rateLimitScript = `
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])

local bucket = redis.call('HMGET', key, 'tokens', 'updated_at')
local tokens = tonumber(bucket[1])
local updated_at = tonumber(bucket[2])

if tokens == nil or updated_at == nil then
    tokens = capacity
    updated_at = now
end

local elapsed = math.max(0, now - updated_at)
tokens = math.min(capacity, tokens + elapsed * rate)

local allowed = 0
local retry_after = 0

if tokens >= requested then
    tokens = tokens - requested
    allowed = 1
else
    retry_after = (requested - tokens) / rate
end

redis.call('HMSET', key, 'tokens', tokens, 'updated_at', now)
redis.call('EXPIRE', key, 86400)

return {allowed, math.floor(tokens), math.ceil(retry_after)}
`

// RateLimit throttles by client IP with a redis-backed token bucket: burst
// sets the bucket capacity, qps the refill rate. Redis errors fail open.
func RateLimit(client *redis.Client, qps, burst int, logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "rate_limit:" + c.ClientIP()
		now := float64(time.Now().UnixNano()) / 1e9

		result, err := client.Eval(
			c.Request.Context(),
			rateLimitScript,
			[]string{key},
			burst, qps, now, 1,
		).Result()
		if err != nil {
			logger.Warn(c.Request.Context(), "rate limiter unavailable, allowing request", "error", err)
			c.Next()
			return
		}

		allowed := int64(0)
		remaining := burst
		retryAfter := 0
		if arr, ok := result.([]any); ok && len(arr) >= 3 {
			if v, ok := arr[0].(int64); ok {
				allowed = v
			}
			if v, ok := arr[1].(int64); ok {
				remaining = int(v)
			}
			if v, ok := arr[2].(int64); ok {
				retryAfter = int(v)
			}
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(burst))
		if allowed == 0 {
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests, please slow down",
				"code":  "RATE_LIMITED",
			})
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Next()
	}
}
