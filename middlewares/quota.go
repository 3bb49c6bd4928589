package middlewares

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type QuotaRule struct {
	Limit  int                       // requests allowed per window
	Window time.Duration             // e.g. 24h
	KeyFn  func(*gin.Context) string // "" skips the quota
}

// Quota is a fixed-window counter in redis. If redis is down the request
// is let through.
func Quota(rdb *redis.Client, rule QuotaRule) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rule.KeyFn(c)
		if key == "" || rdb == nil || rule.Limit <= 0 {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		n, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}
		// first hit opens the window
		if n == 1 {
			_ = rdb.Expire(ctx, key, rule.Window).Err()
		}
		if int(n) > rule.Limit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "quota_exceeded",
				"message": "Usage quota exceeded. Please try again later.",
			})
			return
		}
		c.Header("X-Quota-Used", fmt.Sprintf("%d/%d", n, rule.Limit))
		c.Next()
	}
}

// UserQuotaKey keys the daily quota by authenticated user. Anonymous
// callers are left to the rate limiters.
func UserQuotaKey(c *gin.Context) string {
	uid := c.GetInt64(CtxUserID)
	if uid == 0 {
		return ""
	}
	return fmt.Sprintf("quota:user:%d:day", uid)
}
