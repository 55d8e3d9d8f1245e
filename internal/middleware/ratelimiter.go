package middleware

import (
	"net/http"
	"time"

	"storefront-api-io/api/pkg/util"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RateLimiter limits each client IP to limit requests per second, counted
// in Redis so that every instance shares the budget.
func RateLimiter(client *redis.Client, limit uint) gin.HandlerFunc {
	store := ratelimit.RedisStore(&ratelimit.RedisOptions{
		RedisClient: client,
		Rate:        time.Second,
		Limit:       limit,
	})

	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			util.HandleError(c, http.StatusTooManyRequests,
				errors.Errorf("too many requests, try again in %s", time.Until(info.ResetTime).Round(time.Millisecond)))
		},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})
}
