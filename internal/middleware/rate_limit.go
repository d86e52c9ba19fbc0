package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter borne le débit de requêtes par appelant sur une fenêtre
// glissante. Les compteurs vivent dans Redis : la limite reste correcte
// avec plusieurs instances du service, contrairement à une map en mémoire.
// Le limiteur est construit puis injecté sur les groupes de routes.
type RateLimiter struct {
	client *redis.Client
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Limit autorise au plus max requêtes par fenêtre et par appelant (IP).
// En cas de Redis injoignable on laisse passer : le rate limiting est une
// protection, pas une dépendance critique du chemin de paiement.
func (rl *RateLimiter) Limit(name string, max int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		key := fmt.Sprintf("ratelimit:%s:%s", name, c.ClientIP())

		count, err := rl.client.Get(ctx, key).Int()
		if err != nil && err != redis.Nil {
			c.Next()
			return
		}

		if count >= max {
			ttl := rl.client.TTL(ctx, key).Val()
			c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", max))
			c.Header("X-RateLimit-Remaining", "0")
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Trop de requêtes. Réessayez plus tard",
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		pipe := rl.client.Pipeline()
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, window)
		pipe.Exec(ctx)

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", max))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", max-count-1))
		c.Next()
	}
}
