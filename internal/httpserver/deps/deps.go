package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/linknest/linknest/internal/engine"
	"github.com/linknest/linknest/internal/logger"
)

type Deps struct {
	Logger          logger.Logger
	StartTime       time.Time
	Version         string
	Commit          string
	BuildDate       string
	GoVersion       string
	TimeNow         func() time.Time // for testing, defaults to time.Now
	Manager         *engine.Manager  // per-owner engine sessions
	RedisClient     *redis.Client    // Redis client connection (health checks)
	ResyncTrigger   chan struct{}    // Channel to trigger a manual resync
	AllowedOrigins  []string         // CORS origins (web app + extension)
	RateLimitBurst  int              // per-IP burst for write endpoints
	RateLimitPerMin int              // per-IP sustained writes per minute
	TrustProxy      bool             // true if running behind a trusted reverse proxy
}

// Now returns the injected clock, defaulting to time.Now.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
