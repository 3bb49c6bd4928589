package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"avease/middlewares"
	"avease/models"
	"avease/services"
	"avease/utils"
)

type deps struct {
	scheduler *services.Scheduler
	users     models.UserRepository
	tokens    *utils.Tokens
	inv       *utils.CacheInvalidator
	log       *zap.Logger
}

// Options carries what main wires in. Redis may be nil: caching and the
// daily quota are then off.
type Options struct {
	Scheduler  *services.Scheduler
	Users      models.UserRepository
	Tokens     *utils.Tokens
	Redis      *redis.Client
	CacheTTL   time.Duration
	QuotaDaily int
	Logger     *zap.Logger
}

// RegisterRoutes mounts the whole API on server. The returned limiters
// should be closed on shutdown.
func RegisterRoutes(server *gin.Engine, o Options) []*middlewares.RateLimiter {
	useJSONNames()
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	d := &deps{
		scheduler: o.Scheduler,
		users:     o.Users,
		tokens:    o.Tokens,
		log:       o.Logger.Named("http"),
	}
	if o.Redis != nil {
		d.inv = utils.NewCacheInvalidator(o.Redis)
	}

	// global per-IP limit
	globalLimiter := middlewares.NewRateLimiter(middlewares.LimiterConfig{
		RPS:     20,
		Burst:   40,
		IdleTTL: 3 * time.Minute,
	})
	server.Use(globalLimiter.Middleware(middlewares.ByIP("ip")))

	// signup and login: 1 every 2s per IP
	authLimiter := middlewares.NewRateLimiter(middlewares.LimiterConfig{
		RPS:     0.5,
		Burst:   2,
		IdleTTL: 10 * time.Minute,
	})
	server.POST("/signup", authLimiter.Middleware(middlewares.ByIP("signup")), d.signup)
	server.POST("/login", authLimiter.Middleware(middlewares.ByIP("login")), d.login)

	userLimiter := middlewares.NewRateLimiter(middlewares.LimiterConfig{
		RPS:     5,
		Burst:   10,
		IdleTTL: 10 * time.Minute,
	})
	// minting guests is cheap for the caller, so anonymous joins get their own bucket
	guestLimiter := middlewares.NewRateLimiter(middlewares.LimiterConfig{
		RPS:     0.2,
		Burst:   3,
		IdleTTL: 10 * time.Minute,
	})
	quota := middlewares.Quota(o.Redis, middlewares.QuotaRule{
		Limit:  o.QuotaDaily,
		Window: 24 * time.Hour,
		KeyFn:  middlewares.UserQuotaKey,
	})
	cache := middlewares.ResponseCache(o.Redis, o.CacheTTL)
	// guests never coordinate: event creation and management need an account
	registered := middlewares.RegisteredOnly()

	// optional identity: anonymous callers proceed with userId 0
	open := server.Group("/events")
	open.Use(middlewares.Identify(o.Tokens), userLimiter.Middleware(middlewares.ByUser("u")), quota)
	open.POST("", registered, d.createEvent)
	open.GET("/:link", cache, d.getEvent)
	open.GET("/:link/availabilities", cache, d.getAvailabilities)
	open.POST("/:link/participants", guestJoinLimit(guestLimiter), d.join)

	auth := server.Group("/events")
	auth.Use(middlewares.Authenticate(o.Tokens), userLimiter.Middleware(middlewares.ByUser("u")), quota)
	auth.GET("", registered, cache, d.listEvents)
	auth.PUT("/:link", registered, d.updateEvent)
	auth.PATCH("/:link", registered, d.updateEvent)
	auth.DELETE("/:link", registered, d.deleteEvent)
	auth.DELETE("/:link/participants", d.leave)
	auth.PUT("/:link/participants/:pid/weekly", d.setWeekly)
	auth.DELETE("/:link/participants/:pid/weekly", d.removeWeekly)
	auth.PUT("/:link/participants/:pid/dates", d.setDate)
	auth.DELETE("/:link/participants/:pid/dates", d.removeDate)
	auth.PUT("/:link/participants/:pid/rsvp", d.setRSVP)

	return []*middlewares.RateLimiter{globalLimiter, authLimiter, userLimiter, guestLimiter}
}

// guestJoinLimit applies the guest bucket to anonymous callers only.
func guestJoinLimit(rl *middlewares.RateLimiter) gin.HandlerFunc {
	limit := rl.Middleware(middlewares.ByIP("guest"))
	return func(c *gin.Context) {
		if c.GetInt64(middlewares.CtxUserID) != 0 {
			c.Next()
			return
		}
		limit(c)
	}
}

func requester(c *gin.Context) int64 {
	return c.GetInt64(middlewares.CtxUserID)
}

// purge drops cached reads a write under link may have made stale.
func (d *deps) purge(c *gin.Context, link string) {
	d.inv.PurgeEvent(c.Request.Context(), link)
	d.inv.PurgeEventsList(c.Request.Context())
}
