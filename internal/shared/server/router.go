package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "storyboard-backend/internal/auth"
	"storyboard-backend/internal/documents"
	"storyboard-backend/internal/renderjobs"
	"storyboard-backend/internal/shared/config"
	"storyboard-backend/internal/shared/metrics"
	"storyboard-backend/internal/shared/server/middleware"
	"storyboard-backend/internal/shared/server/respond"
	"storyboard-backend/internal/storyboards"
	"storyboard-backend/internal/users"
	"storyboard-backend/internal/workflows"
)

// RouterDeps carries the handlers wired into the HTTP router.
type RouterDeps struct {
	Config      config.Config
	Storyboards *storyboards.Handler
	Workflows   *workflows.Handler
	Jobs        *renderjobs.Handler
	Documents   *documents.Handler
	Users       *users.Handler
	GoogleAuth  *googleauth.GoogleService
	RateLimiter *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
		middleware.RateLimit(rateLimitConfig(deps.RateLimiter)),
	)

	r.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.Users != nil {
		deps.Users.RegisterRoutes(api)
	}
	if deps.Documents != nil {
		deps.Documents.RegisterRoutes(api)
	}
	if deps.Storyboards != nil {
		deps.Storyboards.RegisterRoutes(api)
	}
	if deps.Workflows != nil {
		deps.Workflows.RegisterRoutes(api)
	}
	if deps.Jobs != nil {
		deps.Jobs.RegisterRoutes(api)
	}

	return r
}

// Mutating routes that fan out to generation or rendering get a tighter
// budget than plain reads.
func rateLimitConfig(limiter *middleware.RateLimiter) middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		Limiter: limiter,
		Rules: map[string]middleware.RateLimitRule{
			"MUTATE": {Rate: 2, Burst: 10},
		},
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method != http.MethodPost {
				return ""
			}
			path := c.FullPath()
			if strings.Contains(path, "/steps/") || strings.HasSuffix(path, "/preview") {
				return "MUTATE"
			}
			return ""
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
