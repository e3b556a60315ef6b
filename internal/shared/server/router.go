package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"letterhead-backend/internal/assets"
	"letterhead-backend/internal/documents"
	"letterhead-backend/internal/drafts"
	"letterhead-backend/internal/letterheads"
	"letterhead-backend/internal/profiles"
	"letterhead-backend/internal/services/health"
	"letterhead-backend/internal/shared/config"
	"letterhead-backend/internal/shared/metrics"
	"letterhead-backend/internal/shared/server/middleware"
	"letterhead-backend/internal/shared/server/respond"
	"letterhead-backend/internal/templates"
	"letterhead-backend/internal/wizard"
)

const apiPrefix = "/api/v1"

// RouterDeps carries the handlers mounted by NewRouter. Nil handlers are
// skipped.
type RouterDeps struct {
	Config            config.Config
	Health            *health.Service
	ProfileHandler    *profiles.Handler
	LetterheadHandler *letterheads.Handler
	TemplateHandler   *templates.Handler
	WizardHandler     *wizard.Handler
	DocumentHandler   *documents.Handler
	DraftHandler      *drafts.Handler
	AssetHandler      *assets.Handler
	RateLimiter       *middleware.RateLimiter
	Now               func() time.Time
}

// renderRoutes are the routes that rasterize or print and get the stricter
// rate limit.
var renderRoutes = map[string]struct{}{
	http.MethodPost + " " + apiPrefix + "/letterheads/uploads":          {},
	http.MethodPost + " " + apiPrefix + "/letterheads/uploads/:id/crop": {},
	http.MethodPost + " " + apiPrefix + "/preview":                      {},
	http.MethodPost + " " + apiPrefix + "/export":                       {},
}

func rateLimitGroup(c *gin.Context) string {
	if _, ok := renderRoutes[c.Request.Method+" "+c.FullPath()]; ok {
		return middleware.RenderRateLimitGroup
	}
	return ""
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Health == nil {
		deps.Health = health.NewService()
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	api := r.Group(apiPrefix)
	api.Use(
		middleware.Identity(apiPrefix+"/identity", apiPrefix+"/health", apiPrefix+"/metrics"),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"DEFAULT":                       {Rate: 10, Burst: 40},
				middleware.RenderRateLimitGroup: {Rate: 1, Burst: 6},
			},
			DefaultGroup: "DEFAULT",
			GroupFor:     rateLimitGroup,
			Limiter:      deps.RateLimiter,
		}),
	)

	api.GET("/health", func(c *gin.Context) {
		status := deps.Health.Status(c.Request.Context())
		code := http.StatusOK
		if !status.OK {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})
	api.GET("/metrics", metrics.Handler())
	registerIdentityRoutes(api, deps.Now)

	if deps.ProfileHandler != nil {
		deps.ProfileHandler.RegisterRoutes(api)
	}
	if deps.LetterheadHandler != nil {
		deps.LetterheadHandler.RegisterRoutes(api)
	}
	if deps.TemplateHandler != nil {
		deps.TemplateHandler.RegisterRoutes(api)
	}
	if deps.WizardHandler != nil {
		deps.WizardHandler.RegisterRoutes(api)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api)
		deps.DocumentHandler.RegisterRenderRoutes(api)
	}
	if deps.DraftHandler != nil {
		deps.DraftHandler.RegisterRoutes(api)
	}
	if deps.AssetHandler != nil {
		deps.AssetHandler.RegisterRoutes(api)
	}

	return r
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
