package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-processor/internal/resumes"
	"resume-processor/internal/shared/config"
	"resume-processor/internal/shared/metrics"
	"resume-processor/internal/shared/server/middleware"
	"resume-processor/internal/shared/server/respond"
)

// RouterDeps holds the handlers mounted on the engine.
type RouterDeps struct {
	Config  config.Config
	Resumes *resumes.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.ErrorDetails(!deps.Config.IsProduction()),
	)

	r.GET("/healthz", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", metrics.Handler())

	if deps.Resumes != nil {
		deps.Resumes.RegisterRoutes(r)
		deps.Resumes.RegisterRoutes(r.Group("/api"))
		// Verbs without a route of their own still get 405 on known paths.
		r.HandleMethodNotAllowed = true
		r.NoMethod(deps.Resumes.MethodNotAllowed)
	}

	r.NoRoute(func(c *gin.Context) {
		c.Set(middleware.ErrorCodeKey, resumes.CodeNotFound)
		respond.Error(c, http.StatusNotFound, resumes.CodeNotFound, "Route not found", nil)
	})

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
