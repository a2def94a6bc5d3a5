package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shadow7-backend/internal/admin"
	"shadow7-backend/internal/artifacts"
	"shadow7-backend/internal/omni"
	"shadow7-backend/internal/packaging"
	"shadow7-backend/internal/requests"
	"shadow7-backend/internal/shared/config"
	"shadow7-backend/internal/shared/metrics"
	"shadow7-backend/internal/shared/server/middleware"
	"shadow7-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config           config.Config
	RequestsHandler  *requests.Handler
	ArtifactsHandler *artifacts.Handler
	PackagingHandler *packaging.Handler
	OmniHandler      *omni.Handler
	AdminHandler     *admin.Handler
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
	)

	api := r.Group("/api/shadow7")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"status": "ok", "service": "shadow7-publisher"})
	})
	api.GET("/metrics", metrics.Handler())

	if deps.RequestsHandler != nil {
		deps.RequestsHandler.RegisterRoutes(api)
	}
	if deps.ArtifactsHandler != nil {
		deps.ArtifactsHandler.RegisterRoutes(api)
	}
	if deps.PackagingHandler != nil {
		deps.PackagingHandler.RegisterRoutes(api)
	}
	if deps.OmniHandler != nil {
		deps.OmniHandler.RegisterRoutes(api)
	}
	if deps.AdminHandler != nil {
		deps.AdminHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8002"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
