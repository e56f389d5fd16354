package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"approval-backend/internal/approvals"
	"approval-backend/internal/auth"
	"approval-backend/internal/chat"
	"approval-backend/internal/documents"
	"approval-backend/internal/notifications"
	"approval-backend/internal/requests"
	"approval-backend/internal/shared/config"
	"approval-backend/internal/shared/metrics"
	"approval-backend/internal/shared/server/middleware"
	"approval-backend/internal/shared/server/respond"
	"approval-backend/internal/tasks"
	"approval-backend/internal/templates"
)

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config              config.Config
	AuthHandler         *auth.Handler
	RequestHandler      *requests.Handler
	ApprovalHandler     *approvals.Handler
	TaskHandler         *tasks.Handler
	DocumentHandler     *documents.Handler
	ChatHandler         *chat.Handler
	NotificationHandler *notifications.Handler
	TemplateHandler     *templates.Handler
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
		middleware.Auth(),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/metrics", metrics.Handler())

	limiter := middleware.NewRateLimiter(nil)
	api.Use(middleware.RateLimit(middleware.RateLimitRule{Rate: 20, Burst: 40}, limiter))

	deps.AuthHandler.RegisterRoutes(api)
	deps.RequestHandler.RegisterRoutes(api)
	deps.ApprovalHandler.RegisterRoutes(api)
	deps.TaskHandler.RegisterRoutes(api)
	deps.DocumentHandler.RegisterRoutes(api)
	deps.ChatHandler.RegisterRoutes(api)
	deps.NotificationHandler.RegisterRoutes(api)
	deps.TemplateHandler.RegisterRoutes(api)

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
