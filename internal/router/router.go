package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"propval/internal/config"
	"propval/internal/domain"
	"propval/internal/handler"
	"propval/internal/middleware"
	"propval/internal/service"

	_ "propval/docs"
)

// Setup configures the Gin engine with all routes and middleware.
//
// Record routes are mounted once per form variant under /api/v1/:variant so
// the three bank forms share one handler wired to variant-specific storage.
func Setup(
	cfg *config.Config,
	authSvc service.AuthService,
	authH *handler.AuthHandler,
	recordHandlers map[domain.FormVariant]*handler.RecordHandler,
	attachmentH *handler.AttachmentHandler,
	userH *handler.UserHandler,
	clientH *handler.ClientHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/login", authH.Login)
	auth.POST("/refresh", authH.RefreshToken)
	auth.GET("/me", middleware.Identity(authSvc), authH.Me)

	// Admin surface: user management and the client profile. Header-based
	// auth only, admin role only.
	admin := v1.Group("")
	admin.Use(
		middleware.Identity(authSvc),
		middleware.RequireHeaderAuth(),
		middleware.RequireRole(domain.RoleAdmin),
	)
	admin.POST("/users", userH.Create)
	admin.GET("/users", userH.List)
	admin.GET("/users/:id", userH.GetByID)
	admin.PUT("/users/:id", userH.Update)
	admin.DELETE("/users/:id", userH.Delete)
	admin.GET("/client", clientH.Get)
	admin.PUT("/client", clientH.Update)

	// Record routes per variant. Identity is resolved softly: create accepts
	// identity in the body, so a missing header is not an error here.
	for variant, recordH := range recordHandlers {
		g := v1.Group("/" + string(variant))
		g.Use(middleware.Identity(authSvc))

		g.POST("", recordH.Create)
		g.GET("", recordH.List)
		g.GET("/export",
			middleware.RequireHeaderAuth(),
			middleware.RequireRole(domain.RoleManager, domain.RoleAdmin),
			recordH.Export)
		g.GET("/:id", recordH.GetByID)
		g.PUT("/:id", recordH.Update)

		// Manager decisions only travel over authenticated header transports.
		g.POST("/:id/manager-submit",
			middleware.RequireHeaderAuth(),
			middleware.RequireRole(domain.RoleManager, domain.RoleAdmin),
			recordH.ManagerSubmit)
		g.POST("/:id/request-rework",
			middleware.RequireHeaderAuth(),
			middleware.RequireRole(domain.RoleManager, domain.RoleAdmin),
			recordH.RequestRework)

		if attachmentH != nil {
			g.POST("/:id/attachments", attachmentH.Upload)
			g.GET("/:id/attachments", attachmentH.ListByRecord)
			g.GET("/:id/attachments/:attachmentId/url", attachmentH.Download)
		}
	}

	return r
}
