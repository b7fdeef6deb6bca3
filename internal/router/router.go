package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"taxdesk/internal/domain"
	"taxdesk/internal/handler"
	"taxdesk/internal/logger"
	"taxdesk/internal/middleware"
	"taxdesk/internal/service"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Profile        *handler.ProfileHandler
	TaxFiling      *handler.TaxFilingHandler
	AdminDocument  *handler.AdminDocumentHandler
	AdminTaxFiling *handler.AdminTaxFilingHandler
	Config         *handler.ConfigHandler
	Health         *handler.HealthHandler
}

// Options carries router-level settings.
type Options struct {
	AllowedOrigins []string
	// ErrorDetail adds raw error text to error responses.
	ErrorDetail bool
	Swagger     bool
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(authSvc service.AuthService, h Handlers, opts Options, log *logger.Logger) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(opts.AllowedOrigins))
	r.Use(handler.ErrorDetail(opts.ErrorDetail))

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)
	if opts.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	v1.GET("/client-config", h.Config.Get)

	// Protected routes - require valid JWT
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authSvc))

	comprehensive := protected.Group("/comprehensive")
	comprehensive.GET("/data", h.Profile.GetAllUserData)
	comprehensive.POST("/data", h.Profile.SaveAllUserData)
	comprehensive.GET("/statistics", h.Profile.Statistics)
	comprehensive.POST("/bulk/:operation", h.Profile.Bulk)

	filings := protected.Group("/tax-filings")
	filings.GET("", h.TaxFiling.ListMine)
	filings.POST("", h.TaxFiling.Create)

	// Admin routes - staff only
	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(domain.RoleAdmin, domain.RoleAccountant))

	docs := admin.Group("/documents")
	docs.GET("", h.AdminDocument.List)
	docs.GET("/report", h.AdminDocument.Report)
	docs.GET("/:documentId", h.AdminDocument.Get)
	docs.PATCH("/:documentId/status", h.AdminDocument.UpdateStatus)

	adminFilings := admin.Group("/tax-filings")
	adminFilings.GET("", h.AdminTaxFiling.List)
	adminFilings.GET("/report", h.AdminTaxFiling.Report)
	adminFilings.POST("/bulk-status", h.AdminTaxFiling.BulkUpdateStatus)
	adminFilings.GET("/:id", h.AdminTaxFiling.Get)
	adminFilings.PATCH("/:id/status", h.AdminTaxFiling.UpdateStatus)

	return r
}
