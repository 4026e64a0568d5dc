package handlers

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/zotta/ledger-core/cmd/docs"
	portssvc "github.com/zotta/ledger-core/internal/core/ports/services"
	"github.com/zotta/ledger-core/internal/platform/config"
	"github.com/zotta/ledger-core/internal/platform/tasks"
)

// RegisterRoutes sets up all application routes, injecting dependencies
// through the service facades.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	dispatcher *tasks.Dispatcher,
) {
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	setupAPIV1Routes(r, services, dispatcher)
	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to the
// per-entity route registrations.
func setupAPIV1Routes(
	r *gin.Engine,
	services *portssvc.ServiceContainer,
	dispatcher *tasks.Dispatcher,
) {
	v1 := r.Group("/api/v1")

	registerAccountRoutes(v1, services.Account)
	registerJournalRoutes(v1, services.Journal, services.Anomaly, dispatcher)
	registerLoanRoutes(v1, services.Loan, services.Anomaly, dispatcher)
	registerMappingRoutes(v1, services.Mapping)
	registerPeriodRoutes(v1, services.Period)
	registerAnomalyRoutes(v1, services.Anomaly)
	registerReportingRoutes(v1, services.Reporting)
}

// setupSwaggerRoutes configures the swagger documentation routes.
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		// no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// actorID resolves the acting user for audit trails. Authentication happens
// upstream of this service; the gateway forwards the principal in a header.
func actorID(c *gin.Context) string {
	if id := c.GetHeader("X-Actor-ID"); id != "" {
		return id
	}
	return "system"
}
