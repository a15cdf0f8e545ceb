package api

import (
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/loopcrm/mailbridge/api/handlers"
	"github.com/loopcrm/mailbridge/api/middleware"
	"github.com/loopcrm/mailbridge/internal/tracing"
	"github.com/loopcrm/mailbridge/services"
)

const appSource = "mailbridge"

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(r *gin.Engine, s *services.Services, apikey string) {
	if s == nil {
		panic("Services cannot be nil")
	}

	// Add recovery middlewares
	r.Use(gin.Recovery())
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer()))

	// setup handlers
	apiHandlers := handlers.InitHandlers(s)

	// Health check endpoint (no custom context needed)
	r.GET("/health", handlers.HealthCheck)

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-LOOPCRM-API-KEY",
		ValidAPIKey: apikey,
	})

	// API group with version, session context and tracing
	api := r.Group("/v1")
	api.Use(apiKeyMiddleware)
	api.Use(middleware.SessionMiddleware(appSource))
	api.Use(middleware.TracingMiddleware())
	{
		mail := api.Group("/mail")
		{
			mail.GET("/config", apiHandlers.Mail.GetConfig())
			mail.POST("/config", apiHandlers.Mail.SaveConfig())
			mail.POST("/config/test", apiHandlers.Mail.TestConfig())
			mail.POST("/send", apiHandlers.Mail.Send())
		}
	}
}
