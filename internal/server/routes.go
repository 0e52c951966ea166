package server

import (
	"github.com/OFFIS-RIT/factgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/factgraph/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Claim routes
	apiRoutes.GET("/claims", routes.GetClaimsHandler, middleware.RequirePermission(middleware.PermClaimView))
	apiRoutes.POST("/claims", routes.CreateClaimHandler, middleware.RequirePermission(middleware.PermClaimCreate))
	apiRoutes.DELETE("/claims", routes.DeleteClaimsHandler, middleware.RequireAdmin())
	apiRoutes.GET("/claims/export", routes.ExportClaimsHandler, middleware.RequirePermission(middleware.PermClaimView))
	apiRoutes.GET("/claims/:id", routes.GetClaimHandler, middleware.RequirePermission(middleware.PermClaimView))
	apiRoutes.DELETE("/claims/:id", routes.DeleteClaimHandler, middleware.RequirePermission(middleware.PermClaimDelete))

	// Source routes
	apiRoutes.GET("/claims/:id/sources", routes.GetClaimSourcesHandler, middleware.RequireAnyPermission(middleware.PermSourceView, middleware.PermClaimView))
	apiRoutes.POST("/claims/:id/sources", routes.AddSourcesHandler, middleware.RequirePermission(middleware.PermSourceAdd))
	apiRoutes.POST("/claims/:id/sources/urls", routes.ScrapeSourcesHandler, middleware.RequirePermission(middleware.PermSourceAdd))
	apiRoutes.GET("/sources", routes.GetSourcesHandler, middleware.RequirePermission(middleware.PermSourceView))
	apiRoutes.GET("/sources/export", routes.ExportSourcesHandler, middleware.RequirePermission(middleware.PermSourceView))

	// Answer routes
	apiRoutes.GET("/claims/:id/answers", routes.GetAnswersHandler, middleware.RequireAnyPermission(middleware.PermAnswerView, middleware.PermClaimView))
	apiRoutes.POST("/claims/:id/answers", routes.CreateAnswerHandler, middleware.RequirePermission(middleware.PermAnswerCreate))

	// Graph and summary routes
	apiRoutes.POST("/claims/:id/graph", routes.CreateGraphHandler, middleware.RequirePermission(middleware.PermGraphCreate))
	apiRoutes.POST("/summaries", routes.SummarizeHandler, middleware.RequirePermission(middleware.PermSummaryCreate))
	apiRoutes.POST("/rephrase", routes.RephraseHandler, middleware.RequirePermission(middleware.PermSummaryCreate))
}
