package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"fleettrack/internal/auth"
	"fleettrack/internal/handler"
	"fleettrack/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	AuthHandler    *handler.AuthHandler
	VehicleHandler *handler.VehicleHandler
	TripHandler    *handler.TripHandler
	DriverHandler  *handler.DriverHandler
	TokenIssuer    *auth.TokenIssuer
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
	Logger         *logrus.Logger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API routes.
	api := router.Group("/api")

	// Login is the only unauthenticated endpoint.
	api.POST("/auth/login", deps.AuthHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(deps.TokenIssuer))
	{
		// Vehicle routes. The static segments register before the
		// parameterized ones so gin does not treat them as IDs.
		vehicles := authed.Group("/vehicles")
		{
			vehicles.POST("", deps.VehicleHandler.Create)
			vehicles.GET("", deps.VehicleHandler.List)
			vehicles.GET("/nearby", deps.VehicleHandler.Nearby)
			vehicles.GET("/driver/:driverId", deps.VehicleHandler.ListByDriver)
			vehicles.GET("/:id", deps.VehicleHandler.Get)
			vehicles.PUT("/:id", deps.VehicleHandler.Update)
			vehicles.DELETE("/:id", deps.VehicleHandler.Delete)
			vehicles.GET("/:id/location", deps.VehicleHandler.GetLocation)
			vehicles.PUT("/:id/location", deps.VehicleHandler.ReportLocation)
			vehicles.PUT("/:id/driver", deps.VehicleHandler.AssignDriver)
			vehicles.DELETE("/:id/driver", deps.VehicleHandler.UnassignDriver)
		}

		// Trip routes.
		trips := authed.Group("/trips")
		{
			trips.POST("", deps.TripHandler.Start)
			trips.GET("", deps.TripHandler.List)
			trips.GET("/:id", deps.TripHandler.Get)
			trips.PUT("/:id", deps.TripHandler.Update)
			trips.DELETE("/:id", deps.TripHandler.Delete)
			trips.POST("/:id/location", deps.TripHandler.AppendRoutePoint)
			trips.PUT("/:id/complete", deps.TripHandler.Complete)
			trips.PUT("/:id/cancel", deps.TripHandler.Cancel)
		}

		// Driver account routes.
		drivers := authed.Group("/drivers")
		{
			drivers.POST("", deps.DriverHandler.Create)
			drivers.GET("", deps.DriverHandler.List)
			drivers.GET("/:id", deps.DriverHandler.Get)
			drivers.PUT("/:id", deps.DriverHandler.Update)
			drivers.DELETE("/:id", deps.DriverHandler.Delete)
		}
	}

	return router
}
