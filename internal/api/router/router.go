package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/plumetext/convertd/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint, not behind the API key
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "convert-service",
		})
	})

	convertHandler := handler.NewConvertHandler(deps)

	// POST /convert - accept a document, media file, or URL for conversion
	r.POST("/convert", APIKeyMiddleware(deps.APIKey), convertHandler.Convert)

	return r
}
