package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dormfix/dormfix-api/config"
	"github.com/dormfix/dormfix-api/controllers"
	"github.com/dormfix/dormfix-api/middleware"
	"github.com/dormfix/dormfix-api/models"
	"github.com/dormfix/dormfix-api/services"
)

func main() {
	log.Println("Starting DormFix API server...")

	// Load configuration once at startup
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(&models.User{}, &models.Ticket{}, &models.Location{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Initialize external services
	s3Service, err := services.InitS3Service()
	if err != nil {
		log.Fatalf("Failed to initialize S3 service: %v", err)
	}
	services.InitImageService(s3Service)
	services.InitClassifier()

	router := setupRouter(cfg)

	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter assembles the Gin engine with all API routes
func setupRouter(cfg *config.Config) *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())

	api := router.Group("/api")
	{
		// Health check endpoint
		api.GET("/health", healthCheck)

		// Database status endpoint
		api.GET("/database/status", databaseStatus)

		auth := api.Group("/auth")
		{
			auth.POST("/signup", controllers.Signup)
			auth.POST("/login", controllers.Login)
			auth.GET("/me", middleware.RequireAuth(cfg), controllers.GetMe)
		}

		locations := api.Group("/locations")
		{
			locations.GET("", controllers.GetLocations)
			locations.POST("", controllers.CreateLocation)
		}

		tickets := api.Group("/tickets")
		{
			tickets.POST("", controllers.CreateTicket)
			tickets.GET("", controllers.GetTickets)
			tickets.GET("/:id", controllers.GetTicketByID)
			tickets.PATCH("/:id/status", controllers.UpdateTicketStatus)
			tickets.PATCH("/:id/resolve", controllers.ResolveTicket)
			tickets.DELETE("/:id", controllers.DeleteTicket)
		}
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "DormFix API is running",
	})
}

// databaseStatus checks database connectivity
func databaseStatus(c *gin.Context) {
	db := config.GetDB()
	if db == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Database not initialized",
			},
		})
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
	})
}
