package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kendall-kelly/mechanic-shop-api/config"
	"github.com/kendall-kelly/mechanic-shop-api/controllers"
	"github.com/kendall-kelly/mechanic-shop-api/middleware"
	"github.com/kendall-kelly/mechanic-shop-api/models"
	"github.com/kendall-kelly/mechanic-shop-api/services"
)

func main() {
	log.Println("Starting Mechanic Shop API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.Customer{},
		&models.Mechanic{},
		&models.ServiceTicket{},
		&models.PartDescription{},
		&models.SerializedPart{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Redis backs the rate limiter and the response cache; without it both
	// fall back to in-process stores
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse REDIS_URL: %v", err)
		}
		rdb = redis.NewClient(opts)
		logger.Info("Redis connected", zap.String("addr", opts.Addr))
	} else {
		logger.Warn("REDIS_URL not set, using in-process rate limiter and cache")
	}

	// Photo storage is optional; ticket photo uploads 500 until configured
	if cfg.AWSS3Bucket != "" {
		s3Service, err := services.InitS3Service()
		if err != nil {
			log.Fatalf("Failed to initialize S3 service: %v", err)
		}
		services.InitPhotoService(s3Service)
		logger.Info("Photo storage configured", zap.String("bucket", cfg.AWSS3Bucket))
	} else {
		logger.Warn("AWS_S3_BUCKET not set, ticket photo uploads disabled")
	}

	limiter := middleware.NewRateLimiter(rdb)
	pageCache := middleware.NewPageCache(rdb)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "X-Cache"},
		MaxAge:        12 * time.Hour,
	}))

	registerRoutes(router, cfg, limiter, pageCache)

	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// buildLogger constructs the zap logger according to the environment
func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// registerRoutes wires every resource under /api/v1. Mutating routes carry
// rate limits mirroring the shop's write policy (25/hour for creates and
// associations, 5/hour for updates and deletes, reads exempt); ticket
// mutations additionally require an authenticated mechanic token.
func registerRoutes(router *gin.Engine, cfg *config.Config, limiter *middleware.RateLimiter, pageCache *middleware.PageCache) {
	createLimit := limiter.Limit(25, time.Hour)
	writeLimit := limiter.Limit(5, time.Hour)
	requireAuth := middleware.RequireAuth(cfg.JWTSecret)
	requireAdmin := middleware.RequireAdmin()

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)

		customers := v1.Group("/customers")
		{
			customers.POST("", createLimit, controllers.CreateCustomer)
			customers.GET("", controllers.GetCustomers)
			customers.GET("/most-valuable", controllers.GetMostValuableCustomers)
			customers.GET("/search", controllers.SearchCustomers)
			customers.GET("/:customer_id", controllers.GetCustomer)
			customers.PUT("/:customer_id", writeLimit, controllers.UpdateCustomer)
			customers.DELETE("/:customer_id", writeLimit, controllers.DeleteCustomer)
		}

		mechanics := v1.Group("/mechanics")
		{
			mechanics.POST("", createLimit, controllers.CreateMechanic)
			mechanics.POST("/login", createLimit, controllers.Login)
			mechanics.GET("", controllers.GetMechanics)
			mechanics.GET("/:mechanic_id", controllers.GetMechanic)
			mechanics.PUT("/:mechanic_id", writeLimit, controllers.UpdateMechanic)
			mechanics.DELETE("/:mechanic_id", writeLimit, controllers.DeleteMechanic)
		}

		tickets := v1.Group("/service-tickets")
		{
			tickets.GET("", controllers.GetServiceTickets)
			tickets.GET("/:ticket_id", controllers.GetServiceTicket)

			tickets.POST("", createLimit, requireAuth, requireAdmin, controllers.CreateServiceTicket)
			tickets.PUT("/:ticket_id", writeLimit, requireAuth, requireAdmin, controllers.UpdateServiceTicket)
			tickets.DELETE("/:ticket_id", writeLimit, requireAuth, requireAdmin, controllers.DeleteServiceTicket)

			tickets.PUT("/:ticket_id/add-mechanic/:mechanic_id", createLimit, requireAuth, requireAdmin, controllers.AddMechanic)
			tickets.DELETE("/:ticket_id/remove-mechanic/:mechanic_id", createLimit, requireAuth, requireAdmin, controllers.RemoveMechanic)
			tickets.PUT("/:ticket_id/add-part/:part_id", createLimit, requireAuth, requireAdmin, controllers.AddPart)
			tickets.DELETE("/:ticket_id/remove-part/:part_id", createLimit, requireAuth, requireAdmin, controllers.RemovePart)

			tickets.POST("/:ticket_id/photo", createLimit, requireAuth, requireAdmin, controllers.UploadTicketPhoto)
		}

		descriptions := v1.Group("/part-descriptions")
		{
			descriptions.POST("", createLimit, controllers.CreatePartDescription)
			descriptions.GET("", controllers.GetPartDescriptions)
			descriptions.GET("/most-valuable", controllers.GetMostValuablePartDescriptions)
			descriptions.GET("/search", controllers.SearchPartDescriptions)
			descriptions.GET("/:description_id", pageCache.Cached(30*time.Second), controllers.GetPartDescription)
			descriptions.PUT("/:description_id", writeLimit, controllers.UpdatePartDescription)
			descriptions.DELETE("/:description_id", writeLimit, controllers.DeletePartDescription)
		}

		parts := v1.Group("/serialized-parts")
		{
			parts.POST("", createLimit, controllers.CreateSerializedPart)
			parts.GET("", controllers.GetSerializedParts)
			parts.GET("/stock/:description_id", controllers.GetStock)
			parts.GET("/:part_id", pageCache.Cached(30*time.Second), controllers.GetSerializedPart)
			parts.PUT("/:part_id", writeLimit, controllers.UpdateSerializedPart)
			parts.DELETE("/:part_id", writeLimit, controllers.DeleteSerializedPart)
		}
	}
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Mechanic Shop API is running",
	})
}

// databaseStatus checks database connectivity
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

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
