// main.go
package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nathasitm/portfolio-backend/auth"
	"github.com/nathasitm/portfolio-backend/config"
	"github.com/nathasitm/portfolio-backend/endpoint"
	"github.com/nathasitm/portfolio-backend/middleware"
	"github.com/nathasitm/portfolio-backend/model"
	"github.com/nathasitm/portfolio-backend/util"
)

func main() {
	// Load the configuration
	cfg := config.LoadConfig()

	db, err := config.ConnectMySQL()
	if err != nil {
		log.Fatalf("Error connecting to MySQL: %v", err)
	}
	db.AutoMigrate(&model.Work{}, &model.SecurityLog{})
	util.SetSecurityLoggerDB(db)

	if err := util.InitGeoIP(cfg.GeoIPDBPath); err != nil {
		log.Printf("GeoIP database unavailable, using HTTP lookups only: %v", err)
	}
	defer util.CloseGeoIP()
	util.SetIPLookupURL(cfg.IPLookupURL)

	// Redis is optional: sessions fall back to memory, rate limiting fails open.
	if _, err := config.ConnectRedis(); err != nil {
		log.Printf("Redis unavailable: %v", err)
	}

	holder := auth.NewHolder(auth.NewStore(config.GetRedisClient()), auth.DefaultSessionTTL)
	discord := auth.NewClient(cfg)
	notifier := util.NewNotifier(cfg.DiscordWebhookURL, cfg.ReportTimezone)

	authHandler := endpoint.NewAuthHandler(discord, holder, notifier, cfg.LoginPassKey)
	contactHandler := endpoint.NewContactHandler(notifier)

	// Set Gin mode from config
	gin.SetMode(cfg.GinMode)

	router := gin.Default()
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DatabaseMiddleware(db))
	router.Use(middleware.EndpointCallLogger())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Welcome to %s!", cfg.AppName),
		})
	})

	// Public site surface
	router.GET("/work", endpoint.ListWorks)
	router.POST("/contact", middleware.RateLimiter(middleware.RateLimitConfig{}), contactHandler.SubmitContact)

	// Login flow
	router.GET("/login", authHandler.Login)
	router.GET("/auth/discord/login", middleware.RateLimiter(middleware.RateLimitConfig{}), authHandler.DiscordRedirect)
	router.POST("/auth/discord/callback", middleware.RateLimiter(middleware.RateLimitConfig{}), authHandler.Callback)
	router.DELETE("/logout", authHandler.Logout)
	router.GET("/token/validate", authHandler.ValidateToken)

	// Protected admin surface
	router.GET("/admin", middleware.RouteGuard(holder), endpoint.AdminHome)
	adminAPI := router.Group("/", middleware.SessionAuth(holder))
	adminAPI.POST("/work", endpoint.CreateWork)
	adminAPI.PATCH("/work/:id", endpoint.UpdateWork)
	adminAPI.DELETE("/work/:id", endpoint.DeleteWork)
	adminAPI.PUT("/work/reorder", endpoint.ReorderWorks)

	// Start server on specified port
	address := fmt.Sprintf(":%d", cfg.AppPort)
	if err := router.Run(address); err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}
