package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/iknowaspot/backend/internal/auth"
	"github.com/iknowaspot/backend/internal/cache"
	"github.com/iknowaspot/backend/internal/database"
	"github.com/iknowaspot/backend/internal/favorites"
	"github.com/iknowaspot/backend/internal/friends"
	"github.com/iknowaspot/backend/internal/handlers"
	"github.com/iknowaspot/backend/internal/logger"
	"github.com/iknowaspot/backend/internal/metrics"
	"github.com/iknowaspot/backend/internal/middleware"
	"github.com/iknowaspot/backend/internal/places"
	"github.com/iknowaspot/backend/internal/realtime"
	"github.com/iknowaspot/backend/internal/recommendations"
	"github.com/iknowaspot/backend/internal/util"
	"github.com/iknowaspot/backend/internal/validation"
)

func main() {
	// Missing .env is fine, the system environment may carry everything
	_ = godotenv.Load()

	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE")); err != nil {
		panic(err)
	}
	defer logger.Close()

	logger.Log.Info("iknowaspot backend starting")

	if err := database.Initialize(); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Fail fast when deploy-time configuration marks a dependency as required
	validator := validation.NewServiceValidator()
	if err := validator.ValidateServices(context.Background()); err != nil {
		logger.Log.Fatal("Service validation failed", zap.Error(err))
	}

	// Redis is optional; the server degrades to uncached operation without it
	redisClient, err := cache.NewRedisClient(
		getEnv("REDIS_HOST", "localhost"),
		getEnv("REDIS_PORT", "6379"),
		os.Getenv("REDIS_PASSWORD"),
	)
	if err != nil {
		logger.Log.Warn("Redis unavailable, continuing without cache", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		logger.Log.Fatal("JWT_SECRET environment variable is required")
	}

	metrics.Initialize()

	// Services
	authService := auth.NewService(jwtSecret)
	favoritesService := favorites.NewService(database.DB)
	friendsService := friends.NewService(database.DB)
	recsAggregator := recommendations.NewAggregator(database.DB)
	placesClient := places.NewClient(
		getEnv("PLACES_API_URL", "https://maps.googleapis.com/maps/api/place"),
		os.Getenv("PLACES_API_KEY"),
		redisClient,
	)

	// Realtime sync layer
	wsHub := realtime.NewHub()
	wsRateLimit := realtime.DefaultRateLimitConfig()
	wsRateLimit.MaxMessagesPerSecond = util.ParseInt(os.Getenv("WS_RATE_LIMIT_PER_SECOND"), wsRateLimit.MaxMessagesPerSecond)
	wsRateLimit.BurstSize = util.ParseInt(os.Getenv("WS_RATE_LIMIT_BURST"), wsRateLimit.BurstSize)
	wsHub.SetRateLimitConfig(wsRateLimit)
	publisher := realtime.NewPublisher(wsHub, favoritesService, friendsService)
	wsHandler := realtime.NewHandler(wsHub, jwtSecret, publisher)
	go wsHub.Run()

	h := handlers.NewHandlers(authService, favoritesService, friendsService, recsAggregator, placesClient)
	h.SetPublisher(publisher)

	if os.Getenv("ENVIRONMENT") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // Configure properly for production
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	r.Use(cors.New(corsConfig))

	r.Use(middleware.RedisRateLimitMiddleware(300, time.Minute))

	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		if err := database.Health(); err != nil {
			status = "degraded"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"service":   "iknowaspot-backend",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.GET("/me", authService.Middleware(), h.Me)
		}

		favs := api.Group("/favorites")
		{
			favs.Use(authService.Middleware())
			favs.GET("", h.GetFavorites)
			favs.POST("/toggle", h.ToggleFavorite)
			favs.PATCH("/:placeID/notes", h.UpdateFavoriteNotes)
			favs.GET("/:placeID/status", h.CheckFavorite)
		}

		friendsGroup := api.Group("/friends")
		{
			friendsGroup.Use(authService.Middleware())
			friendsGroup.GET("", h.GetFriends)
			friendsGroup.DELETE("/:id", h.RemoveFriend)
			friendsGroup.GET("/requests", h.GetFriendRequests)
			friendsGroup.POST("/requests", h.SendFriendRequest)
			friendsGroup.POST("/requests/:requesterID/accept", h.AcceptFriendRequest)
			friendsGroup.POST("/requests/:requesterID/decline", h.DeclineFriendRequest)
		}

		users := api.Group("/users")
		{
			users.Use(authService.Middleware())
			users.GET("/search", h.SearchUsers)
			users.GET("/me/qr", h.GetQRCode)
			users.PATCH("/me", h.UpdateProfile)
			users.GET("/:id", h.GetProfile)
		}

		api.GET("/recommendations", authService.Middleware(), h.GetRecommendations)
		api.GET("/places/nearby", authService.Middleware(), h.SearchNearby)

		ws := api.Group("/ws")
		{
			// Auth via query param ?token=... or Authorization header
			ws.GET("", wsHandler.HandleWebSocket)
			ws.GET("/connect", wsHandler.HandleWebSocket)
			ws.GET("/metrics", authService.Middleware(), wsHandler.HandleMetrics)
			ws.POST("/online", authService.Middleware(), wsHandler.HandleOnlineStatus)
		}
	}

	port := getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("Listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := wsHandler.Shutdown(ctx); err != nil {
		logger.Log.Warn("WebSocket shutdown incomplete", zap.Error(err))
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
