package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"refugios-backend-go/internal/api"
	"refugios-backend-go/internal/cache"
	"refugios-backend-go/internal/clock"
	"refugios-backend-go/internal/config"
	"refugios-backend-go/internal/core"
	"refugios-backend-go/internal/db"
	"refugios-backend-go/internal/middleware"
)

func main() {
	// A missing .env is fine; production reads real environment variables.
	_ = godotenv.Load()

	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	appConfig, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to load application configuration", zap.Error(err))
	}
	if strings.ToLower(appConfig.GinMode) == "release" {
		// Swap the dev logger for the production one before anything else logs.
		prodLogger, err := zap.NewProduction()
		if err == nil {
			zapLogger.Sync()
			zapLogger = prodLogger
			defer zapLogger.Sync()
		}
	}
	zapLogger.Info("Application configuration loaded successfully.")

	// Firebase Admin SDK: Firestore document store and Auth for bearer tokens.
	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()
	if err := db.InitFirestore(initCtx, appConfig); err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Firestore and Firebase Admin SDK", zap.Error(err))
	}
	firestoreClient := db.GetFirestoreClient()
	if firestoreClient == nil || db.GetFirebaseAuthClient() == nil {
		zapLogger.Fatal("CRITICAL_ERROR: Firebase clients are nil after initialization.")
	}
	zapLogger.Info("Firebase Admin SDK (Firestore, Auth) initialized successfully.")

	// Cache: Redis when configured, in-process otherwise.
	var appCache cache.Cache
	if appConfig.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(initCtx, cache.RedisConfig{
			Addr:     appConfig.RedisAddr,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
		})
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to Redis", zap.Error(err))
		}
		defer redisCache.Close()
		appCache = redisCache
		zapLogger.Info("Redis cache connected", zap.String("addr", appConfig.RedisAddr))
	} else {
		appCache = cache.NewMemoryCache()
		zapLogger.Warn("REDIS_ADDR not configured; using in-process cache. Fine for a single instance only.")
	}

	platformClock, err := clock.NewFixedZoneClock()
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to load platform time zone", zap.Error(err))
	}

	renovationRepo := db.NewFirestoreRenovationRepository(
		firestoreClient, appCache, zapLogger, appConfig.CacheDetailTTL, appConfig.CacheListTTL)
	counterRepo := db.NewFirestoreUserCounterRepository(firestoreClient)
	zapLogger.Info("Repositories initialized successfully.")

	renovationService, err := core.NewRenovationService(renovationRepo, counterRepo, platformClock, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize RenovationService", zap.Error(err))
	}
	zapLogger.Info("Core services initialized successfully.")

	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()

	// Global middleware; order matters.
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	if appConfig.ClientURL != "" {
		router.Use(middleware.CORSMiddleware(appConfig))
		zapLogger.Info("CORS Middleware enabled", zap.String("clientURL", appConfig.ClientURL))
	} else {
		zapLogger.Warn("CORS Middleware SKIPPED: CLIENT_URL is not configured.")
	}

	api.SetupRoutes(router, zapLogger, renovationService)

	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	zapLogger.Info("Starting HTTP server...", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("Server forced to shutdown during graceful shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting gracefully.")
}
