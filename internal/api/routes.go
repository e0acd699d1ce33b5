package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"refugios-backend-go/internal/core"
	"refugios-backend-go/internal/db"
	"refugios-backend-go/internal/middleware"
)

// SetupRoutes configures the renovation routes. Global middleware (request ID,
// logging, recovery, CORS) is applied to the router in main before this is
// called. Every renovation route requires a verified bearer token.
func SetupRoutes(
	router *gin.Engine,
	logger *zap.Logger,
	renovationService core.RenovationService,
) {
	firebaseAuthClient := db.GetFirebaseAuthClient()
	if firebaseAuthClient == nil {
		logger.Fatal("Firebase Auth client is not initialized; routes cannot be secured.")
		panic("Firebase Auth client is nil during route setup")
	}
	authMW := middleware.NewAuthMiddleware(firebaseAuthClient)

	renovationHandler := NewRenovationHandler(renovationService, logger)

	authenticated := router.Group("", authMW.VerifyToken())
	{
		renovations := authenticated.Group("/renovations")
		{
			renovations.GET("", renovationHandler.ListRenovations)
			renovations.POST("", renovationHandler.CreateRenovation)
			renovations.GET("/:renovationId", renovationHandler.GetRenovation)
			renovations.PATCH("/:renovationId", renovationHandler.UpdateRenovation)
			renovations.DELETE("/:renovationId", renovationHandler.DeleteRenovation)

			renovations.POST("/:renovationId/participants", renovationHandler.JoinRenovation)
			renovations.DELETE("/:renovationId/participants/:participantUid", renovationHandler.RemoveParticipant)
		}

		authenticated.GET("/refuges/:refugeId/renovations", renovationHandler.ListRefugeRenovations)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Refugios backend is healthy."})
	})

	logger.Info("API routes configured successfully.")
}
