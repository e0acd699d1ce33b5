package middleware

import (
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"

	"refugios-backend-go/internal/models"
)

// callerContextKey is the gin context key under which the authenticated
// caller is stored.
const callerContextKey = "caller"

// errorResponse mirrors api.ErrorResponse locally to avoid an import cycle
// with internal/api.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// AuthMiddleware provides Gin middleware for Firebase bearer-token
// authentication. It is the only place that looks at raw token claims; the
// rest of the application sees a models.Caller value.
type AuthMiddleware struct {
	firebaseAuthClient *auth.Client
}

// NewAuthMiddleware creates a new AuthMiddleware instance. It panics on a nil
// auth client, a programmer error during setup.
func NewAuthMiddleware(fbAuthClient *auth.Client) *AuthMiddleware {
	if fbAuthClient == nil {
		panic("Firebase Auth client is not initialized for AuthMiddleware")
	}
	return &AuthMiddleware{firebaseAuthClient: fbAuthClient}
}

// VerifyToken verifies the Firebase ID token from the Authorization header
// and stores the resolved caller in the Gin context.
func (m *AuthMiddleware) VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{
				Error:   "unauthenticated",
				Message: "Authorization header is required.",
			})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{
				Error:   "unauthenticated",
				Message: "Authorization header format must be 'Bearer {token}'.",
			})
			return
		}
		idToken := parts[1]

		token, err := m.firebaseAuthClient.VerifyIDToken(c.Request.Context(), idToken)
		if err != nil {
			// Generic message to the client; details stay server-side.
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{
				Error:   "unauthenticated",
				Message: "Invalid or expired authentication token.",
			})
			return
		}

		caller := models.Caller{UID: token.UID}
		if isAdmin, ok := token.Claims["admin"].(bool); ok {
			caller.IsAdmin = isAdmin
		}
		SetCaller(c, caller)

		c.Next()
	}
}

// SetCaller stores the authenticated caller in the Gin context. Exposed so
// handler tests can install a caller without a real token.
func SetCaller(c *gin.Context, caller models.Caller) {
	c.Set(callerContextKey, caller)
}

// CallerFromContext returns the authenticated caller placed by VerifyToken.
func CallerFromContext(c *gin.Context) (models.Caller, bool) {
	value, exists := c.Get(callerContextKey)
	if !exists {
		return models.Caller{}, false
	}
	caller, ok := value.(models.Caller)
	return caller, ok
}
