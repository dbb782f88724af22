package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/fintech_backend/config"
	"github.com/mmdatafocus/fintech_backend/models"
	"github.com/mmdatafocus/fintech_backend/utils"
)

const (
	authHeader = "Authorization"
	authCookie = "Authorization"
	bearer     = "Bearer "
)

// tokenFromRequest prefers the Authorization header and falls back to the cookie of the same name.
func tokenFromRequest(c *gin.Context) string {
	auth := strings.TrimSpace(c.Request.Header.Get(authHeader))
	if auth == "" {
		if cookie, err := c.Cookie(authCookie); err == nil {
			auth = strings.TrimSpace(cookie)
		}
	}
	if len(auth) >= len(bearer) && strings.EqualFold(auth[:len(bearer)], bearer) {
		auth = strings.TrimSpace(auth[len(bearer):])
	}
	return auth
}

// AuthMiddleware rejects requests without a valid, unrevoked token and puts the
// caller's identity on the request context.
func AuthMiddleware(settings config.AuthSettings) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, err := utils.JwtValidate(settings, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		revoked, err := models.IsTokenRevoked(c.Request.Context(), claims.Id)
		if err != nil {
			config.LogError(config.GetLogger(), "authMiddleware.go", "AuthMiddleware", "IsTokenRevoked", claims.Id, err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
			return
		}
		if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		ctx = utils.SetTokenIdInContext(ctx, claims.Id)
		ctx = utils.SetTokenExpiryInContext(ctx, claims.ExpiresAt)
		ctx = utils.SetUserIdInContext(ctx, claims.UserId)
		ctx = utils.SetUserEmailInContext(ctx, claims.Email)
		ctx = utils.SetUserRoleInContext(ctx, claims.Role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAdmin must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := utils.GetUserRoleFromContext(c.Request.Context())
		if role != string(models.UserRoleAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
