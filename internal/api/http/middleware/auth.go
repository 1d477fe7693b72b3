package middleware

import (
	"crypto/ecdsa"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stokhub/internal/api/http/handler"
	"stokhub/internal/model"
	"stokhub/pkg/jwt"
)

// JWTAuth validates the access token and copies its claims into the gin
// context. The token is taken from the access cookie, the Authorization
// header, or the access_token query parameter. The query form exists for
// browser WebSocket clients, which cannot set headers on the upgrade
// request.
func JWTAuth(publicKey *ecdsa.PublicKey) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenStr string

		if cookie, err := c.Cookie("access"); err == nil {
			tokenStr = cookie
		}

		if tokenStr == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				tokenStr = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if tokenStr == "" {
			tokenStr = c.Query("access_token")
		}

		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.ResponseWithMessage{
				Status:  handler.StatusNotPermitted,
				Message: "Missing access token",
			})

			return
		}

		claims, err := jwt.ValidateToken(tokenStr, publicKey)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.ResponseWithMessage{
				Status:  handler.StatusNotPermitted,
				Message: "invalid or expired token",
			})

			return
		}

		// Absent claims degrade to zero values so the context never
		// carries an untyped nil.
		c.Set(model.UserIDKey, jwt.StringClaim(claims, model.UserIDKey))
		c.Set(model.UserCodeKey, jwt.StringClaim(claims, model.UserCodeKey))
		c.Set(model.UserNameKey, jwt.StringClaim(claims, model.UserNameKey))
		c.Set(model.UserAdminKey, jwt.BoolClaim(claims, model.UserAdminKey))
		c.Set(model.UserSubeIDsKey, jwt.StringClaim(claims, model.UserSubeIDsKey))

		c.Next()
	}
}
