package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dentalbook/dentalbook-api/internal/utils"
)

// Principal is the authenticated actor attached to the request context.
type Principal struct {
	ID        string
	Role      string
	DentistID string
}

// Protect validates the JWT from the Authorization header (or the token
// cookie set at login, so the frontend session works too) and attaches the
// principal to the context.
func Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		} else if cookie, err := c.Cookie("token"); err == nil {
			tokenString = cookie
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized to access this route"})
			return
		}

		claims, err := utils.ValidateJWT(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized to access this route"})
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("userRole", claims.Role)
		c.Set("dentistID", claims.DentistID)

		c.Next()
	}
}

// Authorize gates a route to the listed roles. Banned users are never
// listed, so they are rejected here even with a valid token.
func Authorize(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("userRole")
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "User role " + role + " is not authorized to access this route",
		})
	}
}

// PrincipalFromContext reads back what Protect stored.
func PrincipalFromContext(c *gin.Context) Principal {
	return Principal{
		ID:        c.GetString("userID"),
		Role:      c.GetString("userRole"),
		DentistID: c.GetString("dentistID"),
	}
}
