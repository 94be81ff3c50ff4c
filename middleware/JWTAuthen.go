package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"cicstask/model"
)

const (
	ContextUserID = "userId"
	ContextRole   = "role"
	ContextEmail  = "email"
)

// AccessTokenMiddleware accepts HMAC-signed access tokens issued by the identity
// provider and puts the caller's id, email and role on the context.
func AccessTokenMiddleware(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		if len(key) == 0 {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Token verification is not configured"})
			return
		}
		header := c.Request.Header.Get("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is missing"})
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return key, nil
		})
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Token is expired or invalid: " + err.Error()})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}

		userID, ok := claims["userId"].(string)
		if !ok || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid userId in token claims"})
			return
		}
		role := model.RoleUser
		if r, ok := claims["role"].(string); ok {
			switch model.Role(r) {
			case model.RoleAdmin, model.RoleSuperAdmin:
				role = model.Role(r)
			}
		}
		email, _ := claims["email"].(string)

		c.Set(ContextUserID, userID)
		c.Set(ContextRole, role)
		c.Set(ContextEmail, email)
		c.Next()
	}
}

// RequireAssigner lets only admins and super admins through.
func RequireAssigner() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Role(c).CanAssign() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		c.Next()
	}
}

func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

func Role(c *gin.Context) model.Role {
	if r, ok := c.Get(ContextRole); ok {
		if role, ok := r.(model.Role); ok {
			return role
		}
	}
	return model.RoleUser
}
