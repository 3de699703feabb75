package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/codeWith-akshay/hotel-booking-sub000/internal/dto"
)

const (
	// ContextKeyUserID is the gin context key for the authenticated user ID
	ContextKeyUserID = "user_id"
	// ContextKeyRole is the gin context key for the authenticated role
	ContextKeyRole = "role"

	// RoleGuest books rooms for themselves
	RoleGuest = "guest"
	// RoleStaff operates the front desk: check-in, check-out, deposits
	RoleStaff = "staff"
	// RoleAdmin manages special day rules in addition to staff operations
	RoleAdmin = "admin"
)

// Auth validates the Bearer token and stores user_id and role on the context
func Auth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error: "missing or malformed authorization header",
				Code:  "UNAUTHORIZED",
			})
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error: "invalid or expired token",
				Code:  "UNAUTHORIZED",
			})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error: "invalid token claims",
				Code:  "UNAUTHORIZED",
			})
			return
		}

		userID, _ := claims["user_id"].(string)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error: "token missing user_id",
				Code:  "UNAUTHORIZED",
			})
			return
		}

		role, _ := claims["role"].(string)
		if role == "" {
			role = RoleGuest
		}

		c.Set(ContextKeyUserID, userID)
		c.Set(ContextKeyRole, role)
		c.Next()
	}
}

// RequireStaff rejects callers whose role is neither staff nor admin
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsStaff(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{
				Error: "staff role required",
				Code:  "UNAUTHORIZED",
			})
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects callers whose role is not admin
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextKeyRole) != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{
				Error: "admin role required",
				Code:  "UNAUTHORIZED",
			})
			return
		}
		c.Next()
	}
}

// GetUserID returns the authenticated user ID from the gin context
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}

// IsStaff reports whether the caller holds a staff or admin role
func IsStaff(c *gin.Context) bool {
	role := c.GetString(ContextKeyRole)
	return role == RoleStaff || role == RoleAdmin
}
