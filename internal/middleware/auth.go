package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/Deepee26/TMS/internal/constants"
	apierrors "github.com/Deepee26/TMS/internal/errors"
	"github.com/Deepee26/TMS/internal/models"
	"github.com/Deepee26/TMS/internal/utils"
)

// RequireAuth checks if the user is authenticated via session
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get(constants.SessionKeyUserID)

		if userID == nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		// Store identity in context for easy access in handlers
		c.Set(constants.SessionKeyUserID, userID)
		if role := session.Get(constants.SessionKeyRole); role != nil {
			c.Set(constants.SessionKeyRole, role)
		}
		c.Next()
	}
}

// RequireAdmin passes through only for admin-role sessions. The notice is
// also recorded as a flash message, matching the access-denied redirect flow.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get(constants.SessionKeyUserID)

		if userID == nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		role, _ := session.Get(constants.SessionKeyRole).(string)
		if models.Role(role) != models.RoleAdmin {
			utils.AddFlash(c, "error", "Access denied. Admin privileges required.")
			apierrors.Forbidden(c, "Access denied. Admin privileges required.")
			c.Abort()
			return
		}

		c.Set(constants.SessionKeyUserID, userID)
		c.Set(constants.SessionKeyRole, role)
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.SessionKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

// GetRole retrieves the current user role from context
func GetRole(c *gin.Context) models.Role {
	role, exists := c.Get(constants.SessionKeyRole)
	if !exists {
		return ""
	}
	if s, ok := role.(string); ok {
		return models.Role(s)
	}
	if r, ok := role.(models.Role); ok {
		return r
	}
	return ""
}
