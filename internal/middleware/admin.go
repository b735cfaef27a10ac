package middleware

import (
	"net/http"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/repository"

	"github.com/gin-gonic/gin"
)

// AdminRequired checks that the authenticated user has the ADMINISTRATOR role.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists || role.(string) != domain.RoleAdministrator {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "administrator access required"})
			return
		}
		c.Next()
	}
}

// ActiveUser rejects tokens of accounts deactivated after the token was
// issued, and refreshes the role and ward from the database. Use after
// AuthRequired.
func ActiveUser(userRepo *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := GetUserID(c)
		if userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		u, err := userRepo.GetByID(userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account not found"})
			return
		}
		if !u.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account is deactivated"})
			return
		}
		c.Set("role", u.Role)
		if u.WardID != nil {
			c.Set("ward_id", *u.WardID)
		} else {
			c.Set("ward_id", nil)
		}
		c.Next()
	}
}
