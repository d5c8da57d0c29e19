package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

const principalKey = "principal"

// authMiddleware resolves the acting user from the X-User-ID header and
// stores a Principal in the request context. Requests without a valid,
// active user are rejected before any handler runs.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("X-User-ID")
		if header == "" {
			abortUnauthorized(c, "missing X-User-ID header")
			return
		}

		userID, err := strconv.ParseInt(header, 10, 64)
		if err != nil {
			abortUnauthorized(c, "invalid X-User-ID header")
			return
		}

		user, err := s.userRepo.GetByID(c.Request.Context(), userID)
		if err != nil {
			s.logger.Error("Failed to resolve user", "user_id", userID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, Response{
				Success: false,
				Error:   "failed to resolve user",
			})
			return
		}
		if user == nil || !user.IsActive {
			abortUnauthorized(c, "unknown or inactive user")
			return
		}

		c.Set(principalKey, entity.Principal{
			UserID:    user.ID,
			CompanyID: user.CompanyID,
			Role:      user.Role,
			Email:     user.Email,
		})
		c.Next()
	}
}

// requireRole gates a route to the given roles.
func requireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := principalFrom(c)
		for _, role := range roles {
			if principal.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, Response{
			Success: false,
			Error:   "insufficient permissions",
		})
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
		Success: false,
		Error:   msg,
	})
}

// principalFrom reads the Principal placed by authMiddleware. Routes are
// always registered behind it, so the key is present.
func principalFrom(c *gin.Context) entity.Principal {
	return c.MustGet(principalKey).(entity.Principal)
}
