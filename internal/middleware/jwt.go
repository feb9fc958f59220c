package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MohammedjaveedA/PG-Mate/pkg/response"
)

const (
	// ContextUserID is the key for user ID in gin context.
	ContextUserID = "user_id"
	// ContextUserRole is the key for user role in gin context.
	ContextUserRole = "user_role"
	// ContextUserEmail is the key for user email in gin context.
	ContextUserEmail = "user_email"
)

// Identity is the authenticated caller extracted from a bearer token.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

// ValidateFunc validates a bearer token and returns the caller identity.
type ValidateFunc func(token string) (Identity, error)

// JWT returns a middleware that validates the bearer token and sets user claims in context.
func JWT(validate ValidateFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		ident, err := validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextUserID, ident.UserID)
		c.Set(ContextUserRole, ident.Role)
		c.Set(ContextUserEmail, ident.Email)
		c.Next()
	}
}
