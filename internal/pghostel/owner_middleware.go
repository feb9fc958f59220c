package pghostel

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MohammedjaveedA/PG-Mate/internal/middleware"
	"github.com/MohammedjaveedA/PG-Mate/internal/models"
	"github.com/MohammedjaveedA/PG-Mate/pkg/response"
)

// ContextPGHostel is the context key for the PG/hostel loaded by RequirePGOwnership.
const ContextPGHostel = "pg_hostel"

// Getter loads a PG/hostel by ID.
type Getter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.PGHostel, error)
}

// RequirePGOwnership validates that the caller is an owner and owns the PG named
// by the given route parameter. Call after JWT. Loads the PG into context for the handler.
func RequirePGOwnership(store Getter, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleVal, _ := c.Get(middleware.ContextUserRole)
		if role, _ := roleVal.(string); role != string(models.RoleOwner) {
			response.Forbidden(c, "owner role required")
			c.Abort()
			return
		}
		pgID, err := uuid.Parse(c.Param(param))
		if err != nil {
			response.BadRequest(c, "invalid PG/Hostel id")
			c.Abort()
			return
		}
		pg, err := store.GetByID(c.Request.Context(), pgID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				response.NotFound(c, "PG/Hostel not found")
			} else {
				response.Internal(c, "failed to load PG/Hostel")
			}
			c.Abort()
			return
		}
		userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
		if pg.OwnerID != userID {
			response.Forbidden(c, "you are not the owner of this PG/Hostel")
			c.Abort()
			return
		}
		c.Set(ContextPGHostel, pg)
		c.Next()
	}
}
