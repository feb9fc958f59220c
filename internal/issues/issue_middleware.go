package issues

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MohammedjaveedA/PG-Mate/internal/middleware"
	"github.com/MohammedjaveedA/PG-Mate/internal/models"
	"github.com/MohammedjaveedA/PG-Mate/internal/pghostel"
	"github.com/MohammedjaveedA/PG-Mate/pkg/response"
)

// ContextIssue is the context key for the issue loaded by RequireIssueOwnership.
const ContextIssue = "issue"

// IssueGetter loads an issue by ID.
type IssueGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Issue, error)
}

// RequireIssueOwnership validates that the caller is an owner and owns the PG
// the issue belongs to. The chain is issue -> pg_hostel_id -> owner_id; the
// issue's student is irrelevant here. Call after JWT. Loads the issue into
// context for the handler.
func RequireIssueOwnership(store IssueGetter, pgs pghostel.Getter) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleVal, _ := c.Get(middleware.ContextUserRole)
		if role, _ := roleVal.(string); role != string(models.RoleOwner) {
			response.Forbidden(c, "owner role required")
			c.Abort()
			return
		}
		issueID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.BadRequest(c, "invalid issue id")
			c.Abort()
			return
		}
		issue, err := store.GetByID(c.Request.Context(), issueID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				response.NotFound(c, "issue not found")
			} else {
				response.Internal(c, "failed to load issue")
			}
			c.Abort()
			return
		}
		pg, err := pgs.GetByID(c.Request.Context(), issue.PGHostelID)
		if err != nil {
			response.Internal(c, "failed to load PG/Hostel")
			c.Abort()
			return
		}
		userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
		if pg.OwnerID != userID {
			response.Forbidden(c, "you do not own the PG/Hostel associated with this issue")
			c.Abort()
			return
		}
		c.Set(ContextIssue, issue)
		c.Next()
	}
}
