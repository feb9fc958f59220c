package notifications

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MohammedjaveedA/PG-Mate/internal/issues"
	"github.com/MohammedjaveedA/PG-Mate/internal/models"
	"github.com/MohammedjaveedA/PG-Mate/pkg/response"
)

// LogStore lists recorded notification emails.
type LogStore interface {
	ListByIssue(ctx context.Context, issueID uuid.UUID) ([]models.EmailLog, error)
}

// Handler exposes the email log for owners.
type Handler struct {
	logs   LogStore
	logger *zap.Logger
}

// NewHandler creates a notifications handler.
func NewHandler(logs LogStore, logger *zap.Logger) *Handler {
	return &Handler{logs: logs, logger: logger}
}

// ListByIssue handles GET /issues/:id/emails. Runs behind the issue ownership gate.
func (h *Handler) ListByIssue(c *gin.Context) {
	issue := c.MustGet(issues.ContextIssue).(*models.Issue)

	logs, err := h.logs.ListByIssue(c.Request.Context(), issue.ID)
	if err != nil {
		h.logger.Error("list email logs", zap.Error(err), zap.String("issue_id", issue.ID.String()))
		response.Internal(c, "failed to load email logs")
		return
	}
	response.OK(c, gin.H{"emails": logs, "count": len(logs)})
}
