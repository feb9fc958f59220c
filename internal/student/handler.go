package student

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MohammedjaveedA/PG-Mate/internal/middleware"
	"github.com/MohammedjaveedA/PG-Mate/internal/models"
	"github.com/MohammedjaveedA/PG-Mate/internal/pghostel"
	"github.com/MohammedjaveedA/PG-Mate/pkg/response"
)

// UserStore is the persistence surface the student handlers need.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetPGHostel(ctx context.Context, id uuid.UUID, pgHostelID *uuid.UUID) (*models.User, error)
}

// SelectPGRequest is the body for PATCH /student/select-pg.
type SelectPGRequest struct {
	PGHostelID string `json:"pgHostelId" binding:"required"`
}

// Handler handles student HTTP endpoints (join/leave/inspect the chosen PG).
type Handler struct {
	users  UserStore
	pgs    pghostel.Getter
	logger *zap.Logger
}

// NewHandler creates a student handler.
func NewHandler(users UserStore, pgs pghostel.Getter, logger *zap.Logger) *Handler {
	return &Handler{users: users, pgs: pgs, logger: logger}
}

// SelectPG handles PATCH /student/select-pg. Only an active PG can be joined.
func (h *Handler) SelectPG(c *gin.Context) {
	var req SelectPGRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "PG/Hostel ID is required")
		return
	}
	pgID, err := uuid.Parse(req.PGHostelID)
	if err != nil {
		response.BadRequest(c, "invalid PG/Hostel ID")
		return
	}

	pg, err := h.pgs.GetByID(c.Request.Context(), pgID)
	if err != nil {
		if errors.Is(err, pghostel.ErrNotFound) {
			response.NotFound(c, "PG/Hostel not found")
			return
		}
		response.Internal(c, "failed to load PG/Hostel")
		return
	}
	if !pg.IsActive {
		response.NotFound(c, "PG/Hostel not found")
		return
	}

	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	user, err := h.users.SetPGHostel(c.Request.Context(), userID, &pg.ID)
	if err != nil {
		h.logger.Error("select pg", zap.Error(err), zap.String("user_id", userID.String()))
		response.Internal(c, "failed to join PG/Hostel")
		return
	}

	response.OK(c, gin.H{"message": "successfully joined PG/Hostel", "student": user.ToPublic()})
}

// LeavePG handles PATCH /student/leave-pg.
func (h *Handler) LeavePG(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	user, err := h.users.SetPGHostel(c.Request.Context(), userID, nil)
	if err != nil {
		h.logger.Error("leave pg", zap.Error(err), zap.String("user_id", userID.String()))
		response.Internal(c, "failed to leave PG/Hostel")
		return
	}
	response.OK(c, gin.H{"message": "successfully left PG/Hostel", "student": user.ToPublic()})
}

// MyPG handles GET /student/my-pg. Returns the student plus the joined PG's
// display details, or a null PG when none is joined.
func (h *Handler) MyPG(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to load student")
		return
	}

	var pgInfo gin.H
	if user.PGHostelID != nil {
		pg, err := h.pgs.GetByID(c.Request.Context(), *user.PGHostelID)
		if err == nil {
			pgInfo = gin.H{
				"id":         pg.ID,
				"name":       pg.Name,
				"address":    pg.Address,
				"facilities": pg.Facilities,
				"contact":    pg.Contact,
			}
		}
	}

	response.OK(c, gin.H{"student": user.ToPublic(), "pgHostel": pgInfo})
}
