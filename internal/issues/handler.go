package issues

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MohammedjaveedA/PG-Mate/internal/middleware"
	"github.com/MohammedjaveedA/PG-Mate/internal/models"
	"github.com/MohammedjaveedA/PG-Mate/internal/pghostel"
	"github.com/MohammedjaveedA/PG-Mate/pkg/queue"
	"github.com/MohammedjaveedA/PG-Mate/pkg/response"
	"github.com/MohammedjaveedA/PG-Mate/pkg/storage"
)

// Store is the persistence surface the issue handlers need.
type Store interface {
	IssueGetter
	Create(ctx context.Context, i *models.Issue) error
	GetWithComments(ctx context.Context, id uuid.UUID) (*models.Issue, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]models.Issue, error)
	ListByPG(ctx context.Context, pgHostelID uuid.UUID, status models.Status) ([]models.Issue, error)
	UpdateStatus(ctx context.Context, i *models.Issue) error
	AddComment(ctx context.Context, issueID, userID uuid.UUID, text string, isOwner bool) (*models.Comment, error)
	AppendImage(ctx context.Context, id uuid.UUID, url string) error
}

// UserGetter loads a user by ID.
type UserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Broadcaster fans an issue event out to connected owner dashboards.
type Broadcaster interface {
	BroadcastToPGAndPublish(pgHostelID uuid.UUID, event string, payload interface{})
}

// NotificationQueue enqueues issue notification jobs for the background worker.
type NotificationQueue interface {
	EnqueueIssueNotification(ctx context.Context, payload queue.IssueNotificationPayload) error
}

// ImageStorage is the S3 surface for presigned issue image uploads.
type ImageStorage interface {
	GeneratePresignedUploadURL(ctx context.Context, key, contentType string, expires time.Duration) (string, error)
	ObjectURL(key string) string
	PresignExpire() time.Duration
}

// CreateIssueRequest is the body for POST /issues. The issue's PG is always the
// student's joined PG; a client-supplied pgHostelId is ignored.
type CreateIssueRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	RoomNumber  string `json:"roomNumber" binding:"required"`
	Category    string `json:"category" binding:"required"`
	Priority    string `json:"priority"`
}

// UpdateStatusRequest is the body for PUT /issues/:id/status.
type UpdateStatusRequest struct {
	Status          string `json:"status" binding:"required"`
	ResolutionNotes string `json:"resolutionNotes"`
	AssignedTo      string `json:"assignedTo"`
}

// CommentRequest is the body for POST /issues/:id/comment. Any capability flag
// in the body is ignored; isOwner is derived from the verified caller.
type CommentRequest struct {
	Text string `json:"text" binding:"required"`
}

// UploadURLRequest is the body for POST /issues/:id/images/generate-upload-url.
type UploadURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"contentType"`
}

// Handler handles issue HTTP endpoints.
type Handler struct {
	store  Store
	users  UserGetter
	pgs    pghostel.Getter
	events Broadcaster
	notify NotificationQueue
	s3     ImageStorage
	logger *zap.Logger
}

// NewHandler creates an issue handler. events, notify and s3 may be nil when the
// corresponding backing service is not configured.
func NewHandler(store Store, users UserGetter, pgs pghostel.Getter, events Broadcaster, notify NotificationQueue, s3 ImageStorage, logger *zap.Logger) *Handler {
	return &Handler{store: store, users: users, pgs: pgs, events: events, notify: notify, s3: s3, logger: logger}
}

// Create handles POST /issues (student only).
func (h *Handler) Create(c *gin.Context) {
	var req CreateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	category := models.Category(req.Category)
	if !models.ValidCategory(category) {
		response.BadRequest(c, "invalid category")
		return
	}
	priority := models.PriorityMedium
	if req.Priority != "" {
		priority = models.Priority(req.Priority)
		if !models.ValidPriority(priority) {
			response.BadRequest(c, "invalid priority")
			return
		}
	}

	studentID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	student, err := h.users.GetByID(c.Request.Context(), studentID)
	if err != nil {
		response.Internal(c, "failed to load student")
		return
	}
	if student.PGHostelID == nil {
		response.BadRequest(c, "you have not joined a PG/Hostel")
		return
	}
	// the joined PG may have been deleted since the student selected it
	if _, err := h.pgs.GetByID(c.Request.Context(), *student.PGHostelID); err != nil {
		if errors.Is(err, pghostel.ErrNotFound) {
			response.BadRequest(c, "you have not joined a PG/Hostel")
			return
		}
		response.Internal(c, "failed to load PG/Hostel")
		return
	}

	issue := &models.Issue{
		Title:       req.Title,
		Description: req.Description,
		RoomNumber:  req.RoomNumber,
		Category:    category,
		Priority:    priority,
		Status:      models.StatusPending,
		StudentID:   studentID,
		PGHostelID:  *student.PGHostelID,
	}
	if err := h.store.Create(c.Request.Context(), issue); err != nil {
		h.logger.Error("create issue", zap.Error(err))
		response.Internal(c, "failed to create issue")
		return
	}

	h.notifyOwner(c.Request.Context(), issue)
	if h.events != nil {
		h.events.BroadcastToPGAndPublish(issue.PGHostelID, "issue.created", issue)
	}

	response.Created(c, gin.H{"issue": issue})
}

// notifyOwner enqueues a notification job addressed to the PG's owner.
func (h *Handler) notifyOwner(ctx context.Context, issue *models.Issue) {
	if h.notify == nil {
		return
	}
	pg, err := h.pgs.GetByID(ctx, issue.PGHostelID)
	if err != nil {
		h.logger.Warn("load pg for notification", zap.Error(err), zap.String("issue_id", issue.ID.String()))
		return
	}
	err = h.notify.EnqueueIssueNotification(ctx, queue.IssueNotificationPayload{
		IssueID:     issue.ID,
		PGHostelID:  issue.PGHostelID,
		RecipientID: pg.OwnerID,
		Kind:        queue.NotifyIssueCreated,
	})
	if err != nil {
		h.logger.Warn("enqueue issue notification", zap.Error(err), zap.String("issue_id", issue.ID.String()))
	}
}

// notifyStudent enqueues a notification job addressed to the reporting student.
func (h *Handler) notifyStudent(ctx context.Context, issue *models.Issue, kind queue.NotificationKind) {
	if h.notify == nil {
		return
	}
	err := h.notify.EnqueueIssueNotification(ctx, queue.IssueNotificationPayload{
		IssueID:     issue.ID,
		PGHostelID:  issue.PGHostelID,
		RecipientID: issue.StudentID,
		Kind:        kind,
		Status:      string(issue.Status),
	})
	if err != nil {
		h.logger.Warn("enqueue issue notification", zap.Error(err), zap.String("issue_id", issue.ID.String()))
	}
}

// MyIssues handles GET /issues/my-issues (student only). The result set is
// always filtered to the caller's own issues.
func (h *Handler) MyIssues(c *gin.Context) {
	studentID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.store.ListByStudent(c.Request.Context(), studentID)
	if err != nil {
		h.logger.Error("list student issues", zap.Error(err))
		response.Internal(c, "failed to list issues")
		return
	}
	if list == nil {
		list = []models.Issue{}
	}
	response.OK(c, gin.H{"count": len(list), "issues": list})
}

// ListByPG handles GET /issues/pg/:pgId (owner only, ownership verified by
// RequirePGOwnership). Accepts an optional single-status filter; "all" or an
// empty value disables it.
func (h *Handler) ListByPG(c *gin.Context) {
	pg := c.MustGet(pghostel.ContextPGHostel).(*models.PGHostel)

	var status models.Status
	if s := c.Query("status"); s != "" && s != "all" {
		status = models.Status(s)
		if !models.ValidStatus(status) {
			response.BadRequest(c, "invalid status filter")
			return
		}
	}

	list, err := h.store.ListByPG(c.Request.Context(), pg.ID, status)
	if err != nil {
		h.logger.Error("list pg issues", zap.Error(err), zap.String("pg_id", pg.ID.String()))
		response.Internal(c, "failed to list issues")
		return
	}
	if list == nil {
		list = []models.Issue{}
	}
	response.OK(c, gin.H{
		"pgHostel": gin.H{"id": pg.ID, "name": pg.Name},
		"issues":   list,
	})
}

// UpdateStatus handles PUT /issues/:id/status (owner only, ownership verified
// by RequireIssueOwnership).
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	var assignedTo *uuid.UUID
	if req.AssignedTo != "" {
		id, err := uuid.Parse(req.AssignedTo)
		if err != nil {
			response.BadRequest(c, "invalid assignedTo")
			return
		}
		assignedTo = &id
	}

	issue := c.MustGet(ContextIssue).(*models.Issue)
	if err := ApplyStatus(issue, models.Status(req.Status), req.ResolutionNotes, assignedTo, time.Now()); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.store.UpdateStatus(c.Request.Context(), issue); err != nil {
		h.logger.Error("update issue status", zap.Error(err), zap.String("issue_id", issue.ID.String()))
		response.Internal(c, "failed to update issue status")
		return
	}

	full, err := h.store.GetWithComments(c.Request.Context(), issue.ID)
	if err != nil {
		full = issue
	}

	h.notifyStudent(c.Request.Context(), full, queue.NotifyIssueStatus)
	if h.events != nil {
		h.events.BroadcastToPGAndPublish(full.PGHostelID, "issue.status", gin.H{
			"issueId": full.ID,
			"status":  full.Status,
		})
	}

	response.OK(c, gin.H{"issue": full})
}

// Comment handles POST /issues/:id/comment (owner only, ownership verified by
// RequireIssueOwnership). The comment's isOwner flag reflects the gate result,
// not anything the client sent.
func (h *Handler) Comment(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	issue := c.MustGet(ContextIssue).(*models.Issue)
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	if _, err := h.store.AddComment(c.Request.Context(), issue.ID, userID, req.Text, true); err != nil {
		h.logger.Error("add issue comment", zap.Error(err), zap.String("issue_id", issue.ID.String()))
		response.Internal(c, "failed to add comment")
		return
	}

	full, err := h.store.GetWithComments(c.Request.Context(), issue.ID)
	if err != nil {
		response.Internal(c, "failed to load issue")
		return
	}

	h.notifyStudent(c.Request.Context(), full, queue.NotifyIssueComment)
	if h.events != nil {
		h.events.BroadcastToPGAndPublish(full.PGHostelID, "issue.comment", gin.H{
			"issueId": full.ID,
		})
	}

	response.OK(c, gin.H{"issue": full})
}

// GenerateImageUploadURL handles POST /issues/:id/images/generate-upload-url
// (student only, and only for the student who filed the issue).
func (h *Handler) GenerateImageUploadURL(c *gin.Context) {
	if h.s3 == nil {
		response.ServiceUnavailable(c, "image storage not configured")
		return
	}
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !storage.ValidateImageType(req.ContentType, req.Filename) {
		response.BadRequest(c, "unsupported image type")
		return
	}

	issueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid issue id")
		return
	}
	issue, err := h.store.GetByID(c.Request.Context(), issueID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "issue not found")
			return
		}
		response.Internal(c, "failed to load issue")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if issue.StudentID != userID {
		response.Forbidden(c, "you did not report this issue")
		return
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(req.Filename)
	}
	key := storage.IssueImageKey(issue.ID.String(), req.Filename)

	uploadURL, err := h.s3.GeneratePresignedUploadURL(c.Request.Context(), key, contentType, h.s3.PresignExpire())
	if err != nil {
		h.logger.Error("presign issue image upload", zap.Error(err), zap.String("issue_id", issue.ID.String()))
		response.Internal(c, "failed to generate upload URL")
		return
	}

	imageURL := h.s3.ObjectURL(key)
	if err := h.store.AppendImage(c.Request.Context(), issue.ID, imageURL); err != nil {
		h.logger.Error("append issue image", zap.Error(err), zap.String("issue_id", issue.ID.String()))
		response.Internal(c, "failed to record image")
		return
	}

	response.OK(c, gin.H{"uploadUrl": uploadURL, "imageUrl": imageURL})
}
