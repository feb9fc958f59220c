package pghostel

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MohammedjaveedA/PG-Mate/internal/middleware"
	"github.com/MohammedjaveedA/PG-Mate/internal/models"
	"github.com/MohammedjaveedA/PG-Mate/pkg/response"
	"github.com/MohammedjaveedA/PG-Mate/pkg/storage"
)

// Store is the persistence surface the PG/hostel handlers need.
type Store interface {
	Getter
	Create(ctx context.Context, p *models.PGHostel) error
	ListActive(ctx context.Context) ([]models.PGHostel, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.PGHostel, error)
	Update(ctx context.Context, p *models.PGHostel) error
	DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) (int64, error)
	CountActiveIssues(ctx context.Context, id uuid.UUID) (int, error)
	AppendImage(ctx context.Context, id uuid.UUID, url string) error
}

// ImageStorage is the S3 surface for presigned property image uploads.
type ImageStorage interface {
	GeneratePresignedUploadURL(ctx context.Context, key, contentType string, expires time.Duration) (string, error)
	ObjectURL(key string) string
	PresignExpire() time.Duration
}

// CreatePGRequest is the body for POST /pghostel.
type CreatePGRequest struct {
	Name          string         `json:"name" binding:"required"`
	Address       models.Address `json:"address"`
	Contact       models.Contact `json:"contact"`
	Facilities    []string       `json:"facilities"`
	TotalRooms    int            `json:"totalRooms"`
	OccupiedRooms int            `json:"occupiedRooms"`
	Description   string         `json:"description"`
}

// UpdatePGRequest is the body for PUT /pghostel/:id. Nil fields are left unchanged.
type UpdatePGRequest struct {
	Name          *string         `json:"name"`
	Address       *models.Address `json:"address"`
	Contact       *models.Contact `json:"contact"`
	Facilities    *[]string       `json:"facilities"`
	TotalRooms    *int            `json:"totalRooms"`
	OccupiedRooms *int            `json:"occupiedRooms"`
	Description   *string         `json:"description"`
	IsActive      *bool           `json:"isActive"`
}

// UploadURLRequest is the body for POST /pghostel/:id/images/generate-upload-url.
type UploadURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"contentType"`
}

// Handler handles PG/hostel HTTP endpoints.
type Handler struct {
	store  Store
	s3     ImageStorage
	logger *zap.Logger
}

// NewHandler creates a PG/hostel handler. s3 may be nil when image storage is not configured.
func NewHandler(store Store, s3 ImageStorage, logger *zap.Logger) *Handler {
	return &Handler{store: store, s3: s3, logger: logger}
}

// Create handles POST /pghostel (owner only). OwnerID always comes from the
// authenticated caller, never from the request body.
func (h *Handler) Create(c *gin.Context) {
	var req CreatePGRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	pg := &models.PGHostel{
		OwnerID:       c.MustGet(middleware.ContextUserID).(uuid.UUID),
		Name:          req.Name,
		Address:       req.Address,
		Contact:       req.Contact,
		Facilities:    req.Facilities,
		TotalRooms:    req.TotalRooms,
		OccupiedRooms: req.OccupiedRooms,
		Description:   req.Description,
		IsActive:      true,
	}
	if err := h.store.Create(c.Request.Context(), pg); err != nil {
		h.logger.Error("create pg hostel", zap.Error(err))
		response.Internal(c, "failed to create PG/Hostel")
		return
	}
	response.Created(c, gin.H{"pgHostel": pg})
}

// ListPublic handles GET /pghostel/list. No authentication; active properties
// only, restricted to name, address and facilities.
func (h *Handler) ListPublic(c *gin.Context) {
	list, err := h.store.ListActive(c.Request.Context())
	if err != nil {
		h.logger.Error("list active pg hostels", zap.Error(err))
		response.Internal(c, "failed to list PG/Hostels")
		return
	}
	public := make([]models.PGHostelPublic, 0, len(list))
	for i := range list {
		public = append(public, list[i].ToPublic())
	}
	response.OK(c, gin.H{"count": len(public), "pgHostels": public})
}

// ListMine handles GET /pghostel/my (owner only). Returns all properties owned
// by the caller regardless of the active flag.
func (h *Handler) ListMine(c *gin.Context) {
	ownerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.store.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		h.logger.Error("list owner pg hostels", zap.Error(err))
		response.Internal(c, "failed to list PG/Hostels")
		return
	}
	response.OK(c, gin.H{"count": len(list), "pgHostels": list})
}

// Update handles PUT /pghostel/:id. RequirePGOwnership has already verified the
// caller and loaded the record.
func (h *Handler) Update(c *gin.Context) {
	var req UpdatePGRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	pg := c.MustGet(ContextPGHostel).(*models.PGHostel)
	if req.Name != nil {
		pg.Name = *req.Name
	}
	if req.Address != nil {
		pg.Address = *req.Address
	}
	if req.Contact != nil {
		pg.Contact = *req.Contact
	}
	if req.Facilities != nil {
		pg.Facilities = *req.Facilities
	}
	if req.TotalRooms != nil {
		pg.TotalRooms = *req.TotalRooms
	}
	if req.OccupiedRooms != nil {
		pg.OccupiedRooms = *req.OccupiedRooms
	}
	if req.Description != nil {
		pg.Description = *req.Description
	}
	if req.IsActive != nil {
		pg.IsActive = *req.IsActive
	}

	if err := h.store.Update(c.Request.Context(), pg); err != nil {
		h.logger.Error("update pg hostel", zap.Error(err), zap.String("pg_id", pg.ID.String()))
		response.Internal(c, "failed to update PG/Hostel")
		return
	}
	response.OK(c, gin.H{"pgHostel": pg})
}

// Delete handles DELETE /pghostel/:id. The delete is a single conditional
// statement: it succeeds only while no pending or in-progress issue references
// the property.
func (h *Handler) Delete(c *gin.Context) {
	pg := c.MustGet(ContextPGHostel).(*models.PGHostel)
	ownerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	deleted, err := h.store.DeleteOwned(c.Request.Context(), pg.ID, ownerID)
	if err != nil {
		h.logger.Error("delete pg hostel", zap.Error(err), zap.String("pg_id", pg.ID.String()))
		response.Internal(c, "failed to delete PG/Hostel")
		return
	}
	if deleted == 0 {
		n, err := h.store.CountActiveIssues(c.Request.Context(), pg.ID)
		if err == nil && n > 0 {
			response.Conflict(c, fmt.Sprintf("cannot delete PG/Hostel: %d active issues remain, resolve them first", n))
			return
		}
		response.NotFound(c, "PG/Hostel not found")
		return
	}
	response.OK(c, gin.H{"message": "PG/Hostel deleted successfully"})
}

// GenerateImageUploadURL handles POST /pghostel/:id/images/generate-upload-url.
// Returns a presigned PUT URL and records the final object URL on the property.
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

	pg := c.MustGet(ContextPGHostel).(*models.PGHostel)
	contentType := req.ContentType
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(req.Filename)
	}
	key := storage.PGHostelImageKey(pg.ID.String(), req.Filename)

	uploadURL, err := h.s3.GeneratePresignedUploadURL(c.Request.Context(), key, contentType, h.s3.PresignExpire())
	if err != nil {
		h.logger.Error("presign pg image upload", zap.Error(err), zap.String("pg_id", pg.ID.String()))
		response.Internal(c, "failed to generate upload URL")
		return
	}

	imageURL := h.s3.ObjectURL(key)
	if err := h.store.AppendImage(c.Request.Context(), pg.ID, imageURL); err != nil {
		h.logger.Error("append pg image", zap.Error(err), zap.String("pg_id", pg.ID.String()))
		response.Internal(c, "failed to record image")
		return
	}

	response.OK(c, gin.H{"uploadUrl": uploadURL, "imageUrl": imageURL})
}
