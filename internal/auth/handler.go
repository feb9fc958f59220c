package auth

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/MohammedjaveedA/PG-Mate/internal/middleware"
	"github.com/MohammedjaveedA/PG-Mate/internal/models"
	"github.com/MohammedjaveedA/PG-Mate/pkg/response"
	"github.com/MohammedjaveedA/PG-Mate/pkg/utils"
)

// UserStore is the persistence surface the auth handlers need.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, name, email, phone, passwordHash string, role models.Role) (*models.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error)
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"` // optional; may be chosen later via set-role
	Phone    string `json:"phone"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SetRoleRequest is the body for POST /auth/set-role.
type SetRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	store  UserStore
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(store UserStore, jwt *JWTService, logger *zap.Logger) *Handler {
	return &Handler{store: store, jwt: jwt, logger: logger}
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	role := models.RoleNone
	if req.Role != "" {
		role = models.Role(req.Role)
		if !models.ValidRole(role) {
			response.BadRequest(c, "invalid role")
			return
		}
	}

	if _, err := h.store.GetByEmail(c.Request.Context(), req.Email); err == nil {
		response.BadRequest(c, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	user, err := h.store.Create(c.Request.Context(), req.Name, req.Email, req.Phone, hash, role)
	if err != nil {
		// a concurrent register can slip past the GetByEmail check; the unique
		// index on email is the real guard
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			response.BadRequest(c, "email already registered")
			return
		}
		h.logger.Error("create user", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.Created(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.store.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.BadRequest(c, "invalid credentials")
		return
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		response.BadRequest(c, "invalid credentials")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// SetRole handles POST /auth/set-role (authenticated). The role can be
// chosen exactly once; a second attempt is a conflict.
func (h *Handler) SetRole(c *gin.Context) {
	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	role := models.Role(req.Role)
	if !models.ValidRole(role) {
		response.BadRequest(c, "invalid role")
		return
	}

	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	user, err := h.store.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.Internal(c, "failed to load user")
		return
	}
	if user.Role != models.RoleNone {
		response.Conflict(c, "role already set")
		return
	}

	user, err = h.store.UpdateRole(c.Request.Context(), userID, role)
	if err != nil {
		h.logger.Error("update role", zap.Error(err))
		response.Internal(c, "failed to update role")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}
