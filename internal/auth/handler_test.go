package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/MohammedjaveedA/PG-Mate/internal/middleware"
	"github.com/MohammedjaveedA/PG-Mate/internal/models"
	"github.com/MohammedjaveedA/PG-Mate/pkg/utils"
)

type fakeUserStore struct {
	byID    map[uuid.UUID]*models.User
	byEmail map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byID:    make(map[uuid.UUID]*models.User),
		byEmail: make(map[string]*models.User),
	}
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) Create(_ context.Context, name, email, phone, passwordHash string, role models.Role) (*models.User, error) {
	u := &models.User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		Password:  passwordHash,
		Role:      role,
		CreatedAt: time.Now(),
	}
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
	return u, nil
}

func (f *fakeUserStore) UpdateRole(_ context.Context, id uuid.UUID, role models.Role) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.Role = role
	cp := *u
	return &cp, nil
}

func newTestHandler(t *testing.T) (*Handler, *fakeUserStore, *JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := newFakeUserStore()
	jwt := NewJWTService("test-secret", 1)
	return NewHandler(store, jwt, zap.NewNop()), store, jwt
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		assert.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterAndLogin(t *testing.T) {
	h, store, _ := newTestHandler(t)
	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)

	w := doJSON(t, r, http.MethodPost, "/auth/register", gin.H{
		"name":     "Asha",
		"email":    "asha@test.com",
		"password": "secret123",
		"role":     "student",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "token")
	u := store.byEmail["asha@test.com"]
	assert.NotNil(t, u)
	assert.Equal(t, models.RoleStudent, u.Role)
	assert.NotEqual(t, "secret123", u.Password, "password must be stored hashed")

	// duplicate email
	w = doJSON(t, r, http.MethodPost, "/auth/register", gin.H{
		"name": "Asha2", "email": "asha@test.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// login good and bad
	w = doJSON(t, r, http.MethodPost, "/auth/login", gin.H{"email": "asha@test.com", "password": "secret123"})
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodPost, "/auth/login", gin.H{"email": "asha@test.com", "password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid credentials")
	w = doJSON(t, r, http.MethodPost, "/auth/login", gin.H{"email": "nobody@test.com", "password": "secret123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid credentials")
}

// racyUserStore simulates two registrations racing past the email lookup:
// GetByEmail never sees the other request's row, so the unique index is the
// only thing that stops the second insert.
type racyUserStore struct {
	*fakeUserStore
}

func (f *racyUserStore) GetByEmail(_ context.Context, _ string) (*models.User, error) {
	return nil, ErrNotFound
}

func (f *racyUserStore) Create(ctx context.Context, name, email, phone, passwordHash string, role models.Role) (*models.User, error) {
	if _, ok := f.byEmail[email]; ok {
		return nil, &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	}
	return f.fakeUserStore.Create(ctx, name, email, phone, passwordHash, role)
}

func TestRegisterConcurrentDuplicateEmail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &racyUserStore{fakeUserStore: newFakeUserStore()}
	h := NewHandler(store, NewJWTService("test-secret", 1), zap.NewNop())
	r := gin.New()
	r.POST("/auth/register", h.Register)

	body := gin.H{"name": "Asha", "email": "asha@test.com", "password": "secret123"}
	w := doJSON(t, r, http.MethodPost, "/auth/register", body)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/auth/register", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "email already registered")
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	h, _, _ := newTestHandler(t)
	r := gin.New()
	r.POST("/auth/register", h.Register)

	w := doJSON(t, r, http.MethodPost, "/auth/register", gin.H{
		"name": "Bad", "email": "bad@test.com", "password": "secret123", "role": "admin",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetRoleOnce(t *testing.T) {
	h, store, _ := newTestHandler(t)

	hash, err := utils.HashPassword("secret123")
	assert.NoError(t, err)
	u, err := store.Create(context.Background(), "Ravi", "ravi@test.com", "", hash, models.RoleNone)
	assert.NoError(t, err)

	r := gin.New()
	r.POST("/auth/set-role", func(c *gin.Context) {
		c.Set(middleware.ContextUserID, u.ID)
		c.Next()
	}, h.SetRole)

	w := doJSON(t, r, http.MethodPost, "/auth/set-role", gin.H{"role": "owner"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RoleOwner, store.byID[u.ID].Role)
	assert.Contains(t, w.Body.String(), "token", "a fresh token carries the new role")

	// second attempt conflicts, even with the same role
	w = doJSON(t, r, http.MethodPost, "/auth/set-role", gin.H{"role": "owner"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "role already set")
	assert.Equal(t, models.RoleOwner, store.byID[u.ID].Role)
}

func TestSetRoleRejectsInvalid(t *testing.T) {
	h, store, _ := newTestHandler(t)
	u, err := store.Create(context.Background(), "Ravi", "ravi@test.com", "", "x", models.RoleNone)
	assert.NoError(t, err)

	r := gin.New()
	r.POST("/auth/set-role", func(c *gin.Context) {
		c.Set(middleware.ContextUserID, u.ID)
		c.Next()
	}, h.SetRole)

	w := doJSON(t, r, http.MethodPost, "/auth/set-role", gin.H{"role": "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.RoleNone, store.byID[u.ID].Role)
}

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	id := uuid.New()

	token, err := svc.Generate(id, "asha@test.com", "student")
	assert.NoError(t, err)

	claims, err := svc.Validate(token)
	assert.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "asha@test.com", claims.Email)
	assert.Equal(t, "student", claims.Role)

	_, err = svc.Validate(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewJWTService("other-secret", 1)
	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
