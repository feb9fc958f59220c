package pghostel

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/MohammedjaveedA/PG-Mate/internal/middleware"
	"github.com/MohammedjaveedA/PG-Mate/internal/models"
)

type fakeStore struct {
	pgs           map[uuid.UUID]*models.PGHostel
	activeIssues  map[uuid.UUID]int // pending or in-progress
	settledIssues map[uuid.UUID]int // resolved or closed
	joined        map[uuid.UUID][]uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		pgs:           make(map[uuid.UUID]*models.PGHostel),
		activeIssues:  make(map[uuid.UUID]int),
		settledIssues: make(map[uuid.UUID]int),
		joined:        make(map[uuid.UUID][]uuid.UUID),
	}
}

func (f *fakeStore) Create(_ context.Context, p *models.PGHostel) error {
	p.ID = uuid.New()
	cp := *p
	f.pgs[p.ID] = &cp
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.PGHostel, error) {
	pg, ok := f.pgs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *pg
	return &cp, nil
}

func (f *fakeStore) ListActive(_ context.Context) ([]models.PGHostel, error) {
	var out []models.PGHostel
	for _, pg := range f.pgs {
		if pg.IsActive {
			out = append(out, *pg)
		}
	}
	return out, nil
}

func (f *fakeStore) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]models.PGHostel, error) {
	var out []models.PGHostel
	for _, pg := range f.pgs {
		if pg.OwnerID == ownerID {
			out = append(out, *pg)
		}
	}
	return out, nil
}

func (f *fakeStore) Update(_ context.Context, p *models.PGHostel) error {
	cp := *p
	f.pgs[p.ID] = &cp
	return nil
}

// DeleteOwned mirrors the conditional SQL delete: no row is removed while
// active issues remain. Settled issues cascade with the row and joined
// students are detached, as the repository transaction does.
func (f *fakeStore) DeleteOwned(_ context.Context, id, ownerID uuid.UUID) (int64, error) {
	pg, ok := f.pgs[id]
	if !ok || pg.OwnerID != ownerID {
		return 0, nil
	}
	if f.activeIssues[id] > 0 {
		return 0, nil
	}
	delete(f.pgs, id)
	delete(f.settledIssues, id)
	delete(f.joined, id)
	return 1, nil
}

func (f *fakeStore) CountActiveIssues(_ context.Context, id uuid.UUID) (int, error) {
	return f.activeIssues[id], nil
}

func (f *fakeStore) AppendImage(_ context.Context, id uuid.UUID, url string) error {
	pg, ok := f.pgs[id]
	if !ok {
		return ErrNotFound
	}
	pg.Images = append(pg.Images, url)
	return nil
}

func asOwner(id uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, id)
		c.Set(middleware.ContextUserRole, string(models.RoleOwner))
		c.Next()
	}
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

func TestCreatePGForcesCallerAsOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newFakeStore()
	h := NewHandler(store, nil, zap.NewNop())
	ownerID := uuid.New()

	r := gin.New()
	r.POST("/pghostel", asOwner(ownerID), h.Create)

	w := doJSON(t, r, http.MethodPost, "/pghostel", gin.H{
		"name":       "Sunrise PG",
		"facilities": []string{"WiFi", "AC"},
		"ownerId":    uuid.New().String(), // must be ignored
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, store.pgs, 1)
	for _, pg := range store.pgs {
		assert.Equal(t, ownerID, pg.OwnerID)
		assert.True(t, pg.IsActive)
	}

	// facilities round-trip through list-mine, order preserved
	r.GET("/pghostel/my", asOwner(ownerID), h.ListMine)
	w = doJSON(t, r, http.MethodGet, "/pghostel/my", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			PGHostels []models.PGHostel `json:"pgHostels"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data.PGHostels, 1)
	assert.Equal(t, []string{"WiFi", "AC"}, body.Data.PGHostels[0].Facilities)
}

func TestDeletePGBlockedByActiveIssues(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newFakeStore()
	h := NewHandler(store, nil, zap.NewNop())
	ownerID := uuid.New()

	pg := &models.PGHostel{Name: "Sunrise PG", OwnerID: ownerID, IsActive: true}
	assert.NoError(t, store.Create(context.Background(), pg))
	store.activeIssues[pg.ID] = 2

	r := gin.New()
	r.DELETE("/pghostel/:id", asOwner(ownerID), RequirePGOwnership(store, "id"), h.Delete)

	w := doJSON(t, r, http.MethodDelete, "/pghostel/"+pg.ID.String(), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "2 active issues")
	assert.Len(t, store.pgs, 1, "property must survive while issues are active")

	// resolve the issues and retry
	store.activeIssues[pg.ID] = 0
	w = doJSON(t, r, http.MethodDelete, "/pghostel/"+pg.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.pgs)
}

func TestDeletePGWithSettledIssuesAndTenants(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newFakeStore()
	h := NewHandler(store, nil, zap.NewNop())
	ownerID := uuid.New()

	pg := &models.PGHostel{Name: "Sunrise PG", OwnerID: ownerID, IsActive: true}
	assert.NoError(t, store.Create(context.Background(), pg))
	store.settledIssues[pg.ID] = 3
	store.joined[pg.ID] = []uuid.UUID{uuid.New(), uuid.New()}

	r := gin.New()
	r.DELETE("/pghostel/:id", asOwner(ownerID), RequirePGOwnership(store, "id"), h.Delete)

	// resolved and closed issues never block deletion
	w := doJSON(t, r, http.MethodDelete, "/pghostel/"+pg.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.pgs)
	assert.Empty(t, store.settledIssues, "settled issues go with the property")
	assert.Empty(t, store.joined, "joined students must be detached")
}

func TestDeletePGForeignOwnerForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newFakeStore()
	h := NewHandler(store, nil, zap.NewNop())
	ownerID := uuid.New()

	pg := &models.PGHostel{Name: "Sunrise PG", OwnerID: ownerID, IsActive: true}
	assert.NoError(t, store.Create(context.Background(), pg))

	r := gin.New()
	r.DELETE("/pghostel/:id", asOwner(uuid.New()), RequirePGOwnership(store, "id"), h.Delete)

	w := doJSON(t, r, http.MethodDelete, "/pghostel/"+pg.ID.String(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Len(t, store.pgs, 1)
}

func TestListPublicProjection(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newFakeStore()
	h := NewHandler(store, nil, zap.NewNop())

	active := &models.PGHostel{
		Name:       "Sunrise PG",
		OwnerID:    uuid.New(),
		Address:    models.Address{City: "Bengaluru", Pincode: "560001"},
		Contact:    models.Contact{Phone: "9999999999", Email: "owner@sunrise.test"},
		Facilities: []string{"WiFi", "AC"},
		IsActive:   true,
	}
	inactive := &models.PGHostel{Name: "Closed PG", OwnerID: uuid.New(), IsActive: false}
	assert.NoError(t, store.Create(context.Background(), active))
	assert.NoError(t, store.Create(context.Background(), inactive))

	r := gin.New()
	r.GET("/pghostel/list", h.ListPublic)

	w := doJSON(t, r, http.MethodGet, "/pghostel/list", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Count     int                      `json:"count"`
			PGHostels []map[string]interface{} `json:"pgHostels"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Data.Count)
	assert.Equal(t, "Sunrise PG", body.Data.PGHostels[0]["name"])
	assert.NotContains(t, body.Data.PGHostels[0], "contact", "contact details stay private")
	assert.NotContains(t, body.Data.PGHostels[0], "ownerId")
}

func TestUpdatePGPartial(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newFakeStore()
	h := NewHandler(store, nil, zap.NewNop())
	ownerID := uuid.New()

	pg := &models.PGHostel{
		Name: "Sunrise PG", OwnerID: ownerID,
		Facilities: []string{"WiFi"}, TotalRooms: 20, IsActive: true,
	}
	assert.NoError(t, store.Create(context.Background(), pg))

	r := gin.New()
	r.PUT("/pghostel/:id", asOwner(ownerID), RequirePGOwnership(store, "id"), h.Update)

	w := doJSON(t, r, http.MethodPut, "/pghostel/"+pg.ID.String(), gin.H{
		"facilities": []string{"WiFi", "AC", "Laundry"},
	})
	assert.Equal(t, http.StatusOK, w.Code)

	got, err := store.GetByID(context.Background(), pg.ID)
	assert.NoError(t, err)
	assert.Equal(t, []string{"WiFi", "AC", "Laundry"}, got.Facilities)
	assert.Equal(t, "Sunrise PG", got.Name, "omitted fields stay unchanged")
	assert.Equal(t, 20, got.TotalRooms)
}
