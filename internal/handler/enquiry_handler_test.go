package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-backoffice-api/internal/middleware"
	"github.com/noah-isme/school-backoffice-api/internal/models"
	"github.com/noah-isme/school-backoffice-api/internal/service"
)

type enquiryStoreMock struct {
	listResp   []models.Enquiry
	listTotal  int
	listErr    error
	lastFilter models.EnquiryFilter
	created    *models.Enquiry
}

func (m *enquiryStoreMock) List(ctx context.Context, filter models.EnquiryFilter) ([]models.Enquiry, int, error) {
	m.lastFilter = filter
	return m.listResp, m.listTotal, m.listErr
}

func (m *enquiryStoreMock) FindByID(ctx context.Context, id string) (*models.Enquiry, error) {
	for i := range m.listResp {
		if m.listResp[i].ID == id {
			return &m.listResp[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *enquiryStoreMock) Create(ctx context.Context, enquiry *models.Enquiry) error {
	enquiry.ID = "enq-1"
	m.created = enquiry
	return nil
}

func (m *enquiryStoreMock) Update(ctx context.Context, enquiry *models.Enquiry) error { return nil }

func (m *enquiryStoreMock) UpdateStatus(ctx context.Context, id string, status models.EnquiryStatus) error {
	return nil
}

func (m *enquiryStoreMock) SetDeleted(ctx context.Context, id string, deleted bool) error {
	return nil
}

func (m *enquiryStoreMock) PermanentDelete(ctx context.Context, id string) error { return nil }

func TestEnquiryHandlerListParsesFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &enquiryStoreMock{
		listResp:  []models.Enquiry{{ID: "enq-1", FullName: "Ananya Gupta", Status: models.EnquiryStatusNew}},
		listTotal: 1,
	}
	handler := NewEnquiryHandler(service.NewEnquiryService(store, nil), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/enquiries?status=new&search=ananya&page=2&limit=5", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "staff-1", Role: models.RoleStaff})

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.EnquiryStatusNew, store.lastFilter.Status)
	assert.Equal(t, "ananya", store.lastFilter.Search)
	assert.Equal(t, 2, store.lastFilter.Page)
	assert.Equal(t, 5, store.lastFilter.PageSize)
	assert.Contains(t, w.Body.String(), "Ananya Gupta")
}

func TestEnquiryHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &enquiryStoreMock{}
	handler := NewEnquiryHandler(service.NewEnquiryService(store, nil), nil)

	body, _ := json.Marshal(map[string]string{
		"full_name":          "Ananya Gupta",
		"class_applying_for": "5A",
		"mobile_no":          "9800000001",
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/enquiries", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "staff-1", Role: models.RoleStaff})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, store.created)
	assert.Equal(t, models.EnquiryStatusNew, store.created.Status)
}

func TestEnquiryHandlerCreateMissingFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &enquiryStoreMock{}
	handler := NewEnquiryHandler(service.NewEnquiryService(store, nil), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/enquiries", bytes.NewBufferString(`{"full_name":"No Phone"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "staff-1", Role: models.RoleStaff})

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, store.created)
}

func TestEnquiryHandlerCreateMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewEnquiryHandler(service.NewEnquiryService(&enquiryStoreMock{}, nil), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/enquiries", bytes.NewBufferString(`{"full_name":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "staff-1", Role: models.RoleStaff})

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
