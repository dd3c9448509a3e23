package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-backoffice-api/internal/middleware"
	"github.com/noah-isme/school-backoffice-api/internal/models"
	"github.com/noah-isme/school-backoffice-api/internal/service"
)

type dashboardStoreMock struct {
	enquiries map[models.EnquiryStatus]int
	pending   int
	students  map[models.StudentStatus]int
	employees int
	err       error
}

func (m *dashboardStoreMock) CountEnquiriesByStatus(ctx context.Context) (map[models.EnquiryStatus]int, error) {
	return m.enquiries, m.err
}

func (m *dashboardStoreMock) CountPendingRegistrations(ctx context.Context) (int, error) {
	return m.pending, m.err
}

func (m *dashboardStoreMock) CountStudentsByStatus(ctx context.Context) (map[models.StudentStatus]int, error) {
	return m.students, m.err
}

func (m *dashboardStoreMock) CountActiveEmployees(ctx context.Context) (int, error) {
	return m.employees, m.err
}

type feeSumMock struct {
	total float64
	err   error
}

func (m *feeSumMock) SumPaidBetween(ctx context.Context, from, to time.Time) (float64, error) {
	return m.total, m.err
}

func TestDashboardHandlerSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &dashboardStoreMock{
		enquiries: map[models.EnquiryStatus]int{models.EnquiryStatusNew: 4},
		pending:   2,
		students:  map[models.StudentStatus]int{models.StudentStatusActive: 120},
		employees: 18,
	}
	svc := service.NewDashboardService(store, &feeSumMock{total: 75500}, nil, time.Minute, nil)
	handler := NewDashboardHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/dashboard/summary", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})

	handler.Summary(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.DashboardSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 2, envelope.Data.PendingRegistrations)
	assert.Equal(t, 18, envelope.Data.ActiveEmployees)
	assert.Equal(t, 75500.0, envelope.Data.FeesCollectedMonth)
}

func TestDashboardHandlerSummaryStoreError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := service.NewDashboardService(&dashboardStoreMock{err: assert.AnError}, &feeSumMock{}, nil, time.Minute, nil)
	handler := NewDashboardHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/dashboard/summary", nil)
	c.Request = req

	handler.Summary(c)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}
