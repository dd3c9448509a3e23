package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-backoffice-api/internal/dto"
	"github.com/noah-isme/school-backoffice-api/internal/models"
	"github.com/noah-isme/school-backoffice-api/internal/service"
	appErrors "github.com/noah-isme/school-backoffice-api/pkg/errors"
	"github.com/noah-isme/school-backoffice-api/pkg/response"
)

// PayrollHandler exposes salary configuration and disbursement endpoints.
type PayrollHandler struct {
	payroll *service.PayrollService
}

// NewPayrollHandler constructs PayrollHandler.
func NewPayrollHandler(payroll *service.PayrollService) *PayrollHandler {
	return &PayrollHandler{payroll: payroll}
}

// ListConfigs godoc
// @Summary List salary rules in evaluation order
// @Tags Payroll
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /payroll/configs [get]
func (h *PayrollHandler) ListConfigs(c *gin.Context) {
	configs, err := h.payroll.ListConfigs(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, configs, nil)
}

// CreateConfig godoc
// @Summary Create salary rule
// @Tags Payroll
// @Accept json
// @Produce json
// @Param payload body dto.SalaryConfigRequest true "Salary rule payload"
// @Success 201 {object} response.Envelope
// @Router /payroll/configs [post]
func (h *PayrollHandler) CreateConfig(c *gin.Context) {
	var req dto.SalaryConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	config, err := h.payroll.CreateConfig(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, config)
}

// UpdateConfig godoc
// @Summary Update salary rule
// @Tags Payroll
// @Accept json
// @Produce json
// @Param id path string true "Salary rule ID"
// @Param payload body dto.SalaryConfigRequest true "Salary rule payload"
// @Success 200 {object} response.Envelope
// @Router /payroll/configs/{id} [put]
func (h *PayrollHandler) UpdateConfig(c *gin.Context) {
	var req dto.SalaryConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	config, err := h.payroll.UpdateConfig(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, config, nil)
}

// DeleteConfig godoc
// @Summary Delete salary rule
// @Tags Payroll
// @Produce json
// @Param id path string true "Salary rule ID"
// @Success 204
// @Router /payroll/configs/{id} [delete]
func (h *PayrollHandler) DeleteConfig(c *gin.Context) {
	if err := h.payroll.DeleteConfig(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RecordPayment godoc
// @Summary Record a salary disbursement
// @Tags Payroll
// @Accept json
// @Produce json
// @Param payload body dto.RecordSalaryPaymentRequest true "Salary payment payload"
// @Success 201 {object} response.Envelope
// @Router /payroll/payments [post]
func (h *PayrollHandler) RecordPayment(c *gin.Context) {
	var req dto.RecordSalaryPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	payment, err := h.payroll.RecordPayment(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// ListPayments godoc
// @Summary List salary disbursements
// @Tags Payroll
// @Produce json
// @Param employeeId query string false "Filter by employee"
// @Param period query string false "Filter by period (YYYY-MM)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /payroll/payments [get]
func (h *PayrollHandler) ListPayments(c *gin.Context) {
	var filter models.SalaryPaymentFilter
	filter.EmployeeID = c.Query("employeeId")
	filter.Period = c.Query("period")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	payments, pagination, err := h.payroll.ListPayments(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, pagination)
}
