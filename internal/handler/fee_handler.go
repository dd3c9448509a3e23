package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-backoffice-api/internal/dto"
	"github.com/noah-isme/school-backoffice-api/internal/models"
	"github.com/noah-isme/school-backoffice-api/internal/service"
	appErrors "github.com/noah-isme/school-backoffice-api/pkg/errors"
	"github.com/noah-isme/school-backoffice-api/pkg/response"
)

// FeeHandler exposes fee structure, discount, and collection endpoints.
type FeeHandler struct {
	fees *service.FeeService
}

// NewFeeHandler constructs FeeHandler.
func NewFeeHandler(fees *service.FeeService) *FeeHandler {
	return &FeeHandler{fees: fees}
}

// ListStructures godoc
// @Summary List fee structures
// @Tags Fees
// @Produce json
// @Param class query string false "Filter by class name"
// @Success 200 {object} response.Envelope
// @Router /fees/structures [get]
func (h *FeeHandler) ListStructures(c *gin.Context) {
	structures, err := h.fees.ListStructures(c.Request.Context(), c.Query("class"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, structures, nil)
}

// CreateStructure godoc
// @Summary Create fee structure
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body dto.FeeStructureRequest true "Fee structure payload"
// @Success 201 {object} response.Envelope
// @Router /fees/structures [post]
func (h *FeeHandler) CreateStructure(c *gin.Context) {
	var req dto.FeeStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	structure, err := h.fees.CreateStructure(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, structure)
}

// UpdateStructure godoc
// @Summary Update fee structure
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path string true "Fee structure ID"
// @Param payload body dto.FeeStructureRequest true "Fee structure payload"
// @Success 200 {object} response.Envelope
// @Router /fees/structures/{id} [put]
func (h *FeeHandler) UpdateStructure(c *gin.Context) {
	var req dto.FeeStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	structure, err := h.fees.UpdateStructure(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, structure, nil)
}

// DeleteStructure godoc
// @Summary Delete fee structure
// @Tags Fees
// @Produce json
// @Param id path string true "Fee structure ID"
// @Success 204
// @Router /fees/structures/{id} [delete]
func (h *FeeHandler) DeleteStructure(c *gin.Context) {
	if err := h.fees.DeleteStructure(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListDiscounts godoc
// @Summary List discounts
// @Tags Discounts
// @Produce json
// @Param category query string false "Filter by category (student or employee)"
// @Param active query bool false "Only active discounts"
// @Success 200 {object} response.Envelope
// @Router /discounts [get]
func (h *FeeHandler) ListDiscounts(c *gin.Context) {
	category := models.DiscountCategory(c.Query("category"))
	activeOnly := c.Query("active") == "true"
	discounts, err := h.fees.ListDiscounts(c.Request.Context(), category, activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, discounts, nil)
}

// CreateDiscount godoc
// @Summary Create discount
// @Tags Discounts
// @Accept json
// @Produce json
// @Param payload body dto.DiscountRequest true "Discount payload"
// @Success 201 {object} response.Envelope
// @Router /discounts [post]
func (h *FeeHandler) CreateDiscount(c *gin.Context) {
	var req dto.DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	discount, err := h.fees.CreateDiscount(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, discount)
}

// UpdateDiscount godoc
// @Summary Update discount
// @Tags Discounts
// @Accept json
// @Produce json
// @Param id path string true "Discount ID"
// @Param payload body dto.DiscountRequest true "Discount payload"
// @Success 200 {object} response.Envelope
// @Router /discounts/{id} [put]
func (h *FeeHandler) UpdateDiscount(c *gin.Context) {
	var req dto.DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	discount, err := h.fees.UpdateDiscount(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, discount, nil)
}

// DeleteDiscount godoc
// @Summary Delete discount
// @Tags Discounts
// @Produce json
// @Param id path string true "Discount ID"
// @Success 204
// @Router /discounts/{id} [delete]
func (h *FeeHandler) DeleteDiscount(c *gin.Context) {
	if err := h.fees.DeleteDiscount(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RecordPayment godoc
// @Summary Record a fee collection
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body dto.RecordFeePaymentRequest true "Fee payment payload"
// @Success 201 {object} response.Envelope
// @Router /fees/payments [post]
func (h *FeeHandler) RecordPayment(c *gin.Context) {
	var req dto.RecordFeePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	payment, err := h.fees.RecordPayment(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// ListPayments godoc
// @Summary List fee collections
// @Tags Fees
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param from query string false "Paid-at lower bound (RFC 3339)"
// @Param to query string false "Paid-at upper bound (RFC 3339)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /fees/payments [get]
func (h *FeeHandler) ListPayments(c *gin.Context) {
	var filter models.FeePaymentFilter
	filter.StudentID = c.Query("studentId")
	if from := c.Query("from"); from != "" {
		if ts, err := time.Parse(time.RFC3339, from); err == nil {
			filter.From = &ts
		}
	}
	if to := c.Query("to"); to != "" {
		if ts, err := time.Parse(time.RFC3339, to); err == nil {
			filter.To = &ts
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	payments, pagination, err := h.fees.ListPayments(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, pagination)
}
