package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-backoffice-api/internal/dto"
	"github.com/noah-isme/school-backoffice-api/internal/models"
	"github.com/noah-isme/school-backoffice-api/internal/service"
	appErrors "github.com/noah-isme/school-backoffice-api/pkg/errors"
	"github.com/noah-isme/school-backoffice-api/pkg/response"
)

// EnquiryHandler exposes admission lead endpoints.
type EnquiryHandler struct {
	enquiries  *service.EnquiryService
	admissions *service.AdmissionService
}

// NewEnquiryHandler constructs EnquiryHandler.
func NewEnquiryHandler(enquiries *service.EnquiryService, admissions *service.AdmissionService) *EnquiryHandler {
	return &EnquiryHandler{enquiries: enquiries, admissions: admissions}
}

func enquiryResponse(enquiry models.Enquiry) dto.EnquiryResponse {
	return dto.EnquiryResponse{Enquiry: enquiry, ProgressSteps: enquiry.ProgressSteps()}
}

// List godoc
// @Summary List enquiries
// @Tags Enquiries
// @Produce json
// @Param search query string false "Search by name or phone"
// @Param status query string false "Filter by status"
// @Param includeDeleted query bool false "Include soft-deleted records"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /enquiries [get]
func (h *EnquiryHandler) List(c *gin.Context) {
	var filter models.EnquiryFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Status = models.EnquiryStatus(c.Query("status"))
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	enquiries, pagination, err := h.enquiries.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	list := make([]dto.EnquiryResponse, 0, len(enquiries))
	for _, enquiry := range enquiries {
		list = append(list, enquiryResponse(enquiry))
	}
	response.JSON(c, http.StatusOK, list, pagination)
}

// Get godoc
// @Summary Get enquiry detail
// @Tags Enquiries
// @Produce json
// @Param id path string true "Enquiry ID"
// @Success 200 {object} response.Envelope
// @Router /enquiries/{id} [get]
func (h *EnquiryHandler) Get(c *gin.Context) {
	enquiry, err := h.enquiries.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enquiryResponse(*enquiry), nil)
}

// Create godoc
// @Summary Create enquiry
// @Tags Enquiries
// @Accept json
// @Produce json
// @Param payload body dto.CreateEnquiryRequest true "Enquiry payload"
// @Success 201 {object} response.Envelope
// @Router /enquiries [post]
func (h *EnquiryHandler) Create(c *gin.Context) {
	var req dto.CreateEnquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enquiry, err := h.enquiries.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enquiryResponse(*enquiry))
}

// Update godoc
// @Summary Update enquiry details
// @Tags Enquiries
// @Accept json
// @Produce json
// @Param id path string true "Enquiry ID"
// @Param payload body dto.UpdateEnquiryRequest true "Enquiry payload"
// @Success 200 {object} response.Envelope
// @Router /enquiries/{id} [put]
func (h *EnquiryHandler) Update(c *gin.Context) {
	var req dto.UpdateEnquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enquiry, err := h.enquiries.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enquiryResponse(*enquiry), nil)
}

// UpdateStatus godoc
// @Summary Move enquiry between intake stages
// @Tags Enquiries
// @Accept json
// @Produce json
// @Param id path string true "Enquiry ID"
// @Param payload body dto.UpdateEnquiryStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /enquiries/{id}/status [patch]
func (h *EnquiryHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateEnquiryStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enquiry, err := h.enquiries.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enquiryResponse(*enquiry), nil)
}

// Promote godoc
// @Summary Promote enquiry into a pending registration
// @Tags Enquiries
// @Produce json
// @Param id path string true "Enquiry ID"
// @Success 201 {object} response.Envelope
// @Router /enquiries/{id}/promote [post]
func (h *EnquiryHandler) Promote(c *gin.Context) {
	registration, err := h.admissions.PromoteEnquiry(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, registration)
}

// Delete godoc
// @Summary Soft delete enquiry
// @Tags Enquiries
// @Produce json
// @Param id path string true "Enquiry ID"
// @Success 204
// @Router /enquiries/{id} [delete]
func (h *EnquiryHandler) Delete(c *gin.Context) {
	if err := h.enquiries.SoftDelete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Restore godoc
// @Summary Restore soft-deleted enquiry
// @Tags Enquiries
// @Produce json
// @Param id path string true "Enquiry ID"
// @Success 204
// @Router /enquiries/{id}/restore [post]
func (h *EnquiryHandler) Restore(c *gin.Context) {
	if err := h.enquiries.Restore(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Purge godoc
// @Summary Permanently delete a soft-deleted enquiry
// @Tags Enquiries
// @Produce json
// @Param id path string true "Enquiry ID"
// @Success 204
// @Router /enquiries/{id}/purge [delete]
func (h *EnquiryHandler) Purge(c *gin.Context) {
	if err := h.enquiries.PermanentDelete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
