package handler

import (
	"image"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-backoffice-api/internal/service"
	appErrors "github.com/noah-isme/school-backoffice-api/pkg/errors"
	"github.com/noah-isme/school-backoffice-api/pkg/imaging"
	"github.com/noah-isme/school-backoffice-api/pkg/response"
)

// UploadHandler exposes photo and document upload endpoints.
type UploadHandler struct {
	uploads *service.UploadService
}

// NewUploadHandler constructs UploadHandler.
func NewUploadHandler(uploads *service.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

func readUploadedFile(c *gin.Context) ([]byte, string, string, error) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		return nil, "", "", appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file field required")
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
	}
	return data, header.Filename, header.Header.Get("Content-Type"), nil
}

// SavePhoto godoc
// @Summary Upload a photo
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file"
// @Success 201 {object} response.Envelope
// @Router /uploads/photos [post]
func (h *UploadHandler) SavePhoto(c *gin.Context) {
	data, filename, _, err := readUploadedFile(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.uploads.SavePhoto(data, filename)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// CropPhoto godoc
// @Summary Crop and store a photo
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file"
// @Param x formData int true "Crop origin X"
// @Param y formData int true "Crop origin Y"
// @Param width formData int true "Crop width"
// @Param height formData int true "Crop height"
// @Param rotation formData number false "Rotation in degrees"
// @Param flipH formData bool false "Mirror horizontally"
// @Param flipV formData bool false "Mirror vertically"
// @Success 201 {object} response.Envelope
// @Router /uploads/photos/crop [post]
func (h *UploadHandler) CropPhoto(c *gin.Context) {
	data, filename, _, err := readUploadedFile(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	x, _ := strconv.Atoi(c.PostForm("x"))
	y, _ := strconv.Atoi(c.PostForm("y"))
	width, err := strconv.Atoi(c.PostForm("width"))
	if err != nil || width <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "width must be a positive integer"))
		return
	}
	height, err := strconv.Atoi(c.PostForm("height"))
	if err != nil || height <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "height must be a positive integer"))
		return
	}
	rotation, _ := strconv.ParseFloat(c.DefaultPostForm("rotation", "0"), 64)

	opts := imaging.CropOptions{
		Rect:     image.Rect(x, y, x+width, y+height),
		Rotation: rotation,
		FlipH:    c.PostForm("flipH") == "true",
		FlipV:    c.PostForm("flipV") == "true",
	}
	result, err := h.uploads.CropPhoto(data, filename, opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// SaveDocument godoc
// @Summary Upload a document
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document file"
// @Success 201 {object} response.Envelope
// @Router /uploads/documents [post]
func (h *UploadHandler) SaveDocument(c *gin.Context) {
	data, filename, contentType, err := readUploadedFile(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.uploads.SaveDocument(data, filename, contentType)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Delete godoc
// @Summary Delete an uploaded file
// @Tags Uploads
// @Produce json
// @Param path query string true "Relative file path"
// @Success 204
// @Router /uploads [delete]
func (h *UploadHandler) Delete(c *gin.Context) {
	relPath := c.Query("path")
	if relPath == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "path query parameter required"))
		return
	}
	if err := h.uploads.Delete(relPath); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
