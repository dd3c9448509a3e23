package service

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/school-backoffice-api/pkg/errors"
	"github.com/noah-isme/school-backoffice-api/pkg/imaging"
	"github.com/noah-isme/school-backoffice-api/pkg/storage"
)

const (
	maxPhotoBytes    = 10 << 20
	maxDocumentBytes = 25 << 20
)

var allowedDocumentTypes = map[string]string{
	"application/pdf": ".pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"application/msword": ".doc",
	"text/plain":         ".txt",
	"text/csv":           ".csv",
}

type uploadStorage interface {
	Save(filename string, data []byte) (string, error)
	Delete(filename string) error
	PublicURL(filename string) string
}

// UploadResult describes a stored file.
type UploadResult struct {
	Path        string `json:"path"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

// UploadService stores photos (normalised to compact JPEGs) and documents.
type UploadService struct {
	storage uploadStorage
	logger  *zap.Logger
}

// NewUploadService constructs the service.
func NewUploadService(store uploadStorage, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadService{storage: store, logger: logger}
}

// SavePhoto normalises an uploaded image and stores it under photos/. Files
// that do not decode as images pass through untouched.
func (s *UploadService) SavePhoto(data []byte, originalFilename string) (*UploadResult, error) {
	if len(data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "empty upload")
	}
	if len(data) > maxPhotoBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, "photo exceeds the 10MB limit")
	}

	result, err := imaging.Normalize(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to process photo")
	}

	filename := originalFilename
	if result.ContentType == "image/jpeg" && !strings.HasSuffix(strings.ToLower(filename), ".jpg") {
		filename = trimExtension(filename) + ".jpg"
	}
	name := storage.UniqueName("photos", filename)
	relPath, err := s.storage.Save(name, result.Data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store photo")
	}
	return &UploadResult{
		Path:        relPath,
		URL:         s.storage.PublicURL(relPath),
		ContentType: result.ContentType,
		Size:        len(result.Data),
		Width:       result.Width,
		Height:      result.Height,
	}, nil
}

// CropPhoto applies an orientation-aware crop to an uploaded image and
// stores the result under photos/.
func (s *UploadService) CropPhoto(data []byte, originalFilename string, opts imaging.CropOptions) (*UploadResult, error) {
	if len(data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "empty upload")
	}
	if len(data) > maxPhotoBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, "photo exceeds the 10MB limit")
	}

	result, err := imaging.Crop(data, opts)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	name := storage.UniqueName("photos", trimExtension(originalFilename)+".jpg")
	relPath, err := s.storage.Save(name, result.Data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store photo")
	}
	return &UploadResult{
		Path:        relPath,
		URL:         s.storage.PublicURL(relPath),
		ContentType: result.ContentType,
		Size:        len(result.Data),
		Width:       result.Width,
		Height:      result.Height,
	}, nil
}

// SaveDocument stores a non-image file unchanged under documents/.
func (s *UploadService) SaveDocument(data []byte, originalFilename, contentType string) (*UploadResult, error) {
	if len(data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "empty upload")
	}
	if len(data) > maxDocumentBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, "document exceeds the 25MB limit")
	}
	base := contentType
	if idx := strings.Index(base, ";"); idx >= 0 {
		base = base[:idx]
	}
	base = strings.TrimSpace(strings.ToLower(base))
	if _, ok := allowedDocumentTypes[base]; !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported document type %s", base))
	}

	name := storage.UniqueName("documents", originalFilename)
	relPath, err := s.storage.Save(name, data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document")
	}
	return &UploadResult{
		Path:        relPath,
		URL:         s.storage.PublicURL(relPath),
		ContentType: base,
		Size:        len(data),
	}, nil
}

// Delete removes a stored file.
func (s *UploadService) Delete(relPath string) error {
	if err := s.storage.Delete(relPath); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete file")
	}
	return nil
}

func trimExtension(filename string) string {
	if idx := strings.LastIndex(filename, "."); idx > 0 {
		return filename[:idx]
	}
	return filename
}
