package api

import (
	"errors"
	"net/http"
	"time"

	"fitbook/gym-app/internal/domain"
	"fitbook/gym-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClassHandler holds the class catalog service dependency.
type ClassHandler struct {
	classService service.ClassService
}

// NewClassHandler creates a new ClassHandler.
func NewClassHandler(classService service.ClassService) *ClassHandler {
	return &ClassHandler{classService: classService}
}

// --- DTOs ---

// CreateClassRequest defines the expected JSON for creating a class template.
type CreateClassRequest struct {
	Name        string            `json:"name" binding:"required"`
	Description string            `json:"description"`
	Duration    int               `json:"duration" binding:"required,gt=0"`
	MaxMembers  int               `json:"maxMembers" binding:"required,gt=0"`
	Difficulty  domain.Difficulty `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced all_levels"`
}

// ClassResponse is the DTO for returning class template details.
type ClassResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Duration    int               `json:"duration"`
	MaxMembers  int               `json:"maxMembers"`
	Difficulty  domain.Difficulty `json:"difficulty,omitempty"`
	HasCover    bool              `json:"hasCover"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// CoverUploadRequest asks for a presigned upload slot.
type CoverUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

// CoverConfirmRequest records a completed upload.
type CoverConfirmRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

// MapClassToResponse converts a domain.ClassTemplate to a ClassResponse DTO.
func MapClassToResponse(class *domain.ClassTemplate) ClassResponse {
	if class == nil {
		return ClassResponse{}
	}
	return ClassResponse{
		ID:          class.ID.Hex(),
		Name:        class.Name,
		Description: class.Description,
		Duration:    class.Duration,
		MaxMembers:  class.MaxMembers,
		Difficulty:  class.Difficulty,
		HasCover:    class.CoverImageKey != "",
		CreatedAt:   class.CreatedAt,
		UpdatedAt:   class.UpdatedAt,
	}
}

// MapClassesToResponse converts a slice of templates to DTOs.
func MapClassesToResponse(classes []domain.ClassTemplate) []ClassResponse {
	responses := make([]ClassResponse, len(classes))
	for i, class := range classes {
		responses[i] = MapClassToResponse(&class)
	}
	return responses
}

func classIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid class ID format.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// --- Handler Methods ---

// CreateClass adds a new template to the catalog. Admin only.
func (h *ClassHandler) CreateClass(c *gin.Context) {
	var req CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	class, err := h.classService.CreateClass(c.Request.Context(), req.Name, req.Description, req.Duration, req.MaxMembers, req.Difficulty)
	if err != nil {
		if errors.Is(err, service.ErrValidationFailed) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to create class.")
		}
		return
	}
	c.JSON(http.StatusCreated, MapClassToResponse(class))
}

// ListClasses returns the whole catalog.
func (h *ClassHandler) ListClasses(c *gin.Context) {
	classes, err := h.classService.ListClasses(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve classes.")
		return
	}
	c.JSON(http.StatusOK, MapClassesToResponse(classes))
}

// GetClass returns a single template.
func (h *ClassHandler) GetClass(c *gin.Context) {
	id, ok := classIDParam(c)
	if !ok {
		return
	}
	class, err := h.classService.GetClass(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrClassNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve class.")
		}
		return
	}
	c.JSON(http.StatusOK, MapClassToResponse(class))
}

// UpdateClass replaces the mutable fields of a template. Admin only.
func (h *ClassHandler) UpdateClass(c *gin.Context) {
	id, ok := classIDParam(c)
	if !ok {
		return
	}
	var req CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	current, err := h.classService.GetClass(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrClassNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve class.")
		}
		return
	}

	current.Name = req.Name
	current.Description = req.Description
	current.Duration = req.Duration
	current.MaxMembers = req.MaxMembers
	current.Difficulty = req.Difficulty

	updated, err := h.classService.UpdateClass(c.Request.Context(), current)
	if err != nil {
		if errors.Is(err, service.ErrValidationFailed) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to update class.")
		}
		return
	}
	c.JSON(http.StatusOK, MapClassToResponse(updated))
}

// DeleteClass removes a template. Admin only.
func (h *ClassHandler) DeleteClass(c *gin.Context) {
	id, ok := classIDParam(c)
	if !ok {
		return
	}
	if err := h.classService.DeleteClass(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrClassNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to delete class.")
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// GetCoverUploadURL presigns an upload slot for a cover image. Admin only.
func (h *ClassHandler) GetCoverUploadURL(c *gin.Context) {
	id, ok := classIDParam(c)
	if !ok {
		return
	}
	var req CoverUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	resp, err := h.classService.GetCoverUploadURL(c.Request.Context(), id, req.ContentType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClassNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrUnsupportedMedia):
			abortWithError(c, http.StatusUnsupportedMediaType, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to generate upload URL.")
		}
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmCoverUpload records a completed cover upload. Admin only.
func (h *ClassHandler) ConfirmCoverUpload(c *gin.Context) {
	id, ok := classIDParam(c)
	if !ok {
		return
	}
	var req CoverConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	class, err := h.classService.ConfirmCoverUpload(c.Request.Context(), id, req.ObjectKey)
	if err != nil {
		if errors.Is(err, service.ErrClassNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to confirm cover upload.")
		}
		return
	}
	c.JSON(http.StatusOK, MapClassToResponse(class))
}

// GetCoverDownloadURL presigns a download for the stored cover image.
func (h *ClassHandler) GetCoverDownloadURL(c *gin.Context) {
	id, ok := classIDParam(c)
	if !ok {
		return
	}
	url, err := h.classService.GetCoverDownloadURL(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrClassNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to generate download URL.")
		}
		return
	}
	if url == "" {
		abortWithError(c, http.StatusNotFound, "Class has no cover image.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}
