package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"fitbook/gym-app/internal/domain"
	"fitbook/gym-app/internal/repository"
	"fitbook/gym-app/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrClassNotFound    = errors.New("class template not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrUploadURLError   = errors.New("failed to generate upload URL")
	ErrUnsupportedMedia = errors.New("unsupported cover image content type")
)

// CoverUploadResponse carries a presigned PUT URL and the object key the
// client must confirm after uploading.
type CoverUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

type ClassService interface {
	CreateClass(ctx context.Context, name, description string, duration, maxMembers int, difficulty domain.Difficulty) (*domain.ClassTemplate, error)
	GetClass(ctx context.Context, id primitive.ObjectID) (*domain.ClassTemplate, error)
	ListClasses(ctx context.Context) ([]domain.ClassTemplate, error)
	UpdateClass(ctx context.Context, class *domain.ClassTemplate) (*domain.ClassTemplate, error)
	DeleteClass(ctx context.Context, id primitive.ObjectID) error
	// GetCoverUploadURL presigns an upload slot for a class cover image.
	GetCoverUploadURL(ctx context.Context, classID primitive.ObjectID, contentType string) (*CoverUploadResponse, error)
	// ConfirmCoverUpload records the uploaded object key on the template.
	ConfirmCoverUpload(ctx context.Context, classID primitive.ObjectID, objectKey string) (*domain.ClassTemplate, error)
	// GetCoverDownloadURL presigns a download for the stored cover, if any.
	GetCoverDownloadURL(ctx context.Context, classID primitive.ObjectID) (string, error)
}

// classService implements the ClassService interface.
type classService struct {
	classRepo   repository.ClassRepository
	fileStorage storage.FileStorage
}

// NewClassService creates a new instance of classService.
func NewClassService(classRepo repository.ClassRepository, fileStorage storage.FileStorage) ClassService {
	return &classService{
		classRepo:   classRepo,
		fileStorage: fileStorage,
	}
}

// CreateClass adds a new template to the catalog.
func (s *classService) CreateClass(ctx context.Context, name, description string, duration, maxMembers int, difficulty domain.Difficulty) (*domain.ClassTemplate, error) {
	// 1. Validate input
	if name == "" || duration <= 0 || maxMembers <= 0 {
		return nil, fmt.Errorf("%w: name, positive duration, and positive max members are required", ErrValidationFailed)
	}
	if difficulty != "" && !domain.ValidDifficulty(difficulty) {
		return nil, fmt.Errorf("%w: unknown difficulty %q", ErrValidationFailed, difficulty)
	}

	// 2. Build and persist
	class := &domain.ClassTemplate{
		Name:        name,
		Description: description,
		Duration:    duration,
		MaxMembers:  maxMembers,
		Difficulty:  difficulty,
	}
	classID, err := s.classRepo.Create(ctx, class)
	if err != nil {
		return nil, err
	}
	class.ID = classID
	return class, nil
}

// GetClass retrieves a single template.
func (s *classService) GetClass(ctx context.Context, id primitive.ObjectID) (*domain.ClassTemplate, error) {
	class, err := s.classRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}
	return class, nil
}

// ListClasses retrieves the catalog.
func (s *classService) ListClasses(ctx context.Context) ([]domain.ClassTemplate, error) {
	return s.classRepo.List(ctx)
}

// UpdateClass replaces the mutable fields of a template.
func (s *classService) UpdateClass(ctx context.Context, class *domain.ClassTemplate) (*domain.ClassTemplate, error) {
	if class.ID == primitive.NilObjectID {
		return nil, fmt.Errorf("%w: class ID is required", ErrValidationFailed)
	}
	if class.Name == "" || class.Duration <= 0 || class.MaxMembers <= 0 {
		return nil, fmt.Errorf("%w: name, positive duration, and positive max members are required", ErrValidationFailed)
	}
	if err := s.classRepo.Update(ctx, class); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}
	return class, nil
}

// DeleteClass removes a template from the catalog. Scheduled instances
// created from it are untouched; they carry their own denormalized name.
func (s *classService) DeleteClass(ctx context.Context, id primitive.ObjectID) error {
	class, err := s.classRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrClassNotFound
		}
		return err
	}

	if err := s.classRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrClassNotFound
		}
		return err
	}

	// Best effort: orphaned cover images are cheap but pointless to keep.
	if class.CoverImageKey != "" {
		_ = s.fileStorage.DeleteObject(ctx, class.CoverImageKey)
	}
	return nil
}

// GetCoverUploadURL presigns a PUT URL for a class cover image.
func (s *classService) GetCoverUploadURL(ctx context.Context, classID primitive.ObjectID, contentType string) (*CoverUploadResponse, error) {
	// 1. Validate the class exists
	if _, err := s.GetClass(ctx, classID); err != nil {
		return nil, err
	}

	// 2. Only images make sense as covers
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrUnsupportedMedia
	}

	// 3. Generate a unique object key
	fileExtension := strings.TrimPrefix(contentType, "image/")
	objectKey := path.Join("class-covers", classID.Hex(), fmt.Sprintf("%s.%s", uuid.NewString(), fileExtension))

	// 4. Presign
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, ErrUploadURLError
	}

	return &CoverUploadResponse{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// ConfirmCoverUpload is called after the client has PUT the image to S3.
func (s *classService) ConfirmCoverUpload(ctx context.Context, classID primitive.ObjectID, objectKey string) (*domain.ClassTemplate, error) {
	if objectKey == "" {
		return nil, fmt.Errorf("%w: object key is required", ErrValidationFailed)
	}
	class, err := s.GetClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	previousKey := class.CoverImageKey
	class.CoverImageKey = objectKey
	if err := s.classRepo.Update(ctx, class); err != nil {
		return nil, err
	}

	// Replacing a cover leaves the old object orphaned; drop it.
	if previousKey != "" && previousKey != objectKey {
		_ = s.fileStorage.DeleteObject(ctx, previousKey)
	}
	return class, nil
}

// GetCoverDownloadURL presigns a GET URL for the stored cover image.
func (s *classService) GetCoverDownloadURL(ctx context.Context, classID primitive.ObjectID) (string, error) {
	class, err := s.GetClass(ctx, classID)
	if err != nil {
		return "", err
	}
	if class.CoverImageKey == "" {
		return "", nil
	}
	return s.fileStorage.GeneratePresignedDownloadURL(ctx, class.CoverImageKey, storage.DefaultPresignedURLExpiry)
}
