package services

import (
	"context"
	stderrors "errors"
	"mime"

	"github.com/google/uuid"

	"github.com/ajharbinger/partnex-scoring/internal/errors"
	"github.com/ajharbinger/partnex-scoring/internal/filestore"
	"github.com/ajharbinger/partnex-scoring/internal/logger"
	"github.com/ajharbinger/partnex-scoring/internal/models"
	"github.com/ajharbinger/partnex-scoring/internal/repository"
)

type soaServiceImpl struct {
	repos  *repository.Repositories
	files  filestore.Store
	logger logger.Logger
}

func newSOAService(repos *repository.Repositories, files filestore.Store, log logger.Logger) SOAService {
	return &soaServiceImpl{repos: repos, files: files, logger: log}
}

// Upload stores a statement of account against the caller's SME profile
func (s *soaServiceImpl) Upload(ctx context.Context, userID uuid.UUID, file *UploadFile) (*models.SOAUpload, error) {
	if file == nil || file.Content == nil {
		return nil, errors.ValidationError("File is required", nil)
	}

	profile, err := s.repos.SME.GetByOwner(ctx, userID)
	if err != nil {
		return nil, repoError(err, "Create SME profile first", "Upload")
	}

	mediaType, _, err := mime.ParseMediaType(file.MimeType)
	if err != nil {
		return nil, errors.ValidationError("Unsupported file type", err)
	}
	fileType, ok := models.SOAFileType(mediaType)
	if !ok {
		return nil, errors.ValidationError("Unsupported file type", nil)
	}

	if s.files == nil {
		return nil, errors.InternalError("file storage is not configured", nil)
	}
	path, err := s.files.Save(file.Name, file.Content)
	if err != nil {
		if stderrors.Is(err, filestore.ErrTooLarge) {
			return nil, errors.ValidationError("File too large", err)
		}
		return nil, errors.InternalError("failed to store file", err).WithOperation("Upload")
	}

	upload := &models.SOAUpload{
		SMEID:    profile.ID,
		FileName: file.Name,
		FilePath: path,
		FileType: fileType,
		Status:   models.SOAStatusUploaded,
	}
	if err := s.repos.SOA.Create(ctx, upload); err != nil {
		if rmErr := s.files.Remove(path); rmErr != nil {
			s.logger.Warn("failed to remove orphaned upload", "path", path, "error", rmErr)
		}
		return nil, errors.DatabaseError("failed to record upload", err).WithOperation("Upload")
	}

	s.logger.Info("statement of account uploaded", "sme_id", profile.ID, "upload_id", upload.ID, "file_type", fileType)
	return upload, nil
}
