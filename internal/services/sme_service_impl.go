package services

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"

	"github.com/ajharbinger/partnex-scoring/internal/errors"
	"github.com/ajharbinger/partnex-scoring/internal/logger"
	"github.com/ajharbinger/partnex-scoring/internal/models"
	"github.com/ajharbinger/partnex-scoring/internal/repository"
)

const profileExistsMsg = "SME profile already exists for this user"

type smeServiceImpl struct {
	repos  *repository.Repositories
	logger logger.Logger
}

func newSMEService(repos *repository.Repositories, log logger.Logger) SMEService {
	return &smeServiceImpl{repos: repos, logger: log}
}

// CreateProfile validates req and stores it as userID's only profile
func (s *smeServiceImpl) CreateProfile(ctx context.Context, userID uuid.UUID, req *models.CreateProfileRequest) (*models.SMEProfile, error) {
	if req == nil {
		return nil, errors.ValidationError("Request body is required", nil)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	profile := req.ToProfile(userID)
	err := s.repos.Tx.WithTransaction(ctx, func(tx *repository.Repositories) error {
		if _, err := tx.SME.GetByOwner(ctx, userID); err == nil {
			return errors.Conflict(profileExistsMsg, nil)
		} else if !stderrors.Is(err, repository.ErrNotFound) {
			return err
		}
		return tx.SME.Create(ctx, profile)
	})
	if err != nil {
		var appErr *errors.AppError
		switch {
		case stderrors.As(err, &appErr):
			return nil, err
		case stderrors.Is(err, repository.ErrConflict):
			return nil, errors.Conflict(profileExistsMsg, err)
		default:
			s.logger.Error("failed to create SME profile", err, "user_id", userID)
			return nil, errors.DatabaseError("failed to create SME profile", err).WithOperation("CreateProfile")
		}
	}

	s.logger.Info("SME profile created", "sme_id", profile.ID, "user_id", userID)
	return profile, nil
}

// GetMyProfile returns userID's profile
func (s *smeServiceImpl) GetMyProfile(ctx context.Context, userID uuid.UUID) (*models.SMEProfile, error) {
	profile, err := s.repos.SME.GetByOwner(ctx, userID)
	if err != nil {
		return nil, repoError(err, "SME profile not found", "GetMyProfile")
	}
	return profile, nil
}
