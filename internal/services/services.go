package services

import (
	"context"
	stderrors "errors"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/ajharbinger/partnex-scoring/internal/auth"
	"github.com/ajharbinger/partnex-scoring/internal/errors"
	"github.com/ajharbinger/partnex-scoring/internal/filestore"
	"github.com/ajharbinger/partnex-scoring/internal/logger"
	"github.com/ajharbinger/partnex-scoring/internal/metrics"
	"github.com/ajharbinger/partnex-scoring/internal/models"
	"github.com/ajharbinger/partnex-scoring/internal/repository"
	"github.com/ajharbinger/partnex-scoring/internal/scoring"
)

// Services contains all application services
type Services struct {
	Auth     AuthService
	SME      SMEService
	Scoring  ScoringService
	Investor InvestorService
	SOA      SOAService
}

// AuthService defines the interface for authentication business logic
type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
}

// SMEService manages the caller's SME profile
type SMEService interface {
	CreateProfile(ctx context.Context, userID uuid.UUID, req *models.CreateProfileRequest) (*models.SMEProfile, error)
	GetMyProfile(ctx context.Context, userID uuid.UUID) (*models.SMEProfile, error)
}

// ScoringService runs and reads creditworthiness scores
type ScoringService interface {
	// Run scores the caller's SME and appends exactly one record.
	Run(ctx context.Context, userID uuid.UUID) (*RunResult, error)
	Latest(ctx context.Context, userID uuid.UUID) (*scoring.ScoreRecord, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]scoring.ScoreRecord, error)
	ExternalHealth() ScoringHealth
}

// InvestorService lists scored SMEs for investors
type InvestorService interface {
	ListSMEs(ctx context.Context, filters models.ListingFilters) ([]models.SMEListing, error)
}

// SOAService stores statement-of-account uploads
type SOAService interface {
	Upload(ctx context.Context, userID uuid.UUID, file *UploadFile) (*models.SOAUpload, error)
}

// RunResult is the outcome of one scoring run
type RunResult struct {
	SMEID        uuid.UUID           `json:"sme_id"`
	ScoreID      uuid.UUID           `json:"score_id"`
	Score        float64             `json:"score"`
	RiskLevel    scoring.RiskLevel   `json:"risk_level"`
	Explanation  scoring.Explanation `json:"explanation"`
	ModelVersion string              `json:"model_version"`
	CreatedAt    time.Time           `json:"created_at"`
}

// ScoringHealth reports the scoring configuration and external call health
type ScoringHealth struct {
	Mode               scoring.Mode         `json:"mode"`
	ExternalConfigured bool                 `json:"external_configured"`
	External           scoring.HealthStatus `json:"external"`
}

// UploadFile is a file received from a client
type UploadFile struct {
	Name     string
	MimeType string
	Size     int64
	Content  io.Reader
}

// Options carries the collaborators shared by the services
type Options struct {
	JWT     *auth.JWTService
	Arbiter *scoring.Arbiter
	Monitor *scoring.HealthMonitor
	Metrics *metrics.Metrics
	Files   filestore.Store
	Logger  logger.Logger
}

// NewServices creates a new Services instance with all dependencies
func NewServices(repos *repository.Repositories, opts Options) *Services {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}

	return &Services{
		Auth:     newAuthService(repos, opts.JWT, opts.Logger),
		SME:      newSMEService(repos, opts.Logger),
		Scoring:  newScoringService(repos, opts),
		Investor: newInvestorService(repos),
		SOA:      newSOAService(repos, opts.Files, opts.Logger),
	}
}

// repoError converts a repository failure into an AppError. ErrNotFound
// becomes NOT_FOUND with notFoundMsg; anything else is a database error.
func repoError(err error, notFoundMsg, operation string) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NotFound(notFoundMsg, err).WithOperation(operation)
	}
	return errors.DatabaseError("database operation failed", err).WithOperation(operation)
}
