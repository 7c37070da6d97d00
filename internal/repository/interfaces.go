package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ajharbinger/partnex-scoring/internal/models"
	"github.com/ajharbinger/partnex-scoring/internal/scoring"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique constraint rejects a write.
	ErrConflict = errors.New("record already exists")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// SMERepository defines the interface for SME profile data access
type SMERepository interface {
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*models.SMEProfile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.SMEProfile, error)
	Create(ctx context.Context, profile *models.SMEProfile) error
}

// ScoreRepository stores score records. Records are append-only.
type ScoreRepository interface {
	// Append inserts the record and sets its ID and CreatedAt. CreatedAt is
	// strictly greater than any earlier record for the same SME.
	Append(ctx context.Context, record *scoring.ScoreRecord) error
	// Latest returns the most recent record for the SME or ErrNotFound.
	Latest(ctx context.Context, smeID uuid.UUID) (*scoring.ScoreRecord, error)
	// History returns up to limit records, newest first.
	History(ctx context.Context, smeID uuid.UUID, limit int) ([]scoring.ScoreRecord, error)
	// ListLatest returns every SME with its latest score, best first.
	ListLatest(ctx context.Context, filters models.ListingFilters) ([]models.SMEListing, error)
}

// SOARepository defines the interface for statement-of-account uploads
type SOARepository interface {
	Create(ctx context.Context, upload *models.SOAUpload) error
	ListBySME(ctx context.Context, smeID uuid.UUID) ([]models.SOAUpload, error)
}

// TransactionManager defines the interface for database transaction management
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(repos *Repositories) error) error
}

// Repositories groups all repository interfaces
type Repositories struct {
	User  UserRepository
	SME   SMERepository
	Score ScoreRepository
	SOA   SOARepository
	Tx    TransactionManager
}
