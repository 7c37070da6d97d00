package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/ajharbinger/partnex-scoring/internal/models"
)

// soaRepository implements SOARepository
type soaRepository struct {
	db dbExecutor
}

// NewSOARepository creates a new statement-of-account repository
func NewSOARepository(db dbExecutor) SOARepository {
	return &soaRepository{db: db}
}

// Create records an uploaded file
func (r *soaRepository) Create(ctx context.Context, u *models.SOAUpload) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Status == "" {
		u.Status = models.SOAStatusUploaded
	}
	u.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO soa_uploads (id, sme_id, file_name, file_path, file_type, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.SMEID, u.FileName, u.FilePath, u.FileType, u.Status, u.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "failed to record upload for SME %s", u.SMEID)
	}

	return nil
}

// ListBySME returns the uploads for an SME, newest first
func (r *soaRepository) ListBySME(ctx context.Context, smeID uuid.UUID) ([]models.SOAUpload, error) {
	query := `
		SELECT id, sme_id, file_name, file_path, file_type, status, created_at
		FROM soa_uploads
		WHERE sme_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, smeID)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to query uploads for SME %s", smeID)
	}
	defer rows.Close()

	uploads := []models.SOAUpload{}
	for rows.Next() {
		var u models.SOAUpload
		if err := rows.Scan(&u.ID, &u.SMEID, &u.FileName, &u.FilePath, &u.FileType, &u.Status, &u.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "failed to scan upload")
		}
		uploads = append(uploads, u)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "failed to iterate uploads")
	}

	return uploads, nil
}
