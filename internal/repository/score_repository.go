package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/ajharbinger/partnex-scoring/internal/models"
	"github.com/ajharbinger/partnex-scoring/internal/scoring"
)

// DefaultHistoryLimit caps History when no positive limit is given.
const DefaultHistoryLimit = 50

// scoreRepository implements ScoreRepository
type scoreRepository struct {
	db dbExecutor
}

// NewScoreRepository creates a new score record repository
func NewScoreRepository(db dbExecutor) ScoreRepository {
	return &scoreRepository{db: db}
}

// Append stores a new score record. created_at is taken from the database
// clock and bumped past the SME's newest record so that sequential appends
// always sort in insertion order.
func (r *scoreRepository) Append(ctx context.Context, rec *scoring.ScoreRecord) error {
	explanation, err := json.Marshal(rec.Explanation)
	if err != nil {
		return eris.Wrap(err, "failed to marshal explanation")
	}

	id := uuid.New()
	query := `
		INSERT INTO sme_scores (id, sme_id, score, risk_level, explanation_json, model_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, GREATEST(
			clock_timestamp(),
			(SELECT MAX(created_at) FROM sme_scores WHERE sme_id = $2) + INTERVAL '1 microsecond'
		))
		RETURNING created_at
	`

	err = r.db.QueryRowContext(ctx, query,
		id, rec.SMEID, rec.Score, string(rec.RiskLevel), string(explanation), rec.ModelVersion,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return eris.Wrapf(err, "failed to store score for SME %s", rec.SMEID)
	}

	rec.ID = id
	return nil
}

const scoreColumns = `id, sme_id, score, risk_level, explanation_json, model_version, created_at`

// Latest returns the newest score record for an SME
func (r *scoreRepository) Latest(ctx context.Context, smeID uuid.UUID) (*scoring.ScoreRecord, error) {
	query := `
		SELECT ` + scoreColumns + `
		FROM sme_scores
		WHERE sme_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	rec, err := scanScore(r.db.QueryRowContext(ctx, query, smeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "failed to get latest score for SME %s", smeID)
	}
	return rec, nil
}

// History returns score records for an SME, newest first
func (r *scoreRepository) History(ctx context.Context, smeID uuid.UUID, limit int) ([]scoring.ScoreRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := `
		SELECT ` + scoreColumns + `
		FROM sme_scores
		WHERE sme_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, smeID, limit)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to query score history for SME %s", smeID)
	}
	defer rows.Close()

	records := []scoring.ScoreRecord{}
	for rows.Next() {
		rec, err := scanScore(rows)
		if err != nil {
			return nil, eris.Wrap(err, "failed to scan score record")
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "failed to iterate score history")
	}

	return records, nil
}

// ListLatest joins every SME with its newest score. A MinScore filter drops
// unscored SMEs. Rows are ordered by score, highest first, unscored last.
func (r *scoreRepository) ListLatest(ctx context.Context, filters models.ListingFilters) ([]models.SMEListing, error) {
	query := `
		SELECT s.id, s.business_name, s.industry_sector, s.location,
			   s.years_of_operation, s.number_of_employees,
			   sc.score, sc.risk_level, sc.created_at
		FROM smes s
		LEFT JOIN LATERAL (
			SELECT score, risk_level, created_at
			FROM sme_scores
			WHERE sme_id = s.id
			ORDER BY created_at DESC
			LIMIT 1
		) sc ON true
	`

	var whereClauses []string
	var args []interface{}
	argIndex := 1

	if filters.MinScore != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("sc.score IS NOT NULL AND sc.score >= $%d", argIndex))
		args = append(args, *filters.MinScore)
		argIndex++
	}

	if filters.RiskLevel != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("sc.risk_level = $%d", argIndex))
		args = append(args, filters.RiskLevel)
		argIndex++
	}

	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}
	query += " ORDER BY sc.score DESC NULLS LAST, s.business_name ASC, s.id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "failed to query SME listing")
	}
	defer rows.Close()

	listings := []models.SMEListing{}
	for rows.Next() {
		var (
			l        models.SMEListing
			score    sql.NullFloat64
			risk     sql.NullString
			scoredAt sql.NullTime
		)
		if err := rows.Scan(
			&l.SMEID, &l.BusinessName, &l.IndustrySector, &l.Location,
			&l.YearsOfOperation, &l.NumberOfEmployees,
			&score, &risk, &scoredAt,
		); err != nil {
			return nil, eris.Wrap(err, "failed to scan SME listing")
		}

		l.Score = nullFloat(score)
		if risk.Valid {
			s := risk.String
			l.RiskLevel = &s
		}
		if scoredAt.Valid {
			t := scoredAt.Time
			l.ScoredAt = &t
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "failed to iterate SME listing")
	}

	return listings, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanScore(row rowScanner) (*scoring.ScoreRecord, error) {
	rec := &scoring.ScoreRecord{}
	var risk string
	var explanation []byte

	if err := row.Scan(&rec.ID, &rec.SMEID, &rec.Score, &risk, &explanation, &rec.ModelVersion, &rec.CreatedAt); err != nil {
		return nil, err
	}

	rec.RiskLevel = scoring.RiskLevel(risk)
	if err := json.Unmarshal(explanation, &rec.Explanation); err != nil {
		return nil, eris.Wrap(err, "failed to decode score explanation")
	}
	return rec, nil
}
