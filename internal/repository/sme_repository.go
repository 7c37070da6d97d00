package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/ajharbinger/partnex-scoring/internal/models"
)

// smeRepository implements SMERepository
type smeRepository struct {
	db dbExecutor
}

// NewSMERepository creates a new SME profile repository
func NewSMERepository(db dbExecutor) SMERepository {
	return &smeRepository{db: db}
}

const smeColumns = `
	id, owner_user_id, business_name, industry_sector, location,
	years_of_operation, number_of_employees,
	annual_revenue_year_1, annual_revenue_amount_1,
	annual_revenue_year_2, annual_revenue_amount_2,
	annual_revenue_year_3, annual_revenue_amount_3,
	monthly_revenue, monthly_expenses, existing_liabilities,
	prior_funding_history, repayment_history, created_at, updated_at`

// GetByOwner retrieves the profile owned by a user
func (r *smeRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*models.SMEProfile, error) {
	query := `SELECT ` + smeColumns + ` FROM smes WHERE owner_user_id = $1`
	return scanProfile(r.db.QueryRowContext(ctx, query, ownerID))
}

// GetByID retrieves a profile by its ID
func (r *smeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SMEProfile, error) {
	query := `SELECT ` + smeColumns + ` FROM smes WHERE id = $1`
	return scanProfile(r.db.QueryRowContext(ctx, query, id))
}

// Create inserts a profile. A second profile for the same owner returns
// ErrConflict.
func (r *smeRepository) Create(ctx context.Context, p *models.SMEProfile) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `
		INSERT INTO smes (` + smeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.OwnerUserID, p.BusinessName, p.IndustrySector, p.Location,
		p.YearsOfOperation, p.NumberOfEmployees,
		p.AnnualRevenueYear1, p.AnnualRevenueAmount1,
		p.AnnualRevenueYear2, p.AnnualRevenueAmount2,
		p.AnnualRevenueYear3, p.AnnualRevenueAmount3,
		p.MonthlyRevenue, p.MonthlyExpenses, p.ExistingLiabilities,
		p.PriorFundingHistory, p.RepaymentHistory, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return eris.Wrap(err, "failed to create SME profile")
	}

	return nil
}

func scanProfile(row *sql.Row) (*models.SMEProfile, error) {
	p := &models.SMEProfile{}
	var (
		year1, year2, year3                   sql.NullInt64
		amount1, amount2, amount3             sql.NullFloat64
		monthlyRevenue, expenses, liabilities sql.NullFloat64
		repayment                             sql.NullString
	)

	err := row.Scan(
		&p.ID, &p.OwnerUserID, &p.BusinessName, &p.IndustrySector, &p.Location,
		&p.YearsOfOperation, &p.NumberOfEmployees,
		&year1, &amount1,
		&year2, &amount2,
		&year3, &amount3,
		&monthlyRevenue, &expenses, &liabilities,
		&p.PriorFundingHistory, &repayment, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "failed to get SME profile")
	}

	p.AnnualRevenueYear1 = nullInt(year1)
	p.AnnualRevenueAmount1 = nullFloat(amount1)
	p.AnnualRevenueYear2 = nullInt(year2)
	p.AnnualRevenueAmount2 = nullFloat(amount2)
	p.AnnualRevenueYear3 = nullInt(year3)
	p.AnnualRevenueAmount3 = nullFloat(amount3)
	p.MonthlyRevenue = nullFloat(monthlyRevenue)
	p.MonthlyExpenses = nullFloat(expenses)
	p.ExistingLiabilities = nullFloat(liabilities)
	if repayment.Valid {
		s := repayment.String
		p.RepaymentHistory = &s
	}

	return p, nil
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
