package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ajharbinger/partnex-scoring/internal/errors"
)

// SMEProfile is the financial profile of a small or medium business. Each user
// owns at most one. Numeric amounts are pointers so an absent value stays
// distinguishable from zero all the way into feature extraction.
type SMEProfile struct {
	ID                   uuid.UUID `json:"id" db:"id"`
	OwnerUserID          uuid.UUID `json:"owner_user_id" db:"owner_user_id"`
	BusinessName         string    `json:"business_name" db:"business_name"`
	IndustrySector       string    `json:"industry_sector" db:"industry_sector"`
	Location             string    `json:"location" db:"location"`
	YearsOfOperation     int       `json:"years_of_operation" db:"years_of_operation"`
	NumberOfEmployees    int       `json:"number_of_employees" db:"number_of_employees"`
	AnnualRevenueYear1   *int      `json:"annual_revenue_year_1" db:"annual_revenue_year_1"`
	AnnualRevenueAmount1 *float64  `json:"annual_revenue_amount_1" db:"annual_revenue_amount_1"`
	AnnualRevenueYear2   *int      `json:"annual_revenue_year_2" db:"annual_revenue_year_2"`
	AnnualRevenueAmount2 *float64  `json:"annual_revenue_amount_2" db:"annual_revenue_amount_2"`
	AnnualRevenueYear3   *int      `json:"annual_revenue_year_3" db:"annual_revenue_year_3"`
	AnnualRevenueAmount3 *float64  `json:"annual_revenue_amount_3" db:"annual_revenue_amount_3"`
	MonthlyRevenue       *float64  `json:"monthly_revenue" db:"monthly_revenue"`
	MonthlyExpenses      *float64  `json:"monthly_expenses" db:"monthly_expenses"`
	ExistingLiabilities  *float64  `json:"existing_liabilities" db:"existing_liabilities"`
	PriorFundingHistory  string    `json:"prior_funding_history" db:"prior_funding_history"`
	RepaymentHistory     *string   `json:"repayment_history" db:"repayment_history"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

// CreateProfileRequest is the payload accepted when an SME registers its profile.
// Every field is a pointer so that "missing" and "zero" can be told apart.
type CreateProfileRequest struct {
	BusinessName         *string  `json:"business_name"`
	IndustrySector       *string  `json:"industry_sector"`
	Location             *string  `json:"location"`
	YearsOfOperation     *int     `json:"years_of_operation"`
	NumberOfEmployees    *int     `json:"number_of_employees"`
	AnnualRevenueYear1   *int     `json:"annual_revenue_year_1"`
	AnnualRevenueAmount1 *float64 `json:"annual_revenue_amount_1"`
	AnnualRevenueYear2   *int     `json:"annual_revenue_year_2"`
	AnnualRevenueAmount2 *float64 `json:"annual_revenue_amount_2"`
	AnnualRevenueYear3   *int     `json:"annual_revenue_year_3"`
	AnnualRevenueAmount3 *float64 `json:"annual_revenue_amount_3"`
	MonthlyRevenue       *float64 `json:"monthly_revenue"`
	MonthlyExpenses      *float64 `json:"monthly_expenses"`
	ExistingLiabilities  *float64 `json:"existing_liabilities"`
	PriorFundingHistory  *string  `json:"prior_funding_history"`
	RepaymentHistory     *string  `json:"repayment_history"`
}

// Validate checks the request in three passes: the year-3 revenue pairing, the
// required fields, then value ranges. The pairing rule is checked first so a
// half-specified third year is rejected whatever else the payload contains.
func (r *CreateProfileRequest) Validate() error {
	if (r.AnnualRevenueYear3 == nil) != (r.AnnualRevenueAmount3 == nil) {
		return errors.ValidationError("annual_revenue_year_3 and annual_revenue_amount_3 must be provided together", nil).
			WithDetails("year 3 revenue partially specified")
	}

	if missing := r.missingFields(); len(missing) > 0 {
		return errors.ValidationError("Missing required SME fields: "+strings.Join(missing, ", "), nil)
	}

	var negative []string
	if *r.YearsOfOperation < 0 {
		negative = append(negative, "years_of_operation")
	}
	if *r.NumberOfEmployees < 0 {
		negative = append(negative, "number_of_employees")
	}
	if *r.MonthlyExpenses < 0 {
		negative = append(negative, "monthly_expenses")
	}
	if *r.ExistingLiabilities < 0 {
		negative = append(negative, "existing_liabilities")
	}
	if len(negative) > 0 {
		return errors.ValidationError("Fields must not be negative: "+strings.Join(negative, ", "), nil)
	}

	return nil
}

func (r *CreateProfileRequest) missingFields() []string {
	var missing []string
	check := func(name string, absent bool) {
		if absent {
			missing = append(missing, name)
		}
	}

	check("business_name", blank(r.BusinessName))
	check("industry_sector", blank(r.IndustrySector))
	check("location", blank(r.Location))
	check("years_of_operation", r.YearsOfOperation == nil)
	check("number_of_employees", r.NumberOfEmployees == nil)
	check("annual_revenue_year_1", r.AnnualRevenueYear1 == nil)
	check("annual_revenue_amount_1", r.AnnualRevenueAmount1 == nil)
	check("annual_revenue_year_2", r.AnnualRevenueYear2 == nil)
	check("annual_revenue_amount_2", r.AnnualRevenueAmount2 == nil)
	check("monthly_expenses", r.MonthlyExpenses == nil)
	check("existing_liabilities", r.ExistingLiabilities == nil)
	check("prior_funding_history", blank(r.PriorFundingHistory))

	return missing
}

// ToProfile builds the profile owned by ownerID. Call Validate first.
func (r *CreateProfileRequest) ToProfile(ownerID uuid.UUID) *SMEProfile {
	p := &SMEProfile{
		OwnerUserID:          ownerID,
		BusinessName:         strings.TrimSpace(*r.BusinessName),
		IndustrySector:       strings.TrimSpace(*r.IndustrySector),
		Location:             strings.TrimSpace(*r.Location),
		YearsOfOperation:     *r.YearsOfOperation,
		NumberOfEmployees:    *r.NumberOfEmployees,
		AnnualRevenueYear1:   r.AnnualRevenueYear1,
		AnnualRevenueAmount1: r.AnnualRevenueAmount1,
		AnnualRevenueYear2:   r.AnnualRevenueYear2,
		AnnualRevenueAmount2: r.AnnualRevenueAmount2,
		AnnualRevenueYear3:   r.AnnualRevenueYear3,
		AnnualRevenueAmount3: r.AnnualRevenueAmount3,
		MonthlyRevenue:       r.MonthlyRevenue,
		MonthlyExpenses:      r.MonthlyExpenses,
		ExistingLiabilities:  r.ExistingLiabilities,
		PriorFundingHistory:  strings.TrimSpace(*r.PriorFundingHistory),
		RepaymentHistory:     r.RepaymentHistory,
	}
	return p
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// SMEListing is one row of the investor-facing listing: an SME joined with its
// most recent score, if it has one.
type SMEListing struct {
	SMEID             uuid.UUID  `json:"sme_id"`
	BusinessName      string     `json:"business_name"`
	IndustrySector    string     `json:"industry_sector"`
	Location          string     `json:"location"`
	YearsOfOperation  int        `json:"years_of_operation"`
	NumberOfEmployees int        `json:"number_of_employees"`
	Score             *float64   `json:"score"`
	RiskLevel         *string    `json:"risk_level"`
	ScoredAt          *time.Time `json:"scored_at"`
}

// ListingFilters narrows the investor listing
type ListingFilters struct {
	MinScore  *float64
	RiskLevel string
}
