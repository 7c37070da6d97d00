package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/ajharbinger/partnex-scoring/internal/models"
)

// ImpactScorePlaceholder is sent as impact_score for every profile. No profile
// field carries an impact signal yet.
const ImpactScorePlaceholder = 0.7

// Features is the normalized input set sent to the external scoring service.
// A nil field means the profile did not provide the underlying value.
type Features struct {
	Revenue              *float64 `json:"revenue"`
	Expenses             *float64 `json:"expenses"`
	Debt                 *float64 `json:"debt"`
	RevenueGrowth        *float64 `json:"revenue_growth"`
	ReportingConsistency *float64 `json:"reporting_consistency"`
	ImpactScore          *float64 `json:"impact_score"`
}

// ExtractFeatures derives the feature set from a profile. It never fails.
func ExtractFeatures(p *models.SMEProfile) Features {
	if p == nil {
		p = &models.SMEProfile{}
	}

	revenue := p.AnnualRevenueAmount2
	if p.AnnualRevenueAmount3 != nil {
		revenue = p.AnnualRevenueAmount3
	}

	return Features{
		Revenue:              copyFloat(revenue),
		Expenses:             copyFloat(p.MonthlyExpenses),
		Debt:                 copyFloat(p.ExistingLiabilities),
		RevenueGrowth:        floatPtr(revenueGrowth(p)),
		ReportingConsistency: floatPtr(reportingConsistency(p)),
		ImpactScore:          floatPtr(ImpactScorePlaceholder),
	}
}

func revenueGrowth(p *models.SMEProfile) float64 {
	y1, y2, y3 := p.AnnualRevenueAmount1, p.AnnualRevenueAmount2, p.AnnualRevenueAmount3

	var growth float64
	switch {
	case y3 != nil && y2 != nil && *y2 > 0:
		growth = (*y3 - *y2) / *y2
	case y1 != nil && *y1 > 0 && y2 != nil:
		growth = (*y2 - *y1) / *y1
	}

	if math.IsNaN(growth) || math.IsInf(growth, 0) {
		return 0
	}
	return growth
}

func reportingConsistency(p *models.SMEProfile) float64 {
	twoYears := p.AnnualRevenueAmount1 != nil && p.AnnualRevenueAmount2 != nil
	switch {
	case twoYears && p.AnnualRevenueAmount3 != nil:
		return 0.95
	case twoYears:
		return 0.90
	default:
		return 0.70
	}
}

// FeatureValidationError lists the features that are absent or not finite.
type FeatureValidationError struct {
	Fields []string
}

func (e *FeatureValidationError) Error() string {
	return fmt.Sprintf("required scoring inputs are missing or invalid: %s", strings.Join(e.Fields, ", "))
}

// ValidateFeatures checks that all six features are present and finite.
func ValidateFeatures(f Features) error {
	var invalid []string
	for _, field := range f.fields() {
		if field.value == nil || math.IsNaN(*field.value) || math.IsInf(*field.value, 0) {
			invalid = append(invalid, field.name)
		}
	}
	if len(invalid) > 0 {
		return &FeatureValidationError{Fields: invalid}
	}
	return nil
}

type namedFeature struct {
	name  string
	value *float64
}

func (f Features) fields() []namedFeature {
	return []namedFeature{
		{"revenue", f.Revenue},
		{"expenses", f.Expenses},
		{"debt", f.Debt},
		{"revenue_growth", f.RevenueGrowth},
		{"reporting_consistency", f.ReportingConsistency},
		{"impact_score", f.ImpactScore},
	}
}

func floatPtr(v float64) *float64 { return &v }

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
