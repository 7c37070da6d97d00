package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajharbinger/partnex-scoring/internal/models"
)

func f64(v float64) *float64 { return &v }

func fullProfile() *models.SMEProfile {
	return &models.SMEProfile{
		YearsOfOperation:     6,
		NumberOfEmployees:    30,
		IndustrySector:       "fintech",
		AnnualRevenueAmount1: f64(100000),
		AnnualRevenueAmount2: f64(120000),
		MonthlyExpenses:      f64(8000),
		ExistingLiabilities:  f64(25000),
	}
}

func TestExtractFeatures_TwoYears(t *testing.T) {
	f := ExtractFeatures(fullProfile())

	require.NotNil(t, f.Revenue)
	assert.Equal(t, 120000.0, *f.Revenue)
	assert.InDelta(t, 0.2, *f.RevenueGrowth, 1e-9)
	assert.Equal(t, 0.90, *f.ReportingConsistency)
	assert.Equal(t, 8000.0, *f.Expenses)
	assert.Equal(t, 25000.0, *f.Debt)
	assert.Equal(t, ImpactScorePlaceholder, *f.ImpactScore)
}

func TestExtractFeatures_ThreeYears(t *testing.T) {
	p := fullProfile()
	p.AnnualRevenueAmount3 = f64(90000)

	f := ExtractFeatures(p)

	assert.Equal(t, 90000.0, *f.Revenue)
	assert.InDelta(t, -0.25, *f.RevenueGrowth, 1e-9)
	assert.Equal(t, 0.95, *f.ReportingConsistency)
}

func TestExtractFeatures_GrowthFallsBackWhenYear2IsZero(t *testing.T) {
	p := fullProfile()
	p.AnnualRevenueAmount1 = f64(50)
	p.AnnualRevenueAmount2 = f64(0)
	p.AnnualRevenueAmount3 = f64(10)

	f := ExtractFeatures(p)

	assert.InDelta(t, -1.0, *f.RevenueGrowth, 1e-9)
}

func TestExtractFeatures_GrowthIsZeroWithoutBase(t *testing.T) {
	p := fullProfile()
	p.AnnualRevenueAmount1 = f64(0)
	p.AnnualRevenueAmount2 = f64(0)

	f := ExtractFeatures(p)

	require.NotNil(t, f.RevenueGrowth)
	assert.Equal(t, 0.0, *f.RevenueGrowth)
}

func TestExtractFeatures_NonFiniteGrowthIsZero(t *testing.T) {
	p := fullProfile()
	p.AnnualRevenueAmount1 = f64(1)
	p.AnnualRevenueAmount2 = f64(math.Inf(1))

	f := ExtractFeatures(p)

	assert.Equal(t, 0.0, *f.RevenueGrowth)
}

func TestExtractFeatures_MissingValuesStayAbsent(t *testing.T) {
	f := ExtractFeatures(&models.SMEProfile{})

	assert.Nil(t, f.Revenue)
	assert.Nil(t, f.Expenses)
	assert.Nil(t, f.Debt)
	assert.Equal(t, 0.0, *f.RevenueGrowth)
	assert.Equal(t, 0.70, *f.ReportingConsistency)
}

func TestExtractFeatures_DoesNotAliasProfile(t *testing.T) {
	p := fullProfile()
	f := ExtractFeatures(p)

	*f.Expenses = 1
	assert.Equal(t, 8000.0, *p.MonthlyExpenses)
}

func TestValidateFeatures(t *testing.T) {
	assert.NoError(t, ValidateFeatures(ExtractFeatures(fullProfile())))

	p := fullProfile()
	p.MonthlyExpenses = nil
	p.ExistingLiabilities = nil
	err := ValidateFeatures(ExtractFeatures(p))

	var fve *FeatureValidationError
	require.ErrorAs(t, err, &fve)
	assert.Equal(t, []string{"expenses", "debt"}, fve.Fields)
	assert.Contains(t, err.Error(), "expenses, debt")
}

func TestValidateFeatures_RejectsNaN(t *testing.T) {
	f := ExtractFeatures(fullProfile())
	f.Revenue = f64(math.NaN())

	var fve *FeatureValidationError
	require.ErrorAs(t, ValidateFeatures(f), &fve)
	assert.Equal(t, []string{"revenue"}, fve.Fields)
}
