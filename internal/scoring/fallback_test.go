package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ajharbinger/partnex-scoring/internal/models"
)

func TestFallback_Score(t *testing.T) {
	tests := []struct {
		name      string
		years     int
		employees int
		industry  string
		wantScore float64
		wantRisk  RiskLevel
	}{
		{"new business", 0, 0, "retail", 50, RiskMedium},
		{"exactly LOW threshold", 10, 0, "retail", 70, RiskLow},
		{"one below LOW threshold", 9, 5, "retail", 69, RiskMedium},
		{"tenure saturates at 10 years", 15, 0, "retail", 70, RiskLow},
		{"headcount saturates at 100", 0, 100, "retail", 70, RiskLow},
		{"headcount floors", 0, 9, "retail", 51, RiskMedium},
		{"priority industry bonus", 0, 0, "fintech", 55, RiskMedium},
		{"industry match ignores case", 0, 0, "Agriculture", 55, RiskMedium},
		{"everything maxed", 30, 500, "logistics", 95, RiskLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Fallback(&models.SMEProfile{
				YearsOfOperation:  tt.years,
				NumberOfEmployees: tt.employees,
				IndustrySector:    tt.industry,
			})

			assert.Equal(t, tt.wantScore, res.Score)
			assert.Equal(t, tt.wantRisk, res.RiskLevel)
			assert.Equal(t, FallbackModelVersion, res.ModelVersion)
			assert.Equal(t, BranchFallback, res.Branch)
		})
	}
}

func TestFallback_Saturation(t *testing.T) {
	a := Fallback(&models.SMEProfile{YearsOfOperation: 15, NumberOfEmployees: 100})
	b := Fallback(&models.SMEProfile{YearsOfOperation: 30, NumberOfEmployees: 500})
	assert.Equal(t, a.Score, b.Score)
}

func TestFallback_Explanation(t *testing.T) {
	low := Fallback(&models.SMEProfile{YearsOfOperation: 12, NumberOfEmployees: 40, IndustrySector: "Health"})
	assert.Equal(t, SourceFallback, low.Explanation.Source)
	assert.Equal(t, []string{
		"Years of operation contributed positively (12 years)",
		"Employee size contributed positively (40 employees)",
	}, low.Explanation.Strengths)
	assert.Empty(t, low.Explanation.Risks)
	assert.NotNil(t, low.Explanation.Risks)
	assert.Equal(t, &ProfileMetrics{YearsOfOperation: 12, NumberOfEmployees: 40, IndustrySector: "Health"}, low.Explanation.Metrics)

	medium := Fallback(&models.SMEProfile{YearsOfOperation: 1, NumberOfEmployees: 2})
	assert.Equal(t, []string{ProfileOnlyCaveat}, medium.Explanation.Risks)
}

func TestFallback_Deterministic(t *testing.T) {
	p := &models.SMEProfile{YearsOfOperation: 4, NumberOfEmployees: 23, IndustrySector: "fintech"}
	assert.Equal(t, Fallback(p), Fallback(p))
}

func TestFallback_NilProfile(t *testing.T) {
	res := Fallback(nil)
	assert.Equal(t, float64(50), res.Score)
}

func TestRiskLevelFor(t *testing.T) {
	tests := []struct {
		score float64
		want  RiskLevel
	}{
		{100, RiskLow},
		{70, RiskLow},
		{69.99, RiskMedium},
		{69, RiskMedium},
		{40, RiskMedium},
		{39, RiskHigh},
		{0, RiskHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RiskLevelFor(tt.score), "score %v", tt.score)
	}
}

func TestValidRiskLevel(t *testing.T) {
	assert.True(t, ValidRiskLevel("LOW"))
	assert.True(t, ValidRiskLevel("MEDIUM"))
	assert.True(t, ValidRiskLevel("HIGH"))
	assert.False(t, ValidRiskLevel("low"))
	assert.False(t, ValidRiskLevel(""))
}
