package scoring

import (
	"fmt"
	"strings"

	"github.com/ajharbinger/partnex-scoring/internal/models"
)

const (
	fallbackBase          = 50
	maxTenurePoints       = 20
	maxHeadcountPoints    = 20
	priorityIndustryBonus = 5
)

var priorityIndustries = map[string]bool{
	"fintech":     true,
	"health":      true,
	"agriculture": true,
	"logistics":   true,
}

// ProfileOnlyCaveat is reported as a risk on fallback scores below the LOW tier.
const ProfileOnlyCaveat = "MVP fallback score based on profile data only."

// Fallback scores a profile from its tenure, headcount and sector alone. It is
// deterministic and never fails.
func Fallback(p *models.SMEProfile) Result {
	if p == nil {
		p = &models.SMEProfile{}
	}

	score := fallbackBase
	score += min(maxTenurePoints, p.YearsOfOperation*2)
	score += min(maxHeadcountPoints, p.NumberOfEmployees/5)
	if priorityIndustries[strings.ToLower(strings.TrimSpace(p.IndustrySector))] {
		score += priorityIndustryBonus
	}

	final := clampScore(float64(score))

	risks := []string{}
	if final < 70 {
		risks = append(risks, ProfileOnlyCaveat)
	}

	return Result{
		Score:     final,
		RiskLevel: RiskLevelFor(final),
		Explanation: Explanation{
			Source: SourceFallback,
			Strengths: []string{
				fmt.Sprintf("Years of operation contributed positively (%d years)", p.YearsOfOperation),
				fmt.Sprintf("Employee size contributed positively (%d employees)", p.NumberOfEmployees),
			},
			Risks: risks,
			Metrics: &ProfileMetrics{
				YearsOfOperation:  p.YearsOfOperation,
				NumberOfEmployees: p.NumberOfEmployees,
				IndustrySector:    p.IndustrySector,
			},
		},
		ModelVersion: FallbackModelVersion,
		Branch:       BranchFallback,
	}
}
