package scoring

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RiskLevel is the coarse tier derived from a score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Explanation sources
const (
	SourceFallback = "fallback"
	SourceExternal = "ai-service"
)

// Model versions recorded on each score
const (
	FallbackModelVersion = "fallback-v1"
	ExternalModelVersion = "ai-v1"
)

// RiskLevelFor maps a score to its tier: 70 and above is LOW, 40 to 69 is
// MEDIUM, anything lower is HIGH.
func RiskLevelFor(score float64) RiskLevel {
	switch {
	case score >= 70:
		return RiskLow
	case score >= 40:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// ValidRiskLevel reports whether s names a known tier.
func ValidRiskLevel(s string) bool {
	switch RiskLevel(s) {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ProfileMetrics are the profile values the fallback model looked at.
type ProfileMetrics struct {
	YearsOfOperation  int    `json:"years_of_operation"`
	NumberOfEmployees int    `json:"number_of_employees"`
	IndustrySector    string `json:"industry_sector"`
}

// Explanation describes how a score was produced. Fallback and external
// explanations serialize to different shapes; Source selects which one.
type Explanation struct {
	Source string

	// fallback
	Strengths     []string
	Risks         []string
	Metrics       *ProfileMetrics
	AIError       string
	InvalidInputs []string

	// external
	CredibleClass *float64
	ModelInputs   *Features

	Note string
}

type fallbackExplanationJSON struct {
	Source        string          `json:"source"`
	Strengths     []string        `json:"strengths"`
	Risks         []string        `json:"risks"`
	Metrics       *ProfileMetrics `json:"metrics"`
	Note          string          `json:"note,omitempty"`
	AIError       string          `json:"ai_error,omitempty"`
	InvalidInputs []string        `json:"invalid_inputs,omitempty"`
}

type externalExplanationJSON struct {
	Source        string    `json:"source"`
	CredibleClass *float64  `json:"credible_class"`
	ModelInputs   *Features `json:"model_inputs"`
	Note          string    `json:"note"`
}

// explanationWire is the union of both shapes, used for decoding stored rows.
type explanationWire struct {
	Source        string          `json:"source"`
	Strengths     []string        `json:"strengths"`
	Risks         []string        `json:"risks"`
	Metrics       *ProfileMetrics `json:"metrics"`
	Note          string          `json:"note"`
	AIError       string          `json:"ai_error"`
	InvalidInputs []string        `json:"invalid_inputs"`
	CredibleClass *float64        `json:"credible_class"`
	ModelInputs   *Features       `json:"model_inputs"`
}

// MarshalJSON implements json.Marshaler.
func (e Explanation) MarshalJSON() ([]byte, error) {
	if e.Source == SourceExternal {
		return json.Marshal(externalExplanationJSON{
			Source:        e.Source,
			CredibleClass: e.CredibleClass,
			ModelInputs:   e.ModelInputs,
			Note:          e.Note,
		})
	}

	strengths, risks := e.Strengths, e.Risks
	if strengths == nil {
		strengths = []string{}
	}
	if risks == nil {
		risks = []string{}
	}
	return json.Marshal(fallbackExplanationJSON{
		Source:        e.Source,
		Strengths:     strengths,
		Risks:         risks,
		Metrics:       e.Metrics,
		Note:          e.Note,
		AIError:       e.AIError,
		InvalidInputs: e.InvalidInputs,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Explanation) UnmarshalJSON(data []byte) error {
	var w explanationWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = Explanation{
		Source:        w.Source,
		Strengths:     w.Strengths,
		Risks:         w.Risks,
		Metrics:       w.Metrics,
		AIError:       w.AIError,
		InvalidInputs: w.InvalidInputs,
		CredibleClass: w.CredibleClass,
		ModelInputs:   w.ModelInputs,
		Note:          w.Note,
	}
	return nil
}

// annotated returns a copy of e carrying the arbitration note and, when set,
// the external failure reason and the rejected inputs.
func (e Explanation) annotated(note, aiError string, invalidInputs []string) Explanation {
	e.Note = note
	e.AIError = aiError
	if len(invalidInputs) > 0 {
		e.InvalidInputs = append([]string(nil), invalidInputs...)
	}
	return e
}

// Result is the outcome of one scoring run before it is stored.
type Result struct {
	Score        float64
	RiskLevel    RiskLevel
	Explanation  Explanation
	ModelVersion string
	Branch       Branch
}

// ScoreRecord is an immutable, persisted score for an SME.
type ScoreRecord struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	SMEID        uuid.UUID   `json:"sme_id" db:"sme_id"`
	Score        float64     `json:"score" db:"score"`
	RiskLevel    RiskLevel   `json:"risk_level" db:"risk_level"`
	Explanation  Explanation `json:"explanation" db:"explanation_json"`
	ModelVersion string      `json:"model_version" db:"model_version"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

// NewScoreRecord prepares r for storage against smeID. ID and CreatedAt are
// assigned by the store.
func NewScoreRecord(smeID uuid.UUID, r Result) *ScoreRecord {
	return &ScoreRecord{
		SMEID:        smeID,
		Score:        r.Score,
		RiskLevel:    r.RiskLevel,
		Explanation:  r.Explanation,
		ModelVersion: r.ModelVersion,
	}
}
