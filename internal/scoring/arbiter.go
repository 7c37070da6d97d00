package scoring

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/ajharbinger/partnex-scoring/internal/logger"
	"github.com/ajharbinger/partnex-scoring/internal/models"
)

// Mode selects how scores are produced.
type Mode string

const (
	ModeFallback Mode = "fallback"
	ModeExternal Mode = "external"
)

// ParseMode parses a configured mode. Empty means fallback; anything else
// unknown is an error.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeFallback:
		return ModeFallback, nil
	case ModeExternal:
		return ModeExternal, nil
	}
	return "", fmt.Errorf("unknown scoring mode %q (expected %q or %q)", s, ModeFallback, ModeExternal)
}

// Config is the arbitration configuration, fixed at construction.
type Config struct {
	Mode            Mode
	ExternalBaseURL string
	ExternalTimeout time.Duration
}

// Branch identifies which row of the decision table produced a result.
type Branch string

const (
	BranchFallback       Branch = "fallback"
	BranchUnconfigured   Branch = "unconfigured"
	BranchInvalidInputs  Branch = "invalid_inputs"
	BranchExternal       Branch = "external"
	BranchExternalFailed Branch = "external_failed"
)

// Arbitration notes attached to explanations
const (
	NoteUnconfigured  = "external scoring mode requested but no service URL is configured; used fallback scoring"
	NoteInvalidInputs = "required external scoring inputs are missing or invalid: %s; used fallback scoring"
	NoteCallFailed    = "external scoring service call failed; used fallback scoring instead"
	NoteExternal      = "score generated by external scoring service from profile financial inputs"
)

// Decide picks the branch before any network call is made. BranchExternal
// means the service should be called; a failed call turns it into
// BranchExternalFailed.
//
//	mode      url  features  -> branch
//	fallback  -    -            fallback
//	external  no   -            unconfigured
//	external  yes  invalid      invalid_inputs
//	external  yes  valid        external
func Decide(mode Mode, urlConfigured, featuresValid bool) Branch {
	switch {
	case mode != ModeExternal:
		return BranchFallback
	case !urlConfigured:
		return BranchUnconfigured
	case !featuresValid:
		return BranchInvalidInputs
	default:
		return BranchExternal
	}
}

// Arbiter chooses between the fallback model and the external service for a
// profile. It holds no per-run state and is safe for concurrent use.
type Arbiter struct {
	cfg    Config
	client ExternalScorer
	logger logger.Logger
}

// NewArbiter creates an arbiter. When client is nil and an external URL is
// configured, an ExternalClient reporting to monitor is built from cfg.
func NewArbiter(cfg Config, client ExternalScorer, monitor *HealthMonitor, log logger.Logger) *Arbiter {
	cfg.ExternalBaseURL = strings.TrimRight(strings.TrimSpace(cfg.ExternalBaseURL), "/")
	if cfg.Mode == "" {
		cfg.Mode = ModeFallback
	}
	if client == nil && cfg.ExternalBaseURL != "" {
		client = NewExternalClient(cfg.ExternalBaseURL, cfg.ExternalTimeout, monitor)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Arbiter{cfg: cfg, client: client, logger: log}
}

// Config returns the configuration the arbiter was built with.
func (a *Arbiter) Config() Config { return a.cfg }

// Evaluate produces exactly one result for the profile. It never fails:
// every external problem degrades to a fallback score with the reason in its
// explanation.
func (a *Arbiter) Evaluate(ctx context.Context, p *models.SMEProfile) Result {
	features := ExtractFeatures(p)
	validationErr := ValidateFeatures(features)
	urlConfigured := a.cfg.ExternalBaseURL != "" && a.client != nil

	switch Decide(a.cfg.Mode, urlConfigured, validationErr == nil) {
	case BranchUnconfigured:
		res := Fallback(p)
		res.Explanation = res.Explanation.annotated(NoteUnconfigured, "", nil)
		res.Branch = BranchUnconfigured
		return res

	case BranchInvalidInputs:
		var fields []string
		var fve *FeatureValidationError
		if stderrors.As(validationErr, &fve) {
			fields = fve.Fields
		}
		res := Fallback(p)
		res.Explanation = res.Explanation.annotated(
			fmt.Sprintf(NoteInvalidInputs, strings.Join(fields, ", ")), "", fields)
		res.Branch = BranchInvalidInputs
		return res

	case BranchExternal:
		return a.external(ctx, p, features)

	default:
		return Fallback(p)
	}
}

func (a *Arbiter) external(ctx context.Context, p *models.SMEProfile, features Features) Result {
	ext, err := a.client.Score(ctx, features)
	if err != nil {
		reason := err.Error()
		var svcErr *ServiceError
		if stderrors.As(err, &svcErr) {
			reason = svcErr.Reason()
			a.logger.Warn("external scoring failed, using fallback",
				"reason", reason, "status_code", svcErr.StatusCode, "detail", svcErr.Detail)
		} else {
			a.logger.Warn("external scoring failed, using fallback", "reason", reason)
		}

		res := Fallback(p)
		res.Explanation = res.Explanation.annotated(NoteCallFailed, reason, nil)
		res.Branch = BranchExternalFailed
		return res
	}

	inputs := features
	return Result{
		Score:     ext.Score,
		RiskLevel: ext.RiskLevel,
		Explanation: Explanation{
			Source:        SourceExternal,
			CredibleClass: ext.CredibleClass,
			ModelInputs:   &inputs,
			Note:          NoteExternal,
		},
		ModelVersion: ExternalModelVersion,
		Branch:       BranchExternal,
	}
}
