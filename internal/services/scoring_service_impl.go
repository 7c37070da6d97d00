package services

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ajharbinger/partnex-scoring/internal/errors"
	"github.com/ajharbinger/partnex-scoring/internal/logger"
	"github.com/ajharbinger/partnex-scoring/internal/metrics"
	"github.com/ajharbinger/partnex-scoring/internal/models"
	"github.com/ajharbinger/partnex-scoring/internal/repository"
	"github.com/ajharbinger/partnex-scoring/internal/scoring"
)

// MaxHistoryLimit caps the number of records returned by History.
const MaxHistoryLimit = 200

// scoringServiceImpl implements ScoringService
type scoringServiceImpl struct {
	repos   *repository.Repositories
	arbiter *scoring.Arbiter
	monitor *scoring.HealthMonitor
	metrics *metrics.Metrics
	logger  logger.Logger
	tracer  trace.Tracer
}

// newScoringService creates a new scoring service implementation. Without an
// arbiter every run uses the fallback model.
func newScoringService(repos *repository.Repositories, opts Options) ScoringService {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	arbiter := opts.Arbiter
	if arbiter == nil {
		arbiter = scoring.NewArbiter(scoring.Config{Mode: scoring.ModeFallback}, nil, opts.Monitor, log)
	}

	return &scoringServiceImpl{
		repos:   repos,
		arbiter: arbiter,
		monitor: opts.Monitor,
		metrics: opts.Metrics,
		logger:  log,
		tracer:  otel.Tracer("github.com/ajharbinger/partnex-scoring/internal/services"),
	}
}

// Run loads the caller's profile, lets the arbiter pick a score and appends it.
// The profile lookup completes before any external call and the append
// starts after it, so no connection is held across the network hop.
func (s *scoringServiceImpl) Run(ctx context.Context, userID uuid.UUID) (*RunResult, error) {
	ctx, span := s.tracer.Start(ctx, "scoring.run",
		trace.WithAttributes(attribute.String("user.id", userID.String())))
	defer span.End()

	profile, err := s.repos.SME.GetByOwner(ctx, userID)
	if err != nil {
		s.metrics.RecordScoreRunError("lookup")
		span.SetStatus(codes.Error, "profile lookup failed")
		return nil, repoError(err, "SME profile not found", "Run")
	}
	span.SetAttributes(attribute.String("sme.id", profile.ID.String()))

	result := s.arbiter.Evaluate(ctx, profile)
	span.SetAttributes(
		attribute.String("scoring.branch", string(result.Branch)),
		attribute.String("scoring.source", result.Explanation.Source),
	)

	record := scoring.NewScoreRecord(profile.ID, result)
	if err := s.repos.Score.Append(ctx, record); err != nil {
		s.metrics.RecordScoreRunError("append")
		span.RecordError(err)
		span.SetStatus(codes.Error, "append failed")
		s.logger.Error("failed to store score", err, "sme_id", profile.ID, "branch", result.Branch)
		return nil, errors.DatabaseError("failed to store score", err).WithOperation("Run")
	}

	s.metrics.RecordScoreRun(result.Explanation.Source, string(result.Branch))
	s.logger.Info("score stored",
		"sme_id", profile.ID,
		"score_id", record.ID,
		"score", record.Score,
		"risk_level", record.RiskLevel,
		"branch", result.Branch,
	)

	return &RunResult{
		SMEID:        record.SMEID,
		ScoreID:      record.ID,
		Score:        record.Score,
		RiskLevel:    record.RiskLevel,
		Explanation:  record.Explanation,
		ModelVersion: record.ModelVersion,
		CreatedAt:    record.CreatedAt,
	}, nil
}

// Latest returns the caller's most recent score
func (s *scoringServiceImpl) Latest(ctx context.Context, userID uuid.UUID) (*scoring.ScoreRecord, error) {
	profile, err := s.profileFor(ctx, userID, "Latest")
	if err != nil {
		return nil, err
	}

	record, err := s.repos.Score.Latest(ctx, profile.ID)
	if err != nil {
		return nil, repoError(err, "No score found for this SME", "Latest")
	}
	return record, nil
}

// History returns up to limit of the caller's scores, newest first
func (s *scoringServiceImpl) History(ctx context.Context, userID uuid.UUID, limit int) ([]scoring.ScoreRecord, error) {
	if limit <= 0 {
		limit = repository.DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	profile, err := s.profileFor(ctx, userID, "History")
	if err != nil {
		return nil, err
	}

	records, err := s.repos.Score.History(ctx, profile.ID, limit)
	if err != nil {
		return nil, repoError(err, "No score found for this SME", "History")
	}
	if records == nil {
		records = []scoring.ScoreRecord{}
	}
	return records, nil
}

// ExternalHealth reports the configured mode and the external call monitor
func (s *scoringServiceImpl) ExternalHealth() ScoringHealth {
	cfg := s.arbiter.Config()
	health := ScoringHealth{
		Mode:               cfg.Mode,
		ExternalConfigured: cfg.ExternalBaseURL != "",
	}
	if s.monitor != nil {
		health.External = s.monitor.Status()
	} else {
		health.External = scoring.NewHealthMonitor().Status()
	}
	return health
}

func (s *scoringServiceImpl) profileFor(ctx context.Context, userID uuid.UUID, operation string) (*models.SMEProfile, error) {
	profile, err := s.repos.SME.GetByOwner(ctx, userID)
	if err != nil {
		return nil, repoError(err, "SME profile not found", operation)
	}
	return profile, nil
}
