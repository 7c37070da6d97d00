package services

import (
	"context"
	"math"
	"strings"

	"github.com/ajharbinger/partnex-scoring/internal/errors"
	"github.com/ajharbinger/partnex-scoring/internal/models"
	"github.com/ajharbinger/partnex-scoring/internal/repository"
	"github.com/ajharbinger/partnex-scoring/internal/scoring"
)

type investorServiceImpl struct {
	repos *repository.Repositories
}

func newInvestorService(repos *repository.Repositories) InvestorService {
	return &investorServiceImpl{repos: repos}
}

// ListSMEs returns every SME with its latest score, best first. A minimum
// score excludes unscored SMEs.
func (s *investorServiceImpl) ListSMEs(ctx context.Context, filters models.ListingFilters) ([]models.SMEListing, error) {
	if filters.MinScore != nil && (math.IsNaN(*filters.MinScore) || math.IsInf(*filters.MinScore, 0)) {
		return nil, errors.ValidationError("minScore must be a number", nil)
	}

	filters.RiskLevel = strings.ToUpper(strings.TrimSpace(filters.RiskLevel))
	if filters.RiskLevel != "" && !scoring.ValidRiskLevel(filters.RiskLevel) {
		return nil, errors.ValidationError("risk must be LOW, MEDIUM, or HIGH", nil)
	}

	rows, err := s.repos.Score.ListLatest(ctx, filters)
	if err != nil {
		return nil, errors.DatabaseError("failed to list SMEs", err).WithOperation("ListSMEs")
	}
	if rows == nil {
		rows = []models.SMEListing{}
	}
	return rows, nil
}
