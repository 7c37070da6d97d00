package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ajharbinger/partnex-scoring/internal/models"
	"github.com/ajharbinger/partnex-scoring/internal/repository"
	"github.com/ajharbinger/partnex-scoring/internal/scoring"
)

var errDBDown = errors.New("connection refused")

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	users     map[string]*models.User
	createErr error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*models.User)}
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.users[user.Email]; ok {
		return repository.ErrConflict
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.Email] = user
	return nil
}

// MockSMERepository implements SMERepository for testing
type MockSMERepository struct {
	profiles  map[uuid.UUID]*models.SMEProfile
	lookupErr error
}

func NewMockSMERepository() *MockSMERepository {
	return &MockSMERepository{profiles: make(map[uuid.UUID]*models.SMEProfile)}
}

func (m *MockSMERepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*models.SMEProfile, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	if p, ok := m.profiles[ownerID]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockSMERepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SMEProfile, error) {
	for _, p := range m.profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockSMERepository) Create(ctx context.Context, p *models.SMEProfile) error {
	if _, ok := m.profiles[p.OwnerUserID]; ok {
		return repository.ErrConflict
	}
	p.ID = uuid.New()
	m.profiles[p.OwnerUserID] = p
	return nil
}

// MockScoreRepository implements ScoreRepository for testing
type MockScoreRepository struct {
	mu        sync.Mutex
	records   []scoring.ScoreRecord
	appendErr error
	listing   []models.SMEListing
	filters   models.ListingFilters
	clock     time.Time
}

func NewMockScoreRepository() *MockScoreRepository {
	return &MockScoreRepository{clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *MockScoreRepository) Append(ctx context.Context, r *scoring.ScoreRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.clock = m.clock.Add(time.Microsecond)
	r.ID = uuid.New()
	r.CreatedAt = m.clock
	m.records = append(m.records, *r)
	return nil
}

func (m *MockScoreRepository) Latest(ctx context.Context, smeID uuid.UUID) (*scoring.ScoreRecord, error) {
	history, _ := m.History(ctx, smeID, 1)
	if len(history) == 0 {
		return nil, repository.ErrNotFound
	}
	return &history[0], nil
}

func (m *MockScoreRepository) History(ctx context.Context, smeID uuid.UUID, limit int) ([]scoring.ScoreRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []scoring.ScoreRecord
	for _, r := range m.records {
		if r.SMEID == smeID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockScoreRepository) ListLatest(ctx context.Context, filters models.ListingFilters) ([]models.SMEListing, error) {
	m.filters = filters
	return m.listing, nil
}

func (m *MockScoreRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// MockSOARepository implements SOARepository for testing
type MockSOARepository struct {
	uploads   []models.SOAUpload
	createErr error
}

func (m *MockSOARepository) Create(ctx context.Context, u *models.SOAUpload) error {
	if m.createErr != nil {
		return m.createErr
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	m.uploads = append(m.uploads, *u)
	return nil
}

func (m *MockSOARepository) ListBySME(ctx context.Context, smeID uuid.UUID) ([]models.SOAUpload, error) {
	var out []models.SOAUpload
	for _, u := range m.uploads {
		if u.SMEID == smeID {
			out = append(out, u)
		}
	}
	return out, nil
}

// mockTx runs the callback against the same mock repositories
type mockTx struct {
	repos *repository.Repositories
}

func (m *mockTx) WithTransaction(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	return fn(m.repos)
}

type mockRepos struct {
	*repository.Repositories
	users  *MockUserRepository
	smes   *MockSMERepository
	scores *MockScoreRepository
	soa    *MockSOARepository
}

func newMockRepos() *mockRepos {
	m := &mockRepos{
		users:  NewMockUserRepository(),
		smes:   NewMockSMERepository(),
		scores: NewMockScoreRepository(),
		soa:    &MockSOARepository{},
	}
	m.Repositories = &repository.Repositories{
		User:  m.users,
		SME:   m.smes,
		Score: m.scores,
		SOA:   m.soa,
	}
	m.Repositories.Tx = &mockTx{repos: m.Repositories}
	return m
}

func f64(v float64) *float64 { return &v }
func intp(v int) *int { return &v }
func strp(v string) *string { return &v }

// seedProfile stores a complete profile for a new owner and returns it
func (m *mockRepos) seedProfile() *models.SMEProfile {
	owner := uuid.New()
	p := &models.SMEProfile{
		ID:                   uuid.New(),
		OwnerUserID:          owner,
		BusinessName:         "Acme Foods",
		IndustrySector:       "agriculture",
		Location:             "Nairobi",
		YearsOfOperation:     6,
		NumberOfEmployees:    30,
		AnnualRevenueYear1:   intp(2023),
		AnnualRevenueAmount1: f64(100000),
		AnnualRevenueYear2:   intp(2024),
		AnnualRevenueAmount2: f64(120000),
		MonthlyExpenses:      f64(8000),
		ExistingLiabilities:  f64(25000),
		PriorFundingHistory:  "none",
	}
	m.smes.profiles[owner] = p
	return p
}
