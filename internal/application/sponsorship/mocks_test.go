package sponsorship

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/audit"
	"github.com/projecta/backend/internal/domain/project"
	"github.com/projecta/backend/internal/domain/shared"
	"github.com/projecta/backend/internal/domain/sponsorship"
	"github.com/projecta/backend/internal/infrastructure/billing"
	"github.com/stretchr/testify/mock"
)

type mockProjectRepository struct {
	mock.Mock
}

func (m *mockProjectRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*project.Project, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Project), args.Error(1)
}

func (m *mockProjectRepository) FindBySlug(ctx context.Context, slug string) (*project.Project, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Project), args.Error(1)
}

func (m *mockProjectRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]project.Project, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]project.Project), args.Error(1)
}

func (m *mockProjectRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockProjectRepository) Save(ctx context.Context, p *project.Project) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockProjectRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *mockProjectRepository) CountSlugs(ctx context.Context, base string) (int64, error) {
	args := m.Called(ctx, base)
	return args.Get(0).(int64), args.Error(1)
}

type mockSponsorRepository struct {
	mock.Mock
}

func (m *mockSponsorRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*sponsorship.Sponsor, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sponsorship.Sponsor), args.Error(1)
}

func (m *mockSponsorRepository) FindByProject(ctx context.Context, tenantID, projectID uuid.UUID, approvedOnly bool) ([]sponsorship.Sponsor, error) {
	args := m.Called(ctx, tenantID, projectID, approvedOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sponsorship.Sponsor), args.Error(1)
}

func (m *mockSponsorRepository) SlugExists(ctx context.Context, table string, projectID uuid.UUID, slug string) (bool, error) {
	args := m.Called(ctx, table, projectID, slug)
	return args.Bool(0), args.Error(1)
}

func (m *mockSponsorRepository) CountSlugs(ctx context.Context, table string, projectID uuid.UUID, base string) (int64, error) {
	args := m.Called(ctx, table, projectID, base)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSponsorRepository) Create(ctx context.Context, s *sponsorship.Sponsor) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSponsorRepository) SaveTransition(ctx context.Context, s *sponsorship.Sponsor, change *audit.StatusChange) error {
	return m.Called(ctx, s, change).Error(0)
}

func (m *mockSponsorRepository) FindLevel(ctx context.Context, tenantID, id uuid.UUID) (*sponsorship.SponsorshipLevel, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sponsorship.SponsorshipLevel), args.Error(1)
}

func (m *mockSponsorRepository) FindLevels(ctx context.Context, tenantID, projectID uuid.UUID) ([]sponsorship.SponsorshipLevel, error) {
	args := m.Called(ctx, tenantID, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sponsorship.SponsorshipLevel), args.Error(1)
}

func (m *mockSponsorRepository) CreateLevel(ctx context.Context, l *sponsorship.SponsorshipLevel) error {
	return m.Called(ctx, l).Error(0)
}

type mockPeriodRepository struct {
	mock.Mock
}

func (m *mockPeriodRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*sponsorship.SponsorshipPeriod, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sponsorship.SponsorshipPeriod), args.Error(1)
}

func (m *mockPeriodRepository) FindBySponsor(ctx context.Context, tenantID, sponsorID uuid.UUID) ([]sponsorship.SponsorshipPeriod, error) {
	args := m.Called(ctx, tenantID, sponsorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sponsorship.SponsorshipPeriod), args.Error(1)
}

func (m *mockPeriodRepository) FindWithSubscription(ctx context.Context) ([]sponsorship.SponsorshipPeriod, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sponsorship.SponsorshipPeriod), args.Error(1)
}

func (m *mockPeriodRepository) Create(ctx context.Context, p *sponsorship.SponsorshipPeriod) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockPeriodRepository) Update(ctx context.Context, p *sponsorship.SponsorshipPeriod) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockPeriodRepository) SaveTransition(ctx context.Context, p *sponsorship.SponsorshipPeriod, change *audit.StatusChange) error {
	return m.Called(ctx, p, change).Error(0)
}

// fakeGateway answers from a map of subscription id to status
type fakeGateway struct {
	mu       sync.Mutex
	statuses map[string]sponsorship.SubscriptionStatus
	canceled []string
	err      error
}

func (g *fakeGateway) GetSubscription(_ context.Context, id string) (*billing.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	st, ok := g.statuses[id]
	if !ok {
		return nil, billing.ErrSubscriptionNotFound
	}
	return &billing.Subscription{ID: id, Status: st}, nil
}

func (g *fakeGateway) CancelSubscription(_ context.Context, id, _ string) (*billing.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	if _, ok := g.statuses[id]; !ok {
		return nil, billing.ErrSubscriptionNotFound
	}
	g.statuses[id] = sponsorship.SubscriptionCanceled
	g.canceled = append(g.canceled, id)
	return &billing.Subscription{ID: id, Status: sponsorship.SubscriptionCanceled}, nil
}
