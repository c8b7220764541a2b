package project

import (
	"context"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/project"
	"github.com/projecta/backend/internal/domain/shared"
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

type mockStatusRepository struct {
	mock.Mock
}

func (m *mockStatusRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*project.Status, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Status), args.Error(1)
}

func (m *mockStatusRepository) FindByProject(ctx context.Context, tenantID, projectID uuid.UUID) ([]project.Status, error) {
	args := m.Called(ctx, tenantID, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]project.Status), args.Error(1)
}

func (m *mockStatusRepository) MaxOrder(ctx context.Context, tenantID, projectID uuid.UUID) (int, error) {
	args := m.Called(ctx, tenantID, projectID)
	return args.Int(0), args.Error(1)
}

func (m *mockStatusRepository) ExistsByName(ctx context.Context, tenantID, projectID uuid.UUID, name string) (bool, error) {
	args := m.Called(ctx, tenantID, projectID, name)
	return args.Bool(0), args.Error(1)
}

func (m *mockStatusRepository) Save(ctx context.Context, s *project.Status) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *mockStatusRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

type mockChecklistRepository struct {
	mock.Mock
}

func (m *mockChecklistRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*project.Checklist, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Checklist), args.Error(1)
}

func (m *mockChecklistRepository) FindByProject(ctx context.Context, tenantID, projectID uuid.UUID, activeOnly bool) ([]project.Checklist, error) {
	args := m.Called(ctx, tenantID, projectID, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]project.Checklist), args.Error(1)
}

func (m *mockChecklistRepository) MaxOrder(ctx context.Context, tenantID, projectID uuid.UUID) (int, error) {
	args := m.Called(ctx, tenantID, projectID)
	return args.Int(0), args.Error(1)
}

func (m *mockChecklistRepository) Save(ctx context.Context, c *project.Checklist) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockChecklistRepository) SaveBatch(ctx context.Context, items []project.Checklist) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}
