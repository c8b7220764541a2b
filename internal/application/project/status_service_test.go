package project

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/project"
	"github.com/projecta/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStatusService_Create(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	owner := uuid.New()
	manager := uuid.New()

	setup := func(t *testing.T) (*StatusService, *mockStatusRepository, *project.Project) {
		projects := new(mockProjectRepository)
		statuses := new(mockStatusRepository)
		p := newTestProject(t, tenantID, owner)
		p.CertificationManagers = []uuid.UUID{manager}
		projects.On("FindByID", ctx, tenantID, p.ID).Return(p, nil)
		return NewStatusService(projects, statuses, nil), statuses, p
	}

	t.Run("appends after last", func(t *testing.T) {
		svc, statuses, p := setup(t)
		statuses.On("ExistsByName", ctx, tenantID, p.ID, "Needs work").Return(false, nil)
		statuses.On("MaxOrder", ctx, tenantID, p.ID).Return(3, nil)
		statuses.On("Save", ctx, mock.AnythingOfType("*project.Status")).Return(nil)

		resp, err := svc.Create(ctx, tenantID, shared.Actor{UserID: manager}, p.ID, CreateStatusRequest{Name: "Needs work"})
		require.NoError(t, err)
		assert.Equal(t, 4, resp.Order)
		assert.Equal(t, string(shared.ApprovalPending), resp.State)
	})

	t.Run("approved label maps to approved state", func(t *testing.T) {
		svc, statuses, p := setup(t)
		statuses.On("ExistsByName", ctx, tenantID, p.ID, "Approved").Return(false, nil)
		statuses.On("MaxOrder", ctx, tenantID, p.ID).Return(0, nil)
		statuses.On("Save", ctx, mock.Anything).Return(nil)

		resp, err := svc.Create(ctx, tenantID, shared.Actor{UserID: owner}, p.ID, CreateStatusRequest{Name: "Approved"})
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Order)
		assert.Equal(t, string(shared.ApprovalApproved), resp.State)
	})

	t.Run("duplicate name", func(t *testing.T) {
		svc, statuses, p := setup(t)
		statuses.On("ExistsByName", ctx, tenantID, p.ID, "Pending").Return(true, nil)

		_, err := svc.Create(ctx, tenantID, shared.Actor{UserID: owner}, p.ID, CreateStatusRequest{Name: "Pending"})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		statuses.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("sponsorship manager forbidden", func(t *testing.T) {
		svc, _, p := setup(t)
		other := uuid.New()
		p.SponsorshipManagers = []uuid.UUID{other}

		_, err := svc.Create(ctx, tenantID, shared.Actor{UserID: other}, p.ID, CreateStatusRequest{Name: "X"})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestStatusService_Delete(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	owner := uuid.New()
	projects := new(mockProjectRepository)
	statuses := new(mockStatusRepository)
	p := newTestProject(t, tenantID, owner)
	projects.On("FindByID", ctx, tenantID, p.ID).Return(p, nil)
	svc := NewStatusService(projects, statuses, nil)

	own, err := project.NewStatus(tenantID, p.ID, "Pending", 1)
	require.NoError(t, err)
	foreign, err := project.NewStatus(tenantID, uuid.New(), "Pending", 1)
	require.NoError(t, err)
	statuses.On("FindByID", ctx, tenantID, own.ID).Return(own, nil)
	statuses.On("FindByID", ctx, tenantID, foreign.ID).Return(foreign, nil)
	statuses.On("Delete", ctx, tenantID, own.ID).Return(nil)

	require.NoError(t, svc.Delete(ctx, tenantID, shared.Actor{UserID: owner}, p.ID, own.ID))
	assert.ErrorIs(t, svc.Delete(ctx, tenantID, shared.Actor{UserID: owner}, p.ID, foreign.ID), shared.ErrNotFound)
	statuses.AssertNumberOfCalls(t, "Delete", 1)
}

func TestStatusService_List(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	projects := new(mockProjectRepository)
	statuses := new(mockStatusRepository)
	p := newTestProject(t, tenantID, uuid.New())
	projects.On("FindByID", ctx, tenantID, p.ID).Return(p, nil)

	a, _ := project.NewStatus(tenantID, p.ID, "Pending", 1)
	b, _ := project.NewStatus(tenantID, p.ID, "Rejected", 2)
	statuses.On("FindByProject", ctx, tenantID, p.ID).Return([]project.Status{*a, *b}, nil)

	out, err := NewStatusService(projects, statuses, nil).List(ctx, tenantID, p.ID)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, string(shared.ApprovalRejected), out[1].State)
}
