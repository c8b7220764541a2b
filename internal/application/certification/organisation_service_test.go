package certification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/audit"
	"github.com/projecta/backend/internal/domain/certification"
	"github.com/projecta/backend/internal/domain/project"
	"github.com/projecta/backend/internal/domain/shared"
	"github.com/projecta/backend/internal/infrastructure/auth"
	"github.com/projecta/backend/internal/infrastructure/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type orgFixture struct {
	tenantID  uuid.UUID
	owner     uuid.UUID
	orgOwner  uuid.UUID
	project   *project.Project
	org       *certification.CertifyingOrganisation
	orgs      *mockOrganisationRepository
	projects  *mockProjectRepository
	statuses  *mockStatusRepository
	lists     *mockChecklistRepository
	answers   *mockAnswerRepository
	reviewers *mockReviewerRepository
	history   *mockHistoryRepository
	sessions  *auth.InMemoryReviewerSessionRegistry
	outbox    *notification.MemoryOutbox
	svc       *OrganisationService
}

func newOrgFixture(t *testing.T) *orgFixture {
	t.Helper()
	f := &orgFixture{
		tenantID:  uuid.New(),
		owner:     uuid.New(),
		orgOwner:  uuid.New(),
		orgs:      new(mockOrganisationRepository),
		projects:  new(mockProjectRepository),
		statuses:  new(mockStatusRepository),
		lists:     new(mockChecklistRepository),
		answers:   new(mockAnswerRepository),
		reviewers: new(mockReviewerRepository),
		history:   new(mockHistoryRepository),
		sessions:  auth.NewInMemoryReviewerSessionRegistry(),
		outbox:    notification.NewMemoryOutbox(),
	}

	p, err := project.NewProject(f.tenantID, f.owner, "QGIS Project", "qgis-project")
	require.NoError(t, err)
	f.project = p

	org, err := certification.NewCertifyingOrganisation(f.tenantID, p.ID, "Kartoza", "kartoza", "info@example.com",
		[]uuid.UUID{f.orgOwner}, []string{"owner@example.com"})
	require.NoError(t, err)
	org.ClearDomainEvents()
	f.org = org

	f.orgs.On("FindByID", mock.Anything, f.tenantID, org.ID).Return(org, nil).Maybe()
	f.projects.On("FindByID", mock.Anything, f.tenantID, p.ID).Return(p, nil).Maybe()

	f.svc = NewOrganisationService(OrganisationRepositories{
		Organisations: f.orgs,
		Projects:      f.projects,
		Statuses:      f.statuses,
		Checklists:    f.lists,
		Answers:       f.answers,
		Reviewers:     f.reviewers,
		History:       f.history,
	}, f.sessions, notification.NewDispatcher(f.outbox, zap.NewNop(), nil), zap.NewNop())
	return f
}

func (f *orgFixture) status(t *testing.T, name string, order int) *project.Status {
	t.Helper()
	s, err := project.NewStatus(f.tenantID, f.project.ID, name, order)
	require.NoError(t, err)
	f.statuses.On("FindByID", mock.Anything, f.tenantID, s.ID).Return(s, nil).Maybe()
	return s
}

func (f *orgFixture) projectOwner() shared.Actor {
	return shared.Actor{UserID: f.owner, Username: "project-owner"}
}

func (f *orgFixture) expectSave(err error) {
	f.orgs.On("SaveTransition", mock.Anything, f.org, mock.AnythingOfType("*audit.StatusChange")).Return(err).Once()
}

func TestOrganisationService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("approve sends one approval email and clears the owner message", func(t *testing.T) {
		f := newOrgFixture(t)
		f.org.OwnerMessage = "please upload your logo"
		approved := f.status(t, "Approved", 2)

		var saved *audit.StatusChange
		f.orgs.On("SaveTransition", mock.Anything, f.org, mock.AnythingOfType("*audit.StatusChange")).
			Run(func(args mock.Arguments) { saved = args.Get(2).(*audit.StatusChange) }).
			Return(nil).Once()

		resp, err := f.svc.UpdateStatus(ctx, f.tenantID, f.projectOwner(), f.org.ID, UpdateStatusRequest{StatusID: approved.ID})
		require.NoError(t, err)
		assert.Equal(t, &UpdateStatusResponse{Success: true, Status: "Approved"}, resp)

		assert.Equal(t, shared.ApprovalApproved, f.org.WorkflowState)
		assert.Empty(t, f.org.OwnerMessage)
		assert.Equal(t, &approved.ID, f.org.StatusID)

		require.NotNil(t, saved)
		assert.Equal(t, shared.ApprovalPending, saved.FromState)
		assert.Equal(t, shared.ApprovalApproved, saved.ToState)
		assert.Equal(t, "Approved", saved.StatusName)
		assert.Equal(t, certification.AggregateTypeOrganisation, saved.AggregateType)
		assert.Equal(t, "Status updated by project-owner", saved.ChangeReason)

		msgs := f.outbox.Messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, []string{"owner@example.com"}, msgs[0].To)
		assert.Contains(t, msgs[0].Body, "Your organisation is approved")
		f.orgs.AssertExpectations(t)
	})

	t.Run("reject records remarks", func(t *testing.T) {
		f := newOrgFixture(t)
		rejected := f.status(t, "Rejected", 3)
		f.expectSave(nil)

		resp, err := f.svc.UpdateStatus(ctx, f.tenantID, f.projectOwner(), f.org.ID,
			UpdateStatusRequest{StatusID: rejected.ID, Remarks: "missing trainer CVs"})
		require.NoError(t, err)
		assert.Equal(t, "Rejected", resp.Status)
		assert.Equal(t, "missing trainer CVs", f.org.Remarks)

		msgs := f.outbox.Messages()
		require.Len(t, msgs, 1)
		assert.Contains(t, msgs[0].Body, "Remarks: missing trainer CVs")
	})

	t.Run("rejected status without remarks is accepted", func(t *testing.T) {
		f := newOrgFixture(t)
		rejected := f.status(t, "Rejected", 3)
		f.expectSave(nil)

		resp, err := f.svc.UpdateStatus(ctx, f.tenantID, f.projectOwner(), f.org.ID, UpdateStatusRequest{StatusID: rejected.ID})
		require.NoError(t, err)
		assert.Equal(t, "Rejected", resp.Status)
		assert.Equal(t, shared.ApprovalRejected, f.org.WorkflowState)
		assert.Empty(t, f.org.Remarks)

		msgs := f.outbox.Messages()
		require.Len(t, msgs, 1)
		assert.NotContains(t, msgs[0].Body, "Remarks:")
	})

	t.Run("approving twice keeps the organisation approved", func(t *testing.T) {
		f := newOrgFixture(t)
		approved := f.status(t, "Approved", 2)
		f.orgs.On("SaveTransition", mock.Anything, f.org, mock.AnythingOfType("*audit.StatusChange")).Return(nil).Twice()

		for range 2 {
			resp, err := f.svc.UpdateStatus(ctx, f.tenantID, f.projectOwner(), f.org.ID, UpdateStatusRequest{StatusID: approved.ID})
			require.NoError(t, err)
			assert.Equal(t, "Approved", resp.Status)
		}

		assert.Equal(t, shared.ApprovalApproved, f.org.WorkflowState)
		assert.Equal(t, &approved.ID, f.org.StatusID)
		msgs := f.outbox.Messages()
		require.Len(t, msgs, 2)
		for _, m := range msgs {
			assert.Equal(t, []string{"owner@example.com"}, m.To)
			assert.Contains(t, m.Body, "Your organisation is approved")
		}
		f.orgs.AssertExpectations(t)
	})

	t.Run("approved organisation can be rejected directly", func(t *testing.T) {
		f := newOrgFixture(t)
		f.org.WorkflowState = shared.ApprovalApproved
		rejected := f.status(t, "Rejected", 3)
		f.expectSave(nil)

		_, err := f.svc.UpdateStatus(ctx, f.tenantID, f.projectOwner(), f.org.ID,
			UpdateStatusRequest{StatusID: rejected.ID, Remarks: "licence expired"})
		require.NoError(t, err)
		assert.Equal(t, shared.ApprovalRejected, f.org.WorkflowState)
	})

	t.Run("status of another project is not found", func(t *testing.T) {
		f := newOrgFixture(t)
		foreign, err := project.NewStatus(f.tenantID, uuid.New(), "Approved", 1)
		require.NoError(t, err)
		f.statuses.On("FindByID", mock.Anything, f.tenantID, foreign.ID).Return(foreign, nil)

		_, err = f.svc.UpdateStatus(ctx, f.tenantID, f.projectOwner(), f.org.ID, UpdateStatusRequest{StatusID: foreign.ID})
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Equal(t, shared.ApprovalPending, f.org.WorkflowState)
	})

	t.Run("outsiders are forbidden", func(t *testing.T) {
		f := newOrgFixture(t)
		approved := f.status(t, "Approved", 2)

		_, err := f.svc.UpdateStatus(ctx, f.tenantID, shared.Actor{UserID: uuid.New()}, f.org.ID, UpdateStatusRequest{StatusID: approved.ID})
		assert.ErrorIs(t, err, shared.ErrForbidden)
		assert.Empty(t, f.outbox.Messages())
	})

	t.Run("organisation owners cannot change their own status", func(t *testing.T) {
		f := newOrgFixture(t)
		approved := f.status(t, "Approved", 2)

		_, err := f.svc.UpdateStatus(ctx, f.tenantID, shared.Actor{UserID: f.orgOwner}, f.org.ID, UpdateStatusRequest{StatusID: approved.ID})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("certification managers and staff may review", func(t *testing.T) {
		f := newOrgFixture(t)
		manager := uuid.New()
		require.NoError(t, f.project.SetManagers(project.ManagerRoleCertification, []uuid.UUID{manager}))
		review := f.status(t, "In review", 1)
		f.orgs.On("SaveTransition", mock.Anything, f.org, mock.Anything).Return(nil).Twice()

		_, err := f.svc.UpdateStatus(ctx, f.tenantID, shared.Actor{UserID: manager}, f.org.ID, UpdateStatusRequest{StatusID: review.ID})
		require.NoError(t, err)
		_, err = f.svc.UpdateStatus(ctx, f.tenantID, shared.Actor{UserID: uuid.New(), IsStaff: true}, f.org.ID, UpdateStatusRequest{StatusID: review.ID})
		require.NoError(t, err)
		assert.Len(t, f.outbox.Messages(), 2)
	})

	t.Run("external reviewer before expiry", func(t *testing.T) {
		f := newOrgFixture(t)
		approved := f.status(t, "Approved", 2)
		reviewer, err := certification.NewExternalReviewer(f.tenantID, f.org.ID, "reviewer@example.org", time.Now().Add(time.Hour), "hash")
		require.NoError(t, err)
		f.reviewers.On("FindByID", mock.Anything, f.tenantID, reviewer.ID).Return(reviewer, nil)
		f.expectSave(nil)

		actor := shared.Actor{Email: reviewer.Email, ReviewerID: &reviewer.ID}
		_, err = f.svc.UpdateStatus(ctx, f.tenantID, actor, f.org.ID, UpdateStatusRequest{StatusID: approved.ID})
		require.NoError(t, err)
		assert.Equal(t, shared.ApprovalApproved, f.org.WorkflowState)
	})

	t.Run("external reviewer after expiry is forbidden", func(t *testing.T) {
		f := newOrgFixture(t)
		approved := f.status(t, "Approved", 2)
		reviewer, err := certification.NewExternalReviewer(f.tenantID, f.org.ID, "reviewer@example.org", time.Now().Add(time.Hour), "hash")
		require.NoError(t, err)
		reviewer.SessionExpiry = time.Now().Add(-time.Minute)
		f.reviewers.On("FindByID", mock.Anything, f.tenantID, reviewer.ID).Return(reviewer, nil)

		actor := shared.Actor{Email: reviewer.Email, ReviewerID: &reviewer.ID}
		_, err = f.svc.UpdateStatus(ctx, f.tenantID, actor, f.org.ID, UpdateStatusRequest{StatusID: approved.ID})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("reviewer of another organisation is forbidden", func(t *testing.T) {
		f := newOrgFixture(t)
		approved := f.status(t, "Approved", 2)
		reviewer, err := certification.NewExternalReviewer(f.tenantID, uuid.New(), "reviewer@example.org", time.Now().Add(time.Hour), "hash")
		require.NoError(t, err)
		f.reviewers.On("FindByID", mock.Anything, f.tenantID, reviewer.ID).Return(reviewer, nil)

		actor := shared.Actor{Email: reviewer.Email, ReviewerID: &reviewer.ID}
		_, err = f.svc.UpdateStatus(ctx, f.tenantID, actor, f.org.ID, UpdateStatusRequest{StatusID: approved.ID})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("notification failure surfaces after commit", func(t *testing.T) {
		f := newOrgFixture(t)
		approved := f.status(t, "Approved", 2)
		f.expectSave(nil)
		f.outbox.FailWith(errors.New("smtp: connection refused"))

		_, err := f.svc.UpdateStatus(ctx, f.tenantID, f.projectOwner(), f.org.ID, UpdateStatusRequest{StatusID: approved.ID})
		require.Error(t, err)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, CodeNotificationFailed, de.Code)
		assert.Equal(t, shared.ApprovalApproved, f.org.WorkflowState)
		f.orgs.AssertExpectations(t)
	})

	t.Run("save failure sends nothing", func(t *testing.T) {
		f := newOrgFixture(t)
		approved := f.status(t, "Approved", 2)
		f.expectSave(shared.ErrConcurrencyConflict)

		_, err := f.svc.UpdateStatus(ctx, f.tenantID, f.projectOwner(), f.org.ID, UpdateStatusRequest{StatusID: approved.ID})
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Empty(t, f.outbox.Messages())
	})
}

func TestOrganisationService_Reopen(t *testing.T) {
	ctx := context.Background()

	t.Run("rejected back to pending resets remarks", func(t *testing.T) {
		f := newOrgFixture(t)
		f.org.WorkflowState = shared.ApprovalRejected
		f.org.Remarks = "missing documents"
		f.statuses.On("FindByProject", mock.Anything, f.tenantID, f.project.ID).Return([]project.Status{}, nil)
		f.expectSave(nil)

		resp, err := f.svc.Reopen(ctx, f.tenantID, f.projectOwner(), f.org.ID)
		require.NoError(t, err)
		assert.Equal(t, string(shared.ApprovalPending), resp.WorkflowState)
		assert.Empty(t, f.org.Remarks)
		assert.Nil(t, f.org.StatusID)
		require.Len(t, f.outbox.Messages(), 1)
	})

	t.Run("only rejected organisations reopen", func(t *testing.T) {
		f := newOrgFixture(t)

		_, err := f.svc.Reopen(ctx, f.tenantID, f.projectOwner(), f.org.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestOrganisationService_Reject(t *testing.T) {
	ctx := context.Background()

	t.Run("requires remarks", func(t *testing.T) {
		f := newOrgFixture(t)

		_, err := f.svc.Reject(ctx, f.tenantID, f.projectOwner(), f.org.ID, "  ")
		assert.ErrorIs(t, err, certification.ErrRemarksRequired)
		f.orgs.AssertNotCalled(t, "SaveTransition", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, f.outbox.Messages())
	})

	t.Run("records remarks", func(t *testing.T) {
		f := newOrgFixture(t)
		f.statuses.On("FindByProject", mock.Anything, f.tenantID, f.project.ID).Return([]project.Status{}, nil)
		f.expectSave(nil)

		resp, err := f.svc.Reject(ctx, f.tenantID, f.projectOwner(), f.org.ID, "no trainers listed")
		require.NoError(t, err)
		assert.Equal(t, string(shared.ApprovalRejected), resp.WorkflowState)
		assert.Equal(t, "no trainers listed", f.org.Remarks)
	})
}

func TestOrganisationService_ApproveUsesProjectStatus(t *testing.T) {
	f := newOrgFixture(t)
	pending := f.status(t, "Pending", 1)
	approved := f.status(t, "Approved", 2)
	f.statuses.On("FindByProject", mock.Anything, f.tenantID, f.project.ID).Return([]project.Status{*pending, *approved}, nil)
	f.expectSave(nil)

	_, err := f.svc.Approve(context.Background(), f.tenantID, f.projectOwner(), f.org.ID)
	require.NoError(t, err)
	require.NotNil(t, f.org.StatusID)
	assert.Equal(t, approved.ID, *f.org.StatusID)
}

func TestOrganisationService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("colliding slug gets a counter", func(t *testing.T) {
		f := newOrgFixture(t)
		f.orgs.On("ExistsByName", mock.Anything, f.project.ID, "Kartoza Ltd", (*uuid.UUID)(nil)).Return(false, nil)
		f.orgs.On("SlugExists", mock.Anything, f.project.ID, "kartoza-ltd").Return(true, nil)
		f.orgs.On("CountSlugs", mock.Anything, f.project.ID, "kartoza-ltd").Return(int64(1), nil)
		f.orgs.On("SlugExists", mock.Anything, f.project.ID, "kartoza-ltd-2").Return(false, nil)
		f.orgs.On("Create", mock.Anything, mock.AnythingOfType("*certification.CertifyingOrganisation")).Return(nil)

		actor := shared.Actor{UserID: uuid.New(), Email: "jane@example.com"}
		resp, err := f.svc.Create(ctx, f.tenantID, actor, f.project.ID, CreateOrganisationRequest{
			Name:  "Kartoza Ltd",
			Email: "info@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "kartoza-ltd-2", resp.Slug)
		assert.Equal(t, string(shared.ApprovalPending), resp.WorkflowState)
		assert.Equal(t, []uuid.UUID{actor.UserID}, resp.OwnerIDs)
		assert.Equal(t, []string{"jane@example.com"}, resp.OwnerEmails)
	})

	t.Run("retries when a concurrent insert took the slug", func(t *testing.T) {
		f := newOrgFixture(t)
		f.orgs.On("ExistsByName", mock.Anything, f.project.ID, "Kartoza Ltd", (*uuid.UUID)(nil)).Return(false, nil)
		f.orgs.On("SlugExists", mock.Anything, f.project.ID, "kartoza-ltd").Return(false, nil).Once()
		f.orgs.On("Create", mock.Anything, mock.Anything).Return(shared.ErrAlreadyExists).Once()
		f.orgs.On("SlugExists", mock.Anything, f.project.ID, "kartoza-ltd").Return(true, nil).Once()
		f.orgs.On("CountSlugs", mock.Anything, f.project.ID, "kartoza-ltd").Return(int64(1), nil)
		f.orgs.On("SlugExists", mock.Anything, f.project.ID, "kartoza-ltd-2").Return(false, nil)
		f.orgs.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

		resp, err := f.svc.Create(ctx, f.tenantID, f.projectOwner(), f.project.ID, CreateOrganisationRequest{Name: "Kartoza Ltd", Email: "info@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "kartoza-ltd-2", resp.Slug)
	})

	t.Run("duplicate name", func(t *testing.T) {
		f := newOrgFixture(t)
		f.orgs.On("ExistsByName", mock.Anything, f.project.ID, "Kartoza", (*uuid.UUID)(nil)).Return(true, nil)

		_, err := f.svc.Create(ctx, f.tenantID, f.projectOwner(), f.project.ID, CreateOrganisationRequest{Name: "Kartoza", Email: "info@example.com"})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("name made only of stop words", func(t *testing.T) {
		f := newOrgFixture(t)
		f.orgs.On("ExistsByName", mock.Anything, f.project.ID, "The And Of", (*uuid.UUID)(nil)).Return(false, nil)

		_, err := f.svc.Create(ctx, f.tenantID, f.projectOwner(), f.project.ID, CreateOrganisationRequest{Name: "The And Of", Email: "info@example.com"})
		assert.ErrorIs(t, err, shared.ErrEmptySlug)
	})

	t.Run("inactive project", func(t *testing.T) {
		f := newOrgFixture(t)
		require.NoError(t, f.project.Deactivate())

		_, err := f.svc.Create(ctx, f.tenantID, f.projectOwner(), f.project.ID, CreateOrganisationRequest{Name: "Kartoza", Email: "info@example.com"})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestOrganisationService_Update(t *testing.T) {
	f := newOrgFixture(t)
	f.orgs.On("ExistsByName", mock.Anything, f.project.ID, "Kartoza SA", &f.org.ID).Return(false, nil).Maybe()
	f.orgs.On("Update", mock.Anything, f.org).Return(nil)
	version := f.org.GetVersion()

	name := "Kartoza SA"
	msg := "Please attach your trainer list"
	resp, err := f.svc.Update(context.Background(), f.tenantID, shared.Actor{UserID: f.orgOwner}, f.org.ID, UpdateOrganisationRequest{
		Name:         &name,
		OwnerMessage: &msg,
	})
	require.NoError(t, err)
	assert.Equal(t, "Kartoza SA", resp.Name)
	assert.Equal(t, "kartoza", resp.Slug)
	assert.Equal(t, msg, f.org.OwnerMessage)
	assert.Equal(t, version+1, f.org.GetVersion())
}
