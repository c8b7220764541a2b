package certification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/audit"
	"github.com/projecta/backend/internal/domain/certification"
	"github.com/projecta/backend/internal/domain/project"
	"github.com/projecta/backend/internal/domain/shared"
	"github.com/projecta/backend/internal/infrastructure/auth"
	"github.com/projecta/backend/internal/infrastructure/notification"
	"github.com/projecta/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// slug allocation races with concurrent creates; retry on unique violations
const maxSlugAttempts = 3

// Notifier delivers workflow emails
type Notifier interface {
	NotifyStatusChange(ctx context.Context, n notification.StatusChangeNotice) error
	NotifyReviewerInvite(ctx context.Context, inv notification.ReviewerInvite) error
}

// TransitionRecorder counts workflow transitions
type TransitionRecorder interface {
	RecordTransition(ctx context.Context, aggregate, from, to string)
}

// OrganisationRepositories groups the stores the organisation service reads
// and writes
type OrganisationRepositories struct {
	Organisations certification.OrganisationRepository
	Projects      project.ProjectRepository
	Statuses      project.StatusRepository
	Checklists    project.ChecklistRepository
	Answers       certification.ChecklistAnswerRepository
	Reviewers     certification.ReviewerRepository
	History       audit.Repository
}

// OrganisationService runs the certifying organisation workflow
type OrganisationService struct {
	orgRepo          certification.OrganisationRepository
	projectRepo      project.ProjectRepository
	statusRepo       project.StatusRepository
	checklistRepo    project.ChecklistRepository
	answerRepo       certification.ChecklistAnswerRepository
	reviewerRepo     certification.ReviewerRepository
	historyRepo      audit.Repository
	sessions         auth.ReviewerSessionRegistry
	notifier         Notifier
	authz            *Authorizer
	metrics          TransitionRecorder
	reviewerValidity time.Duration
	now              func() time.Time
	logger           *zap.Logger
}

// OrganisationOption configures an OrganisationService
type OrganisationOption func(*OrganisationService)

// WithTransitionRecorder records every committed transition
func WithTransitionRecorder(r TransitionRecorder) OrganisationOption {
	return func(s *OrganisationService) { s.metrics = r }
}

// WithReviewerValidity sets how long invited reviewers keep access by default
func WithReviewerValidity(d time.Duration) OrganisationOption {
	return func(s *OrganisationService) {
		if d > 0 {
			s.reviewerValidity = d
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) OrganisationOption {
	return func(s *OrganisationService) {
		s.now = now
		s.authz.now = now
	}
}

// NewOrganisationService creates a new OrganisationService
func NewOrganisationService(
	repos OrganisationRepositories,
	sessions auth.ReviewerSessionRegistry,
	notifier Notifier,
	logger *zap.Logger,
	opts ...OrganisationOption,
) *OrganisationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &OrganisationService{
		orgRepo:          repos.Organisations,
		projectRepo:      repos.Projects,
		statusRepo:       repos.Statuses,
		checklistRepo:    repos.Checklists,
		answerRepo:       repos.Answers,
		reviewerRepo:     repos.Reviewers,
		historyRepo:      repos.History,
		sessions:         sessions,
		notifier:         notifier,
		authz:            NewAuthorizer(repos.Reviewers),
		reviewerValidity: 7 * 24 * time.Hour,
		now:              time.Now,
		logger:           logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// CRUD
// =============================================================================

// Create registers a pending organisation under a project. The creator
// becomes its first owner.
func (s *OrganisationService) Create(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID uuid.UUID, req CreateOrganisationRequest) (*OrganisationResponse, error) {
	proj, err := s.projectRepo.FindByID(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	if !proj.IsActive {
		return nil, shared.NewDomainError("INVALID_STATE", "Project is not active")
	}

	exists, err := s.orgRepo.ExistsByName(ctx, proj.ID, req.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check organisation name: %w", err)
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "An organisation with this name already exists in the project")
	}

	base, err := shared.Slugify(req.Name, shared.DefaultStopWords)
	if err != nil {
		return nil, err
	}

	var ownerIDs []uuid.UUID
	ownerEmails := req.OwnerEmails
	if !actor.IsReviewer() && actor.UserID != uuid.Nil {
		ownerIDs = append(ownerIDs, actor.UserID)
		if actor.Email != "" {
			ownerEmails = append([]string{actor.Email}, ownerEmails...)
		}
	}

	var org *certification.CertifyingOrganisation
	for attempt := 1; ; attempt++ {
		slug, err := shared.UniqueSlug(ctx, base,
			func(ctx context.Context, slug string) (bool, error) { return s.orgRepo.SlugExists(ctx, proj.ID, slug) },
			func(ctx context.Context, base string) (int64, error) { return s.orgRepo.CountSlugs(ctx, proj.ID, base) },
		)
		if err != nil {
			return nil, err
		}

		org, err = certification.NewCertifyingOrganisation(tenantID, proj.ID, req.Name, slug, req.Email, ownerIDs, ownerEmails)
		if err != nil {
			return nil, err
		}
		org.Address = req.Address
		org.Country = req.Country
		org.Phone = req.Phone
		org.CreatedBy = actorID(actor)

		err = s.orgRepo.Create(ctx, org)
		if err == nil {
			break
		}
		if !errors.Is(err, shared.ErrAlreadyExists) || attempt >= maxSlugAttempts {
			return nil, err
		}
	}

	s.logger.Info("Organisation created",
		zap.String("organisation_id", org.ID.String()),
		zap.String("project_id", proj.ID.String()),
		zap.String("slug", org.Slug),
	)
	resp := ToOrganisationResponse(org)
	return &resp, nil
}

// GetByID retrieves an organisation
func (s *OrganisationService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*OrganisationResponse, error) {
	org, err := s.orgRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToOrganisationResponse(org)
	return &resp, nil
}

// GetBySlug retrieves an organisation by its slug within a project
func (s *OrganisationService) GetBySlug(ctx context.Context, tenantID, projectID uuid.UUID, slug string) (*OrganisationResponse, error) {
	org, err := s.orgRepo.FindBySlug(ctx, tenantID, projectID, slug)
	if err != nil {
		return nil, err
	}
	resp := ToOrganisationResponse(org)
	return &resp, nil
}

// List lists a project's organisations
func (s *OrganisationService) List(ctx context.Context, tenantID, projectID uuid.UUID, f OrganisationListFilter) ([]OrganisationResponse, int64, error) {
	filter := toFilter(f)
	orgs, err := s.orgRepo.FindByProject(ctx, tenantID, projectID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orgRepo.CountByProject(ctx, tenantID, projectID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]OrganisationResponse, len(orgs))
	for i := range orgs {
		out[i] = ToOrganisationResponse(&orgs[i])
	}
	return out, total, nil
}

// Update changes contact data, owners or the owner message. The slug is kept.
func (s *OrganisationService) Update(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, req UpdateOrganisationRequest) (*OrganisationResponse, error) {
	org, proj, err := s.load(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.AuthorizeEdit(actor, proj, org); err != nil {
		return nil, err
	}

	name, email, address, country, phone := org.Name, org.Email, org.Address, org.Country, org.Phone
	if req.Name != nil && *req.Name != org.Name {
		exists, err := s.orgRepo.ExistsByName(ctx, org.ProjectID, *req.Name, &org.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "An organisation with this name already exists in the project")
		}
		name = *req.Name
	}
	if req.Email != nil {
		email = *req.Email
	}
	if req.Address != nil {
		address = *req.Address
	}
	if req.Country != nil {
		country = *req.Country
	}
	if req.Phone != nil {
		phone = *req.Phone
	}
	if req.OwnerEmails != nil {
		if err := org.SetOwners(org.OwnerIDs, req.OwnerEmails); err != nil {
			return nil, err
		}
	}
	if req.OwnerMessage != nil {
		org.SetOwnerMessage(*req.OwnerMessage)
	}
	if err := org.UpdateDetails(name, email, address, country, phone); err != nil {
		return nil, err
	}

	if err := s.orgRepo.Update(ctx, org); err != nil {
		return nil, err
	}
	resp := ToOrganisationResponse(org)
	return &resp, nil
}

// Deactivate hides an organisation. Only project managers may do this.
func (s *OrganisationService) Deactivate(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID) error {
	org, proj, err := s.load(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.authz.AuthorizeManage(actor, proj); err != nil {
		return err
	}
	if !org.IsActive {
		return shared.NewDomainError("INVALID_STATE", "Organisation is already inactive")
	}
	org.Deactivate()
	if err := s.orgRepo.Update(ctx, org); err != nil {
		return err
	}
	s.logger.Info("Organisation deactivated", zap.String("organisation_id", id.String()), zap.String("actor", actor.Name()))
	return nil
}

// History returns the organisation's workflow history, newest first
func (s *OrganisationService) History(ctx context.Context, tenantID, id uuid.UUID) ([]StatusChangeResponse, error) {
	if _, err := s.orgRepo.FindByID(ctx, tenantID, id); err != nil {
		return nil, err
	}
	changes, err := s.historyRepo.FindByAggregate(ctx, tenantID, certification.AggregateTypeOrganisation, id)
	if err != nil {
		return nil, err
	}
	return ToStatusChangeResponses(changes), nil
}

// =============================================================================
// Workflow
// =============================================================================

// UpdateStatus moves the organisation to one of its project's statuses.
//
// The organisation and its audit row are saved in one transaction. Owners are
// notified after commit; a failed notification is returned as
// NOTIFICATION_FAILED but the transition stays.
func (s *OrganisationService) UpdateStatus(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, req UpdateStatusRequest) (resp *UpdateStatusResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "organisation.update_status",
		attribute.String("organisation.id", id.String()),
		attribute.String("status.id", req.StatusID.String()),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	org, proj, err := s.load(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	status, err := s.statusRepo.FindByID(ctx, tenantID, req.StatusID)
	if err != nil {
		return nil, err
	}
	if status.ProjectID != org.ProjectID {
		return nil, shared.NewDomainError(shared.ErrNotFound.Code, "Status not found in this project")
	}
	if err := s.authz.AuthorizeReview(ctx, actor, proj, org); err != nil {
		return nil, err
	}

	if err := s.transition(ctx, actor, proj, org, status.State(), &status.ID, status.Name, req.Remarks); err != nil {
		return nil, err
	}
	return &UpdateStatusResponse{Success: true, Status: status.Name}, nil
}

// Approve approves the organisation and clears its owner message
func (s *OrganisationService) Approve(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID) (*OrganisationResponse, error) {
	return s.moveTo(ctx, tenantID, actor, id, shared.ApprovalApproved, "")
}

// Reject rejects the organisation. Unlike UpdateStatus, a reason is
// mandatory.
func (s *OrganisationService) Reject(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, remarks string) (*OrganisationResponse, error) {
	if strings.TrimSpace(remarks) == "" {
		return nil, certification.ErrRemarksRequired
	}
	return s.moveTo(ctx, tenantID, actor, id, shared.ApprovalRejected, remarks)
}

// Reopen moves a rejected organisation back to pending and resets remarks
func (s *OrganisationService) Reopen(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID) (*OrganisationResponse, error) {
	org, err := s.orgRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if org.WorkflowState != shared.ApprovalRejected {
		return nil, shared.NewDomainError("INVALID_STATE", "Only rejected organisations can be reopened")
	}
	return s.moveTo(ctx, tenantID, actor, id, shared.ApprovalPending, "")
}

func (s *OrganisationService) moveTo(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, target shared.ApprovalState, remarks string) (*OrganisationResponse, error) {
	org, proj, err := s.load(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.AuthorizeReview(ctx, actor, proj, org); err != nil {
		return nil, err
	}

	statusID, statusName, err := s.statusFor(ctx, tenantID, proj.ID, target)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, actor, proj, org, target, statusID, statusName, remarks); err != nil {
		return nil, err
	}
	resp := ToOrganisationResponse(org)
	return &resp, nil
}

// statusFor picks the first project status that maps onto target. Projects
// without one still transition, labelled with the state name.
func (s *OrganisationService) statusFor(ctx context.Context, tenantID, projectID uuid.UUID, target shared.ApprovalState) (*uuid.UUID, string, error) {
	statuses, err := s.statusRepo.FindByProject(ctx, tenantID, projectID)
	if err != nil {
		return nil, "", err
	}
	for i := range statuses {
		if statuses[i].State() == target {
			id := statuses[i].ID
			return &id, statuses[i].Name, nil
		}
	}
	return nil, target.Label(), nil
}

func (s *OrganisationService) transition(
	ctx context.Context,
	actor shared.Actor,
	proj *project.Project,
	org *certification.CertifyingOrganisation,
	target shared.ApprovalState,
	statusID *uuid.UUID,
	statusName string,
	remarks string,
) error {
	from := org.WorkflowState
	if err := org.TransitionTo(actor.Name(), target, statusID, remarks); err != nil {
		return err
	}
	ev := shared.LastApprovalChange(org.GetDomainEvents())
	if ev == nil {
		return fmt.Errorf("transition of organisation %s raised no event", org.ID)
	}
	change := audit.FromEvent(ev, statusName)

	if err := s.orgRepo.SaveTransition(ctx, org, change); err != nil {
		s.logger.Error("Failed to save organisation transition",
			zap.String("organisation_id", org.ID.String()),
			zap.Error(err),
		)
		return err
	}
	org.ClearDomainEvents()

	if s.metrics != nil {
		s.metrics.RecordTransition(ctx, "organisation", string(from), string(target))
	}
	s.logger.Info("Organisation status updated",
		zap.String("organisation_id", org.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.String("status", statusName),
		zap.String("actor", actor.Name()),
	)

	err := s.notifier.NotifyStatusChange(ctx, notification.StatusChangeNotice{
		Recipients:  ownerRecipients(org),
		Kind:        notification.KindOrganisation,
		ProjectName: proj.Name,
		SubjectName: org.Name,
		State:       target,
		StatusName:  statusName,
		Remarks:     org.Remarks,
		Actor:       actor.Name(),
	})
	if err != nil {
		s.logger.Error("Failed to notify organisation owners",
			zap.String("organisation_id", org.ID.String()),
			zap.Error(err),
		)
		return notificationFailed(err)
	}
	return nil
}

func (s *OrganisationService) load(ctx context.Context, tenantID, id uuid.UUID) (*certification.CertifyingOrganisation, *project.Project, error) {
	org, err := s.orgRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, nil, err
	}
	proj, err := s.projectRepo.FindByID(ctx, tenantID, org.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return org, proj, nil
}

// ownerRecipients falls back to the organisation address when no owner
// email is on file
func ownerRecipients(org *certification.CertifyingOrganisation) []string {
	if len(org.OwnerEmails) > 0 {
		return org.OwnerEmails
	}
	return []string{org.Email}
}
