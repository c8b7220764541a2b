// Package sponsorship runs the sponsor approval workflow and keeps sponsorship
// periods in step with their billing subscriptions.
package sponsorship

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/audit"
	"github.com/projecta/backend/internal/domain/project"
	"github.com/projecta/backend/internal/domain/shared"
	"github.com/projecta/backend/internal/domain/sponsorship"
	"github.com/projecta/backend/internal/infrastructure/billing"
	"github.com/projecta/backend/internal/infrastructure/notification"
	"go.uber.org/zap"
)

const (
	maxSlugAttempts = 3

	tableSponsors = "sponsors"
	tableLevels   = "sponsorship_levels"
	tablePeriods  = "sponsorship_periods"
)

// Error codes surfaced by the sponsorship service
const (
	CodeNotificationFailed = "NOTIFICATION_FAILED"
	CodeBillingDisabled    = "BILLING_DISABLED"
	CodeBillingFailed      = "BILLING_FAILED"
)

// Notifier delivers workflow emails
type Notifier interface {
	NotifyStatusChange(ctx context.Context, n notification.StatusChangeNotice) error
}

// TransitionRecorder counts workflow transitions
type TransitionRecorder interface {
	RecordTransition(ctx context.Context, aggregate, from, to string)
}

// Service manages sponsors, levels and periods of a project
type Service struct {
	projectRepo project.ProjectRepository
	sponsorRepo sponsorship.SponsorRepository
	periodRepo  sponsorship.PeriodRepository
	gateway     billing.SubscriptionGateway
	notifier    Notifier
	metrics     TransitionRecorder
	now         func() time.Time
	logger      *zap.Logger
}

// Option configures a Service
type Option func(*Service)

// WithGateway enables subscription sync and cancel
func WithGateway(g billing.SubscriptionGateway) Option {
	return func(s *Service) { s.gateway = g }
}

// WithMetrics records transitions
func WithMetrics(m TransitionRecorder) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a sponsorship service. Without WithGateway, subscription
// operations fail with BILLING_DISABLED.
func NewService(
	projectRepo project.ProjectRepository,
	sponsorRepo sponsorship.SponsorRepository,
	periodRepo sponsorship.PeriodRepository,
	notifier Notifier,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		projectRepo: projectRepo,
		sponsorRepo: sponsorRepo,
		periodRepo:  periodRepo,
		notifier:    notifier,
		now:         time.Now,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// canManage admits staff, the project owner and sponsorship managers
func canManage(actor shared.Actor, p *project.Project) bool {
	if actor.IsReviewer() {
		return false
	}
	return actor.IsStaff || p.IsOwner(actor.UserID) || p.IsManager(project.ManagerRoleSponsorship, actor.UserID)
}

func (s *Service) managedProject(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID uuid.UUID) (*project.Project, error) {
	p, err := s.projectRepo.FindByID(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, p) {
		return nil, shared.ErrForbidden
	}
	return p, nil
}

// uniqueSlug allocates a per-project slug of table and calls create until it
// stops failing with ALREADY_EXISTS
func (s *Service) uniqueSlug(ctx context.Context, table string, projectID uuid.UUID, name string, create func(slug string) error) error {
	base, err := shared.Slugify(name, shared.DefaultStopWords)
	if err != nil {
		return err
	}
	exists := func(ctx context.Context, slug string) (bool, error) {
		return s.sponsorRepo.SlugExists(ctx, table, projectID, slug)
	}
	count := func(ctx context.Context, base string) (int64, error) {
		return s.sponsorRepo.CountSlugs(ctx, table, projectID, base)
	}
	for attempt := 1; ; attempt++ {
		slug, err := shared.UniqueSlug(ctx, base, exists, count)
		if err != nil {
			return err
		}
		err = create(slug)
		if err == nil || !errors.Is(err, shared.ErrAlreadyExists) || attempt >= maxSlugAttempts {
			return err
		}
	}
}

// =============================================================================
// Sponsors
// =============================================================================

// CreateSponsor registers a pending sponsor. Any signed-in user may apply.
func (s *Service) CreateSponsor(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID uuid.UUID, req CreateSponsorRequest) (*SponsorResponse, error) {
	if actor.IsReviewer() || actor.UserID == uuid.Nil {
		return nil, shared.ErrUnauthorized
	}
	p, err := s.projectRepo.FindByID(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, shared.NewDomainError("INVALID_STATE", "Project is inactive")
	}

	var sponsor *sponsorship.Sponsor
	err = s.uniqueSlug(ctx, tableSponsors, p.ID, req.Name, func(slug string) error {
		var err error
		sponsor, err = sponsorship.NewSponsor(tenantID, p.ID, req.Name, slug, req.Email, req.URL, req.ContactPerson)
		if err != nil {
			return err
		}
		sponsor.Agreement = req.Agreement
		sponsor.Logo = req.Logo
		author := actor.UserID
		sponsor.AuthorID = &author
		return s.sponsorRepo.Create(ctx, sponsor)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Sponsor created",
		zap.String("sponsor_id", sponsor.ID.String()),
		zap.String("project_id", p.ID.String()),
		zap.String("slug", sponsor.Slug),
	)
	resp := ToSponsorResponse(sponsor)
	return &resp, nil
}

// ListSponsors lists a project's sponsors. Only managers see unapproved ones.
func (s *Service) ListSponsors(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID uuid.UUID) ([]SponsorResponse, error) {
	p, err := s.projectRepo.FindByID(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	sponsors, err := s.sponsorRepo.FindByProject(ctx, tenantID, projectID, !canManage(actor, p))
	if err != nil {
		return nil, err
	}
	out := make([]SponsorResponse, len(sponsors))
	for i := range sponsors {
		out[i] = ToSponsorResponse(&sponsors[i])
	}
	return out, nil
}

// ApproveSponsor approves a sponsor
func (s *Service) ApproveSponsor(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, req TransitionRequest) (*SponsorResponse, error) {
	return s.moveSponsor(ctx, tenantID, actor, id, shared.ApprovalApproved, req.Remarks)
}

// RejectSponsor rejects a sponsor. Remarks are required.
func (s *Service) RejectSponsor(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, req TransitionRequest) (*SponsorResponse, error) {
	return s.moveSponsor(ctx, tenantID, actor, id, shared.ApprovalRejected, req.Remarks)
}

func (s *Service) moveSponsor(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, target shared.ApprovalState, remarks string) (*SponsorResponse, error) {
	sponsor, err := s.sponsorRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	p, err := s.managedProject(ctx, tenantID, actor, sponsor.ProjectID)
	if err != nil {
		return nil, err
	}

	from := sponsor.WorkflowState
	if err := sponsor.TransitionTo(actor.Name(), target, remarks); err != nil {
		return nil, err
	}
	change, err := auditRow(sponsor.GetDomainEvents(), target)
	if err != nil {
		return nil, err
	}
	if err := s.sponsorRepo.SaveTransition(ctx, sponsor, change); err != nil {
		s.logger.Error("Failed to save sponsor transition",
			zap.String("sponsor_id", sponsor.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	sponsor.ClearDomainEvents()
	s.recordTransition(ctx, sponsorship.AggregateTypeSponsor, from, target)

	if err := s.notify(ctx, actor, p, sponsor, target, sponsor.Remarks); err != nil {
		return nil, err
	}
	resp := ToSponsorResponse(sponsor)
	return &resp, nil
}

// =============================================================================
// Levels
// =============================================================================

// CreateLevel adds a sponsorship level to the project
func (s *Service) CreateLevel(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID uuid.UUID, req CreateLevelRequest) (*LevelResponse, error) {
	p, err := s.managedProject(ctx, tenantID, actor, projectID)
	if err != nil {
		return nil, err
	}

	var level *sponsorship.SponsorshipLevel
	err = s.uniqueSlug(ctx, tableLevels, p.ID, req.Name, func(slug string) error {
		var err error
		level, err = sponsorship.NewSponsorshipLevel(tenantID, p.ID, req.Name, slug, req.Value, req.Currency)
		if err != nil {
			return err
		}
		level.Logo = req.Logo
		return s.sponsorRepo.CreateLevel(ctx, level)
	})
	if err != nil {
		return nil, err
	}
	resp := ToLevelResponse(level)
	return &resp, nil
}

// ListLevels lists the project's levels
func (s *Service) ListLevels(ctx context.Context, tenantID, projectID uuid.UUID) ([]LevelResponse, error) {
	levels, err := s.sponsorRepo.FindLevels(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]LevelResponse, len(levels))
	for i := range levels {
		out[i] = ToLevelResponse(&levels[i])
	}
	return out, nil
}

// =============================================================================
// Periods
// =============================================================================

// CreatePeriod opens a pending period for a sponsor
func (s *Service) CreatePeriod(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, sponsorID uuid.UUID, req CreatePeriodRequest) (*PeriodResponse, error) {
	sponsor, err := s.sponsorRepo.FindByID(ctx, tenantID, sponsorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.managedProject(ctx, tenantID, actor, sponsor.ProjectID); err != nil {
		return nil, err
	}
	level, err := s.sponsorRepo.FindLevel(ctx, tenantID, req.LevelID)
	if err != nil {
		return nil, err
	}

	var period *sponsorship.SponsorshipPeriod
	source := sponsorship.PeriodSlugSource(sponsor.Name, req.StartDate)
	err = s.uniqueSlug(ctx, tablePeriods, sponsor.ProjectID, source, func(slug string) error {
		var err error
		period, err = sponsorship.NewSponsorshipPeriod(tenantID, sponsor, level, slug,
			req.StartDate, req.EndDate, req.Amount, req.Currency, req.Recurring)
		if err != nil {
			return err
		}
		if req.StripeSubscriptionID != "" {
			if err := period.AttachSubscription(req.StripeSubscriptionID); err != nil {
				return err
			}
		}
		return s.periodRepo.Create(ctx, period)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Sponsorship period created",
		zap.String("period_id", period.ID.String()),
		zap.String("sponsor_id", sponsor.ID.String()),
		zap.Time("start", period.StartDate),
		zap.Time("end", period.EndDate),
	)
	resp := ToPeriodResponse(period, s.now())
	return &resp, nil
}

// ListPeriods lists the sponsor's periods
func (s *Service) ListPeriods(ctx context.Context, tenantID, sponsorID uuid.UUID) ([]PeriodResponse, error) {
	periods, err := s.periodRepo.FindBySponsor(ctx, tenantID, sponsorID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]PeriodResponse, len(periods))
	for i := range periods {
		out[i] = ToPeriodResponse(&periods[i], now)
	}
	return out, nil
}

// ApprovePeriod approves a period
func (s *Service) ApprovePeriod(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, req TransitionRequest) (*PeriodResponse, error) {
	return s.movePeriod(ctx, tenantID, actor, id, shared.ApprovalApproved, req.Remarks)
}

// RejectPeriod rejects a period. Remarks are required.
func (s *Service) RejectPeriod(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, req TransitionRequest) (*PeriodResponse, error) {
	return s.movePeriod(ctx, tenantID, actor, id, shared.ApprovalRejected, req.Remarks)
}

func (s *Service) movePeriod(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, target shared.ApprovalState, remarks string) (*PeriodResponse, error) {
	period, err := s.periodRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	p, err := s.managedProject(ctx, tenantID, actor, period.ProjectID)
	if err != nil {
		return nil, err
	}
	sponsor, err := s.sponsorRepo.FindByID(ctx, tenantID, period.SponsorID)
	if err != nil {
		return nil, err
	}

	from := period.WorkflowState
	if err := period.TransitionTo(actor.Name(), target, remarks); err != nil {
		return nil, err
	}
	change, err := auditRow(period.GetDomainEvents(), target)
	if err != nil {
		return nil, err
	}
	if err := s.periodRepo.SaveTransition(ctx, period, change); err != nil {
		s.logger.Error("Failed to save period transition",
			zap.String("period_id", period.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	period.ClearDomainEvents()
	s.recordTransition(ctx, sponsorship.AggregateTypePeriod, from, target)

	if err := s.notify(ctx, actor, p, sponsor, target, period.Remarks); err != nil {
		return nil, err
	}
	resp := ToPeriodResponse(period, s.now())
	return &resp, nil
}

// =============================================================================
// Subscriptions
// =============================================================================

// SyncSubscription copies the billing provider's status onto the period
func (s *Service) SyncSubscription(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID) (*PeriodResponse, error) {
	period, err := s.subscribedPeriod(ctx, tenantID, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.syncPeriod(ctx, period); err != nil {
		return nil, err
	}
	resp := ToPeriodResponse(period, s.now())
	return &resp, nil
}

// CancelSubscription cancels the subscription at the provider and records
// the resulting status
func (s *Service) CancelSubscription(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, reason string) (*PeriodResponse, error) {
	period, err := s.subscribedPeriod(ctx, tenantID, actor, id)
	if err != nil {
		return nil, err
	}
	sub, err := s.gateway.CancelSubscription(ctx, period.StripeSubscriptionID, reason)
	if err != nil {
		return nil, billingFailed(err)
	}
	period.SyncSubscription(sub.Status, s.now())
	if err := s.periodRepo.Update(ctx, period); err != nil {
		return nil, err
	}

	s.logger.Info("Sponsorship subscription canceled",
		zap.String("period_id", period.ID.String()),
		zap.String("subscription_id", period.StripeSubscriptionID),
		zap.String("status", string(sub.Status)),
	)
	resp := ToPeriodResponse(period, s.now())
	return &resp, nil
}

// SyncAllSubscriptions refreshes every subscribed period of every tenant.
// Individual failures are counted and logged; err is only set when the
// periods could not be listed.
func (s *Service) SyncAllSubscriptions(ctx context.Context) (synced, failed int, err error) {
	if s.gateway == nil {
		return 0, 0, billingDisabled()
	}
	periods, err := s.periodRepo.FindWithSubscription(ctx)
	if err != nil {
		return 0, 0, err
	}
	for i := range periods {
		if ctx.Err() != nil {
			return synced, failed + len(periods) - i, ctx.Err()
		}
		if err := s.syncPeriod(ctx, &periods[i]); err != nil {
			failed++
			continue
		}
		synced++
	}
	return synced, failed, nil
}

func (s *Service) subscribedPeriod(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID) (*sponsorship.SponsorshipPeriod, error) {
	if s.gateway == nil {
		return nil, billingDisabled()
	}
	period, err := s.periodRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.managedProject(ctx, tenantID, actor, period.ProjectID); err != nil {
		return nil, err
	}
	if !period.HasSubscription() {
		return nil, shared.NewDomainError("INVALID_STATE", "Sponsorship period has no subscription")
	}
	return period, nil
}

func (s *Service) syncPeriod(ctx context.Context, period *sponsorship.SponsorshipPeriod) error {
	sub, err := s.gateway.GetSubscription(ctx, period.StripeSubscriptionID)
	if err != nil {
		s.logger.Error("Failed to sync sponsorship subscription",
			zap.String("period_id", period.ID.String()),
			zap.String("subscription_id", period.StripeSubscriptionID),
			zap.Error(err),
		)
		return billingFailed(err)
	}
	if sub.Status == period.SubscriptionStatus && period.SubscriptionSyncedAt != nil {
		return nil
	}
	period.SyncSubscription(sub.Status, s.now())
	return s.periodRepo.Update(ctx, period)
}

func (s *Service) notify(ctx context.Context, actor shared.Actor, p *project.Project, sponsor *sponsorship.Sponsor, target shared.ApprovalState, remarks string) error {
	err := s.notifier.NotifyStatusChange(ctx, notification.StatusChangeNotice{
		Recipients:  []string{sponsor.SponsorEmail},
		Kind:        notification.KindSponsor,
		ProjectName: p.Name,
		SubjectName: sponsor.Name,
		State:       target,
		StatusName:  target.Label(),
		Remarks:     remarks,
		Actor:       actor.Name(),
	})
	if err != nil {
		s.logger.Error("Failed to notify sponsor",
			zap.String("sponsor_id", sponsor.ID.String()),
			zap.Error(err),
		)
		return shared.NewDomainError(CodeNotificationFailed, "Status saved but the notification could not be sent: "+err.Error())
	}
	return nil
}

func (s *Service) recordTransition(ctx context.Context, aggregate string, from, to shared.ApprovalState) {
	if s.metrics != nil {
		s.metrics.RecordTransition(ctx, aggregate, string(from), string(to))
	}
}

func auditRow(events []shared.DomainEvent, target shared.ApprovalState) (*audit.StatusChange, error) {
	ev := shared.LastApprovalChange(events)
	if ev == nil {
		return nil, fmt.Errorf("transition to %s raised no event", target)
	}
	return audit.FromEvent(ev, target.Label()), nil
}

func billingDisabled() error {
	return shared.NewDomainError(CodeBillingDisabled, "Billing is not configured")
}

func billingFailed(err error) error {
	if errors.Is(err, billing.ErrSubscriptionNotFound) {
		return shared.NewDomainError(shared.ErrNotFound.Code, "Subscription not found at the billing provider")
	}
	if errors.Is(err, billing.ErrBillingDisabled) {
		return billingDisabled()
	}
	return shared.NewDomainError(CodeBillingFailed, "Billing provider error: "+err.Error())
}
