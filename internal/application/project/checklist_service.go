package project

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/project"
	"github.com/projecta/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ChecklistService manages the review questions of a project
type ChecklistService struct {
	projectRepo   project.ProjectRepository
	checklistRepo project.ChecklistRepository
	logger        *zap.Logger
}

// NewChecklistService creates a new ChecklistService
func NewChecklistService(projectRepo project.ProjectRepository, checklistRepo project.ChecklistRepository, logger *zap.Logger) *ChecklistService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChecklistService{projectRepo: projectRepo, checklistRepo: checklistRepo, logger: logger}
}

// Create appends a question after the project's last one
func (s *ChecklistService) Create(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID uuid.UUID, req CreateChecklistRequest) (*ChecklistResponse, error) {
	if err := s.authorize(ctx, tenantID, actor, projectID); err != nil {
		return nil, err
	}
	maxOrder, err := s.checklistRepo.MaxOrder(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	c, err := project.NewChecklist(tenantID, projectID, req.Question, req.HelpText, project.ChecklistTarget(req.Target), maxOrder+1)
	if err != nil {
		return nil, err
	}
	if err := s.checklistRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	resp := ToChecklistResponse(c)
	return &resp, nil
}

// List returns the project's questions in order
func (s *ChecklistService) List(ctx context.Context, tenantID, projectID uuid.UUID, activeOnly bool) ([]ChecklistResponse, error) {
	if _, err := s.projectRepo.FindByID(ctx, tenantID, projectID); err != nil {
		return nil, err
	}
	items, err := s.checklistRepo.FindByProject(ctx, tenantID, projectID, activeOnly)
	if err != nil {
		return nil, err
	}
	return toChecklistResponses(items), nil
}

// Reorder renumbers the active questions following req.IDs
func (s *ChecklistService) Reorder(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID uuid.UUID, req ReorderChecklistRequest) ([]ChecklistResponse, error) {
	if err := s.authorize(ctx, tenantID, actor, projectID); err != nil {
		return nil, err
	}
	items, err := s.checklistRepo.FindByProject(ctx, tenantID, projectID, true)
	if err != nil {
		return nil, err
	}
	if err := project.Reorder(items, req.IDs); err != nil {
		return nil, err
	}
	if err := s.checklistRepo.SaveBatch(ctx, items); err != nil {
		return nil, err
	}

	s.logger.Info("Checklist reordered",
		zap.String("project_id", projectID.String()),
		zap.Int("questions", len(items)),
	)
	sortByOrder(items)
	return toChecklistResponses(items), nil
}

// Deactivate removes a question from future reviews. Existing answers stay.
func (s *ChecklistService) Deactivate(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID, checklistID uuid.UUID) error {
	if err := s.authorize(ctx, tenantID, actor, projectID); err != nil {
		return err
	}
	c, err := s.checklistRepo.FindByID(ctx, tenantID, checklistID)
	if err != nil {
		return err
	}
	if c.ProjectID != projectID {
		return shared.ErrNotFound
	}
	c.Deactivate()
	return s.checklistRepo.Save(ctx, c)
}

func (s *ChecklistService) authorize(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID uuid.UUID) error {
	p, err := s.projectRepo.FindByID(ctx, tenantID, projectID)
	if err != nil {
		return err
	}
	if !canManageCertification(actor, p) {
		return shared.ErrForbidden
	}
	return nil
}

func sortByOrder(items []project.Checklist) {
	slices.SortFunc(items, func(a, b project.Checklist) int { return a.Order - b.Order })
}

func toChecklistResponses(items []project.Checklist) []ChecklistResponse {
	out := make([]ChecklistResponse, len(items))
	for i := range items {
		out[i] = ToChecklistResponse(&items[i])
	}
	return out
}
