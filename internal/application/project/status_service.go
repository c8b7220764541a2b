package project

import (
	"context"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/project"
	"github.com/projecta/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// StatusService manages the workflow statuses of a project
type StatusService struct {
	projectRepo project.ProjectRepository
	statusRepo  project.StatusRepository
	logger      *zap.Logger
}

// NewStatusService creates a new StatusService
func NewStatusService(projectRepo project.ProjectRepository, statusRepo project.StatusRepository, logger *zap.Logger) *StatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusService{projectRepo: projectRepo, statusRepo: statusRepo, logger: logger}
}

// Create appends a status after the project's last one
func (s *StatusService) Create(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID uuid.UUID, req CreateStatusRequest) (*StatusResponse, error) {
	if err := s.authorize(ctx, tenantID, actor, projectID); err != nil {
		return nil, err
	}

	exists, err := s.statusRepo.ExistsByName(ctx, tenantID, projectID, req.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Status with this name already exists")
	}

	maxOrder, err := s.statusRepo.MaxOrder(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	status, err := project.NewStatus(tenantID, projectID, req.Name, maxOrder+1)
	if err != nil {
		return nil, err
	}
	if err := s.statusRepo.Save(ctx, status); err != nil {
		return nil, err
	}

	s.logger.Info("Status created",
		zap.String("project_id", projectID.String()),
		zap.String("status", status.Name),
		zap.Int("order", status.Order),
	)
	resp := ToStatusResponse(status)
	return &resp, nil
}

// List returns the project's statuses in order
func (s *StatusService) List(ctx context.Context, tenantID, projectID uuid.UUID) ([]StatusResponse, error) {
	if _, err := s.projectRepo.FindByID(ctx, tenantID, projectID); err != nil {
		return nil, err
	}
	statuses, err := s.statusRepo.FindByProject(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]StatusResponse, len(statuses))
	for i := range statuses {
		out[i] = ToStatusResponse(&statuses[i])
	}
	return out, nil
}

// Delete removes a status of the project
func (s *StatusService) Delete(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID, statusID uuid.UUID) error {
	if err := s.authorize(ctx, tenantID, actor, projectID); err != nil {
		return err
	}
	status, err := s.statusRepo.FindByID(ctx, tenantID, statusID)
	if err != nil {
		return err
	}
	if status.ProjectID != projectID {
		return shared.ErrNotFound
	}
	return s.statusRepo.Delete(ctx, tenantID, statusID)
}

func (s *StatusService) authorize(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, projectID uuid.UUID) error {
	p, err := s.projectRepo.FindByID(ctx, tenantID, projectID)
	if err != nil {
		return err
	}
	if !canManageCertification(actor, p) {
		return shared.ErrForbidden
	}
	return nil
}
