package certification

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/certification"
	"github.com/projecta/backend/internal/domain/project"
	"github.com/projecta/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// GetChecklist returns the project's active questions, in order, with the
// organisation's answers filled in
func (s *OrganisationService) GetChecklist(ctx context.Context, tenantID, id uuid.UUID) ([]ChecklistItemResponse, error) {
	org, err := s.orgRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	questions, err := s.checklistRepo.FindByProject(ctx, tenantID, org.ProjectID, true)
	if err != nil {
		return nil, err
	}
	answers, err := s.answerRepo.FindByOrganisation(ctx, tenantID, org.ID)
	if err != nil {
		return nil, err
	}
	byQuestion := make(map[uuid.UUID]certification.OrganisationChecklist, len(answers))
	for _, a := range answers {
		byQuestion[a.ChecklistID] = a
	}

	out := make([]ChecklistItemResponse, len(questions))
	for i, q := range questions {
		item := ChecklistItemResponse{
			ChecklistID: q.ID,
			Question:    q.Question,
			HelpText:    q.HelpText,
			Target:      string(q.Target),
			Order:       q.Order,
		}
		if a, ok := byQuestion[q.ID]; ok {
			item.Checked = a.Checked
			item.TextBoxContent = a.TextBoxContent
			item.AnsweredBy = a.AnsweredBy
		}
		out[i] = item
	}
	return out, nil
}

// SubmitChecklist upserts answers. Reviewers and managers answer reviewer
// questions; organisation owners answer owner questions.
func (s *OrganisationService) SubmitChecklist(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, id uuid.UUID, req SubmitChecklistRequest) ([]ChecklistItemResponse, error) {
	org, proj, err := s.load(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	canReview := true
	if err := s.authz.AuthorizeReview(ctx, actor, proj, org); err != nil {
		if !errors.Is(err, shared.ErrForbidden) {
			return nil, err
		}
		canReview = false
	}
	isOwner := !actor.IsReviewer() && org.IsOwner(actor.UserID)
	if !canReview && !isOwner {
		return nil, shared.ErrForbidden
	}

	questions, err := s.checklistRepo.FindByProject(ctx, tenantID, org.ProjectID, true)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]project.Checklist, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	existing, err := s.answerRepo.FindByOrganisation(ctx, tenantID, org.ID)
	if err != nil {
		return nil, err
	}
	current := make(map[uuid.UUID]certification.OrganisationChecklist, len(existing))
	for _, a := range existing {
		current[a.ChecklistID] = a
	}

	rows := make([]certification.OrganisationChecklist, 0, len(req.Answers))
	for _, in := range req.Answers {
		q, ok := byID[in.ChecklistID]
		if !ok {
			return nil, shared.NewDomainError(shared.ErrNotFound.Code, "Checklist question not found: "+in.ChecklistID.String())
		}
		if q.Target == project.ChecklistTargetReviewer && !canReview {
			return nil, shared.ErrForbidden
		}
		if q.Target == project.ChecklistTargetOwner && !isOwner && !canReview {
			return nil, shared.ErrForbidden
		}

		row, ok := current[in.ChecklistID]
		if !ok {
			row = *certification.NewOrganisationChecklist(tenantID, org.ID, in.ChecklistID)
		}
		row.Answer(in.Checked, in.Text, actor.Name())
		rows = append(rows, row)
	}

	if err := s.answerRepo.SaveAll(ctx, rows); err != nil {
		return nil, err
	}
	s.logger.Info("Checklist answers saved",
		zap.String("organisation_id", org.ID.String()),
		zap.Int("answers", len(rows)),
		zap.String("actor", actor.Name()),
	)
	return s.GetChecklist(ctx, tenantID, id)
}
