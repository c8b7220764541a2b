package certification

import (
	"context"
	"errors"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/certification"
	"github.com/projecta/backend/internal/domain/project"
	"github.com/projecta/backend/internal/domain/shared"
	"github.com/projecta/backend/internal/infrastructure/config"
	"github.com/projecta/backend/internal/infrastructure/printing"
	"github.com/projecta/backend/internal/infrastructure/storage"
	"github.com/projecta/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// regenerateConcurrency bounds parallel renders of one course
const regenerateConcurrency = 4

// CertificateRecorder records issuance and rendering metrics
type CertificateRecorder interface {
	RecordCertificateIssued(ctx context.Context, kind string, n int)
	RecordRender(ctx context.Context, d time.Duration, err error)
}

// CertificateDeps groups the collaborators of CertificateService
type CertificateDeps struct {
	Organisations certification.OrganisationRepository
	Projects      project.ProjectRepository
	Reviewers     certification.ReviewerRepository
	Courses       certification.CourseRepository
	Attendees     certification.AttendeeRepository
	Certificates  certification.CertificateRepository
	Layout        *printing.CertificateLayout
	Renderer      printing.PDFRenderer
	Storage       *storage.DocumentStorage
	Metrics       CertificateRecorder
}

// CertificateService issues certificates and produces their PDFs
type CertificateService struct {
	scope     orgScope
	courses   certification.CourseRepository
	attendees certification.AttendeeRepository
	certs     certification.CertificateRepository
	layout    *printing.CertificateLayout
	renderer  printing.PDFRenderer
	storage   *storage.DocumentStorage
	metrics   CertificateRecorder
	printing  config.PrintingConfig
	verifyURL string
	now       func() time.Time
	logger    *zap.Logger
}

// NewCertificateService creates a new CertificateService. verifyBaseURL
// prefixes the verification link printed on each certificate.
func NewCertificateService(deps CertificateDeps, cfg config.PrintingConfig, verifyBaseURL string, logger *zap.Logger) *CertificateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateService{
		scope: orgScope{
			orgRepo:     deps.Organisations,
			projectRepo: deps.Projects,
			authz:       NewAuthorizer(deps.Reviewers),
		},
		courses:   deps.Courses,
		attendees: deps.Attendees,
		certs:     deps.Certificates,
		layout:    deps.Layout,
		renderer:  deps.Renderer,
		storage:   deps.Storage,
		metrics:   deps.Metrics,
		printing:  cfg,
		verifyURL: strings.TrimRight(verifyBaseURL, "/"),
		now:       time.Now,
		logger:    logger,
	}
}

// Issue gives every listed attendee of the course a certificate. An empty
// list means every enrolled attendee. Attendees that already hold one are
// skipped, so repeated calls are safe.
func (s *CertificateService) Issue(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, courseID uuid.UUID, req IssueCertificatesRequest) (issued []CertificateResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "certificate.issue",
		attribute.String("course.id", courseID.String()),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	course, err := s.courses.FindCourse(ctx, tenantID, courseID)
	if err != nil {
		return nil, err
	}
	org, proj, err := s.scope.editable(ctx, tenantID, actor, course.OrganisationID)
	if err != nil {
		return nil, err
	}
	if !org.IsApproved() {
		return nil, shared.NewDomainError(shared.ErrInvalidState.Code, "Certificates can only be issued by approved organisations")
	}

	enrolled, err := s.attendees.FindByCourse(ctx, tenantID, course.ID)
	if err != nil {
		return nil, err
	}
	targets, err := selectAttendees(enrolled, req.AttendeeIDs)
	if err != nil {
		return nil, err
	}

	scope := proj.CertificateScope()
	issued = make([]CertificateResponse, 0, len(targets))
	for _, attendeeID := range targets {
		exists, err := s.certs.ExistsForAttendee(ctx, tenantID, course.ID, attendeeID)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		cert, err := s.certs.Issue(ctx, scope, func(certificateID string) (*certification.Certificate, error) {
			return certification.NewCertificate(tenantID, proj.ID, course.ID, attendeeID, certificateID, actorID(actor))
		})
		if errors.Is(err, shared.ErrAlreadyExists) {
			// issued concurrently
			continue
		}
		if err != nil {
			return nil, err
		}
		issued = append(issued, ToCertificateResponse(cert))
	}

	if s.metrics != nil && len(issued) > 0 {
		s.metrics.RecordCertificateIssued(ctx, string(printing.KindAttendee), len(issued))
	}
	s.logger.Info("Certificates issued",
		zap.String("course_id", course.ID.String()),
		zap.String("scope", scope),
		zap.Int("issued", len(issued)),
		zap.Int("requested", len(targets)),
	)
	return issued, nil
}

// ListByCourse lists a course's certificates
func (s *CertificateService) ListByCourse(ctx context.Context, tenantID, courseID uuid.UUID) ([]CertificateResponse, error) {
	certs, err := s.certs.FindByCourse(ctx, tenantID, courseID)
	if err != nil {
		return nil, err
	}
	out := make([]CertificateResponse, len(certs))
	for i := range certs {
		out[i] = ToCertificateResponse(&certs[i])
	}
	return out, nil
}

// Verify looks up a certificate by its public id. Attendee certificates are
// searched first, then organisation certificates, since both share one
// numbering scope per project.
func (s *CertificateService) Verify(ctx context.Context, tenantID uuid.UUID, certificateID string) (*CertificateResponse, error) {
	cert, err := s.certs.FindByCertificateID(ctx, tenantID, certificateID)
	if err == nil {
		resp := ToCertificateResponse(cert)
		return &resp, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	orgCert, err := s.certs.FindOrganisationCertificateByID(ctx, tenantID, certificateID)
	if err != nil {
		return nil, err
	}
	resp := ToOrganisationCertificateVerification(orgCert)
	return &resp, nil
}

// RenderPDF returns the PDF of an attendee certificate for streaming. A copy
// already in document storage is served as is; otherwise the certificate is
// rendered without being written anywhere.
func (s *CertificateService) RenderPDF(ctx context.Context, tenantID uuid.UUID, certificateID string) ([]byte, *StoredDocumentResponse, error) {
	cert, err := s.certs.FindByCertificateID(ctx, tenantID, certificateID)
	if err != nil {
		return nil, nil, err
	}
	proj, doc, err := s.attendeeDocument(ctx, tenantID, cert)
	if err != nil {
		return nil, nil, err
	}
	return s.storedOrRendered(ctx, proj, doc)
}

// StorePDF renders an attendee certificate and writes it under the project's
// folder. Only editors of the issuing organisation may store.
func (s *CertificateService) StorePDF(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, certificateID string) (*StoredDocumentResponse, error) {
	cert, err := s.certs.FindByCertificateID(ctx, tenantID, certificateID)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.FindCourse(ctx, tenantID, cert.CourseID)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.scope.editable(ctx, tenantID, actor, course.OrganisationID); err != nil {
		return nil, err
	}
	proj, doc, err := s.attendeeDocument(ctx, tenantID, cert)
	if err != nil {
		return nil, err
	}
	_, stored, err := s.renderAndStore(ctx, proj, doc)
	return stored, err
}

// RegenerateCourse re-renders every certificate of a course. Failures are
// collected rather than aborting the batch.
func (s *CertificateService) RegenerateCourse(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, courseID uuid.UUID) (*RegenerateResult, error) {
	course, err := s.courses.FindCourse(ctx, tenantID, courseID)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.scope.editable(ctx, tenantID, actor, course.OrganisationID); err != nil {
		return nil, err
	}
	certs, err := s.certs.FindByCourse(ctx, tenantID, course.ID)
	if err != nil {
		return nil, err
	}

	failed := make([]bool, len(certs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(regenerateConcurrency)
	for i := range certs {
		cert := &certs[i]
		g.Go(func() error {
			if err := s.regenerate(gctx, tenantID, cert); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.Warn("Certificate regeneration failed",
					zap.String("certificate_id", cert.CertificateID),
					zap.Error(err),
				)
				failed[i] = true
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &RegenerateResult{}
	for i, f := range failed {
		if f {
			result.Failed = append(result.Failed, certs[i].CertificateID)
			continue
		}
		result.Rendered++
	}
	return result, nil
}

// IssueOrganisationCertificate certifies an approved organisation and stores
// its PDF. An organisation holds at most one certificate; a second call
// returns the existing one.
func (s *CertificateService) IssueOrganisationCertificate(ctx context.Context, tenantID uuid.UUID, actor shared.Actor, orgID uuid.UUID) (*OrganisationCertificateResponse, error) {
	org, err := s.scope.orgRepo.FindByID(ctx, tenantID, orgID)
	if err != nil {
		return nil, err
	}
	proj, err := s.scope.projectRepo.FindByID(ctx, tenantID, org.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := s.scope.authz.AuthorizeManage(actor, proj); err != nil {
		return nil, err
	}

	cert, err := s.certs.FindOrganisationCertificate(ctx, tenantID, org.ID)
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrNotFound):
		cert, err = s.certs.IssueOrganisationCertificate(ctx, proj.CertificateScope(), func(certificateID string) (*certification.OrganisationCertificate, error) {
			return certification.NewOrganisationCertificate(tenantID, org, certificateID, actorID(actor))
		})
		if err != nil {
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.RecordCertificateIssued(ctx, string(printing.KindOrganisation), 1)
		}
	default:
		return nil, err
	}

	_, stored, err := s.renderAndStore(ctx, proj, organisationDocument(proj, org, cert, s.verifyLink(cert.CertificateID)))
	if err != nil {
		return nil, err
	}
	return &OrganisationCertificateResponse{
		ID:             cert.ID,
		CertificateID:  cert.CertificateID,
		OrganisationID: org.ID,
		Path:           stored.Path,
		CreatedAt:      cert.CreatedAt,
	}, nil
}

// OrganisationPDF returns the organisation's certificate, preferring the copy
// written when it was issued
func (s *CertificateService) OrganisationPDF(ctx context.Context, tenantID, orgID uuid.UUID) ([]byte, *StoredDocumentResponse, error) {
	org, err := s.scope.orgRepo.FindByID(ctx, tenantID, orgID)
	if err != nil {
		return nil, nil, err
	}
	proj, err := s.scope.projectRepo.FindByID(ctx, tenantID, org.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	cert, err := s.certs.FindOrganisationCertificate(ctx, tenantID, org.ID)
	if err != nil {
		return nil, nil, err
	}
	return s.storedOrRendered(ctx, proj, organisationDocument(proj, org, cert, s.verifyLink(cert.CertificateID)))
}

func (s *CertificateService) regenerate(ctx context.Context, tenantID uuid.UUID, cert *certification.Certificate) error {
	proj, doc, err := s.attendeeDocument(ctx, tenantID, cert)
	if err != nil {
		return err
	}
	_, _, err = s.renderAndStore(ctx, proj, doc)
	return err
}

func (s *CertificateService) attendeeDocument(ctx context.Context, tenantID uuid.UUID, cert *certification.Certificate) (*project.Project, printing.CertificateDocument, error) {
	var doc printing.CertificateDocument
	course, err := s.courses.FindCourse(ctx, tenantID, cert.CourseID)
	if err != nil {
		return nil, doc, err
	}
	org, err := s.scope.orgRepo.FindByID(ctx, tenantID, course.OrganisationID)
	if err != nil {
		return nil, doc, err
	}
	proj, err := s.scope.projectRepo.FindByID(ctx, tenantID, org.ProjectID)
	if err != nil {
		return nil, doc, err
	}
	courseType, err := s.courses.FindCourseType(ctx, tenantID, course.CourseTypeID)
	if err != nil {
		return nil, doc, err
	}
	center, err := s.courses.FindTrainingCenter(ctx, tenantID, course.TrainingCenterID)
	if err != nil {
		return nil, doc, err
	}
	attendee, err := s.attendees.FindByID(ctx, tenantID, cert.AttendeeID)
	if err != nil {
		return nil, doc, err
	}

	doc = printing.CertificateDocument{
		Kind:             printing.KindAttendee,
		CertificateID:    cert.CertificateID,
		ProjectName:      proj.Name,
		Precis:           proj.Precis,
		OrganisationName: org.Name,
		RecipientName:    attendee.FullName(),
		CourseName:       courseType.Name,
		TrainingCenter:   center.Name,
		Competence:       course.TrainedCompetence,
		StartDate:        course.StartDate,
		EndDate:          course.EndDate,
		IssuedAt:         cert.CreatedAt,
		VerifyURL:        s.verifyLink(cert.CertificateID),
		ProjectLogo:      proj.LogoImage,
		OrganisationLogo: org.Logo,
		Signature:        proj.SignatureImage,
		Background:       proj.BackgroundImage,
	}
	return proj, doc, nil
}

func organisationDocument(proj *project.Project, org *certification.CertifyingOrganisation, cert *certification.OrganisationCertificate, verifyURL string) printing.CertificateDocument {
	return printing.CertificateDocument{
		Kind:             printing.KindOrganisation,
		CertificateID:    cert.CertificateID,
		ProjectName:      proj.Name,
		Precis:           proj.Precis,
		OrganisationName: org.Name,
		RecipientName:    org.Name,
		IssuedAt:         cert.CreatedAt,
		VerifyURL:        verifyURL,
		ProjectLogo:      proj.LogoImage,
		OrganisationLogo: org.Logo,
		Signature:        proj.SignatureImage,
		Background:       proj.BackgroundImage,
	}
}

// storedOrRendered serves the stored copy of a certificate and falls back to
// an in-memory render when none exists yet
func (s *CertificateService) storedOrRendered(ctx context.Context, proj *project.Project, doc printing.CertificateDocument) ([]byte, *StoredDocumentResponse, error) {
	path, err := s.storage.Path(proj.Name, doc.CertificateID)
	if err != nil {
		return nil, nil, err
	}
	pdf, err := s.storage.Open(proj.Name, doc.CertificateID)
	switch {
	case err == nil:
		return pdf, &StoredDocumentResponse{CertificateID: doc.CertificateID, Path: path, Bytes: len(pdf)}, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, nil, err
	}

	pdf, err = s.render(ctx, doc)
	if err != nil {
		return nil, nil, err
	}
	return pdf, &StoredDocumentResponse{CertificateID: doc.CertificateID, Bytes: len(pdf)}, nil
}

func (s *CertificateService) renderAndStore(ctx context.Context, proj *project.Project, doc printing.CertificateDocument) ([]byte, *StoredDocumentResponse, error) {
	pdf, err := s.render(ctx, doc)
	if err != nil {
		return nil, nil, err
	}
	path, err := s.storage.Save(ctx, proj.Name, doc.CertificateID, pdf)
	if err != nil {
		return nil, nil, err
	}
	return pdf, &StoredDocumentResponse{
		CertificateID: doc.CertificateID,
		Path:          path,
		Bytes:         len(pdf),
	}, nil
}

func (s *CertificateService) render(ctx context.Context, doc printing.CertificateDocument) (pdf []byte, err error) {
	ctx, span := telemetry.StartSpan(ctx, "certificate.render",
		attribute.String("certificate.id", doc.CertificateID),
		attribute.String("certificate.kind", string(doc.Kind)),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	html, err := s.layout.Render(ctx, doc)
	if err != nil {
		return nil, renderFailed(err)
	}

	start := s.now()
	result, err := s.renderer.Render(ctx, &printing.RenderRequest{
		HTML:          html,
		Title:         doc.ProjectName + " " + doc.CertificateID,
		PaperWidthMM:  s.printing.PaperWidth,
		PaperHeightMM: s.printing.PaperHeight,
		Timeout:       s.printing.Timeout,
	})
	if s.metrics != nil {
		s.metrics.RecordRender(ctx, time.Since(start), err)
	}
	if err != nil {
		return nil, renderFailed(err)
	}
	return result.PDFData, nil
}

func (s *CertificateService) verifyLink(certificateID string) string {
	if s.verifyURL == "" {
		return ""
	}
	return s.verifyURL + "/" + certificateID
}

// selectAttendees validates requested ids against the enrolled attendees.
// An empty request selects everyone enrolled.
func selectAttendees(enrolled []certification.Attendee, requested []uuid.UUID) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(enrolled))
	for i := range enrolled {
		ids[i] = enrolled[i].ID
	}
	if len(requested) == 0 {
		return ids, nil
	}
	out := make([]uuid.UUID, 0, len(requested))
	for _, id := range requested {
		if !slices.Contains(ids, id) {
			return nil, shared.NewDomainError(shared.ErrNotFound.Code, "Attendee "+id.String()+" is not enrolled in this course")
		}
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out, nil
}
