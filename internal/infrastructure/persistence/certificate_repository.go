package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/certification"
	"github.com/projecta/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxIssueAttempts bounds retries when a concurrent issuer wins the race
// for a counter row or a certificate id.
const maxIssueAttempts = 3

// CertificateCounter holds the last sequence number handed out for a
// certificate scope. Attendee and organisation certificates of a project
// share one counter.
type CertificateCounter struct {
	Scope     string    `gorm:"type:varchar(100);primaryKey"`
	LastValue int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CertificateCounter) TableName() string {
	return "certificate_counters"
}

// GormCertificateRepository implements certification.CertificateRepository using GORM
type GormCertificateRepository struct {
	db *gorm.DB
}

// NewGormCertificateRepository creates a new GormCertificateRepository
func NewGormCertificateRepository(db *gorm.DB) *GormCertificateRepository {
	return &GormCertificateRepository{db: db}
}

// FindByCertificateID finds a certificate by its public id
func (r *GormCertificateRepository) FindByCertificateID(ctx context.Context, tenantID uuid.UUID, certificateID string) (*certification.Certificate, error) {
	var c certification.Certificate
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND certificate_id = ?", tenantID, certificateID).
		First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// FindByCourse lists certificates issued for a course
func (r *GormCertificateRepository) FindByCourse(ctx context.Context, tenantID, courseID uuid.UUID) ([]certification.Certificate, error) {
	var certs []certification.Certificate
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND course_id = ?", tenantID, courseID).
		Order("created_at ASC").
		Find(&certs).Error
	return certs, err
}

// ExistsForAttendee reports whether the attendee already holds a certificate for the course
func (r *GormCertificateRepository) ExistsForAttendee(ctx context.Context, tenantID, courseID, attendeeID uuid.UUID) (bool, error) {
	return certificateExists(r.db.WithContext(ctx), tenantID, courseID, attendeeID)
}

// Issue allocates the next id of scope and inserts the certificate built from it
func (r *GormCertificateRepository) Issue(ctx context.Context, scope string, build func(string) (*certification.Certificate, error)) (*certification.Certificate, error) {
	var issued *certification.Certificate
	err := r.withRetry(ctx, func(tx *gorm.DB) error {
		id, err := nextCertificateID(tx, scope)
		if err != nil {
			return err
		}
		cert, err := build(id)
		if err != nil {
			return err
		}
		exists, err := certificateExists(tx, cert.TenantID, cert.CourseID, cert.AttendeeID)
		if err != nil {
			return err
		}
		if exists {
			return shared.ErrAlreadyExists
		}
		if err := tx.Create(cert).Error; err != nil {
			return err
		}
		issued = cert
		return nil
	})
	return issued, err
}

// FindOrganisationCertificate finds the certificate of an organisation
func (r *GormCertificateRepository) FindOrganisationCertificate(ctx context.Context, tenantID, organisationID uuid.UUID) (*certification.OrganisationCertificate, error) {
	var c certification.OrganisationCertificate
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND organisation_id = ?", tenantID, organisationID).
		First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// FindOrganisationCertificateByID finds an organisation certificate by its public id
func (r *GormCertificateRepository) FindOrganisationCertificateByID(ctx context.Context, tenantID uuid.UUID, certificateID string) (*certification.OrganisationCertificate, error) {
	var c certification.OrganisationCertificate
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND certificate_id = ?", tenantID, certificateID).
		First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// IssueOrganisationCertificate allocates the next id of scope and inserts
// the organisation certificate built from it
func (r *GormCertificateRepository) IssueOrganisationCertificate(ctx context.Context, scope string, build func(string) (*certification.OrganisationCertificate, error)) (*certification.OrganisationCertificate, error) {
	var issued *certification.OrganisationCertificate
	err := r.withRetry(ctx, func(tx *gorm.DB) error {
		id, err := nextCertificateID(tx, scope)
		if err != nil {
			return err
		}
		cert, err := build(id)
		if err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&certification.OrganisationCertificate{}).
			Where("organisation_id = ?", cert.OrganisationID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return shared.ErrAlreadyExists
		}
		if err := tx.Create(cert).Error; err != nil {
			return err
		}
		issued = cert
		return nil
	})
	return issued, err
}

// withRetry runs fn in a transaction, retrying when it fails on a unique
// violation. Running out of attempts is reported as a concurrency conflict.
func (r *GormCertificateRepository) withRetry(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		err = r.db.WithContext(ctx).Transaction(fn)
		if err == nil || !isUniqueViolation(err) {
			return err
		}
	}
	return shared.ErrConcurrencyConflict
}

// nextCertificateID locks the scope's counter row and advances it. A missing
// counter is seeded from the highest id already issued under the scope.
func nextCertificateID(tx *gorm.DB, scope string) (string, error) {
	var counter CertificateCounter
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("scope = ?", scope).
		First(&counter).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		seed, err := issuedSequence(tx, scope)
		if err != nil {
			return "", err
		}
		counter = CertificateCounter{Scope: scope, LastValue: seed + 1, UpdatedAt: time.Now()}
		if err := tx.Create(&counter).Error; err != nil {
			return "", err
		}
	case err != nil:
		return "", err
	default:
		counter.LastValue++
		if err := tx.Model(&CertificateCounter{}).
			Where("scope = ?", scope).
			Updates(map[string]any{"last_value": counter.LastValue, "updated_at": time.Now()}).Error; err != nil {
			return "", err
		}
	}
	return certification.FormatCertificateID(scope, counter.LastValue), nil
}

func issuedSequence(tx *gorm.DB, scope string) (int64, error) {
	pattern := escapeLike(scope) + "-%"
	var ids, orgIDs []string
	if err := tx.Model(&certification.Certificate{}).
		Where("certificate_id LIKE ? ESCAPE '\\'", pattern).
		Pluck("certificate_id", &ids).Error; err != nil {
		return 0, err
	}
	if err := tx.Model(&certification.OrganisationCertificate{}).
		Where("certificate_id LIKE ? ESCAPE '\\'", pattern).
		Pluck("certificate_id", &orgIDs).Error; err != nil {
		return 0, err
	}
	return certification.MaxCertificateSequence(scope, append(ids, orgIDs...)), nil
}

func certificateExists(db *gorm.DB, tenantID, courseID, attendeeID uuid.UUID) (bool, error) {
	var count int64
	err := db.Model(&certification.Certificate{}).
		Where("tenant_id = ? AND course_id = ? AND attendee_id = ?", tenantID, courseID, attendeeID).
		Count(&count).Error
	return count > 0, err
}

var _ certification.CertificateRepository = (*GormCertificateRepository)(nil)
