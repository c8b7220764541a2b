package certification

import (
	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/shared"
)

// Certificate is issued to one attendee for one course
type Certificate struct {
	shared.TenantEntity
	ProjectID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	CourseID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_certificate_course_attendee,priority:1"`
	AttendeeID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_certificate_course_attendee,priority:2"`
	CertificateID string     `gorm:"type:varchar(100);not null;uniqueIndex"`
	IssuedBy      *uuid.UUID `gorm:"type:uuid"`
	IsPaid        bool       `gorm:"not null;default:false"`
	Revoked       bool       `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (Certificate) TableName() string {
	return "certificates"
}

// NewCertificate creates a certificate with an allocated id
func NewCertificate(tenantID, projectID, courseID, attendeeID uuid.UUID, certificateID string, issuedBy *uuid.UUID) (*Certificate, error) {
	if courseID == uuid.Nil || attendeeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CERTIFICATE", "Certificate needs a course and an attendee")
	}
	if certificateID == "" {
		return nil, shared.NewDomainError("INVALID_CERTIFICATE", "Certificate ID cannot be empty")
	}
	return &Certificate{
		TenantEntity:  shared.NewTenantEntity(tenantID),
		ProjectID:     projectID,
		CourseID:      courseID,
		AttendeeID:    attendeeID,
		CertificateID: certificateID,
		IssuedBy:      issuedBy,
	}, nil
}

// Revoke invalidates the certificate
func (c *Certificate) Revoke() error {
	if c.Revoked {
		return shared.NewDomainError("INVALID_STATE", "Certificate is already revoked")
	}
	c.Revoked = true
	c.Touch()
	return nil
}

// MarkPaid records that the certificate credit was paid
func (c *Certificate) MarkPaid() {
	c.IsPaid = true
	c.Touch()
}

// OrganisationCertificate certifies the organisation itself
type OrganisationCertificate struct {
	shared.TenantEntity
	ProjectID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	OrganisationID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	CertificateID  string     `gorm:"type:varchar(100);not null;uniqueIndex"`
	IssuedBy       *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (OrganisationCertificate) TableName() string {
	return "organisation_certificates"
}

// NewOrganisationCertificate creates the certificate of an approved organisation
func NewOrganisationCertificate(tenantID uuid.UUID, org *CertifyingOrganisation, certificateID string, issuedBy *uuid.UUID) (*OrganisationCertificate, error) {
	if !org.IsApproved() {
		return nil, shared.NewDomainError("INVALID_STATE", "Only approved organisations can be certified")
	}
	if certificateID == "" {
		return nil, shared.NewDomainError("INVALID_CERTIFICATE", "Certificate ID cannot be empty")
	}
	return &OrganisationCertificate{
		TenantEntity:   shared.NewTenantEntity(tenantID),
		ProjectID:      org.ProjectID,
		OrganisationID: org.ID,
		CertificateID:  certificateID,
		IssuedBy:       issuedBy,
	}, nil
}
