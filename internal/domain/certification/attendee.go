package certification

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/shared"
)

// Attendee is a person trained by an organisation
type Attendee struct {
	shared.TenantEntity
	OrganisationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attendee_identity,priority:1"`
	Firstname      string    `gorm:"type:varchar(200);not null;uniqueIndex:idx_attendee_identity,priority:2"`
	Surname        string    `gorm:"type:varchar(200);not null;uniqueIndex:idx_attendee_identity,priority:3"`
	Email          string    `gorm:"type:varchar(200);not null;uniqueIndex:idx_attendee_identity,priority:4"`
}

// TableName returns the table name for GORM
func (Attendee) TableName() string {
	return "attendees"
}

// NewAttendee creates an attendee
func NewAttendee(tenantID, organisationID uuid.UUID, firstname, surname, email string) (*Attendee, error) {
	firstname = strings.TrimSpace(firstname)
	surname = strings.TrimSpace(surname)
	email = strings.TrimSpace(email)
	if organisationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORGANISATION", "Organisation ID cannot be empty")
	}
	if firstname == "" {
		return nil, shared.NewDomainError("INVALID_FIRSTNAME", "Firstname cannot be empty")
	}
	if surname == "" {
		return nil, shared.NewDomainError("INVALID_SURNAME", "Surname cannot be empty")
	}
	if err := shared.ValidateEmail(email); err != nil {
		return nil, err
	}
	return &Attendee{
		TenantEntity:   shared.NewTenantEntity(tenantID),
		OrganisationID: organisationID,
		Firstname:      firstname,
		Surname:        surname,
		Email:          email,
	}, nil
}

// FullName is the name printed on certificates
func (a *Attendee) FullName() string {
	return a.Firstname + " " + a.Surname
}

// SameIdentity reports a case-insensitive match on name and email
func (a *Attendee) SameIdentity(firstname, surname, email string) bool {
	return strings.EqualFold(a.Firstname, strings.TrimSpace(firstname)) &&
		strings.EqualFold(a.Surname, strings.TrimSpace(surname)) &&
		strings.EqualFold(a.Email, strings.TrimSpace(email))
}

// DisambiguateSurname returns the surname to store for a new attendee whose
// name is already used by sameName other attendees of the organisation, so
// the second "Jane Doe" becomes "Jane Doe 2".
func DisambiguateSurname(surname string, sameName int) string {
	if sameName <= 0 {
		return surname
	}
	return surname + " " + strconv.Itoa(sameName+1)
}

// CourseAttendee enrols an attendee in a course
type CourseAttendee struct {
	shared.TenantEntity
	CourseID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_course_attendee,priority:1"`
	AttendeeID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_course_attendee,priority:2"`
	AuthorID   *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (CourseAttendee) TableName() string {
	return "course_attendees"
}

// NewCourseAttendee creates an enrolment
func NewCourseAttendee(tenantID, courseID, attendeeID uuid.UUID, authorID *uuid.UUID) *CourseAttendee {
	return &CourseAttendee{
		TenantEntity: shared.NewTenantEntity(tenantID),
		CourseID:     courseID,
		AttendeeID:   attendeeID,
		AuthorID:     authorID,
	}
}
