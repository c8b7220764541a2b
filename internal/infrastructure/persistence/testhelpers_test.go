package persistence

import (
	"testing"

	"github.com/projecta/backend/internal/domain/audit"
	"github.com/projecta/backend/internal/domain/certification"
	"github.com/projecta/backend/internal/domain/changelog"
	"github.com/projecta/backend/internal/domain/project"
	"github.com/projecta/backend/internal/domain/sponsorship"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens an in-memory SQLite database with every table migrated.
// A single connection keeps the in-memory schema visible to transactions.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&project.Project{},
		&project.Status{},
		&project.Checklist{},
		&certification.CertifyingOrganisation{},
		&certification.ExternalReviewer{},
		&certification.OrganisationChecklist{},
		&certification.TrainingCenter{},
		&certification.CourseType{},
		&certification.Course{},
		&certification.Attendee{},
		&certification.CourseAttendee{},
		&certification.Certificate{},
		&certification.OrganisationCertificate{},
		&CertificateCounter{},
		&sponsorship.Sponsor{},
		&sponsorship.SponsorshipLevel{},
		&sponsorship.SponsorshipPeriod{},
		&changelog.Version{},
		&changelog.Category{},
		&changelog.Entry{},
		&audit.StatusChange{},
	))
	return db
}
