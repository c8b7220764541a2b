package router

import (
	"github.com/gin-gonic/gin"
	"github.com/projecta/backend/internal/interfaces/http/handler"
	"github.com/projecta/backend/internal/interfaces/http/middleware"
)

// Handlers are the HTTP handlers mounted by APIGroups
type Handlers struct {
	System        *handler.SystemHandler
	Projects      *handler.ProjectHandler
	Organisations *handler.OrganisationHandler
	Reviewers     *handler.ReviewerHandler
	Courses       *handler.CourseHandler
	Certificates  *handler.CertificateHandler
	Sponsorship   *handler.SponsorshipHandler
	Changelog     *handler.ChangelogHandler
}

// APIGroups builds the domain groups served under /api/v1. Reads are open
// to anonymous callers that name a tenant; every write needs an actor.
func APIGroups(h Handlers) []RouteRegistrar {
	authed := middleware.RequireActor()
	tenant := middleware.RequireTenant()

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo)
	system.GET("/ping", h.System.Ping)

	projects := NewDomainGroup("projects", "/projects")
	projects.POST("", authed, h.Projects.Create)
	projects.GET("", tenant, h.Projects.List)
	projects.GET("/slug/:slug", h.Projects.GetBySlug)
	projects.GET("/:id", tenant, h.Projects.GetByID)
	projects.PUT("/:id", authed, h.Projects.Update)
	projects.PUT("/:id/managers", authed, h.Projects.SetManagers)
	projects.POST("/:id/deactivate", authed, h.Projects.Deactivate)
	projects.POST("/:id/statuses", authed, h.Projects.CreateStatus)
	projects.GET("/:id/statuses", tenant, h.Projects.ListStatuses)
	projects.DELETE("/:id/statuses/:status_id", authed, h.Projects.DeleteStatus)
	projects.POST("/:id/checklists", authed, h.Projects.CreateChecklist)
	projects.GET("/:id/checklists", tenant, h.Projects.ListChecklists)
	projects.PUT("/:id/checklists/order", authed, h.Projects.ReorderChecklists)
	projects.DELETE("/:id/checklists/:checklist_id", authed, h.Projects.DeactivateChecklist)
	projects.POST("/:id/organisations", authed, h.Organisations.Create)
	projects.GET("/:id/organisations", tenant, h.Organisations.List)
	projects.POST("/:id/sponsors", authed, h.Sponsorship.CreateSponsor)
	projects.GET("/:id/sponsors", authed, h.Sponsorship.ListSponsors)
	projects.POST("/:id/sponsorship-levels", authed, h.Sponsorship.CreateLevel)
	projects.GET("/:id/sponsorship-levels", tenant, h.Sponsorship.ListLevels)
	projects.POST("/:id/versions", authed, h.Changelog.CreateVersion)
	projects.GET("/:id/versions", authed, h.Changelog.ListVersions)
	projects.POST("/:id/categories", authed, h.Changelog.CreateCategory)
	projects.GET("/:id/categories", tenant, h.Changelog.ListCategories)

	organisations := NewDomainGroup("organisations", "/organisations")
	organisations.GET("/:id", tenant, h.Organisations.GetByID)
	organisations.PUT("/:id", authed, h.Organisations.Update)
	organisations.POST("/:id/deactivate", authed, h.Organisations.Deactivate)
	organisations.POST("/:id/update-status", authed, h.Organisations.UpdateStatus)
	organisations.POST("/:id/approve", authed, h.Organisations.Approve)
	organisations.POST("/:id/reject", authed, h.Organisations.Reject)
	organisations.POST("/:id/reopen", authed, h.Organisations.Reopen)
	organisations.GET("/:id/history", authed, h.Organisations.History)
	organisations.GET("/:id/checklist", authed, h.Organisations.GetChecklist)
	organisations.PUT("/:id/checklist", authed, h.Organisations.SubmitChecklist)
	organisations.POST("/:id/reviewers", authed, h.Reviewers.Invite)
	organisations.POST("/:id/training-centers", authed, h.Courses.CreateTrainingCenter)
	organisations.GET("/:id/training-centers", tenant, h.Courses.ListTrainingCenters)
	organisations.POST("/:id/course-types", authed, h.Courses.CreateCourseType)
	organisations.GET("/:id/course-types", tenant, h.Courses.ListCourseTypes)
	organisations.POST("/:id/courses", authed, h.Courses.CreateCourse)
	organisations.GET("/:id/courses", tenant, h.Courses.ListCourses)
	organisations.POST("/:id/attendees", authed, h.Courses.CreateAttendee)
	organisations.GET("/:id/attendees", authed, h.Courses.ListAttendees)
	organisations.POST("/:id/attendees/import", authed, h.Courses.ImportAttendees)
	organisations.POST("/:id/certificate", authed, h.Certificates.IssueOrganisationCertificate)
	organisations.GET("/:id/certificate/pdf", tenant, h.Certificates.OrganisationPDF)

	reviewers := NewDomainGroup("reviewers", "/reviewers")
	reviewers.POST("/session", h.Reviewers.StartSession)
	reviewers.DELETE("/session", h.Reviewers.EndSession)

	courses := NewDomainGroup("courses", "/courses")
	courses.POST("/:id/attendees", authed, h.Courses.EnrolAttendees)
	courses.GET("/:id/attendees", authed, h.Courses.ListCourseAttendees)
	courses.POST("/:id/certificates", authed, h.Certificates.Issue)
	courses.GET("/:id/certificates", authed, h.Certificates.ListByCourse)
	courses.POST("/:id/certificates/regenerate", authed, h.Certificates.Regenerate)

	certificates := NewDomainGroup("certificates", "/certificates")
	certificates.GET("/:certificate_id", tenant, h.Certificates.Verify)
	certificates.GET("/:certificate_id/pdf", tenant, h.Certificates.StreamPDF)
	certificates.POST("/:certificate_id/pdf", authed, h.Certificates.StorePDF)

	sponsors := NewDomainGroup("sponsors", "/sponsors")
	sponsors.Use(authed)
	sponsors.POST("/:id/approve", h.Sponsorship.ApproveSponsor)
	sponsors.POST("/:id/reject", h.Sponsorship.RejectSponsor)
	sponsors.POST("/:id/periods", h.Sponsorship.CreatePeriod)
	sponsors.GET("/:id/periods", h.Sponsorship.ListPeriods)

	periods := NewDomainGroup("sponsorship-periods", "/sponsorship-periods")
	periods.Use(authed)
	periods.POST("/:id/approve", h.Sponsorship.ApprovePeriod)
	periods.POST("/:id/reject", h.Sponsorship.RejectPeriod)
	periods.POST("/:id/sync", h.Sponsorship.SyncSubscription)
	periods.POST("/:id/cancel", h.Sponsorship.CancelSubscription)

	versions := NewDomainGroup("versions", "/versions")
	versions.Use(authed)
	versions.POST("/:id/approve", h.Changelog.ApproveVersion)
	versions.POST("/:id/entries", h.Changelog.CreateEntry)
	versions.GET("/:id/entries", h.Changelog.ListEntries)

	entries := NewDomainGroup("entries", "/entries")
	entries.Use(authed)
	entries.POST("/:id/approve", h.Changelog.ApproveEntry)

	return []RouteRegistrar{
		system, projects, organisations, reviewers, courses,
		certificates, sponsors, periods, versions, entries,
	}
}

// Mount registers the API groups and the unversioned endpoints: /health and
// the Swagger UI behind SwaggerProtection.
func Mount(engine *gin.Engine, h Handlers, swagger gin.HandlerFunc, swaggerUI gin.HandlerFunc) *Router {
	r := NewRouter(engine)
	r.Register(APIGroups(h)...)
	r.Setup()

	engine.GET("/health", h.System.Health)
	if swaggerUI != nil {
		engine.GET("/swagger/*any", swagger, swaggerUI)
	}
	return r
}
