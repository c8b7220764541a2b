package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestProfiling_CallsHandler(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		cfg := DefaultProfilingConfig()
		cfg.Enabled = enabled

		called := false
		router := gin.New()
		router.Use(Profiling(cfg))
		router.GET("/api/v1/projects/:id", func(c *gin.Context) {
			called = true
			c.Status(http.StatusOK)
		})
		router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/projects/"+uuid.NewString(), nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, called)

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestProfilingLabels(t *testing.T) {
	tenantID := uuid.New()
	reviewerID := uuid.New()

	var labels []string
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(TenantIDKey, tenantID)
		c.Set(ActorKey, shared.Actor{Email: "reviewer@example.com", ReviewerID: &reviewerID})
		c.Next()
	})
	router.POST("/api/v1/organisations/:id/update-status", func(c *gin.Context) {
		labels = profilingLabels(c)
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/organisations/"+uuid.NewString()+"/update-status", nil))

	assert.Equal(t, []string{
		"method", http.MethodPost,
		"route", "/api/v1/organisations/:id/update-status",
		"controller", "organisations",
		"tenant_id", tenantID.String(),
		"actor_kind", "reviewer",
	}, labels)
}

func TestControllerFromRoute(t *testing.T) {
	tests := map[string]string{
		"/api/v1/projects":                         "projects",
		"/api/v1/sponsorship-periods/:id/sync":     "sponsorship-periods",
		"/api/v2/certificates/:certificate_id/pdf": "certificates",
		"/swagger/*any":                            "swagger",
		"/api/v1":                                  "",
		"":                                         "",
	}
	for route, want := range tests {
		assert.Equal(t, want, controllerFromRoute(route), route)
	}
}
