package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/grafana/pyroscope-go"
)

// ProfilingConfig holds configuration for the profiling middleware.
type ProfilingConfig struct {
	Enabled          bool
	SkipPaths        []string
	SkipPathPrefixes []string
}

// DefaultProfilingConfig skips health checks and API docs
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled:          true,
		SkipPaths:        []string{"/health", "/api/v1/health"},
		SkipPathPrefixes: []string{"/swagger"},
	}
}

// Profiling tags the CPU samples of each request with Pyroscope labels
// (method, route, controller, tenant_id, actor_kind). Place it after
// Authenticate so the tenant is known.
func Profiling(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		pyroscope.TagWrapper(c.Request.Context(), pyroscope.Labels(profilingLabels(c)...), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// profilingLabels returns alternating key/value pairs. Values are low
// cardinality: route patterns, not paths.
func profilingLabels(c *gin.Context) []string {
	labels := []string{"method", c.Request.Method}
	if route := c.FullPath(); route != "" {
		labels = append(labels, "route", route)
		if controller := controllerFromRoute(route); controller != "" {
			labels = append(labels, "controller", controller)
		}
	}
	if tenantID, ok := GetTenantID(c); ok {
		labels = append(labels, "tenant_id", tenantID.String())
	}
	if actor, ok := GetActor(c); ok {
		kind := "user"
		if actor.IsReviewer() {
			kind = "reviewer"
		}
		labels = append(labels, "actor_kind", kind)
	}
	return labels
}

// controllerFromRoute returns the first resource segment:
// "/api/v1/organisations/:id/update-status" -> "organisations"
func controllerFromRoute(route string) string {
	for _, part := range strings.Split(route, "/") {
		if part == "" || part == "api" || isVersionSegment(part) || strings.HasPrefix(part, ":") || strings.HasPrefix(part, "*") {
			continue
		}
		return part
	}
	return ""
}

func isVersionSegment(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	for _, r := range segment[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
