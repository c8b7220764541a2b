package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/shared"
	"github.com/projecta/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
)

func swaggerRouter(cfg config.SwaggerConfig, pre ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(pre...)
	router.GET("/swagger/*any", SwaggerProtection(cfg, RequireActor()), func(c *gin.Context) {
		c.String(http.StatusOK, "swagger")
	})
	return router
}

func serveSwagger(router *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func withActor(c *gin.Context) {
	setActor(c, shared.Actor{UserID: uuid.New(), Username: "tim"}, uuid.New())
	c.Next()
}

func TestSwaggerProtection(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.SwaggerConfig
		pre        []gin.HandlerFunc
		remoteAddr string
		want       int
	}{
		{name: "disabled", cfg: config.SwaggerConfig{}, want: http.StatusNotFound},
		{name: "enabled without restrictions", cfg: config.SwaggerConfig{Enabled: true}, want: http.StatusOK},
		{
			name:       "listed ip",
			cfg:        config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"127.0.0.1"}},
			remoteAddr: "127.0.0.1:12345",
			want:       http.StatusOK,
		},
		{
			name:       "unlisted ip",
			cfg:        config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"127.0.0.1"}},
			remoteAddr: "192.168.1.1:12345",
			want:       http.StatusForbidden,
		},
		{
			name:       "inside cidr",
			cfg:        config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8"}},
			remoteAddr: "10.1.2.3:12345",
			want:       http.StatusOK,
		},
		{
			name: "auth required without actor",
			cfg:  config.SwaggerConfig{Enabled: true, RequireAuth: true},
			want: http.StatusUnauthorized,
		},
		{
			name: "auth required with actor",
			cfg:  config.SwaggerConfig{Enabled: true, RequireAuth: true},
			pre:  []gin.HandlerFunc{withActor},
			want: http.StatusOK,
		},
		{
			name:       "ip check runs before auth",
			cfg:        config.SwaggerConfig{Enabled: true, RequireAuth: true, AllowedIPs: []string{"127.0.0.1"}},
			remoteAddr: "192.168.1.1:12345",
			want:       http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveSwagger(swaggerRouter(tt.cfg, tt.pre...), tt.remoteAddr)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestIsIPAllowed(t *testing.T) {
	ips, nets := parseAllowList([]string{"192.168.1.1", "::1", "10.0.0.0/8", "not-an-ip", "bad/cidr"})

	assert.Len(t, ips, 2)
	assert.Len(t, nets, 1)

	tests := []struct {
		ip   string
		want bool
	}{
		{"192.168.1.1", true},
		{"192.168.1.2", false},
		{"10.0.0.5", true},
		{"11.0.0.5", false},
		{"::1", true},
	}
	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			assert.Equal(t, tt.want, isIPAllowed(net.ParseIP(tt.ip), ips, nets))
		})
	}

	assert.False(t, isIPAllowed(nil, ips, nets))
}
