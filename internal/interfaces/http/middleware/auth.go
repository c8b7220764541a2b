package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/shared"
	"github.com/projecta/backend/internal/infrastructure/auth"
	"github.com/projecta/backend/internal/infrastructure/logger"
	"github.com/projecta/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Context keys
const (
	ActorKey      = "actor"
	TenantIDKey   = "tenant_id"
	JWTClaimsKey  = "jwt_claims"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
	TenantHeader  = "X-Tenant-ID"
)

// ReviewerResolver turns a reviewer session id into an actor
type ReviewerResolver interface {
	ReviewerActor(ctx context.Context, sessionID string) (shared.Actor, uuid.UUID, error)
}

// SessionReader reads the reviewer session id from the request cookie
type SessionReader interface {
	SessionID(r *http.Request) (string, error)
}

// AuthConfig holds configuration for the Authenticate middleware
type AuthConfig struct {
	// JWTService validates bearer tokens. Required.
	JWTService *auth.JWTService
	// Sessions and Reviewers resolve external reviewer cookies. Both optional.
	Sessions  SessionReader
	Reviewers ReviewerResolver
	Logger    *zap.Logger
}

// Authenticate resolves the acting user. A bearer token wins over the
// reviewer cookie. Requests with neither continue anonymously and may name
// their tenant through X-Tenant-ID for public reads; RequireActor guards
// everything else. A bearer token that fails validation is rejected.
func Authenticate(cfg AuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if header := c.GetHeader(AuthHeaderKey); header != "" {
			if !strings.HasPrefix(header, BearerPrefix) || strings.TrimPrefix(header, BearerPrefix) == "" {
				abortUnauthorized(c, auth.ErrInvalidToken)
				return
			}
			claims, err := cfg.JWTService.ValidateAccessToken(strings.TrimPrefix(header, BearerPrefix))
			if err != nil {
				log.Warn("JWT authentication failed",
					zap.Error(err),
					zap.String("path", c.Request.URL.Path),
				)
				abortUnauthorized(c, err)
				return
			}
			actor, tenantID, err := actorFromClaims(claims)
			if err != nil {
				abortUnauthorized(c, auth.ErrInvalidClaims)
				return
			}
			c.Set(JWTClaimsKey, claims)
			setActor(c, actor, tenantID)
			c.Next()
			return
		}

		if cfg.Sessions != nil && cfg.Reviewers != nil {
			if sessionID, err := cfg.Sessions.SessionID(c.Request); err == nil && sessionID != "" {
				actor, tenantID, err := cfg.Reviewers.ReviewerActor(c.Request.Context(), sessionID)
				if err == nil {
					setActor(c, actor, tenantID)
					c.Next()
					return
				}
				log.Debug("Reviewer session rejected", zap.Error(err))
			}
		}

		if raw := c.GetHeader(TenantHeader); raw != "" {
			if tenantID, err := uuid.Parse(raw); err == nil {
				c.Set(TenantIDKey, tenantID)
				c.Request = c.Request.WithContext(logger.WithTenantID(c.Request.Context(), tenantID.String()))
			}
		}
		c.Next()
	}
}

// RequireActor aborts with 401 unless Authenticate resolved an actor
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetActor(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Authentication required", getRequestID(c)))
			return
		}
		c.Next()
	}
}

// RequireTenant aborts with 400 unless a tenant was resolved from the
// token, the reviewer session or the X-Tenant-ID header
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetTenantID(c); !ok {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeBadRequest, "Tenant is required", getRequestID(c)))
			return
		}
		c.Next()
	}
}

// GetActor returns the actor resolved by Authenticate
func GetActor(c *gin.Context) (shared.Actor, bool) {
	if v, ok := c.Get(ActorKey); ok {
		if actor, ok := v.(shared.Actor); ok {
			return actor, true
		}
	}
	return shared.Actor{}, false
}

// GetTenantID returns the tenant resolved by Authenticate
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	if v, ok := c.Get(TenantIDKey); ok {
		if id, ok := v.(uuid.UUID); ok && id != uuid.Nil {
			return id, true
		}
	}
	return uuid.Nil, false
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

func actorFromClaims(claims *auth.Claims) (shared.Actor, uuid.UUID, error) {
	tenantID, err := claims.GetTenantUUID()
	if err != nil {
		return shared.Actor{}, uuid.Nil, err
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		return shared.Actor{}, uuid.Nil, err
	}
	return shared.Actor{
		UserID:   userID,
		Username: claims.Username,
		Email:    claims.Email,
		IsStaff:  claims.IsStaff,
	}, tenantID, nil
}

func setActor(c *gin.Context, actor shared.Actor, tenantID uuid.UUID) {
	c.Set(ActorKey, actor)
	c.Set(TenantIDKey, tenantID)

	ctx := logger.WithTenantID(c.Request.Context(), tenantID.String())
	ctx = logger.WithActor(ctx, actor.Name())
	c.Request = c.Request.WithContext(ctx)
}

func abortUnauthorized(c *gin.Context, err error) {
	code := dto.ErrCodeTokenInvalid
	message := "Invalid token"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code = dto.ErrCodeTokenExpired
		message = "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		message = "Token is not yet valid"
	case errors.Is(err, auth.ErrMissingTenantID), errors.Is(err, auth.ErrMissingUserID), errors.Is(err, auth.ErrInvalidClaims):
		message = "Token claims are incomplete"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}
