package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/studentdesk/internal/app/models"
	"github.com/yigit/studentdesk/internal/pkg/apperrors"
	"github.com/yigit/studentdesk/internal/pkg/auth"
	"github.com/yigit/studentdesk/internal/pkg/logger"
)

const identityKey = "identity"

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService  *auth.JWTService
	revocations auth.RevocationStore
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService, revocations auth.RevocationStore) *AuthMiddleware {
	if revocations == nil {
		revocations = auth.NoopRevocationStore{}
	}
	return &AuthMiddleware{
		jwtService:  jwtService,
		revocations: revocations,
	}
}

// Authenticate validates the bearer token and stores the caller identity
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			HandleAPIError(c, apperrors.NewCustomError(apperrors.ErrUnauthorized, "Not authorized to access this route"))
			return
		}

		tokenString, err := auth.ExtractBearerToken(header)
		if err != nil {
			HandleAPIError(c, err)
			return
		}

		claims, err := m.jwtService.ValidateToken(tokenString)
		if err != nil {
			HandleAPIError(c, err)
			return
		}

		identity := claims.Identity()
		revoked, err := m.revocations.IsRevoked(c.Request.Context(), identity.UserID)
		if err != nil {
			// Fail open when the revocation store is unreachable.
			logger.Warn().Err(err).Str("userID", identity.UserID).Msg("Revocation check failed")
		} else if revoked {
			HandleAPIError(c, apperrors.NewCustomError(apperrors.ErrUnauthorized, "User no longer exists"))
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireRoles rejects callers whose role is not in roles. It must run after
// Authenticate.
func (m *AuthMiddleware) RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			HandleAPIError(c, apperrors.NewCustomError(apperrors.ErrUnauthorized, "Not authorized to access this route"))
			return
		}

		for _, role := range roles {
			if identity.Role == role {
				c.Next()
				return
			}
		}

		HandleAPIError(c, apperrors.NewForbiddenError("User role "+string(identity.Role)+" is not authorized to access this route"))
	}
}

// CurrentIdentity returns the identity stored by Authenticate
func CurrentIdentity(c *gin.Context) (models.Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return models.Identity{}, false
	}
	identity, ok := v.(models.Identity)
	return identity, ok
}
