package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"campus-server/services/media-api/internal/domain"
	authvalidator "campus-server/services/media-api/internal/infrastructure/auth"
)

const principalContextKey = "principal"

// AuthMiddleware resolves the caller's principal from a bearer token.
// Requests without credentials continue as anonymous: playback in public
// courses carries no session, and each endpoint decides what anonymity
// means for it.
func AuthMiddleware(validator *authvalidator.TokenValidator, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" || validator == nil {
			setPrincipal(c, domain.Principal{AuthMethod: domain.AuthMethodAnonymous})
			c.Next()
			return
		}

		claims, err := validator.Validate(c.Request.Context(), token)
		if err != nil {
			// invalid credentials degrade to anonymous rather than failing
			// the whole request
			logger.Warn().Err(err).Str("path", c.FullPath()).Msg("token validation failed")
			setPrincipal(c, domain.Principal{AuthMethod: domain.AuthMethodAnonymous})
			c.Next()
			return
		}

		setPrincipal(c, domain.Principal{
			ID:         claims.Subject,
			AuthMethod: domain.AuthMethodJWT,
			Subject:    claims.Subject,
			Issuer:     claims.Issuer,
			Username:   claims.PreferredUsername,
			Email:      claims.Email,
		})
		c.Next()
	}
}

// PrincipalFromContext returns the resolved principal. The zero principal is
// returned for requests that never passed the auth middleware.
func PrincipalFromContext(c *gin.Context) domain.Principal {
	val, ok := c.Get(principalContextKey)
	if !ok {
		return domain.Principal{AuthMethod: domain.AuthMethodAnonymous}
	}
	principal, ok := val.(domain.Principal)
	if !ok {
		return domain.Principal{AuthMethod: domain.AuthMethodAnonymous}
	}
	return principal
}

func setPrincipal(c *gin.Context, principal domain.Principal) {
	c.Set(principalContextKey, principal)
	if principal.ID != "" {
		c.Writer.Header().Set("X-Principal-Id", principal.ID)
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
