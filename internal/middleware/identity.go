package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/myhealth/scheduling-api/pkg/auth"
)

// Identity resolves the Bearer token into an actor on the request
// context. The actor is optional for most routes; confidential record
// access and audit attribution consume it downstream. An invalid token is
// treated as anonymous, not rejected, since authentication lives in the
// upstream identity service.
func Identity(verifier *auth.TokenVerifier, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.Next()
			return
		}

		actor, err := verifier.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			logger.Debug().Err(err).Msg("bearer token rejected, continuing anonymous")
			c.Next()
			return
		}

		c.Request = c.Request.WithContext(auth.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}
