package middleware

import (
	"errors"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/teamtask-api/internal/auth"
	"github.com/yukikurage/teamtask-api/internal/authz"
	"github.com/yukikurage/teamtask-api/internal/constants"
	apierrors "github.com/yukikurage/teamtask-api/internal/errors"
	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/repository"
)

// TokenFromRequest returns the presented credential. The Authorization
// header wins over the session cookie, which wins over the token query
// parameter.
func TokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, constants.BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, constants.BearerPrefix))
	}

	if _, ok := c.Get(sessions.DefaultKey); ok {
		if token, ok := sessions.Default(c).Get(constants.SessionTokenKey).(string); ok && token != "" {
			return token
		}
	}

	return c.Query(constants.TokenQueryParam)
}

// CredentialMessage is the client-facing text for a rejected credential.
func CredentialMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "Token expired"
	case errors.Is(err, auth.ErrTokenRevoked):
		return "Token revoked"
	case errors.Is(err, auth.ErrTokenMalformed):
		return "Invalid token"
	case errors.Is(err, auth.ErrUnknownIdentity):
		return "User no longer exists"
	default:
		return apierrors.MsgUnauthorized
	}
}

// RequireAuth resolves the request credential and stores the actor in the
// context. Requests without a valid credential get 401.
func RequireAuth(resolver *auth.Resolver, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := resolver.Resolve(c.Request.Context(), TokenFromRequest(c))
		if err != nil {
			switch {
			case auth.IsCredentialError(err):
				apierrors.Unauthorized(c, CredentialMessage(err))
			case errors.Is(err, repository.ErrUnavailable):
				apierrors.ServiceUnavailable(c, "")
			default:
				log.WithError(err).Error("failed to resolve credential")
				apierrors.InternalError(c)
			}
			return
		}

		c.Set(constants.ContextKeyActor, identity.Actor)
		c.Set(constants.ContextKeyUserID, identity.Actor.ID)
		c.Set(constants.ContextKeyUser, identity.User)
		c.Set(constants.ContextKeyClaims, identity.Claims)
		c.Next()
	}
}

// RequireAdmin rejects authenticated non-admins with 403. It must run after
// RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}
		if !actor.IsAdmin() {
			apierrors.Forbidden(c, "")
			return
		}
		c.Next()
	}
}

// GetActor retrieves the current actor from context
func GetActor(c *gin.Context) (authz.Actor, bool) {
	actor, ok := c.Get(constants.ContextKeyActor)
	if !ok {
		return authz.Actor{}, false
	}
	a, ok := actor.(authz.Actor)
	return a, ok
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint64)
	return id, ok
}

// GetUser retrieves the user row loaded for this request
func GetUser(c *gin.Context) (*models.User, bool) {
	user, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil, false
	}
	u, ok := user.(*models.User)
	return u, ok
}

// GetClaims retrieves the verified token claims from context
func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	claims, exists := c.Get(constants.ContextKeyClaims)
	if !exists {
		return nil, false
	}
	cl, ok := claims.(*auth.Claims)
	return cl, ok
}
