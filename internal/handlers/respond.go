package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/teamtask-api/internal/auth"
	"github.com/yukikurage/teamtask-api/internal/authz"
	apierrors "github.com/yukikurage/teamtask-api/internal/errors"
	"github.com/yukikurage/teamtask-api/internal/middleware"
	"github.com/yukikurage/teamtask-api/internal/repository"
	"github.com/yukikurage/teamtask-api/internal/services"
)

// respondError maps service and store errors onto HTTP responses. Anything
// unexpected is logged and reported as a plain 500.
func respondError(c *gin.Context, log *logrus.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrPasswordNotSet),
		errors.Is(err, services.ErrSetupLinkInvalid):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, repository.ErrForeignKey):
		apierrors.BadRequest(c, "Referenced record does not exist")

	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrSetupLinkExpired):
		apierrors.Unauthorized(c, err.Error())
	case auth.IsCredentialError(err):
		apierrors.Unauthorized(c, middleware.CredentialMessage(err))

	case errors.Is(err, authz.ErrForbidden),
		errors.Is(err, authz.ErrProtectedCreator):
		apierrors.Forbidden(c, err.Error())

	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrGroupNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrMemberNotFound),
		errors.Is(err, services.ErrMembersNotFound),
		errors.Is(err, services.ErrOwnerNotFound),
		errors.Is(err, services.ErrAssignedGroupAbsent):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		apierrors.NotFound(c, "")

	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrUserOwnsGroups),
		errors.Is(err, services.ErrPasswordAlreadySet):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, repository.ErrDuplicate):
		apierrors.Conflict(c, "")

	case errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks):
		apierrors.RespondWithError(c, http.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())
	case errors.Is(err, services.ErrEmailDelivery):
		log.WithError(err).Warn("email delivery failed")
		apierrors.ServiceUnavailable(c, "Failed to send email, please retry")
	case errors.Is(err, repository.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		log.WithError(err).Warn("store unavailable")
		apierrors.ServiceUnavailable(c, "")

	default:
		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("request failed")
		apierrors.InternalError(c)
	}
}

// bindJSON decodes the body, answering 400 on malformed JSON.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		apierrors.BadRequest(c, "")
		return false
	}
	return true
}

// actorOrAbort returns the authenticated actor, answering 401 if RequireAuth
// did not run.
func actorOrAbort(c *gin.Context) (authz.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
	}
	return actor, ok
}

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondList(c *gin.Context, data any, count int64) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"count":   count,
	})
}

func respondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
	})
}
