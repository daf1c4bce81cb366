package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/teamtask-api/internal/auth"
	"github.com/yukikurage/teamtask-api/internal/constants"
	"github.com/yukikurage/teamtask-api/internal/dto"
	apierrors "github.com/yukikurage/teamtask-api/internal/errors"
	"github.com/yukikurage/teamtask-api/internal/middleware"
	"github.com/yukikurage/teamtask-api/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
	resolver    *auth.Resolver
	log         *logrus.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, resolver *auth.Resolver, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		resolver:    resolver,
		log:         log,
	}
}

// Register creates a member account and signs it in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterInput
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.startSession(c, http.StatusCreated, session)
}

// Login authenticates a user and initializes the session.
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginInput
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.startSession(c, http.StatusOK, session)
}

// startSession stores the token in the session cookie and returns it in
// the body for header-based clients.
func (h *AuthHandler) startSession(c *gin.Context, status int, session *services.Session) {
	store := sessions.Default(c)
	store.Set(constants.SessionTokenKey, session.Token)
	if err := store.Save(); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(status, gin.H{
		"success": true,
		"token":   session.Token,
		"user":    dto.ToUserDTO(*session.User),
	})
}

// Logout revokes the presented token and clears the session.
func (h *AuthHandler) Logout(c *gin.Context) {
	if claims, ok := middleware.GetClaims(c); ok {
		if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
			respondError(c, h.log, err)
			return
		}
	}

	store := sessions.Default(c)
	store.Clear()
	store.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := store.Save(); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondMessage(c, "Logged out successfully")
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, exists := middleware.GetUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    dto.ToUserDTO(*user),
	})
}

// Verify reports whether the presented credential is valid. It does its own
// resolution so that failures carry valid:false.
func (h *AuthHandler) Verify(c *gin.Context) {
	identity, err := h.resolver.Resolve(c.Request.Context(), middleware.TokenFromRequest(c))
	if err != nil {
		if !auth.IsCredentialError(err) {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"valid":   false,
			"error":   middleware.CredentialMessage(err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"valid":   true,
		"user":    dto.ToUserDTO(*identity.User),
	})
}
