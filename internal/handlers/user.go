package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/teamtask-api/internal/dto"
	"github.com/yukikurage/teamtask-api/internal/middleware"
	"github.com/yukikurage/teamtask-api/internal/services"
)

// UserHandler serves admin user management and password setup
type UserHandler struct {
	userService *services.UserService
	log         *logrus.Logger
}

func NewUserHandler(userService *services.UserService, log *logrus.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		log:         log,
	}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	users, err := h.userService.List(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondList(c, dto.ToUserDTOs(users), int64(len(users)))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	user, err := h.userService.Get(c.Request.Context(), actor, middleware.GetIDParam(c, "id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondData(c, http.StatusOK, dto.ToUserDTO(*user))
}

// CreateUser creates an account and emails its password setup link
func (h *UserHandler) CreateUser(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req services.CreateUserInput
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Create(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondData(c, http.StatusCreated, dto.ToUserDTO(*user))
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req services.UpdateUserInput
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Update(c.Request.Context(), actor, middleware.GetIDParam(c, "id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondData(c, http.StatusOK, dto.ToUserDTO(*user))
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), actor, middleware.GetIDParam(c, "id")); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondMessage(c, "User deleted successfully")
}

func (h *UserHandler) ResendSetupEmail(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	if err := h.userService.ResendSetupEmail(c.Request.Context(), actor, middleware.GetIDParam(c, "id")); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondMessage(c, "Email sent")
}

// SetPassword consumes a password setup link. No session is required.
func (h *UserHandler) SetPassword(c *gin.Context) {
	var req services.SetPasswordInput
	if !bindJSON(c, &req) {
		return
	}

	if err := h.userService.SetPassword(c.Request.Context(), req); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondMessage(c, "Password set successfully")
}
