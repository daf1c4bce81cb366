package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/teamtask-api/internal/dto"
	apierrors "github.com/yukikurage/teamtask-api/internal/errors"
	"github.com/yukikurage/teamtask-api/internal/middleware"
	"github.com/yukikurage/teamtask-api/internal/services"
)

// GroupHandler serves group and membership endpoints
type GroupHandler struct {
	groupService *services.GroupService
	log          *logrus.Logger
}

func NewGroupHandler(groupService *services.GroupService, log *logrus.Logger) *GroupHandler {
	return &GroupHandler{
		groupService: groupService,
		log:          log,
	}
}

type memberRequest struct {
	UserID uint64 `json:"userId"`
}

// memberID reads userId from the body, or from the query string for
// clients that cannot send a body with DELETE.
func memberID(c *gin.Context) (uint64, bool) {
	var req memberRequest
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			apierrors.BadRequest(c, "")
			return 0, false
		}
	}

	if req.UserID == 0 {
		if raw := c.Query("userId"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				apierrors.BadRequest(c, "Invalid user ID")
				return 0, false
			}
			req.UserID = id
		}
	}

	if req.UserID == 0 {
		apierrors.BadRequest(c, "userId is required")
		return 0, false
	}
	return req.UserID, true
}

// ListGroups returns the groups the current user belongs to
func (h *GroupHandler) ListGroups(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	groups, err := h.groupService.ListMine(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondList(c, dto.ToGroupSummaryDTOs(groups), int64(len(groups)))
}

// ListAllGroups returns every group
func (h *GroupHandler) ListAllGroups(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	groups, err := h.groupService.ListAll(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondList(c, dto.ToGroupSummaryDTOs(groups), int64(len(groups)))
}

// ListAvailableUsers returns the users that can be added to groups
func (h *GroupHandler) ListAvailableUsers(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	users, err := h.groupService.AvailableUsers(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondList(c, dto.ToMemberDTOs(users), int64(len(users)))
}

func (h *GroupHandler) GetGroup(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	detail, err := h.groupService.Get(c.Request.Context(), actor, middleware.GetIDParam(c, "id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondData(c, http.StatusOK, dto.ToGroupDTO(*detail.Group, detail.Members))
}

func (h *GroupHandler) CreateGroup(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req services.CreateGroupInput
	if !bindJSON(c, &req) {
		return
	}

	detail, err := h.groupService.Create(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondData(c, http.StatusCreated, dto.ToGroupDTO(*detail.Group, detail.Members))
}

func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req services.UpdateGroupInput
	if !bindJSON(c, &req) {
		return
	}

	detail, err := h.groupService.Update(c.Request.Context(), actor, middleware.GetIDParam(c, "id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondData(c, http.StatusOK, dto.ToGroupDTO(*detail.Group, detail.Members))
}

func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	if err := h.groupService.Delete(c.Request.Context(), actor, middleware.GetIDParam(c, "id")); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondMessage(c, "Group deleted successfully")
}

func (h *GroupHandler) AddMember(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	userID, ok := memberID(c)
	if !ok {
		return
	}

	if err := h.groupService.AddMember(c.Request.Context(), actor, middleware.GetIDParam(c, "id"), userID); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondMessage(c, "Member added successfully")
}

// RemoveMember removes a user from the group. The creator cannot be removed.
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	userID, ok := memberID(c)
	if !ok {
		return
	}

	if err := h.groupService.RemoveMember(c.Request.Context(), actor, middleware.GetIDParam(c, "id"), userID); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondMessage(c, "Member removed successfully")
}
