package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/teamtask-api/internal/dto"
	"github.com/yukikurage/teamtask-api/internal/middleware"
	"github.com/yukikurage/teamtask-api/internal/services"
	"github.com/yukikurage/teamtask-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
	log         *logrus.Logger
}

func NewTaskHandler(taskService *services.TaskService, log *logrus.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		log:         log,
	}
}

func listInput(c *gin.Context) services.ListTasksInput {
	return services.ListTasksInput{
		Status:     c.Query("status"),
		Pagination: utils.GetPaginationParams(c),
	}
}

// ListTasks returns every task the current user may read
func (h *TaskHandler) ListTasks(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	tasks, total, err := h.taskService.List(c.Request.Context(), actor, listInput(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, total))
}

// ListMyTasks returns own and group tasks, for admins too
func (h *TaskHandler) ListMyTasks(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	tasks, total, err := h.taskService.ListMine(c.Request.Context(), actor, listInput(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, total))
}

// GetStats counts the readable tasks by status and assignment
func (h *TaskHandler) GetStats(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	stats, err := h.taskService.Stats(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondData(c, http.StatusOK, stats)
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), actor, middleware.GetIDParam(c, "id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondData(c, http.StatusOK, dto.ToTaskDTO(*task))
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req services.CreateTaskInput
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondData(c, http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask applies a partial update. Keys present with null clear the
// field.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req services.UpdateTaskInput
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), actor, middleware.GetIDParam(c, "id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondData(c, http.StatusOK, dto.ToTaskDTO(*task))
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), actor, middleware.GetIDParam(c, "id")); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondMessage(c, "Task deleted successfully")
}

// GenerateTasks suggests tasks from free text. Suggestions are not saved.
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	if _, ok := actorOrAbort(c); !ok {
		return
	}

	var req services.GenerateTasksInput
	if !bindJSON(c, &req) {
		return
	}

	generated, err := h.taskService.GenerateTasks(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondList(c, generated, int64(len(generated)))
}
