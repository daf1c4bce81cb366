package dto

import (
	"time"

	"github.com/yukikurage/teamtask-api/internal/models"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          uint64            `json:"id"`
	Title       string            `json:"title"`
	Description *string           `json:"description"`
	Status      models.TaskStatus `json:"status"`
	OwnerUserID *uint64           `json:"ownerUserId"`
	GroupID     *uint64           `json:"groupId"`
	CreatedAt   time.Time         `json:"createdAt"`
	DueDate     *time.Time        `json:"dueDate"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		OwnerUserID: task.OwnerUserID,
		GroupID:     task.GroupID,
		CreatedAt:   task.CreatedAt,
		DueDate:     task.DueDate,
	}
}

func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	out := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		out[i] = ToTaskDTO(t)
	}
	return out
}

// TaskListResponse is the body of every task list endpoint
type TaskListResponse struct {
	Success bool      `json:"success"`
	Data    []TaskDTO `json:"data"`
	Count   int64     `json:"count"`
}

func ToTaskListResponse(tasks []models.Task, total int64) TaskListResponse {
	return TaskListResponse{
		Success: true,
		Data:    ToTaskDTOs(tasks),
		Count:   total,
	}
}
