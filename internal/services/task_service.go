package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/teamtask-api/internal/authz"
	"github.com/yukikurage/teamtask-api/internal/constants"
	"github.com/yukikurage/teamtask-api/internal/dto"
	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/repository"
	"github.com/yukikurage/teamtask-api/internal/utils"
)

var (
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo  repository.TaskRepository
	userRepo  repository.UserRepository
	policy    *authz.Policy
	suggester TaskSuggester
	now       func() time.Time
}

// NewTaskService creates a new TaskService. suggester may be nil when AI
// suggestions are not configured.
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, policy *authz.Policy, suggester TaskSuggester) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		userRepo:  userRepo,
		policy:    policy,
		suggester: suggester,
		now:       time.Now,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Status     string
	Pagination utils.PaginationParams
}

// CreateTaskInput represents input for creating a task. Without an owner or
// a group the task belongs to its creator.
type CreateTaskInput struct {
	Title       string     `json:"title" validate:"required,min=3,max=255"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	OwnerUserID *uint64    `json:"ownerUserId"`
	GroupID     *uint64    `json:"groupId"`
}

// UpdateTaskInput represents input for updating a task. Absent fields are
// untouched; null clears the optional ones.
type UpdateTaskInput struct {
	Title       dto.Nullable[string]    `json:"title"`
	Description dto.Nullable[string]    `json:"description"`
	Status      dto.Nullable[string]    `json:"status"`
	DueDate     dto.Nullable[time.Time] `json:"dueDate"`
	OwnerUserID dto.Nullable[uint64]    `json:"ownerUserId"`
	GroupID     dto.Nullable[uint64]    `json:"groupId"`
}

// GenerateTasksInput represents input for AI task generation
type GenerateTasksInput struct {
	Text string `json:"text" validate:"required,max=10000"`
}

// List returns the tasks the actor may read: all of them for admins, own
// and group tasks otherwise
func (s *TaskService) List(ctx context.Context, actor authz.Actor, input ListTasksInput) ([]models.Task, int64, error) {
	scope, err := s.policy.TaskReadScope(ctx, actor)
	if err != nil {
		return nil, 0, err
	}
	return s.list(ctx, scope, input)
}

// ListMine returns own and group tasks regardless of role
func (s *TaskService) ListMine(ctx context.Context, actor authz.Actor, input ListTasksInput) ([]models.Task, int64, error) {
	scope, err := s.policy.PersonalScope(ctx, actor)
	if err != nil {
		return nil, 0, err
	}
	return s.list(ctx, scope, input)
}

func (s *TaskService) list(ctx context.Context, scope authz.Scope, input ListTasksInput) ([]models.Task, int64, error) {
	filter := filterFor(scope)
	filter.Pagination = input.Pagination

	if input.Status != "" {
		status, err := parseStatus(input.Status)
		if err != nil {
			return nil, 0, err
		}
		filter.Status = &status
	}

	tasks, total, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// Stats counts the tasks the actor may read
func (s *TaskService) Stats(ctx context.Context, actor authz.Actor) (*models.TaskStats, error) {
	scope, err := s.policy.TaskReadScope(ctx, actor)
	if err != nil {
		return nil, err
	}
	stats, err := s.taskRepo.Stats(ctx, filterFor(scope))
	if err != nil {
		return nil, fmt.Errorf("failed to compute task stats: %w", err)
	}
	return stats, nil
}

func filterFor(scope authz.Scope) repository.TaskFilter {
	return repository.TaskFilter{
		Unrestricted: scope.Unrestricted,
		OwnerUserID:  scope.UserID,
		GroupIDs:     scope.GroupIDs,
	}
}

func parseStatus(value string) (models.TaskStatus, error) {
	status := models.TaskStatus(strings.TrimSpace(value))
	if !status.Valid() {
		return "", invalid("status must be one of: pending in_progress done")
	}
	return status, nil
}

// Get retrieves a task by ID
func (s *TaskService) Get(ctx context.Context, actor authz.Actor, id uint64) (*models.Task, error) {
	task, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(ctx, actor, authz.ActionRead, authz.TaskResource(task)); err != nil {
		return nil, err
	}
	return task, nil
}

// Create creates a new pending task
func (s *TaskService) Create(ctx context.Context, actor authz.Actor, input CreateTaskInput) (*models.Task, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	ownerID := input.OwnerUserID
	if ownerID == nil && input.GroupID == nil {
		self := actor.ID
		ownerID = &self
	}

	if err := s.checkAssignment(ctx, ownerID, input.GroupID); err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(ctx, actor, authz.ActionCreate, authz.NewTaskResource(ownerID, input.GroupID)); err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:       input.Title,
		Description: trimOptional(input.Description),
		Status:      models.TaskStatusPending,
		OwnerUserID: ownerID,
		GroupID:     input.GroupID,
		DueDate:     input.DueDate,
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return nil, invalid("ownerUserId or groupId does not reference an existing record")
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// checkAssignment verifies that the referenced owner and group exist
func (s *TaskService) checkAssignment(ctx context.Context, ownerID, groupID *uint64) error {
	if ownerID != nil {
		if _, err := s.userRepo.FindByID(ctx, *ownerID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrOwnerNotFound
			}
			return fmt.Errorf("failed to find owner: %w", err)
		}
	}
	if groupID != nil {
		exists, err := s.taskRepo.GroupExists(ctx, *groupID)
		if err != nil {
			return fmt.Errorf("failed to find group: %w", err)
		}
		if !exists {
			return ErrAssignedGroupAbsent
		}
	}
	return nil
}

// Update applies the present fields. Changing the owner, the group or the
// due date needs the admin role.
func (s *TaskService) Update(ctx context.Context, actor authz.Actor, id uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.policy.Authorize(ctx, actor, authz.ActionUpdate, authz.TaskResource(task)); err != nil {
		return nil, err
	}
	ownerChanged := input.OwnerUserID.Set && !sameID(task.OwnerUserID, input.OwnerUserID.Ptr())
	groupChanged := input.GroupID.Set && !sameID(task.GroupID, input.GroupID.Ptr())
	if ownerChanged || groupChanged {
		if err := s.policy.Authorize(ctx, actor, authz.ActionReassign, authz.TaskResource(task)); err != nil {
			return nil, err
		}
	}
	if input.DueDate.Set && !sameTime(task.DueDate, input.DueDate.Ptr()) {
		if err := s.policy.Authorize(ctx, actor, authz.ActionReschedule, authz.TaskResource(task)); err != nil {
			return nil, err
		}
	}

	if input.Title.Set {
		title := strings.TrimSpace(input.Title.Value)
		if err := validateField("title", title, "required,min=3,max=255"); err != nil {
			return nil, err
		}
		task.Title = title
	}
	if input.Description.Set {
		task.Description = trimOptional(input.Description.Ptr())
	}
	if input.Status.Set {
		if !input.Status.Valid {
			return nil, invalid("status is required")
		}
		status, err := parseStatus(input.Status.Value)
		if err != nil {
			return nil, err
		}
		task.Status = status
	}
	if input.DueDate.Set {
		task.DueDate = input.DueDate.Ptr()
	}

	if ownerChanged || groupChanged {
		ownerID, groupID := task.OwnerUserID, task.GroupID
		if ownerChanged {
			ownerID = input.OwnerUserID.Ptr()
		}
		if groupChanged {
			groupID = input.GroupID.Ptr()
		}
		if ownerID == nil && groupID == nil {
			return nil, invalid("task must keep an owner or a group")
		}

		var newOwner, newGroup *uint64
		if ownerChanged {
			newOwner = ownerID
		}
		if groupChanged {
			newGroup = groupID
		}
		if err := s.checkAssignment(ctx, newOwner, newGroup); err != nil {
			return nil, err
		}
		task.OwnerUserID, task.GroupID = ownerID, groupID
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrTaskNotFound
		case errors.Is(err, repository.ErrForeignKey):
			return nil, invalid("ownerUserId or groupId does not reference an existing record")
		default:
			return nil, fmt.Errorf("failed to update task: %w", err)
		}
	}

	return task, nil
}

func sameID(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// Delete hard deletes a task
func (s *TaskService) Delete(ctx context.Context, actor authz.Actor, id uint64) error {
	task, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.Authorize(ctx, actor, authz.ActionDelete, authz.TaskResource(task)); err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// GenerateTasks uses AI to suggest tasks from text. Nothing is stored.
func (s *TaskService) GenerateTasks(ctx context.Context, input GenerateTasksInput) ([]GeneratedTask, error) {
	if s.suggester == nil {
		return nil, ErrAIServiceNotConfigured
	}

	input.Text = strings.TrimSpace(input.Text)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	aiTasks, err := s.suggester.SuggestTasks(ctx, input.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		aiTasks = aiTasks[:constants.MaxAIGeneratedTasks]
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	cutoff := s.now().Add(-24 * time.Hour)
	for _, aiTask := range aiTasks {
		aiTask.Title = strings.TrimSpace(aiTask.Title)
		if len([]rune(aiTask.Title)) < constants.MinTitleLength {
			continue
		}
		if len([]rune(aiTask.Title)) > constants.MaxTitleLength {
			aiTask.Title = string([]rune(aiTask.Title)[:constants.MaxTitleLength])
		}

		if aiTask.DueDate != nil && aiTask.DueDate.Before(cutoff) {
			aiTask.DueDate = nil
		}

		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}

func (s *TaskService) find(ctx context.Context, id uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}
