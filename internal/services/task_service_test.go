package services

import (
	"errors"
	"time"

	"github.com/yukikurage/teamtask-api/internal/authz"
	"github.com/yukikurage/teamtask-api/internal/dto"
	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/utils"
)

func (suite *ServiceTestSuite) TestListTasks_ScopedForMembers() {
	admin := suite.createUser("admin", models.RoleAdmin)
	alice := suite.createUser("alice", models.RoleMember)
	bob := suite.createUser("bob", models.RoleMember)
	group := suite.createGroup(admin, "Eng", alice.ID)

	own := suite.createTask("Alice task", &alice.ID, nil)
	shared := suite.createTask("Group task", nil, &group.ID)
	suite.createTask("Bob task", &bob.ID, nil)

	tasks, total, err := suite.taskService.List(suite.ctx, alice, ListTasksInput{})
	suite.Require().NoError(err)
	suite.Equal(int64(2), total)
	ids := []uint64{}
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	suite.ElementsMatch([]uint64{own.ID, shared.ID}, ids)

	_, total, err = suite.taskService.List(suite.ctx, admin, ListTasksInput{})
	suite.Require().NoError(err)
	suite.Equal(int64(3), total)

	_, total, err = suite.taskService.ListMine(suite.ctx, admin, ListTasksInput{})
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
}

func (suite *ServiceTestSuite) TestListTasks_StatusAndPagination() {
	alice := suite.createUser("alice", models.RoleMember)
	for _, title := range []string{"First", "Second", "Third"} {
		suite.createTask(title, &alice.ID, nil)
	}

	tasks, total, err := suite.taskService.List(suite.ctx, alice, ListTasksInput{
		Pagination: utils.PaginationParams{Page: 1, Limit: 2},
	})
	suite.Require().NoError(err)
	suite.Equal(int64(3), total)
	suite.Len(tasks, 2)
	suite.Equal("Third", tasks[0].Title)

	_, total, err = suite.taskService.List(suite.ctx, alice, ListTasksInput{Status: "done"})
	suite.Require().NoError(err)
	suite.Zero(total)

	_, _, err = suite.taskService.List(suite.ctx, alice, ListTasksInput{Status: "archived"})
	suite.True(isValidation(err))
}

func (suite *ServiceTestSuite) TestCreateTask_DefaultsToPending() {
	admin := suite.createUser("admin", models.RoleAdmin)
	owner := suite.createUser("owner", models.RoleMember)

	task, err := suite.taskService.Create(suite.ctx, admin, CreateTaskInput{Title: "Buy milk", OwnerUserID: &owner.ID})
	suite.Require().NoError(err)

	suite.Equal(models.TaskStatusPending, task.Status)
	suite.Equal(owner.ID, *task.OwnerUserID)
	suite.Nil(task.GroupID)
}

func (suite *ServiceTestSuite) TestCreateTask_MemberDefaultsToSelf() {
	member := suite.createUser("member", models.RoleMember)
	other := suite.createUser("other", models.RoleMember)

	task, err := suite.taskService.Create(suite.ctx, member, CreateTaskInput{Title: "Write report"})
	suite.Require().NoError(err)
	suite.Equal(member.ID, *task.OwnerUserID)

	_, err = suite.taskService.Create(suite.ctx, member, CreateTaskInput{Title: "Write report", OwnerUserID: &other.ID})
	suite.ErrorIs(err, authz.ErrForbidden)
}

func (suite *ServiceTestSuite) TestCreateTask_Validation() {
	admin := suite.createUser("admin", models.RoleAdmin)

	_, err := suite.taskService.Create(suite.ctx, admin, CreateTaskInput{Title: "ab"})
	suite.Require().True(isValidation(err))
	suite.Equal("title must be at least 3 characters", err.Error())

	_, err = suite.taskService.Create(suite.ctx, admin, CreateTaskInput{Title: "Valid", OwnerUserID: ptr(uint64(999))})
	suite.ErrorIs(err, ErrOwnerNotFound)

	_, err = suite.taskService.Create(suite.ctx, admin, CreateTaskInput{Title: "Valid", GroupID: ptr(uint64(999))})
	suite.ErrorIs(err, ErrAssignedGroupAbsent)
}

func (suite *ServiceTestSuite) TestUpdateTask_MemberCannotTouchOthersTask() {
	member := suite.createUser("member", models.RoleMember)
	owner := suite.createUser("owner", models.RoleMember)
	task := suite.createTask("Not yours", &owner.ID, nil)

	_, err := suite.taskService.Update(suite.ctx, member, task.ID, UpdateTaskInput{Status: dto.Value("done")})
	suite.ErrorIs(err, authz.ErrForbidden)

	_, err = suite.taskService.Update(suite.ctx, member, 999, UpdateTaskInput{Status: dto.Value("done")})
	suite.ErrorIs(err, ErrTaskNotFound)
}

func (suite *ServiceTestSuite) TestUpdateTask_GroupMemberUpdatesContent() {
	admin := suite.createUser("admin", models.RoleAdmin)
	member := suite.createUser("member", models.RoleMember)
	group := suite.createGroup(admin, "Eng", member.ID)
	task := suite.createTask("Shared", nil, &group.ID)
	due := time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC)

	updated, err := suite.taskService.Update(suite.ctx, member, task.ID, UpdateTaskInput{
		Title:       dto.Value("Shared work"),
		Status:      dto.Value("in_progress"),
		Description: dto.Value("notes"),
		GroupID:     dto.Value(group.ID),
	})
	suite.Require().NoError(err)
	suite.Equal("Shared work", updated.Title)
	suite.Equal(models.TaskStatusInProgress, updated.Status)
	suite.Nil(updated.DueDate)

	_, err = suite.taskService.Update(suite.ctx, member, task.ID, UpdateTaskInput{DueDate: dto.Value(due)})
	suite.ErrorIs(err, authz.ErrForbidden)

	updated, err = suite.taskService.Update(suite.ctx, admin, task.ID, UpdateTaskInput{DueDate: dto.Value(due)})
	suite.Require().NoError(err)
	suite.True(due.Equal(*updated.DueDate))

	// An unchanged due date is not a reschedule
	_, err = suite.taskService.Update(suite.ctx, member, task.ID, UpdateTaskInput{DueDate: dto.Value(due), Status: dto.Value("done")})
	suite.Require().NoError(err)

	_, err = suite.taskService.Update(suite.ctx, member, task.ID, UpdateTaskInput{OwnerUserID: dto.Value(member.ID)})
	suite.ErrorIs(err, authz.ErrForbidden)

	_, err = suite.taskService.Update(suite.ctx, member, task.ID, UpdateTaskInput{Title: dto.Null[string]()})
	suite.True(isValidation(err))
}

func (suite *ServiceTestSuite) TestUpdateTask_OwnerCannotReschedule() {
	member := suite.createUser("member", models.RoleMember)
	task := suite.createTask("Mine", &member.ID, nil)

	_, err := suite.taskService.Update(suite.ctx, member, task.ID, UpdateTaskInput{
		DueDate: dto.Value(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)),
	})
	suite.ErrorIs(err, authz.ErrForbidden)

	stored, err := suite.taskService.Get(suite.ctx, member, task.ID)
	suite.Require().NoError(err)
	suite.Nil(stored.DueDate)
}

func (suite *ServiceTestSuite) TestUpdateTask_AdminReassigns() {
	admin := suite.createUser("admin", models.RoleAdmin)
	alice := suite.createUser("alice", models.RoleMember)
	group := suite.createGroup(admin, "Eng")
	task := suite.createTask("Move me", &alice.ID, nil)

	updated, err := suite.taskService.Update(suite.ctx, admin, task.ID, UpdateTaskInput{
		OwnerUserID: dto.Null[uint64](),
		GroupID:     dto.Value(group.ID),
	})
	suite.Require().NoError(err)
	suite.Nil(updated.OwnerUserID)
	suite.Equal(group.ID, *updated.GroupID)

	_, err = suite.taskService.Update(suite.ctx, admin, task.ID, UpdateTaskInput{GroupID: dto.Null[uint64]()})
	suite.True(isValidation(err))

	_, err = suite.taskService.Update(suite.ctx, admin, task.ID, UpdateTaskInput{OwnerUserID: dto.Value(uint64(999))})
	suite.ErrorIs(err, ErrOwnerNotFound)
}

func (suite *ServiceTestSuite) TestDeleteTask() {
	admin := suite.createUser("admin", models.RoleAdmin)
	member := suite.createUser("member", models.RoleMember)
	task := suite.createTask("Delete me", &member.ID, nil)

	suite.ErrorIs(suite.taskService.Delete(suite.ctx, member, task.ID), authz.ErrForbidden)
	suite.Require().NoError(suite.taskService.Delete(suite.ctx, admin, task.ID))
	suite.ErrorIs(suite.taskService.Delete(suite.ctx, admin, task.ID), ErrTaskNotFound)
}

func (suite *ServiceTestSuite) TestTaskStats() {
	admin := suite.createUser("admin", models.RoleAdmin)
	alice := suite.createUser("alice", models.RoleMember)
	group := suite.createGroup(admin, "Eng")
	suite.createTask("Own", &alice.ID, nil)
	suite.createTask("Group", nil, &group.ID)

	stats, err := suite.taskService.Stats(suite.ctx, admin)
	suite.Require().NoError(err)
	suite.Equal(int64(2), stats.Total)
	suite.Equal(int64(2), stats.Pending)
	suite.Equal(int64(1), stats.AssignedUser)
	suite.Equal(int64(1), stats.AssignedGroup)

	stats, err = suite.taskService.Stats(suite.ctx, alice)
	suite.Require().NoError(err)
	suite.Equal(int64(1), stats.Total)
}

func (suite *ServiceTestSuite) TestGenerateTasks() {
	_, err := suite.taskService.GenerateTasks(suite.ctx, GenerateTasksInput{Text: "plan the offsite"})
	suite.ErrorIs(err, ErrAIServiceNotConfigured)

	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-72 * time.Hour)
	future := now.Add(48 * time.Hour)
	suite.taskService.suggester = &stubSuggester{tasks: []GeneratedTask{
		{Title: "Book venue", DueDate: &future},
		{Title: "  "},
		{Title: "Send invites", DueDate: &past},
	}}
	suite.taskService.now = func() time.Time { return now }

	tasks, err := suite.taskService.GenerateTasks(suite.ctx, GenerateTasksInput{Text: "plan the offsite"})
	suite.Require().NoError(err)
	suite.Require().Len(tasks, 2)
	suite.Equal("Book venue", tasks[0].Title)
	suite.NotNil(tasks[0].DueDate)
	suite.Nil(tasks[1].DueDate)

	suite.taskService.suggester = &stubSuggester{err: errors.New("rate limited")}
	_, err = suite.taskService.GenerateTasks(suite.ctx, GenerateTasksInput{Text: "plan the offsite"})
	suite.Error(err)
}
