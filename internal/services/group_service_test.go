package services

import (
	"github.com/yukikurage/teamtask-api/internal/authz"
	"github.com/yukikurage/teamtask-api/internal/dto"
	"github.com/yukikurage/teamtask-api/internal/models"
)

func memberIDs(users []models.User) []uint64 {
	ids := make([]uint64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}

func (suite *ServiceTestSuite) TestCreateGroup_CreatorIsMember() {
	admin := suite.createUser("admin", models.RoleAdmin)
	bob := suite.createUser("bob", models.RoleMember)
	carol := suite.createUser("carol", models.RoleMember)

	detail, err := suite.groupService.Create(suite.ctx, admin, CreateGroupInput{
		Name:    "Eng",
		Members: []uint64{bob.ID, carol.ID, bob.ID},
	})
	suite.Require().NoError(err)

	suite.Equal(admin.ID, detail.Group.CreatorID)
	suite.ElementsMatch([]uint64{admin.ID, bob.ID, carol.ID}, memberIDs(detail.Members))

	err = suite.groupService.RemoveMember(suite.ctx, admin, detail.Group.ID, admin.ID)
	suite.ErrorIs(err, authz.ErrProtectedCreator)

	isMember, err := suite.groupRepo.IsMember(suite.ctx, admin.ID, detail.Group.ID)
	suite.Require().NoError(err)
	suite.True(isMember)
}

func (suite *ServiceTestSuite) TestCreateGroup_Validation() {
	admin := suite.createUser("admin", models.RoleAdmin)
	member := suite.createUser("member", models.RoleMember)

	_, err := suite.groupService.Create(suite.ctx, admin, CreateGroupInput{Name: " ab "})
	suite.True(isValidation(err))

	_, err = suite.groupService.Create(suite.ctx, admin, CreateGroupInput{Name: "Eng", Members: []uint64{999}})
	suite.ErrorIs(err, ErrMembersNotFound)

	_, err = suite.groupService.Create(suite.ctx, member, CreateGroupInput{Name: "Eng"})
	suite.ErrorIs(err, authz.ErrForbidden)
}

func (suite *ServiceTestSuite) TestGroupMembership() {
	admin := suite.createUser("admin", models.RoleAdmin)
	bob := suite.createUser("bob", models.RoleMember)
	carol := suite.createUser("carol", models.RoleMember)
	group := suite.createGroup(admin, "Eng", bob.ID)

	suite.Require().NoError(suite.groupService.AddMember(suite.ctx, admin, group.ID, carol.ID))
	suite.ErrorIs(suite.groupService.AddMember(suite.ctx, admin, group.ID, carol.ID), ErrAlreadyMember)
	suite.ErrorIs(suite.groupService.AddMember(suite.ctx, admin, group.ID, 999), ErrUserNotFound)
	suite.ErrorIs(suite.groupService.AddMember(suite.ctx, admin, 999, carol.ID), ErrGroupNotFound)
	suite.ErrorIs(suite.groupService.AddMember(suite.ctx, bob, group.ID, carol.ID), authz.ErrForbidden)

	suite.Require().NoError(suite.groupService.RemoveMember(suite.ctx, admin, group.ID, carol.ID))
	suite.ErrorIs(suite.groupService.RemoveMember(suite.ctx, admin, group.ID, carol.ID), ErrMemberNotFound)
}

func (suite *ServiceTestSuite) TestGetGroup() {
	admin := suite.createUser("admin", models.RoleAdmin)
	bob := suite.createUser("bob", models.RoleMember)
	outsider := suite.createUser("outsider", models.RoleMember)
	group := suite.createGroup(admin, "Eng", bob.ID)

	detail, err := suite.groupService.Get(suite.ctx, bob, group.ID)
	suite.Require().NoError(err)
	suite.Len(detail.Members, 2)

	_, err = suite.groupService.Get(suite.ctx, outsider, group.ID)
	suite.ErrorIs(err, authz.ErrForbidden)

	_, err = suite.groupService.Get(suite.ctx, outsider, 999)
	suite.ErrorIs(err, ErrGroupNotFound)
}

func (suite *ServiceTestSuite) TestListGroups() {
	admin := suite.createUser("admin", models.RoleAdmin)
	bob := suite.createUser("bob", models.RoleMember)
	suite.createGroup(admin, "First", bob.ID)
	suite.createGroup(admin, "Second")

	mine, err := suite.groupService.ListMine(suite.ctx, bob)
	suite.Require().NoError(err)
	suite.Require().Len(mine, 1)
	suite.Equal("First", mine[0].Name)

	all, err := suite.groupService.ListAll(suite.ctx, admin)
	suite.Require().NoError(err)
	suite.Len(all, 2)

	_, err = suite.groupService.ListAll(suite.ctx, bob)
	suite.ErrorIs(err, authz.ErrForbidden)

	users, err := suite.groupService.AvailableUsers(suite.ctx, admin)
	suite.Require().NoError(err)
	suite.Len(users, 2)
}

func (suite *ServiceTestSuite) TestUpdateGroup_ReplacesMembersKeepingCreator() {
	admin := suite.createUser("admin", models.RoleAdmin)
	bob := suite.createUser("bob", models.RoleMember)
	carol := suite.createUser("carol", models.RoleMember)
	group := suite.createGroup(admin, "Eng", bob.ID)

	members := []uint64{carol.ID}
	detail, err := suite.groupService.Update(suite.ctx, admin, group.ID, UpdateGroupInput{
		Name:        ptr("Engineering"),
		Description: dto.Value("Builders"),
		Members:     &members,
	})
	suite.Require().NoError(err)

	suite.Equal("Engineering", detail.Group.Name)
	suite.Require().NotNil(detail.Group.Description)
	suite.Equal("Builders", *detail.Group.Description)
	suite.ElementsMatch([]uint64{admin.ID, carol.ID}, memberIDs(detail.Members))

	detail, err = suite.groupService.Update(suite.ctx, admin, group.ID, UpdateGroupInput{Description: dto.Null[string]()})
	suite.Require().NoError(err)
	suite.Nil(detail.Group.Description)
	suite.Len(detail.Members, 2)
}

func (suite *ServiceTestSuite) TestDeleteGroup_DetachesTasks() {
	admin := suite.createUser("admin", models.RoleAdmin)
	group := suite.createGroup(admin, "Eng")
	task := suite.createTask("Group task", nil, &group.ID)

	suite.Require().NoError(suite.groupService.Delete(suite.ctx, admin, group.ID))
	suite.ErrorIs(suite.groupService.Delete(suite.ctx, admin, group.ID), ErrGroupNotFound)

	reloaded, err := suite.taskRepo.FindByID(suite.ctx, task.ID)
	suite.Require().NoError(err)
	suite.Nil(reloaded.GroupID)
}
