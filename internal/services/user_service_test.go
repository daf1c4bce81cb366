package services

import (
	"errors"

	"github.com/yukikurage/teamtask-api/internal/authz"
	"github.com/yukikurage/teamtask-api/internal/models"
)

func (suite *ServiceTestSuite) TestCreateUser_SendsSetupEmail() {
	admin := suite.createUser("admin", models.RoleAdmin)

	user, err := suite.userService.Create(suite.ctx, admin, CreateUserInput{Name: "Dana", Email: "Dana@Example.com", Role: "utilisateur"})
	suite.Require().NoError(err)

	suite.Equal("dana@example.com", user.Email)
	suite.Equal(models.RoleMember, user.Role)
	suite.False(user.HasPassword())

	suite.Require().Len(suite.mailer.sent, 1)
	suite.Equal("dana@example.com", suite.mailer.sent[0].To)
	suite.Contains(suite.mailer.sent[0].Body, "http://app.test/set-password?token=")
}

func (suite *ServiceTestSuite) TestCreateUser_DuplicateEmail() {
	admin := suite.createUser("admin", models.RoleAdmin)

	_, err := suite.userService.Create(suite.ctx, admin, CreateUserInput{Name: "A", Email: "a@b.com"})
	suite.Require().NoError(err)

	_, err = suite.userService.Create(suite.ctx, admin, CreateUserInput{Name: "A", Email: "a@b.com"})
	suite.ErrorIs(err, ErrEmailTaken)
}

func (suite *ServiceTestSuite) TestCreateUser_MailFailureRollsBack() {
	admin := suite.createUser("admin", models.RoleAdmin)
	suite.mailer.err = errors.New("smtp down")

	_, err := suite.userService.Create(suite.ctx, admin, CreateUserInput{Name: "Dana", Email: "dana@example.com"})
	suite.ErrorIs(err, ErrEmailDelivery)

	var count int64
	suite.Require().NoError(suite.db.Model(&models.User{}).Where("email = ?", "dana@example.com").Count(&count).Error)
	suite.Zero(count)
}

func (suite *ServiceTestSuite) TestCreateUser_Validation() {
	admin := suite.createUser("admin", models.RoleAdmin)

	_, err := suite.userService.Create(suite.ctx, admin, CreateUserInput{Name: "Dana", Email: "not-an-email"})
	suite.Require().True(isValidation(err))
	suite.Equal("email must be a valid email address", err.Error())

	_, err = suite.userService.Create(suite.ctx, admin, CreateUserInput{Name: "Dana", Email: "dana@example.com", Role: "owner"})
	suite.True(isValidation(err))
}

func (suite *ServiceTestSuite) TestUserManagement_AdminOnly() {
	member := suite.createUser("member", models.RoleMember)
	other := suite.createUser("other", models.RoleMember)

	_, err := suite.userService.Create(suite.ctx, member, CreateUserInput{Name: "Dana", Email: "dana@example.com"})
	suite.ErrorIs(err, authz.ErrForbidden)

	_, err = suite.userService.List(suite.ctx, member)
	suite.ErrorIs(err, authz.ErrForbidden)

	_, err = suite.userService.Get(suite.ctx, member, other.ID)
	suite.ErrorIs(err, authz.ErrForbidden)

	_, err = suite.userService.Get(suite.ctx, member, 999)
	suite.ErrorIs(err, ErrUserNotFound)

	self, err := suite.userService.Get(suite.ctx, member, member.ID)
	suite.Require().NoError(err)
	suite.Equal("member", self.Name)
}

func (suite *ServiceTestSuite) TestUpdateUser() {
	admin := suite.createUser("admin", models.RoleAdmin)
	target := suite.createUser("target", models.RoleMember)
	suite.createUser("taken", models.RoleMember)

	updated, err := suite.userService.Update(suite.ctx, admin, target.ID, UpdateUserInput{Name: ptr("Renamed"), Role: ptr("admin")})
	suite.Require().NoError(err)
	suite.Equal("Renamed", updated.Name)
	suite.Equal(models.RoleAdmin, updated.Role)

	_, err = suite.userService.Update(suite.ctx, admin, target.ID, UpdateUserInput{Email: ptr("taken@example.com")})
	suite.ErrorIs(err, ErrEmailTaken)
}

func (suite *ServiceTestSuite) TestDeleteUser() {
	admin := suite.createUser("admin", models.RoleAdmin)
	target := suite.createUser("target", models.RoleMember)
	suite.createTask("Owned task", &target.ID, nil)

	suite.Require().NoError(suite.userService.Delete(suite.ctx, admin, target.ID))

	var count int64
	suite.Require().NoError(suite.db.Model(&models.Task{}).Count(&count).Error)
	suite.Zero(count)

	err := suite.userService.Delete(suite.ctx, admin, target.ID)
	suite.ErrorIs(err, ErrUserNotFound)
}

func (suite *ServiceTestSuite) TestDeleteUser_OwnsGroups() {
	admin := suite.createUser("admin", models.RoleAdmin)
	other := suite.createUser("other", models.RoleAdmin)
	suite.createGroup(other, "Eng")

	err := suite.userService.Delete(suite.ctx, admin, other.ID)
	suite.ErrorIs(err, ErrUserOwnsGroups)
}

func (suite *ServiceTestSuite) TestSetPassword_OneTime() {
	user := suite.createUser("dana", models.RoleMember)
	token, err := suite.tokens.IssuePasswordSetup(user.ID)
	suite.Require().NoError(err)

	err = suite.userService.SetPassword(suite.ctx, SetPasswordInput{Token: token, NewPassword: "short"})
	suite.True(isValidation(err))

	suite.Require().NoError(suite.userService.SetPassword(suite.ctx, SetPasswordInput{Token: token, NewPassword: "password123"}))

	session, err := suite.authService.Login(suite.ctx, LoginInput{Email: "dana@example.com", Password: "password123"})
	suite.Require().NoError(err)
	suite.NotEmpty(session.Token)

	err = suite.userService.SetPassword(suite.ctx, SetPasswordInput{Token: token, NewPassword: "another-password"})
	suite.ErrorIs(err, ErrPasswordAlreadySet)
}

func (suite *ServiceTestSuite) TestSetPassword_BadTokens() {
	user := suite.createUser("dana", models.RoleMember)

	err := suite.userService.SetPassword(suite.ctx, SetPasswordInput{Token: "garbage", NewPassword: "password123"})
	suite.ErrorIs(err, ErrSetupLinkInvalid)

	session, _, err := suite.tokens.IssueSession(&models.User{ID: user.ID, Role: user.Role})
	suite.Require().NoError(err)
	err = suite.userService.SetPassword(suite.ctx, SetPasswordInput{Token: session, NewPassword: "password123"})
	suite.ErrorIs(err, ErrSetupLinkInvalid)
}

func (suite *ServiceTestSuite) TestResendSetupEmail() {
	admin := suite.createUser("admin", models.RoleAdmin)
	user := suite.createUser("dana", models.RoleMember)

	suite.Require().NoError(suite.userService.ResendSetupEmail(suite.ctx, admin, user.ID))
	suite.Len(suite.mailer.sent, 1)

	hash := "hash"
	suite.Require().NoError(suite.db.Model(&models.User{}).Where("id = ?", user.ID).Update("password_hash", &hash).Error)

	err := suite.userService.ResendSetupEmail(suite.ctx, admin, user.ID)
	suite.ErrorIs(err, ErrPasswordAlreadySet)
}
