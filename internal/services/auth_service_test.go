package services

import (
	"github.com/yukikurage/teamtask-api/internal/auth"
	"github.com/yukikurage/teamtask-api/internal/constants"
	"github.com/yukikurage/teamtask-api/internal/models"
)

func (suite *ServiceTestSuite) TestRegister_Success() {
	session, err := suite.authService.Register(suite.ctx, RegisterInput{
		Name:     " Alice ",
		Email:    "Alice@Example.com",
		Password: "password123",
	})
	suite.Require().NoError(err)

	suite.Equal("Alice", session.User.Name)
	suite.Equal("alice@example.com", session.User.Email)
	suite.Equal(models.RoleMember, session.User.Role)
	suite.NotEmpty(session.Token)

	claims, err := suite.tokens.Parse(session.Token, constants.TokenPurposeSession)
	suite.Require().NoError(err)
	suite.Equal(session.User.ID, claims.UserID)
}

func (suite *ServiceTestSuite) TestRegister_BootstrapAdmin() {
	session, err := suite.authService.Register(suite.ctx, RegisterInput{
		Name:     "Boss",
		Email:    "boss@example.com",
		Password: "password123",
	})
	suite.Require().NoError(err)
	suite.Equal(models.RoleAdmin, session.User.Role)
}

func (suite *ServiceTestSuite) TestRegister_DuplicateEmail() {
	input := RegisterInput{Name: "Alice", Email: "a@b.com", Password: "password123"}
	_, err := suite.authService.Register(suite.ctx, input)
	suite.Require().NoError(err)

	input.Email = "A@B.com"
	_, err = suite.authService.Register(suite.ctx, input)
	suite.ErrorIs(err, ErrEmailTaken)
}

func (suite *ServiceTestSuite) TestRegister_ShortPassword() {
	_, err := suite.authService.Register(suite.ctx, RegisterInput{Name: "Alice", Email: "a@b.com", Password: "short"})
	suite.Require().ErrorIs(err, ErrValidation)
	suite.Equal("password must be at least 8 characters", err.Error())
}

func (suite *ServiceTestSuite) TestLogin() {
	_, err := suite.authService.Register(suite.ctx, RegisterInput{Name: "Alice", Email: "a@b.com", Password: "password123"})
	suite.Require().NoError(err)

	session, err := suite.authService.Login(suite.ctx, LoginInput{Email: "A@b.com", Password: "password123"})
	suite.Require().NoError(err)
	suite.NotEmpty(session.Token)

	_, err = suite.authService.Login(suite.ctx, LoginInput{Email: "a@b.com", Password: "wrong-password"})
	suite.ErrorIs(err, ErrInvalidCredentials)

	_, err = suite.authService.Login(suite.ctx, LoginInput{Email: "nobody@b.com", Password: "password123"})
	suite.ErrorIs(err, ErrInvalidCredentials)
}

func (suite *ServiceTestSuite) TestLogin_PasswordNotSet() {
	suite.createUser("pending", models.RoleMember)

	_, err := suite.authService.Login(suite.ctx, LoginInput{Email: "pending@example.com", Password: "password123"})
	suite.ErrorIs(err, ErrPasswordNotSet)
}

func (suite *ServiceTestSuite) TestLogout_RevokesToken() {
	session, err := suite.authService.Register(suite.ctx, RegisterInput{Name: "Alice", Email: "a@b.com", Password: "password123"})
	suite.Require().NoError(err)

	claims, err := suite.tokens.Parse(session.Token, constants.TokenPurposeSession)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.authService.Logout(suite.ctx, claims))

	resolver := suite.authService.resolver
	_, err = resolver.Resolve(suite.ctx, session.Token)
	suite.ErrorIs(err, auth.ErrTokenRevoked)
}

func (suite *ServiceTestSuite) TestGetUser_NotFound() {
	_, err := suite.authService.GetUser(suite.ctx, 404)
	suite.ErrorIs(err, ErrUserNotFound)
}
