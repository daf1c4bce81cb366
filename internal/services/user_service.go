package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/teamtask-api/internal/auth"
	"github.com/yukikurage/teamtask-api/internal/authz"
	"github.com/yukikurage/teamtask-api/internal/constants"
	"github.com/yukikurage/teamtask-api/internal/mail"
	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles admin user management and password setup.
type UserService struct {
	userRepo    repository.UserRepository
	policy      *authz.Policy
	tokens      *auth.TokenManager
	mailer      mail.Mailer
	frontendURL string
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository, policy *authz.Policy, tokens *auth.TokenManager, mailer mail.Mailer, frontendURL string) *UserService {
	return &UserService{
		userRepo:    userRepo,
		policy:      policy,
		tokens:      tokens,
		mailer:      mailer,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// CreateUserInput represents an admin-created account. The password is
// chosen later by the user through the emailed link.
type CreateUserInput struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
	Role  string `json:"role"`
}

// UpdateUserInput holds the fields an admin may change. Nil fields are left
// untouched.
type UpdateUserInput struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=255"`
	Email *string `json:"email" validate:"omitempty,email,max=255"`
	Role  *string `json:"role"`
}

// SetPasswordInput consumes a password setup link.
type SetPasswordInput struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

func parseRole(value string) (models.Role, error) {
	if strings.TrimSpace(value) == "" {
		return models.RoleMember, nil
	}
	role, ok := models.ParseRole(value)
	if !ok {
		return "", invalid("role must be one of: admin member")
	}
	return role, nil
}

// List returns every user ordered by name.
func (s *UserService) List(ctx context.Context, actor authz.Actor) ([]models.User, error) {
	if err := s.policy.Authorize(ctx, actor, authz.ActionList, authz.UserResource(0)); err != nil {
		return nil, err
	}
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, actor authz.Actor, id uint64) (*models.User, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(ctx, actor, authz.ActionRead, authz.UserResource(id)); err != nil {
		return nil, err
	}
	return user, nil
}

// Create inserts the user and emails a password setup link. If the email
// cannot be sent the user is not created.
func (s *UserService) Create(ctx context.Context, actor authz.Actor, input CreateUserInput) (*models.User, error) {
	if err := s.policy.Authorize(ctx, actor, authz.ActionCreate, authz.UserResource(0)); err != nil {
		return nil, err
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	role, err := parseRole(input.Role)
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByEmail(ctx, input.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	user := &models.User{
		Name:  input.Name,
		Email: input.Email,
		Role:  role,
	}
	err = s.userRepo.CreateAndConfirm(ctx, user, func(created *models.User) error {
		return s.sendSetupEmail(ctx, created)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		if errors.Is(err, ErrEmailDelivery) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (s *UserService) sendSetupEmail(ctx context.Context, user *models.User) error {
	token, err := s.tokens.IssuePasswordSetup(user.ID)
	if err != nil {
		return err
	}
	msg := mail.PasswordSetupMessage(user.Email, user.Name, s.frontendURL, token)
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrEmailDelivery, err)
	}
	return nil
}

// Update changes name, email or role.
func (s *UserService) Update(ctx context.Context, actor authz.Actor, id uint64, input UpdateUserInput) (*models.User, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(ctx, actor, authz.ActionUpdate, authz.UserResource(id)); err != nil {
		return nil, err
	}

	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		input.Name = &trimmed
	}
	if input.Email != nil {
		normalized := normalizeEmail(*input.Email)
		input.Email = &normalized
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Email != nil && *input.Email != user.Email {
		if other, err := s.userRepo.FindByEmail(ctx, *input.Email); err == nil && other.ID != user.ID {
			return nil, ErrEmailTaken
		} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		user.Email = *input.Email
	}
	if input.Role != nil {
		role, ok := models.ParseRole(*input.Role)
		if !ok {
			return nil, invalid("role must be one of: admin member")
		}
		user.Role = role
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrEmailTaken
		default:
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}
	return user, nil
}

// Delete removes the user with its memberships and owned tasks. Users who
// created groups cannot be deleted while those groups exist.
func (s *UserService) Delete(ctx context.Context, actor authz.Actor, id uint64) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.policy.Authorize(ctx, actor, authz.ActionDelete, authz.UserResource(id)); err != nil {
		return err
	}

	created, err := s.userRepo.CountCreatedGroups(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count groups: %w", err)
	}
	if created > 0 {
		return ErrUserOwnsGroups
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// ResendSetupEmail issues a new setup link while the password is unset.
func (s *UserService) ResendSetupEmail(ctx context.Context, actor authz.Actor, id uint64) error {
	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.Authorize(ctx, actor, authz.ActionUpdate, authz.UserResource(id)); err != nil {
		return err
	}
	if user.HasPassword() {
		return ErrPasswordAlreadySet
	}
	return s.sendSetupEmail(ctx, user)
}

// SetPassword consumes a setup token. The link only works while the
// account has no password, so it can be used once.
func (s *UserService) SetPassword(ctx context.Context, input SetPasswordInput) error {
	if err := validateInput(input); err != nil {
		return err
	}

	claims, err := s.tokens.Parse(input.Token, constants.TokenPurposePasswordSetup)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return ErrSetupLinkExpired
		}
		return ErrSetupLinkInvalid
	}

	user, err := s.find(ctx, claims.UserID)
	if err != nil {
		return err
	}
	if user.HasPassword() {
		return ErrPasswordAlreadySet
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.SetPasswordIfUnset(ctx, user.ID, string(hashed)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPasswordAlreadySet
		}
		return fmt.Errorf("failed to set password: %w", err)
	}
	return nil
}

func (s *UserService) find(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}
