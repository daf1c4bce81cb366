package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/teamtask-api/internal/authz"
	"github.com/yukikurage/teamtask-api/internal/constants"
	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/repository"
)

// UserLookup loads the current user row for a token subject.
type UserLookup interface {
	FindByID(ctx context.Context, id uint64) (*models.User, error)
}

// Identity is a resolved credential.
type Identity struct {
	Actor  authz.Actor
	User   *models.User
	Claims *Claims
}

// Resolver turns a bearer credential into the acting identity.
type Resolver struct {
	tokens  *TokenManager
	revoked RevocationStore
	users   UserLookup
}

func NewResolver(tokens *TokenManager, revoked RevocationStore, users UserLookup) *Resolver {
	return &Resolver{
		tokens:  tokens,
		revoked: revoked,
		users:   users,
	}
}

// Resolve verifies the token, rejects revoked tokens, and re-reads the user
// so the returned role reflects the store rather than the token.
func (r *Resolver) Resolve(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrNoCredential
	}

	claims, err := r.tokens.Parse(token, constants.TokenPurposeSession)
	if err != nil {
		return nil, err
	}

	if r.revoked != nil && claims.ID != "" {
		revoked, err := r.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token revocation: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	user, err := r.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownIdentity
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	return &Identity{
		Actor:  authz.ActorFromUser(user),
		User:   user,
		Claims: claims,
	}, nil
}

// Revoke invalidates the token behind claims until it expires.
func (r *Resolver) Revoke(ctx context.Context, claims *Claims) error {
	if r.revoked == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	return r.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// IsCredentialError reports whether err rejects the credential itself, as
// opposed to an infrastructure failure.
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrNoCredential) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenMalformed) ||
		errors.Is(err, ErrTokenRevoked) ||
		errors.Is(err, ErrUnknownIdentity)
}
