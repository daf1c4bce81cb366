package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/yukikurage/teamtask-api/internal/constants"
	"github.com/yukikurage/teamtask-api/internal/models"
)

var (
	ErrNoCredential    = errors.New("authentication required")
	ErrTokenExpired    = errors.New("token expired")
	ErrTokenMalformed  = errors.New("malformed token")
	ErrTokenRevoked    = errors.New("token revoked")
	ErrUnknownIdentity = errors.New("user no longer exists")
)

// Claims is the payload of every token the API issues.
type Claims struct {
	UserID  uint64      `json:"uid"`
	Role    models.Role `json:"role,omitempty"`
	Purpose string      `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// IssueSession returns a session token for the user.
func (m *TokenManager) IssueSession(user *models.User) (string, *Claims, error) {
	return m.issue(user.ID, user.Role, constants.TokenPurposeSession, m.ttl)
}

// IssuePasswordSetup returns a token allowing the user to choose a password.
func (m *TokenManager) IssuePasswordSetup(userID uint64) (string, error) {
	token, _, err := m.issue(userID, "", constants.TokenPurposePasswordSetup, constants.PasswordSetupTokenTTL)
	return token, err
}

func (m *TokenManager) issue(userID uint64, role models.Role, purpose string, ttl time.Duration) (string, *Claims, error) {
	now := m.now()
	claims := &Claims{
		UserID:  userID,
		Role:    role,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies the token and checks it was issued for purpose. Expired
// tokens yield ErrTokenExpired; anything else unverifiable yields
// ErrTokenMalformed.
func (m *TokenManager) Parse(token, purpose string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	if claims.Purpose != purpose || claims.UserID == 0 {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}
