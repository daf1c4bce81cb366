package constants

import "time"

// Context keys
const (
	ContextKeyUserID = "user_id"
	ContextKeyActor  = "actor"
	ContextKeyClaims = "claims"
	ContextKeyUser   = "user"
)

// Session and credential transport
const (
	SessionCookieName = "task_session"
	SessionTokenKey   = "token"
	TokenQueryParam   = "token"
	BearerPrefix      = "Bearer "
)

// Token purposes
const (
	TokenPurposeSession       = "session"
	TokenPurposePasswordSetup = "password_setup"
	PasswordSetupTokenTTL     = 24 * time.Hour
)

// Validation
const (
	MinPasswordLength = 8
	MinTitleLength    = 3
	MaxTitleLength    = 255
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// AI
const (
	MaxAIGeneratedTasks = 20
)
