package authz

import "github.com/yukikurage/teamtask-api/internal/models"

// Actor is the authenticated identity performing an operation. Its role is
// read from the store on every request, not from the token.
type Actor struct {
	ID   uint64      `json:"id"`
	Role models.Role `json:"role"`
}

// ActorFromUser builds an Actor from a stored user.
func ActorFromUser(user *models.User) Actor {
	return Actor{ID: user.ID, Role: user.Role}
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}
