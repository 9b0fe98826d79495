package middleware

import (
	"arena-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const userLocal = "user"

// RequireAuth ensures a user is in the session. Returns 401 with the
// standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := c.Locals(userLocal)
		if user == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		c.Locals("auth", user)
		return c.Next()
	}
}

// GetUser returns the session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}

// Actor is the resolved caller: identity plus team binding.
type Actor struct {
	UserID uuid.UUID
	TeamID *uuid.UUID
	Role   string
}

// ResolveActor extracts the caller from the session user map. Returns nil
// when there is no usable identity.
func ResolveActor(c *fiber.Ctx) *Actor {
	u := GetUser(c)
	if u == nil {
		return nil
	}
	m, ok := u.(map[string]interface{})
	if !ok {
		return nil
	}
	userIDStr, _ := m["user_id"].(string)
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil
	}
	actor := &Actor{UserID: userID}
	actor.Role, _ = m["role"].(string)
	if t, ok := m["team_id"]; ok && t != nil {
		if s, ok := t.(string); ok && s != "" {
			if teamID, err := uuid.Parse(s); err == nil {
				actor.TeamID = &teamID
			}
		}
	}
	return actor
}
