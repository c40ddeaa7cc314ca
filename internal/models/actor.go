package models

import "github.com/golang-jwt/jwt/v5"

// ActorClaims carries the authenticated caller's identity. The engine only
// uses it for audit fields and never branches on role.
type ActorClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// ActorID returns the caller identity, an opaque subject string.
func (c *ActorClaims) ActorID() string {
	return c.Subject
}
