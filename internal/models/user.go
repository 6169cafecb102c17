package models

import (
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role names carried in the JWT roles claim.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// User is a dashboard account. Passwords are stored as bcrypt hashes only.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID   `bun:"id,pk,type:uuid" json:"id"`
	Email        string      `bun:"email,unique,notnull" json:"email"`
	PasswordHash string      `bun:"password_hash,notnull" json:"-"`
	Roles        StringArray `bun:"roles,type:json" json:"roles"`
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
