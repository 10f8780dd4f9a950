package auth

import (
	"github.com/google/uuid"
)

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authenticated caller of an operation. Identity is established by
// the token middleware; services trust it as already authenticated.
type Actor struct {
	ID   uuid.UUID
	Role Role
}
