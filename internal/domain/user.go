package domain

import (
	"context"
	"time"
)

// Roles known to the resume service. Users are provisioned by the auth
// service; this backend only reads them.
const (
	RoleApplicant = "APPLICANT"
	RoleRecruiter = "RECRUITER"
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Nickname  string    `json:"nickname"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role string
}

func (a Actor) IsRecruiter() bool { return a.Role == RoleRecruiter }

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
}

type AuthUsecase interface {
	GetCurrentUser(ctx context.Context, id string) (*User, error)
}
