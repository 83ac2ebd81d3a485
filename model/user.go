// model/user.go
package model

import (
	"strings"
	"time"
)

// Role is the canonical role enumeration. Historical records carry the
// strings in assorted casings ("patron", "Patron", "ADMIN"); ParseRole is
// the single place that maps them.
type Role string

const (
	RoleStudent   Role = "STUDENT"
	RoleLibrarian Role = "LIBRARIAN"
	RoleAdmin     Role = "ADMIN"
)

func ParseRole(s string) Role {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LIBRARIAN", "PATRON":
		return RoleLibrarian
	case "ADMIN":
		return RoleAdmin
	default:
		return RoleStudent
	}
}

// CanApprove reports whether the role may approve, check out or check in
// borrow requests.
func (r Role) CanApprove() bool { return r == RoleLibrarian }

type User struct {
	ID           int64      `json:"id"`
	IndexNo      string     `json:"index_no"`
	Surname      string     `json:"surname"`
	FirstName    string     `json:"first_name"`
	OtherName    string     `json:"other_name,omitempty"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	Status       bool       `json:"status"`
	LastSeen     *time.Time `json:"last_seen,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// RegisterReq represents user registration payload
// swagger:model RegisterReq
type RegisterReq struct {
	IndexNo     string `json:"index_no" validate:"required"`
	Surname     string `json:"surname" validate:"required"`
	FirstName   string `json:"first_name" validate:"required"`
	OtherName   string `json:"other_name"`
	DateOfBirth string `json:"date_of_birth" validate:"required"`
	Password    string `json:"password" validate:"required,min=6"`
	Role        string `json:"role"`
}

// LoginReq represents login payload
// swagger:model LoginReq
type LoginReq struct {
	IndexNo  string `json:"index_no" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdatePasswordReq represents password change payload
// swagger:model UpdatePasswordReq
type UpdatePasswordReq struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}
