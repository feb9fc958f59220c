package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user's role in the platform. Empty until the user
// picks one via the one-time select-role operation.
type Role string

const (
	RoleNone    Role = ""
	RoleStudent Role = "student"
	RoleOwner   Role = "owner"
)

// ValidRole reports whether r is a selectable role.
func ValidRole(r Role) bool {
	return r == RoleStudent || r == RoleOwner
}

// User represents a platform user (student or PG/hostel owner).
type User struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone,omitempty"`
	Password   string     `json:"-"`
	Role       Role       `json:"role"`
	PGHostelID *uuid.UUID `json:"pgHostelId,omitempty"` // set only for students who joined a PG
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone,omitempty"`
	Role       Role       `json:"role"`
	PGHostelID *uuid.UUID `json:"pgHostelId,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Phone:      u.Phone,
		Role:       u.Role,
		PGHostelID: u.PGHostelID,
		CreatedAt:  u.CreatedAt,
	}
}
