package model

import "strings"

// Role is the authorization role of an authenticated user.
type Role string

const (
	RoleFaculty Role = "FACULTY"
	RoleHOD     Role = "HOD"
	RoleAdmin   Role = "ADMIN"
	RoleIT      Role = "IT"
)

// ParseRole normalizes a role string. Unknown roles report false.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case RoleFaculty, RoleHOD, RoleAdmin, RoleIT:
		return r, true
	}
	return "", false
}

// In reports whether r is one of roles.
func (r Role) In(roles ...Role) bool {
	for _, x := range roles {
		if r == x {
			return true
		}
	}
	return false
}

// User is the authenticated identity returned by /auth/me.
type User struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Role       Role   `json:"role"`
}

// Ref returns the display reference for u.
func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name, Email: u.Email, Department: u.Department}
}
