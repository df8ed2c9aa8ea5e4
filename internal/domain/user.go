package domain

import "time"

// Role enumerates the two account roles.
type Role string

const (
	RoleStaff Role = "staff"
	RoleAdmin Role = "admin"
)

// User is an account that can authenticate against the helpdesk.
// Self-registration always yields a staff account; the single admin
// is seeded at startup. Only the password is mutable after creation.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsStaff reports whether the user holds the staff role.
func (u *User) IsStaff() bool {
	return u != nil && u.Role == RoleStaff
}
