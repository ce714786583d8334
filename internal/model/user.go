package model

import "strings"

// Role is one of the fixed user roles.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is an account able to log in and own mappings.
type User struct {
	ID           string
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         Role
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Principal is the authenticated caller of a request.
type Principal struct {
	ID       string
	Username string
	Role     Role
}

// IsAdmin reports whether the principal carries the Admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanManage reports whether the principal may modify a mapping owned by ownerID.
func (p Principal) CanManage(ownerID string) bool {
	return p.IsAdmin() || (p.ID != "" && p.ID == ownerID)
}
