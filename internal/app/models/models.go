package models

// Role identifies what a user may do.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
	RoleUser    Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStudent, RoleUser:
		return true
	}
	return false
}

// Identity is the authenticated caller attached to a request.
type Identity struct {
	UserID string `json:"id"`
	Role   Role   `json:"role"`
}

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
