package models

import (
	"time"
)

// User is a credential record
type User struct {
	ID        string    `json:"id" example:"5b0f8a1e-3c1d-4a8e-9a43-2c1f6f0d7b11"`
	Name      string    `json:"name" example:"Jane Admin"`
	Email     string    `json:"email" example:"jane@example.com"`
	Password  string    `json:"-"` // bcrypt hash, empty when the account has no password
	Role      Role      `json:"role" example:"admin"`
	CreatedAt time.Time `json:"createdAt" example:"2024-01-01T10:00:00Z"`
	UpdatedAt time.Time `json:"updatedAt" example:"2024-01-02T15:30:00Z"`
}

// UserUpdate carries the optional fields of a partial user update.
type UserUpdate struct {
	Name  *string
	Email *string
}

// Empty reports whether no field is set.
func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.Email == nil
}
