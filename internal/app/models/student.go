package models

import "time"

// Student is a student record, optionally owned by the user who registered it.
type Student struct {
	ID        string    `json:"id" example:"5b0f8a1e-3c1d-4a8e-9a43-2c1f6f0d7b12"`
	Name      string    `json:"name" example:"Ann"`
	Email     string    `json:"email" example:"ann@example.com"`
	Age       int       `json:"age" example:"20"`
	Course    string    `json:"course" example:"CS"`
	Owner     *string   `json:"owner,omitempty" example:"5b0f8a1e-3c1d-4a8e-9a43-2c1f6f0d7b11"`
	CreatedAt time.Time `json:"createdAt" example:"2024-01-01T10:00:00Z"`
	UpdatedAt time.Time `json:"updatedAt" example:"2024-01-02T15:30:00Z"`
}

// OwnedBy reports whether userID owns the record.
func (s *Student) OwnedBy(userID string) bool {
	return s.Owner != nil && *s.Owner == userID
}

// StudentUpdate carries the mutable fields of a partial student update.
type StudentUpdate struct {
	Name   *string
	Age    *int
	Course *string
}

// Empty reports whether no field is set.
func (u StudentUpdate) Empty() bool {
	return u.Name == nil && u.Age == nil && u.Course == nil
}
