package dto

// CreateStudentRequest is the student-create schema
type CreateStudentRequest struct {
	Name   string `json:"name" validate:"required,min=2,max=100" example:"Ann"`
	Email  string `json:"email" validate:"required,email" example:"ann@example.com"`
	Age    *int   `json:"age" validate:"required,student_age" example:"20"`
	Course string `json:"course" validate:"required,max=100" example:"CS"`
}

// UpdateStudentRequest is the student-update schema. Only these fields are
// mutable; at least one is required.
type UpdateStudentRequest struct {
	Name   *string `json:"name,omitempty" validate:"omitempty,min=2,max=100" example:"Ann B."`
	Age    *int    `json:"age,omitempty" validate:"omitempty,student_age" example:"21"`
	Course *string `json:"course,omitempty" validate:"omitempty,min=1,max=100" example:"Math"`
}
