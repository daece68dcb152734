package dto

// CreateAdminRequest is the admin-create schema
type CreateAdminRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100" example:"Jane Admin"`
	Email    string `json:"email" validate:"required,email" example:"jane@example.com"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=admin" example:"admin"`
	Password string `json:"password,omitempty" validate:"omitempty,min=6" example:"secret1"`
}

// UpdateAdminRequest is the admin-update schema; at least one field is required
type UpdateAdminRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=2,max=100" example:"Jane A."`
	Email *string `json:"email,omitempty" validate:"omitempty,email" example:"jane.a@example.com"`
}
