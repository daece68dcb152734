package dto

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" example:"admin@studentdesk.local"`
	Password string `json:"password" example:"secret1"`
}

// LoginResponse is returned by a successful admin login
type LoginResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role" example:"admin"`
	Token string `json:"token"`
}

// RegisterRequest represents a self-registration. Age and course are only
// read when role is "student".
type RegisterRequest struct {
	Name     string `json:"name" example:"Ann"`
	Email    string `json:"email" example:"ann@x.com"`
	Password string `json:"password" example:"secret1"`
	Role     string `json:"role,omitempty" example:"student" enums:"user,student"`
	Age      *int   `json:"age,omitempty" example:"20"`
	Course   string `json:"course,omitempty" example:"CS"`
}

// RegisterResponse is returned by a successful registration
type RegisterResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role" example:"student"`
	Token string `json:"token"`
}

// ProfileResponse is the public view of the authenticated user
type ProfileResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
